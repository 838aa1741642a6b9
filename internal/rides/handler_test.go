package rides_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ride-sharing/internal/rides"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(e *engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	rides.NewHandler(e.rides).RegisterRoutes(router)
	return router
}

func send(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAndGetRide(t *testing.T) {
	e := newEngine()
	router := setupRouter(e)
	driver := e.user()

	w := send(router, http.MethodPost, "/api/v1/rides", map[string]interface{}{
		"driver_id":         driver,
		"start_location":    "Lisbon",
		"end_location":      "Porto",
		"departure_time":    e.at(10, 0),
		"arrival_time":      e.at(13, 0),
		"seats_available":   3,
		"seat_price":        15,
		"car_license_plate": plate,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "SCHEDULED", created.Data.Status)

	w = send(router, http.MethodGet, "/api/v1/rides/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(router, http.MethodGet, "/api/v1/rides/by-date?date=2025-06-01", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Data.ID)

	w = send(router, http.MethodGet, "/api/v1/rides?limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestHandler_Errors(t *testing.T) {
	e := newEngine()
	router := setupRouter(e)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{"bad date", http.MethodGet, "/api/v1/rides/by-date?date=01-06-2025", nil, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/rides/nope", nil, http.StatusBadRequest},
		{"missing ride", http.MethodPatch, "/api/v1/rides/6f1c2c0e-3b1a-4d0f-9a57-3d1f3b2c9e10/start", nil, http.StatusNotFound},
		{"complete without location", http.MethodPatch, "/api/v1/rides/6f1c2c0e-3b1a-4d0f-9a57-3d1f3b2c9e10/complete", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)

			var resp common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
		})
	}
}
