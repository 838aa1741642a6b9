package rides

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/middleware"
	"github.com/richxcame/ride-sharing/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Handler handles HTTP requests for rides
type Handler struct {
	service *Service
}

// NewHandler creates a new rides handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRide handles publishing a new ride
func (h *Handler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	ride, err := h.service.CreateRide(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to create ride")
		return
	}

	common.CreatedResponse(c, ride)
}

// GetRide handles getting a ride by ID
func (h *Handler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// ListRides handles listing rides page by page
func (h *Handler) ListRides(c *gin.Context) {
	params := pagination.ParseParams(c)

	rides, total, err := h.service.ListRides(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list rides")
		return
	}

	common.SuccessResponseWithMeta(c, rides, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetRidesByDate handles listing the rides departing on a given day
func (h *Handler) GetRidesByDate(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	rides, err := h.service.GetRidesByDate(c.Request.Context(), date)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get rides")
		return
	}

	common.SuccessResponse(c, rides)
}

// StartRide handles a driver starting a ride
func (h *Handler) StartRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	ride, err := h.service.StartRide(c.Request.Context(), rideID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to start ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// CompleteRide handles completing a ride at its destination
func (h *Handler) CompleteRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	var req CompleteRideRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	ride, err := h.service.CompleteRide(c.Request.Context(), rideID, req.CurrentLocation)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to complete ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// CancelRide handles cancelling a scheduled ride
func (h *Handler) CancelRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	ride, err := h.service.CancelRide(c.Request.Context(), rideID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to cancel ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// RegisterRoutes registers ride routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	rides := r.Group("/api/v1/rides")
	{
		rides.POST("", h.CreateRide)
		rides.GET("", h.ListRides)
		rides.GET("/by-date", h.GetRidesByDate)
		rides.GET("/:id", h.GetRide)
		rides.PATCH("/:id/start", h.StartRide)
		rides.PATCH("/:id/complete", h.CompleteRide)
		rides.PATCH("/:id/cancel", h.CancelRide)
	}
}
