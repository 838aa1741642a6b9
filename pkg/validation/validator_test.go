package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	RideID      string `json:"ride_id" validate:"required,uuid"`
	Plate       string `json:"car_license_plate" validate:"required,plate"`
	Comment     string `json:"comment" validate:"max=10"`
	PassengerID string `json:"-" validate:"omitempty,uuid"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := sampleRequest{
		RideID:  "7d0a3a1e-4c6b-4f3b-9d57-0b9ad2a1f0c4",
		Plate:   "AB-123 CD",
		Comment: "nice",
	}

	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStruct_FieldErrorsUseJSONNames(t *testing.T) {
	req := sampleRequest{
		RideID:      "not-a-uuid",
		Plate:       "??",
		Comment:     "far too long comment",
		PassengerID: "x",
	}

	err := ValidateStruct(&req)
	require.Error(t, err)

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ride_id must be a valid UUID", valErr.Errors["ride_id"])
	assert.Contains(t, valErr.Errors["car_license_plate"], "license plate")
	assert.Equal(t, "comment must be at most 10 characters long", valErr.Errors["comment"])
	assert.Equal(t, "PassengerID must be a valid UUID", valErr.Errors["PassengerID"])
}

func TestValidateStruct_Required(t *testing.T) {
	err := ValidateStruct(&sampleRequest{})

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ride_id is required", valErr.Errors["ride_id"])
	assert.Equal(t, "car_license_plate is required", valErr.Errors["car_license_plate"])
}

func TestValidationError_ErrorIsSorted(t *testing.T) {
	v := &ValidationError{}
	assert.False(t, v.HasErrors())

	v.AddError("b", "second")
	v.AddError("a", "first")

	assert.True(t, v.HasErrors())
	assert.Equal(t, "a: first; b: second", v.Error())
}
