package rides

import (
	"time"

	"github.com/google/uuid"
)

// CreateRideRequest is the payload for publishing a ride
type CreateRideRequest struct {
	DriverID        uuid.UUID `json:"driver_id" validate:"required"`
	StartLocation   string    `json:"start_location" validate:"required,max=255"`
	EndLocation     string    `json:"end_location" validate:"required,max=255"`
	DepartureTime   time.Time `json:"departure_time" validate:"required"`
	ArrivalTime     time.Time `json:"arrival_time" validate:"required"`
	SeatsAvailable  int       `json:"seats_available"`
	SeatPrice       float64   `json:"seat_price"`
	CarLicensePlate string    `json:"car_license_plate" validate:"required,plate"`
}

// CompleteRideRequest carries the driver's location when finishing a ride
type CompleteRideRequest struct {
	CurrentLocation string `json:"current_location" validate:"required"`
}
