package bookings

import "github.com/google/uuid"

// BookingRequest identifies a passenger's seat on a ride
type BookingRequest struct {
	RideID      uuid.UUID `json:"ride_id" validate:"required"`
	PassengerID uuid.UUID `json:"passenger_id" validate:"required"`
}
