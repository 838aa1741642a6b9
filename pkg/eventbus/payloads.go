package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// RideCreatedData is published when a driver publishes a ride
type RideCreatedData struct {
	RideID        uuid.UUID `json:"ride_id"`
	DriverID      uuid.UUID `json:"driver_id"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	TotalSeats    int       `json:"total_seats"`
}

// RideStatusChangedData is published on every ride transition
type RideStatusChangedData struct {
	RideID            uuid.UUID   `json:"ride_id"`
	DriverID          uuid.UUID   `json:"driver_id"`
	From              string      `json:"from"`
	To                string      `json:"to"`
	CancelledBookings []uuid.UUID `json:"cancelled_bookings,omitempty"`
}

// BookingData is published when a booking is created or cancelled
type BookingData struct {
	BookingID      uuid.UUID `json:"booking_id"`
	RideID         uuid.UUID `json:"ride_id"`
	PassengerID    uuid.UUID `json:"passenger_id"`
	SeatsAvailable int       `json:"seats_available"`
}

// ReviewSubmittedData is published when a review is accepted
type ReviewSubmittedData struct {
	ReviewID      uuid.UUID `json:"review_id"`
	RideID        uuid.UUID `json:"ride_id"`
	ReviewerID    uuid.UUID `json:"reviewer_id"`
	ReviewedID    uuid.UUID `json:"reviewed_id"`
	Rating        int       `json:"rating"`
	AvgRating     float64   `json:"avg_rating"`
	ReviewsNumber int       `json:"reviews_number"`
}
