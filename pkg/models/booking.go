package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the state of a seat reservation
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is a known booking status
func (s BookingStatus) Valid() bool {
	return s == BookingStatusBooked || s == BookingStatusCancelled
}

// RideBooking is a passenger's reservation of one seat on a ride
type RideBooking struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	RideID      uuid.UUID     `json:"ride_id" db:"ride_id"`
	PassengerID uuid.UUID     `json:"passenger_id" db:"passenger_id"`
	Status      BookingStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Passenger is a booking together with the passenger's name
type Passenger struct {
	BookingID   uuid.UUID     `json:"booking_id"`
	PassengerID uuid.UUID     `json:"passenger_id"`
	FullName    string        `json:"full_name"`
	Status      BookingStatus `json:"status"`
	BookedAt    time.Time     `json:"booked_at"`
}
