package models

import (
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the lifecycle state of a ride
type RideStatus string

const (
	RideStatusScheduled  RideStatus = "SCHEDULED"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// Valid reports whether s is a known ride status
func (s RideStatus) Valid() bool {
	switch s {
	case RideStatusScheduled, RideStatusInProgress, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

// ParticipantRole selects how a person takes part in a ride
type ParticipantRole string

const (
	RoleDriver    ParticipantRole = "driver"
	RolePassenger ParticipantRole = "passenger"
)

// Ride represents a published trip offer
type Ride struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	DriverID        uuid.UUID  `json:"driver_id" db:"driver_id"`
	StartLocation   string     `json:"start_location" db:"start_location"`
	EndLocation     string     `json:"end_location" db:"end_location"`
	DepartureTime   time.Time  `json:"departure_time" db:"departure_time"`
	ArrivalTime     time.Time  `json:"arrival_time" db:"arrival_time"`
	TotalSeats      int        `json:"total_seats" db:"total_seats"`
	SeatsAvailable  int        `json:"seats_available" db:"seats_available"`
	SeatPrice       float64    `json:"seat_price" db:"seat_price"`
	CarLicensePlate string     `json:"car_license_plate" db:"car_license_plate"`
	Status          RideStatus `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Overlaps reports whether the ride's window intersects [start, end].
// Both ends are inclusive.
func (r *Ride) Overlaps(start, end time.Time) bool {
	return WindowsOverlap(r.DepartureTime, r.ArrivalTime, start, end)
}

// WindowsOverlap reports whether [d1, a1] and [d2, a2] intersect
func WindowsOverlap(d1, a1, d2, a2 time.Time) bool {
	return !d1.After(a2) && !d2.After(a1)
}
