package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// RepositoryInterface defines the booking store operations used by the service
type RepositoryInterface interface {
	GetBooking(ctx context.Context, rideID, passengerID uuid.UUID) (*models.RideBooking, error)
	GetBookingsByRide(ctx context.Context, rideID uuid.UUID) ([]*models.RideBooking, error)
	GetBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*models.RideBooking, error)
	CreateBooking(ctx context.Context, booking *models.RideBooking) error
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error)
}

// RideRepository is the part of the ride store bookings depend on
type RideRepository interface {
	GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	GetRideForUpdate(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	FindOverlappingRides(ctx context.Context, userID uuid.UUID, role models.ParticipantRole, start, end time.Time) ([]*models.Ride, error)
}

// UserRepository looks up passengers
type UserRepository interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
