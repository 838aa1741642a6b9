package rides

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// RepositoryInterface defines the ride store operations used by the service
type RepositoryInterface interface {
	GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	GetRideForUpdate(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	CreateRide(ctx context.Context, ride *models.Ride) error
	UpdateRideStatus(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error)
	FindOverlappingRides(ctx context.Context, userID uuid.UUID, role models.ParticipantRole, start, end time.Time) ([]*models.Ride, error)
	FindRidesByDepartureWindow(ctx context.Context, start, end time.Time) ([]*models.Ride, error)
	ListRides(ctx context.Context, limit, offset int) ([]*models.Ride, int64, error)
}

// UserChecker reports whether a user exists
type UserChecker interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// VehicleRegistry reports whether a vehicle is registered
type VehicleRegistry interface {
	VehicleExistsByPlate(ctx context.Context, plate string) (bool, error)
}

// BookingCanceller cancels every active booking of a ride as part of the
// caller's transaction
type BookingCanceller interface {
	CancelForRide(ctx context.Context, ride *models.Ride) ([]*models.RideBooking, error)
}
