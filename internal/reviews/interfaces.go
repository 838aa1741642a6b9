package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// RepositoryInterface defines the review store operations used by the service
type RepositoryInterface interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByRideAndReviewer(ctx context.Context, rideID, reviewerID uuid.UUID) (*models.Review, error)
	GetReviewsByRide(ctx context.Context, rideID uuid.UUID) ([]*models.Review, error)
	GetReviewsByReviewed(ctx context.Context, reviewedID uuid.UUID) ([]*models.Review, error)
}

// RideRepository reads rides
type RideRepository interface {
	GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
}

// BookingRepository reads bookings
type BookingRepository interface {
	GetBooking(ctx context.Context, rideID, passengerID uuid.UUID) (*models.RideBooking, error)
}

// UserRepository checks users and updates their rating aggregate
type UserRepository interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	ApplyRating(ctx context.Context, id uuid.UUID, rating int) (*models.User, error)
}
