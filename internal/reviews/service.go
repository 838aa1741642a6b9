package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/eventbus"
	"github.com/richxcame/ride-sharing/pkg/logger"
	"github.com/richxcame/ride-sharing/pkg/models"
	"github.com/richxcame/ride-sharing/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var reviewsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rideshare_reviews_submitted_total",
	Help: "Review submissions by outcome",
}, []string{"outcome"})

// Service accepts reviews and maintains each driver's rating aggregate
type Service struct {
	repo     RepositoryInterface
	rides    RideRepository
	bookings BookingRepository
	users    UserRepository
	tx       database.Transactor
	events   eventbus.Publisher
	now      func() time.Time
}

// NewService creates a new reviews service
func NewService(
	repo RepositoryInterface,
	rides RideRepository,
	bookings BookingRepository,
	users UserRepository,
	tx database.Transactor,
	events eventbus.Publisher,
) *Service {
	if events == nil {
		events = eventbus.Noop{}
	}
	return &Service{
		repo:     repo,
		rides:    rides,
		bookings: bookings,
		users:    users,
		tx:       tx,
		events:   events,
		now:      time.Now,
	}
}

// WithNow replaces the service clock
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitReview records a passenger's review of the driver of a completed ride
// and folds the rating into the driver's average
func (s *Service) SubmitReview(ctx context.Context, req *SubmitReviewRequest) (review *models.Review, err error) {
	ctx, span := tracing.StartSpan(ctx, "reviews", "reviews.SubmitReview",
		attribute.String("ride.id", req.RideID.String()),
		attribute.String("reviewer.id", req.ReviewerID.String()),
	)
	defer func() {
		reviewsSubmittedTotal.WithLabelValues(common.ErrorKind(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	if err := s.checkReview(ctx, req); err != nil {
		return nil, err
	}

	review = &models.Review{
		ID:         uuid.New(),
		ReviewerID: req.ReviewerID,
		ReviewedID: req.ReviewedID,
		RideID:     req.RideID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  s.now(),
	}

	var reviewed *models.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateReview(ctx, review); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return common.NewConflictError("reviewer already made a review for this ride")
			}
			return err
		}

		var err error
		reviewed, err = s.users.ApplyRating(ctx, req.ReviewedID, req.Rating)
		return err
	})
	if err != nil {
		return nil, common.Unavailable("failed to submit review", err)
	}

	logger.WithContext(ctx).Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("ride_id", review.RideID.String()),
		zap.String("reviewed_id", review.ReviewedID.String()),
		zap.Int("rating", review.Rating),
		zap.Float64("avg_rating", reviewed.AvgRating),
	)

	event, evErr := eventbus.NewEvent(ctx, eventbus.SubjectReviewSubmitted, "reviews-service", eventbus.ReviewSubmittedData{
		ReviewID:      review.ID,
		RideID:        review.RideID,
		ReviewerID:    review.ReviewerID,
		ReviewedID:    review.ReviewedID,
		Rating:        review.Rating,
		AvgRating:     reviewed.AvgRating,
		ReviewsNumber: reviewed.ReviewsNumber,
	})
	if evErr == nil {
		evErr = s.events.Publish(ctx, eventbus.SubjectReviewSubmitted, event)
	}
	if evErr != nil {
		logger.WithContext(ctx).Warn("Failed to publish review event", zap.Error(evErr))
	}

	return review, nil
}

// checkReview applies the acceptance rules in order; the first failure wins
func (s *Service) checkReview(ctx context.Context, req *SubmitReviewRequest) error {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return common.NewBadRequestError("rating must be between 1 and 5", nil)
	}

	exists, err := s.users.UserExists(ctx, req.ReviewerID)
	if err != nil {
		return common.Unavailable("failed to check reviewer", err)
	}
	if !exists {
		return common.NewBadRequestError("reviewer does not exist as user", nil)
	}

	exists, err = s.users.UserExists(ctx, req.ReviewedID)
	if err != nil {
		return common.Unavailable("failed to check reviewed user", err)
	}
	if !exists {
		return common.NewBadRequestError("reviewed does not exist as user", nil)
	}

	if req.ReviewerID == req.ReviewedID {
		return common.NewBadRequestError("reviewer can't also be reviewed", nil)
	}

	ride, err := s.rides.GetRideByID(ctx, req.RideID)
	if err != nil {
		return common.Unavailable("failed to get ride", err)
	}
	if ride == nil {
		return common.NewBadRequestError("ride does not exist", nil)
	}
	if ride.Status != models.RideStatusCompleted {
		return common.NewBadRequestError("ride is not completed", nil)
	}

	booking, err := s.bookings.GetBooking(ctx, req.RideID, req.ReviewerID)
	if err != nil {
		return common.Unavailable("failed to get booking", err)
	}
	if booking == nil {
		return common.NewBadRequestError("reviewer is not a passenger", nil)
	}
	if booking.Status == models.BookingStatusCancelled {
		return common.NewBadRequestError("reviewer cancelled ride", nil)
	}

	prior, err := s.repo.GetReviewByRideAndReviewer(ctx, req.RideID, req.ReviewerID)
	if err != nil {
		return common.Unavailable("failed to get review", err)
	}
	if prior != nil {
		return common.NewConflictError("reviewer already made a review for this ride")
	}

	if ride.DriverID != req.ReviewedID {
		return common.NewBadRequestError("reviewed is not driver of ride", nil)
	}
	return nil
}

// GetReviewsByRide lists the reviews written for a ride
func (s *Service) GetReviewsByRide(ctx context.Context, rideID uuid.UUID) ([]*models.Review, error) {
	ride, err := s.rides.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, common.Unavailable("failed to get ride", err)
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}

	reviews, err := s.repo.GetReviewsByRide(ctx, rideID)
	if err != nil {
		return nil, common.Unavailable("failed to get reviews", err)
	}
	return reviews, nil
}

// GetReviewsByDriver lists the reviews a driver received
func (s *Service) GetReviewsByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Review, error) {
	exists, err := s.users.UserExists(ctx, driverID)
	if err != nil {
		return nil, common.Unavailable("failed to check driver", err)
	}
	if !exists {
		return nil, common.NewNotFoundError("user not found", nil)
	}

	reviews, err := s.repo.GetReviewsByReviewed(ctx, driverID)
	if err != nil {
		return nil, common.Unavailable("failed to get reviews", err)
	}
	return reviews, nil
}
