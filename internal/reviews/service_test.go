package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/internal/store/memory"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store   *memory.Store
	service *Service

	driver    uuid.UUID
	passenger uuid.UUID
	ride      *models.Ride
}

func seedUser(s *memory.Store, first string) uuid.UUID {
	u := &models.User{ID: uuid.New(), FirstName: first, LastName: "Test"}
	s.SeedUser(u)
	return u.ID
}

// newEnv seeds a completed ride with one BOOKED passenger
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	e := &env{
		store:     store,
		service:   NewService(store, store, store, store, store, nil),
		driver:    seedUser(store, "driver"),
		passenger: seedUser(store, "passenger"),
	}

	depart := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	e.ride = &models.Ride{
		ID:             uuid.New(),
		DriverID:       e.driver,
		StartLocation:  "Lisbon",
		EndLocation:    "Porto",
		DepartureTime:  depart,
		ArrivalTime:    depart.Add(3 * time.Hour),
		TotalSeats:     3,
		SeatsAvailable: 2,
		Status:         models.RideStatusCompleted,
	}
	require.NoError(t, store.CreateRide(ctx, e.ride))
	require.NoError(t, store.CreateBooking(ctx, &models.RideBooking{
		ID:          uuid.New(),
		RideID:      e.ride.ID,
		PassengerID: e.passenger,
		Status:      models.BookingStatusBooked,
	}))
	return e
}

func (e *env) request(rating int) *SubmitReviewRequest {
	return &SubmitReviewRequest{
		ReviewerID: e.passenger,
		ReviewedID: e.driver,
		RideID:     e.ride.ID,
		Rating:     rating,
		Comment:    "smooth trip",
	}
}

func message(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Message
}

func TestSubmitReview_AcceptedOnceAndAggregated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	review, err := e.service.SubmitReview(ctx, e.request(5))
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	driver, err := e.store.GetUserByID(ctx, e.driver)
	require.NoError(t, err)
	assert.Equal(t, 1, driver.ReviewsNumber)
	assert.Equal(t, 5.0, driver.AvgRating)

	_, err = e.service.SubmitReview(ctx, e.request(3))
	require.Error(t, err)
	assert.True(t, common.IsConflict(err))
	assert.Equal(t, "reviewer already made a review for this ride", message(t, err))

	driver, _ = e.store.GetUserByID(ctx, e.driver)
	assert.Equal(t, 1, driver.ReviewsNumber)
	assert.Equal(t, 5, driver.RatingsSum)
}

func TestSubmitReview_AverageIsExactMean(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ratings := []int{5, 4, 4, 2}

	for _, rating := range ratings {
		passenger := seedUser(e.store, "p")
		require.NoError(t, e.store.CreateBooking(ctx, &models.RideBooking{
			ID: uuid.New(), RideID: e.ride.ID, PassengerID: passenger, Status: models.BookingStatusBooked,
		}))
		req := e.request(rating)
		req.ReviewerID = passenger

		_, err := e.service.SubmitReview(ctx, req)
		require.NoError(t, err)
	}

	driver, err := e.store.GetUserByID(ctx, e.driver)
	require.NoError(t, err)
	assert.Equal(t, 4, driver.ReviewsNumber)
	assert.Equal(t, 15, driver.RatingsSum)
	assert.Equal(t, 15.0/4.0, driver.AvgRating)
}

func TestSubmitReview_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, e *env, req *SubmitReviewRequest)
		message string
	}{
		{
			name:    "rating too low",
			prepare: func(_ *testing.T, _ *env, req *SubmitReviewRequest) { req.Rating = 0 },
			message: "rating must be between 1 and 5",
		},
		{
			name:    "rating too high",
			prepare: func(_ *testing.T, _ *env, req *SubmitReviewRequest) { req.Rating = 6 },
			message: "rating must be between 1 and 5",
		},
		{
			name:    "unknown reviewer",
			prepare: func(_ *testing.T, _ *env, req *SubmitReviewRequest) { req.ReviewerID = uuid.New() },
			message: "reviewer does not exist as user",
		},
		{
			name:    "unknown reviewed",
			prepare: func(_ *testing.T, _ *env, req *SubmitReviewRequest) { req.ReviewedID = uuid.New() },
			message: "reviewed does not exist as user",
		},
		{
			name:    "self review",
			prepare: func(_ *testing.T, e *env, req *SubmitReviewRequest) { req.ReviewedID = e.passenger },
			message: "reviewer can't also be reviewed",
		},
		{
			name:    "unknown ride",
			prepare: func(_ *testing.T, _ *env, req *SubmitReviewRequest) { req.RideID = uuid.New() },
			message: "ride does not exist",
		},
		{
			name: "ride not completed",
			prepare: func(t *testing.T, e *env, _ *SubmitReviewRequest) {
				_, err := e.store.UpdateRideStatus(context.Background(), e.ride.ID, models.RideStatusCompleted, models.RideStatusInProgress)
				require.NoError(t, err)
			},
			message: "ride is not completed",
		},
		{
			name: "not a passenger",
			prepare: func(_ *testing.T, e *env, req *SubmitReviewRequest) {
				req.ReviewerID = seedUser(e.store, "stranger")
			},
			message: "reviewer is not a passenger",
		},
		{
			name: "cancelled booking",
			prepare: func(t *testing.T, e *env, _ *SubmitReviewRequest) {
				b, err := e.store.GetBooking(context.Background(), e.ride.ID, e.passenger)
				require.NoError(t, err)
				_, err = e.store.UpdateBookingStatus(context.Background(), b.ID, models.BookingStatusBooked, models.BookingStatusCancelled)
				require.NoError(t, err)
			},
			message: "reviewer cancelled ride",
		},
		{
			name: "reviewed is not the driver",
			prepare: func(_ *testing.T, e *env, req *SubmitReviewRequest) {
				req.ReviewedID = seedUser(e.store, "other")
			},
			message: "reviewed is not driver of ride",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			req := e.request(4)
			tt.prepare(t, e, req)

			_, err := e.service.SubmitReview(context.Background(), req)

			require.Error(t, err)
			assert.True(t, common.IsBadRequest(err))
			assert.Equal(t, tt.message, message(t, err))

			driver, _ := e.store.GetUserByID(context.Background(), e.driver)
			assert.Equal(t, 0, driver.ReviewsNumber)
		})
	}
}

func TestSubmitReview_ApplyRatingFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewService(e.store, e.store, e.store, failingRatings{e.store}, e.store, nil)

	_, err := svc.SubmitReview(ctx, e.request(5))
	require.Error(t, err)
	assert.True(t, common.IsUnavailable(err))

	prior, err := e.store.GetReviewByRideAndReviewer(ctx, e.ride.ID, e.passenger)
	require.NoError(t, err)
	assert.Nil(t, prior)
}

type failingRatings struct {
	*memory.Store
}

func (failingRatings) ApplyRating(context.Context, uuid.UUID, int) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func TestGetReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.service.SubmitReview(ctx, e.request(4))
	require.NoError(t, err)

	byRide, err := e.service.GetReviewsByRide(ctx, e.ride.ID)
	require.NoError(t, err)
	assert.Len(t, byRide, 1)

	byDriver, err := e.service.GetReviewsByDriver(ctx, e.driver)
	require.NoError(t, err)
	assert.Len(t, byDriver, 1)

	_, err = e.service.GetReviewsByRide(ctx, uuid.New())
	assert.True(t, common.IsNotFound(err))

	_, err = e.service.GetReviewsByDriver(ctx, uuid.New())
	assert.True(t, common.IsNotFound(err))
}
