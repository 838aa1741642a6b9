package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newRide(driverID uuid.UUID, depart, arrive time.Time) *models.Ride {
	return &models.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		StartLocation:  "A",
		EndLocation:    "B",
		DepartureTime:  depart,
		ArrivalTime:    arrive,
		TotalSeats:     2,
		SeatsAvailable: 2,
		Status:         models.RideStatusScheduled,
	}
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	ride := newRide(uuid.New(), base, base.Add(time.Hour))
	require.NoError(t, s.CreateRide(ctx, ride))

	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		applied, err := s.AdjustSeats(ctx, ride.ID, -1)
		require.NoError(t, err)
		require.True(t, applied)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetRideByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SeatsAvailable)
}

func TestWithinTransaction_RollsBackOnPanic(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), FirstName: "Ana", LastName: "Silva"}
	s.SeedUser(user)

	assert.Panics(t, func() {
		_ = s.WithinTransaction(ctx, func(ctx context.Context) error {
			_, _ = s.ApplyRating(ctx, user.ID, 5)
			panic("unexpected")
		})
	})

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReviewsNumber)
}

func TestWithinTransaction_NestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	ride := newRide(uuid.New(), base, base.Add(time.Hour))
	require.NoError(t, s.CreateRide(ctx, ride))

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		inner := s.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := s.AdjustSeats(ctx, ride.ID, -1)
			return err
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	got, _ := s.GetRideByID(ctx, ride.ID)
	assert.Equal(t, 2, got.SeatsAvailable)
}

func TestAdjustSeats_Bounds(t *testing.T) {
	s := New()
	ctx := context.Background()
	ride := newRide(uuid.New(), base, base.Add(time.Hour))
	require.NoError(t, s.CreateRide(ctx, ride))

	applied, err := s.AdjustSeats(ctx, ride.ID, 1)
	require.NoError(t, err)
	assert.False(t, applied, "cannot exceed total seats")

	for i := 0; i < 2; i++ {
		applied, err = s.AdjustSeats(ctx, ride.ID, -1)
		require.NoError(t, err)
		assert.True(t, applied)
	}

	applied, err = s.AdjustSeats(ctx, ride.ID, -1)
	require.NoError(t, err)
	assert.False(t, applied, "cannot go below zero")

	applied, err = s.AdjustSeats(ctx, uuid.New(), -1)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestFindOverlappingRides(t *testing.T) {
	s := New()
	ctx := context.Background()
	driver := uuid.New()
	passenger := uuid.New()

	morning := newRide(driver, base, base.Add(2*time.Hour))
	evening := newRide(driver, base.Add(10*time.Hour), base.Add(12*time.Hour))
	cancelled := newRide(driver, base, base.Add(2*time.Hour))
	cancelled.Status = models.RideStatusCancelled
	for _, r := range []*models.Ride{morning, evening, cancelled} {
		require.NoError(t, s.CreateRide(ctx, r))
	}

	// touching windows overlap
	found, err := s.FindOverlappingRides(ctx, driver, models.RoleDriver, base.Add(2*time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, morning.ID, found[0].ID)

	found, err = s.FindOverlappingRides(ctx, driver, models.RoleDriver, base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, s.CreateBooking(ctx, &models.RideBooking{
		ID: uuid.New(), RideID: evening.ID, PassengerID: passenger, Status: models.BookingStatusBooked,
	}))
	require.NoError(t, s.CreateBooking(ctx, &models.RideBooking{
		ID: uuid.New(), RideID: morning.ID, PassengerID: passenger, Status: models.BookingStatusCancelled,
	}))

	found, err = s.FindOverlappingRides(ctx, passenger, models.RolePassenger, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, evening.ID, found[0].ID)

	_, err = s.FindOverlappingRides(ctx, passenger, models.ParticipantRole("pilot"), base, base)
	assert.Error(t, err)
}

func TestCreateBooking_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	rideID, passenger := uuid.New(), uuid.New()

	require.NoError(t, s.CreateBooking(ctx, &models.RideBooking{ID: uuid.New(), RideID: rideID, PassengerID: passenger}))
	err := s.CreateBooking(ctx, &models.RideBooking{ID: uuid.New(), RideID: rideID, PassengerID: passenger})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestCreateReview_Duplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	rideID, reviewer := uuid.New(), uuid.New()

	require.NoError(t, s.CreateReview(ctx, &models.Review{ID: uuid.New(), RideID: rideID, ReviewerID: reviewer, Rating: 4}))
	err := s.CreateReview(ctx, &models.Review{ID: uuid.New(), RideID: rideID, ReviewerID: reviewer, Rating: 5})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	got, err := s.GetReviewByRideAndReviewer(ctx, rideID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
}

func TestGetters_ReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	ride := newRide(uuid.New(), base, base.Add(time.Hour))
	require.NoError(t, s.CreateRide(ctx, ride))

	got, _ := s.GetRideByID(ctx, ride.ID)
	got.SeatsAvailable = 0

	again, _ := s.GetRideByID(ctx, ride.ID)
	assert.Equal(t, 2, again.SeatsAvailable)

	missing, err := s.GetRideByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListRides_Pagination(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateRide(ctx, newRide(uuid.New(), d, d.Add(30*time.Minute))))
	}

	page, total, err := s.ListRides(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, base.Add(2*time.Hour), page[0].DepartureTime)

	page, _, err = s.ListRides(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestFindRidesByDepartureWindow_HalfOpen(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inside := newRide(uuid.New(), day, day.Add(time.Hour))
	next := newRide(uuid.New(), day.AddDate(0, 0, 1), day.AddDate(0, 0, 1).Add(time.Hour))
	require.NoError(t, s.CreateRide(ctx, inside))
	require.NoError(t, s.CreateRide(ctx, next))

	found, err := s.FindRidesByDepartureWindow(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inside.ID, found[0].ID)
}

func TestApplyRating(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := &models.User{ID: uuid.New()}
	s.SeedUser(user)

	_, err := s.ApplyRating(ctx, user.ID, 4)
	require.NoError(t, err)
	updated, err := s.ApplyRating(ctx, user.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.ReviewsNumber)
	assert.Equal(t, 9, updated.RatingsSum)
	assert.InDelta(t, 4.5, updated.AvgRating, 1e-9)

	_, err = s.ApplyRating(ctx, uuid.New(), 3)
	assert.Error(t, err)
}
