package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/internal/store/memory"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/locks"
	"github.com/richxcame/ride-sharing/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	store   *memory.Store
	service *Service
}

func newEnv() *env {
	store := memory.New()
	svc := NewService(store, store, store, store, locks.NewKeyedMutex(), nil).
		WithNow(func() time.Time { return testNow })
	return &env{store: store, service: svc}
}

func (e *env) user(t *testing.T, first string) uuid.UUID {
	t.Helper()
	u := &models.User{ID: uuid.New(), FirstName: first, LastName: "Test", Mail: first + "@example.com"}
	e.store.SeedUser(u)
	return u.ID
}

func (e *env) ride(t *testing.T, driverID uuid.UUID, depart time.Time, hours, seats int) *models.Ride {
	t.Helper()
	r := &models.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		StartLocation:  "Lisbon",
		EndLocation:    "Porto",
		DepartureTime:  depart,
		ArrivalTime:    depart.Add(time.Duration(hours) * time.Hour),
		TotalSeats:     seats,
		SeatsAvailable: seats,
		Status:         models.RideStatusScheduled,
	}
	require.NoError(t, e.store.CreateRide(context.Background(), r))
	return r
}

func (e *env) seats(t *testing.T, rideID uuid.UUID) int {
	t.Helper()
	r, err := e.store.GetRideByID(context.Background(), rideID)
	require.NoError(t, err)
	return r.SeatsAvailable
}

func appMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Message
}

// =============================================================================
// Reserve
// =============================================================================

func TestReserve_Success(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	driver := e.user(t, "driver")
	passenger := e.user(t, "passenger")
	ride := e.ride(t, driver, testNow.Add(24*time.Hour), 2, 3)

	booking, err := e.service.Reserve(ctx, ride.ID, passenger)

	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusBooked, booking.Status)
	assert.Equal(t, testNow, booking.CreatedAt)
	assert.Equal(t, 2, e.seats(t, ride.ID))
}

func TestReserve_LastSeatRace(t *testing.T) {
	e := newEnv()
	driver := e.user(t, "driver")
	p1 := e.user(t, "p1")
	p2 := e.user(t, "p2")
	ride := e.ride(t, driver, testNow.Add(24*time.Hour), 2, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []uuid.UUID{p1, p2} {
		wg.Add(1)
		go func(i int, p uuid.UUID) {
			defer wg.Done()
			_, errs[i] = e.service.Reserve(context.Background(), ride.ID, p)
		}(i, p)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, common.IsBadRequest(err))
		assert.Equal(t, "no more seats available", appMessage(t, err))
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, e.seats(t, ride.ID))

	bookings, err := e.store.GetBookingsByRide(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestReserve_OverlappingBooking(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	driverA := e.user(t, "a")
	driverB := e.user(t, "b")
	passenger := e.user(t, "p")

	r1 := e.ride(t, driverA, testNow.Add(3*time.Hour), 2, 3)
	// r2 departs exactly when r1 arrives; inclusive windows overlap
	r2 := e.ride(t, driverB, testNow.Add(5*time.Hour), 2, 3)

	_, err := e.service.Reserve(ctx, r1.ID, passenger)
	require.NoError(t, err)

	_, err = e.service.Reserve(ctx, r2.ID, passenger)
	require.Error(t, err)
	assert.True(t, common.IsConflict(err))
	assert.Equal(t, "user involved in another ride at the same time", appMessage(t, err))
	assert.Equal(t, 3, e.seats(t, r2.ID))
}

func TestReserve_CancelledBookingDoesNotBlockOverlap(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	passenger := e.user(t, "p")
	r1 := e.ride(t, e.user(t, "a"), testNow.Add(3*time.Hour), 2, 3)
	r2 := e.ride(t, e.user(t, "b"), testNow.Add(4*time.Hour), 2, 3)

	_, err := e.service.Reserve(ctx, r1.ID, passenger)
	require.NoError(t, err)
	_, err = e.service.Cancel(ctx, r1.ID, passenger)
	require.NoError(t, err)

	_, err = e.service.Reserve(ctx, r2.ID, passenger)
	assert.NoError(t, err)
}

func TestReserve_DriverCannotBookOwnRide(t *testing.T) {
	e := newEnv()
	driver := e.user(t, "driver")
	ride := e.ride(t, driver, testNow.Add(24*time.Hour), 2, 3)

	_, err := e.service.Reserve(context.Background(), ride.ID, driver)

	require.Error(t, err)
	assert.True(t, common.IsConflict(err))
}

func TestReserve_Checks(t *testing.T) {
	t.Run("unknown passenger", func(t *testing.T) {
		e := newEnv()
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 1)

		_, err := e.service.Reserve(context.Background(), ride.ID, uuid.New())
		assert.Equal(t, "passenger does not exist", appMessage(t, err))
		assert.True(t, common.IsBadRequest(err))
	})

	t.Run("unknown ride", func(t *testing.T) {
		e := newEnv()
		_, err := e.service.Reserve(context.Background(), uuid.New(), e.user(t, "p"))
		assert.Equal(t, "ride does not exist", appMessage(t, err))
		assert.True(t, common.IsBadRequest(err))
	})

	t.Run("already booked", func(t *testing.T) {
		e := newEnv()
		passenger := e.user(t, "p")
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 2)
		_, err := e.service.Reserve(context.Background(), ride.ID, passenger)
		require.NoError(t, err)

		_, err = e.service.Reserve(context.Background(), ride.ID, passenger)
		assert.True(t, common.IsConflict(err))
		assert.Equal(t, "passenger already booked for this ride", appMessage(t, err))
		assert.Equal(t, 1, e.seats(t, ride.ID))
	})

	t.Run("full ride", func(t *testing.T) {
		e := newEnv()
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 1)
		_, err := e.service.Reserve(context.Background(), ride.ID, e.user(t, "p1"))
		require.NoError(t, err)

		_, err = e.service.Reserve(context.Background(), ride.ID, e.user(t, "p2"))
		assert.Equal(t, "no more seats available", appMessage(t, err))
	})

	t.Run("ride not scheduled", func(t *testing.T) {
		e := newEnv()
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 1)
		_, err := e.store.UpdateRideStatus(context.Background(), ride.ID, models.RideStatusScheduled, models.RideStatusInProgress)
		require.NoError(t, err)

		_, err = e.service.Reserve(context.Background(), ride.ID, e.user(t, "p"))
		assert.Equal(t, "ride is not scheduled", appMessage(t, err))
	})
}

// =============================================================================
// Cancel
// =============================================================================

func TestCancel_ReturnsSeat(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	passenger := e.user(t, "p")
	ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 2)
	_, err := e.service.Reserve(ctx, ride.ID, passenger)
	require.NoError(t, err)

	booking, err := e.service.Cancel(ctx, ride.ID, passenger)

	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	assert.Equal(t, 2, e.seats(t, ride.ID))

	_, err = e.service.Cancel(ctx, ride.ID, passenger)
	assert.Equal(t, "booking already cancelled", appMessage(t, err))
	assert.Equal(t, 2, e.seats(t, ride.ID))
}

func TestCancel_Checks(t *testing.T) {
	t.Run("unknown ride", func(t *testing.T) {
		e := newEnv()
		_, err := e.service.Cancel(context.Background(), uuid.New(), uuid.New())
		assert.Equal(t, "ride does not exist", appMessage(t, err))
	})

	t.Run("no booking", func(t *testing.T) {
		e := newEnv()
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 1)
		_, err := e.service.Cancel(context.Background(), ride.ID, e.user(t, "p"))
		assert.Equal(t, "booking not found", appMessage(t, err))
	})

	t.Run("after departure", func(t *testing.T) {
		e := newEnv()
		passenger := e.user(t, "p")
		ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 1)
		_, err := e.service.Reserve(context.Background(), ride.ID, passenger)
		require.NoError(t, err)

		e.service.WithNow(func() time.Time { return ride.DepartureTime })
		_, err = e.service.Cancel(context.Background(), ride.ID, passenger)
		assert.True(t, common.IsBadRequest(err))
		assert.Equal(t, "booking cannot be cancelled after the ride started", appMessage(t, err))
		assert.Equal(t, 0, e.seats(t, ride.ID))
	})
}

// =============================================================================
// CancelForRide
// =============================================================================

func TestCancelForRide_SkipsCancelled(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 3)
	p1, p2, p3 := e.user(t, "p1"), e.user(t, "p2"), e.user(t, "p3")
	for _, p := range []uuid.UUID{p1, p2, p3} {
		_, err := e.service.Reserve(ctx, ride.ID, p)
		require.NoError(t, err)
	}
	_, err := e.service.Cancel(ctx, ride.ID, p2)
	require.NoError(t, err)

	current, err := e.store.GetRideByID(ctx, ride.ID)
	require.NoError(t, err)
	cancelled, err := e.service.CancelForRide(ctx, current)

	require.NoError(t, err)
	assert.Len(t, cancelled, 2)
	assert.Equal(t, 3, e.seats(t, ride.ID))

	bookings, err := e.store.GetBookingsByRide(ctx, ride.ID)
	require.NoError(t, err)
	for _, b := range bookings {
		assert.Equal(t, models.BookingStatusCancelled, b.Status)
	}
}

// =============================================================================
// Listings
// =============================================================================

func TestListPassengers(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 3)
	passenger := e.user(t, "Maria")
	_, err := e.service.Reserve(ctx, ride.ID, passenger)
	require.NoError(t, err)

	passengers, err := e.service.ListPassengers(ctx, ride.ID)

	require.NoError(t, err)
	require.Len(t, passengers, 1)
	assert.Equal(t, "Maria Test", passengers[0].FullName)
	assert.Equal(t, passenger, passengers[0].PassengerID)

	_, err = e.service.ListPassengers(ctx, uuid.New())
	assert.True(t, common.IsNotFound(err))
}

func TestListBookingsByPassenger(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	passenger := e.user(t, "p")
	ride := e.ride(t, e.user(t, "d"), testNow.Add(time.Hour), 1, 3)
	_, err := e.service.Reserve(ctx, ride.ID, passenger)
	require.NoError(t, err)

	bookings, err := e.service.ListBookingsByPassenger(ctx, passenger)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = e.service.ListBookingsByPassenger(ctx, uuid.New())
	assert.True(t, common.IsNotFound(err))
}

// =============================================================================
// Store failures
// =============================================================================

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestReserve_StoreFailureIsUnavailable(t *testing.T) {
	store := memory.New()
	users := new(MockUsers)
	users.On("UserExists", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))
	svc := NewService(store, store, users, store, locks.NewKeyedMutex(), nil)

	_, err := svc.Reserve(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.True(t, common.IsUnavailable(err))
}
