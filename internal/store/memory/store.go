// Package memory is an in-process implementation of every store contract of
// the engine. Transactions are serialized and roll back by restoring a
// snapshot taken when they began.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
)

type txMarker struct{}

// Store keeps all entities in maps. Values are stored by value and handed out
// as copies so callers never alias store state.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users    map[uuid.UUID]models.User
	vehicles map[string]models.Vehicle
	rides    map[uuid.UUID]models.Ride
	bookings map[uuid.UUID]models.RideBooking
	reviews  map[uuid.UUID]models.Review
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		vehicles: make(map[string]models.Vehicle),
		rides:    make(map[uuid.UUID]models.Ride),
		bookings: make(map[uuid.UUID]models.RideBooking),
		reviews:  make(map[uuid.UUID]models.Review),
	}
}

type snapshot struct {
	users    map[uuid.UUID]models.User
	vehicles map[string]models.Vehicle
	rides    map[uuid.UUID]models.Ride
	bookings map[uuid.UUID]models.RideBooking
	reviews  map[uuid.UUID]models.Review
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:    copyMap(s.users),
		vehicles: copyMap(s.vehicles),
		rides:    copyMap(s.rides),
		bookings: copyMap(s.bookings),
		reviews:  copyMap(s.reviews),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.vehicles = snap.vehicles
	s.rides = snap.rides
	s.bookings = snap.bookings
	s.reviews = snap.reviews
}

// WithinTransaction runs fn with exclusive access to the store. When fn
// returns an error or panics every change it made is undone. Calls made with
// a ctx already inside a transaction join it.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txMarker{}, true))
}

// ========================================
// USERS & VEHICLES
// ========================================

// SeedUser adds or replaces a user
func (s *Store) SeedUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
}

// SeedVehicle adds or replaces a vehicle
func (s *Store) SeedVehicle(vehicle *models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now().UTC()
	}
	s.vehicles[vehicle.LicensePlate] = *vehicle
}

// UserExists reports whether the user is known
func (s *Store) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

// GetUserByID returns a copy of the user, or nil
func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// ApplyRating folds rating into the user's aggregate and returns the result
func (s *Store) ApplyRating(_ context.Context, id uuid.UUID, rating int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("apply rating: user %s not found", id)
	}
	user.ApplyRating(rating)
	s.users[id] = user
	return &user, nil
}

// VehicleExistsByPlate reports whether a vehicle with the plate is registered
func (s *Store) VehicleExistsByPlate(_ context.Context, plate string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vehicles[plate]
	return ok, nil
}

// ========================================
// RIDES
// ========================================

// CreateRide stores a new ride
func (s *Store) CreateRide(_ context.Context, ride *models.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rides[ride.ID]; ok {
		return database.ErrDuplicate
	}
	s.rides[ride.ID] = *ride
	return nil
}

// GetRideByID returns a copy of the ride, or nil
func (s *Store) GetRideByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ride, ok := s.rides[id]
	if !ok {
		return nil, nil
	}
	return &ride, nil
}

// GetRideForUpdate returns the ride. Transactions are already exclusive, so
// there is no row lock to take.
func (s *Store) GetRideForUpdate(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return s.GetRideByID(ctx, id)
}

// UpdateRideStatus sets the ride status when it is currently from
func (s *Store) UpdateRideStatus(_ context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ride, ok := s.rides[id]
	if !ok || ride.Status != from {
		return false, nil
	}
	ride.Status = to
	ride.UpdatedAt = time.Now().UTC()
	s.rides[id] = ride
	return true, nil
}

// AdjustSeats adds delta to the free seats when the result stays within
// [0, TotalSeats]
func (s *Store) AdjustSeats(_ context.Context, id uuid.UUID, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ride, ok := s.rides[id]
	if !ok {
		return false, nil
	}
	seats := ride.SeatsAvailable + delta
	if seats < 0 || seats > ride.TotalSeats {
		return false, nil
	}
	ride.SeatsAvailable = seats
	ride.UpdatedAt = time.Now().UTC()
	s.rides[id] = ride
	return true, nil
}

// FindOverlappingRides returns the non-cancelled rides overlapping
// [start, end] that userID drives, or holds a BOOKED booking on
func (s *Store) FindOverlappingRides(_ context.Context, userID uuid.UUID, role models.ParticipantRole, start, end time.Time) ([]*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []uuid.UUID
	switch role {
	case models.RoleDriver:
		for id, ride := range s.rides {
			if ride.DriverID == userID {
				candidates = append(candidates, id)
			}
		}
	case models.RolePassenger:
		for _, b := range s.bookings {
			if b.PassengerID == userID && b.Status == models.BookingStatusBooked {
				candidates = append(candidates, b.RideID)
			}
		}
	default:
		return nil, fmt.Errorf("unknown participant role %q", role)
	}

	out := make([]*models.Ride, 0)
	for _, id := range candidates {
		ride, ok := s.rides[id]
		if !ok || ride.Status == models.RideStatusCancelled || !ride.Overlaps(start, end) {
			continue
		}
		out = append(out, &ride)
	}
	sortRides(out)
	return out, nil
}

// FindRidesByDepartureWindow returns rides departing in [start, end)
func (s *Store) FindRidesByDepartureWindow(_ context.Context, start, end time.Time) ([]*models.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Ride, 0)
	for _, ride := range s.rides {
		if ride.DepartureTime.Before(start) || !ride.DepartureTime.Before(end) {
			continue
		}
		out = append(out, &ride)
	}
	sortRides(out)
	return out, nil
}

// ListRides returns a page of rides ordered by departure time
func (s *Store) ListRides(_ context.Context, limit, offset int) ([]*models.Ride, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Ride, 0, len(s.rides))
	for _, ride := range s.rides {
		all = append(all, &ride)
	}
	sortRides(all)

	total := int64(len(all))
	if offset >= len(all) {
		return []*models.Ride{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func sortRides(rides []*models.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		if !rides[i].DepartureTime.Equal(rides[j].DepartureTime) {
			return rides[i].DepartureTime.Before(rides[j].DepartureTime)
		}
		return rides[i].ID.String() < rides[j].ID.String()
	})
}

// ========================================
// BOOKINGS
// ========================================

// CreateBooking stores a booking; one per ride and passenger
func (s *Store) CreateBooking(_ context.Context, booking *models.RideBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.RideID == booking.RideID && b.PassengerID == booking.PassengerID {
			return database.ErrDuplicate
		}
	}
	s.bookings[booking.ID] = *booking
	return nil
}

// GetBooking returns the passenger's booking on the ride, or nil
func (s *Store) GetBooking(_ context.Context, rideID, passengerID uuid.UUID) (*models.RideBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID {
			return &b, nil
		}
	}
	return nil, nil
}

// GetBookingsByRide returns the bookings of a ride, oldest first
func (s *Store) GetBookingsByRide(_ context.Context, rideID uuid.UUID) ([]*models.RideBooking, error) {
	return s.filterBookings(func(b models.RideBooking) bool { return b.RideID == rideID }, false), nil
}

// GetBookingsByPassenger returns a passenger's bookings, newest first
func (s *Store) GetBookingsByPassenger(_ context.Context, passengerID uuid.UUID) ([]*models.RideBooking, error) {
	return s.filterBookings(func(b models.RideBooking) bool { return b.PassengerID == passengerID }, true), nil
}

// UpdateBookingStatus sets the booking status when it is currently from
func (s *Store) UpdateBookingStatus(_ context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	s.bookings[id] = b
	return true, nil
}

func (s *Store) filterBookings(keep func(models.RideBooking) bool, newestFirst bool) []*models.RideBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RideBooking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt) != newestFirst
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ========================================
// REVIEWS
// ========================================

// CreateReview stores a review; one per ride and reviewer
func (s *Store) CreateReview(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.RideID == review.RideID && r.ReviewerID == review.ReviewerID {
			return database.ErrDuplicate
		}
	}
	s.reviews[review.ID] = *review
	return nil
}

// GetReviewByRideAndReviewer returns the reviewer's review of a ride, or nil
func (s *Store) GetReviewByRideAndReviewer(_ context.Context, rideID, reviewerID uuid.UUID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reviews {
		if r.RideID == rideID && r.ReviewerID == reviewerID {
			return &r, nil
		}
	}
	return nil, nil
}

// GetReviewsByRide returns the reviews of a ride, newest first
func (s *Store) GetReviewsByRide(_ context.Context, rideID uuid.UUID) ([]*models.Review, error) {
	return s.filterReviews(func(r models.Review) bool { return r.RideID == rideID }), nil
}

// GetReviewsByReviewed returns the reviews a user received, newest first
func (s *Store) GetReviewsByReviewed(_ context.Context, reviewedID uuid.UUID) ([]*models.Review, error) {
	return s.filterReviews(func(r models.Review) bool { return r.ReviewedID == reviewedID }), nil
}

func (s *Store) filterReviews(keep func(models.Review) bool) []*models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Review, 0)
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
