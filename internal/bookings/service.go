package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/eventbus"
	"github.com/richxcame/ride-sharing/pkg/locks"
	"github.com/richxcame/ride-sharing/pkg/logger"
	"github.com/richxcame/ride-sharing/pkg/models"
	"github.com/richxcame/ride-sharing/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	tracerName  = "bookings"
	eventSource = "bookings-service"
)

// Service handles seat reservations
type Service struct {
	repo   RepositoryInterface
	rides  RideRepository
	users  UserRepository
	tx     database.Transactor
	locker locks.Locker
	events eventbus.Publisher
	now    func() time.Time
}

// NewService creates a new bookings service
func NewService(
	repo RepositoryInterface,
	rides RideRepository,
	users UserRepository,
	tx database.Transactor,
	locker locks.Locker,
	events eventbus.Publisher,
) *Service {
	if events == nil {
		events = eventbus.Noop{}
	}
	return &Service{
		repo:   repo,
		rides:  rides,
		users:  users,
		tx:     tx,
		locker: locker,
		events: events,
		now:    time.Now,
	}
}

// WithNow replaces the service clock
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Reserve books one seat on a ride for a passenger
func (s *Service) Reserve(ctx context.Context, rideID, passengerID uuid.UUID) (booking *models.RideBooking, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "bookings.Reserve",
		attribute.String("ride.id", rideID.String()),
		attribute.String("passenger.id", passengerID.String()),
	)
	defer func() {
		recordOperation("reserve", err)
		tracing.EndSpan(span, err)
	}()

	exists, err := s.users.UserExists(ctx, passengerID)
	if err != nil {
		return nil, common.Unavailable("failed to check passenger", err)
	}
	if !exists {
		return nil, common.NewBadRequestError("passenger does not exist", nil)
	}

	release, err := s.locker.Acquire(ctx, locks.UserKey(passengerID.String()))
	if err != nil {
		return nil, common.Unavailable("failed to lock passenger", err)
	}
	defer release()

	var seatsLeft int
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ride, err := s.rides.GetRideForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if ride == nil {
			return common.NewBadRequestError("ride does not exist", nil)
		}

		existing, err := s.repo.GetBooking(ctx, rideID, passengerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return common.NewConflictError("passenger already booked for this ride")
		}

		if err := s.checkAvailability(ctx, passengerID, ride); err != nil {
			return err
		}

		if ride.SeatsAvailable < 1 {
			return common.NewBadRequestError("no more seats available", nil)
		}
		if ride.Status != models.RideStatusScheduled {
			return common.NewBadRequestError("ride is not scheduled", nil)
		}

		booking = &models.RideBooking{
			ID:          uuid.New(),
			RideID:      rideID,
			PassengerID: passengerID,
			Status:      models.BookingStatusBooked,
			CreatedAt:   s.now(),
		}
		if err := s.repo.CreateBooking(ctx, booking); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return common.NewConflictError("passenger already booked for this ride")
			}
			return err
		}

		applied, err := s.rides.AdjustSeats(ctx, rideID, -1)
		if err != nil {
			return err
		}
		if !applied {
			return common.NewBadRequestError("no more seats available", nil)
		}
		seatsLeft = ride.SeatsAvailable - 1
		return nil
	})
	if err != nil {
		return nil, common.Unavailable("failed to reserve seat", err)
	}

	logger.WithContext(ctx).Info("Seat reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("ride_id", rideID.String()),
		zap.String("passenger_id", passengerID.String()),
		zap.Int("seats_available", seatsLeft),
	)

	s.publish(ctx, eventbus.SubjectBookingCreated, eventbus.BookingData{
		BookingID:      booking.ID,
		RideID:         rideID,
		PassengerID:    passengerID,
		SeatsAvailable: seatsLeft,
	})

	return booking, nil
}

// checkAvailability fails when the passenger already rides in or drives a
// ride overlapping the requested one
func (s *Service) checkAvailability(ctx context.Context, passengerID uuid.UUID, ride *models.Ride) error {
	for _, role := range []models.ParticipantRole{models.RolePassenger, models.RoleDriver} {
		overlapping, err := s.rides.FindOverlappingRides(ctx, passengerID, role, ride.DepartureTime, ride.ArrivalTime)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return common.NewConflictError("user involved in another ride at the same time")
		}
	}
	return nil
}

// Cancel cancels a passenger's booking and returns the seat
func (s *Service) Cancel(ctx context.Context, rideID, passengerID uuid.UUID) (booking *models.RideBooking, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "bookings.Cancel",
		attribute.String("ride.id", rideID.String()),
		attribute.String("passenger.id", passengerID.String()),
	)
	defer func() {
		recordOperation("cancel", err)
		tracing.EndSpan(span, err)
	}()

	var seatsLeft int
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ride, err := s.rides.GetRideForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if ride == nil {
			return common.NewBadRequestError("ride does not exist", nil)
		}

		booking, err = s.repo.GetBooking(ctx, rideID, passengerID)
		if err != nil {
			return err
		}
		if booking == nil {
			return common.NewBadRequestError("booking not found", nil)
		}
		if booking.Status == models.BookingStatusCancelled {
			return common.NewBadRequestError("booking already cancelled", nil)
		}
		if !s.now().Before(ride.DepartureTime) {
			return common.NewBadRequestError("booking cannot be cancelled after the ride started", nil)
		}

		if err := s.release(ctx, ride, booking); err != nil {
			return err
		}
		seatsLeft = ride.SeatsAvailable + 1
		return nil
	})
	if err != nil {
		return nil, common.Unavailable("failed to cancel booking", err)
	}

	logger.WithContext(ctx).Info("Booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("ride_id", rideID.String()),
		zap.String("passenger_id", passengerID.String()),
	)

	s.publish(ctx, eventbus.SubjectBookingCancelled, eventbus.BookingData{
		BookingID:      booking.ID,
		RideID:         rideID,
		PassengerID:    passengerID,
		SeatsAvailable: seatsLeft,
	})

	return booking, nil
}

// CancelForRide cancels every BOOKED booking of a ride being cancelled. It
// joins the caller's transaction; bookings already cancelled are skipped.
func (s *Service) CancelForRide(ctx context.Context, ride *models.Ride) ([]*models.RideBooking, error) {
	var cancelled []*models.RideBooking

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		bookings, err := s.repo.GetBookingsByRide(ctx, ride.ID)
		if err != nil {
			return err
		}

		for _, booking := range bookings {
			if booking.Status != models.BookingStatusBooked {
				continue
			}
			if err := s.release(ctx, ride, booking); err != nil {
				return err
			}
			cancelled = append(cancelled, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cascadeCancelledTotal.Add(float64(len(cancelled)))
	return cancelled, nil
}

// release flips a booking to CANCELLED and gives its seat back
func (s *Service) release(ctx context.Context, ride *models.Ride, booking *models.RideBooking) error {
	applied, err := s.repo.UpdateBookingStatus(ctx, booking.ID, models.BookingStatusBooked, models.BookingStatusCancelled)
	if err != nil {
		return err
	}
	if !applied {
		return common.NewBadRequestError("booking already cancelled", nil)
	}

	applied, err = s.rides.AdjustSeats(ctx, ride.ID, 1)
	if err != nil {
		return err
	}
	if !applied {
		return common.NewInternalError("seat count would exceed total seats", nil)
	}

	booking.Status = models.BookingStatusCancelled
	return nil
}

// ListPassengers lists the bookings of a ride with each passenger's name
func (s *Service) ListPassengers(ctx context.Context, rideID uuid.UUID) ([]*models.Passenger, error) {
	ride, err := s.rides.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, common.Unavailable("failed to get ride", err)
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride does not exist", nil)
	}

	bookings, err := s.repo.GetBookingsByRide(ctx, rideID)
	if err != nil {
		return nil, common.Unavailable("failed to get bookings", err)
	}

	passengers := make([]*models.Passenger, 0, len(bookings))
	for _, booking := range bookings {
		user, err := s.users.GetUserByID(ctx, booking.PassengerID)
		if err != nil {
			return nil, common.Unavailable("failed to get passenger", err)
		}
		if user == nil {
			return nil, common.NewNotFoundError("passenger not found", nil)
		}
		passengers = append(passengers, &models.Passenger{
			BookingID:   booking.ID,
			PassengerID: booking.PassengerID,
			FullName:    user.FullName(),
			Status:      booking.Status,
			BookedAt:    booking.CreatedAt,
		})
	}
	return passengers, nil
}

// ListBookingsByPassenger lists every booking a user holds
func (s *Service) ListBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*models.RideBooking, error) {
	exists, err := s.users.UserExists(ctx, passengerID)
	if err != nil {
		return nil, common.Unavailable("failed to check passenger", err)
	}
	if !exists {
		return nil, common.NewNotFoundError("user not found", nil)
	}

	bookings, err := s.repo.GetBookingsByPassenger(ctx, passengerID)
	if err != nil {
		return nil, common.Unavailable("failed to get bookings", err)
	}
	return bookings, nil
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	event, err := eventbus.NewEvent(ctx, subject, eventSource, data)
	if err == nil {
		err = s.events.Publish(ctx, subject, event)
	}
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to publish booking event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
