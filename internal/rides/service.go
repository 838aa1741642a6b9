package rides

import (
	"context"
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
	tracerName  = "rides"
	eventSource = "rides-service"
)

// Service handles ride business logic
type Service struct {
	repo     RepositoryInterface
	users    UserChecker
	vehicles VehicleRegistry
	bookings BookingCanceller
	tx       database.Transactor
	locker   locks.Locker
	events   eventbus.Publisher
	now      func() time.Time
}

// NewService creates a new rides service
func NewService(
	repo RepositoryInterface,
	users UserChecker,
	vehicles VehicleRegistry,
	bookings BookingCanceller,
	tx database.Transactor,
	locker locks.Locker,
	events eventbus.Publisher,
) *Service {
	if events == nil {
		events = eventbus.Noop{}
	}
	return &Service{
		repo:     repo,
		users:    users,
		vehicles: vehicles,
		bookings: bookings,
		tx:       tx,
		locker:   locker,
		events:   events,
		now:      time.Now,
	}
}

// WithNow replaces the service clock
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRide publishes a new ride for a driver
func (s *Service) CreateRide(ctx context.Context, req *CreateRideRequest) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "rides.CreateRide",
		attribute.String("driver.id", req.DriverID.String()))
	defer func() {
		recordOperation("create", err)
		tracing.EndSpan(span, err)
	}()

	if err := s.validateNewRide(ctx, req); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, locks.UserKey(req.DriverID.String()))
	if err != nil {
		return nil, common.Unavailable("failed to lock driver", err)
	}
	defer release()

	now := s.now()
	ride = &models.Ride{
		ID:              uuid.New(),
		DriverID:        req.DriverID,
		StartLocation:   req.StartLocation,
		EndLocation:     req.EndLocation,
		DepartureTime:   req.DepartureTime,
		ArrivalTime:     req.ArrivalTime,
		TotalSeats:      req.SeatsAvailable,
		SeatsAvailable:  req.SeatsAvailable,
		SeatPrice:       req.SeatPrice,
		CarLicensePlate: req.CarLicensePlate,
		Status:          models.RideStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		driving, err := s.repo.FindOverlappingRides(ctx, req.DriverID, models.RoleDriver, req.DepartureTime, req.ArrivalTime)
		if err != nil {
			return err
		}
		if len(driving) > 0 {
			return common.NewConflictError("driver involved in another ride")
		}

		riding, err := s.repo.FindOverlappingRides(ctx, req.DriverID, models.RolePassenger, req.DepartureTime, req.ArrivalTime)
		if err != nil {
			return err
		}
		if len(riding) > 0 {
			return common.NewConflictError("driver involved in another ride at the same time as passenger")
		}

		return s.repo.CreateRide(ctx, ride)
	})
	if err != nil {
		return nil, common.Unavailable("failed to create ride", err)
	}

	logger.WithContext(ctx).Info("Ride created",
		zap.String("ride_id", ride.ID.String()),
		zap.String("driver_id", ride.DriverID.String()),
		zap.Time("departure_time", ride.DepartureTime),
	)

	s.publish(ctx, eventbus.SubjectRideCreated, eventbus.RideCreatedData{
		RideID:        ride.ID,
		DriverID:      ride.DriverID,
		DepartureTime: ride.DepartureTime,
		ArrivalTime:   ride.ArrivalTime,
		TotalSeats:    ride.TotalSeats,
	})

	return ride, nil
}

// validateNewRide runs the checks that need no lock. The first failure wins.
func (s *Service) validateNewRide(ctx context.Context, req *CreateRideRequest) error {
	exists, err := s.users.UserExists(ctx, req.DriverID)
	if err != nil {
		return common.Unavailable("failed to check driver", err)
	}
	if !exists {
		return common.NewNotFoundError("driver does not exist as user", nil)
	}

	if !req.DepartureTime.After(s.now()) {
		return common.NewBadRequestError("departure time must be in the future", nil)
	}
	if !req.ArrivalTime.After(req.DepartureTime) {
		return common.NewBadRequestError("arrival time must be after departure time", nil)
	}
	if req.StartLocation == req.EndLocation {
		return common.NewBadRequestError("start location has to be different from end location", nil)
	}
	if req.SeatsAvailable < 1 {
		return common.NewBadRequestError("number of seats has to be greater than 0", nil)
	}
	if req.SeatPrice < 0 {
		return common.NewBadRequestError("price has to be greater or equal to 0", nil)
	}

	registered, err := s.vehicles.VehicleExistsByPlate(ctx, req.CarLicensePlate)
	if err != nil {
		return common.Unavailable("failed to check vehicle", err)
	}
	if !registered {
		return common.NewBadRequestError("vehicle does not exist in the system", nil)
	}
	return nil
}

// StartRide moves a scheduled ride to IN_PROGRESS
func (s *Service) StartRide(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	return s.Transition(ctx, rideID, models.RideStatusInProgress, "")
}

// CompleteRide finishes a ride once the driver reports the destination
func (s *Service) CompleteRide(ctx context.Context, rideID uuid.UUID, currentLocation string) (*models.Ride, error) {
	return s.Transition(ctx, rideID, models.RideStatusCompleted, currentLocation)
}

// CancelRide cancels a scheduled ride and every active booking on it
func (s *Service) CancelRide(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	return s.Transition(ctx, rideID, models.RideStatusCancelled, "")
}

// Transition moves a ride to target. currentLocation is only read when
// completing a ride.
func (s *Service) Transition(ctx context.Context, rideID uuid.UUID, target models.RideStatus, currentLocation string) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "rides.Transition",
		attribute.String("ride.id", rideID.String()),
		attribute.String("ride.target_status", string(target)),
	)
	defer func() {
		recordOperation("transition_"+string(target), err)
		tracing.EndSpan(span, err)
	}()

	var (
		from      models.RideStatus
		cancelled []*models.RideBooking
	)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetRideForUpdate(ctx, rideID)
		if err != nil {
			return err
		}
		if current == nil {
			return common.NewNotFoundError("ride not found", nil)
		}

		if err := checkTransition(current, target, s.now(), currentLocation); err != nil {
			return err
		}

		if target == models.RideStatusCancelled {
			cancelled, err = s.bookings.CancelForRide(ctx, current)
			if err != nil {
				return err
			}
		}

		applied, err := s.repo.UpdateRideStatus(ctx, rideID, current.Status, target)
		if err != nil {
			return err
		}
		if !applied {
			return common.NewConflictError("ride status changed concurrently")
		}

		from = current.Status
		current.Status = target
		current.UpdatedAt = s.now()
		ride = current
		return nil
	})
	if err != nil {
		return nil, common.Unavailable("failed to update ride status", err)
	}

	if len(cancelled) > 0 {
		// seats were returned by the cascade; reflect them on the response
		ride.SeatsAvailable += len(cancelled)
	}

	cancelledIDs := make([]uuid.UUID, 0, len(cancelled))
	for _, b := range cancelled {
		cancelledIDs = append(cancelledIDs, b.ID)
	}

	logger.WithContext(ctx).Info("Ride status changed",
		zap.String("ride_id", ride.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.Int("cancelled_bookings", len(cancelledIDs)),
	)

	s.publish(ctx, statusSubject(target), eventbus.RideStatusChangedData{
		RideID:            ride.ID,
		DriverID:          ride.DriverID,
		From:              string(from),
		To:                string(target),
		CancelledBookings: cancelledIDs,
	})

	return ride, nil
}

// GetRide retrieves a ride by ID
func (s *Service) GetRide(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.GetRideByID(ctx, rideID)
	if err != nil {
		return nil, common.Unavailable("failed to get ride", err)
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	return ride, nil
}

// ListRides lists rides ordered by departure time
func (s *Service) ListRides(ctx context.Context, limit, offset int) ([]*models.Ride, int64, error) {
	rides, total, err := s.repo.ListRides(ctx, limit, offset)
	if err != nil {
		return nil, 0, common.Unavailable("failed to list rides", err)
	}
	return rides, total, nil
}

// GetRidesByDate lists the rides departing on the UTC calendar day of date
func (s *Service) GetRidesByDate(ctx context.Context, date time.Time) ([]*models.Ride, error) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rides, err := s.repo.FindRidesByDepartureWindow(ctx, start, end)
	if err != nil {
		return nil, common.Unavailable("failed to list rides by date", err)
	}
	return rides, nil
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	event, err := eventbus.NewEvent(ctx, subject, eventSource, data)
	if err == nil {
		err = s.events.Publish(ctx, subject, event)
	}
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to publish ride event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

func statusSubject(target models.RideStatus) string {
	switch target {
	case models.RideStatusInProgress:
		return eventbus.SubjectRideStarted
	case models.RideStatusCompleted:
		return eventbus.SubjectRideCompleted
	default:
		return eventbus.SubjectRideCancelled
	}
}
