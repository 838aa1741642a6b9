package rides

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
)

const rideColumns = `
	r.id, r.driver_id, r.start_location, r.end_location,
	r.departure_time, r.arrival_time, r.total_seats, r.seats_available,
	r.seat_price, r.car_license_plate, r.status, r.created_at, r.updated_at`

// Repository handles ride database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new rides repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRide inserts a new ride
func (r *Repository) CreateRide(ctx context.Context, ride *models.Ride) error {
	query := `
		INSERT INTO rides (
			id, driver_id, start_location, end_location,
			departure_time, arrival_time, total_seats, seats_available,
			seat_price, car_license_plate, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		ride.ID, ride.DriverID, ride.StartLocation, ride.EndLocation,
		ride.DepartureTime, ride.ArrivalTime, ride.TotalSeats, ride.SeatsAvailable,
		ride.SeatPrice, ride.CarLicensePlate, ride.Status, ride.CreatedAt, ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

// GetRideByID returns the ride or nil when it does not exist
func (r *Repository) GetRideByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return r.getRide(ctx, `SELECT `+rideColumns+` FROM rides r WHERE r.id = $1`, id)
}

// GetRideForUpdate reads the ride and locks its row until the surrounding
// transaction ends
func (r *Repository) GetRideForUpdate(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return r.getRide(ctx, `SELECT `+rideColumns+` FROM rides r WHERE r.id = $1 FOR UPDATE`, id)
}

func (r *Repository) getRide(ctx context.Context, query string, id uuid.UUID) (*models.Ride, error) {
	ride, err := scanRide(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return ride, nil
}

// UpdateRideStatus moves the ride from one status to another. It reports
// false when the ride was no longer in from.
func (r *Repository) UpdateRideStatus(ctx context.Context, id uuid.UUID, from, to models.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update ride status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdjustSeats adds delta to the ride's free seats as long as the result
// stays within [0, total_seats]. It reports whether the update applied.
func (r *Repository) AdjustSeats(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	query := `
		UPDATE rides
		SET seats_available = seats_available + $2, updated_at = NOW()
		WHERE id = $1 AND seats_available + $2 BETWEEN 0 AND total_seats
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, delta)
	if err != nil {
		return false, fmt.Errorf("adjust seats: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindOverlappingRides returns the non-cancelled rides whose window
// intersects [start, end] in which the user takes part with the given role.
// For passengers only BOOKED bookings count.
func (r *Repository) FindOverlappingRides(ctx context.Context, userID uuid.UUID, role models.ParticipantRole, start, end time.Time) ([]*models.Ride, error) {
	var query string
	switch role {
	case models.RoleDriver:
		query = `
			SELECT ` + rideColumns + `
			FROM rides r
			WHERE r.driver_id = $1
			  AND r.status <> 'CANCELLED'
			  AND r.departure_time <= $3
			  AND r.arrival_time >= $2
			ORDER BY r.departure_time
		`
	case models.RolePassenger:
		query = `
			SELECT ` + rideColumns + `
			FROM rides r
			JOIN ride_bookings b ON b.ride_id = r.id
			WHERE b.passenger_id = $1
			  AND b.status = 'BOOKED'
			  AND r.status <> 'CANCELLED'
			  AND r.departure_time <= $3
			  AND r.arrival_time >= $2
			ORDER BY r.departure_time
		`
	default:
		return nil, fmt.Errorf("unknown participant role %q", role)
	}

	return r.queryRides(ctx, query, userID, start, end)
}

// FindRidesByDepartureWindow returns rides departing in [start, end)
func (r *Repository) FindRidesByDepartureWindow(ctx context.Context, start, end time.Time) ([]*models.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides r
		WHERE r.departure_time >= $1 AND r.departure_time < $2
		ORDER BY r.departure_time, r.id
	`
	return r.queryRides(ctx, query, start, end)
}

// ListRides returns a page of rides and the total count
func (r *Repository) ListRides(ctx context.Context, limit, offset int) ([]*models.Ride, int64, error) {
	var total int64
	if err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM rides`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rides: %w", err)
	}

	query := `
		SELECT ` + rideColumns + `
		FROM rides r
		ORDER BY r.departure_time, r.id
		LIMIT $1 OFFSET $2
	`
	rides, err := r.queryRides(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

func (r *Repository) queryRides(ctx context.Context, query string, args ...any) ([]*models.Ride, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	rides := make([]*models.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rides: %w", err)
	}
	return rides, nil
}

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.DriverID, &ride.StartLocation, &ride.EndLocation,
		&ride.DepartureTime, &ride.ArrivalTime, &ride.TotalSeats, &ride.SeatsAvailable,
		&ride.SeatPrice, &ride.CarLicensePlate, &ride.Status, &ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}
