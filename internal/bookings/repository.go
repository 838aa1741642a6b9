package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// Repository handles booking database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new bookings repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateBooking inserts a booking. A second booking for the same ride and
// passenger fails with database.ErrDuplicate.
func (r *Repository) CreateBooking(ctx context.Context, booking *models.RideBooking) error {
	query := `
		INSERT INTO ride_bookings (id, ride_id, passenger_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID, booking.RideID, booking.PassengerID, booking.Status, booking.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetBooking returns the booking of a passenger on a ride, or nil
func (r *Repository) GetBooking(ctx context.Context, rideID, passengerID uuid.UUID) (*models.RideBooking, error) {
	query := `
		SELECT id, ride_id, passenger_id, status, created_at
		FROM ride_bookings
		WHERE ride_id = $1 AND passenger_id = $2
	`

	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, rideID, passengerID))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// GetBookingsByRide returns every booking of a ride, oldest first
func (r *Repository) GetBookingsByRide(ctx context.Context, rideID uuid.UUID) ([]*models.RideBooking, error) {
	query := `
		SELECT id, ride_id, passenger_id, status, created_at
		FROM ride_bookings
		WHERE ride_id = $1
		ORDER BY created_at, id
	`
	return r.queryBookings(ctx, query, rideID)
}

// GetBookingsByPassenger returns every booking held by a passenger, newest first
func (r *Repository) GetBookingsByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*models.RideBooking, error) {
	query := `
		SELECT id, ride_id, passenger_id, status, created_at
		FROM ride_bookings
		WHERE passenger_id = $1
		ORDER BY created_at DESC, id
	`
	return r.queryBookings(ctx, query, passengerID)
}

// UpdateBookingStatus moves a booking from one status to another and reports
// whether it was still in from
func (r *Repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	query := `UPDATE ride_bookings SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) queryBookings(ctx context.Context, query string, args ...any) ([]*models.RideBooking, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.RideBooking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.Row) (*models.RideBooking, error) {
	var b models.RideBooking
	if err := row.Scan(&b.ID, &b.RideID, &b.PassengerID, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
