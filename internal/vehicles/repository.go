// Package vehicles answers whether a car is registered. Registration itself
// belongs to the fleet system that owns the vehicles table.
package vehicles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/ride-sharing/pkg/database"
)

// Repository handles vehicle database lookups
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new vehicles repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// VehicleExistsByPlate reports whether a vehicle with the plate is registered
func (r *Repository) VehicleExistsByPlate(ctx context.Context, plate string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM vehicles WHERE license_plate = $1)`
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, plate).Scan(&exists); err != nil {
		return false, fmt.Errorf("check vehicle: %w", err)
	}
	return exists, nil
}
