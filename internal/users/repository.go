package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// Repository handles user database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new users repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// UserExists reports whether the user is registered
func (r *Repository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// GetUserByID returns the user, or nil when unknown
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, first_name, last_name, mail, COALESCE(phone_number, ''),
			reviews_number, ratings_sum, avg_rating, created_at
		FROM users
		WHERE id = $1
	`

	var u models.User
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Mail, &u.PhoneNumber,
		&u.ReviewsNumber, &u.RatingsSum, &u.AvgRating, &u.CreatedAt,
	)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ApplyRating folds one rating into the user's aggregate in a single
// statement and returns the updated user
func (r *Repository) ApplyRating(ctx context.Context, id uuid.UUID, rating int) (*models.User, error) {
	query := `
		UPDATE users
		SET ratings_sum = ratings_sum + $2,
			reviews_number = reviews_number + 1,
			avg_rating = (ratings_sum + $2)::DOUBLE PRECISION / (reviews_number + 1)
		WHERE id = $1
		RETURNING id, first_name, last_name, mail, COALESCE(phone_number, ''),
			reviews_number, ratings_sum, avg_rating, created_at
	`

	var u models.User
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id, rating).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Mail, &u.PhoneNumber,
		&u.ReviewsNumber, &u.RatingsSum, &u.AvgRating, &u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("apply rating: %w", err)
	}
	return &u, nil
}
