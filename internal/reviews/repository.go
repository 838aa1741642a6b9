package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/ride-sharing/pkg/database"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// Repository handles review database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new reviews repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateReview inserts a review; a second review of the same ride by the same
// reviewer fails with database.ErrDuplicate
func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, reviewer_id, reviewed_id, ride_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		review.ID, review.ReviewerID, review.ReviewedID, review.RideID,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if database.IsUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetReviewByRideAndReviewer returns the reviewer's review of the ride, or nil
func (r *Repository) GetReviewByRideAndReviewer(ctx context.Context, rideID, reviewerID uuid.UUID) (*models.Review, error) {
	query := `
		SELECT id, reviewer_id, reviewed_id, ride_id, rating, comment, created_at
		FROM reviews
		WHERE ride_id = $1 AND reviewer_id = $2
	`

	review, err := scanReview(database.Conn(ctx, r.db).QueryRow(ctx, query, rideID, reviewerID))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// GetReviewsByRide returns the reviews of a ride, newest first
func (r *Repository) GetReviewsByRide(ctx context.Context, rideID uuid.UUID) ([]*models.Review, error) {
	query := `
		SELECT id, reviewer_id, reviewed_id, ride_id, rating, comment, created_at
		FROM reviews
		WHERE ride_id = $1
		ORDER BY created_at DESC, id
	`
	return r.queryReviews(ctx, query, rideID)
}

// GetReviewsByReviewed returns the reviews a user received, newest first
func (r *Repository) GetReviewsByReviewed(ctx context.Context, reviewedID uuid.UUID) ([]*models.Review, error) {
	query := `
		SELECT id, reviewer_id, reviewed_id, ride_id, rating, comment, created_at
		FROM reviews
		WHERE reviewed_id = $1
		ORDER BY created_at DESC, id
	`
	return r.queryReviews(ctx, query, reviewedID)
}

func (r *Repository) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.ReviewerID, &rv.ReviewedID, &rv.RideID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}
