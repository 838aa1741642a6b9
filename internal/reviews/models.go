package reviews

import "github.com/google/uuid"

// SubmitReviewRequest is a passenger's rating of a ride's driver
type SubmitReviewRequest struct {
	ReviewerID uuid.UUID `json:"reviewer_id" validate:"required"`
	ReviewedID uuid.UUID `json:"reviewed_id" validate:"required"`
	RideID     uuid.UUID `json:"ride_id" validate:"required"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment" validate:"max=1000"`
}
