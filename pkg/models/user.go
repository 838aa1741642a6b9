package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered person with their received-rating aggregate
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	Mail          string    `json:"mail" db:"mail"`
	PhoneNumber   string    `json:"phone_number" db:"phone_number"`
	ReviewsNumber int       `json:"reviews_number" db:"reviews_number"`
	RatingsSum    int       `json:"ratings_sum" db:"ratings_sum"`
	AvgRating     float64   `json:"avg_rating" db:"avg_rating"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// FullName returns "first last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ApplyRating folds one more rating into the aggregate
func (u *User) ApplyRating(rating int) {
	u.RatingsSum += rating
	u.ReviewsNumber++
	u.AvgRating = float64(u.RatingsSum) / float64(u.ReviewsNumber)
}
