package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a registered car, referenced by rides through its plate
type Vehicle struct {
	LicensePlate string    `json:"license_plate" db:"license_plate"`
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
