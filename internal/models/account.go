package models

import (
	"time"

	"github.com/google/uuid"
)

// Account mirrors an account at the bank-data aggregation provider.
// The ID is the provider's own account identifier, so sync stays idempotent.
type Account struct {
	ID          string    `gorm:"size:64;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Institution string    `gorm:"size:255" json:"institution"`
	Currency    string    `gorm:"size:3;default:'USD'" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
}
