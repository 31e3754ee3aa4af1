package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a single statement line synced from the aggregation
// provider. Immutable once observed; amounts are signed, negative = expense.
type Transaction struct {
	ID                 string    `gorm:"size:64;primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID          string    `gorm:"size:64;index" json:"account_id"`
	Amount             float64   `gorm:"not null" json:"amount"`
	Currency           string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Date               time.Time `gorm:"type:date;not null;index" json:"date"`
	Merchant           string    `gorm:"size:512" json:"merchant"`
	NormalizedMerchant string    `gorm:"size:255;index" json:"normalized_merchant"`
	Category           string    `gorm:"size:100" json:"category"`
	CreatedAt          time.Time `json:"created_at"`
}
