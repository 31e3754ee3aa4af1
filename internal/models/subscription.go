package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Subscription statuses. The detection engine only ever creates active
// records or promotes paused to active; cancellation is a user action.
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a durable recurring-charge record for one user+merchant.
// At most one active-or-paused subscription exists per (user, merchant).
type Subscription struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID       *string        `gorm:"size:64;index" json:"account_id,omitempty"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Merchant        string         `gorm:"size:255;not null;index" json:"merchant"`
	Amount          float64        `json:"amount"`
	Currency        string         `gorm:"size:3;default:'USD'" json:"currency"`
	Interval        string         `gorm:"size:20" json:"interval"`
	Status          string         `gorm:"size:20;not null;default:'active';index" json:"status"`
	RenewalDate     time.Time      `gorm:"type:date" json:"renewal_date"`
	LastPaymentDate time.Time      `gorm:"type:date" json:"last_payment_date"`
	Category        string         `gorm:"size:100" json:"category"`
	Confidence      float64        `json:"confidence"`
	AutoDetected    bool           `gorm:"default:false" json:"auto_detected"`
	TransactionIDs  datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"transaction_ids"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TransactionIDList decodes the stored transaction-ID set. A corrupt or
// empty column decodes to nil rather than failing the caller.
func (s *Subscription) TransactionIDList() []string {
	if len(s.TransactionIDs) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(s.TransactionIDs, &ids); err != nil {
		return nil
	}
	return ids
}

// MergeTransactionIDs unions the given IDs into the stored set. The result
// is sorted so repeated reconcile runs converge to an identical record.
func (s *Subscription) MergeTransactionIDs(ids []string) {
	seen := make(map[string]struct{})
	merged := make([]string, 0, len(ids))
	for _, id := range append(s.TransactionIDList(), ids...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	sort.Strings(merged)
	if b, err := json.Marshal(merged); err == nil {
		s.TransactionIDs = datatypes.JSON(b)
	}
}
