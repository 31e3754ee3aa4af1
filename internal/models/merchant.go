package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnownMerchant is one curated catalog entry for a well-known subscription
// provider. Set- and map-valued fields are stored as jsonb:
//
//	Keywords       []string
//	Countries      []string
//	Currencies     []string
//	TypicalAmounts map[string]float64 (currency -> typical billing amount)
//	BillingCycles  []string
type KnownMerchant struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	DisplayName    string         `gorm:"size:255;not null" json:"display_name"`
	Category       string         `gorm:"size:100" json:"category"`
	Keywords       datatypes.JSON `gorm:"type:jsonb" json:"keywords"`
	Countries      datatypes.JSON `gorm:"type:jsonb" json:"countries"`
	Currencies     datatypes.JSON `gorm:"type:jsonb" json:"currencies"`
	TypicalAmounts datatypes.JSON `gorm:"type:jsonb" json:"typical_amounts"`
	BillingCycles  datatypes.JSON `gorm:"type:jsonb" json:"billing_cycles"`
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`
	MatchCount     int            `gorm:"default:0" json:"match_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
