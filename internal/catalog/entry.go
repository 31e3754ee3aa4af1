// Package catalog manages the known-merchant reference list: curated
// subscription providers with keywords, typical prices and supported
// regions, persisted in Postgres and cached for concurrent detection runs.
package catalog

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/models"
)

// Entry is a decoded catalog row, ready for matching. The jsonb set/map
// columns of models.KnownMerchant are unpacked once per load so per-group
// matching never touches raw JSON.
type Entry struct {
	ID             uuid.UUID
	Name           string
	DisplayName    string
	Category       string
	Keywords       []string
	Countries      []string
	Currencies     []string
	TypicalAmounts map[string]float64
	BillingCycles  []string
}

// SupportsCountry reports whether the entry serves the given country.
// An empty country set means worldwide.
func (e *Entry) SupportsCountry(country string) bool {
	if country == "" || len(e.Countries) == 0 {
		return true
	}
	for _, c := range e.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// SupportsCurrency reports whether the entry bills in the given currency.
// An empty currency set means any currency.
func (e *Entry) SupportsCurrency(currency string) bool {
	if currency == "" || len(e.Currencies) == 0 {
		return true
	}
	for _, c := range e.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// TypicalAmount returns the typical billing amount for a currency, if known.
func (e *Entry) TypicalAmount(currency string) (float64, bool) {
	amt, ok := e.TypicalAmounts[currency]
	return amt, ok
}

// decodeEntry unpacks one KnownMerchant row. Decode errors on individual
// jsonb columns leave that field empty instead of failing the load.
func decodeEntry(m *models.KnownMerchant) Entry {
	e := Entry{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Category:    m.Category,
	}
	decodeJSON(m.Keywords, &e.Keywords)
	decodeJSON(m.Countries, &e.Countries)
	decodeJSON(m.Currencies, &e.Currencies)
	decodeJSON(m.TypicalAmounts, &e.TypicalAmounts)
	decodeJSON(m.BillingCycles, &e.BillingCycles)
	return e
}

func decodeJSON(raw []byte, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}
