package catalog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"gorm.io/gorm"
)

const activeEntriesKey = "catalog/active"

// Store reads the known-merchant catalog from Postgres and caches the
// decoded active list. The cache is shared safely across concurrent
// per-user detection runs; writes (match counting) bypass it.
type Store struct {
	db    *gorm.DB
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewStore(db *gorm.DB, ttl time.Duration) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog cache init: %w", err)
	}
	return &Store{db: db, cache: cache, ttl: ttl}, nil
}

// ActiveMerchants returns the decoded active catalog entries, served from
// cache when fresh.
func (s *Store) ActiveMerchants() ([]Entry, error) {
	if cached, ok := s.cache.Get(activeEntriesKey); ok {
		if entries, ok := cached.([]Entry); ok {
			return entries, nil
		}
	}

	var rows []models.KnownMerchant
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading active merchants: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, decodeEntry(&rows[i]))
	}

	s.cache.SetWithTTL(activeEntriesKey, entries, int64(len(entries)+1), s.ttl)
	return entries, nil
}

// RecordMatch increments a merchant's popularity counter. Best-effort: the
// counter is an approximate signal and a failed update is only logged.
func (s *Store) RecordMatch(id uuid.UUID) {
	err := s.db.Model(&models.KnownMerchant{}).
		Where("id = ?", id).
		UpdateColumn("match_count", gorm.Expr("match_count + 1")).Error
	if err != nil {
		slog.Warn("failed to record catalog match", "merchant_id", id, "error", err)
	}
}

// Invalidate drops the cached active list, e.g. after seeding.
func (s *Store) Invalidate() {
	s.cache.Del(activeEntriesKey)
}
