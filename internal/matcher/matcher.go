// Package matcher resolves normalized merchant keys against the
// known-merchant catalog, producing scored candidate matches.
package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/catalog"
	"github.com/subtrackapp/subtrack-backend/internal/normalizer"
)

// CatalogSource supplies active catalog entries and receives best-effort
// popularity signals. catalog.Store satisfies it; tests use fakes.
type CatalogSource interface {
	ActiveMerchants() ([]catalog.Entry, error)
	RecordMatch(id uuid.UUID)
}

// Config holds the matching thresholds. Passed explicitly so tests can
// cross threshold boundaries deterministically.
type Config struct {
	ContainmentScore    float64 // keyword substring containment
	SimilarityThreshold float64 // minimum edit-distance similarity
	AmountTolerance     float64 // ±band around the typical amount for the boost
	AmountPenaltyBand   float64 // relative deviation beyond which the penalty applies
	AmountBoost         float64
	AmountPenalty       float64 // multiplier
	CountryBoost        float64
	SingleMatchFloor    float64
	MultiMatchFloor     float64
}

func DefaultConfig() Config {
	return Config{
		ContainmentScore:    0.8,
		SimilarityThreshold: 0.7,
		AmountTolerance:     0.15,
		AmountPenaltyBand:   0.5,
		AmountBoost:         0.15,
		AmountPenalty:       0.7,
		CountryBoost:        0.05,
		SingleMatchFloor:    0.6,
		MultiMatchFloor:     0.5,
	}
}

// Match is one scored catalog candidate.
type Match struct {
	Merchant catalog.Entry
	Score    float64
	Keyword  string // the catalog keyword that produced the score
}

type Matcher struct {
	source CatalogSource
	cfg    Config
}

func New(source CatalogSource, cfg Config) *Matcher {
	return &Matcher{source: source, cfg: cfg}
}

// Match returns the best catalog candidate for a normalized merchant name,
// or nil when nothing clears the single-match floor. An accepted match
// increments the entry's popularity counter (best-effort).
//
// amount may be nil when no transaction amount is available; country and
// currency may be empty.
func (m *Matcher) Match(name string, amount *float64, country, currency string) (*Match, error) {
	candidates, err := m.score(name, amount, country, currency)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 || candidates[0].Score < m.cfg.SingleMatchFloor {
		return nil, nil
	}
	best := candidates[0]
	m.source.RecordMatch(best.Merchant.ID)
	return &best, nil
}

// TopMatches returns up to limit candidates above the multi-match floor,
// sorted descending by score.
func (m *Matcher) TopMatches(name string, amount *float64, country, currency string, limit int) ([]Match, error) {
	candidates, err := m.score(name, amount, country, currency)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, limit)
	for _, c := range candidates {
		if c.Score < m.cfg.MultiMatchFloor {
			break
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Matcher) score(name string, amount *float64, country, currency string) ([]Match, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 2 {
		return nil, nil
	}

	entries, err := m.source.ActiveMerchants()
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	var candidates []Match
	for _, entry := range entries {
		if !entry.SupportsCountry(country) || !entry.SupportsCurrency(currency) {
			continue
		}

		keywordScore, keyword := m.bestKeyword(name, entry.Keywords)
		if keywordScore == 0 {
			continue
		}

		score := m.compose(keywordScore, entry, amount, country, currency)
		candidates = append(candidates, Match{Merchant: entry, Score: score, Keyword: keyword})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// bestKeyword scores the input against each of the entry's keywords,
// normalized the same way transaction merchants are. Exact equality wins
// outright; containment and fuzzy similarity are tracked for the best.
func (m *Matcher) bestKeyword(name string, keywords []string) (float64, string) {
	best := 0.0
	bestKeyword := ""
	for _, kw := range keywords {
		normalized := normalizer.Normalize(kw)
		if normalized == "" {
			continue
		}

		var score float64
		switch {
		case normalized == name:
			score = 1.0
		case strings.Contains(name, normalized) || strings.Contains(normalized, name):
			score = m.cfg.ContainmentScore
		default:
			if sim := similarity(name, normalized); sim > m.cfg.SimilarityThreshold {
				score = sim
			}
		}

		if score > best {
			best = score
			bestKeyword = kw
		}
		if best == 1.0 {
			break
		}
	}
	return best, bestKeyword
}

// compose folds the amount and country signals into the keyword score.
func (m *Matcher) compose(keywordScore float64, entry catalog.Entry, amount *float64, country, currency string) float64 {
	score := keywordScore

	if amount != nil {
		if typical, ok := entry.TypicalAmount(currency); ok && typical > 0 {
			deviation := math.Abs(math.Abs(*amount)-typical) / typical
			if deviation <= m.cfg.AmountTolerance {
				score += m.cfg.AmountBoost
			} else if deviation > m.cfg.AmountPenaltyBand {
				// Keyword hit at a wildly different price point is
				// likely a different product.
				score *= m.cfg.AmountPenalty
			}
		}
	}

	if country != "" && entry.SupportsCountry(country) && len(entry.Countries) > 0 {
		score += m.cfg.CountryBoost
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
