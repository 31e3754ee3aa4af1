// Package generator reconciles detected recurring patterns into durable
// subscription records. Reconcile is idempotent: re-running it with the
// same patterns converges on the same records with zero duplicate creates.
package generator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/detector"
	"github.com/subtrackapp/subtrack-backend/internal/models"
)

// Store is the subscription persistence boundary. FindExisting searches the
// user's active-or-paused subscriptions whose merchant matches any of the
// lowercase name variants; accountID narrows the search best-effort when
// non-nil (implementations fall back to an unscoped lookup).
type Store interface {
	FindExisting(userID uuid.UUID, nameVariants []string, accountID *string) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	Update(sub *models.Subscription) error
}

// Outcome reports what happened to one pattern.
type Outcome struct {
	Subscription *models.Subscription
	Created      bool
}

// Result is the caller-visible reconcile summary ("3 new, 5 updated").
type Result struct {
	Outcomes []Outcome
	Created  int
	Updated  int
	Failed   int
}

type Generator struct {
	store Store
}

func New(store Store) *Generator {
	return &Generator{store: store}
}

// Reconcile upserts each pattern independently; one failing pattern is
// logged and counted but never aborts the batch.
func (g *Generator) Reconcile(userID uuid.UUID, patterns []detector.Pattern) *Result {
	result := &Result{}
	for i := range patterns {
		outcome, err := g.reconcileOne(userID, &patterns[i])
		if err != nil {
			result.Failed++
			slog.Error("pattern reconcile failed",
				"user_id", userID,
				"merchant", patterns[i].MerchantKey,
				"error", err)
			continue
		}
		result.Outcomes = append(result.Outcomes, *outcome)
		if outcome.Created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result
}

func (g *Generator) reconcileOne(userID uuid.UUID, p *detector.Pattern) (*Outcome, error) {
	name := p.MatchedDisplayName
	if name == "" {
		name = p.MerchantKey
	}

	existing, err := g.store.FindExisting(userID, nameVariants(p), p.AccountID)
	if err != nil {
		return nil, fmt.Errorf("existing lookup: %w", err)
	}

	if existing != nil {
		existing.Name = name
		existing.Merchant = p.MerchantKey
		existing.Amount = p.Amount
		existing.Currency = p.Currency
		existing.Interval = p.Interval
		existing.RenewalDate = p.NextBillingDate
		existing.LastPaymentDate = p.LastDate
		existing.Category = p.Category
		existing.Confidence = p.Confidence
		existing.MergeTransactionIDs(p.TransactionIDs)
		if existing.Status == models.SubscriptionPaused {
			existing.Status = models.SubscriptionActive
		}
		if existing.AccountID == nil && p.AccountID != nil {
			existing.AccountID = p.AccountID
		}
		if err := g.store.Update(existing); err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
		return &Outcome{Subscription: existing, Created: false}, nil
	}

	sub := &models.Subscription{
		ID:              uuid.New(),
		UserID:          userID,
		AccountID:       p.AccountID,
		Name:            name,
		Merchant:        p.MerchantKey,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Interval:        p.Interval,
		Status:          models.SubscriptionActive,
		RenewalDate:     p.NextBillingDate,
		LastPaymentDate: p.LastDate,
		Category:        p.Category,
		Confidence:      p.Confidence,
		AutoDetected:    true,
	}
	sub.MergeTransactionIDs(p.TransactionIDs)

	if err := g.store.Create(sub); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return &Outcome{Subscription: sub, Created: true}, nil
}

// nameVariants collects every lowercase spelling the merchant might be
// stored under: the normalized key, the raw statement string, and the
// catalog canonical/display names when matched.
func nameVariants(p *detector.Pattern) []string {
	seen := make(map[string]struct{})
	var variants []string
	for _, v := range []string{p.MerchantKey, p.RawMerchant, p.MatchedMerchantName, p.MatchedDisplayName} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}
