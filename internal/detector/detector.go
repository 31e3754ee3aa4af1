// Package detector finds recurring billing patterns in a user's transaction
// history. The pipeline is deterministic and single-threaded per run:
// filter, exclude, group by normalized merchant, month-bucket, classify the
// billing interval, score confidence, enrich from the catalog.
package detector

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/matcher"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"github.com/subtrackapp/subtrack-backend/internal/normalizer"
)

// Config carries every detection threshold explicitly so tests can sit
// right on the boundaries. The confidence floors reproduce observed
// behavior of the scoring heuristic; treat the constants as tuned, not
// derived.
type Config struct {
	MinOccurrences int // distinct month-buckets required per merchant

	Bands        []IntervalBand
	MeanWeight   float64 // weight of mean-gap closeness in the band score
	SpreadWeight float64 // weight of the in-band gap fraction

	AmountTolerance      float64 // max per-amount deviation for "consistent"
	LooseAmountTolerance float64 // variance ratio below which half credit applies

	IntervalWeight        float64 // share of interval confidence in the score
	ConsistentAmountBonus float64
	LooseAmountBonus      float64
	CatalogMatchBonus     float64
	OccurrenceBonus       float64 // per occurrence beyond the minimum
	OccurrenceBonusCap    float64

	ConsistentFloor       float64 // raw score needed for the 0.6 floor
	ConsistentFloorValue  float64
	StrongIntervalFloor   float64 // raw score needed for the 0.5 floor
	StrongIntervalMinConf float64 // interval confidence needed alongside it
	StrongIntervalValue   float64
	NoiseFloor            float64 // raw score below which candidates are dropped
	NoiseFloorValue       float64
}

func DefaultConfig() Config {
	return Config{
		MinOccurrences: 2,

		Bands:        defaultBands(),
		MeanWeight:   0.6,
		SpreadWeight: 0.4,

		AmountTolerance:      0.20,
		LooseAmountTolerance: 0.30,

		IntervalWeight:        0.5,
		ConsistentAmountBonus: 0.30,
		LooseAmountBonus:      0.15,
		CatalogMatchBonus:     0.10,
		OccurrenceBonus:       0.02,
		OccurrenceBonusCap:    0.10,

		ConsistentFloor:       0.5,
		ConsistentFloorValue:  0.6,
		StrongIntervalFloor:   0.35,
		StrongIntervalMinConf: 0.6,
		StrongIntervalValue:   0.5,
		NoiseFloor:            0.25,
		NoiseFloorValue:       0.4,
	}
}

// Pattern is one detected recurring-charge candidate. Ephemeral: built
// fresh on every run and handed straight to the subscription generator.
type Pattern struct {
	MerchantKey     string
	RawMerchant     string
	Amount          float64 // mean absolute amount across bucketed occurrences
	Currency        string
	Interval        string
	NextBillingDate time.Time
	Confidence      float64

	MatchedMerchantID   *uuid.UUID
	MatchedMerchantName string
	MatchedDisplayName  string
	Category            string

	TransactionIDs  []string // full, non-bucketed set for this merchant
	AccountID       *string  // set only when every transaction shares one
	FirstDate       time.Time
	LastDate        time.Time
	Occurrences     int
	AvgIntervalDays float64
	VarianceRatio   float64
}

// Report is the structured diagnostics surface. It is built by the same
// code path as detection itself, so dry runs can never drift from
// production behavior.
type Report struct {
	TotalTransactions    int         `json:"total_transactions"`
	ExpenseTransactions  int         `json:"expense_transactions"`
	ExcludedTransactions int         `json:"excluded_transactions"`
	RawMerchants         int         `json:"raw_merchants"`
	NormalizedMerchants  int         `json:"normalized_merchants"`
	Accepted             []Candidate `json:"accepted"`
	Rejected             []Rejection `json:"rejected"`
}

type Candidate struct {
	Merchant    string  `json:"merchant"`
	Interval    string  `json:"interval"`
	Amount      float64 `json:"amount"`
	Confidence  float64 `json:"confidence"`
	Occurrences int     `json:"occurrences"`
}

type Rejection struct {
	Merchant string `json:"merchant"`
	Reason   string `json:"reason"`
}

// Classified rejection reasons; raw error text never reaches callers.
const (
	ReasonInsufficientOccurrences = "insufficient occurrences"
	ReasonNoIntervalMatch         = "no interval match"
	ReasonBelowConfidenceFloor    = "confidence below floor"
)

// Result pairs the accepted patterns with the diagnostics report.
type Result struct {
	Patterns []Pattern
	Report   Report
}

// Detector is safe for concurrent use across users: it holds no per-run
// state and only reads the shared catalog through the matcher.
type Detector struct {
	cfg     Config
	matcher *matcher.Matcher // optional; nil disables catalog enrichment
}

func New(cfg Config, m *matcher.Matcher) *Detector {
	return &Detector{cfg: cfg, matcher: m}
}

// Detect runs the full pipeline over one user's transactions and returns
// candidates sorted descending by confidence. Individual malformed
// transactions or failing merchant groups are skipped, never aborting the
// run.
func (d *Detector) Detect(txs []models.Transaction, userID uuid.UUID, country string) *Result {
	result := &Result{Report: Report{TotalTransactions: len(txs)}}

	rawMerchants := make(map[string]struct{})
	groups := make(map[string][]models.Transaction)

	for _, tx := range txs {
		if tx.Amount >= 0 || tx.Merchant == "" {
			continue
		}
		result.Report.ExpenseTransactions++
		rawMerchants[tx.Merchant] = struct{}{}

		if isExcluded(tx.Merchant) {
			result.Report.ExcludedTransactions++
			continue
		}

		key := tx.NormalizedMerchant
		if key == "" {
			key = normalizer.Normalize(tx.Merchant)
		}
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}
	result.Report.RawMerchants = len(rawMerchants)
	result.Report.NormalizedMerchants = len(groups)

	for key, group := range groups {
		pattern, rejection := d.analyzeGroup(key, group, country)
		if rejection != nil {
			result.Report.Rejected = append(result.Report.Rejected, *rejection)
			continue
		}
		result.Patterns = append(result.Patterns, *pattern)
		result.Report.Accepted = append(result.Report.Accepted, Candidate{
			Merchant:    key,
			Interval:    pattern.Interval,
			Amount:      pattern.Amount,
			Confidence:  pattern.Confidence,
			Occurrences: pattern.Occurrences,
		})
	}

	sort.SliceStable(result.Patterns, func(i, j int) bool {
		return result.Patterns[i].Confidence > result.Patterns[j].Confidence
	})
	sort.Slice(result.Report.Rejected, func(i, j int) bool {
		return result.Report.Rejected[i].Merchant < result.Report.Rejected[j].Merchant
	})

	slog.Info("detection run complete",
		"user_id", userID,
		"transactions", result.Report.TotalTransactions,
		"merchants", result.Report.NormalizedMerchants,
		"accepted", len(result.Patterns),
		"rejected", len(result.Report.Rejected))
	return result
}

// analyzeGroup runs one merchant group through bucketing, interval
// classification and scoring. A non-nil rejection explains a skip.
func (d *Detector) analyzeGroup(key string, group []models.Transaction, country string) (*Pattern, *Rejection) {
	if len(group) < d.cfg.MinOccurrences {
		return nil, &Rejection{Merchant: key, Reason: ReasonInsufficientOccurrences}
	}

	buckets := monthBuckets(group)
	if len(buckets) < d.cfg.MinOccurrences {
		return nil, &Rejection{Merchant: key, Reason: ReasonInsufficientOccurrences}
	}

	gaps := make([]float64, 0, len(buckets)-1)
	for i := 1; i < len(buckets); i++ {
		gaps = append(gaps, buckets[i].Date.Sub(buckets[i-1].Date).Hours()/24)
	}

	cls, ok := d.cfg.classifyIntervals(gaps, len(buckets))
	if !ok {
		return nil, &Rejection{Merchant: key, Reason: ReasonNoIntervalMatch}
	}

	meanAmount, varianceRatio, consistent := amountStats(buckets, d.cfg.AmountTolerance)

	match := d.enrich(key, meanAmount, country, buckets[0].Tx.Currency)

	confidence := d.cfg.IntervalWeight * cls.Confidence
	if consistent {
		confidence += d.cfg.ConsistentAmountBonus
	} else if varianceRatio < d.cfg.LooseAmountTolerance {
		confidence += d.cfg.LooseAmountBonus
	}
	if match != nil {
		confidence += d.cfg.CatalogMatchBonus
	}
	bonus := d.cfg.OccurrenceBonus * float64(len(buckets)-d.cfg.MinOccurrences)
	if bonus > d.cfg.OccurrenceBonusCap {
		bonus = d.cfg.OccurrenceBonusCap
	}
	confidence += bonus
	if confidence > 1 {
		confidence = 1
	}

	switch {
	case confidence >= d.cfg.ConsistentFloor && consistent:
		if confidence < d.cfg.ConsistentFloorValue {
			confidence = d.cfg.ConsistentFloorValue
		}
	case confidence >= d.cfg.StrongIntervalFloor && cls.Confidence > d.cfg.StrongIntervalMinConf:
		if confidence < d.cfg.StrongIntervalValue {
			confidence = d.cfg.StrongIntervalValue
		}
	case confidence >= d.cfg.NoiseFloor:
		if confidence < d.cfg.NoiseFloorValue {
			confidence = d.cfg.NoiseFloorValue
		}
	default:
		return nil, &Rejection{Merchant: key, Reason: ReasonBelowConfidenceFloor}
	}

	last := buckets[len(buckets)-1]
	pattern := &Pattern{
		MerchantKey:     key,
		RawMerchant:     last.Tx.Merchant,
		Amount:          meanAmount,
		Currency:        last.Tx.Currency,
		Interval:        cls.Label,
		NextBillingDate: nextBillingDate(last.Date, cls.Label),
		Confidence:      confidence,
		Category:        guessCategory(key),
		FirstDate:       buckets[0].Date,
		LastDate:        last.Date,
		Occurrences:     len(buckets),
		AvgIntervalDays: cls.MeanGap,
		VarianceRatio:   varianceRatio,
	}

	if match != nil {
		id := match.Merchant.ID
		pattern.MatchedMerchantID = &id
		pattern.MatchedMerchantName = match.Merchant.Name
		pattern.MatchedDisplayName = match.Merchant.DisplayName
		if match.Merchant.Category != "" {
			pattern.Category = match.Merchant.Category
		}
	}

	// Downstream linkage gets the full original set, not just the
	// bucketed representatives.
	ids := make([]string, 0, len(group))
	account := group[0].AccountID
	for _, tx := range group {
		ids = append(ids, tx.ID)
		if tx.AccountID != account {
			account = ""
		}
	}
	sort.Strings(ids)
	pattern.TransactionIDs = ids
	if account != "" {
		pattern.AccountID = &account
	}

	return pattern, nil
}

// enrich attempts a catalog match. Matcher failures are treated as "no
// match": detection must not depend on the catalog being reachable.
func (d *Detector) enrich(key string, amount float64, country, currency string) *matcher.Match {
	if d.matcher == nil {
		return nil
	}
	match, err := d.matcher.Match(key, &amount, country, currency)
	if err != nil {
		slog.Warn("catalog match failed, continuing unmatched", "merchant", key, "error", err)
		return nil
	}
	return match
}

// bucket is one month's representative occurrence for a merchant.
type bucket struct {
	Date time.Time
	Tx   models.Transaction
}

// monthBuckets collapses same-calendar-month transactions into a single
// representative: the one whose amount is closest to the bucket's median.
// Two unrelated same-month purchases at a shared merchant must not read as
// two billing cycles.
func monthBuckets(group []models.Transaction) []bucket {
	byMonth := make(map[string][]models.Transaction)
	for _, tx := range group {
		k := fmt.Sprintf("%04d-%02d", tx.Date.Year(), tx.Date.Month())
		byMonth[k] = append(byMonth[k], tx)
	}

	buckets := make([]bucket, 0, len(byMonth))
	for _, txs := range byMonth {
		rep := pickRepresentative(txs)
		buckets = append(buckets, bucket{Date: rep.Date, Tx: rep})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}

func pickRepresentative(txs []models.Transaction) models.Transaction {
	if len(txs) == 1 {
		return txs[0]
	}

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = math.Abs(tx.Amount)
	}
	sort.Float64s(amounts)
	median := amounts[len(amounts)/2]
	if len(amounts)%2 == 0 {
		median = (amounts[len(amounts)/2-1] + amounts[len(amounts)/2]) / 2
	}

	best := txs[0]
	bestDiff := math.Abs(math.Abs(best.Amount) - median)
	for _, tx := range txs[1:] {
		if diff := math.Abs(math.Abs(tx.Amount) - median); diff < bestDiff {
			best = tx
			bestDiff = diff
		}
	}
	return best
}

// amountStats returns the mean absolute amount across bucketed
// representatives, the mean relative deviation, and whether the amounts are
// consistent. Consistency requires the full spread of amounts to stay
// within tolerance of the mean, so a $10/$13 pair (30% apart) fails even
// though each sits within 20% of the mean.
func amountStats(buckets []bucket, tolerance float64) (mean, varianceRatio float64, consistent bool) {
	low := math.Abs(buckets[0].Tx.Amount)
	high := low
	for _, b := range buckets {
		amt := math.Abs(b.Tx.Amount)
		mean += amt
		if amt < low {
			low = amt
		}
		if amt > high {
			high = amt
		}
	}
	mean /= float64(len(buckets))
	if mean == 0 {
		return 0, 0, false
	}

	var totalDeviation float64
	for _, b := range buckets {
		totalDeviation += math.Abs(math.Abs(b.Tx.Amount)-mean) / mean
	}
	varianceRatio = totalDeviation / float64(len(buckets))
	consistent = (high-low)/mean <= tolerance
	return mean, varianceRatio, consistent
}
