package detector

import (
	"math"
	"time"
)

// Billing-cycle labels.
const (
	IntervalWeekly    = "weekly"
	IntervalBiWeekly  = "bi-weekly"
	IntervalMonthly   = "monthly"
	IntervalQuarterly = "quarterly"
	IntervalYearly    = "yearly"
)

// IntervalBand maps an accepted day-gap range to a billing-cycle label.
// MinOccurrences guards against short gap runs being over-read: two weekly
// charges look like anything, four do not.
type IntervalBand struct {
	Label          string
	MinDays        float64
	MaxDays        float64
	IdealDays      float64
	MinOccurrences int
}

func defaultBands() []IntervalBand {
	return []IntervalBand{
		{Label: IntervalWeekly, MinDays: 6, MaxDays: 10, IdealDays: 7, MinOccurrences: 4},
		{Label: IntervalBiWeekly, MinDays: 13, MaxDays: 15, IdealDays: 14, MinOccurrences: 2},
		{Label: IntervalMonthly, MinDays: 22, MaxDays: 38, IdealDays: 30, MinOccurrences: 2},
		{Label: IntervalQuarterly, MinDays: 85, MaxDays: 95, IdealDays: 90, MinOccurrences: 2},
		{Label: IntervalYearly, MinDays: 350, MaxDays: 380, IdealDays: 365, MinOccurrences: 2},
	}
}

// classification is the outcome of matching a gap sequence against the bands.
type classification struct {
	Label      string
	Confidence float64
	MeanGap    float64
}

// classifyIntervals matches the day-gaps between consecutive occurrences
// against the configured bands. Among bands whose occurrence-count and range
// requirements hold, the one maximizing the combined score wins:
// MeanWeight on closeness of the mean gap to the band's ideal (normalized by
// half the band width) and SpreadWeight on the fraction of individual gaps
// inside the band. Returns ok=false when no band qualifies.
func (c Config) classifyIntervals(gaps []float64, occurrences int) (classification, bool) {
	if len(gaps) == 0 {
		return classification{}, false
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))

	best := classification{}
	found := false
	for _, band := range c.Bands {
		if occurrences < band.MinOccurrences {
			continue
		}
		if mean < band.MinDays || mean > band.MaxDays {
			continue
		}

		halfWidth := (band.MaxDays - band.MinDays) / 2
		closeness := 1.0
		if halfWidth > 0 {
			closeness = 1 - math.Abs(mean-band.IdealDays)/halfWidth
			if closeness < 0 {
				closeness = 0
			}
		}

		inBand := 0
		for _, g := range gaps {
			if g >= band.MinDays && g <= band.MaxDays {
				inBand++
			}
		}
		fraction := float64(inBand) / float64(len(gaps))

		score := c.MeanWeight*closeness + c.SpreadWeight*fraction
		if !found || score > best.Confidence {
			best = classification{Label: band.Label, Confidence: score, MeanGap: mean}
			found = true
		}
	}
	return best, found
}

// nextBillingDate advances the last observed date by one interval unit.
func nextBillingDate(last time.Time, label string) time.Time {
	switch label {
	case IntervalWeekly:
		return last.AddDate(0, 0, 7)
	case IntervalBiWeekly:
		return last.AddDate(0, 0, 14)
	case IntervalMonthly:
		return last.AddDate(0, 1, 0)
	case IntervalQuarterly:
		return last.AddDate(0, 3, 0)
	case IntervalYearly:
		return last.AddDate(1, 0, 0)
	default:
		return last
	}
}
