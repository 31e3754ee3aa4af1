package matcher

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/catalog"
)

type fakeSource struct {
	entries  []catalog.Entry
	err      error
	recorded []uuid.UUID
}

func (f *fakeSource) ActiveMerchants() ([]catalog.Entry, error) {
	return f.entries, f.err
}

func (f *fakeSource) RecordMatch(id uuid.UUID) {
	f.recorded = append(f.recorded, id)
}

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{
			ID:             uuid.New(),
			Name:           "netflix",
			DisplayName:    "Netflix",
			Category:       "streaming",
			Keywords:       []string{"netflix", "netflix.com"},
			Countries:      []string{"US", "GB"},
			Currencies:     []string{"USD", "GBP"},
			TypicalAmounts: map[string]float64{"USD": 15.49},
		},
		{
			ID:          uuid.New(),
			Name:        "spotify",
			DisplayName: "Spotify",
			Category:    "music",
			Keywords:    []string{"spotify", "spotify usa"},
			Countries:   []string{"US"},
			Currencies:  []string{"USD"},
		},
	}
}

func newTestMatcher(source *fakeSource) *Matcher {
	return New(source, DefaultConfig())
}

func TestMatchExactKeyword(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("netflix", nil, "", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match for exact keyword")
	}
	if match.Merchant.Name != "netflix" {
		t.Errorf("matched %q, want netflix", match.Merchant.Name)
	}
	if match.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", match.Score)
	}
	if len(source.recorded) != 1 || source.recorded[0] != match.Merchant.ID {
		t.Error("accepted match should record a popularity signal")
	}
}

func TestMatchContainment(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("netflix los gatos", nil, "", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match == nil {
		t.Fatal("expected containment match")
	}
	if match.Score != 0.8 {
		t.Errorf("containment score = %v, want 0.8", match.Score)
	}
}

func TestMatchFuzzy(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	// One edit away: similarity 6/7 ≈ 0.857, above the 0.7 threshold.
	match, err := m.Match("netflx", nil, "", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match == nil {
		t.Fatal("expected fuzzy match for netflx")
	}
	if match.Score < 0.7 || match.Score > 0.9 {
		t.Errorf("fuzzy score = %v, want within (0.7, 0.9)", match.Score)
	}
}

func TestMatchNoCandidate(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("local bakery", nil, "", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match, got %q at %v", match.Merchant.Name, match.Score)
	}
	if len(source.recorded) != 0 {
		t.Error("rejected lookup must not record a popularity signal")
	}
}

func TestMatchShortNameRejected(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("n", nil, "", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match != nil {
		t.Error("single-character names must not match")
	}
}

func TestMatchCurrencyFilter(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("netflix", nil, "", "TRY")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match != nil {
		t.Error("entry without the requested currency must be filtered out")
	}
}

func TestMatchCountryFilter(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("spotify", nil, "DE", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match != nil {
		t.Error("entry without the requested country must be filtered out")
	}
}

func TestMatchAmountBoost(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	amount := -15.00 // within 15% of the 15.49 typical
	match, err := m.Match("netflix los gatos", &amount, "", "USD")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match == nil {
		t.Fatal("expected match")
	}
	want := 0.8 + 0.15
	if diff := match.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v (containment + amount boost)", match.Score, want)
	}
}

func TestMatchAmountPenalty(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	// A $50 charge against a $15.49 typical price: keyword containment
	// (0.8) decays to 0.56, below the single-match floor.
	amount := -50.00
	match, err := m.Match("netflix los gatos", &amount, "", "USD")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match != nil {
		t.Errorf("penalized match should fall below the floor, got %v", match.Score)
	}

	// The multi-match floor is lower; the candidate survives there.
	matches, err := m.TopMatches("netflix los gatos", &amount, "", "USD", 3)
	if err != nil {
		t.Fatalf("TopMatches returned error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("TopMatches = %d candidates, want 1", len(matches))
	}
	if diff := matches[0].Score - 0.56; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("penalized score = %v, want 0.56", matches[0].Score)
	}
}

func TestMatchCountryBoost(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	match, err := m.Match("netflix los gatos", nil, "US", "")
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if match == nil {
		t.Fatal("expected match")
	}
	want := 0.8 + 0.05
	if diff := match.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v (containment + country bonus)", match.Score, want)
	}
}

func TestMatchSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("catalog down")}
	m := newTestMatcher(source)

	if _, err := m.Match("netflix", nil, "", ""); err == nil {
		t.Error("catalog failure should surface as an error")
	}
}

func TestTopMatchesSorted(t *testing.T) {
	source := &fakeSource{entries: testEntries()}
	m := newTestMatcher(source)

	matches, err := m.TopMatches("spotify", nil, "", "", 5)
	if err != nil {
		t.Fatalf("TopMatches returned error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected candidates")
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Fatal("candidates must be sorted descending by score")
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"netflix", "netflix", 0},
		{"netflix", "netflx", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
