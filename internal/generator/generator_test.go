package generator

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/detector"
	"github.com/subtrackapp/subtrack-backend/internal/models"
)

var testUser = uuid.MustParse("0b9f4a7e-11d2-4c5a-8f3b-7e2d9c1a5b6f")

// fakeStore is an in-memory generator.Store mirroring the real lookup
// semantics: active-or-paused, case-insensitive merchant/name variants,
// best-effort account scoping.
type fakeStore struct {
	subs    map[uuid.UUID]*models.Subscription
	failOn  string // merchant key whose create/update fails
	creates int
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[uuid.UUID]*models.Subscription)}
}

func (f *fakeStore) FindExisting(userID uuid.UUID, nameVariants []string, accountID *string) (*models.Subscription, error) {
	match := func(scoped bool) *models.Subscription {
		for _, sub := range f.subs {
			if sub.UserID != userID {
				continue
			}
			if sub.Status != models.SubscriptionActive && sub.Status != models.SubscriptionPaused {
				continue
			}
			if scoped && (sub.AccountID == nil || accountID == nil || *sub.AccountID != *accountID) {
				continue
			}
			for _, v := range nameVariants {
				if strings.EqualFold(sub.Merchant, v) || strings.EqualFold(sub.Name, v) {
					return sub
				}
			}
		}
		return nil
	}
	if accountID != nil {
		if sub := match(true); sub != nil {
			return sub, nil
		}
	}
	return match(false), nil
}

func (f *fakeStore) Create(sub *models.Subscription) error {
	if sub.Merchant == f.failOn {
		return errors.New("store unavailable")
	}
	f.creates++
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func (f *fakeStore) Update(sub *models.Subscription) error {
	if sub.Merchant == f.failOn {
		return errors.New("store unavailable")
	}
	f.updates++
	cp := *sub
	f.subs[sub.ID] = &cp
	return nil
}

func testPattern(merchant string, txIDs ...string) detector.Pattern {
	return detector.Pattern{
		MerchantKey:     merchant,
		RawMerchant:     strings.ToUpper(merchant),
		Amount:          9.99,
		Currency:        "USD",
		Interval:        "monthly",
		NextBillingDate: time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		Confidence:      0.8,
		Category:        "streaming",
		TransactionIDs:  txIDs,
		LastDate:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Occurrences:     3,
	}
}

func TestReconcileCreatesNewSubscription(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	result := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1", "t2", "t3")})
	if result.Created != 1 || result.Updated != 0 || result.Failed != 0 {
		t.Fatalf("created/updated/failed = %d/%d/%d, want 1/0/0", result.Created, result.Updated, result.Failed)
	}

	sub := result.Outcomes[0].Subscription
	if sub.Status != models.SubscriptionActive {
		t.Errorf("status = %q, want active", sub.Status)
	}
	if !sub.AutoDetected {
		t.Error("detected subscription must carry the auto-detected flag")
	}
	if got := sub.TransactionIDList(); len(got) != 3 {
		t.Errorf("transaction ids = %v, want 3 entries", got)
	}
	if sub.Name != "netflix" {
		t.Errorf("name = %q, want merchant key fallback", sub.Name)
	}
}

func TestReconcileUsesDisplayNameWhenMatched(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	p := testPattern("netflix", "t1")
	p.MatchedMerchantName = "netflix"
	p.MatchedDisplayName = "Netflix"

	result := g.Reconcile(testUser, []detector.Pattern{p})
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}
	if got := result.Outcomes[0].Subscription.Name; got != "Netflix" {
		t.Errorf("name = %q, want display name", got)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := newFakeStore()
	g := New(store)
	patterns := []detector.Pattern{
		testPattern("netflix", "t1", "t2"),
		testPattern("spotify", "t4", "t5"),
	}

	first := g.Reconcile(testUser, patterns)
	if first.Created != 2 {
		t.Fatalf("first run created = %d, want 2", first.Created)
	}

	snapshot := make(map[uuid.UUID]models.Subscription)
	for id, sub := range store.subs {
		snapshot[id] = *sub
	}

	second := g.Reconcile(testUser, patterns)
	if second.Created != 0 || second.Updated != 2 {
		t.Fatalf("second run created/updated = %d/%d, want 0/2", second.Created, second.Updated)
	}

	if len(store.subs) != 2 {
		t.Fatalf("store holds %d subscriptions, want 2", len(store.subs))
	}
	for id, sub := range store.subs {
		prev, ok := snapshot[id]
		if !ok {
			t.Fatal("second run changed a subscription identity")
		}
		sub.UpdatedAt = prev.UpdatedAt
		if !reflect.DeepEqual(prev, *sub) {
			t.Errorf("second run did not converge for %s:\n first: %+v\nsecond: %+v", prev.Merchant, prev, *sub)
		}
	}
}

func TestReconcileSupersetRunKeepsIdentity(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	first := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1", "t2")})
	id := first.Outcomes[0].Subscription.ID

	// A later sync sees more history for the same merchant.
	second := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1", "t2", "t3", "t4")})
	if second.Created != 0 || second.Updated != 1 {
		t.Fatalf("superset run created/updated = %d/%d, want 0/1", second.Created, second.Updated)
	}
	sub := second.Outcomes[0].Subscription
	if sub.ID != id {
		t.Error("superset run must update the existing record, not create a duplicate")
	}
	if got := sub.TransactionIDList(); len(got) != 4 {
		t.Errorf("merged transaction ids = %v, want 4 entries", got)
	}
}

func TestReconcileMatchesRawMerchantVariant(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	existing := &models.Subscription{
		ID:       uuid.New(),
		UserID:   testUser,
		Name:     "Netflix",
		Merchant: "NETFLIX", // stored from the raw statement string
		Status:   models.SubscriptionActive,
	}
	store.subs[existing.ID] = existing

	result := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1")})
	if result.Created != 0 || result.Updated != 1 {
		t.Fatalf("created/updated = %d/%d, want 0/1", result.Created, result.Updated)
	}
	if result.Outcomes[0].Subscription.ID != existing.ID {
		t.Error("case-insensitive variant lookup must find the existing record")
	}
}

func TestReconcilePromotesPaused(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	existing := &models.Subscription{
		ID:       uuid.New(),
		UserID:   testUser,
		Name:     "netflix",
		Merchant: "netflix",
		Status:   models.SubscriptionPaused,
	}
	store.subs[existing.ID] = existing

	result := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1")})
	if result.Updated != 1 {
		t.Fatalf("updated = %d, want 1", result.Updated)
	}
	if got := result.Outcomes[0].Subscription.Status; got != models.SubscriptionActive {
		t.Errorf("status = %q, want paused promoted to active", got)
	}
}

func TestReconcileIgnoresCancelled(t *testing.T) {
	store := newFakeStore()
	g := New(store)

	cancelled := &models.Subscription{
		ID:       uuid.New(),
		UserID:   testUser,
		Name:     "netflix",
		Merchant: "netflix",
		Status:   models.SubscriptionCancelled,
	}
	store.subs[cancelled.ID] = cancelled

	result := g.Reconcile(testUser, []detector.Pattern{testPattern("netflix", "t1")})
	if result.Created != 1 {
		t.Fatal("a cancelled record must not absorb a fresh detection")
	}
	if store.subs[cancelled.ID].Status != models.SubscriptionCancelled {
		t.Error("reconcile must never touch a cancelled subscription")
	}
}

func TestReconcileIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.failOn = "spotify"
	g := New(store)

	result := g.Reconcile(testUser, []detector.Pattern{
		testPattern("netflix", "t1"),
		testPattern("spotify", "t2"),
		testPattern("hulu", "t3"),
	})
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if result.Created != 2 {
		t.Errorf("created = %d, want 2 despite the failing pattern", result.Created)
	}
}

// End-to-end: detect on a fixed history, reconcile, detect on a superset,
// reconcile again. No duplicate subscription may appear and the identity
// must hold across runs.
func TestDetectThenReconcileTwice(t *testing.T) {
	day := func(m time.Month, d int) time.Time {
		return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
	}
	mk := func(id string, date time.Time, amount float64, merchant string) models.Transaction {
		return models.Transaction{
			ID: id, UserID: testUser, AccountID: "acc-1",
			Amount: amount, Currency: "USD", Date: date, Merchant: merchant,
		}
	}

	history := []models.Transaction{
		mk("s1", day(1, 5), -5.45, "SQ *STARBUCKS STORE 12345"),
		mk("s2", day(2, 4), -5.50, "SQ *STARBUCKS STORE 12345"),
		mk("s3", day(3, 6), -5.40, "SQ *STARBUCKS STORE 12345"),
	}

	det := detector.New(detector.DefaultConfig(), nil)
	store := newFakeStore()
	g := New(store)

	first := det.Detect(history, testUser, "US")
	if len(first.Patterns) != 1 {
		t.Fatalf("patterns = %d, want 1", len(first.Patterns))
	}
	r1 := g.Reconcile(testUser, first.Patterns)
	if r1.Created != 1 {
		t.Fatalf("first reconcile created = %d, want 1", r1.Created)
	}
	id := r1.Outcomes[0].Subscription.ID

	grown := append(history, mk("s4", day(4, 5), -5.45, "SQ *STARBUCKS STORE 12345"))
	second := det.Detect(grown, testUser, "US")
	r2 := g.Reconcile(testUser, second.Patterns)
	if r2.Created != 0 || r2.Updated != 1 {
		t.Fatalf("second reconcile created/updated = %d/%d, want 0/1", r2.Created, r2.Updated)
	}
	if len(store.subs) != 1 {
		t.Fatalf("store holds %d subscriptions, want 1", len(store.subs))
	}
	sub := store.subs[id]
	if sub == nil {
		t.Fatal("subscription identity changed across runs")
	}
	if got := sub.TransactionIDList(); len(got) != 4 {
		t.Errorf("transaction ids after growth = %v, want 4", got)
	}
}
