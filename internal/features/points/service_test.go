package points

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/features/members"
)

type fakeStore struct {
	grants    []*PointGrant
	warned    map[string]bool
	created   []*PointGrant
	expireErr error
	runAts    []time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{warned: make(map[string]bool)}
}

func (f *fakeStore) add(userID string, amount int64, expiresAt time.Time) {
	f.grants = append(f.grants, &PointGrant{UserID: userID, Amount: amount, Status: StatusActive, ExpiresAt: expiresAt})
}

func (f *fakeStore) available(userID string) int64 {
	var sum int64
	for _, g := range f.grants {
		if g.UserID == userID && g.Status == StatusActive {
			sum += g.Amount
		}
	}
	return sum
}

func (f *fakeStore) CreateGrant(_ context.Context, g *PointGrant) error {
	f.created = append(f.created, g)
	f.grants = append(f.grants, g)
	return nil
}

func (f *fakeStore) GetAvailablePoints(_ context.Context, userID string) (int64, error) {
	return f.available(userID), nil
}

func (f *fakeStore) GetExpiringBetween(_ context.Context, userID string, from, to time.Time) (int64, *time.Time, error) {
	var sum int64
	var next *time.Time
	for _, g := range f.grants {
		if g.UserID != userID || g.Status != StatusActive || g.ExpiresAt.Before(from) || !g.ExpiresAt.Before(to) {
			continue
		}
		sum += g.Amount
		if next == nil || g.ExpiresAt.Before(*next) {
			at := g.ExpiresAt
			next = &at
		}
	}
	return sum, next, nil
}

func (f *fakeStore) GetNextExpiry(_ context.Context, userID string, now time.Time) (*time.Time, error) {
	var next *time.Time
	for _, g := range f.grants {
		if g.UserID == userID && g.Status == StatusActive && g.ExpiresAt.After(now) {
			if next == nil || g.ExpiresAt.Before(*next) {
				at := g.ExpiresAt
				next = &at
			}
		}
	}
	return next, nil
}

func (f *fakeStore) FindExpiringBalances(_ context.Context, from, to time.Time, minBalance int64) ([]ExpiringBalance, error) {
	byUser := make(map[string]*ExpiringBalance)
	var order []string
	for _, g := range f.grants {
		if g.Status != StatusActive || g.ExpiresAt.Before(from) || !g.ExpiresAt.Before(to) {
			continue
		}
		if f.available(g.UserID) < minBalance {
			continue
		}
		b, ok := byUser[g.UserID]
		if !ok {
			b = &ExpiringBalance{UserID: g.UserID, ExpiresAt: g.ExpiresAt}
			byUser[g.UserID] = b
			order = append(order, g.UserID)
		}
		b.Points += g.Amount
	}
	out := make([]ExpiringBalance, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out, nil
}

func warnKey(w ExpiryWarning, day time.Time) string {
	return fmt.Sprintf("%s|%s|%d", w.UserID, day.Format("2006-01-02"), w.DaysBefore)
}

func (f *fakeStore) ReserveWarning(_ context.Context, w ExpiryWarning, day time.Time) (bool, error) {
	k := warnKey(w, day)
	if f.warned[k] {
		return false, nil
	}
	f.warned[k] = true
	return true, nil
}

func (f *fakeStore) ReleaseWarning(_ context.Context, w ExpiryWarning, day time.Time) error {
	delete(f.warned, warnKey(w, day))
	return nil
}

// runBalance: баланс на начало запуска runAt (активные плюс сожжённые этим запуском).
func (f *fakeStore) runBalance(userID string, runAt time.Time) int64 {
	var sum int64
	for _, g := range f.grants {
		if g.UserID != userID {
			continue
		}
		if g.Status == StatusActive || (g.Status == StatusExpired && g.ExpiredAt != nil && g.ExpiredAt.Equal(runAt)) {
			sum += g.Amount
		}
	}
	return sum
}

func (f *fakeStore) ExpireBatch(_ context.Context, runAt time.Time, minBalance int64, limit int) (*BatchResult, error) {
	if f.expireErr != nil {
		return nil, f.expireErr
	}
	f.runAts = append(f.runAts, runAt)

	// Как и SQL: кто выше порога, решается один раз в начале батча
	eligible := make(map[string]bool)
	for _, g := range f.grants {
		if _, seen := eligible[g.UserID]; !seen {
			eligible[g.UserID] = f.runBalance(g.UserID, runAt) >= minBalance
		}
	}

	res := &BatchResult{}
	users := make(map[string]bool)
	for _, g := range f.grants {
		if res.Count == limit {
			break
		}
		if g.Status != StatusActive || g.ExpiresAt.After(runAt) || !eligible[g.UserID] {
			continue
		}
		at := runAt
		g.Status = StatusExpired
		g.ExpiredAt = &at
		res.Count++
		res.Points += g.Amount
		users[g.UserID] = true
	}
	res.Users = len(users)
	return res, nil
}

type fakeNotifier struct {
	sent    []ExpiryWarning
	failFor string
}

func (n *fakeNotifier) SendExpiryWarning(_ context.Context, w ExpiryWarning) error {
	if w.UserID == n.failFor {
		return errors.New("telegram down")
	}
	n.sent = append(n.sent, w)
	return nil
}

type fakeLevels map[string]members.TrustLevel

func (f fakeLevels) GetTrustLevel(_ context.Context, userID string) (members.TrustLevel, error) {
	level, ok := f[userID]
	if !ok {
		return "", common.ErrUserNotFound
	}
	return level, nil
}

var testNow = time.Date(2026, time.May, 10, 3, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, n *fakeNotifier, levels fakeLevels) *Service {
	s := NewService(store, DefaultExpiryPolicy(), n, levels, time.UTC)
	s.now = func() time.Time { return testNow }
	return s
}

func TestSendExpiryWarnings_TargetsDayAndSkipsExempt(t *testing.T) {
	store := newFakeStore()
	in7 := testNow.AddDate(0, 0, 7)
	store.add("alice", 150, in7)
	store.add("alice", 30, in7.Add(2*time.Hour))
	store.add("bob", 50, in7) // баланс 50: не сгорит, не предупреждаем
	store.add("carol", 200, testNow.AddDate(0, 0, 8))

	n := &fakeNotifier{}
	s := newTestService(store, n, nil)

	sent, err := s.SendExpiryWarnings(context.Background(), 7)
	if err != nil {
		t.Fatalf("SendExpiryWarnings error: %v", err)
	}
	if sent != 1 || len(n.sent) != 1 {
		t.Fatalf("sent=%d notifications=%v, want exactly alice", sent, n.sent)
	}
	if n.sent[0].UserID != "alice" || n.sent[0].Points != 180 || n.sent[0].DaysBefore != 7 {
		t.Fatalf("unexpected warning: %+v", n.sent[0])
	}
}

func TestSendExpiryWarnings_IdempotentWithinDay(t *testing.T) {
	store := newFakeStore()
	store.add("alice", 500, testNow.AddDate(0, 0, 30))
	n := &fakeNotifier{}
	s := newTestService(store, n, nil)

	first, _ := s.SendExpiryWarnings(context.Background(), 30)
	second, _ := s.SendExpiryWarnings(context.Background(), 30)
	if first != 1 || second != 0 {
		t.Fatalf("first=%d second=%d, want 1 and 0", first, second)
	}
}

func TestSendExpiryWarnings_FailedDeliveryIsRetried(t *testing.T) {
	store := newFakeStore()
	store.add("alice", 500, testNow.AddDate(0, 0, 1))
	store.add("bob", 500, testNow.AddDate(0, 0, 1))
	n := &fakeNotifier{failFor: "bob"}
	s := newTestService(store, n, nil)

	sent, err := s.SendExpiryWarnings(context.Background(), 1)
	if err != nil || sent != 1 {
		t.Fatalf("sent=%d err=%v, want 1 and nil", sent, err)
	}

	n.failFor = ""
	sent, _ = s.SendExpiryWarnings(context.Background(), 1)
	if sent != 1 || n.sent[len(n.sent)-1].UserID != "bob" {
		t.Fatalf("bob should be warned on retry, sent=%d", sent)
	}
}

func TestSendExpiryWarnings_RejectsNonPositiveOffset(t *testing.T) {
	s := newTestService(newFakeStore(), &fakeNotifier{}, nil)
	if _, err := s.SendExpiryWarnings(context.Background(), 0); err == nil {
		t.Fatal("expected error for daysBefore=0")
	}
}

func TestExpireBatch_SameOutcomeForAnyBatchSize(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 5000} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			store := newFakeStore()
			past := testNow.Add(-time.Hour)
			store.add("rich", 60, past)
			store.add("rich", 60, past)
			store.add("rich", 60, past)
			store.add("mid", 60, past)
			store.add("mid", 60, testNow.AddDate(0, 1, 0))
			store.add("poor", 90, past)

			s := newTestService(store, &fakeNotifier{}, nil)

			var expired int
			var burned int64
			for {
				res, err := s.ExpireBatch(context.Background(), testNow, limit)
				if err != nil {
					t.Fatalf("ExpireBatch error: %v", err)
				}
				if res.Count == 0 {
					break
				}
				if res.Count > limit {
					t.Fatalf("batch of %d exceeds limit", res.Count)
				}
				expired += res.Count
				burned += res.Points
			}

			// rich: 180 на старте, сгорает всё; mid: 120 на старте, сгорает просроченное
			if expired != 4 || burned != 240 {
				t.Fatalf("expired=%d points=%d, want 4 and 240", expired, burned)
			}
			if got := store.available("rich"); got != 0 {
				t.Fatalf("rich remaining=%d, want 0", got)
			}
			if got := store.available("mid"); got != 60 {
				t.Fatalf("mid remaining=%d, want 60", got)
			}
			if got := store.available("poor"); got != 90 {
				t.Fatalf("exempt user's points must not expire, remaining=%d", got)
			}
		})
	}
}

func TestExpireBatch_NextRunUsesNewBalance(t *testing.T) {
	store := newFakeStore()
	store.add("alice", 80, testNow.Add(-time.Hour))
	store.add("alice", 40, testNow.AddDate(0, 0, 2))

	s := newTestService(store, &fakeNotifier{}, nil)

	res, _ := s.ExpireBatch(context.Background(), testNow, 10)
	if res.Count != 1 || res.Points != 80 {
		t.Fatalf("first run = %+v", res)
	}

	// Через три дня у alice 40 < 100: следующий запуск её не трогает
	later := testNow.AddDate(0, 0, 3)
	res, _ = s.ExpireBatch(context.Background(), later, 10)
	if res.Count != 0 || store.available("alice") != 40 {
		t.Fatalf("second run = %+v, remaining %d", res, store.available("alice"))
	}
}

func TestExpireBatch_TruncatesRunAtToMicroseconds(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, &fakeNotifier{}, nil)

	runAt := time.Date(2026, time.May, 10, 3, 0, 0, 123456789, time.UTC)
	if _, err := s.ExpireBatch(context.Background(), runAt, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ExpireBatch(context.Background(), runAt, 0); err == nil {
		t.Fatal("expected error for limit=0")
	}
	want := time.Date(2026, time.May, 10, 3, 0, 0, 123456000, time.UTC)
	if len(store.runAts) != 1 || !store.runAts[0].Equal(want) {
		t.Fatalf("runAt passed to store = %v, want %v", store.runAts, want)
	}
}

func TestAwardPoints_UsesTrustLevelAtAwardTime(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, &fakeNotifier{}, fakeLevels{"lead": members.TrustLevelLeader})

	g, err := s.AwardPoints(context.Background(), "lead", 25, ActionBadgeEarned, "Badge earned: Explorer")
	if err != nil {
		t.Fatalf("AwardPoints error: %v", err)
	}
	if want := testNow.AddDate(0, 18, 0); !g.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at=%v, want %v", g.ExpiresAt, want)
	}
	if g.Status != StatusActive || g.ID == "" || len(store.created) != 1 {
		t.Fatalf("grant not stored correctly: %+v", g)
	}

	if _, err := s.AwardPoints(context.Background(), "lead", 0, "", ""); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero amount err=%v", err)
	}
	if _, err := s.AwardPoints(context.Background(), "ghost", 10, "", ""); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("unknown user err=%v", err)
	}
}

func TestGetSummary(t *testing.T) {
	store := newFakeStore()
	store.add("alice", 40, testNow.AddDate(0, 0, 10))
	store.add("alice", 40, testNow.AddDate(0, 2, 0))

	s := newTestService(store, &fakeNotifier{}, nil)
	sum, err := s.GetSummary(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetSummary error: %v", err)
	}
	if sum.Available != 80 || !sum.ExemptFromExpiry || sum.ExpiringSoon != 40 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.NextExpiryAt == nil || !sum.NextExpiryAt.Equal(testNow.AddDate(0, 0, 10)) {
		t.Fatalf("next expiry = %v", sum.NextExpiryAt)
	}
}
