package badges

import (
	"context"
	"errors"
	"testing"
	"time"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/features/points"
)

type fakeBadgeStore struct {
	badges    []*Badge
	awards    map[string]bool // user|badge
	insertErr error
}

func newFakeBadgeStore() *fakeBadgeStore {
	st := &fakeBadgeStore{awards: make(map[string]bool)}
	for i, b := range Catalog() {
		b.ID = string(rune('a' + i))
		b.IsActive = true
		st.badges = append(st.badges, b)
	}
	return st
}

func (f *fakeBadgeStore) ListActiveBadges(context.Context) ([]*Badge, error) {
	return f.badges, nil
}

func (f *fakeBadgeStore) GetBadgeByType(_ context.Context, t BadgeType) (*Badge, error) {
	for _, b := range f.badges {
		if b.Type == t {
			return b, nil
		}
	}
	return nil, common.ErrBadgeNotFound
}

func (f *fakeBadgeStore) HasUserBadge(_ context.Context, userID, badgeID string) (bool, error) {
	return f.awards[userID+"|"+badgeID], nil
}

func (f *fakeBadgeStore) InsertUserBadge(_ context.Context, ub *UserBadge) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	k := ub.UserID + "|" + ub.BadgeID
	if f.awards[k] {
		return false, nil
	}
	f.awards[k] = true
	return true, nil
}

func (f *fakeBadgeStore) ListUserBadges(context.Context, string) ([]*UserBadge, error) {
	return nil, nil
}

func (f *fakeBadgeStore) UpsertBadge(_ context.Context, b *Badge) error {
	f.badges = append(f.badges, b)
	return nil
}

// fakeCriteria хранит агрегаты одного пользователя и считает обращения.
type fakeCriteria struct {
	countries     int
	connections   int
	hosted        HostedEventStats
	trustScore    float64
	communitySize int
	moderatorFrom *time.Time
	service       RatingStats
	rank          int64
	connCountries []string
	err           error

	calls int
}

func (f *fakeCriteria) CountVisitedCountries(context.Context, string) (int, error) {
	f.calls++
	return f.countries, f.err
}

func (f *fakeCriteria) CountAcceptedConnections(context.Context, string) (int, error) {
	f.calls++
	return f.connections, f.err
}

func (f *fakeCriteria) GetHostedEventStats(context.Context, string) (*HostedEventStats, error) {
	f.calls++
	s := f.hosted
	return &s, f.err
}

func (f *fakeCriteria) GetTrustScore(context.Context, string) (float64, error) {
	f.calls++
	return f.trustScore, f.err
}

func (f *fakeCriteria) MaxOwnedCommunitySize(context.Context, string) (int, error) {
	f.calls++
	return f.communitySize, f.err
}

func (f *fakeCriteria) HasModeratorRoleSince(_ context.Context, _ string, since time.Time) (bool, error) {
	f.calls++
	return f.moderatorFrom != nil && !f.moderatorFrom.After(since), f.err
}

func (f *fakeCriteria) GetServiceRatingStats(context.Context, string) (*RatingStats, error) {
	f.calls++
	s := f.service
	return &s, f.err
}

func (f *fakeCriteria) CountUsersCreatedBefore(context.Context, string) (int64, error) {
	f.calls++
	return f.rank, f.err
}

func (f *fakeCriteria) ListConnectionCountries(context.Context, string) ([]string, error) {
	f.calls++
	return f.connCountries, f.err
}

type fakeAwarder struct {
	calls []int64
	err   error
}

func (f *fakeAwarder) AwardPoints(_ context.Context, _ string, amount int64, _, _ string) (*points.PointGrant, error) {
	f.calls = append(f.calls, amount)
	return &points.PointGrant{Amount: amount}, f.err
}

type fakeNotifier struct{ sent []BadgeType }

func (f *fakeNotifier) SendBadgeEarned(_ context.Context, _ string, b *Badge) error {
	f.sent = append(f.sent, b.Type)
	return nil
}

var testNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeBadgeStore, crit *fakeCriteria) *Service {
	s := NewService(store, crit, nil)
	s.now = func() time.Time { return testNow }
	return s
}

// ordinary: пользователь, который не проходит ни одно условие.
func ordinary() *fakeCriteria {
	return &fakeCriteria{rank: 5000}
}

func TestCheckBadgeCriteria_AlreadyHeldShortCircuits(t *testing.T) {
	store := newFakeBadgeStore()
	crit := ordinary()
	crit.trustScore = 95
	s := newTestService(store, crit)

	badge, _ := store.GetBadgeByType(context.Background(), TypeTrustedMember)
	store.awards["u1|"+badge.ID] = true

	ok, err := s.CheckBadgeCriteria(context.Background(), "u1", TypeTrustedMember)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want false", ok, err)
	}
	if crit.calls != 0 {
		t.Fatalf("criteria queried %d times for a held badge", crit.calls)
	}
}

func TestHostMaster(t *testing.T) {
	cases := []struct {
		name  string
		stats HostedEventStats
		want  bool
	}{
		{"four events rated 4.8", HostedEventStats{CompletedEvents: 4, RatedMoments: 10, AverageRating: 4.8}, false},
		{"five events exactly 4.0", HostedEventStats{CompletedEvents: 5, RatedMoments: 12, AverageRating: 4.0}, true},
		{"five events 3.99", HostedEventStats{CompletedEvents: 5, RatedMoments: 12, AverageRating: 3.99}, false},
		{"five events no ratings", HostedEventStats{CompletedEvents: 5}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			crit := ordinary()
			crit.hosted = c.stats
			s := newTestService(newFakeBadgeStore(), crit)
			got, err := s.CheckBadgeCriteria(context.Background(), "u1", TypeHostMaster)
			if err != nil || got != c.want {
				t.Fatalf("got=%v err=%v, want %v", got, err, c.want)
			}
		})
	}
}

func TestGlobalCitizen_UnknownCountryIgnored(t *testing.T) {
	crit := ordinary()
	crit.connCountries = []string{"Malaysia", "FR", "Kenya", "Brazil", "Canada", "Atlantis"}
	s := newTestService(newFakeBadgeStore(), crit)

	ok, err := s.CheckBadgeCriteria(context.Background(), "u1", TypeGlobalCitizen)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v, want awarded", ok, err)
	}

	crit.connCountries = []string{"Malaysia", "Japan", "France", "Kenya", "Atlantis", "Narnia"}
	ok, _ = s.CheckBadgeCriteria(context.Background(), "u1", TypeGlobalCitizen)
	if ok {
		t.Fatal("four known continents must not be enough")
	}
}

func TestCommunityBuilder_EitherRoute(t *testing.T) {
	ctx := context.Background()

	owner := ordinary()
	owner.communitySize = 10
	if ok, _ := newTestService(newFakeBadgeStore(), owner).CheckBadgeCriteria(ctx, "u1", TypeCommunityBuilder); !ok {
		t.Fatal("owner of a 10-member community should qualify")
	}

	mod := ordinary()
	mod.communitySize = 3
	since := testNow.AddDate(0, 0, -30)
	mod.moderatorFrom = &since
	if ok, _ := newTestService(newFakeBadgeStore(), mod).CheckBadgeCriteria(ctx, "u1", TypeCommunityBuilder); !ok {
		t.Fatal("moderator for 30 days should qualify")
	}

	fresh := ordinary()
	recent := testNow.AddDate(0, 0, -29)
	fresh.moderatorFrom = &recent
	if ok, _ := newTestService(newFakeBadgeStore(), fresh).CheckBadgeCriteria(ctx, "u1", TypeCommunityBuilder); ok {
		t.Fatal("moderator for 29 days should not qualify")
	}
}

func TestSimpleThresholds(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		badge BadgeType
		set   func(*fakeCriteria)
		want  bool
	}{
		{"explorer 5", TypeExplorer, func(c *fakeCriteria) { c.countries = 5 }, true},
		{"explorer 4", TypeExplorer, func(c *fakeCriteria) { c.countries = 4 }, false},
		{"connector 10", TypeConnector, func(c *fakeCriteria) { c.connections = 10 }, true},
		{"connector 9", TypeConnector, func(c *fakeCriteria) { c.connections = 9 }, false},
		{"trusted 80", TypeTrustedMember, func(c *fakeCriteria) { c.trustScore = 80 }, true},
		{"trusted 79.9", TypeTrustedMember, func(c *fakeCriteria) { c.trustScore = 79.9 }, false},
		{"service star 20 at 4.5", TypeServiceStar, func(c *fakeCriteria) { c.service = RatingStats{Count: 20, AverageRating: 4.5} }, true},
		{"service star 19 at 5.0", TypeServiceStar, func(c *fakeCriteria) { c.service = RatingStats{Count: 19, AverageRating: 5} }, false},
		{"service star 40 at 4.49", TypeServiceStar, func(c *fakeCriteria) { c.service = RatingStats{Count: 40, AverageRating: 4.49} }, false},
		{"early adopter rank 999", TypeEarlyAdopter, func(c *fakeCriteria) { c.rank = 999 }, true},
		{"early adopter rank 1000", TypeEarlyAdopter, func(c *fakeCriteria) { c.rank = 1000 }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			crit := ordinary()
			c.set(crit)
			got, err := newTestService(newFakeBadgeStore(), crit).CheckBadgeCriteria(ctx, "u1", c.badge)
			if err != nil || got != c.want {
				t.Fatalf("got=%v err=%v, want %v", got, err, c.want)
			}
		})
	}
}

func TestCheckAndAwardBadges_OnlyOnce(t *testing.T) {
	store := newFakeBadgeStore()
	crit := ordinary()
	crit.connections = 12
	crit.rank = 10
	n := &fakeNotifier{}
	s := NewService(store, crit, n)
	s.now = func() time.Time { return testNow }

	first, err := s.CheckAndAwardBadges(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first call awarded %v, want Connector and Early Adopter", first)
	}

	second, err := s.CheckAndAwardBadges(context.Background(), "u1")
	if err != nil || len(second) != 0 {
		t.Fatalf("second call awarded %v err=%v, want nothing", second, err)
	}
	if len(n.sent) != 2 {
		t.Fatalf("notifications sent %v", n.sent)
	}
}

func TestCheckAndAwardBadges_InsertFailureDoesNotStopOthers(t *testing.T) {
	store := newFakeBadgeStore()
	store.insertErr = errors.New("connection reset")
	crit := ordinary()
	crit.connections = 12
	crit.trustScore = 90
	s := newTestService(store, crit)

	awarded, err := s.CheckAndAwardBadges(context.Background(), "u1")
	if err != nil {
		t.Fatalf("insert failures must not propagate: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("nothing should be awarded, got %v", awarded)
	}
	// Обе проверки всё равно были выполнены
	if crit.calls < len(store.badges) {
		t.Fatalf("only %d criteria evaluated", crit.calls)
	}
}

func TestCheckAndAwardBadges_CriteriaErrorSkipsBadge(t *testing.T) {
	crit := ordinary()
	crit.err = errors.New("timeout")
	s := newTestService(newFakeBadgeStore(), crit)

	awarded, err := s.CheckAndAwardBadges(context.Background(), "u1")
	if err != nil || len(awarded) != 0 {
		t.Fatalf("awarded=%v err=%v", awarded, err)
	}
}

func TestCheckSpecificBadge(t *testing.T) {
	store := newFakeBadgeStore()
	crit := ordinary()
	crit.countries = 7
	awarder := &fakeAwarder{}
	s := newTestService(store, crit).WithPointsAwarder(awarder)

	ok, err := s.CheckSpecificBadge(context.Background(), "u1", TypeExplorer)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if len(awarder.calls) != 1 || awarder.calls[0] != 50 {
		t.Fatalf("badge points not credited: %v", awarder.calls)
	}

	ok, _ = s.CheckSpecificBadge(context.Background(), "u1", TypeExplorer)
	if ok {
		t.Fatal("badge awarded twice")
	}

	if _, err := s.CheckSpecificBadge(context.Background(), "u1", BadgeType("NOPE")); !errors.Is(err, common.ErrBadgeNotFound) {
		t.Fatalf("unknown badge err=%v", err)
	}
}

func TestAwardPointsFailureStillAwardsBadge(t *testing.T) {
	crit := ordinary()
	crit.trustScore = 85
	awarder := &fakeAwarder{err: errors.New("ledger down")}
	s := newTestService(newFakeBadgeStore(), crit).WithPointsAwarder(awarder)

	ok, err := s.CheckSpecificBadge(context.Background(), "u1", TypeTrustedMember)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestUnknownBadgeTypeInCatalog(t *testing.T) {
	store := newFakeBadgeStore()
	store.badges = append(store.badges, &Badge{ID: "zz", Type: "MYSTERY", Name: "Mystery", IsActive: true})
	s := newTestService(store, ordinary())

	if _, err := s.CheckBadgeCriteria(context.Background(), "u1", "MYSTERY"); !errors.Is(err, common.ErrUnknownBadgeType) {
		t.Fatalf("err=%v, want ErrUnknownBadgeType", err)
	}
}
