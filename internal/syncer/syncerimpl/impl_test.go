package syncerimpl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway/gatewayfake"
	mock_media "github.com/orgball2608/snappy-sync/internal/media/mocks"
	"github.com/orgball2608/snappy-sync/internal/ratelimit"
	mock_mediaasset "github.com/orgball2608/snappy-sync/internal/repositories/mediaasset/mocks"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"github.com/orgball2608/snappy-sync/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeSession struct {
	mu   sync.Mutex
	sess domain.Session
	ok   bool
}

func (f *fakeSession) Session() (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess, f.ok
}

func (f *fakeSession) signIn(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = domain.Session{Username: username, Email: username + "@example.com", EmailVerified: true}
	f.ok = true
}

func (f *fakeSession) signOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = domain.Session{}
	f.ok = false
}

type fixture struct {
	gw      *gatewayfake.Fake
	media   *mock_media.MockStore
	ledger  *mock_mediaasset.MockRepository
	store   *store.Store
	session *fakeSession
	clock   *clockwork.FakeClock
	svc     *Impl
}

var fastRetry = retry.Config{
	MaxRetries:      10,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	Multiplier:      1.5,
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.PostsTTL = 5 * time.Minute
	cfg.Cache.StoriesTTL = 5 * time.Minute
	cfg.Confirm.MaxRetries = 10
	cfg.Confirm.InitialInterval = time.Millisecond
	cfg.Confirm.MaxInterval = 2 * time.Millisecond
	cfg.Scheduler.Timezone = "UTC"
	cfg.Scheduler.NotificationPoll = 10 * time.Second
	cfg.Scheduler.MediaSweep = 15 * time.Minute
	cfg.Workers.PoolSize = 2
	return cfg
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	f := &fixture{
		gw:      gatewayfake.New(),
		media:   mock_media.NewMockStore(ctrl),
		ledger:  mock_mediaasset.NewMockRepository(ctrl),
		session: &fakeSession{},
		clock:   clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	cfg := testConfig()
	f.store = store.New(store.Opts{Gateway: f.gw, Config: cfg, Logger: logger.NewNop(), Clock: f.clock})

	svc, err := New(Opts{
		Gateway: f.gw,
		Media:   f.media,
		Store:   f.store,
		Auth:    f.session,
		Limiter: limiter,
		Ledger:  f.ledger,
		Config:  cfg,
		Logger:  logger.NewNop(),
		Clock:   f.clock,
	})
	require.NoError(t, err)
	svc.sweep = fastRetry
	f.svc = svc

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return f
}

// seedFeed gives bob and alice a profile, an avatar and one post each, and
// loads the posts list into the cache.
func (f *fixture) seedFeed(t *testing.T) {
	t.Helper()
	f.gw.SeedUser(domain.UserProfile{Username: "bob", Name: "Bob", Email: "bob@example.com", AvatarURL: "https://cdn/bob-v1.jpg"})
	f.gw.SeedUser(domain.UserProfile{Username: "alice", Name: "Alice", Email: "alice@example.com", AvatarURL: "https://cdn/alice-v1.jpg"})
	f.gw.SeedPosts(
		domain.Post{ID: "p1", AuthorUsername: "bob", ImageURL: "https://cdn/p1.jpg", Caption: "sunset"},
		domain.Post{ID: "p2", AuthorUsername: "alice", ImageURL: "https://cdn/p2.jpg", Caption: "coffee"},
	)

	posts, err := f.svc.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Eventually(t, func() bool {
		_, bob := f.store.Avatars.Peek("bob")
		_, alice := f.store.Avatars.Peek("alice")
		return bob && alice
	}, 2*time.Second, 5*time.Millisecond, "avatar warm-up did not finish")
}

func (f *fixture) cachedPost(t *testing.T, id string) domain.Post {
	t.Helper()
	p, ok := f.store.FindPost(id)
	require.True(t, ok, "post %s not cached", id)
	return p
}

func (f *fixture) allowLedger() {
	f.ledger.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.ledger.EXPECT().MarkStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func TestAvatarWarmUpPrefetchesAuthors(t *testing.T) {
	f := newFixture(t, nil)
	f.seedFeed(t)

	bob, _ := f.store.Avatars.Peek("bob")
	assert.Equal(t, "https://cdn/bob-v1.jpg", bob)
	assert.Equal(t, 2, f.gw.Calls("FetchAvatar"))

	_, err := f.store.Posts.Refresh(context.Background(), store.ListKey)
	require.NoError(t, err)
	assert.Never(t, func() bool { return f.gw.Calls("FetchAvatar") > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestShutdownDrainsAndRejectsNewWork(t *testing.T) {
	f := newFixture(t, nil)

	ran := make(chan struct{})
	f.svc.submit("test", func(ctx context.Context) { close(ran) })
	<-ran

	require.NoError(t, f.svc.Shutdown(context.Background()))

	called := false
	f.svc.submit("late", func(ctx context.Context) { called = true })
	assert.False(t, called)
}

func TestScheduleOnlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.svc.Schedule(ctx))
	assert.Error(t, f.svc.Schedule(ctx))
	require.NoError(t, f.svc.Shutdown(context.Background()))
}
