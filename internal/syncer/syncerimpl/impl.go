package syncerimpl

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/snappy-sync/internal/auth"
	"github.com/orgball2608/snappy-sync/internal/cache"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/ratelimit"
	"github.com/orgball2608/snappy-sync/internal/repositories/mediaasset"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	"github.com/orgball2608/snappy-sync/pkg/config"
	apperrors "github.com/orgball2608/snappy-sync/pkg/errors"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"github.com/orgball2608/snappy-sync/pkg/retry"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Gateway gateway.Client
	Media   media.Store
	Store   *store.Store
	Auth    auth.SessionProvider
	Limiter ratelimit.Limiter
	Ledger  mediaasset.Repository
	Config  *config.Config
	Logger  logger.Logger
	Clock   clockwork.Clock `optional:"true"`
}

type Impl struct {
	gateway gateway.Client
	media   media.Store
	store   *store.Store
	auth    auth.SessionProvider
	limiter ratelimit.Limiter
	ledger  mediaasset.Repository
	config  *config.Config
	logger  logger.Logger
	clock   clockwork.Clock

	confirm retry.Config
	sweep   retry.Config

	// bg outlives request contexts and is cancelled by Shutdown.
	bg       context.Context
	cancelBg context.CancelFunc
	pool     *ants.Pool
	wg       sync.WaitGroup

	schedMu   sync.Mutex
	scheduler gocron.Scheduler

	listenersMu sync.Mutex
	listeners   map[int]syncer.NotificationListener
	nextID      int

	unwatch func()
}

var _ syncer.Client = (*Impl)(nil)

func New(opts Opts) (*Impl, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	size := opts.Config.Workers.PoolSize
	if size <= 0 {
		size = 5
	}
	// Submit never blocks; a full pool drops the task.
	pool, err := ants.NewPool(size, ants.WithPreAlloc(true), ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	bg, cancel := context.WithCancel(context.Background())
	s := &Impl{
		gateway: opts.Gateway,
		media:   opts.Media,
		store:   opts.Store,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		ledger:  opts.Ledger,
		config:  opts.Config,
		logger:  opts.Logger.WithComponent("Syncer"),
		clock:   opts.Clock,
		confirm: retry.Config{
			MaxRetries:      opts.Config.Confirm.MaxRetries,
			InitialInterval: opts.Config.Confirm.InitialInterval,
			MaxInterval:     opts.Config.Confirm.MaxInterval,
			Multiplier:      2,
		},
		sweep:     retry.DefaultConfig(),
		bg:        bg,
		cancelBg:  cancel,
		pool:      pool,
		listeners: make(map[int]syncer.NotificationListener),
	}
	s.unwatch = s.store.Posts.Subscribe(s.warmAvatars)

	return s, nil
}

// actor returns the signed-in session every mutation acts as.
func (s *Impl) actor() (domain.Session, error) {
	sess, ok := s.auth.Session()
	if !ok {
		return domain.Session{}, apperrors.Unauthenticated("Please sign in to continue.")
	}
	return sess, nil
}

func (s *Impl) throttle(username string) error {
	if !s.limiter.Allow(username) {
		return apperrors.RateLimited(username)
	}
	return nil
}

// submit runs task on the worker pool and tracks it for Shutdown.
func (s *Impl) submit(name string, task func(ctx context.Context)) {
	if s.bg.Err() != nil {
		s.logger.Warn("Shutting down, dropping background task", "task", name)
		return
	}

	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		select {
		case <-s.bg.Done():
			s.logger.Info("Skipping background task due to shutdown", "task", name)
		default:
			task(s.bg)
		}
	})
	if err != nil {
		s.wg.Done()
		s.logger.Error("Failed to submit task to ants pool", "task", name, "error", err)
	}
}

func (s *Impl) SubscribePosts(l cache.Listener[[]domain.Post]) func() {
	return s.store.Posts.Subscribe(l)
}

func (s *Impl) SubscribeStories(l cache.Listener[[]domain.StoryGroup]) func() {
	return s.store.Stories.Subscribe(l)
}

func (s *Impl) SubscribeProfiles(l cache.Listener[domain.UserProfile]) func() {
	return s.store.Profiles.Subscribe(l)
}

func (s *Impl) SubscribeNotifications(l syncer.NotificationListener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Impl) publish(ev syncer.NewNotifications) {
	s.listenersMu.Lock()
	ls := make([]syncer.NotificationListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}

func (s *Impl) Shutdown(ctx context.Context) error {
	s.cancelBg()
	if s.unwatch != nil {
		s.unwatch()
	}

	s.schedMu.Lock()
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Error("Failed to shut down scheduler", "error", err)
		}
		s.scheduler = nil
	}
	s.schedMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	defer s.pool.Release()
	select {
	case <-done:
		s.logger.Info("Background work drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background work: %w", ctx.Err())
	}
}
