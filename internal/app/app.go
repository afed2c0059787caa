package app

import (
	"context"

	"github.com/orgball2608/snappy-sync/internal/api"
	"github.com/orgball2608/snappy-sync/internal/auth"
	"github.com/orgball2608/snappy-sync/internal/auth/authimpl"
	"github.com/orgball2608/snappy-sync/internal/db"
	"github.com/orgball2608/snappy-sync/internal/gateway"
	"github.com/orgball2608/snappy-sync/internal/gateway/gatewayimpl"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/media/mediaimpl"
	"github.com/orgball2608/snappy-sync/internal/pgx"
	"github.com/orgball2608/snappy-sync/internal/ratelimit"
	repositories "github.com/orgball2608/snappy-sync/internal/repositories/fx"
	"github.com/orgball2608/snappy-sync/internal/store"
	"github.com/orgball2608/snappy-sync/internal/syncer"
	"github.com/orgball2608/snappy-sync/internal/syncer/syncerimpl"
	"github.com/orgball2608/snappy-sync/pkg/config"
	"github.com/orgball2608/snappy-sync/pkg/httpclient"
	"github.com/orgball2608/snappy-sync/pkg/httpserver"
	"github.com/orgball2608/snappy-sync/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		httpclient.FromConfig,
		pgx.New,
	),
	fx.Provide(
		fx.Annotate(
			gatewayimpl.New,
			fx.As(new(gateway.Client)),
		), fx.Annotate(
			mediaimpl.New,
			fx.As(new(media.Store)),
		),
		store.New,
		fx.Annotate(
			authimpl.New,
			fx.As(new(auth.Client)),
		),
		func(c auth.Client) auth.SessionProvider { return c },
		fx.Annotate(
			syncerimpl.New,
			fx.As(new(syncer.Client)),
		),
		api.New,
	),
	ratelimit.Module,
	repositories.Module,
	fx.Invoke(
		func(c *config.Config) error {
			return c.ValidateBackend()
		}),
	fx.Invoke(
		func(lc fx.Lifecycle, c *config.Config, log logger.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return db.Migrate(ctx, c, log)
				},
			})
		}),
	fx.Invoke(
		func(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, h *api.Handler) {
			httpserver.Register(lc, log, cfg.App.Port, h.Routes())
		}),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, authClient auth.Client, syncClient syncer.Client) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if cfg.Account.Email != "" {
				sess, err := authClient.SignIn(ctx, cfg.Account.Email, cfg.Account.Password)
				if err != nil {
					log.Error("Sign in error", "email", cfg.Account.Email, "error", err)
				} else {
					log.Info("Signed in", "username", sess.Username)
				}
			} else {
				log.Warn("No account configured, mutations and notifications are disabled")
			}

			if err := syncClient.Schedule(ctx); err != nil {
				log.Error("Schedule error", "error", err)
				return err
			}
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if _, ok := authClient.Session(); ok {
				if err := authClient.SignOut(stopCtx); err != nil {
					log.Warn("Sign out error", "error", err)
				}
			}
			return syncClient.Shutdown(stopCtx)
		},
	})
}
