package ratelimit

import (
	"github.com/orgball2608/snappy-sync/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("ratelimit",
	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config) *InMemoryLimiter {
				return NewInMemoryLimiter(cfg.Mutations.Requests, cfg.Mutations.Per, cfg.Mutations.Burst)
			},
			fx.As(new(Limiter)),
		),
	),
)
