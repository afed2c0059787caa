package mediaasset

import (
	"go.uber.org/fx"
)

var Module = fx.Module("media_asset_repository",
	fx.Provide(
		fx.Annotate(
			NewPgx,
			fx.As(new(Repository)),
		),
	),
)
