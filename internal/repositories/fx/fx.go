package fx

import (
	"github.com/orgball2608/snappy-sync/internal/repositories/mediaasset"
	"go.uber.org/fx"
)

var Module = fx.Options(
	mediaasset.Module,
)
