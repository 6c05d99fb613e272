package providers

import (
	"github.com/samber/do/v2"

	"github.com/hivereads/hive-server/internal/config"
	"github.com/hivereads/hive-server/internal/importer"
	"github.com/hivereads/hive-server/internal/logger"
	"github.com/hivereads/hive-server/internal/ratelimit"
)

// ProvideImportLimiter provides the per-user import rate limiter.
func ProvideImportLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.PerMinute(cfg.Import.RatePerMinute, cfg.Import.RateBurst), nil
}

// ProvideImportService provides the library import pipeline.
func ProvideImportService(i do.Injector) (*importer.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := importer.NewService(
		storeHandle.Store,
		searchHandle.SearchIndex,
		sseHandle.Manager,
		cfg.Import.BatchSize,
		log.Logger,
	)

	log.Info("Import service initialized", "batch_size", cfg.Import.BatchSize)

	return svc, nil
}
