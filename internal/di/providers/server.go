package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/hivereads/hive-server/internal/api"
	"github.com/hivereads/hive-server/internal/config"
	"github.com/hivereads/hive-server/internal/importer"
	"github.com/hivereads/hive-server/internal/logger"
	"github.com/hivereads/hive-server/internal/ratelimit"
	"github.com/hivereads/hive-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, started in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	importService := do.MustInvoke[*importer.Service](i)
	importLimiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger, api.UserID)

	apiServer := api.NewServer(
		storeHandle.Store,
		searchHandle.SearchIndex,
		importService,
		sseHandler,
		sseHandle.Manager,
		importLimiter,
		log.Logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // 0: import streams have no write deadline
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: server}, nil
}
