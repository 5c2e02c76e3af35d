package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readlist/internal/api"
	"github.com/listenupapp/readlist/internal/auth"
	"github.com/listenupapp/readlist/internal/config"
	"github.com/listenupapp/readlist/internal/logger"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/session"
	"github.com/listenupapp/readlist/internal/share"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Sessions:  do.MustInvoke[*session.Manager](i),
		Recommend: do.MustInvoke[*recommend.Service](i),
		Share:     do.MustInvoke[*share.Service](i),
		Tokens:    do.MustInvoke[*auth.TokenService](i),
		Events:    sseHandle.Manager,
		Deferred:  do.MustInvoke[*DeferredHandle](i).BadgerStorage,
	}

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ShareRPS:       cfg.RateLimit.ShareRPS,
		ShareBurst:     cfg.RateLimit.ShareBurst,
		Reads:          cfg.Store.ReadPolicy(),
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
