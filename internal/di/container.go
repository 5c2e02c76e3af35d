// Package di provides dependency injection configuration for the readlist server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readlist/internal/auth"
	"github.com/listenupapp/readlist/internal/config"
	"github.com/listenupapp/readlist/internal/di/providers"
	"github.com/listenupapp/readlist/internal/enrich"
	"github.com/listenupapp/readlist/internal/logger"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/session"
	"github.com/listenupapp/readlist/internal/share"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideDeferred)
	do.Provide(injector, providers.ProvideSSEManager)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideEnricher)
	do.Provide(injector, providers.ProvideRecommendService)
	do.Provide(injector, providers.ProvideShareService)
	do.Provide(injector, providers.ProvideSessionManager)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Providers are lazy, so this is what
// opens the stores and starts the HTTP listener.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.DeferredHandle](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*enrich.Enricher](injector)
	_ = do.MustInvoke[*recommend.Service](injector)
	_ = do.MustInvoke[*share.Service](injector)
	_ = do.MustInvoke[*session.Manager](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
