package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readlist/internal/config"
	"github.com/listenupapp/readlist/internal/enrich"
	"github.com/listenupapp/readlist/internal/logger"
	"github.com/listenupapp/readlist/internal/readinglist"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/session"
	"github.com/listenupapp/readlist/internal/share"
	"github.com/listenupapp/readlist/internal/validation"
)

// ProvideEnricher provides the metadata enricher. No remote collaborators are
// configured, so missing fields stay empty.
func ProvideEnricher(i do.Injector) (*enrich.Enricher, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return enrich.New(enrich.Nop{}, enrich.Nop{}, log.Component("enrich")), nil
}

// ProvideRecommendService provides the recommendation service.
func ProvideRecommendService(i do.Injector) (*recommend.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enricher := do.MustInvoke[*enrich.Enricher](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := recommend.NewService(storeHandle.Store, storeHandle.Store, enricher, cfg.Server.PublicURL, log.Component("recommend"))
	return svc.WithReadPolicy(cfg.Store.ReadPolicy()), nil
}

// ProvideShareService provides the share link and inbox service.
func ProvideShareService(i do.Injector) (*share.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	deferredHandle := do.MustInvoke[*DeferredHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	st := storeHandle.Store
	svc := share.NewService(st, st, st, deferredHandle.BadgerStorage, log.Component("share"))
	return svc.WithReadPolicy(cfg.Store.ReadPolicy()), nil
}

// ProvideSessionManager provides the per-user session registry.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return session.NewManager(session.Deps{
		Store:     storeHandle.Store,
		Recommend: do.MustInvoke[*recommend.Service](i),
		Share:     do.MustInvoke[*share.Service](i),
		ListOptions: readinglist.Options{
			ReadAttempts: cfg.Store.ReadAttempts,
			BackoffStep:  cfg.Store.BackoffStep,
			Logger:       log.Component("readinglist"),
			Validator:    validation.New(),
		},
		Logger: log.Component("session"),
		Events: sseHandle.Manager,
	}), nil
}
