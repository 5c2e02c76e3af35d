package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readlist/internal/config"
	"github.com/listenupapp/readlist/internal/deferred"
	"github.com/listenupapp/readlist/internal/logger"
	"github.com/listenupapp/readlist/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath())

	return &StoreHandle{Store: db}, nil
}

// DeferredHandle wraps the pending-intent storage with shutdown capability.
type DeferredHandle struct {
	*deferred.BadgerStorage
}

// Shutdown implements do.Shutdownable.
func (h *DeferredHandle) Shutdown() error {
	return h.Close()
}

// ProvideDeferred provides Badger-backed storage for acceptances parked before sign-in.
func ProvideDeferred(i do.Injector) (*DeferredHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}

	intents, err := deferred.Open(deferred.Options{Path: cfg.Data.DeferredPath()}, log.Component("deferred"))
	if err != nil {
		return nil, err
	}

	log.Info("Deferred storage initialized", "path", cfg.Data.DeferredPath())

	return &DeferredHandle{BadgerStorage: intents}, nil
}
