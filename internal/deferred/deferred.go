// Package deferred keeps pending intents across the sign-up redirect.
//
// A visitor who accepts a shared recommendation before signing in gets a
// visitor key; the intent is stored under that key and drained once the
// visitor starts an authenticated session.
package deferred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

// DefaultTTL bounds how long an abandoned sign-up keeps its intent.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "intent:"

// takeAttempts bounds retries of a Take that lost a write conflict.
const takeAttempts = 3

// Storage is a flat key/value store for pending intents.
type Storage interface {
	Put(ctx context.Context, key string, intent *domain.PendingIntent) error
	// Get returns store.ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (*domain.PendingIntent, error)
	// Take reads and deletes the intent atomically. Of several concurrent
	// callers exactly one gets it; the rest get store.ErrNotFound.
	Take(ctx context.Context, key string) (*domain.PendingIntent, error)
	Clear(ctx context.Context, key string) error
}

// Options configures BadgerStorage.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	TTL      time.Duration
}

// BadgerStorage stores intents in Badger with a TTL per entry.
type BadgerStorage struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

var _ Storage = (*BadgerStorage)(nil)

// Open opens (or creates) the Badger database.
func Open(opts Options, logger *slog.Logger) (*BadgerStorage, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(&badgerLogger{logger: logger})
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(&badgerLogger{logger: logger})
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStorage{db: db, ttl: opts.TTL, logger: logger}, nil
}

// Close closes the database.
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is open and readable.
func (s *BadgerStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Put stores intent under key, replacing anything already there.
func (s *BadgerStorage) Put(ctx context.Context, key string, intent *domain.PendingIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(keyPrefix+key), data).WithTTL(s.ttl))
	})
}

// Get reads the intent stored under key.
func (s *BadgerStorage) Get(ctx context.Context, key string) (*domain.PendingIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var intent domain.PendingIntent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &intent)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}
	return &intent, nil
}

// Take reads the intent under key and deletes it in the same transaction.
// A transaction that loses a conflict is retried and then sees the key gone.
func (s *BadgerStorage) Take(ctx context.Context, key string) (*domain.PendingIntent, error) {
	k := []byte(keyPrefix + key)

	var err error
	for range takeAttempts {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		var intent domain.PendingIntent
		err = s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(k)
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &intent)
			}); err != nil {
				return err
			}
			return txn.Delete(k)
		})
		switch {
		case err == nil:
			return &intent, nil
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil, store.ErrNotFound
		case errors.Is(err, badger.ErrConflict):
			s.logger.Debug("intent take conflicted, retrying", "key", key)
			continue
		}
		return nil, fmt.Errorf("take intent: %w", err)
	}
	return nil, fmt.Errorf("take intent: %w", err)
}

// Clear deletes the intent under key. Clearing a missing key is not an error.
func (s *BadgerStorage) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// badgerLogger routes Badger's internal logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
