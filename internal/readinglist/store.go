// Package readinglist holds one user's reading list in memory and mirrors
// every change to the backing store optimistically.
//
// Each mutation is applied locally first, so List observes it while the
// remote call is in flight. If the remote call fails only the touched entry
// is reverted, so concurrent requests sharing the store keep their committed
// changes, and the error is returned wrapped as REMOTE_FAILURE. Loads are
// retried; writes are attempted once. No lock is held across remote calls.
package readinglist

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/normalize"
	"github.com/listenupapp/readlist/internal/retry"
	"github.com/listenupapp/readlist/internal/store"
	"github.com/listenupapp/readlist/internal/validation"
)

// Defaults for Options.
const (
	DefaultReadAttempts = retry.DefaultAttempts
	DefaultBackoffStep  = retry.DefaultStep
)

// Options configures a Store.
type Options struct {
	ReadAttempts int
	BackoffStep  time.Duration
	Emitter      Emitter
	Logger       *slog.Logger
	Validator    *validation.Validator
}

// Store is one session's reading list.
type Store struct {
	remote    store.Entries
	emitter   Emitter
	logger    *slog.Logger
	validator *validation.Validator

	reads retry.Policy

	mu      sync.RWMutex
	ownerID string
	state   snapshot
}

// New creates an empty store. Call SetOwner to bind it to a user.
func New(remote store.Entries, opts Options) *Store {
	if opts.ReadAttempts < 1 {
		opts.ReadAttempts = DefaultReadAttempts
	}
	if opts.BackoffStep <= 0 {
		opts.BackoffStep = DefaultBackoffStep
	}
	if opts.Emitter == nil {
		opts.Emitter = nopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Validator == nil {
		opts.Validator = validation.New()
	}

	return &Store{
		remote:    remote,
		emitter:   opts.Emitter,
		logger:    opts.Logger,
		validator: opts.Validator,
		reads:     retry.Policy{Attempts: opts.ReadAttempts, Step: opts.BackoffStep},
	}
}

// OwnerID returns the current owner, or "" when unauthenticated.
func (s *Store) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// SetOwner switches the list to ownerID and reloads it. An empty ownerID
// signs out and clears the list. Setting the current owner again is a no-op.
func (s *Store) SetOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	if s.ownerID == ownerID {
		s.mu.Unlock()
		return nil
	}
	s.ownerID = ownerID
	s.state = snapshot{}
	s.mu.Unlock()

	if ownerID == "" {
		s.emitter.Emit(Event{Type: EventLoaded, Op: "set_owner"})
		return nil
	}
	return s.Load(ctx)
}

// Load replaces the in-memory list with the backing store's copy.
// The read is retried with linear backoff.
func (s *Store) Load(ctx context.Context) error {
	ownerID, err := s.requireOwner()
	if err != nil {
		return err
	}

	entries, err := retry.Read(ctx, s.reads, s.logger, "load reading list", func() ([]*domain.Entry, error) {
		return s.remote.ListEntries(ctx, ownerID)
	})
	if err != nil {
		return domainerrors.RemoteFailure("load reading list", err)
	}

	s.mu.Lock()
	// The owner may have changed while the read was in flight.
	if s.ownerID != ownerID {
		s.mu.Unlock()
		return nil
	}
	s.state = snapshot{entries: entries}
	s.mu.Unlock()

	s.emitter.Emit(Event{Type: EventLoaded, Op: "load"})
	s.logger.Debug("reading list loaded", "owner_id", ownerID, "count", len(entries))
	return nil
}

// List returns copies of all entries.
func (s *Store) List() []*domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone().entries
}

// Get returns a copy of one entry.
func (s *Store) Get(entryID string) (*domain.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.state.entries, entryID); i >= 0 {
		return s.state.entries[i].Clone(), true
	}
	return nil, false
}

// Add creates an entry. A synthetic tmp- entry is visible until the backing
// store answers, then it is replaced by the stored entry.
func (s *Store) Add(ctx context.Context, in domain.EntryInput) (*domain.Entry, error) {
	ownerID, err := s.requireOwner()
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = domain.StatusWantToRead
	}
	now := time.Now()
	pending := &domain.Entry{
		Syncable:    domain.Syncable{ID: id.Temp(), CreatedAt: now, UpdatedAt: now},
		OwnerID:     ownerID,
		Title:       in.Title,
		Author:      in.Author,
		ISBN:        normalize.ISBN(in.ISBN),
		Status:      in.Status,
		AddedAt:     now,
		Rating:      in.Rating,
		Description: normalize.Description(in.Description),
		Reputation:  in.Reputation,
		Owned:       in.Owned,
		ActiveRead:  in.Status == domain.StatusReading,
	}

	m := s.newMutation("add", pending.ID, func(st *snapshot) error {
		st.entries = append(st.entries, pending.Clone())
		return nil
	})

	stored := pending.Clone()
	stored.ID = ""
	err = s.commit(ctx, m, pending, func(ctx context.Context) error {
		return s.remote.CreateEntry(ctx, stored)
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if i := indexOf(s.state.entries, pending.ID); i >= 0 {
		s.state.entries[i] = stored.Clone()
	}
	if i := slices.Index(s.state.queueOrder, pending.ID); i >= 0 {
		s.state.queueOrder[i] = stored.ID
	}
	s.mu.Unlock()

	return stored.Clone(), nil
}

// Remove deletes an entry.
func (s *Store) Remove(ctx context.Context, entryID string) error {
	ownerID, err := s.requireOwner()
	if err != nil {
		return err
	}
	current, err := s.lookup(entryID)
	if err != nil {
		return err
	}

	m := s.newMutation("remove", entryID, func(st *snapshot) error {
		i := indexOf(st.entries, entryID)
		if i < 0 {
			return domainerrors.NotFoundf("entry %s not found", entryID)
		}
		st.entries = slices.Delete(st.entries, i, i+1)
		st.queueOrder = slices.DeleteFunc(st.queueOrder, func(qid string) bool { return qid == entryID })
		return nil
	})

	return s.commit(ctx, m, current, func(ctx context.Context) error {
		return s.remote.DeleteEntry(ctx, ownerID, entryID)
	})
}

// SetStatus moves an entry along the reading lifecycle. Entering reading
// marks the read active; leaving it clears the flag. Setting the current
// status again returns the entry without a remote call.
func (s *Store) SetStatus(ctx context.Context, entryID string, status domain.Status) (*domain.Entry, error) {
	if _, err := s.requireOwner(); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseStatus(string(status)); !ok {
		return nil, domainerrors.Validationf("unknown status %q", status)
	}
	current, err := s.lookup(entryID)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, domainerrors.InvalidTransitionf("cannot move entry from %s to %s", current.Status, status)
	}

	next := current.Clone()
	next.Status = status
	next.ActiveRead = status == domain.StatusReading
	return s.replace(ctx, "set_status", next)
}

// Update applies a scalar patch (rating, ownership, text fields, active-read).
// It never changes status and has no side effects.
func (s *Store) Update(ctx context.Context, entryID string, patch domain.EntryPatch) (*domain.Entry, error) {
	if _, err := s.requireOwner(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	current, err := s.lookup(entryID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	if patch.ActiveRead != nil && current.Status != domain.StatusReading {
		return nil, domainerrors.InvalidTransitionf("active-read only applies to entries being read, entry is %s", current.Status)
	}

	next := current.Clone()
	patch.ApplyTo(next)
	if patch.ISBN != nil {
		next.ISBN = normalize.ISBN(next.ISBN)
	}
	if patch.Description != nil {
		next.Description = normalize.Description(next.Description)
	}
	return s.replace(ctx, "update", next)
}

// replace swaps an existing entry for next, optimistically.
func (s *Store) replace(ctx context.Context, op string, next *domain.Entry) (*domain.Entry, error) {
	m := s.newMutation(op, next.ID, func(st *snapshot) error {
		i := indexOf(st.entries, next.ID)
		if i < 0 {
			return domainerrors.NotFoundf("entry %s not found", next.ID)
		}
		st.entries[i] = next.Clone()
		return nil
	})

	stored := next.Clone()
	err := s.commit(ctx, m, next, func(ctx context.Context) error {
		return s.remote.UpdateEntry(ctx, stored)
	})
	if err != nil {
		return nil, err
	}

	// Pick up server-side timestamps.
	s.mu.Lock()
	if i := indexOf(s.state.entries, stored.ID); i >= 0 {
		s.state.entries[i] = stored.Clone()
	}
	s.mu.Unlock()
	return stored.Clone(), nil
}

// commit applies m, runs the remote call once, and rolls back on failure.
func (s *Store) commit(ctx context.Context, m *Mutation, entry *domain.Entry, remote func(context.Context) error) error {
	if err := m.Apply(); err != nil {
		return err
	}
	s.emitter.Emit(Event{Type: EventApplied, Op: m.Op, Entry: entry.Clone()})

	if err := remote(ctx); err != nil {
		m.Rollback()
		s.emitter.Emit(Event{Type: EventRolledBack, Op: m.Op, Entry: entry.Clone(), Err: err})
		s.logger.Warn("reading list change rolled back", "op", m.Op, "entry_id", entry.ID, "error", err)

		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("entry %s not found", entry.ID).WithCause(err)
		}
		return domainerrors.RemoteFailure(m.Op, err)
	}

	s.emitter.Emit(Event{Type: EventCommitted, Op: m.Op, Entry: entry.Clone()})
	return nil
}

func (s *Store) requireOwner() (string, error) {
	ownerID := s.OwnerID()
	if ownerID == "" {
		return "", domainerrors.ErrUnauthenticated
	}
	return ownerID, nil
}

// lookup returns a copy of a persisted entry. Entries still carrying a
// synthetic id are rejected because the backing store doesn't know them yet.
func (s *Store) lookup(entryID string) (*domain.Entry, error) {
	if id.IsTemp(entryID) {
		return nil, domainerrors.Conflict("entry is still being saved")
	}
	e, ok := s.Get(entryID)
	if !ok {
		return nil, domainerrors.NotFoundf("entry %s not found", entryID)
	}
	return e, nil
}

func indexOf(entries []*domain.Entry, entryID string) int {
	return slices.IndexFunc(entries, func(e *domain.Entry) bool { return e.ID == entryID })
}
