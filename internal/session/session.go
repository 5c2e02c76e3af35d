// Package session composes one user's reading list with the services that act on it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/readinglist"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/share"
	"github.com/listenupapp/readlist/internal/store"
	"github.com/listenupapp/readlist/internal/transition"
)

// Deps are the shared collaborators every session is built from.
type Deps struct {
	Store       store.Store
	Recommend   *recommend.Service
	Share       *share.Service
	ListOptions readinglist.Options
	Logger      *slog.Logger
	// Events, when set, receives each session's list changes.
	Events EmitterSource
}

// EmitterSource hands out a list emitter per user.
type EmitterSource interface {
	EmitterFor(userID string) readinglist.Emitter
}

// Session is one authenticated user's working state.
type Session struct {
	UserID      string
	List        *readinglist.Store
	Transitions *transition.Engine

	share *share.Service
}

// New builds a session for userID and loads the reading list.
func New(ctx context.Context, userID string, deps Deps) (*Session, error) {
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	opts := deps.ListOptions
	if opts.Logger == nil {
		opts.Logger = deps.Logger
	}
	if deps.Events != nil {
		opts.Emitter = deps.Events.EmitterFor(userID)
	}
	list := readinglist.New(deps.Store, opts)
	if err := list.SetOwner(ctx, userID); err != nil {
		return nil, err
	}

	var recommender transition.Recommender
	if deps.Recommend != nil {
		recommender = deps.Recommend
	}

	return &Session{
		UserID:      userID,
		List:        list,
		Transitions: transition.NewEngine(list, deps.Store, deps.Store, recommender, deps.Logger),
		share:       deps.Share,
	}, nil
}

// Accept accepts a received recommendation onto this session's list.
func (s *Session) Accept(ctx context.Context, receivedID string) (*share.AcceptResult, error) {
	return s.share.Accept(ctx, s.UserID, receivedID, s.List.Add)
}

// AcceptFromLink receives and accepts a share link in one step.
func (s *Session) AcceptFromLink(ctx context.Context, token string) (*share.AcceptResult, error) {
	return s.share.AcceptFromLink(ctx, s.UserID, token, s.List.Add)
}

// DrainPending completes an acceptance parked before sign-in. It returns nil
// when nothing was parked under key.
func (s *Session) DrainPending(ctx context.Context, key string) (*share.AcceptResult, error) {
	return s.share.DrainPending(ctx, s.UserID, key, s.List.Add)
}

// Manager holds one session per user. Sessions are built outside the
// registry lock; concurrent first requests for one user share a single load.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
	loads    singleflight.Group
}

// created is a session plus whether its list was loaded by this lookup.
type created struct {
	session *Session
	fresh   bool
}

// NewManager creates an empty session registry.
func NewManager(deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns the user's session, creating and loading it on first use.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}

	c, err := m.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.session, nil
}

func (m *Manager) get(ctx context.Context, userID string) (created, error) {
	if s, ok := m.lookup(userID); ok {
		return created{session: s}, nil
	}

	v, err, _ := m.loads.Do(userID, func() (any, error) {
		if s, ok := m.lookup(userID); ok {
			return created{session: s}, nil
		}
		s, err := New(ctx, userID, m.deps)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[userID] = s
		m.mu.Unlock()
		m.deps.Logger.Debug("session created", "user_id", userID)
		return created{session: s, fresh: true}, nil
	})
	if err != nil {
		return created{}, err
	}
	return v.(created), nil
}

func (m *Manager) lookup(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// StartResult is what an authenticated session start produced.
type StartResult struct {
	Entries []*domain.Entry     `json:"entries"`
	Drained *share.AcceptResult `json:"drained,omitempty"`
}

// Start begins an authenticated session: the list is reloaded (unless the
// session was just created, which loads it) and any acceptance parked under
// pendingKey is drained. A failed drain is logged and returned; the session
// itself is still usable.
func (m *Manager) Start(ctx context.Context, userID, pendingKey string) (*Session, *StartResult, error) {
	if userID == "" {
		return nil, nil, domainerrors.ErrUnauthenticated
	}
	c, err := m.get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	s := c.session
	if !c.fresh {
		if err := s.List.Load(ctx); err != nil {
			return nil, nil, err
		}
	}

	result := &StartResult{}
	drained, err := s.DrainPending(ctx, pendingKey)
	if err != nil {
		m.deps.Logger.Warn("pending acceptance not completed", "user_id", userID, "error", err)
		result.Entries = s.List.List()
		return s, result, err
	}
	result.Drained = drained
	result.Entries = s.List.List()
	return s, result, nil
}

// End forgets the user's session.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
