package share

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/deferred"
	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/readinglist"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/store/sqlite"
)

const (
	recommender = "user-ada"
	recipient   = "user-bob"
)

type shareEnv struct {
	svc     *Service
	store   *sqlite.Store
	intents *deferred.BadgerStorage
	token   string
}

func setupShareTest(t *testing.T) *shareEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	intents, err := deferred.Open(deferred.Options{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = intents.Close() })

	require.NoError(t, s.UpsertUser(ctx, &domain.User{Syncable: domain.Syncable{ID: recommender}, DisplayName: "Ada"}))

	recs := recommend.NewService(s, s, nil, "http://localhost:8080", logger)
	rec, err := recs.Create(ctx, recommender, recommend.CreateRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "9780441013593",
		Note:   "The spice must flow",
	})
	require.NoError(t, err)
	link, err := recs.GetOrCreateShareLink(ctx, recommender, rec.ID)
	require.NoError(t, err)

	return &shareEnv{
		svc:     NewService(s, s, s, intents, logger),
		store:   s,
		intents: intents,
		token:   link.Token,
	}
}

// readingList returns a loaded reading list for userID backed by the test store.
func (env *shareEnv) readingList(t *testing.T, userID string) *readinglist.Store {
	t.Helper()
	list := readinglist.New(env.store, readinglist.Options{})
	require.NoError(t, list.SetOwner(context.Background(), userID))
	return list
}

func TestResolve_CountsEveryView(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		view, err := env.svc.Resolve(ctx, env.token)
		require.NoError(t, err)
		assert.Equal(t, i, view.ViewCount)
		assert.NotNil(t, view.LastViewedAt)
		assert.Equal(t, "Ada", view.RecommenderName)
		assert.Equal(t, "Dune", view.Book.Title)
	}

	_, err := env.svc.Resolve(ctx, "no-such-token")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestResolve_ConcurrentViewsAllCount(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Resolve(ctx, env.token)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := env.store.GetShareView(ctx, env.token)
	require.NoError(t, err)
	assert.Equal(t, 10, view.ViewCount)
}

func TestReceive_Idempotent(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	first, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivedPending, first.Status)
	assert.Equal(t, "The spice must flow", first.Note)

	second, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	inbox, err := env.svc.ListInbox(ctx, recipient, "")
	require.NoError(t, err)
	assert.Len(t, inbox, 1)

	_, err = env.svc.Receive(ctx, "", env.token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	// Receiving doesn't count as a view.
	view, err := env.store.GetShareView(ctx, env.token)
	require.NoError(t, err)
	assert.Zero(t, view.ViewCount)
}

func TestAccept_AddsBeforeStatusFlip(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	r, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)

	addErr := errors.New("reading list unavailable")
	var statusDuringAdd domain.ReceivedStatus
	failing := func(ctx context.Context, _ domain.EntryInput) (*domain.Entry, error) {
		current, err := env.store.GetReceived(ctx, recipient, r.ID)
		require.NoError(t, err)
		statusDuringAdd = current.Status
		return nil, addErr
	}

	_, err = env.svc.Accept(ctx, recipient, r.ID, failing)
	assert.ErrorIs(t, err, addErr)
	assert.Equal(t, domain.ReceivedPending, statusDuringAdd)

	current, err := env.store.GetReceived(ctx, recipient, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivedPending, current.Status, "failed add leaves the item pending")

	list := env.readingList(t, recipient)
	res, err := env.svc.Accept(ctx, recipient, r.ID, list.Add)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivedAccepted, res.Received.Status)
	assert.Equal(t, domain.StatusWantToRead, res.Entry.Status)
	assert.Equal(t, "Dune", res.Entry.Title)
	assert.Equal(t, "9780441013593", res.Entry.ISBN)
	require.Len(t, list.List(), 1)

	rec, err := env.store.ListRecommendations(ctx, recommender)
	require.NoError(t, err)
	require.NotNil(t, rec[0].ShareLink)
	assert.Equal(t, recipient, rec[0].ShareLink.AcceptedBy)
	assert.NotNil(t, rec[0].ShareLink.AcceptedAt)
}

func TestDeclineThenAccept_OneEntry(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()
	list := env.readingList(t, recipient)

	r, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)

	declined, err := env.svc.Decline(ctx, recipient, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivedDeclined, declined.Status)

	signals, err := env.store.ListRejections(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.RejectionDeclined, signals[0].Reason)
	assert.Equal(t, "Dune", signals[0].Title)

	_, err = env.svc.Accept(ctx, recipient, r.ID, list.Add)
	require.NoError(t, err)

	_, err = env.svc.Accept(ctx, recipient, r.ID, list.Add)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)

	assert.Len(t, list.List(), 1)
}

func TestArchive_IsTerminal(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()
	list := env.readingList(t, recipient)

	r, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)

	archived, err := env.svc.Archive(ctx, recipient, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReceivedArchived, archived.Status)

	_, err = env.svc.Accept(ctx, recipient, r.ID, list.Add)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	_, err = env.svc.Decline(ctx, recipient, r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Empty(t, list.List())
}

func TestAccept_OtherRecipientNotFound(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	r, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)

	_, err = env.svc.Decline(ctx, "user-eve", r.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAcceptFromLink_Authenticated(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()
	list := env.readingList(t, recipient)

	res, err := env.svc.AcceptFromLink(ctx, recipient, env.token, list.Add)
	require.NoError(t, err)
	assert.Nil(t, res.Deferred)
	require.NotNil(t, res.Entry)
	assert.Equal(t, domain.ReceivedAccepted, res.Received.Status)
	assert.Len(t, list.List(), 1)
}

func TestAcceptFromLink_DeferredUntilSignIn(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	notCalled := func(context.Context, domain.EntryInput) (*domain.Entry, error) {
		t.Fatal("add must not run for anonymous visitors")
		return nil, nil
	}
	res, err := env.svc.AcceptFromLink(ctx, "", env.token, notCalled)
	require.NoError(t, err)
	require.NotNil(t, res.Deferred)
	assert.NotEmpty(t, res.Deferred.Key)

	intent, err := env.intents.Get(ctx, res.Deferred.Key)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentAcceptRecommendation, intent.Type)
	assert.Equal(t, env.token, intent.Token)

	list := env.readingList(t, recipient)
	drained, err := env.svc.DrainPending(ctx, recipient, res.Deferred.Key, list.Add)
	require.NoError(t, err)
	require.NotNil(t, drained)
	assert.Equal(t, "Dune", drained.Entry.Title)
	assert.Equal(t, domain.ReceivedAccepted, drained.Received.Status)
	assert.Len(t, list.List(), 1)

	again, err := env.svc.DrainPending(ctx, recipient, res.Deferred.Key, list.Add)
	require.NoError(t, err)
	assert.Nil(t, again, "an intent drains once")
	assert.Len(t, list.List(), 1)
}

func TestDrainPending_FailureDropsIntent(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	res, err := env.svc.AcceptFromLink(ctx, "", env.token, nil)
	require.NoError(t, err)

	addErr := errors.New("boom")
	failing := func(context.Context, domain.EntryInput) (*domain.Entry, error) { return nil, addErr }

	_, err = env.svc.DrainPending(ctx, recipient, res.Deferred.Key, failing)
	assert.ErrorIs(t, err, addErr)

	_, err = env.intents.Get(ctx, res.Deferred.Key)
	assert.Error(t, err, "no retry queue: the intent is gone after one attempt")
}

func TestDrainPending_ConcurrentStartsAddOnce(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	res, err := env.svc.AcceptFromLink(ctx, "", env.token, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	adds := 0
	add := func(_ context.Context, in domain.EntryInput) (*domain.Entry, error) {
		mu.Lock()
		defer mu.Unlock()
		adds++
		return &domain.Entry{Title: in.Title}, nil
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 4 {
		wg.Go(func() {
			<-start
			_, _ = env.svc.DrainPending(ctx, recipient, res.Deferred.Key, add)
		})
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, adds, "a parked acceptance drains exactly once")
}

func TestDrainPending_Unauthenticated(t *testing.T) {
	env := setupShareTest(t)

	_, err := env.svc.DrainPending(context.Background(), "", "visit-abc", nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestListInbox_Filter(t *testing.T) {
	env := setupShareTest(t)
	ctx := context.Background()

	r, err := env.svc.Receive(ctx, recipient, env.token)
	require.NoError(t, err)
	_, err = env.svc.Archive(ctx, recipient, r.ID)
	require.NoError(t, err)

	pending, err := env.svc.ListInbox(ctx, recipient, domain.ReceivedPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	archived, err := env.svc.ListInbox(ctx, recipient, domain.ReceivedArchived)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	_, err = env.svc.ListInbox(ctx, recipient, domain.ReceivedStatus("spam"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
