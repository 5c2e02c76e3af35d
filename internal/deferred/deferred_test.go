package deferred

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/store"
)

func newTestStorage(t *testing.T) *BadgerStorage {
	t.Helper()
	s, err := Open(Options{InMemory: true}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetClear(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	intent := &domain.PendingIntent{
		Type:            domain.IntentAcceptRecommendation,
		Token:           "tok",
		Book:            domain.Book{Title: "Dune", Author: "Frank Herbert"},
		RecommenderName: "Ada",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Put(ctx, "visit-1", intent))

	got, err := s.Get(ctx, "visit-1")
	require.NoError(t, err)
	assert.Equal(t, intent.Token, got.Token)
	assert.Equal(t, intent.Book, got.Book)
	assert.Equal(t, intent.Type, got.Type)
	assert.True(t, intent.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, s.Clear(ctx, "visit-1"))

	_, err = s.Get(ctx, "visit-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, s.Clear(ctx, "visit-1"), "clearing twice is fine")
}

func TestTake(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "visit-1", &domain.PendingIntent{Token: "tok"}))

	got, err := s.Take(ctx, "visit-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	_, err = s.Take(ctx, "visit-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "visit-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTake_ConcurrentCallersGetItOnce(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for round := range 20 {
		require.NoError(t, s.Put(ctx, "visit", &domain.PendingIntent{Token: "tok"}))

		var taken atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 8 {
			wg.Go(func() {
				<-start
				if _, err := s.Take(ctx, "visit"); err == nil {
					taken.Add(1)
				}
			})
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), taken.Load(), "round %d", round)
	}
}

func TestPut_Replaces(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", &domain.PendingIntent{Token: "first"}))
	require.NoError(t, s.Put(ctx, "k", &domain.PendingIntent{Token: "second"}))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Token)
}

func TestCanceledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "k", &domain.PendingIntent{}), context.Canceled)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	s, err := Open(Options{InMemory: true}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
