package recommend

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/enrich"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/store"
	"github.com/listenupapp/readlist/internal/store/sqlite"
)

func setupRecommendTest(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.DiscardHandler)
	describer := enrich.DescriberFunc(func(_ context.Context, title, _ string) (string, error) {
		if title == "Dune" {
			return "<p>Spice <b>must</b> flow.</p>", nil
		}
		return "", errors.New("catalogue offline")
	})

	svc := NewService(s, s, enrich.New(describer, nil, logger), "https://readlist.example/", logger)
	return svc, s
}

func TestCreate_RequiresNote(t *testing.T) {
	svc, s := setupRecommendTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-ada", CreateRequest{Title: "Dune", Note: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	recs, err := s.ListRecommendations(ctx, "user-ada")
	require.NoError(t, err)
	assert.Empty(t, recs, "validation must not reach the store")
}

func TestCreateFromCollection_AllowsEmptyNote(t *testing.T) {
	svc, _ := setupRecommendTest(t)

	rec, err := svc.CreateFromCollection(context.Background(), "user-ada", CreateRequest{Title: "Hyperion", Author: "Dan Simmons"})
	require.NoError(t, err)
	assert.Empty(t, rec.Note)
	// Enrichment failure is not fatal.
	assert.Empty(t, rec.Book.Description)
}

func TestCreate_FillsDescription(t *testing.T) {
	svc, _ := setupRecommendTest(t)

	rec, err := svc.Create(context.Background(), "user-ada", CreateRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "0-441-01359-7",
		Note:   "Read the first one at least",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "0441013597", rec.Book.ISBN)
	assert.Contains(t, rec.Book.Description, "**must**")
	assert.NotContains(t, rec.Book.Description, "<p>")
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc, _ := setupRecommendTest(t)

	_, err := svc.Create(context.Background(), "", CreateRequest{Title: "Dune", Note: "yes"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestGetOrCreateShareLink_Idempotent(t *testing.T) {
	svc, s := setupRecommendTest(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &domain.User{Syncable: domain.Syncable{ID: "user-ada"}, DisplayName: "Ada"}))
	rec, err := svc.Create(ctx, "user-ada", CreateRequest{Title: "Dune", Note: "Classic"})
	require.NoError(t, err)

	first, err := svc.GetOrCreateShareLink(ctx, "user-ada", rec.ID)
	require.NoError(t, err)
	assert.Len(t, first.Token, 32)
	assert.Equal(t, "https://readlist.example/r/"+first.Token, first.URL)
	assert.Equal(t, "Ada", first.RecommenderName)

	// A view between calls must survive the second call.
	_, err = s.ResolveShareLink(ctx, first.Token, time.Now())
	require.NoError(t, err)

	// Renaming after issue does not change the snapshot.
	require.NoError(t, s.UpsertUser(ctx, &domain.User{Syncable: domain.Syncable{ID: "user-ada"}, DisplayName: "Ada L."}))

	second, err := svc.GetOrCreateShareLink(ctx, "user-ada", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.ViewCount)
	assert.Equal(t, "Ada", second.RecommenderName)
}

func TestGetOrCreateShareLink_DefaultName(t *testing.T) {
	svc, _ := setupRecommendTest(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "user-anon", CreateRequest{Title: "Dune", Note: "Classic"})
	require.NoError(t, err)

	link, err := svc.GetOrCreateShareLink(ctx, "user-anon", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRecommenderName, link.RecommenderName)
}

func TestGetOrCreateShareLink_OtherOwner(t *testing.T) {
	svc, _ := setupRecommendTest(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "user-ada", CreateRequest{Title: "Dune", Note: "Classic"})
	require.NoError(t, err)

	_, err = svc.GetOrCreateShareLink(ctx, "user-bob", rec.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

// racingRecommendations issues a competing link just before the service's insert.
type racingRecommendations struct {
	store.Recommendations
	winner *domain.ShareLink
}

func (r *racingRecommendations) CreateShareLink(ctx context.Context, link *domain.ShareLink) error {
	if r.winner == nil {
		r.winner = &domain.ShareLink{
			RecommendationID: link.RecommendationID,
			Token:            "winner-token-aaaaaaaaaaaaaaaaaaa",
			RecommenderName:  "Ada",
		}
		if err := r.Recommendations.CreateShareLink(ctx, r.winner); err != nil {
			return err
		}
	}
	return r.Recommendations.CreateShareLink(ctx, link)
}

func TestGetOrCreateShareLink_ConcurrentIssueReturnsExisting(t *testing.T) {
	_, s := setupRecommendTest(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	racing := &racingRecommendations{Recommendations: s}
	svc := NewService(racing, s, nil, "https://readlist.example", logger)

	rec, err := svc.Create(ctx, "user-ada", CreateRequest{Title: "Dune", Note: "Classic"})
	require.NoError(t, err)

	link, err := svc.GetOrCreateShareLink(ctx, "user-ada", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, racing.winner.Token, link.Token)
	assert.Equal(t, racing.winner.ID, link.ID)
}

func TestList(t *testing.T) {
	svc, _ := setupRecommendTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-ada", CreateRequest{Title: "Dune", Note: "Classic"})
	require.NoError(t, err)
	_, err = svc.CreateFromCollection(ctx, "user-ada", CreateRequest{Title: "Hyperion"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-bob", CreateRequest{Title: "Foundation", Note: "Psychohistory"})
	require.NoError(t, err)

	recs, err := svc.List(ctx, "user-ada")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = svc.List(ctx, "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}
