// Package exclusion computes the set of books a user should never be recommended.
package exclusion

import (
	"context"
	"log/slog"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/normalize"
	"github.com/listenupapp/readlist/internal/retry"
	"github.com/listenupapp/readlist/internal/store"
)

// Set holds case-folded titles and bare ISBNs.
type Set struct {
	Titles map[string]struct{}
	ISBNs  map[string]struct{}
}

func newSet() *Set {
	return &Set{Titles: make(map[string]struct{}), ISBNs: make(map[string]struct{})}
}

func (s *Set) addTitle(title string) {
	if key := normalize.TitleKey(title); key != "" {
		s.Titles[key] = struct{}{}
	}
}

func (s *Set) addISBN(isbn string) {
	if n := normalize.ISBN(isbn); n != "" {
		s.ISBNs[n] = struct{}{}
	}
}

// Excludes reports whether a candidate matches by title or ISBN.
// Matching is exact after case folding; there is no fuzzy matching.
func (s *Set) Excludes(title, isbn string) bool {
	if _, ok := s.Titles[normalize.TitleKey(title)]; ok {
		return true
	}
	if n := normalize.ISBN(isbn); n != "" {
		if _, ok := s.ISBNs[n]; ok {
			return true
		}
	}
	return false
}

// Filter returns the candidates that are not excluded, in order.
func (s *Set) Filter(candidates []domain.Book) []domain.Book {
	out := make([]domain.Book, 0, len(candidates))
	for _, b := range candidates {
		if !s.Excludes(b.Title, b.ISBN) {
			out = append(out, b)
		}
	}
	return out
}

// Options configures a Resolver.
type Options struct {
	// IncludeCollection adds collection titles and ISBNs to the set.
	IncludeCollection bool

	// Reads bounds each source read. Zero means retry.Default.
	Reads retry.Policy
}

// Resolver reads the sources of the exclusion set. It never writes and
// caches nothing; every Compute reads the current state.
type Resolver struct {
	entries    store.Entries
	rejections store.Rejections
	collection store.Collection
	opts       Options
	logger     *slog.Logger
}

// NewResolver creates a resolver. collection is only read when opts.IncludeCollection is set.
func NewResolver(entries store.Entries, rejections store.Rejections, collection store.Collection, opts Options, logger *slog.Logger) *Resolver {
	return &Resolver{
		entries:    entries,
		rejections: rejections,
		collection: collection,
		opts:       opts,
		logger:     logger,
	}
}

// Compute returns the union of reading-list titles, reading-list ISBNs and
// rejected titles for userID.
func (r *Resolver) Compute(ctx context.Context, userID string) (*Set, error) {
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}

	entries, err := retry.Read(ctx, r.opts.Reads, r.logger, "list reading list", func() ([]*domain.Entry, error) {
		return r.entries.ListEntries(ctx, userID)
	})
	if err != nil {
		return nil, domainerrors.RemoteFailure("list reading list", err)
	}
	signals, err := retry.Read(ctx, r.opts.Reads, r.logger, "list rejections", func() ([]*domain.RejectionSignal, error) {
		return r.rejections.ListRejections(ctx, userID)
	})
	if err != nil {
		return nil, domainerrors.RemoteFailure("list rejections", err)
	}

	set := newSet()
	for _, e := range entries {
		set.addTitle(e.Title)
		set.addISBN(e.ISBN)
	}
	for _, sig := range signals {
		set.addTitle(sig.Title)
	}

	if r.opts.IncludeCollection && r.collection != nil {
		books, err := retry.Read(ctx, r.opts.Reads, r.logger, "list collection", func() ([]*domain.UserBook, error) {
			return r.collection.ListUserBooks(ctx, userID)
		})
		if err != nil {
			return nil, domainerrors.RemoteFailure("list collection", err)
		}
		for _, b := range books {
			set.addTitle(b.Title)
			set.addISBN(b.ISBN)
		}
	}

	r.logger.Debug("exclusion set computed",
		"user_id", userID,
		"titles", len(set.Titles),
		"isbns", len(set.ISBNs),
	)
	return set, nil
}
