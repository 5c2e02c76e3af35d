package enrich

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/readlist/internal/domain"
)

func TestFill_UsesDescriberWhenEmpty(t *testing.T) {
	calls := 0
	e := New(DescriberFunc(func(_ context.Context, title, _ string) (string, error) {
		calls++
		return "<p>" + title + " is great</p>", nil
	}), nil, slog.New(slog.DiscardHandler))

	book := domain.Book{Title: "Dune"}
	e.Fill(context.Background(), &book)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Dune is great", book.Description)
}

func TestFill_KeepsExistingDescription(t *testing.T) {
	e := New(DescriberFunc(func(context.Context, string, string) (string, error) {
		t.Fatal("describer must not be called")
		return "", nil
	}), nil, slog.New(slog.DiscardHandler))

	book := domain.Book{Title: "Dune", Description: "Already here"}
	e.Fill(context.Background(), &book)

	assert.Equal(t, "Already here", book.Description)
}

func TestFill_FailuresAreNonFatal(t *testing.T) {
	e := New(
		DescriberFunc(func(context.Context, string, string) (string, error) { return "", errors.New("ai down") }),
		ISBNLookupFunc(func(context.Context, string) (*Metadata, error) { return nil, errors.New("timeout") }),
		slog.New(slog.DiscardHandler),
	)

	book := domain.Book{Title: "Dune", ISBN: "9780441013593"}
	e.Fill(context.Background(), &book)

	assert.Empty(t, book.Description)
	assert.Empty(t, book.Author)
}

func TestFill_ISBNLookupFillsAuthor(t *testing.T) {
	e := New(nil, ISBNLookupFunc(func(_ context.Context, isbn string) (*Metadata, error) {
		return &Metadata{Author: "Frank Herbert", Description: "Spice."}, nil
	}), slog.New(slog.DiscardHandler))

	book := domain.Book{Title: "Dune", ISBN: "9780441013593"}
	e.Fill(context.Background(), &book)

	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, "Spice.", book.Description)
}
