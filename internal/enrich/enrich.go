// Package enrich defines the description and ISBN collaborators.
// Implementations live outside this module; failures never block the caller.
package enrich

import (
	"context"
	"log/slog"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/normalize"
)

// Describer produces a description for a book. An empty result means "nothing found".
type Describer interface {
	Describe(ctx context.Context, title, author string) (string, error)
}

// ISBNLookup resolves an ISBN to catalogue metadata. A nil result means "nothing found".
type ISBNLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*Metadata, error)
}

// Metadata is what an ISBN lookup returns.
type Metadata struct {
	Title       string
	Author      string
	Description string
}

// DescriberFunc adapts a function to Describer.
type DescriberFunc func(ctx context.Context, title, author string) (string, error)

// Describe calls f.
func (f DescriberFunc) Describe(ctx context.Context, title, author string) (string, error) {
	return f(ctx, title, author)
}

// ISBNLookupFunc adapts a function to ISBNLookup.
type ISBNLookupFunc func(ctx context.Context, isbn string) (*Metadata, error)

// LookupISBN calls f.
func (f ISBNLookupFunc) LookupISBN(ctx context.Context, isbn string) (*Metadata, error) {
	return f(ctx, isbn)
}

// Nop finds nothing.
type Nop struct{}

// Describe returns an empty description.
func (Nop) Describe(context.Context, string, string) (string, error) { return "", nil }

// LookupISBN returns no metadata.
func (Nop) LookupISBN(context.Context, string) (*Metadata, error) { return nil, nil }

// Enricher fills empty optional book fields from the collaborators.
type Enricher struct {
	describer Describer
	lookup    ISBNLookup
	logger    *slog.Logger
}

// New creates an Enricher. Nil collaborators are replaced with Nop.
func New(describer Describer, lookup ISBNLookup, logger *slog.Logger) *Enricher {
	if describer == nil {
		describer = Nop{}
	}
	if lookup == nil {
		lookup = Nop{}
	}
	return &Enricher{describer: describer, lookup: lookup, logger: logger}
}

// Fill completes book in place. Only empty fields are written; errors are logged and swallowed.
func (e *Enricher) Fill(ctx context.Context, book *domain.Book) {
	if book.ISBN != "" && (book.Description == "" || book.Author == "") {
		meta, err := e.lookup.LookupISBN(ctx, book.ISBN)
		switch {
		case err != nil:
			e.logger.Warn("isbn lookup failed", "isbn", book.ISBN, "error", err)
		case meta != nil:
			if book.Author == "" {
				book.Author = meta.Author
			}
			if book.Description == "" {
				book.Description = normalize.Description(meta.Description)
			}
		}
	}

	if book.Description != "" {
		book.Description = normalize.Description(book.Description)
		return
	}

	desc, err := e.describer.Describe(ctx, book.Title, book.Author)
	if err != nil {
		e.logger.Warn("description lookup failed", "title", book.Title, "error", err)
		return
	}
	book.Description = normalize.Description(desc)
}
