// Package transition maps user gestures onto reading-list status changes and
// their side effects on the collection, the rejection log and recommendations.
package transition

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/readinglist"
	"github.com/listenupapp/readlist/internal/recommend"
	"github.com/listenupapp/readlist/internal/store"
	"github.com/listenupapp/readlist/internal/validation"
)

// Recommender authors the optional recommendation when a book is finished and kept.
type Recommender interface {
	CreateFromCollection(ctx context.Context, ownerID string, req recommend.CreateRequest) (*domain.Recommendation, error)
}

// FinishOptions are the choices made on the finish dialog.
type FinishOptions struct {
	Rating    *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Review    string `json:"review,omitempty" validate:"max=5000"`
	Recommend bool   `json:"recommend,omitempty"`
	Note      string `json:"note,omitempty" validate:"max=2000"`
}

// FinishResult is what FinishKeep produced.
type FinishResult struct {
	Entry          *domain.Entry          `json:"entry"`
	Book           *domain.UserBook       `json:"book"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
}

// Engine applies gestures to one session's reading list.
type Engine struct {
	list        *readinglist.Store
	collection  store.Collection
	rejections  store.Rejections
	recommender Recommender
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewEngine creates an engine. recommender may be nil, in which case finishing
// with Recommend set fails validation.
func NewEngine(list *readinglist.Store, collection store.Collection, rejections store.Rejections, recommender Recommender, logger *slog.Logger) *Engine {
	return &Engine{
		list:        list,
		collection:  collection,
		rejections:  rejections,
		recommender: recommender,
		validator:   validation.New(),
		logger:      logger,
	}
}

// StartReading moves a queued entry to reading and marks the read active.
func (e *Engine) StartReading(ctx context.Context, entryID string) (*domain.Entry, error) {
	if _, err := e.entry(entryID, domain.StatusWantToRead); err != nil {
		return nil, err
	}
	return e.list.SetStatus(ctx, entryID, domain.StatusReading)
}

// PauseReading puts a book on hold without leaving reading.
func (e *Engine) PauseReading(ctx context.Context, entryID string) (*domain.Entry, error) {
	return e.setActive(ctx, entryID, false)
}

// ResumeReading picks a book back up.
func (e *Engine) ResumeReading(ctx context.Context, entryID string) (*domain.Entry, error) {
	return e.setActive(ctx, entryID, true)
}

func (e *Engine) setActive(ctx context.Context, entryID string, active bool) (*domain.Entry, error) {
	return e.list.Update(ctx, entryID, domain.EntryPatch{ActiveRead: &active})
}

// ReturnToQueue moves a book being read back to the queue.
func (e *Engine) ReturnToQueue(ctx context.Context, entryID string) (*domain.Entry, error) {
	if _, err := e.entry(entryID, domain.StatusReading); err != nil {
		return nil, err
	}
	return e.list.SetStatus(ctx, entryID, domain.StatusWantToRead)
}

// FinishKeep finishes a book and keeps it in the collection. The collection
// item is written first and deduplicated by (title, author), so retrying after
// a failed status change is safe. No rejection is recorded.
func (e *Engine) FinishKeep(ctx context.Context, entryID string, opts FinishOptions) (*FinishResult, error) {
	if err := e.validator.Validate(opts); err != nil {
		return nil, err
	}
	if opts.Recommend && e.recommender == nil {
		return nil, domainerrors.Validation("recommendations are not available")
	}
	current, err := e.entry(entryID, domain.StatusWantToRead, domain.StatusReading)
	if err != nil {
		return nil, err
	}

	book, err := e.keep(ctx, current, domain.SourceFinished, opts.Rating, opts.Review)
	if err != nil {
		return nil, err
	}

	finished, err := e.list.SetStatus(ctx, entryID, domain.StatusFinished)
	if err != nil {
		return nil, err
	}
	result := &FinishResult{Entry: finished, Book: book}

	if opts.Recommend {
		b := finished.Book()
		rec, err := e.recommender.CreateFromCollection(ctx, finished.OwnerID, recommend.CreateRequest{
			Title:       b.Title,
			Author:      b.Author,
			ISBN:        b.ISBN,
			Description: b.Description,
			Note:        opts.Note,
		})
		if err != nil {
			return result, err
		}
		result.Recommendation = rec
	}

	e.logger.Info("book finished and kept",
		"entry_id", entryID,
		"owner_id", finished.OwnerID,
		"user_book_id", book.ID,
		"recommended", result.Recommendation != nil,
	)
	return result, nil
}

// FinishDiscard finishes a book without keeping it and records a
// finished_not_kept rejection.
func (e *Engine) FinishDiscard(ctx context.Context, entryID string) (*domain.Entry, error) {
	if _, err := e.entry(entryID, domain.StatusWantToRead, domain.StatusReading); err != nil {
		return nil, err
	}

	finished, err := e.list.SetStatus(ctx, entryID, domain.StatusFinished)
	if err != nil {
		return nil, err
	}
	if err := e.reject(ctx, finished, domain.RejectionFinishedNotKept); err != nil {
		return finished, err
	}

	e.logger.Info("book finished and discarded", "entry_id", entryID, "owner_id", finished.OwnerID)
	return finished, nil
}

// NotForMe abandons a book from any status: the entry is removed and a
// not_for_me rejection is recorded.
func (e *Engine) NotForMe(ctx context.Context, entryID string) error {
	return e.removeWithReason(ctx, entryID, domain.RejectionNotForMe)
}

// Delete removes an entry by hand and records a removed rejection.
func (e *Engine) Delete(ctx context.Context, entryID string) error {
	return e.removeWithReason(ctx, entryID, domain.RejectionRemoved)
}

func (e *Engine) removeWithReason(ctx context.Context, entryID string, reason domain.RejectionReason) error {
	current, err := e.entry(entryID)
	if err != nil {
		return err
	}
	if err := e.list.Remove(ctx, entryID); err != nil {
		return err
	}
	if err := e.reject(ctx, current, reason); err != nil {
		return err
	}

	e.logger.Info("entry removed", "entry_id", entryID, "owner_id", current.OwnerID, "reason", reason)
	return nil
}

// ImportAlreadyRead records a book read before the user joined. The entry is
// terminal and the book lands in the collection as an import.
func (e *Engine) ImportAlreadyRead(ctx context.Context, in domain.EntryInput) (*domain.Entry, error) {
	in.Status = domain.StatusAlreadyRead
	added, err := e.list.Add(ctx, in)
	if err != nil {
		return nil, err
	}
	if _, err := e.keep(ctx, added, domain.SourceImport, added.Rating, ""); err != nil {
		return added, err
	}
	return added, nil
}

// keep adds the entry's book to the owner's collection, or updates the
// existing item with the same (title, author). A concurrent insert of the
// same key is treated as an existing item.
func (e *Engine) keep(ctx context.Context, entry *domain.Entry, source domain.BookSource, rating *int, review string) (*domain.UserBook, error) {
	existing, err := e.collection.GetUserBookByKey(ctx, entry.OwnerID, entry.Title, entry.Author)
	switch {
	case err == nil:
		return e.updateKept(ctx, existing, entry, rating, review)
	case !errors.Is(err, store.ErrNotFound):
		return nil, domainerrors.RemoteFailure("get collection item", err)
	}

	book := &domain.UserBook{
		OwnerID: entry.OwnerID,
		Title:   entry.Title,
		Author:  entry.Author,
		ISBN:    entry.ISBN,
		Rating:  rating,
		Review:  strings.TrimSpace(review),
		Source:  source,
	}
	err = e.collection.CreateUserBook(ctx, book)
	if errors.Is(err, store.ErrAlreadyExists) {
		existing, getErr := e.collection.GetUserBookByKey(ctx, entry.OwnerID, entry.Title, entry.Author)
		if getErr != nil {
			return nil, domainerrors.RemoteFailure("get collection item", getErr)
		}
		return e.updateKept(ctx, existing, entry, rating, review)
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("add to collection", err)
	}
	return book, nil
}

func (e *Engine) updateKept(ctx context.Context, book *domain.UserBook, entry *domain.Entry, rating *int, review string) (*domain.UserBook, error) {
	changed := false
	if rating != nil {
		book.Rating = rating
		changed = true
	}
	if review = strings.TrimSpace(review); review != "" {
		book.Review = review
		changed = true
	}
	if book.ISBN == "" && entry.ISBN != "" {
		book.ISBN = entry.ISBN
		changed = true
	}
	if !changed {
		return book, nil
	}
	if err := e.collection.UpdateUserBook(ctx, book); err != nil {
		return nil, domainerrors.RemoteFailure("update collection item", err)
	}
	return book, nil
}

func (e *Engine) reject(ctx context.Context, entry *domain.Entry, reason domain.RejectionReason) error {
	signal := &domain.RejectionSignal{
		UserID:    entry.OwnerID,
		Title:     entry.Title,
		Author:    entry.Author,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if err := e.rejections.AppendRejection(ctx, signal); err != nil {
		e.logger.Warn("rejection not recorded", "entry_id", entry.ID, "reason", reason, "error", err)
		return domainerrors.RemoteFailure("record rejection", err)
	}
	return nil
}

// entry returns the current entry, checking its status against allowed when given.
func (e *Engine) entry(entryID string, allowed ...domain.Status) (*domain.Entry, error) {
	if e.list.OwnerID() == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	current, ok := e.list.Get(entryID)
	if !ok {
		return nil, domainerrors.NotFoundf("entry %s not found", entryID)
	}
	if len(allowed) == 0 {
		return current, nil
	}
	for _, st := range allowed {
		if current.Status == st {
			return current, nil
		}
	}
	return nil, domainerrors.InvalidTransitionf("entry is %s", current.Status)
}
