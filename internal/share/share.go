// Package share resolves share links and runs the recipient-side acceptance workflow.
package share

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/listenupapp/readlist/internal/deferred"
	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/retry"
	"github.com/listenupapp/readlist/internal/store"
)

// AddFunc adds a book to the accepting user's reading list.
// Sessions pass their readinglist.Store.Add.
type AddFunc func(ctx context.Context, in domain.EntryInput) (*domain.Entry, error)

// Deferred tells an unauthenticated visitor where their acceptance was parked.
// The key must be presented again on the first authenticated session start.
type Deferred struct {
	Key string `json:"key"`
}

// AcceptResult is the outcome of an acceptance. Exactly one of Entry or Deferred is set.
type AcceptResult struct {
	Received *domain.ReceivedRecommendation `json:"received,omitempty"`
	Entry    *domain.Entry                  `json:"entry,omitempty"`
	Deferred *Deferred                      `json:"deferred,omitempty"`
}

// Service resolves tokens and manages received recommendations.
type Service struct {
	recs       store.Recommendations
	received   store.Received
	rejections store.Rejections
	intents    deferred.Storage
	reads      retry.Policy
	logger     *slog.Logger
}

// NewService creates a share service.
func NewService(recs store.Recommendations, received store.Received, rejections store.Rejections, intents deferred.Storage, logger *slog.Logger) *Service {
	return &Service{
		recs:       recs,
		received:   received,
		rejections: rejections,
		intents:    intents,
		reads:      retry.Default,
		logger:     logger,
	}
}

// WithReadPolicy sets how reads are retried and returns s.
func (s *Service) WithReadPolicy(p retry.Policy) *Service {
	s.reads = p
	return s
}

// Resolve returns the public view of a share token. Every call counts one
// view, whoever makes it.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.RecommendationView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domainerrors.NotFound("share link not found")
	}

	view, err := s.recs.ResolveShareLink(ctx, token, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("share link not found")
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("resolve share link", err)
	}

	s.logger.Debug("share link viewed", "share_link_id", view.ShareLinkID, "view_count", view.ViewCount)
	return view, nil
}

// Receive saves a shared recommendation into the recipient's inbox as
// pending. Saving the same link twice returns the existing item.
func (s *Service) Receive(ctx context.Context, recipientID, token string) (*domain.ReceivedRecommendation, error) {
	if recipientID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	view, err := s.view(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.receive(ctx, recipientID, view)
}

func (s *Service) receive(ctx context.Context, recipientID string, view *domain.RecommendationView) (*domain.ReceivedRecommendation, error) {
	now := time.Now()
	r := &domain.ReceivedRecommendation{
		RecipientID:     recipientID,
		ShareLinkID:     view.ShareLinkID,
		Book:            view.Book,
		Note:            view.Note,
		RecommenderName: view.RecommenderName,
		Status:          domain.ReceivedPending,
		StatusChangedAt: now,
	}

	err := s.received.CreateReceived(ctx, r)
	if errors.Is(err, store.ErrAlreadyExists) {
		existing, getErr := retry.Read(ctx, s.reads, s.logger, "get received recommendation", func() (*domain.ReceivedRecommendation, error) {
			return s.received.GetReceivedByShareLink(ctx, recipientID, view.ShareLinkID)
		})
		if getErr != nil {
			return nil, domainerrors.RemoteFailure("get received recommendation", getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("save received recommendation", err)
	}

	s.logger.Info("recommendation received",
		"received_id", r.ID,
		"recipient_id", recipientID,
		"share_link_id", view.ShareLinkID,
	)
	return r, nil
}

// Accept adds the book through add, then marks the item accepted. If add
// fails the item keeps its status and the error is returned unchanged.
func (s *Service) Accept(ctx context.Context, recipientID, receivedID string, add AddFunc) (*AcceptResult, error) {
	r, err := s.get(ctx, recipientID, receivedID)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, r, add)
}

func (s *Service) accept(ctx context.Context, r *domain.ReceivedRecommendation, add AddFunc) (*AcceptResult, error) {
	if !r.Status.CanTransitionTo(domain.ReceivedAccepted) {
		return nil, domainerrors.InvalidTransitionf("recommendation is already %s", r.Status)
	}

	entry, err := add(ctx, domain.EntryInputFromBook(r.Book))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.received.UpdateReceivedStatus(ctx, r.ID, domain.ReceivedAccepted, now); err != nil {
		s.logger.Error("book added but acceptance not recorded",
			"received_id", r.ID,
			"entry_id", entry.ID,
			"error", err,
		)
		return nil, domainerrors.RemoteFailure("mark recommendation accepted", err)
	}
	r.Status = domain.ReceivedAccepted
	r.StatusChangedAt = now

	if err := s.recs.MarkShareLinkAccepted(ctx, r.ShareLinkID, r.RecipientID, now); err != nil {
		s.logger.Warn("share link acceptance not stamped", "share_link_id", r.ShareLinkID, "error", err)
	}

	s.logger.Info("recommendation accepted",
		"received_id", r.ID,
		"recipient_id", r.RecipientID,
		"entry_id", entry.ID,
	)
	return &AcceptResult{Received: r, Entry: entry}, nil
}

// Decline marks the item declined and records a declined rejection.
// A declined item can still be accepted later.
func (s *Service) Decline(ctx context.Context, recipientID, receivedID string) (*domain.ReceivedRecommendation, error) {
	r, err := s.setStatus(ctx, recipientID, receivedID, domain.ReceivedDeclined)
	if err != nil {
		return nil, err
	}

	signal := &domain.RejectionSignal{
		UserID:    recipientID,
		Title:     r.Book.Title,
		Author:    r.Book.Author,
		Reason:    domain.RejectionDeclined,
		CreatedAt: r.StatusChangedAt,
	}
	if err := s.rejections.AppendRejection(ctx, signal); err != nil {
		return r, domainerrors.RemoteFailure("record rejection", err)
	}
	return r, nil
}

// Archive files the item away without accepting or declining it.
func (s *Service) Archive(ctx context.Context, recipientID, receivedID string) (*domain.ReceivedRecommendation, error) {
	return s.setStatus(ctx, recipientID, receivedID, domain.ReceivedArchived)
}

func (s *Service) setStatus(ctx context.Context, recipientID, receivedID string, status domain.ReceivedStatus) (*domain.ReceivedRecommendation, error) {
	r, err := s.get(ctx, recipientID, receivedID)
	if err != nil {
		return nil, err
	}
	if !r.Status.CanTransitionTo(status) {
		return nil, domainerrors.InvalidTransitionf("cannot move recommendation from %s to %s", r.Status, status)
	}

	now := time.Now()
	if err := s.received.UpdateReceivedStatus(ctx, r.ID, status, now); err != nil {
		return nil, domainerrors.RemoteFailure("update received recommendation", err)
	}
	r.Status = status
	r.StatusChangedAt = now

	s.logger.Info("received recommendation updated", "received_id", r.ID, "status", status)
	return r, nil
}

// AcceptFromLink accepts straight from a share link. Authenticated viewers
// receive and accept in one step. For unauthenticated viewers the acceptance
// is parked in deferred storage and the returned key must be handed to
// DrainPending after sign-in.
func (s *Service) AcceptFromLink(ctx context.Context, viewerID, token string, add AddFunc) (*AcceptResult, error) {
	view, err := s.view(ctx, token)
	if err != nil {
		return nil, err
	}

	if viewerID != "" {
		r, err := s.receive(ctx, viewerID, view)
		if err != nil {
			return nil, err
		}
		return s.accept(ctx, r, add)
	}

	key, err := id.Generate(id.PrefixVisitor)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate visitor key")
	}
	intent := &domain.PendingIntent{
		Type:            domain.IntentAcceptRecommendation,
		Token:           token,
		Book:            view.Book,
		Note:            view.Note,
		RecommenderName: view.RecommenderName,
		CreatedAt:       time.Now(),
	}
	if err := s.intents.Put(ctx, key, intent); err != nil {
		return nil, domainerrors.RemoteFailure("save pending acceptance", err)
	}

	s.logger.Info("acceptance deferred until sign-in", "share_link_id", view.ShareLinkID)
	return &AcceptResult{Deferred: &Deferred{Key: key}}, nil
}

// DrainPending completes a parked acceptance for a newly authenticated user.
// The intent is taken (read and deleted atomically) before it is attempted,
// so it runs at most once even when several sessions start with the same key.
// A missing intent is not an error and returns nil.
func (s *Service) DrainPending(ctx context.Context, userID, key string, add AddFunc) (*AcceptResult, error) {
	if userID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if key == "" {
		return nil, nil
	}

	intent, err := s.intents.Take(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("take pending acceptance", err)
	}

	if intent.Type != domain.IntentAcceptRecommendation {
		s.logger.Warn("unknown pending intent dropped", "type", intent.Type, "user_id", userID)
		return nil, nil
	}

	result, err := s.drain(ctx, userID, intent, add)
	if err != nil {
		s.logger.Warn("pending acceptance failed", "user_id", userID, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *Service) drain(ctx context.Context, userID string, intent *domain.PendingIntent, add AddFunc) (*AcceptResult, error) {
	view, err := s.view(ctx, intent.Token)
	if errors.Is(err, domainerrors.ErrNotFound) {
		// The link is gone; the book the visitor saw is still worth adding.
		entry, err := add(ctx, domain.EntryInputFromBook(intent.Book))
		if err != nil {
			return nil, err
		}
		return &AcceptResult{Entry: entry}, nil
	}
	if err != nil {
		return nil, err
	}

	r, err := s.receive(ctx, userID, view)
	if err != nil {
		return nil, err
	}
	return s.accept(ctx, r, add)
}

// ListInbox returns the recipient's received recommendations, filtered by
// status unless status is empty.
func (s *Service) ListInbox(ctx context.Context, recipientID string, status domain.ReceivedStatus) ([]*domain.ReceivedRecommendation, error) {
	if recipientID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if status != "" {
		if _, ok := domain.ParseReceivedStatus(string(status)); !ok {
			return nil, domainerrors.Validationf("unknown status %q", status)
		}
	}

	items, err := retry.Read(ctx, s.reads, s.logger, "list received recommendations", func() ([]*domain.ReceivedRecommendation, error) {
		return s.received.ListReceived(ctx, recipientID, status)
	})
	if err != nil {
		return nil, domainerrors.RemoteFailure("list received recommendations", err)
	}
	return items, nil
}

// view reads a share link without counting a view.
func (s *Service) view(ctx context.Context, token string) (*domain.RecommendationView, error) {
	if token == "" {
		return nil, domainerrors.NotFound("share link not found")
	}
	view, err := retry.Read(ctx, s.reads, s.logger, "get share link", func() (*domain.RecommendationView, error) {
		return s.recs.GetShareView(ctx, token)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("share link not found")
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("get share link", err)
	}
	return view, nil
}

func (s *Service) get(ctx context.Context, recipientID, receivedID string) (*domain.ReceivedRecommendation, error) {
	if recipientID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	r, err := retry.Read(ctx, s.reads, s.logger, "get received recommendation", func() (*domain.ReceivedRecommendation, error) {
		return s.received.GetReceived(ctx, recipientID, receivedID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("received recommendation %s not found", receivedID)
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("get received recommendation", err)
	}
	return r, nil
}
