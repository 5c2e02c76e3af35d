// Package recommend authors recommendations and issues their share links.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/enrich"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/normalize"
	"github.com/listenupapp/readlist/internal/retry"
	"github.com/listenupapp/readlist/internal/store"
	"github.com/listenupapp/readlist/internal/validation"
)

// CreateRequest describes a new recommendation.
type CreateRequest struct {
	Title       string `json:"title" validate:"notblank,max=500"`
	Author      string `json:"author" validate:"max=500"`
	ISBN        string `json:"isbn,omitempty" validate:"omitempty,bookisbn"`
	Description string `json:"description,omitempty"`
	Note        string `json:"note" validate:"max=2000"`
}

// noteRequired is validated on the standalone authoring path only.
type noteRequired struct {
	Note string `json:"note" validate:"notblank"`
}

// Link is an issued share link with its public URL.
type Link struct {
	*domain.ShareLink
	URL string `json:"url"`
}

// Service manages recommendations and share links.
type Service struct {
	recs      store.Recommendations
	users     store.Users
	enricher  *enrich.Enricher
	validator *validation.Validator
	publicURL string
	reads     retry.Policy
	logger    *slog.Logger
}

// NewService creates a recommendation service. publicURL is the base for share URLs.
func NewService(recs store.Recommendations, users store.Users, enricher *enrich.Enricher, publicURL string, logger *slog.Logger) *Service {
	return &Service{
		recs:      recs,
		users:     users,
		enricher:  enricher,
		validator: validation.New(),
		publicURL: strings.TrimRight(publicURL, "/"),
		reads:     retry.Default,
		logger:    logger,
	}
}

// WithReadPolicy sets how reads are retried and returns s.
func (s *Service) WithReadPolicy(p retry.Policy) *Service {
	s.reads = p
	return s
}

// Create authors a recommendation. A note is required.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*domain.Recommendation, error) {
	if err := s.validator.Validate(noteRequired{Note: req.Note}); err != nil {
		return nil, err
	}
	return s.create(ctx, ownerID, req)
}

// CreateFromCollection authors a recommendation from a collection item.
// The note may be empty.
func (s *Service) CreateFromCollection(ctx context.Context, ownerID string, req CreateRequest) (*domain.Recommendation, error) {
	return s.create(ctx, ownerID, req)
}

func (s *Service) create(ctx context.Context, ownerID string, req CreateRequest) (*domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book := domain.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		ISBN:        normalize.ISBN(req.ISBN),
		Description: req.Description,
	}
	if s.enricher != nil {
		s.enricher.Fill(ctx, &book)
	} else {
		book.Description = normalize.Description(book.Description)
	}

	rec := &domain.Recommendation{
		OwnerID: ownerID,
		Book:    book,
		Note:    strings.TrimSpace(req.Note),
	}
	if err := s.recs.CreateRecommendation(ctx, rec); err != nil {
		return nil, domainerrors.RemoteFailure("create recommendation", err)
	}

	s.logger.Info("recommendation created",
		"recommendation_id", rec.ID,
		"owner_id", ownerID,
		"title", book.Title,
	)
	return rec, nil
}

// Get returns one of the owner's recommendations, with its share link if issued.
// Recommendations owned by someone else are reported as not found.
func (s *Service) Get(ctx context.Context, ownerID, recommendationID string) (*domain.Recommendation, error) {
	if ownerID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}

	rec, err := retry.Read(ctx, s.reads, s.logger, "get recommendation", func() (*domain.Recommendation, error) {
		return s.recs.GetRecommendation(ctx, recommendationID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("recommendation %s not found", recommendationID)
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("get recommendation", err)
	}
	if rec.OwnerID != ownerID {
		return nil, domainerrors.NotFoundf("recommendation %s not found", recommendationID)
	}
	return rec, nil
}

// List returns the owner's recommendations.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.Recommendation, error) {
	if ownerID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	recs, err := retry.Read(ctx, s.reads, s.logger, "list recommendations", func() ([]*domain.Recommendation, error) {
		return s.recs.ListRecommendations(ctx, ownerID)
	})
	if err != nil {
		return nil, domainerrors.RemoteFailure("list recommendations", err)
	}
	return recs, nil
}

// GetOrCreateShareLink returns the recommendation's share link, issuing one on
// first use. An existing link comes back unchanged. When two callers race to
// issue, the loser re-reads and returns the winner's link.
func (s *Service) GetOrCreateShareLink(ctx context.Context, ownerID, recommendationID string) (*Link, error) {
	rec, err := s.Get(ctx, ownerID, recommendationID)
	if err != nil {
		return nil, err
	}
	if rec.ShareLink != nil {
		return s.link(rec.ShareLink), nil
	}

	token, err := id.ShareToken()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate share token")
	}

	link := &domain.ShareLink{
		RecommendationID: rec.ID,
		Token:            token,
		RecommenderName:  s.recommenderName(ctx, ownerID),
	}

	err = s.recs.CreateShareLink(ctx, link)
	if errors.Is(err, store.ErrAlreadyExists) {
		existing, getErr := retry.Read(ctx, s.reads, s.logger, "get share link", func() (*domain.ShareLink, error) {
			return s.recs.GetShareLinkByRecommendation(ctx, rec.ID)
		})
		if getErr != nil {
			return nil, domainerrors.RemoteFailure("get share link", getErr)
		}
		s.logger.Debug("share link issued concurrently, using existing", "recommendation_id", rec.ID)
		return s.link(existing), nil
	}
	if err != nil {
		return nil, domainerrors.RemoteFailure("create share link", err)
	}

	s.logger.Info("share link issued",
		"recommendation_id", rec.ID,
		"share_link_id", link.ID,
		"owner_id", ownerID,
	)
	return s.link(link), nil
}

// URL returns the public URL for a share token.
func (s *Service) URL(token string) string {
	return fmt.Sprintf("%s/r/%s", s.publicURL, token)
}

func (s *Service) link(l *domain.ShareLink) *Link {
	return &Link{ShareLink: l, URL: s.URL(l.Token)}
}

// recommenderName snapshots the owner's display name. A missing profile
// falls back to the default name rather than failing the issue.
func (s *Service) recommenderName(ctx context.Context, ownerID string) string {
	user, err := retry.Read(ctx, s.reads, s.logger, "get user", func() (*domain.User, error) {
		return s.users.GetUser(ctx, ownerID)
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("recommender lookup failed", "owner_id", ownerID, "error", err)
	}
	return user.RecommenderName()
}
