// Package store defines the persistence contracts for readlist.
//
// The system of record assigns ids on create (when the caller leaves ID empty)
// and reports ErrNotFound / ErrAlreadyExists. Every method is keyed by owner
// where the record has one.
package store

import (
	"context"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
)

// Entries persists reading-list entries.
type Entries interface {
	ListEntries(ctx context.Context, ownerID string) ([]*domain.Entry, error)
	GetEntry(ctx context.Context, ownerID, id string) (*domain.Entry, error)
	CreateEntry(ctx context.Context, entry *domain.Entry) error
	UpdateEntry(ctx context.Context, entry *domain.Entry) error
	DeleteEntry(ctx context.Context, ownerID, id string) error
}

// Collection persists collection items.
type Collection interface {
	// GetUserBookByKey matches title and author case-insensitively.
	GetUserBookByKey(ctx context.Context, ownerID, title, author string) (*domain.UserBook, error)
	// CreateUserBook returns ErrAlreadyExists when the (title, author) key is taken.
	CreateUserBook(ctx context.Context, book *domain.UserBook) error
	UpdateUserBook(ctx context.Context, book *domain.UserBook) error
	ListUserBooks(ctx context.Context, ownerID string) ([]*domain.UserBook, error)
}

// Recommendations persists recommendations and their share links.
type Recommendations interface {
	CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error
	// GetRecommendation includes the share link when one exists.
	GetRecommendation(ctx context.Context, id string) (*domain.Recommendation, error)
	ListRecommendations(ctx context.Context, ownerID string) ([]*domain.Recommendation, error)

	GetShareLinkByRecommendation(ctx context.Context, recommendationID string) (*domain.ShareLink, error)
	// CreateShareLink returns ErrAlreadyExists when the recommendation already has a link.
	CreateShareLink(ctx context.Context, link *domain.ShareLink) error
	// ResolveShareLink increments the view counter exactly once and returns the updated view.
	ResolveShareLink(ctx context.Context, token string, viewedAt time.Time) (*domain.RecommendationView, error)
	// GetShareView reads a link without counting a view.
	GetShareView(ctx context.Context, token string) (*domain.RecommendationView, error)
	MarkShareLinkAccepted(ctx context.Context, linkID, userID string, at time.Time) error
}

// Received persists recommendations saved into recipients' inboxes.
type Received interface {
	// CreateReceived returns ErrAlreadyExists when the recipient already saved the link.
	CreateReceived(ctx context.Context, rec *domain.ReceivedRecommendation) error
	GetReceived(ctx context.Context, recipientID, id string) (*domain.ReceivedRecommendation, error)
	GetReceivedByShareLink(ctx context.Context, recipientID, shareLinkID string) (*domain.ReceivedRecommendation, error)
	UpdateReceivedStatus(ctx context.Context, id string, status domain.ReceivedStatus, at time.Time) error
	// ListReceived filters by status unless status is empty.
	ListReceived(ctx context.Context, recipientID string, status domain.ReceivedStatus) ([]*domain.ReceivedRecommendation, error)
}

// Rejections is the append-only rejection log.
type Rejections interface {
	AppendRejection(ctx context.Context, signal *domain.RejectionSignal) error
	ListRejections(ctx context.Context, userID string) ([]*domain.RejectionSignal, error)
}

// Users persists the display names snapshotted onto share links.
type Users interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpsertUser(ctx context.Context, user *domain.User) error
}

// Store is the full system of record.
type Store interface {
	Entries
	Collection
	Recommendations
	Received
	Rejections
	Users

	Ping(ctx context.Context) error
	Close() error
}
