package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/store"
)

const shareLinkColumns = `id, created_at, updated_at, recommendation_id, token, recommender_name,
	view_count, last_viewed_at, accepted_at, accepted_by`

func scanShareLink(scanner interface{ Scan(dest ...any) error }) (*domain.ShareLink, error) {
	var l domain.ShareLink

	var (
		createdAt    string
		updatedAt    string
		lastViewedAt sql.NullString
		acceptedAt   sql.NullString
		acceptedBy   sql.NullString
	)

	err := scanner.Scan(&l.ID, &createdAt, &updatedAt, &l.RecommendationID, &l.Token, &l.RecommenderName,
		&l.ViewCount, &lastViewedAt, &acceptedAt, &acceptedBy)
	if err != nil {
		return nil, err
	}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if l.LastViewedAt, err = parseNullableTime(lastViewedAt); err != nil {
		return nil, err
	}
	if l.AcceptedAt, err = parseNullableTime(acceptedAt); err != nil {
		return nil, err
	}
	l.AcceptedBy = acceptedBy.String

	return &l, nil
}

// GetShareLinkByRecommendation returns store.ErrNotFound if no link was issued yet.
func (s *Store) GetShareLinkByRecommendation(ctx context.Context, recommendationID string) (*domain.ShareLink, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareLinkColumns+` FROM share_links WHERE recommendation_id = ?`, recommendationID)

	l, err := scanShareLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CreateShareLink inserts a link. Returns store.ErrAlreadyExists when the
// recommendation already has one (or, vanishingly rarely, on a token collision).
func (s *Store) CreateShareLink(ctx context.Context, l *domain.ShareLink) error {
	if err := ensureID(&l.ID, id.PrefixShareLink); err != nil {
		return err
	}
	if l.CreatedAt.IsZero() {
		l.InitTimestamps()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_links (`+shareLinkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.RecommendationID,
		l.Token,
		l.RecommenderName,
		l.ViewCount,
		nullTimeString(l.LastViewedAt),
		nullTimeString(l.AcceptedAt),
		nullString(l.AcceptedBy),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

const shareViewQuery = `
	SELECT l.id, l.token, l.recommender_name, l.view_count, l.last_viewed_at,
		r.owner_id, r.title, r.author, r.isbn, r.description, r.note
	FROM share_links l JOIN recommendations r ON r.id = l.recommendation_id
	WHERE l.token = ?`

func scanShareView(scanner interface{ Scan(dest ...any) error }) (*domain.RecommendationView, error) {
	var (
		v            domain.RecommendationView
		lastViewedAt sql.NullString
		isbn         sql.NullString
	)

	err := scanner.Scan(&v.ShareLinkID, &v.Token, &v.RecommenderName, &v.ViewCount, &lastViewedAt,
		&v.OwnerID, &v.Book.Title, &v.Book.Author, &isbn, &v.Book.Description, &v.Note)
	if err != nil {
		return nil, err
	}
	v.Book.ISBN = isbn.String
	if v.LastViewedAt, err = parseNullableTime(lastViewedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// ResolveShareLink counts one view and returns the view as of that increment.
func (s *Store) ResolveShareLink(ctx context.Context, token string, viewedAt time.Time) (*domain.RecommendationView, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE share_links SET view_count = view_count + 1, last_viewed_at = ?
		WHERE token = ?`,
		formatTime(viewedAt), token)
	if err != nil {
		return nil, err
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}

	v, err := scanShareView(tx.QueryRowContext(ctx, shareViewQuery, token))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

// GetShareView reads a share link without counting a view.
func (s *Store) GetShareView(ctx context.Context, token string) (*domain.RecommendationView, error) {
	v, err := scanShareView(s.db.QueryRowContext(ctx, shareViewQuery, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// MarkShareLinkAccepted stamps the most recent acceptance.
func (s *Store) MarkShareLinkAccepted(ctx context.Context, linkID, userID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE share_links SET accepted_at = ?, accepted_by = ?, updated_at = ?
		WHERE id = ?`,
		formatTime(at), userID, formatTime(time.Now()), linkID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
