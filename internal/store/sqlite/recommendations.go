package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/store"
)

// recommendationColumns selects a recommendation with its optional share link.
// Must match the scan order in scanRecommendation.
const recommendationColumns = `r.id, r.created_at, r.updated_at, r.owner_id,
	r.title, r.author, r.isbn, r.description, r.note,
	l.id, l.created_at, l.updated_at, l.token, l.recommender_name, l.view_count,
	l.last_viewed_at, l.accepted_at, l.accepted_by`

const recommendationFrom = ` FROM recommendations r LEFT JOIN share_links l ON l.recommendation_id = r.id`

func scanRecommendation(scanner interface{ Scan(dest ...any) error }) (*domain.Recommendation, error) {
	var r domain.Recommendation

	var (
		createdAt string
		updatedAt string
		isbn      sql.NullString

		linkID        sql.NullString
		linkCreatedAt sql.NullString
		linkUpdatedAt sql.NullString
		token         sql.NullString
		recommender   sql.NullString
		viewCount     sql.NullInt64
		lastViewedAt  sql.NullString
		acceptedAt    sql.NullString
		acceptedBy    sql.NullString
	)

	err := scanner.Scan(
		&r.ID, &createdAt, &updatedAt, &r.OwnerID,
		&r.Book.Title, &r.Book.Author, &isbn, &r.Book.Description, &r.Note,
		&linkID, &linkCreatedAt, &linkUpdatedAt, &token, &recommender, &viewCount,
		&lastViewedAt, &acceptedAt, &acceptedBy,
	)
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	r.Book.ISBN = isbn.String

	if !linkID.Valid {
		return &r, nil
	}

	link := &domain.ShareLink{
		RecommendationID: r.ID,
		Token:            token.String,
		RecommenderName:  recommender.String,
		ViewCount:        int(viewCount.Int64),
		AcceptedBy:       acceptedBy.String,
	}
	link.ID = linkID.String
	if link.CreatedAt, err = parseTime(linkCreatedAt.String); err != nil {
		return nil, err
	}
	if link.UpdatedAt, err = parseTime(linkUpdatedAt.String); err != nil {
		return nil, err
	}
	if link.LastViewedAt, err = parseNullableTime(lastViewedAt); err != nil {
		return nil, err
	}
	if link.AcceptedAt, err = parseNullableTime(acceptedAt); err != nil {
		return nil, err
	}
	r.ShareLink = link

	return &r, nil
}

// CreateRecommendation inserts a recommendation. Any ShareLink on r is ignored.
func (s *Store) CreateRecommendation(ctx context.Context, r *domain.Recommendation) error {
	if err := ensureID(&r.ID, id.PrefixRecommendation); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.InitTimestamps()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, created_at, updated_at, owner_id, title, author, isbn, description, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		r.OwnerID,
		r.Book.Title,
		r.Book.Author,
		nullString(r.Book.ISBN),
		r.Book.Description,
		r.Note,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetRecommendation returns store.ErrNotFound if the recommendation does not exist.
func (s *Store) GetRecommendation(ctx context.Context, recID string) (*domain.Recommendation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recommendationColumns+recommendationFrom+` WHERE r.id = ?`, recID)

	r, err := scanRecommendation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecommendations returns an owner's recommendations, newest first.
func (s *Store) ListRecommendations(ctx context.Context, ownerID string) ([]*domain.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recommendationColumns+recommendationFrom+` WHERE r.owner_id = ? ORDER BY r.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*domain.Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
