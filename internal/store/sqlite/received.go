package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/store"
)

const receivedColumns = `id, created_at, updated_at, recipient_id, share_link_id,
	title, author, isbn, description, note, recommender_name, status, status_changed_at`

func scanReceived(scanner interface{ Scan(dest ...any) error }) (*domain.ReceivedRecommendation, error) {
	var r domain.ReceivedRecommendation

	var (
		createdAt       string
		updatedAt       string
		isbn            sql.NullString
		status          string
		statusChangedAt string
	)

	err := scanner.Scan(
		&r.ID, &createdAt, &updatedAt, &r.RecipientID, &r.ShareLinkID,
		&r.Book.Title, &r.Book.Author, &isbn, &r.Book.Description, &r.Note,
		&r.RecommenderName, &status, &statusChangedAt,
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
	if r.StatusChangedAt, err = parseTime(statusChangedAt); err != nil {
		return nil, err
	}
	r.Book.ISBN = isbn.String
	r.Status = domain.ReceivedStatus(status)

	return &r, nil
}

// CreateReceived saves a recommendation into a recipient's inbox.
// Returns store.ErrAlreadyExists if the recipient already saved this link.
func (s *Store) CreateReceived(ctx context.Context, r *domain.ReceivedRecommendation) error {
	if err := ensureID(&r.ID, id.PrefixReceived); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.InitTimestamps()
	}
	if r.StatusChangedAt.IsZero() {
		r.StatusChangedAt = r.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO received_recommendations (`+receivedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		r.RecipientID,
		r.ShareLinkID,
		r.Book.Title,
		r.Book.Author,
		nullString(r.Book.ISBN),
		r.Book.Description,
		r.Note,
		r.RecommenderName,
		string(r.Status),
		formatTime(r.StatusChangedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetReceived returns store.ErrNotFound unless the recipient owns the record.
func (s *Store) GetReceived(ctx context.Context, recipientID, receivedID string) (*domain.ReceivedRecommendation, error) {
	return s.getReceived(ctx, `id = ?`, recipientID, receivedID)
}

// GetReceivedByShareLink finds the recipient's copy of a shared link.
func (s *Store) GetReceivedByShareLink(ctx context.Context, recipientID, shareLinkID string) (*domain.ReceivedRecommendation, error) {
	return s.getReceived(ctx, `share_link_id = ?`, recipientID, shareLinkID)
}

func (s *Store) getReceived(ctx context.Context, where, recipientID, arg string) (*domain.ReceivedRecommendation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+receivedColumns+` FROM received_recommendations WHERE recipient_id = ? AND `+where,
		recipientID, arg)

	r, err := scanReceived(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReceivedStatus sets the status and its timestamp.
func (s *Store) UpdateReceivedStatus(ctx context.Context, receivedID string, status domain.ReceivedStatus, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE received_recommendations SET status = ?, status_changed_at = ?, updated_at = ?
		WHERE id = ?`,
		string(status), formatTime(at), formatTime(at), receivedID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListReceived returns the recipient's inbox, newest first, optionally filtered by status.
func (s *Store) ListReceived(ctx context.Context, recipientID string, status domain.ReceivedStatus) ([]*domain.ReceivedRecommendation, error) {
	query := `SELECT ` + receivedColumns + ` FROM received_recommendations WHERE recipient_id = ?`
	args := []any{recipientID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ReceivedRecommendation
	for rows.Next() {
		r, err := scanReceived(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
