package sqlite

import (
	"context"
	"time"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
)

// AppendRejection adds a signal to the log. Signals are never updated or deleted.
func (s *Store) AppendRejection(ctx context.Context, r *domain.RejectionSignal) error {
	if err := ensureID(&r.ID, id.PrefixRejection); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rejection_signals (id, user_id, title, author, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Title, r.Author, string(r.Reason), formatTime(r.CreatedAt))
	return err
}

// ListRejections returns a user's rejection log in insertion order.
func (s *Store) ListRejections(ctx context.Context, userID string) ([]*domain.RejectionSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, author, reason, created_at
		FROM rejection_signals WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RejectionSignal
	for rows.Next() {
		var (
			r         domain.RejectionSignal
			reason    string
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Author, &reason, &createdAt); err != nil {
			return nil, err
		}
		r.Reason = domain.RejectionReason(reason)
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
