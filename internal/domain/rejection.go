package domain

import "time"

// RejectionReason says why a book was rejected.
type RejectionReason string

const (
	RejectionNotForMe        RejectionReason = "not_for_me"
	RejectionFinishedNotKept RejectionReason = "finished_not_kept"
	RejectionRemoved         RejectionReason = "removed"
	RejectionDeclined        RejectionReason = "declined"
)

// RejectionSignal is an append-only record that a user did not want a book.
// It only feeds the exclusion set.
type RejectionSignal struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Reason    RejectionReason `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}
