package domain

import "time"

// ReceivedStatus is the recipient-side lifecycle of a shared recommendation.
type ReceivedStatus string

const (
	ReceivedPending  ReceivedStatus = "pending"
	ReceivedAccepted ReceivedStatus = "accepted"
	ReceivedDeclined ReceivedStatus = "declined"
	ReceivedArchived ReceivedStatus = "archived"
)

// receivedTransitions lists the allowed moves. Accepted and archived are terminal;
// a declined recommendation can still be accepted.
var receivedTransitions = map[ReceivedStatus][]ReceivedStatus{
	ReceivedPending:  {ReceivedAccepted, ReceivedDeclined, ReceivedArchived},
	ReceivedDeclined: {ReceivedAccepted},
}

// ParseReceivedStatus converts a string to a ReceivedStatus.
func ParseReceivedStatus(s string) (ReceivedStatus, bool) {
	switch st := ReceivedStatus(s); st {
	case ReceivedPending, ReceivedAccepted, ReceivedDeclined, ReceivedArchived:
		return st, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether s may move to next.
func (s ReceivedStatus) CanTransitionTo(next ReceivedStatus) bool {
	for _, allowed := range receivedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReceivedRecommendation is a recommendation saved into a recipient's inbox.
// Book fields are copied so later edits by the recommender don't change it.
type ReceivedRecommendation struct {
	Syncable
	RecipientID     string         `json:"recipient_id"`
	ShareLinkID     string         `json:"share_link_id"`
	Book            Book           `json:"book"`
	Note            string         `json:"note,omitempty"`
	RecommenderName string         `json:"recommender_name"`
	Status          ReceivedStatus `json:"status"`
	StatusChangedAt time.Time      `json:"status_changed_at"`
}
