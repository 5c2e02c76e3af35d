package domain

import "time"

// Recommendation is a user's endorsement of a book.
type Recommendation struct {
	Syncable
	OwnerID   string     `json:"owner_id"`
	Book      Book       `json:"book"`
	Note      string     `json:"note,omitempty"`
	ShareLink *ShareLink `json:"share_link,omitempty"`
}

// ShareLink is the single durable public link for a recommendation.
type ShareLink struct {
	Syncable
	RecommendationID string     `json:"recommendation_id"`
	Token            string     `json:"token"`
	RecommenderName  string     `json:"recommender_name"` // Snapshot taken at issue time
	ViewCount        int        `json:"view_count"`
	LastViewedAt     *time.Time `json:"last_viewed_at,omitempty"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy       string     `json:"accepted_by,omitempty"`
}

// RecommendationView is what any visitor sees when resolving a share token.
type RecommendationView struct {
	Token           string     `json:"token"`
	Book            Book       `json:"book"`
	Note            string     `json:"note,omitempty"`
	RecommenderName string     `json:"recommender_name"`
	OwnerID         string     `json:"-"`
	ViewCount       int        `json:"view_count"`
	LastViewedAt    *time.Time `json:"last_viewed_at,omitempty"`
	ShareLinkID     string     `json:"-"`
}
