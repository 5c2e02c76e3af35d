package domain

import "time"

// IntentType tags a deferred action.
type IntentType string

// IntentAcceptRecommendation completes a share acceptance after sign-up.
const IntentAcceptRecommendation IntentType = "accept_recommendation"

// PendingIntent is an action a visitor started before authenticating.
// It lives in deferred storage and is drained once on the next authenticated session start.
type PendingIntent struct {
	Type            IntentType `json:"type"`
	Token           string     `json:"token"`
	Book            Book       `json:"book"`
	Note            string     `json:"note,omitempty"`
	RecommenderName string     `json:"recommender_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
