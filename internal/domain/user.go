package domain

// DefaultRecommenderName is snapshotted onto share links when the owner has no display name.
const DefaultRecommenderName = "Someone"

// User is the minimal account record the core needs. Sign-up and credentials
// live in the identity provider; this row only carries what shares display.
type User struct {
	Syncable
	DisplayName string `json:"display_name"`
}

// RecommenderName returns the name shown on share links.
func (u *User) RecommenderName() string {
	if u == nil || u.DisplayName == "" {
		return DefaultRecommenderName
	}
	return u.DisplayName
}
