package auth

import "time"

// AccessClaims are the claims carried by a v4.local access token. The token
// is encrypted, so clients cannot read them.
type AccessClaims struct {
	UserID string `json:"user_id"`
	// DisplayName is recorded as the user's profile name on first session
	// start when no profile exists yet.
	DisplayName string `json:"display_name,omitempty"`

	Subject    string    `json:"sub"`
	TokenID    string    `json:"jti"`
	IssuedAt   time.Time `json:"iat"`
	Expiration time.Time `json:"exp"`
}
