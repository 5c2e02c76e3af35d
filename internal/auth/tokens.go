package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/readlist/internal/domain"
	"github.com/listenupapp/readlist/internal/id"
)

const (
	tokenIssuer   = "readlist-server"
	tokenAudience = "readlist-client"

	// PASETO v4 symmetric key size.
	keyBytesSize = 32
)

// ErrInvalidToken is returned for tokens that fail decryption or any claim rule.
var ErrInvalidToken = errors.New("invalid access token")

// TokenService mints and verifies v4.local access tokens. Identity (sign-up,
// refresh) belongs to the identity provider, not to this server.
type TokenService struct {
	key      paseto.V4SymmetricKey
	lifetime time.Duration
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, lifetime time.Duration) (*TokenService, error) {
	if len(key) != keyBytesSize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", keyBytesSize, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	return &TokenService{key: k, lifetime: lifetime}, nil
}

// GenerateAccessToken mints a token for user. The display name travels with
// the token so the first session start can seed the profile.
func (s *TokenService) GenerateAccessToken(user *domain.User) (string, error) {
	jti, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}

	now := time.Now()
	t := paseto.NewToken()
	t.SetIssuer(tokenIssuer)
	t.SetAudience(tokenAudience)
	t.SetSubject(user.ID)
	t.SetJti(jti)
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(now.Add(s.lifetime))
	t.SetString("user_id", user.ID)
	if user.DisplayName != "" {
		t.SetString("display_name", user.DisplayName)
	}

	return t.V4Encrypt(s.key, nil), nil
}

// VerifyAccessToken decrypts raw and checks issuer, audience and validity
// window. Every failure wraps ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(raw string) (*AccessClaims, error) {
	p := paseto.MakeParser([]paseto.Rule{
		paseto.ForAudience(tokenAudience),
		paseto.IssuedBy(tokenIssuer),
		paseto.NotExpired(),
		paseto.ValidAt(time.Now()),
	})

	t, err := p.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(t.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user_id", ErrInvalidToken)
	}
	return &claims, nil
}

// AccessTokenDuration is how long minted tokens stay valid.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.lifetime
}
