// Package id generates entity identifiers and share tokens.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixEntry          = "entry"
	PrefixBook           = "book"
	PrefixRecommendation = "rec"
	PrefixShareLink      = "link"
	PrefixReceived       = "recv"
	PrefixRejection      = "rej"
	PrefixUser           = "user"
	PrefixVisitor        = "visit"
)

// TempPrefix marks ids assigned to optimistic adds before the store answers.
const TempPrefix = "tmp-"

// ShareTokenLength is the number of characters in a share token.
const ShareTokenLength = 32

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "rec-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// ShareToken returns an unguessable URL-safe token for share links.
func ShareToken() (string, error) {
	token, err := gonanoid.New(ShareTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return token, nil
}

// Temp returns a synthetic id for an optimistic add.
func Temp() string {
	return TempPrefix + uuid.NewString()
}

// IsTemp reports whether id was produced by Temp.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}
