package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isURLSafe(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '-'
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixEntry, PrefixRecommendation, PrefixShareLink, PrefixRejection} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, strings.TrimPrefix(id, prefix+"-"), 21)
		})
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for range 1000 {
		id := MustGenerate("test")
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}
	assert.Len(t, ids, 1000)
}

func TestShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		token, err := ShareToken()
		require.NoError(t, err)
		require.Len(t, token, ShareTokenLength)
		for _, r := range token {
			assert.True(t, isURLSafe(r), "character %c should be URL-safe", r)
		}
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestTemp(t *testing.T) {
	tmp := Temp()

	assert.True(t, IsTemp(tmp))
	_, err := uuid.Parse(strings.TrimPrefix(tmp, TempPrefix))
	assert.NoError(t, err)
	assert.False(t, IsTemp(MustGenerate(PrefixEntry)))
}
