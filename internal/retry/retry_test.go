package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/store"
)

var fast = Policy{Step: time.Millisecond}

func TestRead_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := Read(context.Background(), fast, nil, "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestRead_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("down")
	_, err := Read(context.Background(), fast, nil, "test", func() (int, error) {
		calls++
		return 0, cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, DefaultAttempts, calls)
}

func TestRead_NotFoundIsFinal(t *testing.T) {
	calls := 0
	_, err := Read(context.Background(), fast, nil, "test", func() (int, error) {
		calls++
		return 0, store.ErrNotFound
	})

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestLinear(t *testing.T) {
	b := &linear{step: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 20*time.Millisecond, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
}
