package transition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
)

func TestDrop_MatchesButton(t *testing.T) {
	tests := []struct {
		status  domain.Status
		zone    Zone
		gesture Gesture
		button  func(ctx context.Context, e *Engine, entryID string) error
	}{
		{domain.StatusWantToRead, ZoneReading, GestureStartReading, func(ctx context.Context, e *Engine, id string) error {
			_, err := e.StartReading(ctx, id)
			return err
		}},
		{domain.StatusReading, ZoneQueue, GestureReturnToQueue, func(ctx context.Context, e *Engine, id string) error {
			_, err := e.ReturnToQueue(ctx, id)
			return err
		}},
		{domain.StatusWantToRead, ZoneCollection, GestureFinishKeep, func(ctx context.Context, e *Engine, id string) error {
			_, err := e.FinishKeep(ctx, id, FinishOptions{})
			return err
		}},
		{domain.StatusReading, ZoneCollection, GestureFinishKeep, func(ctx context.Context, e *Engine, id string) error {
			_, err := e.FinishKeep(ctx, id, FinishOptions{})
			return err
		}},
		{domain.StatusWantToRead, ZoneNotForMe, GestureNotForMe, func(ctx context.Context, e *Engine, id string) error {
			return e.NotForMe(ctx, id)
		}},
		{domain.StatusReading, ZoneNotForMe, GestureNotForMe, func(ctx context.Context, e *Engine, id string) error {
			return e.NotForMe(ctx, id)
		}},
		{domain.StatusFinished, ZoneNotForMe, GestureNotForMe, func(ctx context.Context, e *Engine, id string) error {
			return e.NotForMe(ctx, id)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"->"+string(tt.zone), func(t *testing.T) {
			ctx := context.Background()

			viaButton := setupEngineTest(t)
			e := viaButton.add(t, "Dune", tt.status)
			require.NoError(t, tt.button(ctx, viaButton.engine, e.ID))

			viaDrop := setupEngineTest(t)
			e = viaDrop.add(t, "Dune", tt.status)
			gesture, err := viaDrop.engine.Drop(ctx, e.ID, tt.zone, 0)
			require.NoError(t, err)

			assert.Equal(t, tt.gesture, gesture)
			assert.Equal(t, viaButton.outcome(t), viaDrop.outcome(t))
		})
	}
}

func TestDrop_Unmapped(t *testing.T) {
	tests := []struct {
		status domain.Status
		zone   Zone
	}{
		{domain.StatusReading, ZoneReading},
		{domain.StatusFinished, ZoneQueue},
		{domain.StatusFinished, ZoneCollection},
		{domain.StatusAlreadyRead, ZoneNotForMe},
		{domain.StatusWantToRead, Zone("trash")},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"->"+string(tt.zone), func(t *testing.T) {
			env := setupEngineTest(t)
			e := env.add(t, "Dune", tt.status)
			before := env.outcome(t)

			_, err := env.engine.Drop(context.Background(), e.ID, tt.zone, 0)

			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Equal(t, before, env.outcome(t), "unmapped drops have no side effects")
		})
	}
}

func TestDrop_WithinQueueReorders(t *testing.T) {
	env := setupEngineTest(t)
	a := env.add(t, "A", domain.StatusWantToRead)
	env.add(t, "B", domain.StatusWantToRead)
	env.add(t, "C", domain.StatusWantToRead)

	gesture, err := env.engine.Drop(context.Background(), a.ID, ZoneQueue, 2)
	require.NoError(t, err)
	assert.Equal(t, GestureReorder, gesture)

	var titles []string
	for _, e := range env.list.Queue() {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"B", "C", "A"}, titles)
}

func TestLookupDrop(t *testing.T) {
	g, ok := LookupDrop(domain.StatusWantToRead, ZoneReading)
	assert.True(t, ok)
	assert.Equal(t, GestureStartReading, g)

	_, ok = LookupDrop(domain.StatusAlreadyRead, ZoneQueue)
	assert.False(t, ok)
}
