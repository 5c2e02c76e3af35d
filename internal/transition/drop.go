package transition

import (
	"context"
	"slices"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
)

// Zone is a drop target on the reading-list board.
type Zone string

const (
	ZoneQueue      Zone = "queue"
	ZoneReading    Zone = "reading"
	ZoneCollection Zone = "collection"
	ZoneNotForMe   Zone = "not_for_me"
)

// Gesture names the operation a drop performs.
type Gesture string

const (
	GestureReorder       Gesture = "reorder"
	GestureStartReading  Gesture = "start_reading"
	GestureReturnToQueue Gesture = "return_to_queue"
	GestureFinishKeep    Gesture = "finish_keep"
	GestureNotForMe      Gesture = "not_for_me"
)

// DropTable maps (source status, zone) to a gesture. Anything missing is not a valid drop.
var DropTable = map[domain.Status]map[Zone]Gesture{
	domain.StatusWantToRead: {
		ZoneQueue:      GestureReorder,
		ZoneReading:    GestureStartReading,
		ZoneCollection: GestureFinishKeep,
		ZoneNotForMe:   GestureNotForMe,
	},
	domain.StatusReading: {
		ZoneQueue:      GestureReturnToQueue,
		ZoneCollection: GestureFinishKeep,
		ZoneNotForMe:   GestureNotForMe,
	},
	domain.StatusFinished: {
		ZoneNotForMe: GestureNotForMe,
	},
}

// LookupDrop returns the gesture for dropping an entry in status onto zone.
func LookupDrop(status domain.Status, zone Zone) (Gesture, bool) {
	g, ok := DropTable[status][zone]
	return g, ok
}

// Drop performs the gesture DropTable assigns to dropping entryID onto zone.
// Each gesture runs the same code path as its button. queueIndex is only used
// for drops within the queue.
func (e *Engine) Drop(ctx context.Context, entryID string, zone Zone, queueIndex int) (Gesture, error) {
	current, err := e.entry(entryID)
	if err != nil {
		return "", err
	}

	gesture, ok := LookupDrop(current.Status, zone)
	if !ok {
		return "", domainerrors.Validationf("cannot drop a %s entry on %s", current.Status, zone)
	}

	switch gesture {
	case GestureReorder:
		from := slices.IndexFunc(e.list.Queue(), func(q *domain.Entry) bool { return q.ID == entryID })
		err = e.list.Reorder(from, queueIndex)
	case GestureStartReading:
		_, err = e.StartReading(ctx, entryID)
	case GestureReturnToQueue:
		_, err = e.ReturnToQueue(ctx, entryID)
	case GestureFinishKeep:
		_, err = e.FinishKeep(ctx, entryID, FinishOptions{})
	case GestureNotForMe:
		err = e.NotForMe(ctx, entryID)
	}
	if err != nil {
		return "", err
	}
	return gesture, nil
}
