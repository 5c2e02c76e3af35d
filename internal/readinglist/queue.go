package readinglist

import (
	"slices"

	"github.com/listenupapp/readlist/internal/domain"
	domainerrors "github.com/listenupapp/readlist/internal/errors"
)

// Queue returns the want_to_read entries in presentation order. Entries that
// were never reordered follow the reordered ones in list order.
func (s *Store) Queue() []*domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queueOf(s.state)
}

func queueOf(st snapshot) []*domain.Entry {
	byID := make(map[string]*domain.Entry, len(st.entries))
	for _, e := range st.entries {
		if e.Status == domain.StatusWantToRead {
			byID[e.ID] = e
		}
	}

	queue := make([]*domain.Entry, 0, len(byID))
	for _, qid := range st.queueOrder {
		if e, ok := byID[qid]; ok {
			queue = append(queue, e.Clone())
			delete(byID, qid)
		}
	}
	for _, e := range st.entries {
		if _, ok := byID[e.ID]; ok {
			queue = append(queue, e.Clone())
		}
	}
	return queue
}

// Reorder moves the queue item at from to position to. Ordering is session
// presentation state only; nothing is sent to the backing store.
func (s *Store) Reorder(from, to int) error {
	if _, err := s.requireOwner(); err != nil {
		return err
	}

	m := s.newMutation("reorder", "", func(st *snapshot) error {
		queue := queueOf(*st)
		if from < 0 || from >= len(queue) || to < 0 || to >= len(queue) {
			return domainerrors.Validationf("reorder index out of range: %d -> %d (queue has %d)", from, to, len(queue))
		}

		ids := make([]string, len(queue))
		for i, e := range queue {
			ids[i] = e.ID
		}
		moved := ids[from]
		ids = slices.Delete(ids, from, from+1)
		ids = slices.Insert(ids, to, moved)
		st.queueOrder = ids
		return nil
	})
	return m.Apply()
}
