package readinglist

import (
	"slices"

	"github.com/listenupapp/readlist/internal/domain"
)

// snapshot is the in-memory list state.
type snapshot struct {
	entries    []*domain.Entry
	queueOrder []string
}

func (s snapshot) clone() snapshot {
	c := snapshot{
		entries:    make([]*domain.Entry, len(s.entries)),
		queueOrder: append([]string(nil), s.queueOrder...),
	}
	for i, e := range s.entries {
		c.entries[i] = e.Clone()
	}
	return c
}

// Mutation is one optimistic change to the list. Apply installs the change
// locally; Rollback reverts only what this mutation touched, so changes
// committed by other requests in the meantime survive.
//
// Entry mutations touch one entry (entryID). Queue mutations (entryID == "")
// touch only the queue order.
type Mutation struct {
	Op string

	store   *Store
	entryID string
	change  func(*snapshot) error

	applied   bool
	prior     *domain.Entry // nil when the entry did not exist
	priorAt   int
	priorSlot int // position in queueOrder, -1 when absent
	priorQ    []string
}

// newMutation builds the command for op on entryID. change edits the working
// copy in place and must not touch other entries.
func (s *Store) newMutation(op, entryID string, change func(*snapshot) error) *Mutation {
	return &Mutation{Op: op, store: s, entryID: entryID, change: change}
}

// Prior returns the entry as it was before Apply, or nil when it did not
// exist or Apply has not run.
func (m *Mutation) Prior() *domain.Entry {
	if !m.applied || m.prior == nil {
		return nil
	}
	return m.prior.Clone()
}

// Apply records the touched state and installs the change. If change fails,
// nothing is installed and the error is returned.
func (m *Mutation) Apply() error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := m.change(&working); err != nil {
		return err
	}

	if m.entryID == "" {
		m.priorQ = append([]string(nil), s.state.queueOrder...)
	} else {
		m.prior, m.priorAt = nil, -1
		if i := indexOf(s.state.entries, m.entryID); i >= 0 {
			m.prior, m.priorAt = s.state.entries[i].Clone(), i
		}
		m.priorSlot = slices.Index(s.state.queueOrder, m.entryID)
	}

	m.applied = true
	s.state = working
	return nil
}

// Rollback reverts the touched entry (or the queue order) to its state
// before Apply. Calling it twice, or before Apply, is a no-op.
func (m *Mutation) Rollback() {
	if !m.applied {
		return
	}
	m.applied = false

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.entryID == "" {
		s.state.queueOrder = m.priorQ
		return
	}

	st := &s.state
	if i := indexOf(st.entries, m.entryID); i >= 0 {
		st.entries = slices.Delete(st.entries, i, i+1)
	}
	st.queueOrder = slices.DeleteFunc(st.queueOrder, func(qid string) bool { return qid == m.entryID })

	if m.prior == nil {
		return
	}
	st.entries = slices.Insert(st.entries, min(m.priorAt, len(st.entries)), m.prior.Clone())
	if m.priorSlot >= 0 {
		st.queueOrder = slices.Insert(st.queueOrder, min(m.priorSlot, len(st.queueOrder)), m.entryID)
	}
}
