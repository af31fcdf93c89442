// Package history keeps linear undo/redo stacks of source snapshots.
package history

// DefaultLimit bounds the undo stack when no limit is configured.
const DefaultLimit = 200

// Manager holds past and future snapshots. It is not safe for concurrent
// use; the owning document serializes access.
type Manager struct {
	past   []string
	future []string
	limit  int
}

// New returns a Manager keeping at most limit undo steps. A limit below 1
// uses DefaultLimit.
func New(limit int) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit}
}

// Record notes a committed change from prev to next. Equal snapshots are
// ignored. Recording clears the redo stack.
func (m *Manager) Record(prev, next string) bool {
	if prev == next {
		return false
	}
	m.past = append(m.past, prev)
	if over := len(m.past) - m.limit; over > 0 {
		m.past = append([]string(nil), m.past[over:]...)
	}
	m.future = m.future[:0]
	return true
}

// Undo pops the most recent past snapshot, pushing current onto the redo
// stack.
func (m *Manager) Undo(current string) (string, bool) {
	if len(m.past) == 0 {
		return "", false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, current)
	return prev, true
}

// Redo pops the most recent future snapshot, pushing current onto the undo
// stack.
func (m *Manager) Redo(current string) (string, bool) {
	if len(m.future) == 0 {
		return "", false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, current)
	return next, true
}

func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) { return len(m.past), len(m.future) }

// Reset drops both stacks.
func (m *Manager) Reset() {
	m.past = nil
	m.future = nil
}

// State is a serializable copy of the stacks.
type State struct {
	Past   []string `json:"past"`
	Future []string `json:"future"`
}

// Export copies the stacks for storage.
func (m *Manager) Export() State {
	return State{
		Past:   append([]string(nil), m.past...),
		Future: append([]string(nil), m.future...),
	}
}

// Restore replaces the stacks with a stored copy, trimming to the limit.
func (m *Manager) Restore(s State) {
	m.past = append([]string(nil), s.Past...)
	if over := len(m.past) - m.limit; over > 0 {
		m.past = m.past[over:]
	}
	m.future = append([]string(nil), s.Future...)
}
