package domain

import (
	"time"
)

// StepID identifies a single question in a dialog flow. The concrete set of
// steps is schema data, not behavior.
type StepID string

// Answers holds everything collected from a user so far, keyed by the step's
// answer key ("occasion", "budget", ...). Values are strings, ints, or
// ordered string lists.
type Answers map[string]any

// Clone returns a deep copy. String slices are copied so mutations on the
// clone never leak into the original.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// String returns the string value for key, or "" if absent or not a string.
func (a Answers) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the int value for key, or 0 if absent or not an int.
func (a Answers) Int(key string) int {
	if v, ok := a[key].(int); ok {
		return v
	}
	return 0
}

// List returns the string list value for key, or nil.
func (a Answers) List(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// HistoryFrame marks one step on the navigation stack together with a
// snapshot of the answers as they stood when the step became current.
// The snapshot is what "back" restores, so choices made at later steps
// never leak backwards.
type HistoryFrame struct {
	Step     StepID
	Snapshot Answers
}

// Session is the per-conversation dialog state: a navigation stack plus the
// collected answers. The bottom frame is always the first step of the flow,
// so History is never empty while the session is alive.
type Session struct {
	ID        string
	Flow      string
	History   []HistoryFrame
	Answers   Answers
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a session positioned at the first step of the given flow.
func NewSession(id, flow string, first StepID) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Flow:      flow,
		History:   []HistoryFrame{{Step: first, Snapshot: Answers{}}},
		Answers:   Answers{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentStep returns the step the session is waiting on.
func (s *Session) CurrentStep() StepID {
	return s.History[len(s.History)-1].Step
}

// Push advances the session to the next step, snapshotting the answers so a
// later Pop can roll them back.
func (s *Session) Push(next StepID) {
	s.History = append(s.History, HistoryFrame{Step: next, Snapshot: s.Answers.Clone()})
	s.UpdatedAt = time.Now()
}

// Pop returns to the previous step and restores the answers to the snapshot
// taken when that step became current. The bottom frame is sticky: Pop on a
// single-frame history returns false and changes nothing.
func (s *Session) Pop() bool {
	if len(s.History) <= 1 {
		return false
	}
	s.History = s.History[:len(s.History)-1]
	s.Answers = s.History[len(s.History)-1].Snapshot.Clone()
	s.UpdatedAt = time.Now()
	return true
}

// Depth returns the number of frames on the navigation stack.
func (s *Session) Depth() int {
	return len(s.History)
}
