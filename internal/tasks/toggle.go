package tasks

import (
	"quill/internal/types"
)

// TaskKey identifies one checklist line.
type TaskKey struct {
	FilePath   string
	LineNumber int
}

// PersistRequest is emitted to the authoritative writer after a local
// toggle has already been applied.
type PersistRequest struct {
	FilePath   string
	LineNumber int
	State      string
}

// Tracker applies checklist toggles optimistically: the new state is
// computed and surfaced immediately, the pre-mutation state is recorded so
// a failed authoritative write can be compensated. The tracker never rolls
// back on its own; only the caller observing the failure can weigh retry
// against revert.
type Tracker struct {
	rollbacks map[TaskKey]string
}

func NewTracker() *Tracker {
	return &Tracker{rollbacks: make(map[TaskKey]string)}
}

// Toggle advances the task one step along the state cycle and returns the
// new state plus the persistence request for the caller to send. The
// rollback value is recorded only for the first toggle of an in-flight key,
// so rapid repeat toggles still revert to the true original state.
func (t *Tracker) Toggle(filePath string, lineNumber int, currentState string) (string, PersistRequest) {
	next := types.NextTaskState(currentState)
	if t != nil {
		key := TaskKey{FilePath: filePath, LineNumber: lineNumber}
		if _, exists := t.rollbacks[key]; !exists {
			t.rollbacks[key] = currentState
		}
	}
	return next, PersistRequest{
		FilePath:   filePath,
		LineNumber: lineNumber,
		State:      next,
	}
}

// Rollback returns the recorded pre-mutation state and drops the entry.
func (t *Tracker) Rollback(filePath string, lineNumber int) (string, bool) {
	if t == nil {
		return "", false
	}
	key := TaskKey{FilePath: filePath, LineNumber: lineNumber}
	original, ok := t.rollbacks[key]
	if !ok {
		return "", false
	}
	delete(t.rollbacks, key)
	return original, true
}

// Confirm drops the rollback entry after the authoritative write succeeded.
func (t *Tracker) Confirm(filePath string, lineNumber int) {
	if t == nil {
		return
	}
	delete(t.rollbacks, TaskKey{FilePath: filePath, LineNumber: lineNumber})
}

// InFlight reports whether a toggle for the key awaits confirmation.
func (t *Tracker) InFlight(filePath string, lineNumber int) bool {
	if t == nil {
		return false
	}
	_, ok := t.rollbacks[TaskKey{FilePath: filePath, LineNumber: lineNumber}]
	return ok
}
