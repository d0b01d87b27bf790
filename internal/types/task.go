package types

import "time"

// Task state codes cycle in a fixed order; toggling advances one step and
// wraps after the last code.
const (
	TaskStateOpen      = " "
	TaskStateDone      = "x"
	TaskStateInFlight  = "/"
	TaskStateQuestion  = "?"
	TaskStateBlocked   = "b"
	TaskStateForwarded = "f"
)

var TaskStateCycle = []string{
	TaskStateOpen,
	TaskStateDone,
	TaskStateInFlight,
	TaskStateQuestion,
	TaskStateBlocked,
	TaskStateForwarded,
}

// NextTaskState advances one step along the cycle. Unknown codes restart the
// cycle at the first code rather than failing.
func NextTaskState(state string) string {
	for i, code := range TaskStateCycle {
		if code == state {
			return TaskStateCycle[(i+1)%len(TaskStateCycle)]
		}
	}
	return TaskStateCycle[0]
}

// TaskItem is one checklist line in a vault note, identified by
// (FilePath, LineNumber).
type TaskItem struct {
	FilePath   string    `json:"filePath"`
	LineNumber int       `json:"lineNumber"`
	State      string    `json:"state"`
	Text       string    `json:"text,omitempty"`
	FileMtime  time.Time `json:"fileMtime,omitempty"`
}

type Vault struct {
	Name      string    `json:"name"`
	Path      string    `json:"path,omitempty"`
	NoteCount int       `json:"noteCount,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}
