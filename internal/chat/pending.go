package chat

import (
	"encoding/json"

	"quill/internal/types"
)

// PendingToolUpdate holds lifecycle facts that arrived before the tool they
// describe existed. HasOutput distinguishes "no output yet" from an empty
// output string.
type PendingToolUpdate struct {
	Input     json.RawMessage
	Output    string
	HasOutput bool
	Status    types.ToolStatus
}

// PendingLedger is the side buffer for out-of-order tool lifecycle facts,
// keyed by tool-use id. Entries exist only for ids not yet attached to a
// message and are consumed exactly once, when the owning tool is created.
type PendingLedger struct {
	updates map[string]PendingToolUpdate
}

func NewPendingLedger() *PendingLedger {
	return &PendingLedger{updates: make(map[string]PendingToolUpdate)}
}

// UpsertInput merges an input into any existing entry so independently
// reordered input and output for the same tool both survive.
func (l *PendingLedger) UpsertInput(toolUseID string, input json.RawMessage) {
	if l == nil || toolUseID == "" {
		return
	}
	entry := l.updates[toolUseID]
	entry.Input = input
	l.updates[toolUseID] = entry
}

func (l *PendingLedger) UpsertOutput(toolUseID, output string, status types.ToolStatus) {
	if l == nil || toolUseID == "" {
		return
	}
	entry := l.updates[toolUseID]
	entry.Output = output
	entry.HasOutput = true
	if status != "" {
		entry.Status = status
	}
	l.updates[toolUseID] = entry
}

// Consume returns and deletes the entry for toolUseID.
func (l *PendingLedger) Consume(toolUseID string) (PendingToolUpdate, bool) {
	if l == nil {
		return PendingToolUpdate{}, false
	}
	entry, ok := l.updates[toolUseID]
	if ok {
		delete(l.updates, toolUseID)
	}
	return entry, ok
}

func (l *PendingLedger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.updates)
}

// Clear discards every entry. Called on session switch: stale entries refer
// to a dead connection and must never leak into the new one.
func (l *PendingLedger) Clear() {
	if l == nil {
		return
	}
	l.updates = make(map[string]PendingToolUpdate)
}
