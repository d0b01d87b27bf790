package chat

import (
	"encoding/json"

	"quill/internal/logging"
	"quill/internal/types"
)

// Resolver locates the message owning a tool invocation and mutates its
// status in place. When the owner does not exist yet the fact is deferred
// into the pending ledger rather than dropped: the owning tool_start may
// simply not have been processed, since the transport does not order events
// across kinds.
type Resolver struct {
	transcript *Transcript
	pending    *PendingLedger
	logger     logging.Logger
}

func NewResolver(transcript *Transcript, pending *PendingLedger, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{transcript: transcript, pending: pending, logger: logger}
}

// findOwner scans from the most recent message backward; tools are
// overwhelmingly referenced by the most recent exchange. It returns the
// owning assistant message and the matched invocation, or nils.
func (r *Resolver) findOwner(toolUseID string) (*types.ChatMessage, *types.ToolInvocation) {
	if r == nil || r.transcript == nil || toolUseID == "" {
		return nil, nil
	}
	for i := r.transcript.Len() - 1; i >= 0; i-- {
		msg := r.transcript.messages[i]
		if msg.Role != types.RoleAssistant {
			continue
		}
		for j := range msg.ToolInvocations {
			if msg.ToolInvocations[j].ToolUseID == toolUseID {
				return msg, &msg.ToolInvocations[j]
			}
		}
	}
	return nil, nil
}

func (r *Resolver) ApplyInput(toolUseID string, input json.RawMessage) {
	if r == nil {
		return
	}
	if _, inv := r.findOwner(toolUseID); inv != nil {
		inv.Input = input
		return
	}
	r.logger.Debug("tool input before tool_start, deferring", logging.F("tool_use_id", toolUseID))
	r.pending.UpsertInput(toolUseID, input)
}

// ApplyOutput records a tool's output and final status. It reports whether
// the owner is the transcript's last message, which the controller uses to
// schedule a narration separator.
func (r *Resolver) ApplyOutput(toolUseID, output string, status types.ToolStatus) (ownerIsLast bool) {
	if r == nil {
		return false
	}
	owner, inv := r.findOwner(toolUseID)
	if inv == nil {
		r.logger.Debug("tool output before tool_start, deferring", logging.F("tool_use_id", toolUseID))
		r.pending.UpsertOutput(toolUseID, output, status)
		return false
	}
	inv.Output = output
	if status != "" {
		inv.Status = status
	}
	return owner == r.transcript.Last()
}
