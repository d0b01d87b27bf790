package types

import (
	"encoding/json"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type ToolStatus string

const (
	ToolStatusRunning  ToolStatus = "running"
	ToolStatusComplete ToolStatus = "complete"
)

// InterruptedToolOutput is attached to tool invocations that were still
// running when the connection that owned them died. A resumed transcript
// must never carry an unresolvable "running" tool.
const InterruptedToolOutput = "[Connection closed before tool completed]"

type ToolInvocation struct {
	ToolUseID string          `json:"toolUseId"`
	ToolName  string          `json:"toolName"`
	Status    ToolStatus      `json:"status"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    string          `json:"output,omitempty"`
}

// ChatMessage is one transcript entry. Content is append-only while
// IsStreaming is true and frozen afterwards. Only assistant messages carry
// tool invocations or an open streaming flag.
type ChatMessage struct {
	ID              string           `json:"id"`
	Role            MessageRole      `json:"role"`
	Content         string           `json:"content"`
	Timestamp       time.Time        `json:"timestamp"`
	IsStreaming     bool             `json:"isStreaming,omitempty"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
	ContextUsage    *int             `json:"contextUsage,omitempty"`
	DurationMs      *int64           `json:"durationMs,omitempty"`
}

// CloneChatMessage returns a deep copy so snapshots handed to the renderer
// cannot alias reconciler-owned state.
func CloneChatMessage(msg *ChatMessage) *ChatMessage {
	if msg == nil {
		return nil
	}
	copied := *msg
	if msg.ToolInvocations != nil {
		copied.ToolInvocations = make([]ToolInvocation, len(msg.ToolInvocations))
		for i, inv := range msg.ToolInvocations {
			copied.ToolInvocations[i] = CloneToolInvocation(inv)
		}
	}
	if msg.ContextUsage != nil {
		usage := *msg.ContextUsage
		copied.ContextUsage = &usage
	}
	if msg.DurationMs != nil {
		duration := *msg.DurationMs
		copied.DurationMs = &duration
	}
	return &copied
}

func CloneToolInvocation(inv ToolInvocation) ToolInvocation {
	copied := inv
	if inv.Input != nil {
		copied.Input = append(json.RawMessage(nil), inv.Input...)
	}
	return copied
}
