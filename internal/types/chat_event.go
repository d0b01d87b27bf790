package types

import "encoding/json"

type ChatEventType string

const (
	EventSessionReady  ChatEventType = "session_ready"
	EventResponseStart ChatEventType = "response_start"
	EventResponseChunk ChatEventType = "response_chunk"
	EventResponseEnd   ChatEventType = "response_end"
	EventToolStart     ChatEventType = "tool_start"
	EventToolInput     ChatEventType = "tool_input"
	EventToolEnd       ChatEventType = "tool_end"
	EventError         ChatEventType = "error"
)

// ChatEvent is the tagged record delivered by the daemon's event stream.
// The stream is in-order per connection but carries no ordering contract
// across event kinds; the reconciler owns all defensiveness against that.
type ChatEvent struct {
	Type ChatEventType `json:"type"`

	// session_ready
	SessionID string        `json:"sessionId,omitempty"`
	CreatedAt string        `json:"createdAt,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`

	// response_chunk
	Content string `json:"content,omitempty"`

	// response_end
	ContextUsage *int   `json:"contextUsage,omitempty"`
	DurationMs   *int64 `json:"durationMs,omitempty"`

	// tool lifecycle
	ToolUseID string          `json:"toolUseId,omitempty"`
	ToolName  string          `json:"toolName,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    string          `json:"output,omitempty"`

	// error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
