package chat

import (
	"quill/internal/logging"
	"quill/internal/types"
)

// Controller interprets the daemon's event stream one event at a time and
// is the only entry point that mutates conversation state. Every transition
// is a synchronous reducer: read, compute, write, then the next event. No
// locking, because there is no parallelism to guard; what matters is
// idempotence and defensiveness against cross-kind reordering.
type Controller struct {
	transcript *Transcript
	pending    *PendingLedger
	resolver   *Resolver
	logger     logging.Logger

	// insertSeparator is a one-shot flag set when a tool on the open
	// message completes; the next non-empty chunk gets a paragraph break
	// so tool output and subsequent narration do not run together.
	insertSeparator bool
}

func NewController(logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Nop()
	}
	transcript := NewTranscript()
	pending := NewPendingLedger()
	return &Controller{
		transcript: transcript,
		pending:    pending,
		resolver:   NewResolver(transcript, pending, logger),
		logger:     logger,
	}
}

// Messages returns the current transcript snapshot for rendering.
func (c *Controller) Messages() []*types.ChatMessage {
	if c == nil {
		return nil
	}
	return c.transcript.Messages()
}

// Streaming reports whether an assistant turn is currently open.
func (c *Controller) Streaming() bool {
	return c != nil && c.openMessage() != nil
}

// AppendUserMessage records an outbound user message at send time. The
// daemon does not echo user messages back on the stream.
func (c *Controller) AppendUserMessage(content string) {
	if c == nil || content == "" {
		return
	}
	c.transcript.Append(&types.ChatMessage{
		Role:    types.RoleUser,
		Content: content,
	})
}

// Reset drops all conversation state, used when switching sessions before
// the new session's session_ready arrives.
func (c *Controller) Reset() {
	if c == nil {
		return
	}
	c.transcript.Reset()
	c.pending.Clear()
	c.insertSeparator = false
}

// Apply advances the state machine by one event. Malformed or reordered
// input degrades to a no-op, a deferral, or a best-effort placeholder;
// nothing aborts.
func (c *Controller) Apply(event types.ChatEvent) {
	if c == nil {
		return
	}
	switch event.Type {
	case types.EventSessionReady:
		c.handleSessionReady(event)
	case types.EventResponseStart:
		c.handleResponseStart()
	case types.EventResponseChunk:
		c.handleResponseChunk(event.Content)
	case types.EventResponseEnd:
		c.handleResponseEnd(event)
	case types.EventToolStart:
		c.handleToolStart(event)
	case types.EventToolInput:
		c.resolver.ApplyInput(event.ToolUseID, event.Input)
	case types.EventToolEnd:
		c.handleToolEnd(event)
	case types.EventError:
		c.handleError(event)
	default:
		c.logger.Debug("ignoring unknown chat event", logging.F("type", string(event.Type)))
	}
}

// openMessage returns the last message when it is an open assistant turn.
// At most one turn is open at a time.
func (c *Controller) openMessage() *types.ChatMessage {
	last := c.transcript.Last()
	if last == nil || last.Role != types.RoleAssistant || !last.IsStreaming {
		return nil
	}
	return last
}

// openTurn synthesizes a new open assistant message. Turn-opening is an
// idempotent side effect of the first event that needs it, not a
// precondition: chunks and tool starts race independently against
// response_start and must be able to open the turn themselves.
func (c *Controller) openTurn(content string) *types.ChatMessage {
	msg := &types.ChatMessage{
		Role:        types.RoleAssistant,
		Content:     content,
		IsStreaming: true,
	}
	c.insertSeparator = false
	c.transcript.Append(msg)
	return msg
}

func (c *Controller) handleSessionReady(event types.ChatEvent) {
	// Ledger entries refer to the previous connection and must be
	// discarded atomically with the transcript swap, or they could
	// misapply to a same-named tool in the new session.
	if event.Messages != nil {
		c.transcript.ReplaceAll(event.Messages)
	} else {
		c.transcript.Reset()
	}
	c.pending.Clear()
	c.insertSeparator = false
	c.logger.Info("session ready",
		logging.F("session_id", event.SessionID),
		logging.F("resumed_messages", len(event.Messages)))
}

func (c *Controller) handleResponseStart() {
	// A duplicate or late start must never fork a second message.
	if c.openMessage() != nil {
		c.logger.Debug("response_start with open turn, ignoring")
		return
	}
	c.openTurn("")
}

func (c *Controller) handleResponseChunk(text string) {
	if text == "" {
		return
	}
	open := c.openMessage()
	if open == nil {
		// A lost or reordered response_start must never drop text.
		if c.transcript.Len() > 0 {
			c.logger.Debug("response_chunk without open turn, synthesizing message")
		}
		c.openTurn(text)
		return
	}
	if c.insertSeparator {
		c.insertSeparator = false
		if open.Content != "" {
			text = "\n\n" + text
		}
	}
	appended := c.transcript.MutateLastIf(
		func(msg *types.ChatMessage) bool {
			return msg.Role == types.RoleAssistant && msg.IsStreaming
		},
		func(msg *types.ChatMessage) {
			msg.Content += text
		},
	)
	if !appended {
		c.logger.Warn("refused chunk append to non-streaming tail")
	}
}

func (c *Controller) handleResponseEnd(event types.ChatEvent) {
	closed := c.transcript.MutateLastIf(
		func(msg *types.ChatMessage) bool {
			return msg.Role == types.RoleAssistant && msg.IsStreaming
		},
		func(msg *types.ChatMessage) {
			msg.IsStreaming = false
			if event.ContextUsage != nil {
				usage := *event.ContextUsage
				msg.ContextUsage = &usage
			}
			if event.DurationMs != nil {
				duration := *event.DurationMs
				msg.DurationMs = &duration
			}
		},
	)
	if !closed {
		c.logger.Debug("response_end without open turn, ignoring")
	}
	c.insertSeparator = false
}

func (c *Controller) handleToolStart(event types.ChatEvent) {
	if event.ToolUseID == "" {
		c.logger.Warn("tool_start without tool_use_id, ignoring")
		return
	}
	if _, inv := c.resolver.findOwner(event.ToolUseID); inv != nil {
		c.logger.Debug("duplicate tool_start, ignoring", logging.F("tool_use_id", event.ToolUseID))
		return
	}
	inv := types.ToolInvocation{
		ToolUseID: event.ToolUseID,
		ToolName:  event.ToolName,
		Status:    types.ToolStatusRunning,
	}
	// Seed from facts that outran this tool_start so a start arriving last
	// among its own lifecycle events still yields a complete invocation.
	if update, ok := c.pending.Consume(event.ToolUseID); ok {
		if update.Input != nil {
			inv.Input = update.Input
		}
		if update.HasOutput {
			inv.Output = update.Output
		}
		if update.Status != "" {
			inv.Status = update.Status
		} else if update.HasOutput {
			inv.Status = types.ToolStatusComplete
		}
	}
	open := c.openMessage()
	if open == nil {
		open = c.openTurn("")
	}
	open.ToolInvocations = append(open.ToolInvocations, inv)
	if inv.Status == types.ToolStatusComplete {
		c.insertSeparator = true
	}
}

func (c *Controller) handleToolEnd(event types.ChatEvent) {
	ownerIsLast := c.resolver.ApplyOutput(event.ToolUseID, event.Output, types.ToolStatusComplete)
	if ownerIsLast && c.openMessage() != nil {
		c.insertSeparator = true
	}
}

func (c *Controller) handleError(event types.ChatEvent) {
	// Code-specific recovery belongs to the session-selection layer; here
	// an error only means the turn is no longer open.
	c.logger.Warn("stream error",
		logging.F("code", event.Code),
		logging.F("message", event.Message))
	c.transcript.MutateLastIf(
		func(msg *types.ChatMessage) bool {
			return msg.Role == types.RoleAssistant && msg.IsStreaming
		},
		func(msg *types.ChatMessage) {
			msg.IsStreaming = false
		},
	)
	c.insertSeparator = false
}
