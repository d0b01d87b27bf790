package chat

import (
	"fmt"
	"time"

	"quill/internal/types"
)

// Transcript is the ordered list of conversation messages and the sole
// source of truth for rendering. It is append-only: no operation removes
// interior elements, so "the last message" stays a stable concept. The only
// in-place mutation allowed is of the last element while it streams, or of
// any element's tool invocations.
type Transcript struct {
	messages []*types.ChatMessage
	nextID   int
	now      func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.messages)
}

func (t *Transcript) Last() *types.ChatMessage {
	if t == nil || len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}

func (t *Transcript) Append(msg *types.ChatMessage) {
	if t == nil || msg == nil {
		return
	}
	if msg.ID == "" {
		msg.ID = t.nextMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = t.now().UTC()
	}
	t.messages = append(t.messages, msg)
}

// MutateLastIf applies fn to the final message when pred accepts it. It
// reports whether the mutation ran; a refused mutation never touches any
// other message.
func (t *Transcript) MutateLastIf(pred func(*types.ChatMessage) bool, fn func(*types.ChatMessage)) bool {
	last := t.Last()
	if last == nil || pred == nil || fn == nil || !pred(last) {
		return false
	}
	fn(last)
	return true
}

// ReplaceAll swaps in a resumed transcript, used only on session resume.
// The incoming messages were persisted by a now-dead connection, so they
// are normalized on ingestion: timestamps collapse to one canonical value,
// open turns close, and any tool still "running" is rewritten to "complete"
// with a sentinel output. A resumed transcript must never leave an
// unresolvable pending state behind.
func (t *Transcript) ReplaceAll(messages []types.ChatMessage) {
	if t == nil {
		return
	}
	canonical := t.now().UTC()
	replaced := make([]*types.ChatMessage, 0, len(messages))
	for i := range messages {
		msg := messages[i]
		msg.Timestamp = canonical
		msg.IsStreaming = false
		if msg.ID == "" {
			msg.ID = t.nextMessageID()
		}
		for j := range msg.ToolInvocations {
			inv := &msg.ToolInvocations[j]
			if inv.Status != types.ToolStatusComplete {
				inv.Status = types.ToolStatusComplete
				if inv.Output == "" {
					inv.Output = types.InterruptedToolOutput
				}
			}
		}
		replaced = append(replaced, &msg)
	}
	t.messages = replaced
}

func (t *Transcript) Reset() {
	if t == nil {
		return
	}
	t.messages = nil
}

// Messages returns a cloned snapshot safe to hand to the renderer.
func (t *Transcript) Messages() []*types.ChatMessage {
	if t == nil || len(t.messages) == 0 {
		return nil
	}
	out := make([]*types.ChatMessage, len(t.messages))
	for i, msg := range t.messages {
		out[i] = types.CloneChatMessage(msg)
	}
	return out
}

// nextMessageID issues opaque, creation-ordered ids.
func (t *Transcript) nextMessageID() string {
	t.nextID++
	return fmt.Sprintf("msg_%06d", t.nextID)
}
