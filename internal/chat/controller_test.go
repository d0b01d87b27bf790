package chat

import (
	"encoding/json"
	"testing"

	"quill/internal/types"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func applyAll(t *testing.T, controller *Controller, events ...types.ChatEvent) {
	t.Helper()
	for _, event := range events {
		controller.Apply(event)
	}
}

func singleMessage(t *testing.T, controller *Controller) *types.ChatMessage {
	t.Helper()
	messages := controller.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(messages))
	}
	return messages[0]
}

func TestResponseStartIsIdempotent(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "hello"},
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseStart},
	)
	msg := singleMessage(t, controller)
	if msg.Content != "hello" {
		t.Fatalf("duplicate response_start mutated content: %q", msg.Content)
	}
	if !msg.IsStreaming {
		t.Fatalf("expected turn to remain open")
	}
}

func TestChunkWithoutStartSynthesizesTurn(t *testing.T) {
	controller := NewController(nil)
	controller.Apply(types.ChatEvent{Type: types.EventResponseChunk, Content: "orphan text"})
	msg := singleMessage(t, controller)
	if msg.Role != types.RoleAssistant || msg.Content != "orphan text" {
		t.Fatalf("unexpected synthesized message: %+v", msg)
	}
	if !msg.IsStreaming {
		t.Fatalf("synthesized turn should be open")
	}
}

func TestChunkAfterUserMessageDoesNotCorruptIt(t *testing.T) {
	controller := NewController(nil)
	controller.AppendUserMessage("my question")
	controller.Apply(types.ChatEvent{Type: types.EventResponseChunk, Content: "answer"})
	messages := controller.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "my question" {
		t.Fatalf("user message was mutated: %q", messages[0].Content)
	}
	if messages[1].Role != types.RoleAssistant || messages[1].Content != "answer" {
		t.Fatalf("unexpected assistant message: %+v", messages[1])
	}
}

func TestToolLifecycleOrderIndependence(t *testing.T) {
	input := json.RawMessage(`{"path":"note.md"}`)
	start := types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"}
	in := types.ChatEvent{Type: types.EventToolInput, ToolUseID: "t1", Input: input}
	end := types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t1", Output: "contents"}

	orderings := [][]types.ChatEvent{
		{start, in, end},
		{start, end, in},
		{in, start, end},
		{in, end, start},
		{end, start, in},
		{end, in, start},
	}
	for i, ordering := range orderings {
		controller := NewController(nil)
		controller.Apply(types.ChatEvent{Type: types.EventResponseStart})
		applyAll(t, controller, ordering...)

		msg := singleMessage(t, controller)
		if len(msg.ToolInvocations) != 1 {
			t.Fatalf("ordering %d: expected one invocation, got %d", i, len(msg.ToolInvocations))
		}
		inv := msg.ToolInvocations[0]
		if inv.ToolUseID != "t1" || inv.ToolName != "Read" {
			t.Fatalf("ordering %d: unexpected identity: %+v", i, inv)
		}
		if inv.Status != types.ToolStatusComplete {
			t.Fatalf("ordering %d: expected complete, got %q", i, inv.Status)
		}
		if string(inv.Input) != string(input) {
			t.Fatalf("ordering %d: input lost: %q", i, string(inv.Input))
		}
		if inv.Output != "contents" {
			t.Fatalf("ordering %d: output lost: %q", i, inv.Output)
		}
	}
}

func TestToolEndBeforeStart(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t9", Output: "output-early"},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t9", ToolName: "Write"},
	)
	msg := singleMessage(t, controller)
	if len(msg.ToolInvocations) != 1 {
		t.Fatalf("expected one invocation, got %d", len(msg.ToolInvocations))
	}
	inv := msg.ToolInvocations[0]
	if inv.ToolUseID != "t9" || inv.ToolName != "Write" {
		t.Fatalf("unexpected identity: %+v", inv)
	}
	if inv.Status != types.ToolStatusComplete || inv.Output != "output-early" {
		t.Fatalf("pending output not seeded: %+v", inv)
	}
}

func TestDuplicateToolStartIsIgnored(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"},
	)
	msg := singleMessage(t, controller)
	if len(msg.ToolInvocations) != 1 {
		t.Fatalf("duplicate tool_start forked invocation: %d", len(msg.ToolInvocations))
	}
}

func TestExactlyOneSeparator(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "Checking."},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"},
		types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t1", Output: "a"},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t2", ToolName: "Read"},
		types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t2", Output: "b"},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "Done"},
		types.ChatEvent{Type: types.EventResponseChunk, Content: " and verified."},
	)
	msg := singleMessage(t, controller)
	want := "Checking.\n\nDone and verified."
	if msg.Content != want {
		t.Fatalf("separator misplaced:\n got %q\nwant %q", msg.Content, want)
	}
}

func TestToolThenNarrationScenario(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "Let me check that file."},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"},
		types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t1", Output: "contents"},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "I found the file."},
		types.ChatEvent{Type: types.EventResponseEnd},
	)
	msg := singleMessage(t, controller)
	if msg.Content != "Let me check that file.\n\nI found the file." {
		t.Fatalf("unexpected content: %q", msg.Content)
	}
	if msg.IsStreaming {
		t.Fatalf("expected closed turn")
	}
	if len(msg.ToolInvocations) != 1 || msg.ToolInvocations[0].Status != types.ToolStatusComplete {
		t.Fatalf("unexpected invocations: %+v", msg.ToolInvocations)
	}
}

func TestResponseEndAttachesMetadata(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "ok"},
		types.ChatEvent{Type: types.EventResponseEnd, ContextUsage: intPtr(42), DurationMs: int64Ptr(1500)},
	)
	msg := singleMessage(t, controller)
	if msg.ContextUsage == nil || *msg.ContextUsage != 42 {
		t.Fatalf("context usage not attached: %v", msg.ContextUsage)
	}
	if msg.DurationMs == nil || *msg.DurationMs != 1500 {
		t.Fatalf("duration not attached: %v", msg.DurationMs)
	}
}

func TestSessionReadyNormalizesResumedTranscript(t *testing.T) {
	controller := NewController(nil)
	controller.Apply(types.ChatEvent{
		Type: types.EventSessionReady,
		Messages: []types.ChatMessage{
			{
				Role:    types.RoleAssistant,
				Content: "c",
				ToolInvocations: []types.ToolInvocation{
					{ToolUseID: "t1", ToolName: "Read", Status: types.ToolStatusRunning},
					{ToolUseID: "t2", ToolName: "Write", Status: types.ToolStatusComplete, Output: "done"},
				},
			},
		},
	})
	msg := singleMessage(t, controller)
	frozen := msg.ToolInvocations[0]
	if frozen.Status != types.ToolStatusComplete {
		t.Fatalf("frozen tool not normalized: %q", frozen.Status)
	}
	if frozen.Output != types.InterruptedToolOutput {
		t.Fatalf("expected sentinel output, got %q", frozen.Output)
	}
	finished := msg.ToolInvocations[1]
	if finished.Output != "done" {
		t.Fatalf("completed tool was rewritten: %+v", finished)
	}
}

func TestSessionReadyClearsPendingLedger(t *testing.T) {
	controller := NewController(nil)
	// A fact for a tool that never got its start on the old connection.
	controller.Apply(types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "stale", Output: "old-session"})
	controller.Apply(types.ChatEvent{Type: types.EventSessionReady, Messages: []types.ChatMessage{}})
	// Same id in the new session must start clean.
	controller.Apply(types.ChatEvent{Type: types.EventToolStart, ToolUseID: "stale", ToolName: "Read"})

	msg := singleMessage(t, controller)
	inv := msg.ToolInvocations[0]
	if inv.Status != types.ToolStatusRunning || inv.Output != "" {
		t.Fatalf("stale ledger entry leaked across sessions: %+v", inv)
	}
}

func TestErrorClosesOpenTurn(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "partial"},
		types.ChatEvent{Type: types.EventError, Code: "overloaded", Message: "try later"},
	)
	msg := singleMessage(t, controller)
	if msg.IsStreaming {
		t.Fatalf("error should close the turn")
	}
	if msg.Content != "partial" {
		t.Fatalf("error mutated content: %q", msg.Content)
	}
}

func TestToolStartWithoutOpenTurnSynthesizesMessage(t *testing.T) {
	controller := NewController(nil)
	controller.Apply(types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Search"})
	msg := singleMessage(t, controller)
	if msg.Role != types.RoleAssistant || !msg.IsStreaming {
		t.Fatalf("expected synthesized open assistant message: %+v", msg)
	}
	if len(msg.ToolInvocations) != 1 || msg.ToolInvocations[0].Status != types.ToolStatusRunning {
		t.Fatalf("unexpected invocations: %+v", msg.ToolInvocations)
	}
}

func TestLateToolEndAfterTurnClosedDoesNotSeparateNextTurn(t *testing.T) {
	controller := NewController(nil)
	applyAll(t, controller,
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventToolStart, ToolUseID: "t1", ToolName: "Read"},
		types.ChatEvent{Type: types.EventResponseEnd},
		types.ChatEvent{Type: types.EventToolEnd, ToolUseID: "t1", Output: "late"},
		types.ChatEvent{Type: types.EventResponseStart},
		types.ChatEvent{Type: types.EventResponseChunk, Content: "next turn"},
	)
	messages := controller.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ToolInvocations[0].Output != "late" {
		t.Fatalf("late tool_end not applied to owner")
	}
	if messages[1].Content != "next turn" {
		t.Fatalf("separator leaked into next turn: %q", messages[1].Content)
	}
}
