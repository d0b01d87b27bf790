package chat

import (
	"encoding/json"
	"testing"

	"quill/internal/types"
)

func newResolverFixture() (*Transcript, *PendingLedger, *Resolver) {
	transcript := NewTranscript()
	pending := NewPendingLedger()
	return transcript, pending, NewResolver(transcript, pending, nil)
}

func TestFindOwnerScansMostRecentFirst(t *testing.T) {
	transcript, _, resolver := newResolverFixture()
	transcript.Append(&types.ChatMessage{
		Role:            types.RoleAssistant,
		ToolInvocations: []types.ToolInvocation{{ToolUseID: "dup", ToolName: "old"}},
	})
	transcript.Append(&types.ChatMessage{Role: types.RoleUser, Content: "q"})
	transcript.Append(&types.ChatMessage{
		Role:            types.RoleAssistant,
		ToolInvocations: []types.ToolInvocation{{ToolUseID: "dup", ToolName: "new"}},
	})

	_, inv := resolver.findOwner("dup")
	if inv == nil || inv.ToolName != "new" {
		t.Fatalf("expected most recent owner, got %+v", inv)
	}
}

func TestApplyInputMutatesOwnerInPlace(t *testing.T) {
	transcript, pending, resolver := newResolverFixture()
	transcript.Append(&types.ChatMessage{
		Role:            types.RoleAssistant,
		ToolInvocations: []types.ToolInvocation{{ToolUseID: "t1", Status: types.ToolStatusRunning}},
	})

	resolver.ApplyInput("t1", json.RawMessage(`{"x":1}`))
	if string(transcript.Last().ToolInvocations[0].Input) != `{"x":1}` {
		t.Fatalf("input not applied in place")
	}
	if pending.Len() != 0 {
		t.Fatalf("hit should not touch the ledger")
	}
}

func TestApplyOutputMissDefersToLedger(t *testing.T) {
	_, pending, resolver := newResolverFixture()
	if ownerIsLast := resolver.ApplyOutput("ghost", "out", types.ToolStatusComplete); ownerIsLast {
		t.Fatalf("miss cannot report last-owner")
	}
	entry, ok := pending.Consume("ghost")
	if !ok || entry.Output != "out" || entry.Status != types.ToolStatusComplete {
		t.Fatalf("deferred fact missing or incomplete: %+v", entry)
	}
}

func TestApplyOutputReportsOwnerIsLast(t *testing.T) {
	transcript, _, resolver := newResolverFixture()
	transcript.Append(&types.ChatMessage{
		Role:            types.RoleAssistant,
		ToolInvocations: []types.ToolInvocation{{ToolUseID: "t1", Status: types.ToolStatusRunning}},
	})
	transcript.Append(&types.ChatMessage{Role: types.RoleUser, Content: "next"})

	if ownerIsLast := resolver.ApplyOutput("t1", "out", types.ToolStatusComplete); ownerIsLast {
		t.Fatalf("owner is not the last message")
	}
	if transcript.messages[0].ToolInvocations[0].Output != "out" {
		t.Fatalf("output not applied to interior owner")
	}
}
