package tui

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"quill/internal/types"
)

// renderTranscript formats the reconciled transcript for the viewport. It
// reads only the cloned snapshot handed out by the controller.
func renderTranscript(messages []*types.ChatMessage, width int, streamingGlyph string) string {
	if len(messages) == 0 {
		return metaStyle.Render("No messages yet. Type below to talk to your vault.")
	}
	var out strings.Builder
	for i, msg := range messages {
		if i > 0 {
			out.WriteString("\n\n")
		}
		switch msg.Role {
		case types.RoleUser:
			out.WriteString(userHeaderStyle.Render("You"))
			out.WriteByte('\n')
			out.WriteString(msg.Content)
		case types.RoleAssistant:
			header := "Assistant"
			if msg.IsStreaming && streamingGlyph != "" {
				header += " " + streamingGlyph
			}
			out.WriteString(assistantHeaderStyle.Render(header))
			for _, inv := range msg.ToolInvocations {
				out.WriteByte('\n')
				out.WriteString(renderToolInvocation(inv))
			}
			if msg.Content != "" {
				out.WriteByte('\n')
				out.WriteString(renderMarkdown(msg.Content, width))
			}
			if meta := renderMessageMeta(msg); meta != "" {
				out.WriteByte('\n')
				out.WriteString(metaStyle.Render(meta))
			}
		}
	}
	return out.String()
}

func renderToolInvocation(inv types.ToolInvocation) string {
	name := inv.ToolName
	if name == "" {
		name = inv.ToolUseID
	}
	switch inv.Status {
	case types.ToolStatusRunning:
		return toolRunningStyle.Render("⚙ " + name + " …")
	default:
		line := "⚙ " + name + " ✓"
		if inv.Output == types.InterruptedToolOutput {
			line = "⚙ " + name + " ✗ " + inv.Output
		}
		return toolCompleteStyle.Render(line)
	}
}

func renderMessageMeta(msg *types.ChatMessage) string {
	var parts []string
	if msg.DurationMs != nil {
		parts = append(parts, fmt.Sprintf("%.1fs", float64(*msg.DurationMs)/1000))
	}
	if msg.ContextUsage != nil {
		parts = append(parts, fmt.Sprintf("context %d%%", *msg.ContextUsage))
	}
	return strings.Join(parts, " · ")
}

// renderTaskPanel lists vault tasks with the cursor row highlighted and
// in-flight toggles marked until the daemon confirms them.
func renderTaskPanel(items []types.TaskItem, cursor, width int, inFlight func(types.TaskItem) bool) string {
	if len(items) == 0 {
		return metaStyle.Render("No tasks in this vault.")
	}
	var out strings.Builder
	for i, item := range items {
		line := fmt.Sprintf("[%s] %s  %s:%d", item.State, item.Text, item.FilePath, item.LineNumber)
		line = runewidth.Truncate(line, max(1, width-2), "…")
		if inFlight != nil && inFlight(item) {
			line = taskPendingStyle.Render(line)
		}
		if i == cursor {
			line = taskSelectedStyle.Render(line)
		}
		out.WriteString(line)
		if i < len(items)-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// statusLine pads or truncates the status text to the full width.
func statusLine(text string, width int) string {
	if width <= 0 {
		return ""
	}
	text = runewidth.Truncate(text, width, "…")
	if pad := width - runewidth.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return statusStyle.Render(text)
}
