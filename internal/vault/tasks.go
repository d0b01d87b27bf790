package vault

import (
	"strings"
	"time"

	"quill/internal/types"
)

// ParseTaskLine reads a markdown checklist line of the form "- [c] text"
// (also "* [c]" and "+ [c]", with leading indentation). It returns the
// state code and text, or ok=false for non-task lines.
func ParseTaskLine(line string) (state, text string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	marker := ""
	for _, prefix := range []string{"- [", "* [", "+ ["} {
		if strings.HasPrefix(trimmed, prefix) {
			marker = prefix
			break
		}
	}
	if marker == "" {
		return "", "", false
	}
	rest := trimmed[len(marker):]
	if len(rest) < 2 || rest[1] != ']' {
		return "", "", false
	}
	state = string(rest[0])
	text = strings.TrimSpace(rest[2:])
	return state, text, true
}

// RewriteTaskLine replaces the state code of a checklist line, preserving
// indentation, bullet style, and text. Non-task lines pass through
// unchanged.
func RewriteTaskLine(line, state string) string {
	if _, _, ok := ParseTaskLine(line); !ok || len(state) != 1 {
		return line
	}
	open := strings.IndexByte(line, '[')
	if open < 0 || open+2 >= len(line) {
		return line
	}
	return line[:open+1] + state + line[open+2:]
}

// ScanTasks extracts every checklist line from a note body. Line numbers
// are 1-based to match editor conventions.
func ScanTasks(filePath, content string, mtime time.Time) []types.TaskItem {
	var items []types.TaskItem
	for i, line := range strings.Split(content, "\n") {
		state, text, ok := ParseTaskLine(line)
		if !ok {
			continue
		}
		items = append(items, types.TaskItem{
			FilePath:   filePath,
			LineNumber: i + 1,
			State:      state,
			Text:       text,
			FileMtime:  mtime,
		})
	}
	return items
}
