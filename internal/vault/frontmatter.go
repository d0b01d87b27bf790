package vault

import (
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const frontmatterDelimiter = "+++"

// SplitFrontmatter separates a note into its TOML frontmatter block and
// body. Notes without a frontmatter block return an empty frontmatter and
// the full content as body.
func SplitFrontmatter(content string) (frontmatter, body string) {
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") {
		return "", content
	}
	rest := content[len(frontmatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelimiter)
	if end < 0 {
		return "", content
	}
	frontmatter = rest[:end]
	body = rest[end+len(frontmatterDelimiter)+1:]
	body = strings.TrimPrefix(body, "\n")
	return frontmatter, body
}

// MergeFrontmatter merges updates into a note's frontmatter, creating the
// block when absent. Existing keys not named in updates are preserved; the
// body is returned untouched.
func MergeFrontmatter(content string, updates map[string]any) (string, error) {
	if len(updates) == 0 {
		return content, nil
	}
	frontmatter, body := SplitFrontmatter(content)
	fields := map[string]any{}
	if strings.TrimSpace(frontmatter) != "" {
		if err := toml.Unmarshal([]byte(frontmatter), &fields); err != nil {
			return "", err
		}
	}
	for key, value := range updates {
		fields[key] = value
	}
	encoded, err := toml.Marshal(fields)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.WriteString(frontmatterDelimiter)
	out.WriteByte('\n')
	out.Write(encoded)
	out.WriteString(frontmatterDelimiter)
	out.WriteByte('\n')
	if body != "" {
		out.WriteByte('\n')
		out.WriteString(body)
	}
	return out.String(), nil
}

// NormalizeTags lowercases, trims, and dedupes a tag list, preserving first
// occurrence order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		tag = strings.TrimPrefix(tag, "#")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
