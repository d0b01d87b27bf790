package vault

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitFrontmatter(t *testing.T) {
	content := "+++\ntitle = \"Note\"\n+++\n\nbody text\n"
	frontmatter, body := SplitFrontmatter(content)
	if !strings.Contains(frontmatter, `title = "Note"`) {
		t.Fatalf("unexpected frontmatter: %q", frontmatter)
	}
	if body != "\nbody text\n" && body != "body text\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestSplitFrontmatterWithoutBlock(t *testing.T) {
	frontmatter, body := SplitFrontmatter("just a note")
	if frontmatter != "" || body != "just a note" {
		t.Fatalf("got (%q, %q)", frontmatter, body)
	}
}

func TestMergeFrontmatterPreservesExistingKeys(t *testing.T) {
	content := "+++\ntitle = \"Note\"\nstatus = \"draft\"\n+++\n\nbody\n"
	merged, err := MergeFrontmatter(content, map[string]any{"status": "final"})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !strings.Contains(merged, `title = 'Note'`) && !strings.Contains(merged, `title = "Note"`) {
		t.Fatalf("existing key dropped:\n%s", merged)
	}
	if !strings.Contains(merged, "final") {
		t.Fatalf("update not applied:\n%s", merged)
	}
	if strings.Contains(merged, "draft") {
		t.Fatalf("stale value kept:\n%s", merged)
	}
	if !strings.Contains(merged, "body") {
		t.Fatalf("body lost:\n%s", merged)
	}
}

func TestMergeFrontmatterCreatesBlockWhenAbsent(t *testing.T) {
	merged, err := MergeFrontmatter("body only\n", map[string]any{"title": "New"})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !strings.HasPrefix(merged, "+++\n") {
		t.Fatalf("block not created:\n%s", merged)
	}
	if !strings.Contains(merged, "body only") {
		t.Fatalf("body lost:\n%s", merged)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" #Inbox", "inbox", "PROJECT", "", "  "})
	want := []string{"inbox", "project"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
