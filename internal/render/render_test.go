package render

import (
	"strings"
	"testing"

	"github.com/lokhin/coursechat/internal/models"
)

func TestMarkdown(t *testing.T) {
	ClearCache()

	out, err := Markdown("# Heading\n\nbody text", DefaultOptions())
	if err != nil {
		t.Fatalf("Markdown() error: %v", err)
	}
	if !strings.Contains(out, "Heading") || !strings.Contains(out, "body text") {
		t.Errorf("rendered output missing content: %q", out)
	}
}

func TestMarkdownWithWidth(t *testing.T) {
	ClearCache()

	out, err := MarkdownWithWidth("plain paragraph", 40)
	if err != nil {
		t.Fatalf("MarkdownWithWidth() error: %v", err)
	}
	if !strings.Contains(out, "plain paragraph") {
		t.Errorf("rendered output missing content: %q", out)
	}
}

func TestPoolReusesConfigurations(t *testing.T) {
	ClearCache()

	opts := DefaultOptions().WithWidth(60)
	for i := 0; i < 3; i++ {
		if _, err := Markdown("text", opts); err != nil {
			t.Fatalf("Markdown() error: %v", err)
		}
	}

	if size := CacheSize(); size != 1 {
		t.Errorf("CacheSize() = %d, want 1", size)
	}

	if _, err := Markdown("text", opts.WithWidth(100)); err != nil {
		t.Fatalf("Markdown() error: %v", err)
	}
	if size := CacheSize(); size != 2 {
		t.Errorf("CacheSize() = %d, want 2", size)
	}
}

func TestSourcesMarkdown(t *testing.T) {
	citations := []models.Citation{
		{Title: "Lecture 3 Notes", SourceURL: "https://moodle.hku.hk/lec3", RelevanceScore: 0.92},
		{SourceURL: "https://moodle.hku.hk/lec4"},
	}

	out := SourcesMarkdown(citations)

	if !strings.Contains(out, "**Sources**") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "1. [Lecture 3 Notes](https://moodle.hku.hk/lec3) (92%)") {
		t.Errorf("missing first entry: %q", out)
	}
	// Untitled citations fall back to the URL as link text.
	if !strings.Contains(out, "2. [https://moodle.hku.hk/lec4](https://moodle.hku.hk/lec4)") {
		t.Errorf("missing fallback entry: %q", out)
	}
}

func TestSourcesMarkdown_Empty(t *testing.T) {
	if out := SourcesMarkdown(nil); out != "" {
		t.Errorf("SourcesMarkdown(nil) = %q, want empty", out)
	}
}
