package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/tabgruppen/internal/types"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"How Go Channels Work | Blog", "how-go-channels-work-blog"},
		{"Simple Title", "simple-title"},
		{"  Leading/Trailing Spaces  ", "leading-trailing-spaces"},
		{"Special!!!Characters???Here", "special-characters-here"},
		{"Multiple---Hyphens", "multiple-hyphens"},
		{"", "untitled"},
		{"   ", "untitled"},
	}
	for _, tt := range tests {
		got := sanitizeFilename(tt.input)
		if got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSummaryPath(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		title  string
		want   string
	}{
		{
			name:   "normal HTTP URL",
			rawURL: "https://blog.example.de/post/1",
			title:  "My Post",
			want:   filepath.Join("/out", "blog-example-de", "my-post.md"),
		},
		{
			name:   "empty host falls back to unknown",
			rawURL: "file:///home/user/doc.html",
			title:  "Local File",
			want:   filepath.Join("/out", "unknown", "local-file.md"),
		},
		{
			name:   "empty URL",
			rawURL: "",
			title:  "No URL",
			want:   filepath.Join("/out", "unknown", "no-url.md"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummaryPath("/out", tt.rawURL, tt.title)
			if got != tt.want {
				t.Errorf("SummaryPath(%q, %q) = %q, want %q", tt.rawURL, tt.title, got, tt.want)
			}
		})
	}
}

func TestReadSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.md")

	content := "# My Page\n\n**Source:** https://example.com\n**Summarized:** 2026-01-15\n\n## Summary\n\nThis is the summary text.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "This is the summary text.\n" {
		t.Errorf("ReadSummary() = %q", got)
	}

	if _, err := ReadSummary(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindGroup(t *testing.T) {
	st := &types.PersistedState{
		Groups: []*types.TabGroup{
			{Name: "Work", Tabs: []*types.Tab{{URL: "https://a.com"}}},
			{Name: "Summarize This", Tabs: []*types.Tab{{URL: "https://b.com"}, {URL: "https://c.com"}}},
		},
	}

	group := findGroup(st, "Summarize This")
	if group == nil {
		t.Fatal("expected to find group")
	}
	if len(group.Tabs) != 2 {
		t.Errorf("expected 2 tabs, got %d", len(group.Tabs))
	}

	if findGroup(st, "Nope") != nil {
		t.Error("expected nil for missing group")
	}
}

func TestSummarizeGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: "Pages about Go channels.\n"})
	}))
	defer srv.Close()

	g := &types.TabGroup{
		Name: "Go",
		Tabs: []*types.Tab{{Title: "Channels", URL: "https://go.dev/doc"}},
	}
	summary, err := SummarizeGroup(context.Background(), "llama3.2", srv.URL, g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "Pages about Go channels." {
		t.Errorf("unexpected summary: %q", summary)
	}
}

func TestSummarizeGroup_Empty(t *testing.T) {
	g := &types.TabGroup{Name: "Empty"}
	if _, err := SummarizeGroup(context.Background(), "llama3.2", "http://localhost:0", g); err == nil {
		t.Error("expected error for empty group")
	}
}
