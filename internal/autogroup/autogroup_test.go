package autogroup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lotas/tabgruppen/internal/server"
	"github.com/lotas/tabgruppen/internal/state"
	"github.com/lotas/tabgruppen/internal/sync"
	"github.com/lotas/tabgruppen/internal/types"
)

func TestClassifyDomainRules(t *testing.T) {
	tabs := []*types.Tab{
		{BrowserID: 1, URL: "https://github.com/org/repo/pull/1", Title: "PR"},
		{BrowserID: 2, URL: "https://www.youtube.com/watch?v=abc", Title: "Video"},
		{BrowserID: 3, URL: "https://en.wikipedia.org/wiki/Go", Title: "Go"},
	}

	r := Classify(context.Background(), tabs, nil)

	if len(r.Moves[types.CatDev]) != 1 {
		t.Errorf("dev: got %d moves", len(r.Moves[types.CatDev]))
	}
	if len(r.Moves[types.CatEntertainment]) != 1 {
		t.Error("www.youtube.com should match youtube.com rule")
	}
	if len(r.Moves[types.CatResearch]) != 1 {
		t.Error("en.wikipedia.org should match wikipedia.org rule")
	}
	if r.Skipped != 0 {
		t.Errorf("skipped: got %d, want 0", r.Skipped)
	}
}

func TestClassifyNoSuffixFalsePositive(t *testing.T) {
	tabs := []*types.Tab{
		{BrowserID: 1, URL: "https://notgithub.com/page", Title: "Fake"},
	}
	r := Classify(context.Background(), tabs, nil)
	if len(r.Moves[types.CatDev]) != 0 {
		t.Error("notgithub.com must not match the github.com rule")
	}
	if r.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", r.Skipped)
	}
}

func TestClassifyLLMFallback(t *testing.T) {
	var calls int
	llm := func(ctx context.Context, tabs []*types.Tab) (types.Category, error) {
		calls++
		return types.CatResearch, nil
	}

	tabs := []*types.Tab{
		{BrowserID: 1, URL: "https://obscure-blog.test/post/1", Title: "Post 1"},
		{BrowserID: 2, URL: "https://obscure-blog.test/post/2", Title: "Post 2"},
		{BrowserID: 3, URL: "https://github.com/org/repo", Title: "Repo"},
	}

	r := Classify(context.Background(), tabs, llm)

	if calls != 1 {
		t.Errorf("expected 1 model call for the clustered host, got %d", calls)
	}
	if len(r.Moves[types.CatResearch]) != 2 {
		t.Errorf("research: got %d moves, want 2", len(r.Moves[types.CatResearch]))
	}
	if len(r.Moves[types.CatDev]) != 1 {
		t.Error("rule-matched tab should not reach the model")
	}
}

func TestClassifyLLMErrorSkips(t *testing.T) {
	llm := func(ctx context.Context, tabs []*types.Tab) (types.Category, error) {
		return "", fmt.Errorf("model unavailable")
	}
	tabs := []*types.Tab{
		{BrowserID: 1, URL: "https://obscure.test/a", Title: "A"},
	}
	r := Classify(context.Background(), tabs, llm)
	if r.Skipped != 1 {
		t.Errorf("skipped: got %d, want 1", r.Skipped)
	}
}

func TestFormatDryRun(t *testing.T) {
	r := &Result{
		Moves: map[types.Category][]*Move{
			types.CatDev: {
				{Tab: &types.Tab{Title: "Repo"}, Category: types.CatDev, Reason: "github.com"},
			},
		},
		Skipped: 2,
	}
	out := FormatDryRun(r)
	if !strings.Contains(out, "Dev (1):") {
		t.Errorf("missing dev section:\n%s", out)
	}
	if !strings.Contains(out, "Repo (github.com)") {
		t.Errorf("missing move line:\n%s", out)
	}
	if !strings.Contains(out, "Skipped: 2") {
		t.Errorf("missing skipped line:\n%s", out)
	}

	empty := FormatDryRun(&Result{Moves: map[types.Category][]*Move{}})
	if !strings.Contains(empty, "Nothing to group.") {
		t.Errorf("empty result should say nothing to group:\n%s", empty)
	}
}

type fakeBridge struct {
	sent []server.OutgoingMsg
	err  error
}

func (f *fakeBridge) Send(msg server.OutgoingMsg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestApply(t *testing.T) {
	store := state.New(filepath.Join(t.TempDir(), "state.json"))
	bridge := &fakeBridge{}
	rec, err := sync.New(store, bridge)
	if err != nil {
		t.Fatalf("sync.New: %v", err)
	}

	r := &Result{
		Moves: map[types.Category][]*Move{
			types.CatDev: {
				{Tab: &types.Tab{BrowserID: 1, Title: "Repo"}, Category: types.CatDev},
				{Tab: &types.Tab{BrowserID: 2, Title: "Issue"}, Category: types.CatDev},
			},
			types.CatSocial: {
				{Tab: &types.Tab{BrowserID: 3, Title: "Feed"}, Category: types.CatSocial},
			},
		},
	}

	if err := Apply(r, rec); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(bridge.sent) != 2 {
		t.Fatalf("expected 2 create-group commands, got %d", len(bridge.sent))
	}
	for _, msg := range bridge.sent {
		if msg.Action != "create-group" {
			t.Errorf("unexpected action %q", msg.Action)
		}
	}
	// Categories iterate in display order: social before dev.
	if bridge.sent[0].Name != "Social" || len(bridge.sent[0].TabIDs) != 1 {
		t.Errorf("first command: %+v", bridge.sent[0])
	}
	if bridge.sent[1].Name != "Dev" || len(bridge.sent[1].TabIDs) != 2 {
		t.Errorf("second command: %+v", bridge.sent[1])
	}
}

func TestApplyBridgeError(t *testing.T) {
	store := state.New(filepath.Join(t.TempDir(), "state.json"))
	bridge := &fakeBridge{err: fmt.Errorf("no connection")}
	rec, err := sync.New(store, bridge)
	if err != nil {
		t.Fatalf("sync.New: %v", err)
	}

	r := &Result{
		Moves: map[types.Category][]*Move{
			types.CatDev: {{Tab: &types.Tab{BrowserID: 1, Title: "Repo"}, Category: types.CatDev}},
		},
	}
	if err := Apply(r, rec); err == nil {
		t.Error("expected error when bridge send fails")
	}
}
