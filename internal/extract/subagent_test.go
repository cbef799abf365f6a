package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handoffdev/handoff/internal/config"
)

var subCfg = config.CategoryConfig{MaxSamples: 3, MaxChars: 240}

func writeSubTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assistantText(text string) string {
	return `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"` + text + `"}]}}`
}

func TestResolveSubagents_MissingTranscriptDegradesToKilled(t *testing.T) {
	events := []DelegationEvent{
		{Kind: DelegationEnqueue, TaskID: "t1", Description: "scan the logs"},
	}

	results, incomplete := ResolveSubagents(events, func(string) string { return "" }, subCfg)

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Status != SubagentKilled {
		t.Errorf("got status %q, want killed", r.Status)
	}
	if r.ToolCallCount != 0 {
		t.Errorf("got ToolCallCount=%d, want 0", r.ToolCallCount)
	}
	if len(incomplete) != 1 || !strings.Contains(incomplete[0], "scan the logs") {
		t.Errorf("got incomplete=%v, want one notice naming the task", incomplete)
	}
}

func TestResolveSubagents_CompletedWithSubstantialResult(t *testing.T) {
	path := writeSubTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"x1","name":"Bash","input":{"command":"ls"}}]}}`,
		assistantText("ok"),
		assistantText("The dependency graph is acyclic; the import cycle report was a stale cache artifact."),
	)

	events := []DelegationEvent{
		{Kind: DelegationEnqueue, TaskID: "t1", Description: "check imports"},
		{Kind: DelegationComplete, TaskID: "t1"},
	}
	results, incomplete := ResolveSubagents(events, func(string) string { return path }, subCfg)

	r := results[0]
	if r.Status != SubagentCompleted {
		t.Errorf("got status %q, want completed", r.Status)
	}
	if !strings.Contains(r.Result, "dependency graph") {
		t.Errorf("got Result=%q, want last substantial text", r.Result)
	}
	if r.ToolCallCount != 1 {
		t.Errorf("got ToolCallCount=%d, want 1", r.ToolCallCount)
	}
	if len(incomplete) != 0 {
		t.Errorf("got incomplete=%v, want none", incomplete)
	}
}

func TestResolveSubagents_RateLimitTailMeansKilled(t *testing.T) {
	path := writeSubTranscript(t,
		assistantText("Starting the migration of the settings parser to the new schema format now."),
		assistantText("You have hit your rate limit. Resets at 5pm."),
	)

	events := []DelegationEvent{{Kind: DelegationEnqueue, TaskID: "t1", Description: "migrate parser"}}
	results, _ := ResolveSubagents(events, func(string) string { return path }, subCfg)

	if results[0].Status != SubagentKilled {
		t.Errorf("got status %q, want killed after termination tail", results[0].Status)
	}
	// The substantial text before the termination is still the best result.
	if !strings.Contains(results[0].Result, "migration of the settings parser") {
		t.Errorf("got Result=%q", results[0].Result)
	}
}

func TestResolveSubagents_DeduplicatesByTaskID(t *testing.T) {
	events := []DelegationEvent{
		{Kind: DelegationEnqueue, TaskID: "t1", Description: "first description"},
		{Kind: DelegationEnqueue, TaskID: "t1", Description: "second description"},
		{Kind: DelegationDequeue, TaskID: "t1"},
	}

	results, _ := ResolveSubagents(events, func(string) string { return "" }, subCfg)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Description != "first description" {
		t.Errorf("got %q, want the first enqueue's description", results[0].Description)
	}
}

func TestIsTerminationText(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"You have hit your RATE LIMIT", true},
		{"Quota resets tomorrow", true},
		{"usage cap reached", true},
		{"limit", true},
		{"The function returns early when the cache is warm, which explains the savings on usage metrics we observed across all benchmark runs.", false},
		{"All done, tests pass.", false},
	}
	for _, tc := range cases {
		if got := isTerminationText(tc.text); got != tc.want {
			t.Errorf("isTerminationText(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
