package extract

import (
	"strings"
	"testing"

	"github.com/handoffdev/handoff/internal/transcript"
)

func toolUse(id, name string, input map[string]any) transcript.Message {
	return transcript.Message{
		Role: transcript.RoleAssistant,
		Blocks: []transcript.ContentBlock{{
			Kind:  transcript.BlockToolUse,
			ID:    id,
			Name:  name,
			Input: input,
		}},
	}
}

func toolResult(id, text string, isError bool) transcript.Message {
	return transcript.Message{
		Role: transcript.RoleUser,
		Blocks: []transcript.ContentBlock{{
			Kind:      transcript.BlockToolResult,
			ToolUseID: id,
			Content:   text,
			IsError:   isError,
		}},
	}
}

func userText(text string) transcript.Message {
	return transcript.Message{
		Role:   transcript.RoleUser,
		Blocks: []transcript.ContentBlock{{Kind: transcript.BlockText, Text: text}},
	}
}

func findSummary(t *testing.T, ctx *SessionContext, cat Category) ToolUsageSummary {
	t.Helper()
	for _, s := range ctx.ToolSummaries {
		if s.Category == cat {
			return s
		}
	}
	t.Fatalf("no summary for category %q", cat)
	return ToolUsageSummary{}
}

func TestRun_ShellEndToEnd(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		userText("run the tests"),
		toolUse("tu1", "Bash", map[string]any{"command": "pnpm test"}),
		toolResult("tu1", "exited with code: 0\nOK", false),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	s := findSummary(t, ctx, CategoryShell)
	if s.Count != 1 {
		t.Errorf("got Count=%d, want 1", s.Count)
	}
	if s.ErrorCount != 0 {
		t.Errorf("got ErrorCount=%d, want 0", s.ErrorCount)
	}
	if len(s.Samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(s.Samples))
	}

	sample := s.Samples[0]
	if !strings.Contains(sample.Summary, "$ pnpm test") {
		t.Errorf("summary %q should contain the command", sample.Summary)
	}
	if !strings.Contains(sample.Summary, "0") {
		t.Errorf("summary %q should contain the exit code", sample.Summary)
	}

	shell := sample.Structured.Shell
	if shell == nil {
		t.Fatal("missing structured shell sample")
	}
	if shell.ExitCode == nil || *shell.ExitCode != 0 {
		t.Errorf("got ExitCode=%v, want 0", shell.ExitCode)
	}
	if len(shell.OutputTail) == 0 || shell.OutputTail[len(shell.OutputTail)-1] != "OK" {
		t.Errorf("got OutputTail=%v, want trailing OK", shell.OutputTail)
	}
}

func TestRun_WriteNewFileEndToEnd(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("w1", "Write", map[string]any{
			"file_path": "pkg/util.go",
			"content":   "package pkg\n",
		}),
		toolResult("w1", "File created successfully at: pkg/util.go", false),
		toolUse("w2", "Write", map[string]any{
			"file_path": "pkg/util.go",
			"content":   "package pkg\n\nfunc F() {}\n",
		}),
		toolResult("w2", "File updated", false),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	if len(ctx.FilesModified) != 1 || ctx.FilesModified[0] != "pkg/util.go" {
		t.Errorf("got FilesModified=%v, want one path", ctx.FilesModified)
	}

	s := findSummary(t, ctx, CategoryWrite)
	if s.Count != 2 {
		t.Errorf("got Count=%d, want 2", s.Count)
	}
	first := s.Samples[0].Structured.Write
	if first == nil || !first.NewFile {
		t.Errorf("got %+v, want NewFile=true on first write", first)
	}
	if !strings.Contains(s.Samples[0].Summary, "(new file)") {
		t.Errorf("summary %q should carry the new-file marker", s.Samples[0].Summary)
	}
	if first.Diff == "" || !strings.Contains(first.Diff, "+package pkg") {
		t.Errorf("got Diff=%q, want additions", first.Diff)
	}
}

func TestRun_ResultBeforeInvocationStillCorrelates(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolResult("late", "exited with code: 2", true),
		toolUse("late", "Bash", map[string]any{"command": "make lint"}),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	s := findSummary(t, ctx, CategoryShell)
	if s.ErrorCount != 1 {
		t.Errorf("got ErrorCount=%d, want 1", s.ErrorCount)
	}
	shell := s.Samples[0].Structured.Shell
	if shell.ExitCode == nil || *shell.ExitCode != 2 {
		t.Errorf("got ExitCode=%v, want 2 from out-of-order result", shell.ExitCode)
	}
}

func TestRun_InvocationWithoutResult(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("gone", "Bash", map[string]any{"command": "sleep 600"}),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	s := findSummary(t, ctx, CategoryShell)
	if s.Count != 1 {
		t.Errorf("got Count=%d, want 1", s.Count)
	}
	if s.ErrorCount != 0 {
		t.Errorf("a missing result is not an error, got ErrorCount=%d", s.ErrorCount)
	}
	if !strings.Contains(s.Samples[0].Summary, "sleep 600") {
		t.Errorf("got summary %q", s.Samples[0].Summary)
	}
}

func TestRun_EditProducesDiffStats(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("e1", "Edit", map[string]any{
			"file_path":  "main.go",
			"old_string": "a\nb\n",
			"new_string": "a\nx\ny\n",
		}),
		toolResult("e1", "ok", false),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	edit := findSummary(t, ctx, CategoryEdit).Samples[0].Structured.Edit
	if edit.Added != 2 || edit.Removed != 1 {
		t.Errorf("got +%d/-%d, want +2/-1", edit.Added, edit.Removed)
	}
	if !strings.Contains(edit.Diff, "-b") {
		t.Errorf("got Diff=%q", edit.Diff)
	}
}

func TestRun_UnclassifiedGoesToGenericBucket(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("u1", "MysteryTool", nil),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	s := findSummary(t, ctx, CategoryOther)
	if s.Count != 1 {
		t.Errorf("got Count=%d, want 1", s.Count)
	}
	if s.Samples[0].Structured != nil {
		t.Error("unclassified tools must not carry structured samples")
	}
}

func TestRun_ReasoningAndPending(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("r1", "sequentialthinking", map[string]any{
			"thought":     "The cache key omits the branch name.",
			"next_action": "include branch in cache key",
		}),
		toolUse("r2", "sequentialthinking", map[string]any{
			"thought":     "Fix confirmed locally.",
			"next_action": "update the changelog",
		}),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	if len(ctx.Notes.ReasoningSteps) != 2 {
		t.Fatalf("got %d steps, want 2", len(ctx.Notes.ReasoningSteps))
	}
	if len(ctx.PendingTasks) != 2 {
		t.Fatalf("got %v, want 2 pending tasks", ctx.PendingTasks)
	}
	if ctx.PendingTasks[0] != "update the changelog" {
		t.Errorf("got %q first, want most recent next-action", ctx.PendingTasks[0])
	}

	// Introspection calls are not tool activity.
	for _, s := range ctx.ToolSummaries {
		if s.Category == CategoryReasoning {
			t.Error("reasoning must not appear in tool summaries")
		}
	}
}

func TestRun_TokensAndRecentMessages(t *testing.T) {
	cfg := standardConfig(t)
	cfg.RecentMessages = 2

	messages := []transcript.Message{
		userText("first"),
		{
			Role:   transcript.RoleAssistant,
			Model:  "sonnet",
			Usage:  &transcript.TokenUsage{Input: 100, Output: 10, CacheRead: 40},
			Blocks: []transcript.ContentBlock{{Kind: transcript.BlockText, Text: "reply one"}},
		},
		userText("second"),
		{
			Role:   transcript.RoleAssistant,
			Usage:  &transcript.TokenUsage{Input: 50, Output: 5},
			Blocks: []transcript.ContentBlock{{Kind: transcript.BlockText, Text: "reply two"}},
		},
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{})

	if ctx.Notes.TokensIn != 150 || ctx.Notes.TokensOut != 15 || ctx.Notes.CacheRead != 40 {
		t.Errorf("got tokens in=%d out=%d cacheRead=%d",
			ctx.Notes.TokensIn, ctx.Notes.TokensOut, ctx.Notes.CacheRead)
	}
	if ctx.Notes.Model != "sonnet" {
		t.Errorf("got Model=%q", ctx.Notes.Model)
	}

	if len(ctx.RecentMessages) != 2 {
		t.Fatalf("got %d recent messages, want window of 2", len(ctx.RecentMessages))
	}
	if ctx.RecentMessages[0].Text != "second" || ctx.RecentMessages[1].Text != "reply two" {
		t.Errorf("got %+v, want the two newest", ctx.RecentMessages)
	}
}

func TestRun_SubagentDelegation(t *testing.T) {
	cfg := standardConfig(t)
	messages := []transcript.Message{
		toolUse("t1", "Task", map[string]any{
			"description":   "audit error handling",
			"subagent_type": "reviewer",
		}),
	}

	ctx := Run(transcript.Session{ID: "s1"}, messages, cfg, Options{
		LocateSubagent: func(string) string { return "" },
	})

	if len(ctx.Notes.Subagents) != 1 {
		t.Fatalf("got %d subagents, want 1", len(ctx.Notes.Subagents))
	}
	sub := ctx.Notes.Subagents[0]
	if sub.Status != SubagentKilled || sub.ToolCallCount != 0 {
		t.Errorf("got %+v, want killed with 0 tool calls", sub)
	}

	var foundNotice bool
	for _, task := range ctx.PendingTasks {
		if strings.Contains(task, "audit error handling") {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Errorf("got PendingTasks=%v, want incomplete-subagent notice", ctx.PendingTasks)
	}

	// The delegation is also ordinary task activity.
	s := findSummary(t, ctx, CategoryTask)
	if s.Count != 1 {
		t.Errorf("got task Count=%d, want 1", s.Count)
	}
}

func TestIndexResults_CapsOversizedText(t *testing.T) {
	huge := strings.Repeat("z", resultTextCeiling+1000)
	index := IndexResults([]transcript.Message{toolResult("big", huge, false)})

	if got := len(index["big"].Text); got != resultTextCeiling {
		t.Errorf("got %d chars, want ceiling %d", got, resultTextCeiling)
	}
}
