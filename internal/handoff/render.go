// Package handoff renders one extraction result into the deterministic
// handoff document consumed by whatever tool picks the session up next.
package handoff

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/handoffdev/handoff/internal/extract"
)

// Mode selects how much structured detail is rendered in place. Both modes
// read the same SessionContext; this is a rendering parameter only.
type Mode string

const (
	// ModeInline renders structured data (diffs, output tails) in the
	// document body.
	ModeInline Mode = "inline"
	// ModeReference renders one-line summaries only.
	ModeReference Mode = "reference"
)

// categoryOrder fixes the rendering priority for tool activity sections.
var categoryOrder = []extract.Category{
	extract.CategoryShell,
	extract.CategoryWrite,
	extract.CategoryEdit,
	extract.CategoryRead,
	extract.CategoryGrep,
	extract.CategoryGlob,
	extract.CategorySearch,
	extract.CategoryFetch,
	extract.CategoryTask,
	extract.CategoryAsk,
	extract.CategoryMCP,
	extract.CategoryOther,
}

// Render produces the handoff document. Output is byte-identical across runs
// for identical input and configuration.
func Render(ctx *extract.SessionContext, mode Mode) string {
	var b strings.Builder

	renderHeader(&b, ctx)
	renderToolActivity(&b, ctx, mode)
	renderConversation(&b, ctx)
	renderFiles(&b, ctx)
	renderPending(&b, ctx)
	renderNotes(&b, ctx, mode)

	return b.String()
}

func renderHeader(b *strings.Builder, ctx *extract.SessionContext) {
	s := ctx.Session
	fmt.Fprintf(b, "# Session Handoff: %s\n\n", s.ID)
	fmt.Fprintf(b, "- Tool: %s\n", s.Tool)
	if s.WorkDir != "" {
		fmt.Fprintf(b, "- Workdir: %s\n", s.WorkDir)
	}
	if s.Branch != "" {
		fmt.Fprintf(b, "- Branch: %s\n", s.Branch)
	}
	if s.ByteCount > 0 || s.LineCount > 0 {
		fmt.Fprintf(b, "- Size: %s, %d lines\n",
			humanize.Bytes(uint64(s.ByteCount)), s.LineCount)
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(b, "- Updated: %s\n", s.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if s.Summary != "" {
		fmt.Fprintf(b, "- Started with: %s\n", s.Summary)
	}
}

func renderToolActivity(b *strings.Builder, ctx *extract.SessionContext, mode Mode) {
	byCat := make(map[extract.Category]extract.ToolUsageSummary, len(ctx.ToolSummaries))
	for _, s := range ctx.ToolSummaries {
		byCat[s.Category] = s
	}

	b.WriteString("\n## Tool Activity\n")
	rendered := false
	for _, cat := range categoryOrder {
		s, ok := byCat[cat]
		if !ok {
			continue
		}
		rendered = true

		fmt.Fprintf(b, "\n### %s — %s", cat, plural(s.Count, "call"))
		if s.ErrorCount > 0 {
			fmt.Fprintf(b, ", %s", plural(s.ErrorCount, "error"))
		}
		b.WriteString("\n")

		for _, sample := range s.Samples {
			fmt.Fprintf(b, "- %s\n", sample.Summary)
			if mode == ModeInline {
				renderSampleDetail(b, sample)
			}
		}
		if dropped := s.Count - len(s.Samples); dropped > 0 {
			fmt.Fprintf(b, "- ... and %d more\n", dropped)
		}
	}
	if !rendered {
		b.WriteString("\n(no tool activity)\n")
	}
}

// renderSampleDetail emits the structured payload for a sample, indented
// under its summary line. Falls back to nothing when the sample carries no
// renderable detail.
func renderSampleDetail(b *strings.Builder, sample extract.ToolSample) {
	st := sample.Structured
	if st == nil {
		return
	}
	switch st.Kind {
	case extract.CategoryShell:
		if st.Shell != nil {
			writeIndented(b, st.Shell.OutputTail)
		}
	case extract.CategoryWrite:
		if st.Write != nil && st.Write.Diff != "" {
			writeIndented(b, strings.Split(st.Write.Diff, "\n"))
		}
	case extract.CategoryEdit:
		if st.Edit != nil && st.Edit.Diff != "" {
			writeIndented(b, strings.Split(st.Edit.Diff, "\n"))
		}
	case extract.CategoryFetch:
		if st.Fetch != nil && st.Fetch.Preview != "" {
			writeIndented(b, []string{st.Fetch.Preview})
		}
	case extract.CategoryTask:
		if st.Task != nil && st.Task.Result != "" {
			writeIndented(b, []string{st.Task.Result})
		}
	}
}

func renderConversation(b *strings.Builder, ctx *extract.SessionContext) {
	if len(ctx.RecentMessages) == 0 {
		return
	}
	b.WriteString("\n## Recent Conversation\n\n")
	for _, m := range ctx.RecentMessages {
		fmt.Fprintf(b, "[%s] %s\n", m.Role, m.Text)
	}
}

func renderFiles(b *strings.Builder, ctx *extract.SessionContext) {
	if len(ctx.FilesModified) == 0 {
		return
	}
	b.WriteString("\n## Files Modified\n\n")
	for _, f := range ctx.FilesModified {
		fmt.Fprintf(b, "- %s\n", f)
	}
}

func renderPending(b *strings.Builder, ctx *extract.SessionContext) {
	if len(ctx.PendingTasks) == 0 {
		return
	}
	b.WriteString("\n## Pending Tasks\n\n")
	for i, task := range ctx.PendingTasks {
		fmt.Fprintf(b, "%d. %s\n", i+1, task)
	}
}

func renderNotes(b *strings.Builder, ctx *extract.SessionContext, mode Mode) {
	n := ctx.Notes
	hasTokens := n.TokensIn > 0 || n.TokensOut > 0
	if n.Model == "" && !hasTokens && len(n.Highlights) == 0 &&
		len(n.ReasoningSteps) == 0 && len(n.Subagents) == 0 &&
		len(n.ExternalTools) == 0 && n.CompactSummary == "" {
		return
	}

	b.WriteString("\n## Session Notes\n\n")
	if n.Model != "" {
		fmt.Fprintf(b, "- Model: %s\n", n.Model)
	}
	if hasTokens {
		fmt.Fprintf(b, "- Tokens: %d in / %d out (cache read %d, cache write %d)\n",
			n.TokensIn, n.TokensOut, n.CacheRead, n.CacheCreation)
	}
	if n.CompactSummary != "" {
		fmt.Fprintf(b, "- Compacted earlier history: %s\n", n.CompactSummary)
	}

	if len(n.Highlights) > 0 {
		b.WriteString("\nReasoning highlights:\n")
		for _, h := range n.Highlights {
			fmt.Fprintf(b, "- %s\n", h)
		}
	}

	if mode == ModeInline && len(n.ReasoningSteps) > 0 {
		b.WriteString("\nReasoning steps:\n")
		for _, step := range n.ReasoningSteps {
			renderStep(b, step)
		}
	}

	if len(n.Subagents) > 0 {
		b.WriteString("\nSubagents:\n")
		for _, sub := range n.Subagents {
			fmt.Fprintf(b, "- [%s] %s (%s)", sub.Status, sub.Description,
				plural(sub.ToolCallCount, "tool call"))
			if sub.Result != "" {
				fmt.Fprintf(b, ": %s", sub.Result)
			}
			b.WriteString("\n")
		}
	}

	if len(n.ExternalTools) > 0 {
		b.WriteString("\nExternal tool results:\n")
		for _, et := range n.ExternalTools {
			fmt.Fprintf(b, "- %s (%s): %s\n", et.Name,
				humanize.Bytes(uint64(et.Size)), et.Preview)
		}
	}
}

func renderStep(b *strings.Builder, step extract.ReasoningStep) {
	b.WriteString("- ")
	if step.Number > 0 {
		fmt.Fprintf(b, "%d", step.Number)
		if step.Total > 0 {
			fmt.Fprintf(b, "/%d", step.Total)
		}
		b.WriteString(" ")
	}
	if step.Purpose != "" {
		fmt.Fprintf(b, "[%s] ", step.Purpose)
	}
	b.WriteString(step.Thought)
	if step.Outcome != "" {
		fmt.Fprintf(b, " -> %s", step.Outcome)
	}
	if step.NextAction != "" {
		fmt.Fprintf(b, " (next: %s)", step.NextAction)
	}
	b.WriteString("\n")
}

func writeIndented(b *strings.Builder, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "    %s\n", line)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
