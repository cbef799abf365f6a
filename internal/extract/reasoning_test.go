package extract

import (
	"strings"
	"testing"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/transcript"
)

func TestStepFromIntrospection(t *testing.T) {
	block := transcript.ContentBlock{
		Kind: transcript.BlockToolUse,
		Name: "sequentialthinking",
		Input: map[string]any{
			"thoughtNumber": float64(2),
			"totalThoughts": float64(5),
			"purpose":       "narrow down the failing test",
			"thought":       "The retry loop swallows the timeout error.",
			"outcome":       "found the bug",
			"next_action":   "add a failing regression test",
		},
	}

	step, ok := StepFromIntrospection(block, config.ReasoningConfig{MaxFieldChars: 200})
	if !ok {
		t.Fatal("expected a step")
	}
	if step.Number != 2 || step.Total != 5 {
		t.Errorf("got %d/%d, want 2/5", step.Number, step.Total)
	}
	if step.Purpose != "narrow down the failing test" {
		t.Errorf("got Purpose=%q", step.Purpose)
	}
	if step.NextAction != "add a failing regression test" {
		t.Errorf("got NextAction=%q", step.NextAction)
	}
}

func TestStepFromIntrospection_FieldsTruncatedIndependently(t *testing.T) {
	long := strings.Repeat("x", 500)
	block := transcript.ContentBlock{
		Kind: transcript.BlockToolUse,
		Name: "think",
		Input: map[string]any{
			"thought":     long,
			"next_action": long,
		},
	}

	step, ok := StepFromIntrospection(block, config.ReasoningConfig{MaxFieldChars: 50})
	if !ok {
		t.Fatal("expected a step")
	}
	if len(step.Thought) != 50 {
		t.Errorf("got len(Thought)=%d, want 50", len(step.Thought))
	}
	if len(step.NextAction) != 50 {
		t.Errorf("got len(NextAction)=%d, want 50", len(step.NextAction))
	}
}

func TestStepFromIntrospection_EmptyInput(t *testing.T) {
	block := transcript.ContentBlock{
		Kind:  transcript.BlockToolUse,
		Name:  "think",
		Input: map[string]any{"unrelated": true},
	}
	if _, ok := StepFromIntrospection(block, config.ReasoningConfig{MaxFieldChars: 50}); ok {
		t.Error("expected no step for content-free input")
	}
}

func TestStepHighlights(t *testing.T) {
	steps := []ReasoningStep{
		{Purpose: "plan", Thought: "long thought"},
		{Thought: "only a thought"},
		{Purpose: "wrap up"},
	}

	got := StepHighlights(steps, 2)
	if len(got) != 2 {
		t.Fatalf("got %d highlights, want 2", len(got))
	}
	if got[0] != "plan" {
		t.Errorf("got %q, want purpose preferred", got[0])
	}
	if got[1] != "only a thought" {
		t.Errorf("got %q, want thought fallback", got[1])
	}
}
