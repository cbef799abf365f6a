package extract

import (
	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/transcript"
)

// Introspection tools disagree on field naming; each lookup tries the known
// spellings in order.
var (
	stepKeys    = []string{"step", "step_number", "thoughtNumber", "thought_number"}
	totalKeys   = []string{"total_steps", "totalSteps", "totalThoughts", "total_thoughts"}
	purposeKeys = []string{"purpose", "goal"}
	thoughtKeys = []string{"thought", "thinking", "reasoning"}
	outcomeKeys = []string{"outcome", "result", "conclusion"}
	nextKeys    = []string{"next_action", "nextAction", "next_step", "nextStep"}
)

// StepFromIntrospection builds a ReasoningStep from an introspection tool
// invocation, truncating every field per config. Returns false when the
// input carries no usable reasoning content.
func StepFromIntrospection(block transcript.ContentBlock, cfg config.ReasoningConfig) (ReasoningStep, bool) {
	step := ReasoningStep{
		Number:     intField(block.Input, stepKeys),
		Total:      intField(block.Input, totalKeys),
		Purpose:    Truncate(stringField(block.Input, purposeKeys), cfg.MaxFieldChars),
		Thought:    Truncate(stringField(block.Input, thoughtKeys), cfg.MaxFieldChars),
		Outcome:    Truncate(stringField(block.Input, outcomeKeys), cfg.MaxFieldChars),
		NextAction: Truncate(stringField(block.Input, nextKeys), cfg.MaxFieldChars),
	}
	if step.Thought == "" && step.Purpose == "" && step.Outcome == "" && step.NextAction == "" {
		return ReasoningStep{}, false
	}
	return step, true
}

// StepHighlights projects reasoning steps onto short highlight strings,
// preferring the purpose over the full thought.
func StepHighlights(steps []ReasoningStep, max int) []string {
	var out []string
	for _, s := range steps {
		if len(out) >= max {
			break
		}
		h := s.Purpose
		if h == "" {
			h = s.Thought
		}
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func stringField(input map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := input[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func intField(input map[string]any, keys []string) int {
	for _, k := range keys {
		switch v := input[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}
