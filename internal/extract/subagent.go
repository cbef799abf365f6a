package extract

import (
	"strings"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/logger"
	"github.com/handoffdev/handoff/internal/transcript"
)

// DelegationKind tags one lifecycle event of a delegated task.
type DelegationKind string

const (
	DelegationEnqueue  DelegationKind = "enqueue"
	DelegationDequeue  DelegationKind = "dequeue"
	DelegationComplete DelegationKind = "complete"
)

// DelegationEvent is one parsed lifecycle event.
type DelegationEvent struct {
	Kind        DelegationKind
	TaskID      string
	Description string
}

// minSubstantialLen is the shortest assistant reply treated as a real
// result rather than noise.
const minSubstantialLen = 40

// SubagentLocator maps a task ID to its transcript path, or "" when the
// transcript cannot be found.
type SubagentLocator func(taskID string) string

// ResolveSubagents resolves delegated sub-sessions from their lifecycle
// events. Tasks are deduplicated by ID, keeping the first enqueue's
// description. Every unique task yields a SubagentResult; tasks with no
// substantial result and no completion event additionally yield an
// incomplete-subagent notice. A missing or unreadable transcript degrades
// to status killed with zero tool calls, never an error.
func ResolveSubagents(events []DelegationEvent, locate SubagentLocator, cfg config.CategoryConfig) ([]SubagentResult, []string) {
	type taskEntry struct {
		id          string
		description string
		completed   bool
	}

	var order []string
	byID := make(map[string]*taskEntry)
	for _, ev := range events {
		if ev.TaskID == "" {
			continue
		}
		entry, ok := byID[ev.TaskID]
		if !ok {
			entry = &taskEntry{id: ev.TaskID}
			byID[ev.TaskID] = entry
			order = append(order, ev.TaskID)
		}
		if entry.description == "" && ev.Description != "" {
			entry.description = ev.Description
		}
		if ev.Kind == DelegationComplete {
			entry.completed = true
		}
	}

	var results []SubagentResult
	var incomplete []string
	for _, id := range order {
		entry := byID[id]
		res := resolveOneSubagent(entry.id, entry.description, locate, cfg)
		results = append(results, res)

		if res.Result == "" && !entry.completed {
			notice := "incomplete subagent: " + entry.description
			if entry.description == "" {
				notice = "incomplete subagent: " + entry.id
			}
			incomplete = append(incomplete, Truncate(notice, cfg.MaxChars))
		}
	}
	return results, incomplete
}

func resolveOneSubagent(taskID, description string, locate SubagentLocator, cfg config.CategoryConfig) SubagentResult {
	res := SubagentResult{
		TaskID:      taskID,
		Description: description,
		Status:      SubagentKilled,
	}

	var path string
	if locate != nil {
		path = locate(taskID)
	}
	if path == "" {
		logger.Debug().Str("task", taskID).Msg("No transcript for delegated task")
		return res
	}

	messages, err := transcript.ParseClaudeFile(path)
	if err != nil {
		logger.Debug().Str("task", taskID).Str("path", path).Err(err).
			Msg("Failed to read subagent transcript")
		return res
	}

	var lastSubstantial string
	terminated := false
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.Kind == transcript.BlockToolUse {
				res.ToolCallCount++
			}
			if msg.Role != transcript.RoleAssistant || block.Kind != transcript.BlockText {
				continue
			}
			text := strings.TrimSpace(block.Text)
			if text == "" {
				continue
			}
			if isTerminationText(text) {
				terminated = true
				continue
			}
			if len(text) >= minSubstantialLen {
				lastSubstantial = text
				terminated = false
			}
		}
	}

	if lastSubstantial != "" {
		res.Result = Truncate(lastSubstantial, cfg.MaxChars)
	}
	if !terminated {
		res.Status = SubagentCompleted
	}
	return res
}

// isTerminationText matches replies that look like rate-limit or usage-cap
// terminations. This is a lexical heuristic carried over for compatibility;
// it can flag legitimate short replies that mention usage or limits.
func isTerminationText(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "resets") {
		return true
	}
	if len(lower) < 100 && (strings.Contains(lower, "usage") || strings.Contains(lower, "limit")) {
		return true
	}
	return false
}
