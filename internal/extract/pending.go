package extract

import "github.com/handoffdev/handoff/internal/config"

// InferPendingTasks derives outstanding work items. Reasoning steps are
// walked newest-first so the most recent next-action surfaces first;
// duplicates (by exact text) are dropped. Incomplete-subagent notices are
// appended after, under the same overall cap.
func InferPendingTasks(steps []ReasoningStep, incompleteSubagents []string, cfg config.PendingConfig) []string {
	max := cfg.MaxTasks
	if max <= 0 {
		return nil
	}

	var tasks []string
	seen := make(map[string]struct{})
	for i := len(steps) - 1; i >= 0 && len(tasks) < max; i-- {
		action := steps[i].NextAction
		if action == "" {
			continue
		}
		if _, dup := seen[action]; dup {
			continue
		}
		seen[action] = struct{}{}
		tasks = append(tasks, action)
	}

	for _, notice := range incompleteSubagents {
		if len(tasks) >= max {
			break
		}
		if _, dup := seen[notice]; dup {
			continue
		}
		seen[notice] = struct{}{}
		tasks = append(tasks, notice)
	}
	return tasks
}
