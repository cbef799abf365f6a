package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/transcript"
)

// resultTextCeiling bounds how much of any single tool result pass 1 keeps
// in memory.
const resultTextCeiling = 50000

// externalNoteThreshold is the result size past which an mcp tool result is
// recorded as an external-tool note.
const externalNoteThreshold = 2000

var (
	exitCodeRe   = regexp.MustCompile(`(?i)exit(?:ed)?(?:\s+with)?\s+code:?\s*(-?\d+)`)
	matchCountRe = regexp.MustCompile(`(?i)\b(\d+)\s+(?:match|file|line|result)`)

	pathKeys    = []string{"file_path", "path", "filename", "file"}
	commandKeys = []string{"command", "cmd", "script"}
	patternKeys = []string{"pattern", "regex", "query"}
	queryKeys   = []string{"query", "q", "search"}
	contentKeys = []string{"content", "file_text", "text"}
	oldKeys     = []string{"old_string", "old_str", "old_text"}
	newKeys     = []string{"new_string", "new_str", "new_text"}
	descKeys    = []string{"description", "prompt", "task"}
	agentKeys   = []string{"subagent_type", "agent_type", "agent"}
	taskIDKeys  = []string{"task_id", "taskId", "id"}
	urlKeys     = []string{"url", "uri"}
	askKeys     = []string{"question", "prompt", "message"}
)

// ToolResult is one correlated tool outcome from pass 1.
type ToolResult struct {
	Text    string
	IsError bool
}

// Options carries the pipeline's external collaborators.
type Options struct {
	// LocateSubagent resolves a delegated task ID to its transcript path.
	// Nil (or "" results) degrade tasks to killed results, never failures.
	LocateSubagent SubagentLocator
}

// IndexResults is pass 1: scan every message and key tool results by their
// correlation id. Pure; the returned map is consumed read-only by pass 2.
// Results may precede, interleave with, or trail their invocation.
func IndexResults(messages []transcript.Message) map[string]ToolResult {
	index := make(map[string]ToolResult)
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.Kind != transcript.BlockToolResult || block.ToolUseID == "" {
				continue
			}
			text := block.Content
			if len(text) > resultTextCeiling {
				text = text[:resultTextCeiling]
			}
			index[block.ToolUseID] = ToolResult{Text: text, IsError: block.IsError}
		}
	}
	return index
}

// Run executes the full extraction over one session's normalized stream.
// The returned context is complete except for the rendered document, which
// the synthesizer fills in.
func Run(sess transcript.Session, messages []transcript.Message, cfg *config.VerbosityConfig, opts Options) *SessionContext {
	results := IndexResults(messages)
	collector := NewCollector(cfg)

	var (
		notes       SessionNotes
		steps       []ReasoningStep
		thinking    []string
		delegations []DelegationEvent
		recent      []RecentMessage
	)

	for _, msg := range messages {
		if msg.Usage != nil {
			notes.TokensIn += msg.Usage.Input
			notes.TokensOut += msg.Usage.Output
			notes.CacheRead += msg.Usage.CacheRead
			notes.CacheCreation += msg.Usage.CacheCreation
		}
		if notes.Model == "" && msg.Model != "" {
			notes.Model = msg.Model
		}

		if msg.Role == transcript.RoleSystem {
			if text := msg.PlainText(); text != "" {
				notes.CompactSummary = text
			}
			continue
		}

		if text := msg.PlainText(); text != "" {
			recent = append(recent, RecentMessage{
				Role:      msg.Role,
				Text:      Truncate(text, cfg.MaxMessageChars),
				Timestamp: msg.Timestamp,
			})
		}

		for _, block := range msg.Blocks {
			switch block.Kind {
			case transcript.BlockThinking:
				if cfg.IncludeThinking && block.Thinking != "" {
					thinking = append(thinking,
						Truncate(block.Thinking, cfg.Reasoning.MaxFieldChars))
				}
			case transcript.BlockToolUse:
				processInvocation(block, results, cfg, collector, &steps, &delegations)
				if note, ok := externalToolNote(block, results); ok {
					notes.ExternalTools = append(notes.ExternalTools, note)
				}
			}
		}
	}

	subagents, incomplete := ResolveSubagents(delegations, opts.LocateSubagent, cfg.Task)

	notes.ReasoningSteps = steps
	notes.Subagents = subagents
	notes.Highlights = mergeHighlights(thinking, steps, cfg.Reasoning.MaxHighlights)

	if n := cfg.RecentMessages; len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	return &SessionContext{
		RunID:          uuid.NewString(),
		Session:        sess,
		RecentMessages: recent,
		FilesModified:  collector.FilesModified(),
		PendingTasks:   InferPendingTasks(steps, incomplete, cfg.Pending),
		ToolSummaries:  collector.Summaries(),
		Notes:          notes,
	}
}

// processInvocation is the heart of pass 2: classify one invocation, look
// up its correlated result, and hand the extracted sample to the collector.
func processInvocation(block transcript.ContentBlock, results map[string]ToolResult,
	cfg *config.VerbosityConfig, collector *Collector,
	steps *[]ReasoningStep, delegations *[]DelegationEvent) {

	cat := Classify(block.Name)
	res, hasRes := results[block.ID]

	switch cat {
	case CategoryReasoning:
		if len(*steps) >= cfg.Reasoning.MaxSteps {
			return
		}
		if step, ok := StepFromIntrospection(block, cfg.Reasoning); ok {
			*steps = append(*steps, step)
		}
		return

	case CategoryUnclassified:
		// Unknown names still count, under the generic bucket.
		collector.Add(CategoryOther, Truncate(block.Name, 60), AddOptions{
			IsError: hasRes && res.IsError,
		})
		return

	case CategoryTask:
		taskID := stringField(block.Input, taskIDKeys)
		if taskID == "" {
			taskID = uuid.NewString()
		}
		desc := stringField(block.Input, descKeys)
		*delegations = append(*delegations, DelegationEvent{
			Kind:        DelegationEnqueue,
			TaskID:      taskID,
			Description: Truncate(desc, cfg.Task.MaxChars),
		})
		if hasRes && !res.IsError {
			*delegations = append(*delegations, DelegationEvent{
				Kind:   DelegationComplete,
				TaskID: taskID,
			})
		}
	}

	summary, structured := extractSample(cat, block, res, hasRes, cfg)
	opts := AddOptions{
		Structured: structured,
		IsError:    hasRes && res.IsError,
	}
	if cat == CategoryWrite || cat == CategoryEdit {
		opts.FilePath = stringField(block.Input, pathKeys)
		opts.IsWrite = true
	}
	if cat == CategoryMCP {
		// External tools that mutate files do so outside the write/edit
		// path; infer the modification from their input shape.
		if p := stringField(block.Input, pathKeys); p != "" && looksLikeWriteTool(block.Name) {
			collector.TrackFile(p)
		}
	}
	collector.Add(cat, summary, opts)
}

// extractSample builds the category-specific one-line summary and
// structured sample. A missing result still yields a summary from whatever
// is available.
func extractSample(cat Category, block transcript.ContentBlock, res ToolResult,
	hasRes bool, cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	switch cat {
	case CategoryShell:
		return extractShell(block, res, hasRes, cfg)
	case CategoryRead:
		return extractRead(block, cfg)
	case CategoryWrite:
		return extractWrite(block, res, hasRes, cfg)
	case CategoryEdit:
		return extractEdit(block, cfg)
	case CategoryGrep:
		return extractGrep(block, res, hasRes, cfg)
	case CategoryGlob:
		return extractGlob(block, res, hasRes, cfg)
	case CategorySearch:
		query := Truncate(stringField(block.Input, queryKeys), cfg.Search.MaxChars)
		return query, &StructuredToolSample{Kind: CategorySearch,
			Search: &SearchSample{Query: query}}
	case CategoryFetch:
		url := Truncate(stringField(block.Input, urlKeys), cfg.Fetch.MaxChars)
		preview := ""
		if hasRes {
			preview = Truncate(res.Text, cfg.Fetch.MaxChars)
		}
		return url, &StructuredToolSample{Kind: CategoryFetch,
			Fetch: &FetchSample{URL: url, Preview: preview}}
	case CategoryTask:
		return extractTask(block, res, hasRes, cfg)
	case CategoryAsk:
		question := Truncate(askQuestion(block.Input), cfg.Ask.MaxChars)
		return question, &StructuredToolSample{Kind: CategoryAsk,
			Ask: &AskSample{Question: question}}
	case CategoryMCP:
		return extractMCP(block, res, hasRes, cfg)
	}
	return Truncate(block.Name, 60), nil
}

func extractShell(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	cmd := stringField(block.Input, commandKeys)
	summary := "$ " + Truncate(cmd, cfg.Shell.MaxChars)

	sample := &ShellSample{Command: cmd, IsError: hasRes && res.IsError}
	if hasRes {
		if m := exitCodeRe.FindStringSubmatch(res.Text); m != nil {
			if code, err := strconv.Atoi(m[1]); err == nil {
				sample.ExitCode = &code
				summary += fmt.Sprintf(" → exit %d", code)
			}
		} else if res.Text != "" {
			summary += " → " + Truncate(res.Text, 60)
		}
		sample.OutputTail = OutputTail(res.Text, cfg.Shell.MaxOutputLines)
	}
	return summary, &StructuredToolSample{Kind: CategoryShell, Shell: sample}
}

func extractRead(block transcript.ContentBlock, cfg *config.VerbosityConfig) (string, *StructuredToolSample) {
	path := stringField(block.Input, pathKeys)
	start := intField(block.Input, []string{"offset", "start_line"})
	end := intField(block.Input, []string{"end_line"})
	if end == 0 {
		if limit := intField(block.Input, []string{"limit"}); limit > 0 && start > 0 {
			end = start + limit - 1
		}
	}

	summary := Truncate(path, cfg.Read.MaxChars)
	if start > 0 && end > 0 {
		summary = fmt.Sprintf("%s:%d-%d", Truncate(path, cfg.Read.MaxChars), start, end)
	}
	return summary, &StructuredToolSample{Kind: CategoryRead,
		Read: &ReadSample{Path: path, StartLine: start, EndLine: end}}
}

func extractWrite(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	path := stringField(block.Input, pathKeys)
	content := stringField(block.Input, contentKeys)
	newFile := hasRes && strings.Contains(strings.ToLower(res.Text), "created")

	added, removed := DiffStats("", content)
	sample := &WriteSample{Path: path, NewFile: newFile, Added: added, Removed: removed}
	if cfg.IncludeDiffs {
		sample.Diff = UnifiedDiff("", content, path, cfg.Write.MaxDiffLines)
	}

	summary := Truncate(path, cfg.Write.MaxChars)
	if newFile {
		summary += " (new file)"
	} else {
		summary += fmt.Sprintf(" (+%d/-%d)", added, removed)
	}
	return summary, &StructuredToolSample{Kind: CategoryWrite, Write: sample}
}

func extractEdit(block transcript.ContentBlock, cfg *config.VerbosityConfig) (string, *StructuredToolSample) {
	path := stringField(block.Input, pathKeys)
	oldText := stringField(block.Input, oldKeys)
	newText := stringField(block.Input, newKeys)

	added, removed := DiffStats(oldText, newText)
	sample := &EditSample{Path: path, Added: added, Removed: removed}
	if cfg.IncludeDiffs {
		sample.Diff = UnifiedDiff(oldText, newText, path, cfg.Edit.MaxDiffLines)
	}

	summary := fmt.Sprintf("%s (+%d/-%d)", Truncate(path, cfg.Edit.MaxChars), added, removed)
	return summary, &StructuredToolSample{Kind: CategoryEdit, Edit: sample}
}

func extractGrep(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	pattern := stringField(block.Input, patternKeys)
	target := stringField(block.Input, []string{"path", "file", "dir", "include"})

	count := -1
	if hasRes {
		if m := matchCountRe.FindStringSubmatch(res.Text); m != nil {
			count, _ = strconv.Atoi(m[1])
		}
	}

	summary := Truncate(pattern, cfg.Grep.MaxChars)
	if target != "" {
		summary += " in " + Truncate(target, cfg.Grep.MaxChars)
	}
	if count >= 0 {
		summary += fmt.Sprintf(" → %d matches", count)
	}
	return summary, &StructuredToolSample{Kind: CategoryGrep,
		Grep: &GrepSample{Pattern: pattern, Target: target, MatchCount: count}}
}

func extractGlob(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	pattern := stringField(block.Input, patternKeys)
	count := 0
	if hasRes {
		for _, line := range strings.Split(res.Text, "\n") {
			if strings.TrimSpace(line) != "" {
				count++
			}
		}
	}

	summary := Truncate(pattern, cfg.Glob.MaxChars)
	if hasRes {
		summary += fmt.Sprintf(" → %d files", count)
	}
	return summary, &StructuredToolSample{Kind: CategoryGlob,
		Glob: &GlobSample{Pattern: pattern, ResultCount: count}}
}

func extractTask(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	desc := stringField(block.Input, descKeys)
	agent := stringField(block.Input, agentKeys)

	sample := &TaskSample{
		Description: Truncate(desc, cfg.Task.MaxChars),
		AgentType:   agent,
	}
	if hasRes {
		sample.Result = Truncate(res.Text, cfg.Task.MaxChars)
	}

	summary := Truncate(desc, cfg.Task.MaxChars)
	if agent != "" {
		summary += " [" + agent + "]"
	}
	return summary, &StructuredToolSample{Kind: CategoryTask, Task: sample}
}

func extractMCP(block transcript.ContentBlock, res ToolResult, hasRes bool,
	cfg *config.VerbosityConfig) (string, *StructuredToolSample) {

	tool := strings.TrimPrefix(block.Name, mcpPrefix)
	params := ""
	if len(block.Input) > 0 {
		if data, err := json.Marshal(block.Input); err == nil {
			params = Truncate(string(data), cfg.MCP.MaxChars/2)
		}
	}
	preview := ""
	if hasRes {
		preview = Truncate(res.Text, cfg.MCP.MaxChars/2)
	}

	summary := fmt.Sprintf("%s(%s)", tool, params)
	if preview != "" {
		summary += " → " + preview
	}
	return summary, &StructuredToolSample{Kind: CategoryMCP,
		MCP: &MCPSample{Tool: tool, ParamsPreview: params, ResultPreview: preview}}
}

func externalToolNote(block transcript.ContentBlock, results map[string]ToolResult) (ExternalToolNote, bool) {
	if Classify(block.Name) != CategoryMCP {
		return ExternalToolNote{}, false
	}
	res, ok := results[block.ID]
	if !ok || len(res.Text) < externalNoteThreshold {
		return ExternalToolNote{}, false
	}
	return ExternalToolNote{
		Name:    strings.TrimPrefix(block.Name, mcpPrefix),
		Size:    len(res.Text),
		Preview: Truncate(res.Text, 120),
	}, true
}

// askQuestion digs the question text out of either a flat field or the
// questions array some vendors use.
func askQuestion(input map[string]any) string {
	if q := stringField(input, askKeys); q != "" {
		return q
	}
	if list, ok := input["questions"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			if q, ok := first["question"].(string); ok {
				return q
			}
		}
	}
	return ""
}

func looksLikeWriteTool(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "write") || strings.Contains(lower, "edit") ||
		strings.Contains(lower, "create")
}

func mergeHighlights(thinking []string, steps []ReasoningStep, max int) []string {
	if max <= 0 {
		return nil
	}
	out := make([]string, 0, max)
	for _, h := range thinking {
		if len(out) >= max {
			return out
		}
		out = append(out, h)
	}
	for _, h := range StepHighlights(steps, max-len(out)) {
		out = append(out, h)
	}
	return out
}
