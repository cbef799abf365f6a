// Package extract turns a normalized message stream into categorized tool
// activity, reasoning notes, subagent results, and pending tasks.
package extract

import (
	"time"

	"github.com/handoffdev/handoff/internal/transcript"
)

// Category is one of the fixed tool-activity classes.
type Category string

const (
	CategoryShell     Category = "shell"
	CategoryRead      Category = "read"
	CategoryWrite     Category = "write"
	CategoryEdit      Category = "edit"
	CategoryGrep      Category = "grep"
	CategoryGlob      Category = "glob"
	CategorySearch    Category = "search"
	CategoryFetch     Category = "fetch"
	CategoryTask      Category = "task"
	CategoryAsk       Category = "ask"
	CategoryMCP       Category = "mcp"
	CategoryReasoning Category = "reasoning"

	// CategoryOther is the generic bucket for unclassifiable tool names:
	// counted, never structurally captured.
	CategoryOther Category = "other"

	// CategoryUnclassified is the classifier's no-match result.
	CategoryUnclassified Category = ""
)

// ShellSample captures one shell invocation.
type ShellSample struct {
	Command    string
	ExitCode   *int
	OutputTail []string
	IsError    bool
}

// ReadSample captures one file read. Lines are 1-based; zero means the whole
// file (or an unknown range).
type ReadSample struct {
	Path      string
	StartLine int
	EndLine   int
}

// WriteSample captures one file write.
type WriteSample struct {
	Path    string
	NewFile bool
	Diff    string
	Added   int
	Removed int
}

// EditSample captures one in-place edit.
type EditSample struct {
	Path    string
	Diff    string
	Added   int
	Removed int
}

// GrepSample captures one content search. MatchCount is -1 when the result
// did not report a count.
type GrepSample struct {
	Pattern    string
	Target     string
	MatchCount int
}

// GlobSample captures one filename pattern match.
type GlobSample struct {
	Pattern     string
	ResultCount int
}

// SearchSample captures one web search.
type SearchSample struct {
	Query string
}

// FetchSample captures one URL fetch.
type FetchSample struct {
	URL     string
	Preview string
}

// TaskSample captures one delegated task.
type TaskSample struct {
	Description string
	AgentType   string
	Result      string
}

// AskSample captures one user question.
type AskSample struct {
	Question string
}

// MCPSample captures one namespaced external-tool call.
type MCPSample struct {
	Tool          string
	ParamsPreview string
	ResultPreview string
}

// StructuredToolSample is a closed tagged variant: Kind determines the single
// populated shape.
type StructuredToolSample struct {
	Kind   Category
	Shell  *ShellSample
	Read   *ReadSample
	Write  *WriteSample
	Edit   *EditSample
	Grep   *GrepSample
	Glob   *GlobSample
	Search *SearchSample
	Fetch  *FetchSample
	Task   *TaskSample
	Ask    *AskSample
	MCP    *MCPSample
}

// ToolSample pairs a one-line summary with optional structured data.
type ToolSample struct {
	Summary    string
	Structured *StructuredToolSample
}

// ToolUsageSummary reports one category's activity. ErrorCount is zero when
// no invocation errored. Samples are oldest-first, capped per category.
type ToolUsageSummary struct {
	Category   Category
	Count      int
	ErrorCount int
	Samples    []ToolSample
}

// ReasoningStep is one structured step from an introspection tool call.
type ReasoningStep struct {
	Number     int
	Total      int
	Purpose    string
	Thought    string
	Outcome    string
	NextAction string
}

// SubagentStatus classifies how a delegated sub-session ended.
type SubagentStatus string

const (
	SubagentCompleted SubagentStatus = "completed"
	SubagentKilled    SubagentStatus = "killed"
)

// SubagentResult is the resolved outcome of one delegated task.
type SubagentResult struct {
	TaskID        string
	Description   string
	Status        SubagentStatus
	Result        string
	ToolCallCount int
}

// ExternalToolNote records a large external tool result kept out of line.
type ExternalToolNote struct {
	Name    string
	Size    int
	Preview string
}

// SessionNotes collects session-level observations: model, token totals,
// reasoning, subagents.
type SessionNotes struct {
	Model          string
	TokensIn       int
	TokensOut      int
	CacheRead      int
	CacheCreation  int
	Highlights     []string
	ReasoningSteps []ReasoningStep
	Subagents      []SubagentResult
	ExternalTools  []ExternalToolNote
	CompactSummary string
}

// RecentMessage is one trimmed conversational message.
type RecentMessage struct {
	Role      transcript.Role
	Text      string
	Timestamp time.Time
}

// SessionContext is the pipeline's output artifact, recomputed per run and
// never mutated afterward.
type SessionContext struct {
	RunID          string
	Session        transcript.Session
	RecentMessages []RecentMessage
	FilesModified  []string
	PendingTasks   []string
	ToolSummaries  []ToolUsageSummary
	Notes          SessionNotes
	Document       string
}
