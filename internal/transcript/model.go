// Package transcript defines the normalized session model the extraction
// pipeline consumes, plus the vendor adapters that produce it from on-disk
// transcript files.
package transcript

import "time"

// Role of a normalized message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// BlockKind tags a content block.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockThinking   BlockKind = "thinking"
)

// ContentBlock is one tagged block within a message. The kind determines
// which fields are meaningful: tool_use carries ID/Name/Input, tool_result
// carries ToolUseID/Content/IsError, text and thinking carry their string.
type ContentBlock struct {
	Kind      BlockKind
	Text      string
	Thinking  string
	ID        string
	Name      string
	Input     map[string]any
	ToolUseID string
	Content   string
	IsError   bool
}

// TokenUsage holds per-turn token accounting reported by the vendor.
type TokenUsage struct {
	Input         int
	Output        int
	CacheRead     int
	CacheCreation int
}

// Message is one normalized conversational record.
type Message struct {
	Role      Role
	Blocks    []ContentBlock
	Timestamp time.Time
	Model     string
	Usage     *TokenUsage
}

// Session describes one discovered transcript. Produced by adapters and
// consumed read-only by the pipeline.
type Session struct {
	ID        string
	Tool      string
	WorkDir   string
	Repo      string
	Branch    string
	LineCount int
	ByteCount int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Path      string
	Summary   string
}

// PlainText returns the concatenated text blocks of a message, used for
// recent-conversation trimming.
func (m *Message) PlainText() string {
	var out string
	for _, b := range m.Blocks {
		if b.Kind != BlockText || b.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += b.Text
	}
	return out
}
