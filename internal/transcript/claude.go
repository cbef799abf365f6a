package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/handoffdev/handoff/internal/logger"
)

const (
	// ToolClaude identifies sessions discovered from Claude Code.
	ToolClaude = "claude"

	scanBufSize = 10 * 1024 * 1024
)

var systemTagRe = regexp.MustCompile(`<[^>]+>`)

// claudeLine is the raw shape of one Claude Code JSONL record.
type claudeLine struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	CWD       string    `json:"cwd"`
	GitBranch string    `json:"gitBranch"`
	Timestamp time.Time `json:"timestamp"`
	Message   struct {
		Role    string          `json:"role"`
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"`
		Usage   *struct {
			InputTokens              int `json:"input_tokens"`
			OutputTokens             int `json:"output_tokens"`
			CacheReadInputTokens     int `json:"cache_read_input_tokens"`
			CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

type claudeBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     map[string]any  `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// ScanClaude discovers Claude Code sessions under root (default
// ~/.claude/projects). Unreadable projects and unparseable files are skipped.
func ScanClaude(root string) []Session {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		root = filepath.Join(home, ".claude", "projects")
	}

	projects, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var sessions []Session
	for _, proj := range projects {
		if !proj.IsDir() {
			continue
		}
		dir := filepath.Join(root, proj.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			// Subagent transcripts live in sibling directories; only
			// top-level files are parent sessions.
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
				continue
			}
			if s, ok := scanClaudeSession(filepath.Join(dir, e.Name())); ok {
				sessions = append(sessions, s)
			}
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

func scanClaudeSession(path string) (Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Session{}, false
	}

	s := Session{
		Tool:      ToolClaude,
		Path:      path,
		ByteCount: info.Size(),
		UpdatedAt: info.ModTime(),
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), scanBufSize)

	for sc.Scan() {
		s.LineCount++
		if s.ID != "" && s.Summary != "" {
			continue
		}

		var line claudeLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			continue
		}
		if s.ID == "" && line.SessionID != "" {
			s.ID = line.SessionID
			s.WorkDir = line.CWD
			s.Branch = line.GitBranch
			s.CreatedAt = line.Timestamp
		}
		if s.Summary == "" && line.Type == "user" {
			var text string
			if err := json.Unmarshal(line.Message.Content, &text); err == nil {
				text = strings.TrimSpace(systemTagRe.ReplaceAllString(text, ""))
				if text != "" {
					s.Summary = firstLineOf(text, 120)
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		logger.Debug().Str("path", path).Err(err).Msg("Stopped scanning session file")
	}

	if s.ID == "" {
		return Session{}, false
	}
	return s, true
}

// ParseClaudeFile decodes one Claude Code JSONL transcript into the
// normalized message stream. Unparseable lines are skipped, not fatal.
func ParseClaudeFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), scanBufSize)

	var messages []Message
	lineNum := 0
	for sc.Scan() {
		lineNum++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line claudeLine
		if err := json.Unmarshal(raw, &line); err != nil {
			logger.Debug().Str("path", path).Int("line", lineNum).Err(err).
				Msg("Skipping unparseable transcript line")
			continue
		}
		if line.Type == "summary" {
			// Compaction records carry the condensed history of an earlier
			// window; surface them as system messages.
			var rec struct {
				Summary string `json:"summary"`
			}
			if err := json.Unmarshal(raw, &rec); err == nil && rec.Summary != "" {
				messages = append(messages, Message{
					Role:   RoleSystem,
					Blocks: []ContentBlock{{Kind: BlockText, Text: rec.Summary}},
				})
			}
			continue
		}
		if line.Type != "user" && line.Type != "assistant" {
			continue
		}

		msg := Message{
			Role:      Role(line.Type),
			Timestamp: line.Timestamp,
			Model:     line.Message.Model,
			Blocks:    decodeClaudeContent(line.Message.Content),
		}
		if u := line.Message.Usage; u != nil {
			msg.Usage = &TokenUsage{
				Input:         u.InputTokens,
				Output:        u.OutputTokens,
				CacheRead:     u.CacheReadInputTokens,
				CacheCreation: u.CacheCreationInputTokens,
			}
		}
		if len(msg.Blocks) == 0 {
			continue
		}
		messages = append(messages, msg)
	}
	if err := sc.Err(); err != nil {
		logger.Debug().Str("path", path).Err(err).Msg("Stopped reading transcript")
	}
	return messages, nil
}

// decodeClaudeContent handles both plain-string and block-array content.
func decodeClaudeContent(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return nil
		}
		return []ContentBlock{{Kind: BlockText, Text: text}}
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}

	var out []ContentBlock
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				out = append(out, ContentBlock{Kind: BlockText, Text: b.Text})
			}
		case "thinking":
			thinking := b.Thinking
			if thinking == "" {
				thinking = b.Text
			}
			if thinking != "" {
				out = append(out, ContentBlock{Kind: BlockThinking, Thinking: thinking})
			}
		case "tool_use":
			out = append(out, ContentBlock{
				Kind:  BlockToolUse,
				ID:    b.ID,
				Name:  b.Name,
				Input: b.Input,
			})
		case "tool_result":
			out = append(out, ContentBlock{
				Kind:      BlockToolResult,
				ToolUseID: b.ToolUseID,
				Content:   decodeResultContent(b.Content),
				IsError:   b.IsError,
			})
		}
	}
	return out
}

// decodeResultContent flattens tool_result content, which is either a string
// or an array of text blocks.
func decodeResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// LocateClaudeSubagent returns the transcript path for a delegated task
// spawned by the session at parentPath, or "" when none exists. Subagent
// transcripts live in a directory named after the parent session.
func LocateClaudeSubagent(parentPath, taskID string) string {
	if parentPath == "" || taskID == "" {
		return ""
	}
	base := strings.TrimSuffix(parentPath, ".jsonl")
	for _, candidate := range []string{
		filepath.Join(base, taskID+".jsonl"),
		filepath.Join(base, "subagents", taskID+".jsonl"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func firstLineOf(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max-3] + "..."
	}
	return s
}
