package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ToolCodex identifies sessions discovered from Codex CLI.
const ToolCodex = "codex"

// ScanCodex discovers Codex sessions under root (default ~/.codex/sessions).
func ScanCodex(root string) []Session {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		root = filepath.Join(home, ".codex", "sessions")
	}

	var sessions []Session
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(info.Name(), ".jsonl") {
			return nil
		}
		if s, ok := scanCodexSession(path, info); ok {
			sessions = append(sessions, s)
		}
		return nil
	})
	return sessions
}

type codexLine struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func scanCodexSession(path string, info os.FileInfo) (Session, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, false
	}
	defer f.Close()

	s := Session{
		Tool:      ToolCodex,
		Path:      path,
		ByteCount: info.Size(),
		UpdatedAt: info.ModTime(),
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for sc.Scan() {
		s.LineCount++

		var line codexLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			continue
		}
		switch line.Type {
		case "session_meta":
			var meta struct {
				ID  string `json:"id"`
				CWD string `json:"cwd"`
			}
			if err := json.Unmarshal(line.Payload, &meta); err == nil {
				s.ID = meta.ID
				s.WorkDir = meta.CWD
				s.CreatedAt = line.Timestamp
			}
		case "response_item":
			if s.Summary != "" {
				continue
			}
			if msg, ok := decodeCodexItem(line.Payload, line.Timestamp); ok && msg.Role == RoleUser {
				if text := msg.PlainText(); text != "" {
					s.Summary = firstLineOf(text, 120)
				}
			}
		}
	}

	if s.ID == "" {
		return Session{}, false
	}
	return s, true
}

// ParseCodexFile decodes a Codex session file into the normalized stream.
func ParseCodexFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []Message
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for sc.Scan() {
		var line codexLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			continue
		}
		if line.Type != "response_item" {
			continue
		}
		if msg, ok := decodeCodexItem(line.Payload, line.Timestamp); ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func decodeCodexItem(payload json.RawMessage, ts time.Time) (Message, bool) {
	var item struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Name    string `json:"name"`
		CallID  string `json:"call_id"`
		Output  string `json:"output"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Arguments string `json:"arguments"`
	}
	if err := json.Unmarshal(payload, &item); err != nil {
		return Message{}, false
	}

	switch item.Type {
	case "message":
		role := RoleUser
		if item.Role == "assistant" {
			role = RoleAssistant
		}
		var blocks []ContentBlock
		for _, c := range item.Content {
			if c.Text != "" {
				blocks = append(blocks, ContentBlock{Kind: BlockText, Text: c.Text})
			}
		}
		if len(blocks) == 0 {
			return Message{}, false
		}
		return Message{Role: role, Blocks: blocks, Timestamp: ts}, true

	case "function_call":
		var input map[string]any
		json.Unmarshal([]byte(item.Arguments), &input)
		return Message{
			Role:      RoleAssistant,
			Timestamp: ts,
			Blocks: []ContentBlock{{
				Kind:  BlockToolUse,
				ID:    item.CallID,
				Name:  item.Name,
				Input: input,
			}},
		}, true

	case "function_call_output":
		return Message{
			Role:      RoleUser,
			Timestamp: ts,
			Blocks: []ContentBlock{{
				Kind:      BlockToolResult,
				ToolUseID: item.CallID,
				Content:   item.Output,
			}},
		}, true
	}
	return Message{}, false
}
