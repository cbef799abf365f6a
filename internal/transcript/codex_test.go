package transcript

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCodexSession = `{"type":"session_meta","timestamp":"2025-06-01T09:00:00Z","payload":{"id":"codex-abc","cwd":"/home/dev/proj"}}
{"type":"response_item","timestamp":"2025-06-01T09:00:01Z","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"fix the flaky parser test"}]}}
{"type":"response_item","timestamp":"2025-06-01T09:00:05Z","payload":{"type":"function_call","name":"shell","call_id":"call_1","arguments":"{\"command\":\"go test ./parser\"}"}}
{"type":"response_item","timestamp":"2025-06-01T09:00:07Z","payload":{"type":"function_call_output","call_id":"call_1","output":"ok  \tparser\t0.1s"}}
not json at all
{"type":"response_item","timestamp":"2025-06-01T09:00:09Z","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"The parser test passes now."}]}}
`

func writeCodexFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rollout-2025-06-01.jsonl")
	if err := os.WriteFile(path, []byte(sampleCodexSession), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestParseCodexFile(t *testing.T) {
	messages, err := ParseCodexFile(writeCodexFile(t))
	if err != nil {
		t.Fatalf("ParseCodexFile() error = %v", err)
	}
	if got, want := len(messages), 4; got != want {
		t.Fatalf("len(messages) = %d, want %d", got, want)
	}

	if messages[0].Role != RoleUser || messages[0].PlainText() != "fix the flaky parser test" {
		t.Errorf("first message = %q (%s), want user prompt", messages[0].PlainText(), messages[0].Role)
	}

	call := messages[1].Blocks[0]
	if call.Kind != BlockToolUse {
		t.Fatalf("second message block kind = %q, want %q", call.Kind, BlockToolUse)
	}
	if call.Name != "shell" || call.ID != "call_1" {
		t.Errorf("tool_use = %s/%s, want shell/call_1", call.Name, call.ID)
	}
	if got, want := call.Input["command"], "go test ./parser"; got != want {
		t.Errorf("tool_use command = %v, want %q", got, want)
	}

	result := messages[2].Blocks[0]
	if result.Kind != BlockToolResult || result.ToolUseID != "call_1" {
		t.Errorf("tool_result = %q/%q, want tool_result/call_1", result.Kind, result.ToolUseID)
	}

	if messages[3].Role != RoleAssistant {
		t.Errorf("final message role = %q, want %q", messages[3].Role, RoleAssistant)
	}
}

func TestScanCodex(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2025", "06", "01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rollout.jsonl"), []byte(sampleCodexSession), 0o644); err != nil {
		t.Fatal(err)
	}
	// A file with no session_meta is skipped entirely.
	if err := os.WriteFile(filepath.Join(dir, "stray.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sessions := ScanCodex(root)
	if got, want := len(sessions), 1; got != want {
		t.Fatalf("len(sessions) = %d, want %d", got, want)
	}

	s := sessions[0]
	if s.ID != "codex-abc" {
		t.Errorf("ID = %q, want codex-abc", s.ID)
	}
	if s.Tool != ToolCodex {
		t.Errorf("Tool = %q, want %q", s.Tool, ToolCodex)
	}
	if s.WorkDir != "/home/dev/proj" {
		t.Errorf("WorkDir = %q, want /home/dev/proj", s.WorkDir)
	}
	if s.Summary != "fix the flaky parser test" {
		t.Errorf("Summary = %q, want first user line", s.Summary)
	}
	if s.LineCount != 6 {
		t.Errorf("LineCount = %d, want 6", s.LineCount)
	}
}
