package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/config"
	"github.com/handoffdev/handoff/internal/extract"
	"github.com/handoffdev/handoff/internal/handoff"
	"github.com/handoffdev/handoff/internal/transcript"
)

var (
	extractPreset    string
	extractMode      string
	extractOverrides string
)

var extractCmd = &cobra.Command{
	Use:   "extract <session-id | transcript-path>",
	Short: "Extract a session and render its handoff document",
	Long: `Extract one session and print its handoff document.

The argument is either a session ID from 'handoff sessions' or a direct
path to a transcript file.

Example:
  handoff extract 3f1c9a2e-0b7d-4f7e-9c55-1f2a3b4c5d6e
  handoff extract ~/.claude/projects/-work-api/abc.jsonl --preset verbose
  handoff extract abc.jsonl --mode reference`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractPreset, "preset", config.DefaultPreset,
		"Verbosity preset (minimal, standard, verbose, full)")
	extractCmd.Flags().StringVar(&extractMode, "mode", string(handoff.ModeInline),
		"Display mode (inline, reference)")
	extractCmd.Flags().StringVarP(&extractOverrides, "config", "c", "",
		"Path to a verbosity overrides file")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var overrides map[string]any
	if extractOverrides != "" {
		var err error
		overrides, err = config.LoadOverrides(extractOverrides)
		if err != nil {
			return fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	cfg, err := config.Resolve(extractPreset, overrides)
	if err != nil {
		return err
	}

	mode := handoff.Mode(extractMode)
	if mode != handoff.ModeInline && mode != handoff.ModeReference {
		return fmt.Errorf("unknown display mode %q", extractMode)
	}

	sess, err := findSession(args[0])
	if err != nil {
		return err
	}

	var messages []transcript.Message
	switch sess.Tool {
	case transcript.ToolCodex:
		messages, err = transcript.ParseCodexFile(sess.Path)
	default:
		messages, err = transcript.ParseClaudeFile(sess.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse transcript: %w", err)
	}

	ctx := extract.Run(sess, messages, cfg, extract.Options{
		LocateSubagent: func(taskID string) string {
			return transcript.LocateClaudeSubagent(sess.Path, taskID)
		},
	})
	ctx.Document = handoff.Render(ctx, mode)

	fmt.Print(ctx.Document)
	return nil
}

// findSession resolves the argument as a session ID first, then as a
// transcript path.
func findSession(arg string) (transcript.Session, error) {
	for _, s := range discoverSessions() {
		if s.ID == arg {
			return s, nil
		}
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return transcript.Session{
			ID:        strings.TrimSuffix(filepath.Base(arg), ".jsonl"),
			Tool:      transcript.ToolClaude,
			Path:      arg,
			ByteCount: info.Size(),
			UpdatedAt: info.ModTime(),
		}, nil
	}
	return transcript.Session{}, fmt.Errorf("no session matching %q", arg)
}
