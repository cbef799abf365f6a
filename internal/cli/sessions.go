package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/logger"
	"github.com/handoffdev/handoff/internal/transcript"
)

// Index entries older than this are dropped on each listing.
const indexTTL = 90 * 24 * time.Hour

var (
	sessionsLimit   int
	sessionsNoCache bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List discovered sessions",
	Long: `List coding sessions discovered on this machine, newest first.

Sessions are found by scanning the per-tool transcript directories
(~/.claude/projects, ~/.codex/sessions) and cached in a local index so
repeated listings stay fast.`,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show")
	sessionsCmd.Flags().BoolVar(&sessionsNoCache, "no-cache", false, "Skip the session index cache")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	sessions := discoverSessions()

	if !sessionsNoCache {
		if idx, err := transcript.OpenIndex(""); err != nil {
			logger.Debug().Err(err).Msg("Session index unavailable")
		} else {
			defer idx.Close()
			for _, s := range sessions {
				if err := idx.Upsert(s); err != nil {
					logger.Debug().Str("session", s.ID).Err(err).Msg("Failed to cache session")
				}
			}
			if n, err := idx.Prune(indexTTL); err == nil && n > 0 {
				logger.Debug().Int64("removed", n).Msg("Pruned stale index entries")
			}
		}
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	for _, s := range sessions {
		fmt.Printf("%-38s %-7s %-10s %8s  %s\n",
			s.ID, s.Tool,
			humanize.Time(s.UpdatedAt),
			humanize.Bytes(uint64(s.ByteCount)),
			s.Summary)
	}
	return nil
}

func discoverSessions() []transcript.Session {
	sessions := transcript.ScanClaude("")
	sessions = append(sessions, transcript.ScanCodex("")...)
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}
