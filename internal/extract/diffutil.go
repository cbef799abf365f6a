package extract

import (
	"fmt"
	"strings"
)

// Truncate collapses s to a single display line of at most max characters.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// OutputTail returns up to n trailing lines of text, trailing blanks dropped.
func OutputTail(text string, n int) []string {
	if n <= 0 || text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// DiffStats returns added and removed line counts between two texts.
func DiffStats(oldText, newText string) (added, removed int) {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	common := lcsLength(oldLines, newLines)
	return len(newLines) - common, len(oldLines) - common
}

// UnifiedDiff renders a unified diff of two texts as one hunk. Returns ""
// when the texts are equal. The body is capped at maxLines with a trailer
// noting how much was dropped; maxLines <= 0 means uncapped.
func UnifiedDiff(oldText, newText, path string, maxLines int) string {
	if oldText == newText {
		return ""
	}

	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	var b strings.Builder
	if len(oldLines) == 0 {
		b.WriteString("--- /dev/null\n")
	} else {
		fmt.Fprintf(&b, "--- a/%s\n", path)
	}
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(oldLines), len(newLines))

	body := diffLines(oldLines, newLines)
	if maxLines > 0 && len(body) > maxLines {
		dropped := len(body) - maxLines
		body = append(body[:maxLines:maxLines],
			fmt.Sprintf("... (%d more lines)", dropped))
	}
	b.WriteString(strings.Join(body, "\n"))
	return b.String()
}

// diffLines walks the LCS table backwards to emit context/-/+ lines.
func diffLines(oldLines, newLines []string) []string {
	table := lcsTable(oldLines, newLines)

	var rev []string
	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLines[i-1] == newLines[j-1]:
			rev = append(rev, " "+oldLines[i-1])
			i--
			j--
		case j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]):
			rev = append(rev, "+"+newLines[j-1])
			j--
		default:
			rev = append(rev, "-"+oldLines[i-1])
			i--
		}
	}

	out := make([]string, len(rev))
	for k, line := range rev {
		out[len(rev)-1-k] = line
	}
	return out
}

func lcsTable(a, b []string) [][]int {
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}
	return table
}

func lcsLength(a, b []string) int {
	t := lcsTable(a, b)
	return t[len(a)][len(b)]
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
