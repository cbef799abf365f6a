package extract

import "github.com/handoffdev/handoff/internal/config"

// defaultMaxSamples applies to categories without a configured cap.
const defaultMaxSamples = 3

// Collector accumulates per-category counts, error counts, and a bounded
// list of representative samples, plus the deduplicated set of modified
// file paths. One collector serves one extraction run.
type Collector struct {
	caps      map[Category]int
	order     []Category
	stats     map[Category]*categoryStats
	fileSeen  map[string]struct{}
	fileOrder []string
}

type categoryStats struct {
	count   int
	errors  int
	samples []ToolSample
}

// AddOptions carries the optional parts of one recorded invocation.
type AddOptions struct {
	Structured *StructuredToolSample
	FilePath   string
	IsWrite    bool
	IsError    bool
}

// NewCollector builds a collector whose sample caps come from the resolved
// verbosity config.
func NewCollector(cfg *config.VerbosityConfig) *Collector {
	return &Collector{
		caps: map[Category]int{
			CategoryShell:  cfg.Shell.MaxSamples,
			CategoryRead:   cfg.Read.MaxSamples,
			CategoryWrite:  cfg.Write.MaxSamples,
			CategoryEdit:   cfg.Edit.MaxSamples,
			CategoryGrep:   cfg.Grep.MaxSamples,
			CategoryGlob:   cfg.Glob.MaxSamples,
			CategorySearch: cfg.Search.MaxSamples,
			CategoryFetch:  cfg.Fetch.MaxSamples,
			CategoryTask:   cfg.Task.MaxSamples,
			CategoryAsk:    cfg.Ask.MaxSamples,
			CategoryMCP:    cfg.MCP.MaxSamples,
		},
		stats:    make(map[Category]*categoryStats),
		fileSeen: make(map[string]struct{}),
	}
}

// Add records one invocation. The count is always incremented; a sample is
// retained only while the category is below its cap.
func (c *Collector) Add(cat Category, summary string, opts AddOptions) {
	st, ok := c.stats[cat]
	if !ok {
		st = &categoryStats{}
		c.stats[cat] = st
		c.order = append(c.order, cat)
	}

	st.count++
	if opts.IsError {
		st.errors++
	}
	if len(st.samples) < c.capFor(cat) {
		st.samples = append(st.samples, ToolSample{
			Summary:    summary,
			Structured: opts.Structured,
		})
	}

	if opts.IsWrite && opts.FilePath != "" {
		c.TrackFile(opts.FilePath)
	}
}

// TrackFile records a modified path without creating a tool-activity entry.
// Idempotent.
func (c *Collector) TrackFile(path string) {
	if path == "" {
		return
	}
	if _, seen := c.fileSeen[path]; seen {
		return
	}
	c.fileSeen[path] = struct{}{}
	c.fileOrder = append(c.fileOrder, path)
}

// Summaries returns one ToolUsageSummary per category in first-seen order.
func (c *Collector) Summaries() []ToolUsageSummary {
	out := make([]ToolUsageSummary, 0, len(c.order))
	for _, cat := range c.order {
		st := c.stats[cat]
		samples := make([]ToolSample, len(st.samples))
		copy(samples, st.samples)
		out = append(out, ToolUsageSummary{
			Category:   cat,
			Count:      st.count,
			ErrorCount: st.errors,
			Samples:    samples,
		})
	}
	return out
}

// FilesModified returns the deduplicated modified paths in first-seen order.
func (c *Collector) FilesModified() []string {
	out := make([]string, len(c.fileOrder))
	copy(out, c.fileOrder)
	return out
}

func (c *Collector) capFor(cat Category) int {
	if cap, ok := c.caps[cat]; ok {
		return cap
	}
	return defaultMaxSamples
}
