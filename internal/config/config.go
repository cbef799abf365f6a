package config

// VerbosityConfig controls every truncation and sampling limit applied during
// extraction and rendering. Caps are non-negative; a zero cap disables the
// capture it governs.
type VerbosityConfig struct {
	RecentMessages  int  `yaml:"recent_messages"`
	MaxMessageChars int  `yaml:"max_message_chars"`
	IncludeThinking bool `yaml:"include_thinking"`
	IncludeDiffs    bool `yaml:"include_diffs"`

	Shell     ShellConfig     `yaml:"shell"`
	Read      CategoryConfig  `yaml:"read"`
	Write     DiffConfig      `yaml:"write"`
	Edit      DiffConfig      `yaml:"edit"`
	Grep      CategoryConfig  `yaml:"grep"`
	Glob      CategoryConfig  `yaml:"glob"`
	Search    CategoryConfig  `yaml:"search"`
	Fetch     CategoryConfig  `yaml:"fetch"`
	Task      CategoryConfig  `yaml:"task"`
	Ask       CategoryConfig  `yaml:"ask"`
	MCP       CategoryConfig  `yaml:"mcp"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Pending   PendingConfig   `yaml:"pending"`
}

// CategoryConfig holds the limits shared by every tool category.
type CategoryConfig struct {
	MaxSamples int `yaml:"max_samples"`
	MaxChars   int `yaml:"max_chars"`
}

// ShellConfig extends the common limits with a bound on captured output lines.
type ShellConfig struct {
	MaxSamples     int `yaml:"max_samples"`
	MaxChars       int `yaml:"max_chars"`
	MaxOutputLines int `yaml:"max_output_lines"`
}

// DiffConfig extends the common limits with a bound on captured diff lines.
// Used by the write and edit categories.
type DiffConfig struct {
	MaxSamples   int `yaml:"max_samples"`
	MaxChars     int `yaml:"max_chars"`
	MaxDiffLines int `yaml:"max_diff_lines"`
}

// ReasoningConfig bounds structured reasoning capture.
type ReasoningConfig struct {
	MaxSteps      int `yaml:"max_steps"`
	MaxHighlights int `yaml:"max_highlights"`
	MaxFieldChars int `yaml:"max_field_chars"`
}

// PendingConfig bounds pending-task inference.
type PendingConfig struct {
	MaxTasks int `yaml:"max_tasks"`
}

// Preset names, ordered by increasing retained detail.
const (
	PresetMinimal  = "minimal"
	PresetStandard = "standard"
	PresetVerbose  = "verbose"
	PresetFull     = "full"
)

// DefaultPreset is used when no preset name is given.
const DefaultPreset = PresetStandard

// PresetNames returns the built-in preset names, least detailed first.
func PresetNames() []string {
	return []string{PresetMinimal, PresetStandard, PresetVerbose, PresetFull}
}

var presets = map[string]func() *VerbosityConfig{
	PresetMinimal:  minimalPreset,
	PresetStandard: standardPreset,
	PresetVerbose:  verbosePreset,
	PresetFull:     fullPreset,
}

func minimalPreset() *VerbosityConfig {
	return &VerbosityConfig{
		RecentMessages:  4,
		MaxMessageChars: 240,
		IncludeThinking: false,
		IncludeDiffs:    false,
		Shell:           ShellConfig{MaxSamples: 1, MaxChars: 120, MaxOutputLines: 0},
		Read:            CategoryConfig{MaxSamples: 1, MaxChars: 120},
		Write:           DiffConfig{MaxSamples: 1, MaxChars: 120, MaxDiffLines: 0},
		Edit:            DiffConfig{MaxSamples: 1, MaxChars: 120, MaxDiffLines: 0},
		Grep:            CategoryConfig{MaxSamples: 1, MaxChars: 120},
		Glob:            CategoryConfig{MaxSamples: 1, MaxChars: 120},
		Search:          CategoryConfig{MaxSamples: 1, MaxChars: 120},
		Fetch:           CategoryConfig{MaxSamples: 1, MaxChars: 120},
		Task:            CategoryConfig{MaxSamples: 1, MaxChars: 160},
		Ask:             CategoryConfig{MaxSamples: 1, MaxChars: 160},
		MCP:             CategoryConfig{MaxSamples: 1, MaxChars: 160},
		Reasoning:       ReasoningConfig{MaxSteps: 2, MaxHighlights: 2, MaxFieldChars: 80},
		Pending:         PendingConfig{MaxTasks: 3},
	}
}

func standardPreset() *VerbosityConfig {
	return &VerbosityConfig{
		RecentMessages:  10,
		MaxMessageChars: 600,
		IncludeThinking: true,
		IncludeDiffs:    true,
		Shell:           ShellConfig{MaxSamples: 3, MaxChars: 200, MaxOutputLines: 5},
		Read:            CategoryConfig{MaxSamples: 3, MaxChars: 200},
		Write:           DiffConfig{MaxSamples: 3, MaxChars: 200, MaxDiffLines: 40},
		Edit:            DiffConfig{MaxSamples: 3, MaxChars: 200, MaxDiffLines: 40},
		Grep:            CategoryConfig{MaxSamples: 2, MaxChars: 200},
		Glob:            CategoryConfig{MaxSamples: 2, MaxChars: 200},
		Search:          CategoryConfig{MaxSamples: 2, MaxChars: 200},
		Fetch:           CategoryConfig{MaxSamples: 2, MaxChars: 200},
		Task:            CategoryConfig{MaxSamples: 3, MaxChars: 240},
		Ask:             CategoryConfig{MaxSamples: 2, MaxChars: 240},
		MCP:             CategoryConfig{MaxSamples: 2, MaxChars: 240},
		Reasoning:       ReasoningConfig{MaxSteps: 6, MaxHighlights: 4, MaxFieldChars: 160},
		Pending:         PendingConfig{MaxTasks: 5},
	}
}

func verbosePreset() *VerbosityConfig {
	return &VerbosityConfig{
		RecentMessages:  20,
		MaxMessageChars: 1200,
		IncludeThinking: true,
		IncludeDiffs:    true,
		Shell:           ShellConfig{MaxSamples: 6, MaxChars: 400, MaxOutputLines: 15},
		Read:            CategoryConfig{MaxSamples: 6, MaxChars: 400},
		Write:           DiffConfig{MaxSamples: 6, MaxChars: 400, MaxDiffLines: 120},
		Edit:            DiffConfig{MaxSamples: 6, MaxChars: 400, MaxDiffLines: 120},
		Grep:            CategoryConfig{MaxSamples: 4, MaxChars: 400},
		Glob:            CategoryConfig{MaxSamples: 4, MaxChars: 400},
		Search:          CategoryConfig{MaxSamples: 4, MaxChars: 400},
		Fetch:           CategoryConfig{MaxSamples: 4, MaxChars: 400},
		Task:            CategoryConfig{MaxSamples: 6, MaxChars: 400},
		Ask:             CategoryConfig{MaxSamples: 4, MaxChars: 400},
		MCP:             CategoryConfig{MaxSamples: 4, MaxChars: 400},
		Reasoning:       ReasoningConfig{MaxSteps: 12, MaxHighlights: 8, MaxFieldChars: 320},
		Pending:         PendingConfig{MaxTasks: 8},
	}
}

func fullPreset() *VerbosityConfig {
	return &VerbosityConfig{
		RecentMessages:  50,
		MaxMessageChars: 4000,
		IncludeThinking: true,
		IncludeDiffs:    true,
		Shell:           ShellConfig{MaxSamples: 20, MaxChars: 2000, MaxOutputLines: 60},
		Read:            CategoryConfig{MaxSamples: 20, MaxChars: 2000},
		Write:           DiffConfig{MaxSamples: 20, MaxChars: 2000, MaxDiffLines: 600},
		Edit:            DiffConfig{MaxSamples: 20, MaxChars: 2000, MaxDiffLines: 600},
		Grep:            CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		Glob:            CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		Search:          CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		Fetch:           CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		Task:            CategoryConfig{MaxSamples: 20, MaxChars: 2000},
		Ask:             CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		MCP:             CategoryConfig{MaxSamples: 10, MaxChars: 2000},
		Reasoning:       ReasoningConfig{MaxSteps: 50, MaxHighlights: 20, MaxFieldChars: 1000},
		Pending:         PendingConfig{MaxTasks: 20},
	}
}
