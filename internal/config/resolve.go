package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/handoffdev/handoff/internal/logger"
)

// ErrUnknownPreset is returned when a preset name does not match any built-in.
var ErrUnknownPreset = errors.New("unknown verbosity preset")

// Resolve produces a fully-populated config from a named preset plus optional
// overrides. Overrides are deep-merged onto the preset tree: nested mappings
// merge key-by-key, anything else replaces the base value wholesale. An
// override tree that fails schema validation is discarded with a warning and
// the base preset is returned unchanged. Every call returns a fresh copy.
func Resolve(preset string, overrides map[string]any) (*VerbosityConfig, error) {
	if preset == "" {
		preset = DefaultPreset
	}
	mk, ok := presets[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	base := mk()
	if len(overrides) == 0 {
		return base, nil
	}

	tree, err := toTree(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preset %q: %w", preset, err)
	}

	merged := deepMerge(tree, overrides)
	if err := validateTree(merged, rootSchema, ""); err != nil {
		logger.Warn().
			Str("preset", preset).
			Err(err).
			Msg("Invalid verbosity overrides, using base preset")
		return base, nil
	}

	cfg, err := fromTree(merged)
	if err != nil {
		logger.Warn().
			Str("preset", preset).
			Err(err).
			Msg("Failed to decode merged verbosity config, using base preset")
		return base, nil
	}
	return cfg, nil
}

// LoadOverrides reads a partial override tree from a YAML (or JSON) file.
func LoadOverrides(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file %s: %w", path, err)
	}
	return tree, nil
}

// deepMerge merges override onto base, returning a new tree. Both inputs are
// left untouched.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		bm, baseIsMap := out[k].(map[string]any)
		om, overrideIsMap := ov.(map[string]any)
		if baseIsMap && overrideIsMap {
			out[k] = deepMerge(bm, om)
			continue
		}
		out[k] = ov
	}
	return out
}

// Schema node kinds. A schemaNode value is either a fieldKind leaf or a
// nested schemaNode.
type fieldKind int

const (
	kindInt fieldKind = iota
	kindBool
)

type schemaNode map[string]any

func categorySchema() schemaNode {
	return schemaNode{
		"max_samples": kindInt,
		"max_chars":   kindInt,
	}
}

var rootSchema = schemaNode{
	"recent_messages":   kindInt,
	"max_message_chars": kindInt,
	"include_thinking":  kindBool,
	"include_diffs":     kindBool,
	"shell": schemaNode{
		"max_samples":      kindInt,
		"max_chars":        kindInt,
		"max_output_lines": kindInt,
	},
	"read": categorySchema(),
	"write": schemaNode{
		"max_samples":    kindInt,
		"max_chars":      kindInt,
		"max_diff_lines": kindInt,
	},
	"edit": schemaNode{
		"max_samples":    kindInt,
		"max_chars":      kindInt,
		"max_diff_lines": kindInt,
	},
	"grep":   categorySchema(),
	"glob":   categorySchema(),
	"search": categorySchema(),
	"fetch":  categorySchema(),
	"task":   categorySchema(),
	"ask":    categorySchema(),
	"mcp":    categorySchema(),
	"reasoning": schemaNode{
		"max_steps":       kindInt,
		"max_highlights":  kindInt,
		"max_field_chars": kindInt,
	},
	"pending": schemaNode{
		"max_tasks": kindInt,
	},
}

// validateTree checks a merged tree against the schema: unknown keys are
// rejected, caps must be non-negative integers, flags must be booleans.
func validateTree(tree map[string]any, sch schemaNode, path string) error {
	for key, val := range tree {
		full := key
		if path != "" {
			full = path + "." + key
		}

		spec, ok := sch[key]
		if !ok {
			return fmt.Errorf("unknown key %q", full)
		}

		switch s := spec.(type) {
		case fieldKind:
			if err := validateLeaf(val, s, full); err != nil {
				return err
			}
		case schemaNode:
			sub, ok := val.(map[string]any)
			if !ok {
				return fmt.Errorf("key %q: expected a mapping, got %T", full, val)
			}
			if err := validateTree(sub, s, full); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLeaf(val any, kind fieldKind, path string) error {
	switch kind {
	case kindInt:
		n, ok := asInt(val)
		if !ok {
			return fmt.Errorf("key %q: expected an integer, got %T", path, val)
		}
		if n < 0 {
			return fmt.Errorf("key %q: must be non-negative, got %d", path, n)
		}
	case kindBool:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("key %q: expected a boolean, got %T", path, val)
		}
	}
	return nil
}

func asInt(val any) (int64, bool) {
	switch n := val.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// toTree round-trips the typed config into a raw tree for merging.
func toTree(cfg *VerbosityConfig) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func fromTree(tree map[string]any) (*VerbosityConfig, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var cfg VerbosityConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
