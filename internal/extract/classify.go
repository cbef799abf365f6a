package extract

import "strings"

// Membership sets for vendor tool names. Categories are closed: no dynamic
// registration, so classification is independent of call order.
var (
	shellNames = nameSet("Bash", "Shell", "bash", "shell", "run_command",
		"execute_command", "exec_command", "run_terminal_cmd")
	readNames = nameSet("Read", "ReadFile", "read_file", "open_file", "view",
		"cat", "NotebookRead")
	writeNames = nameSet("Write", "WriteFile", "write_file", "create_file",
		"write_to_file")
	editNames = nameSet("Edit", "MultiEdit", "NotebookEdit", "edit_file",
		"str_replace_editor", "apply_patch", "apply_diff")
	grepNames = nameSet("Grep", "grep", "search_file_content", "rg")
	globNames = nameSet("Glob", "glob", "find_files", "list_files")
	searchNames = nameSet("WebSearch", "web_search", "search_web",
		"brave_search")
	fetchNames = nameSet("WebFetch", "web_fetch", "fetch", "fetch_url",
		"read_url")
	taskNames = nameSet("Task", "Agent", "dispatch_agent", "delegate",
		"spawn_agent")
	askNames = nameSet("AskUserQuestion", "ask_user", "ask_followup_question",
		"request_user_input")

	// Introspection tools whose structured input is mined for reasoning
	// steps rather than tool activity.
	reasoningNames = nameSet("think", "sequentialthinking",
		"sequential_thinking", "mcp__sequential-thinking__sequentialthinking")
)

const mcpPrefix = "mcp__"

func nameSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Classify maps a raw tool name to exactly one category, or
// CategoryUnclassified when no rule matches. Total and side-effect-free.
func Classify(name string) Category {
	if name == "" {
		return CategoryUnclassified
	}
	if _, ok := reasoningNames[name]; ok {
		return CategoryReasoning
	}
	if _, ok := shellNames[name]; ok {
		return CategoryShell
	}
	if _, ok := readNames[name]; ok {
		return CategoryRead
	}
	if _, ok := writeNames[name]; ok {
		return CategoryWrite
	}
	if _, ok := editNames[name]; ok {
		return CategoryEdit
	}
	if _, ok := grepNames[name]; ok {
		return CategoryGrep
	}
	if _, ok := globNames[name]; ok {
		return CategoryGlob
	}
	if _, ok := searchNames[name]; ok {
		return CategorySearch
	}
	if _, ok := fetchNames[name]; ok {
		return CategoryFetch
	}
	if _, ok := taskNames[name]; ok {
		return CategoryTask
	}
	if _, ok := askNames[name]; ok {
		return CategoryAsk
	}
	// Vendor-prefixed identifiers are external tool calls.
	if strings.HasPrefix(name, mcpPrefix) {
		return CategoryMCP
	}
	return CategoryUnclassified
}

// IsIntrospection reports whether name belongs to the fixed introspection
// tool set.
func IsIntrospection(name string) bool {
	_, ok := reasoningNames[name]
	return ok
}
