package explore

import (
	"sort"
	"strings"
)

// commands are the keyword forms the loop accepts besides symbol paths.
var commands = []string{"consts", "help", "passes", "quit", "scopes", "symbols"}

// pathCompleter implements readline.AutoCompleter by enumerating symbol
// paths from the resolved model.
type pathCompleter struct {
	model *model
}

func (c *pathCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to whitespace).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '\n' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collect(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, candidate := range candidates {
		suffix := candidate[len(prefix):]
		result = append(result, []rune(suffix))
	}
	return result, len(prefix)
}

func (c *pathCompleter) collect(prefix string) []string {
	seen := make(map[string]bool)
	var result []string

	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	for _, it := range c.model.items {
		add(it.ID)
		// Scopes also complete as "Motor." so members follow in one
		// more tab press.
		if it.Kind == "scope" {
			add(it.ID + ".")
		}
	}
	for name := range c.model.byName {
		add(name)
	}
	for _, command := range commands {
		add(command)
	}

	sort.Strings(result)
	return result
}
