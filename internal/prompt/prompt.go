// Package prompt renders the system prompt and the per-turn query.
// Every function here is pure: the same inputs always give the same text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

// Options fills the non-catalogue parts of the system prompt.
type Options struct {
	// Recipient is the address the model must email before answering.
	Recipient string
}

// Catalogue lists every tool, grouped by provider in registration order and
// numbered from 1 within each provider.
func Catalogue(c *registry.Catalogue) string {
	var lines []string
	for _, provider := range c.Providers() {
		for i, t := range c.Tools(provider) {
			lines = append(lines, ToolLine(i+1, t))
		}
	}
	return strings.Join(lines, "\n")
}

// ToolLine renders "index. Provider - name(p: type, ...) - description".
func ToolLine(index int, t registry.Tool) string {
	params := NO_PARAMETERS
	if t.Schema != nil && t.Schema.Len() > 0 {
		parts := make([]string, 0, t.Schema.Len())
		for pair := t.Schema.Oldest(); pair != nil; pair = pair.Next() {
			parts = append(parts, fmt.Sprintf("%s: %s", pair.Key, pair.Value.Label()))
		}
		params = strings.Join(parts, ", ")
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		desc = NO_DESCRIPTION
	}
	return fmt.Sprintf("%d. %s - %s(%s) - %s", index, t.Provider, t.Name, params, desc)
}

// System renders the full system prompt.
func System(c *registry.Catalogue, opts Options) string {
	recipient := opts.Recipient
	if recipient == "" {
		recipient = UNKNOWN_RECIPIENT
	}
	out := strings.ReplaceAll(GetSystemTemplate(), "{{TOOLS}}", Catalogue(c))
	out = strings.ReplaceAll(out, "{{OUTPUT_CONTRACT}}", OUTPUT_CONTRACT)
	out = strings.ReplaceAll(out, "{{RECIPIENT}}", recipient)
	return out
}

// TurnQuery is the task alone on the first turn, and afterwards the task followed
// by every iteration record so far and the continuation question.
func TurnQuery(task string, records []string) string {
	if len(records) == 0 {
		return task
	}
	return task + "\n\n" + strings.Join(records, " ") + "  " + CONTINUATION
}

// Render appends the turn query to the system prompt.
func Render(system, turnQuery string) string {
	return system + "\n\nQuery: " + turnQuery
}
