package services

import (
	"strings"

	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// loadPrompt returns the template for name from store, falling back to
// the built-in default when the store is nil or fails.
func loadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		tmpl, err := store.Load(name)
		if err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
		if err != nil {
			logger.Warn("Prompt %q unavailable, using default: %v", name, err)
		}
	}
	tmpl, _ := driven.DefaultPrompt(name)
	return tmpl
}

// fillPrompt substitutes values for the %s placeholders of tmpl in order.
// Any other % in the template is kept as written, and substituted values
// are never scanned for placeholders. Values without a placeholder are
// appended after a blank line, so user-edited templates that lost one
// still carry the text.
func fillPrompt(tmpl string, values ...string) string {
	parts := strings.Split(tmpl, "%s")

	var b strings.Builder
	b.WriteString(parts[0])
	next := 0
	for _, part := range parts[1:] {
		if next < len(values) {
			b.WriteString(values[next])
			next++
		} else {
			b.WriteString("%s")
		}
		b.WriteString(part)
	}
	for _, v := range values[next:] {
		b.WriteString("\n\n")
		b.WriteString(v)
	}
	return b.String()
}
