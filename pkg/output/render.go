package output

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrapWidth is the terminal width used when none is known.
const DefaultWrapWidth = 100

// RenderTerminal renders Markdown for display in a terminal.
func RenderTerminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
