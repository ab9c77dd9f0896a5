package components

import (
	"fmt"
	"strings"

	kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// keyStyle is used to highlight keyboard shortcuts in UI
var keyStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4")).
	Bold(true)

// KeyBindingsBar creates a styled footer showing the primary key of each binding
// width: The width of the screen to center the bar
// bindings: The list of keybindings to display
func KeyBindingsBar(width int, bindings []kb.Binding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s: %s",
			keyStyle.Render(kb.DisplayKey(b.KeyMap.Primary)),
			shortHelp(b.KeyMap.Help)))
	}

	keyBar := styles.Info.Render(strings.Join(parts, " • "))
	return styles.CenteredText(width, keyBar)
}

// shortHelp keeps the first three words of a help text
func shortHelp(help string) string {
	words := strings.Fields(help)
	if len(words) <= 3 {
		return help
	}
	return strings.Join(words[:3], " ")
}
