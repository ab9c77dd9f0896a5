package models

import (
	"fmt"
	"strings"

	kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// HelpModel displays keybinding help with scrolling
type HelpModel struct {
	width, height int
	viewport      viewport.Model
}

// NewHelpModel creates a new help model
func NewHelpModel() *HelpModel {
	return &HelpModel{
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (*HelpModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp:
			m.viewport.LineUp(1)
		case kb.ActionMoveDown:
			m.viewport.LineDown(1)
		}
	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Account for borders, header and footer
	m.viewport.Width = max(width-4, 1)
	m.viewport.Height = max(height-10, 1)

	m.updateContent()
}

func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	scrollText := fmt.Sprintf("%s/%s: Scroll • %s: Return",
		kb.GetActionKey(kb.ActionMoveUp, kb.ContextBindings[kb.ContextHelp]),
		kb.GetActionKey(kb.ActionMoveDown, kb.ContextBindings[kb.ContextHelp]),
		kb.GetActionKey(kb.ActionBack, kb.ContextBindings[kb.ContextGlobal]))
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.Header(m.width, "Help"),
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"",
		footer,
	)
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func formatKeybindingSection(title string, bindings []kb.Binding) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	keyText := func(binding kb.Binding) string {
		text := kb.DisplayKey(binding.KeyMap.Primary)
		if binding.KeyMap.Secondary != "" {
			text += " or " + kb.DisplayKey(binding.KeyMap.Secondary)
		}
		return text
	}

	maxKeyWidth := 0
	for _, binding := range bindings {
		maxKeyWidth = max(maxKeyWidth, runewidth.StringWidth(keyText(binding)))
	}

	for _, binding := range bindings {
		text := keyText(binding)
		padding := strings.Repeat(" ", maxKeyWidth-runewidth.StringWidth(text))
		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(text),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	b.WriteString(titleStyle.Render("Player"))
	b.WriteString("\n\n")
	b.WriteString("The dashboard mounts one player under the provider and follows it through the same " +
		"facades any other component would use.\n\n" +
		"The bundle is fetched once.  The player is created when it loads, then the configured entry is " +
		"loaded into it.  Time, playback state and player events update live.\n\n" +
		"Switching media reuses the player and only reloads the entry.")
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal]))
	b.WriteString("\n")
	b.WriteString(formatKeybindingSection("Player commands:", kb.ContextBindings[kb.ContextDashboard]))
	b.WriteString("\n")
	b.WriteString(formatKeybindingSection("In this screen:", kb.ContextBindings[kb.ContextHelp]))

	return b.String()
}
