package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/styles"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingModel is shown until the player bundle has loaded or failed
type LoadingModel struct {
	width, height int
	bundle        bundle.Config
	spinner       spinner.Model
	startTime     time.Time
}

// NewLoadingModel creates the loading screen for the bundle described by cfg
func NewLoadingModel(cfg bundle.Config) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#9D86FF")).Bold(true)

	return &LoadingModel{
		bundle:    cfg,
		spinner:   s,
		startTime: time.Now(),
	}
}

// Init starts the spinner
func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *LoadingModel) Update(msg tea.Msg) (*LoadingModel, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tick)
		return m, cmd
	}
	return m, nil
}

// Resize updates the dimensions of the loading model
func (m *LoadingModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Elapsed returns how long the bundle has been loading
func (m *LoadingModel) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// View renders the loading box
func (m *LoadingModel) View() string {
	contentWidth := min(m.width-20, 80)
	if contentWidth < 40 {
		contentWidth = min(m.width-4, 40)
	}
	valueWidth := max(contentWidth-styles.Label.GetWidth()-8, 8)

	var b strings.Builder
	b.WriteString(m.spinner.View() + " " + styles.Title.Render("Loading player bundle..."))
	b.WriteString("\n\n")
	b.WriteString(styles.Label.Render("Partner") + m.bundle.PartnerID + "\n")
	b.WriteString(styles.Label.Render("UI conf") + m.bundle.UIConfID + "\n")
	b.WriteString(styles.Label.Render("Script") + styles.Muted.Render(util.TruncateString(m.bundle.URL(), valueWidth)))

	if elapsed := m.Elapsed().Truncate(time.Second); elapsed > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.Muted.Render(fmt.Sprintf("waiting %s", elapsed)))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#9D86FF")).
		Padding(1, 3).
		Width(contentWidth).
		Render(b.String())

	return styles.CenteredView(m.width, m.height, box)
}
