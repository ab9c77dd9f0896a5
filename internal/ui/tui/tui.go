package tui

import (
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/provider"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the player dashboard for prov until the user quits
func Run(cfg *config.Config, prov *provider.Provider) error {
	p := tea.NewProgram(models.NewAppModel(cfg, prov), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
