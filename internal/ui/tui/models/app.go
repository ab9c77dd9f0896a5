package models

import (
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/provider"
	kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	provider      *provider.Provider
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	loadingModel   *LoadingModel
	dashboardModel *DashboardModel
	helpModel      *HelpModel
}

// NewAppModel creates a new instance of the main application model.  The dashboard mounts its player straight
// away, so it is created before the provider starts.
func NewAppModel(cfg *config.Config, prov *provider.Provider) AppModel {
	return AppModel{
		config:         cfg,
		provider:       prov,
		activeModal:    ModalNone,
		loadingModel:   NewLoadingModel(prov.BundleConfig()),
		dashboardModel: NewDashboardModel(cfg, prov),
		helpModel:      NewHelpModel(),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising embedplayer TUI")
	return tea.Batch(
		m.loadingModel.Init(),
		m.dashboardModel.Init(),
		m.helpModel.Init(),
		func() tea.Msg {
			m.provider.Start()
			return ProviderStartedMsg{}
		},
	)
}

// activeView picks the main view from the bundle status
func (m AppModel) activeView() View {
	if m.provider.Status().Status.Terminal() {
		return ViewDashboard
	}
	return ViewLoading
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			m.dashboardModel.Close()
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested", "active_view", m.activeView())
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.activeModal = ModalHelp
			}
			return m, nil
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.loadingModel.Resize(msg.Width, msg.Height)
		m.dashboardModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		return m, nil

	case ProviderStartedMsg:
		log.Debug("Provider started", "status", m.provider.Status().Status)
		return m, nil

	case spinner.TickMsg:
		// Each spinner only accepts its own ticks, so both can be offered every tick
		var loadingCmd, dashboardCmd tea.Cmd
		m.loadingModel, loadingCmd = m.loadingModel.Update(msg)
		m.dashboardModel, dashboardCmd = m.dashboardModel.Update(msg)
		return m, tea.Batch(loadingCmd, dashboardCmd)

	case RefreshMsg, CommandResultMsg:
		return m.updateDashboardView(msg)
	}

	if m.activeModal == ModalHelp {
		var cmd tea.Cmd
		m.helpModel, cmd = m.helpModel.Update(msg)
		return m, cmd
	}

	if m.activeView() == ViewDashboard {
		return m.updateDashboardView(msg)
	}
	return m, nil
}

func (m AppModel) View() string {
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView() {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewDashboard:
		return m.dashboardModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

func (m AppModel) updateDashboardView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.dashboardModel, cmd = m.dashboardModel.Update(msg)
	return m, cmd
}
