package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/consumer"
	"github.com/PizzaHomicide/embedplayer/internal/lifecycle"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/provider"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/styles"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui/util"
	"github.com/PizzaHomicide/embedplayer/internal/version"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
)

// seekStep is how far the seek back controls move
const seekStep = 5 * time.Second

// DashboardModel mounts one player and shows its live state.  Its controls only go through the consumer facades,
// the way any other part of an application would drive the player.
type DashboardModel struct {
	cfg        *config.Config
	provider   *provider.Provider
	controller *lifecycle.Controller
	player     *consumer.Player
	updates    *consumer.Updates
	activity   *activityLog
	bridge     *bridge
	subs       []*stream.Subscription

	spinner       spinner.Model
	entryID       string
	width, height int
}

// NewDashboardModel creates the dashboard and mounts its player under prov
func NewDashboardModel(cfg *config.Config, prov *provider.Provider) *DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	m := &DashboardModel{
		cfg:      cfg,
		provider: prov,
		player:   prov.Player(""),
		updates:  consumer.NewUpdates(prov.Registry()),
		activity: &activityLog{},
		bridge:   newBridge(),
		spinner:  s,
		entryID:  cfg.Entries.EntryID,
	}

	refresh := func() { m.bridge.notify() }
	m.subs = append(m.subs,
		prov.StatusStream().Subscribe(stream.Observer[bundle.Result]{Next: func(bundle.Result) { refresh() }}),
		m.updates.TimeStream().Subscribe(stream.Observer[time.Duration]{Next: func(time.Duration) { refresh() }}),
		m.updates.StateStream().Subscribe(stream.Observer[player.PlaybackState]{Next: func(player.PlaybackState) { refresh() }}),
		m.updates.EventStream().Subscribe(stream.Observer[player.PlayerEvent]{Next: m.onPlayerEvent}),
	)

	m.controller = prov.NewPlayer(m.playerOptions())
	m.subs = append(m.subs, m.controller.States().Subscribe(stream.Observer[lifecycle.State]{Next: func(lifecycle.State) { refresh() }}))
	return m
}

func (m *DashboardModel) playerOptions() lifecycle.Options {
	return lifecycle.Options{
		EntryID:         m.entryID,
		Autoplay:        m.cfg.Player.AutoplayEnabled(),
		EnableAnalytics: m.cfg.Player.AnalyticsEnabled(),
		CustomizeConfig: func(cfg player.SetupConfig) player.SetupConfig {
			if cfg.Options == nil {
				cfg.Options = make(map[string]string)
			}
			// mpv expands the property once media is loaded
			cfg.Options["title"] = "${media-title} - embedplayer"
			return cfg
		},
		OnPlayerLoaded: func(entryID, playerID string) {
			m.player.SetPlayerID(playerID)
			m.updates.SetPlayerID(playerID)
			m.activity.add(fmt.Sprintf("Player %s loaded for entry %s", playerID, entryID), false)
			m.bridge.notify()
		},
		OnMediaLoaded: func(entryID string) {
			m.activity.add(fmt.Sprintf("Media %s loaded", entryID), false)
			m.bridge.notify()
		},
		OnPlayerLoadingError: func(entryID string) {
			m.activity.add(fmt.Sprintf("Player failed to load for entry %s", entryID), true)
			m.bridge.notify()
		},
		OnMediaLoadingError: func(entryID string) {
			m.activity.add(fmt.Sprintf("Media %s failed to load", entryID), true)
			m.bridge.notify()
		},
	}
}

func (m *DashboardModel) onPlayerEvent(e player.PlayerEvent) {
	switch e.Type {
	case player.PlayerEventFirstPlaying:
		m.activity.add("First frame playing", false)
	case player.PlayerEventVideoResized:
		m.activity.add(fmt.Sprintf("Video resized to %dx%d at %d,%d", e.Width, e.Height, e.X, e.Y), false)
	case player.PlayerEventPlayerResized:
		m.activity.add(fmt.Sprintf("Player resized to %dx%d", e.Width, e.Height), false)
	}
	m.bridge.notify()
}

// Init starts the spinner and waits for player changes
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.listen())
}

// Update handles messages
func (m *DashboardModel) Update(msg tea.Msg) (*DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshMsg:
		return m, m.bridge.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CommandResultMsg:
		if msg.Err != nil {
			log.Warn("Player command failed", "action", msg.Action, "error", msg.Err)
			m.activity.add(fmt.Sprintf("%s failed: %v", msg.Action, msg.Err), true)
		} else if msg.Detail != "" {
			m.activity.add(msg.Detail, false)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleAction(kb.GetActionByKey(msg, kb.ContextDashboard))
	}
	return m, nil
}

// handleAction turns a dashboard key into a command.  Player calls may block on the backend, so they run as
// commands outside the update loop.
func (m *DashboardModel) handleAction(action kb.Action) tea.Cmd {
	switch action {
	case kb.ActionTogglePlay:
		playing := m.updates.State() == player.PlaybackPlaying
		return func() tea.Msg {
			if playing {
				return CommandResultMsg{Action: action, Err: m.player.Pause()}
			}
			return CommandResultMsg{Action: action, Err: m.player.Play()}
		}

	case kb.ActionSeekBack, kb.ActionSeekBackPause:
		target := m.updates.Time() - seekStep
		pause := action == kb.ActionSeekBackPause
		return func() tea.Msg {
			return CommandResultMsg{Action: action, Err: m.player.Seek(target, pause)}
		}

	case kb.ActionToggleMute:
		return func() tea.Msg {
			muted, err := m.player.ToggleMute()
			if err != nil {
				return CommandResultMsg{Action: action, Err: err}
			}
			return CommandResultMsg{Action: action, Detail: fmt.Sprintf("Muted: %t", muted)}
		}

	case kb.ActionSwitchMedia:
		next := m.nextEntryID()
		if next == m.entryID {
			return func() tea.Msg {
				return CommandResultMsg{Action: action, Detail: "No alternate entry configured"}
			}
		}
		log.Info("Switching media", "from", m.entryID, "to", next)
		m.entryID = next
		m.controller.SetEntryID(next)
		return nil
	}
	return nil
}

func (m *DashboardModel) nextEntryID() string {
	primary, alternate := m.cfg.Entries.EntryID, m.cfg.Entries.AlternateEntryID
	if alternate == "" {
		return m.entryID
	}
	if m.entryID == alternate {
		return primary
	}
	return alternate
}

// Resize updates the dimensions of the dashboard
func (m *DashboardModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Close stops following the player.  The player itself is torn down by the provider.
func (m *DashboardModel) Close() {
	for _, s := range m.subs {
		s.Unsubscribe()
	}
	m.updates.Close()
	m.bridge.close()
}

// View renders the dashboard
func (m *DashboardModel) View() string {
	contentWidth := max(min(m.width-4, 100), 40)
	valueWidth := contentWidth - 20

	state := m.controller.State()
	status := m.provider.Status()

	rows := []string{
		m.row("Bundle", m.bundleText(status, valueWidth)),
		m.row("Player", fmt.Sprintf("%s  %s", state.PlayerID, m.lifecycleText(state.Lifecycle))),
		m.row("Entry", fmt.Sprintf("%s  %s", util.TruncateString(m.entryID, valueWidth/2), m.mediaText(state.Media))),
		m.row("Playback", string(m.updates.State())),
		m.row("Time", fmt.Sprintf("%s  (%d ms)", util.FormatPlaybackTime(m.updates.Time()), m.updates.Time().Milliseconds())),
	}
	// The facade warns about queries without a player id, so nothing is asked before the player has loaded
	video, surface, muted := mo.None[player.Size](), mo.None[player.Size](), mo.None[bool]()
	if m.player.PlayerID() != "" {
		video, surface, muted = m.player.VideoDimensions(), m.player.PlayerDimensions(), m.player.Muted()
	}
	rows = append(rows,
		m.row("Video", sizeText(video)),
		m.row("Surface", sizeText(surface)),
		m.row("Muted", mutedText(muted)),
	)

	var b strings.Builder
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n")
	b.WriteString(styles.Info.Render("Activity"))
	entries := m.activity.recent()
	if len(entries) == 0 {
		b.WriteString("\n" + styles.Muted.Render("nothing yet"))
	}
	for _, e := range entries {
		line := e.At.Format("15:04:05") + "  " + util.TruncateString(e.Text, valueWidth+8)
		if e.IsError {
			line = styles.StatusError.Render(line)
		}
		b.WriteString("\n" + line)
	}

	bindings := append(append([]kb.Binding{}, kb.ContextBindings[kb.ContextDashboard]...), kb.ContextBindings[kb.ContextGlobal][:2]...)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.Header(m.width, version.GetVersionInfo()),
		"",
		styles.CenteredText(m.width, styles.ContentBox(contentWidth, b.String(), 1)),
		"",
		components.KeyBindingsBar(m.width, bindings),
	)
}

func (m *DashboardModel) row(label, value string) string {
	return styles.Label.Render(label) + value
}

func (m *DashboardModel) bundleText(res bundle.Result, width int) string {
	url := util.TruncateString(m.provider.BundleConfig().URL(), width)
	switch res.Status {
	case bundle.StatusLoaded:
		return styles.StatusOK.Render("Loaded") + "  " + styles.Muted.Render(url)
	case bundle.StatusError:
		return styles.StatusError.Render("Error") + "  " + util.TruncateString(fmt.Sprint(res.Err), width)
	case bundle.StatusLoading:
		return m.spinner.View() + styles.StatusPending.Render("Loading") + "  " + styles.Muted.Render(url)
	default:
		return styles.StatusPending.Render(res.Status.String())
	}
}

func (m *DashboardModel) lifecycleText(s lifecycle.LifecycleState) string {
	switch s {
	case lifecycle.LifecycleLoaded:
		return styles.StatusOK.Render(s.String())
	case lifecycle.LifecycleError:
		return styles.StatusError.Render(s.String())
	default:
		return styles.StatusPending.Render(s.String())
	}
}

func (m *DashboardModel) mediaText(s lifecycle.MediaState) string {
	switch s {
	case lifecycle.MediaLoaded:
		return styles.StatusOK.Render(s.String())
	case lifecycle.MediaError:
		return styles.StatusError.Render(s.String())
	case lifecycle.MediaLoading:
		return m.spinner.View() + styles.StatusPending.Render(s.String())
	default:
		return styles.StatusPending.Render(s.String())
	}
}

func mutedText(muted mo.Option[bool]) string {
	v, ok := muted.Get()
	if !ok {
		return styles.Muted.Render("unknown")
	}
	return fmt.Sprintf("%t", v)
}

func sizeText(size mo.Option[player.Size]) string {
	s, ok := size.Get()
	if !ok {
		return styles.Muted.Render("unknown")
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
