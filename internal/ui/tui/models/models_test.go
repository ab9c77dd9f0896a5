package models

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/lifecycle"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/player/playertest"
	"github.com/PizzaHomicide/embedplayer/internal/provider"
	kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestProvider(t *testing.T) (*config.Config, *provider.Provider, *playertest.Manager) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("/* player bundle */"))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Bundle:  config.BundleConfig{BundlerURL: srv.URL, PartnerID: "123", UIConfID: "456"},
		Entries: config.EntriesConfig{EntryID: "1_abc", AlternateEntryID: "1_def"},
	}
	manager := playertest.NewManager()
	prov := provider.New(bundle.Config{
		BundlerURL: cfg.Bundle.BundlerURL,
		PartnerID:  cfg.Bundle.PartnerID,
		UIConfID:   cfg.Bundle.UIConfID,
	}, provider.Deps{
		Loader:  bundle.NewLoader(bundle.NewHTTPPage(srv.Client())),
		Manager: manager,
	})
	t.Cleanup(prov.Close)
	return cfg, prov, manager
}

func TestBridgeCoalesces(t *testing.T) {
	b := newBridge()
	b.notify()
	b.notify()
	b.notify()

	assert.Equal(t, RefreshMsg{}, b.listen()())

	b.close()
	b.close()
	assert.Nil(t, b.listen()(), "a closed bridge stops listening")
}

func TestActivityLogKeepsRecent(t *testing.T) {
	a := &activityLog{}
	for i := 0; i < activityLimit+3; i++ {
		a.add(fmt.Sprintf("entry %d", i), i%2 == 0)
	}

	entries := a.recent()
	require.Len(t, entries, activityLimit)
	assert.Equal(t, fmt.Sprintf("entry %d", activityLimit+2), entries[0].Text)
	assert.Equal(t, "entry 3", entries[len(entries)-1].Text)
}

func TestDashboardDrivesPlayer(t *testing.T) {
	cfg, prov, manager := newTestProvider(t)
	m := NewDashboardModel(cfg, prov)
	defer m.Close()
	prov.Start()

	require.Eventually(t, func() bool {
		st := m.controller.State()
		return st.Lifecycle == lifecycle.LifecycleLoaded && st.Media == lifecycle.MediaLoaded
	}, waitFor, tick)
	assert.Equal(t, m.controller.ID(), m.player.PlayerID())
	assert.Equal(t, "${media-title} - embedplayer", manager.Setups()[0].Options["title"])

	h := manager.Handle(m.controller.ID())
	h.Advance(12.5)
	h.ChangeState("playing", "paused")
	require.Eventually(t, func() bool {
		return m.updates.Time() == 12500*time.Millisecond && m.updates.State() == player.PlaybackPlaying
	}, waitFor, tick)

	t.Run("TogglePlay", func(t *testing.T) {
		msg := m.handleAction(kb.ActionTogglePlay)()
		assert.Equal(t, CommandResultMsg{Action: kb.ActionTogglePlay}, msg)
		assert.Eventually(t, h.Paused, waitFor, tick)
	})

	t.Run("SeekBack", func(t *testing.T) {
		msg := m.handleAction(kb.ActionSeekBack)()
		assert.NoError(t, msg.(CommandResultMsg).Err)
		assert.Eventually(t, func() bool {
			calls := h.Calls()
			return len(calls) > 0 && calls[len(calls)-1] == "setCurrentTime:7.5"
		}, waitFor, tick)
	})

	t.Run("ToggleMute", func(t *testing.T) {
		msg := m.handleAction(kb.ActionToggleMute)()
		assert.Equal(t, CommandResultMsg{Action: kb.ActionToggleMute, Detail: "Muted: true"}, msg)
		assert.True(t, h.Muted())
	})

	t.Run("SwitchMedia", func(t *testing.T) {
		assert.Nil(t, m.handleAction(kb.ActionSwitchMedia))
		require.Eventually(t, func() bool {
			loads := h.Loads()
			return len(loads) == 2 && m.controller.State().Media == lifecycle.MediaLoaded
		}, waitFor, tick)
		assert.Equal(t, "1_def", h.Loads()[1].EntryID)
		assert.Contains(t, m.View(), "1_def")

		m.handleAction(kb.ActionSwitchMedia)
		assert.Equal(t, "1_abc", m.entryID)
	})
}

func TestDashboardWithoutAlternateEntry(t *testing.T) {
	cfg, prov, _ := newTestProvider(t)
	cfg.Entries.AlternateEntryID = ""
	m := NewDashboardModel(cfg, prov)
	defer m.Close()

	msg := m.handleAction(kb.ActionSwitchMedia)()
	assert.Equal(t, "No alternate entry configured", msg.(CommandResultMsg).Detail)
}

func TestDashboardCommandBeforePlayerLoaded(t *testing.T) {
	cfg, prov, _ := newTestProvider(t)
	m := NewDashboardModel(cfg, prov)
	defer m.Close()

	msg := m.handleAction(kb.ActionTogglePlay)().(CommandResultMsg)
	assert.Error(t, msg.Err)

	m, _ = m.Update(msg)
	entries := m.activity.recent()
	require.NotEmpty(t, entries)
	assert.True(t, entries[0].IsError)
}

func TestAppModelViews(t *testing.T) {
	cfg, prov, _ := newTestProvider(t)
	var app tea.Model = NewAppModel(cfg, prov)
	app, _ = app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Contains(t, app.View(), "Loading player bundle")

	app, _ = app.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	assert.Contains(t, app.View(), "Player commands:")

	app, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, app.View(), "Loading player bundle")

	prov.Start()
	require.Eventually(t, func() bool { return prov.Status().Status.Terminal() }, waitFor, tick)
	assert.Contains(t, app.View(), "Activity")
}
