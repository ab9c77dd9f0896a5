package lifecycle

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/player/playertest"
	"github.com/PizzaHomicide/embedplayer/internal/registry"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fixture struct {
	status   *stream.Behavior[bundle.Result]
	manager  *playertest.Manager
	registry *registry.Registry
	calls    *recorder
}

func newFixture(initial bundle.Status) *fixture {
	m := playertest.NewManager()
	return &fixture{
		status:   stream.NewBehavior(bundle.Result{Status: initial}),
		manager:  m,
		registry: registry.New(m),
		calls:    &recorder{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Status:   f.status.AsStream(),
		Bundle:   bundle.Config{BundlerURL: "https://cdn.example", PartnerID: "4900233", UIConfID: "51188803", KS: "secret"},
		Registry: f.registry,
		Manager:  f.manager,
	}
}

func (f *fixture) options(entryID string) Options {
	return Options{
		EntryID:              entryID,
		Autoplay:             true,
		OnPlayerLoaded:       func(e, p string) { f.calls.add("playerLoaded:" + e + ":" + p) },
		OnMediaLoaded:        func(e string) { f.calls.add("mediaLoaded:" + e) },
		OnPlayerLoadingError: func(e string) { f.calls.add("playerError:" + e) },
		OnMediaLoadingError:  func(e string) { f.calls.add("mediaError:" + e) },
	}
}

// mounted returns a controller whose player and first media load are done
func (f *fixture) mounted(t *testing.T, entryID string) *Controller {
	t.Helper()
	c := New(f.deps(), f.options(entryID))
	c.Mount()
	require.Eventually(t, func() bool { return c.State().Media == MediaLoaded }, waitFor, tick)
	return c
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestSetupWaitsForBundle(t *testing.T) {
	f := newFixture(bundle.StatusLoading)
	c := New(f.deps(), f.options("1_abc"))
	c.Mount()

	assert.Empty(t, f.manager.Setups())
	assert.Equal(t, State{PlayerID: c.ID()}, c.State())
	assert.False(t, f.registry.Has(c.ID()))

	f.status.Next(bundle.Result{Status: bundle.StatusLoaded})

	setups := f.manager.Setups()
	require.Len(t, setups, 1)
	cfg := setups[0]
	assert.Equal(t, c.ID(), cfg.TargetID)
	assert.True(t, cfg.Playback.Autoplay)
	assert.Equal(t, player.ProviderConfig{PartnerID: "4900233", UIConfID: "51188803", KS: "secret"}, cfg.Provider)
	assert.Equal(t, true, cfg.Plugins["kava"]["disable"])

	assert.Equal(t, LifecycleLoaded, c.State().Lifecycle)
	assert.True(t, f.registry.Has(c.ID()))

	require.Eventually(t, func() bool { return c.State().Media == MediaLoaded }, waitFor, tick)
	assert.Equal(t, []string{"playerLoaded:1_abc:" + c.ID(), "mediaLoaded:1_abc"}, f.calls.get())
	assert.Equal(t, []player.MediaInfo{{EntryID: "1_abc", KS: "secret"}}, f.manager.Handle(c.ID()).Loads())

	// A repeated Loaded status does not create a second player
	f.status.Next(bundle.Result{Status: bundle.StatusLoaded})
	assert.Len(t, f.manager.Setups(), 1)
}

func TestSetupConfigOverlay(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	opts := f.options("1_abc")
	opts.EnableAnalytics = true
	opts.Autoplay = false
	opts.CustomizeConfig = func(cfg player.SetupConfig) player.SetupConfig {
		assert.False(t, cfg.Playback.Autoplay)
		cfg.TargetID = "somewhere-else"
		cfg.Provider.PartnerID = "1"
		cfg.Plugins = map[string]map[string]any{
			"kava": {"disable": true, "tamperEvents": true},
			"ima":  {"adTagUrl": "https://ads.example"},
		}
		cfg.Options = map[string]string{"title": "demo"}
		return cfg
	}

	c := New(f.deps(), opts)
	c.Mount()
	defer c.Unmount()

	cfg := f.manager.Setups()[0]
	assert.Equal(t, c.ID(), cfg.TargetID)
	assert.Equal(t, "4900233", cfg.Provider.PartnerID)
	assert.Equal(t, map[string]any{"disable": false, "tamperEvents": true}, cfg.Plugins["kava"])
	assert.Equal(t, map[string]any{"adTagUrl": "https://ads.example"}, cfg.Plugins["ima"])
	assert.Equal(t, map[string]string{"title": "demo"}, cfg.Options)
	assert.False(t, cfg.Playback.Autoplay)
}

func TestBundleErrorReportsPlayerError(t *testing.T) {
	f := newFixture(bundle.StatusLoading)
	c := New(f.deps(), f.options("1_abc"))
	c.Mount()

	f.status.Next(bundle.Result{Status: bundle.StatusError, Err: bundle.ErrScriptLoad})

	assert.Equal(t, LifecycleError, c.State().Lifecycle)
	assert.Equal(t, []string{"playerError:1_abc"}, f.calls.get())
	assert.Empty(t, f.manager.Setups())
}

func TestSetupFailure(t *testing.T) {
	t.Run("ManagerError", func(t *testing.T) {
		f := newFixture(bundle.StatusLoaded)
		f.manager.FailSetup(errors.New("bad config"))

		c := New(f.deps(), f.options("1_abc"))
		c.Mount()

		assert.Equal(t, LifecycleError, c.State().Lifecycle)
		assert.Equal(t, MediaInitial, c.State().Media)
		assert.Equal(t, []string{"playerError:1_abc"}, f.calls.get())
		assert.False(t, f.registry.Has(c.ID()))
	})

	t.Run("Panic", func(t *testing.T) {
		f := newFixture(bundle.StatusLoaded)
		opts := f.options("1_abc")
		opts.CustomizeConfig = func(player.SetupConfig) player.SetupConfig { panic("boom") }

		c := New(f.deps(), opts)
		assert.NotPanics(t, c.Mount)
		assert.Equal(t, LifecycleError, c.State().Lifecycle)
		assert.Equal(t, []string{"playerError:1_abc"}, f.calls.get())
	})
}

func TestEventRelays(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	c := f.mounted(t, "1_abc")
	defer c.Unmount()
	h := f.manager.Handle(c.ID())

	var times []time.Duration
	f.registry.TimeStream(c.ID()).Subscribe(stream.Observer[time.Duration]{Next: func(d time.Duration) { times = append(times, d) }})
	h.Advance(12.3456)
	assert.Equal(t, []time.Duration{0, 12345 * time.Millisecond}, times)

	var states []player.PlaybackState
	f.registry.StateStream(c.ID()).Subscribe(stream.Observer[player.PlaybackState]{Next: func(s player.PlaybackState) { states = append(states, s) }})
	h.ChangeState("playing", "loading")
	h.ChangeState("seeking", "playing")
	h.ChangeState("paused", "playing")
	assert.Equal(t, []player.PlaybackState{player.PlaybackIdle, player.PlaybackPlaying, player.PlaybackPaused}, states)

	var events []player.PlayerEvent
	f.registry.EventStream(c.ID()).Subscribe(stream.Observer[player.PlayerEvent]{Next: func(e player.PlayerEvent) { events = append(events, e) }})
	h.Emit(player.Event{Name: player.EventFirstPlaying})
	h.Emit(player.Event{Name: player.EventVideoResize, VideoSize: player.Rect{X: 10, Y: 20, Width: 640, Height: 360}})
	h.Emit(player.Event{Name: player.EventPlayerResize, PlayerSize: player.Size{Width: 800, Height: 600}})
	assert.Equal(t, []player.PlayerEvent{
		{Type: player.PlayerEventFirstPlaying},
		{Type: player.PlayerEventVideoResized, X: 10, Y: 20, Width: 640, Height: 360},
		{Type: player.PlayerEventPlayerResized, Width: 800, Height: 600},
	}, events)
}

func TestActions(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	c := f.mounted(t, "1_abc")
	defer c.Unmount()
	h := f.manager.Handle(c.ID())

	require.NoError(t, f.registry.Play(c.ID()))
	require.NoError(t, f.registry.Pause(c.ID()))
	require.NoError(t, f.registry.Seek(c.ID(), registry.SeekOptions{To: 7500 * time.Millisecond}))
	require.NoError(t, f.registry.Seek(c.ID(), registry.SeekOptions{To: 2 * time.Second, Pause: true}))

	assert.Equal(t, []string{
		"loadMedia:1_abc",
		"play",
		"pause",
		"setCurrentTime:7.5",
		"pause",
		"setCurrentTime:2",
	}, h.Calls())
	assert.True(t, h.Paused())
}

func TestSetEntryIDReloadsMedia(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	c := f.mounted(t, "1_abc")
	defer c.Unmount()
	h := f.manager.Handle(c.ID())

	c.SetEntryID("1_abc")
	c.SetEntryID("1_def")
	require.Eventually(t, func() bool { return len(f.calls.get()) == 3 }, waitFor, tick)

	assert.Len(t, f.manager.Setups(), 1)
	assert.Equal(t, []string{"loadMedia:1_abc", "loadMedia:1_def"}, h.Calls())
	assert.Equal(t, "mediaLoaded:1_def", f.calls.get()[2])
	assert.Equal(t, MediaLoaded, c.State().Media)
}

func TestSetEntryIDBeforePlayerLoaded(t *testing.T) {
	f := newFixture(bundle.StatusLoading)
	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	defer c.Unmount()

	c.SetEntryID("1_def")
	f.status.Next(bundle.Result{Status: bundle.StatusLoaded})
	require.Eventually(t, func() bool { return c.State().Media == MediaLoaded }, waitFor, tick)

	assert.Equal(t, []string{"loadMedia:1_def"}, f.manager.Handle(c.ID()).Calls())
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	f.manager.NewHandle = func(player.SetupConfig) *playertest.Handle { return playertest.NewHandle().Manual() }

	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	defer c.Unmount()
	h := f.manager.Handle(c.ID())
	require.Eventually(t, func() bool { return h.PendingLoads() == 1 }, waitFor, tick)
	assert.Equal(t, MediaLoading, c.State().Media)

	c.SetEntryID("1_def")
	require.Eventually(t, func() bool { return h.PendingLoads() == 2 }, waitFor, tick)

	// The first waiter was cancelled along with its context
	require.NoError(t, h.ResolveLoad(errors.New("too late")))
	require.NoError(t, h.ResolveLoad(nil))
	require.Eventually(t, func() bool { return c.State().Media == MediaLoaded }, waitFor, tick)

	assert.Equal(t, []string{"playerLoaded:1_abc:" + c.ID(), "mediaLoaded:1_def"}, f.calls.get())
}

func TestClearingEntryIDDropsLoadInFlight(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	f.manager.NewHandle = func(player.SetupConfig) *playertest.Handle { return playertest.NewHandle().Manual() }

	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	defer c.Unmount()
	h := f.manager.Handle(c.ID())
	require.Eventually(t, func() bool { return h.PendingLoads() == 1 }, waitFor, tick)

	c.SetEntryID("")
	assert.Equal(t, MediaInitial, c.State().Media)

	require.NoError(t, h.ResolveLoad(nil))
	assert.Never(t, func() bool { return c.State().Media != MediaInitial }, 100*time.Millisecond, tick)
	assert.Equal(t, []string{"playerLoaded:1_abc:" + c.ID()}, f.calls.get())
}

func TestMediaLoadError(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	f.manager.NewHandle = func(player.SetupConfig) *playertest.Handle {
		return playertest.NewHandle().FailLoads(errors.New("entry not found"))
	}

	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	defer c.Unmount()

	require.Eventually(t, func() bool { return c.State().Media == MediaError }, waitFor, tick)
	assert.Equal(t, LifecycleLoaded, c.State().Lifecycle)
	assert.Equal(t, []string{"playerLoaded:1_abc:" + c.ID(), "mediaError:1_abc"}, f.calls.get())
}

func TestUnmount(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	c := f.mounted(t, "1_abc")
	h := f.manager.Handle(c.ID())

	completed := 0
	f.registry.TimeStream(c.ID()).Subscribe(stream.Observer[time.Duration]{Complete: func() { completed++ }})
	var last State
	statesDone := false
	c.States().Subscribe(stream.Observer[State]{
		Next:     func(s State) { last = s },
		Complete: func() { statesDone = true },
	})

	c.Unmount()
	c.Unmount()

	assert.True(t, h.Destroyed())
	assert.Equal(t, 1, completed)
	assert.False(t, f.registry.Has(c.ID()))
	assert.True(t, f.registry.Instance(c.ID()).IsAbsent())
	assert.Equal(t, 0, h.ListenerCount(player.EventTimeUpdate))
	assert.Equal(t, 0, h.ListenerCount(player.EventPlayerStateChanged))
	assert.Equal(t, State{PlayerID: c.ID(), Lifecycle: LifecycleDestroyed, Media: MediaDestroyed}, c.State())
	assert.Equal(t, c.State(), last)
	assert.True(t, statesDone)
	assert.ErrorIs(t, f.registry.Play(c.ID()), registry.ErrUnknownPlayer)

	// Setup is never attempted again
	c.Mount()
	f.status.Next(bundle.Result{Status: bundle.StatusLoaded})
	assert.Len(t, f.manager.Setups(), 1)
}

func TestUnmountBeforeBundleLoads(t *testing.T) {
	f := newFixture(bundle.StatusLoading)
	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	c.Unmount()

	f.status.Next(bundle.Result{Status: bundle.StatusLoaded})
	assert.Empty(t, f.manager.Setups())
	assert.Empty(t, f.calls.get())
	assert.Equal(t, LifecycleDestroyed, c.State().Lifecycle)
}

func TestUnmountDuringMediaLoad(t *testing.T) {
	f := newFixture(bundle.StatusLoaded)
	f.manager.NewHandle = func(player.SetupConfig) *playertest.Handle { return playertest.NewHandle().Manual() }

	c := New(f.deps(), f.options("1_abc"))
	c.Mount()
	h := f.manager.Handle(c.ID())
	require.Eventually(t, func() bool { return h.PendingLoads() == 1 }, waitFor, tick)

	c.Unmount()
	_ = h.ResolveLoad(nil)

	assert.Never(t, func() bool { return len(f.calls.get()) > 1 }, 50*time.Millisecond, tick)
	assert.Equal(t, MediaDestroyed, c.State().Media)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "Destroyed", LifecycleDestroyed.String())
	assert.Equal(t, "Loading", MediaLoading.String())
	assert.Equal(t, "MediaState(42)", MediaState(42).String())
}
