package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/registry"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
)

var (
	// ErrPlayerSetup is reported when the player could not be created
	ErrPlayerSetup = errors.New("failed to set up player")
	// ErrMediaLoad is reported when the media could not be loaded into the player
	ErrMediaLoad = errors.New("failed to load media")
)

// analyticsPlugin is the plugin toggled by Options.EnableAnalytics
const analyticsPlugin = "kava"

// Deps are the shared collaborators of every controller under one provider
type Deps struct {
	// Status reports the bundle load state.  It must replay the current value to new subscribers.
	Status   stream.Stream[bundle.Result]
	Bundle   bundle.Config
	Registry *registry.Registry
	Manager  player.Manager
}

// Options configure a single player
type Options struct {
	EntryID         string
	Autoplay        bool
	EnableAnalytics bool

	// CustomizeConfig may adjust the setup configuration.  The target id, provider and analytics settings it
	// returns are always overwritten.
	CustomizeConfig func(cfg player.SetupConfig) player.SetupConfig

	OnPlayerLoaded       func(entryID, playerID string)
	OnMediaLoaded        func(entryID string)
	OnPlayerLoadingError func(entryID string)
	OnMediaLoadingError  func(entryID string)
}

type relay struct {
	name player.EventName
	id   player.ListenerID
}

// Controller owns one player instance from bundle availability to teardown.  It creates the player once the
// bundle is loaded, registers it, relays its events into streams, executes dispatched actions and loads media.
type Controller struct {
	id   string
	deps Deps
	opts Options

	time     *stream.Behavior[time.Duration]
	playback *stream.Behavior[player.PlaybackState]
	events   *stream.Subject[player.PlayerEvent]
	states   *stream.Behavior[State]

	mu         sync.Mutex
	state      State
	entryID    string
	mounted    bool
	settingUp  bool
	destroyed  bool
	handle     player.Handle
	relays     []relay
	statusSub  *stream.Subscription
	actionsSub *stream.Subscription
	unregister func()
	loadGen    uint64
	cancelLoad context.CancelFunc
}

// New creates an unmounted controller with a fresh player id
func New(deps Deps, opts Options) *Controller {
	id := registry.NewPlayerID()
	initial := State{PlayerID: id}
	return &Controller{
		id:       id,
		deps:     deps,
		opts:     opts,
		time:     stream.NewBehavior[time.Duration](0),
		playback: stream.NewBehavior(player.PlaybackIdle),
		events:   stream.NewSubject[player.PlayerEvent](),
		states:   stream.NewBehavior(initial),
		state:    initial,
		entryID:  opts.EntryID,
	}
}

// ID returns the player id, available before the player exists
func (c *Controller) ID() string {
	return c.id
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// States emits the current state to new subscribers and every change afterwards
func (c *Controller) States() stream.Stream[State] {
	return c.states.AsStream()
}

// Mount starts following the bundle status.  The player is created as soon as the bundle is loaded.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.mounted || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	sub := c.deps.Status.Subscribe(stream.Observer[bundle.Result]{Next: c.onStatus})

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.statusSub = sub
	c.mu.Unlock()
}

// SetEntryID switches the media.  A loaded player loads the new entry without being recreated.
func (c *Controller) SetEntryID(entryID string) {
	c.mu.Lock()
	if c.destroyed || entryID == c.entryID {
		c.mu.Unlock()
		return
	}
	c.entryID = entryID
	var start func()
	if c.state.Lifecycle == LifecycleLoaded {
		start = c.beginLoadLocked()
	}
	c.mu.Unlock()

	if start != nil {
		c.publish()
		start()
	}
}

// Unmount tears the player down.  The controller cannot be mounted again.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	statusSub, actionsSub, unregister := c.statusSub, c.actionsSub, c.unregister
	handle, relays, cancelLoad := c.handle, c.relays, c.cancelLoad
	c.handle, c.relays, c.cancelLoad = nil, nil, nil
	c.state.Lifecycle = LifecycleDestroyed
	c.state.Media = MediaDestroyed
	st := c.state
	c.mu.Unlock()

	statusSub.Unsubscribe()
	if handle != nil {
		for _, r := range relays {
			handle.RemoveEventListener(r.name, r.id)
		}
	}
	actionsSub.Unsubscribe()
	if unregister != nil {
		unregister()
	}
	if cancelLoad != nil {
		cancelLoad()
	}

	c.time.Complete()
	c.playback.Complete()
	c.events.Complete()

	if handle != nil {
		if err := handle.Destroy(); err != nil {
			log.Warn("Failed to destroy player", "player_id", c.id, "error", err)
		}
	}
	log.Info("Player unmounted", "player_id", c.id)

	c.states.Next(st)
	c.states.Complete()
}

func (c *Controller) onStatus(res bundle.Result) {
	switch res.Status {
	case bundle.StatusLoaded:
		c.setupPlayer()
	case bundle.StatusError:
		c.failPlayer(fmt.Errorf("%w: %w", ErrPlayerSetup, res.Err))
	}
}

func (c *Controller) setupPlayer() {
	c.mu.Lock()
	if c.destroyed || c.settingUp || c.state.Lifecycle != LifecycleInitial {
		c.mu.Unlock()
		return
	}
	c.settingUp = true
	c.mu.Unlock()

	handle, err := c.createPlayer()
	if err != nil {
		c.failPlayer(err)
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		log.Debug("Controller unmounted during setup, destroying player", "player_id", c.id)
		if err := handle.Destroy(); err != nil {
			log.Warn("Failed to destroy player", "player_id", c.id, "error", err)
		}
		return
	}
	c.handle = handle
	c.relays = c.addRelays(handle)
	c.mu.Unlock()

	reg := c.deps.Registry.Register(c.id, c.time.AsStream(), c.playback.AsStream(), c.events.AsStream())
	actionsSub := reg.Actions.Subscribe(stream.Observer[registry.Action]{Next: c.handleAction})

	c.mu.Lock()
	if c.destroyed {
		// Unmount already destroyed the handle but could not see the registration
		c.mu.Unlock()
		actionsSub.Unsubscribe()
		reg.Unregister()
		return
	}
	c.actionsSub = actionsSub
	c.unregister = reg.Unregister
	c.state.Lifecycle = LifecycleLoaded
	entryID := c.entryID
	start := c.beginLoadLocked()
	c.mu.Unlock()

	log.Info("Player loaded", "player_id", c.id, "entry_id", entryID)
	c.publish()
	if c.opts.OnPlayerLoaded != nil {
		c.opts.OnPlayerLoaded(entryID, c.id)
	}
	start()
}

// createPlayer builds the setup configuration and calls the manager.  A panic in either becomes an error.
func (c *Controller) createPlayer() (handle player.Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			handle = nil
			err = fmt.Errorf("%w: panic: %v", ErrPlayerSetup, r)
		}
	}()

	cfg := c.setupConfig()
	log.Debug("Setting up player", "player_id", c.id, "autoplay", cfg.Playback.Autoplay)
	handle, err = c.deps.Manager.Setup(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlayerSetup, err)
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: manager returned no player", ErrPlayerSetup)
	}
	return handle, nil
}

func (c *Controller) setupConfig() player.SetupConfig {
	cfg := player.SetupConfig{Playback: player.PlaybackConfig{Autoplay: c.opts.Autoplay}}
	if c.opts.CustomizeConfig != nil {
		cfg = c.opts.CustomizeConfig(cfg).Clone()
	}

	cfg.TargetID = c.id
	cfg.Provider = player.ProviderConfig{
		PartnerID: c.deps.Bundle.PartnerID,
		UIConfID:  c.deps.Bundle.UIConfID,
		KS:        c.deps.Bundle.KS,
	}
	if cfg.Plugins == nil {
		cfg.Plugins = make(map[string]map[string]any)
	}
	if cfg.Plugins[analyticsPlugin] == nil {
		cfg.Plugins[analyticsPlugin] = make(map[string]any)
	}
	cfg.Plugins[analyticsPlugin]["disable"] = !c.opts.EnableAnalytics
	return cfg
}

func (c *Controller) failPlayer(err error) {
	c.mu.Lock()
	if c.destroyed || c.state.Lifecycle != LifecycleInitial {
		c.mu.Unlock()
		return
	}
	c.state.Lifecycle = LifecycleError
	entryID := c.entryID
	c.mu.Unlock()

	log.Error("Player failed to load", "player_id", c.id, "entry_id", entryID, "error", err)
	c.publish()
	if c.opts.OnPlayerLoadingError != nil {
		c.opts.OnPlayerLoadingError(entryID)
	}
}

func (c *Controller) addRelays(h player.Handle) []relay {
	add := func(name player.EventName, l player.Listener) relay {
		return relay{name: name, id: h.AddEventListener(name, l)}
	}

	return []relay{
		add(player.EventTimeUpdate, func(player.Event) {
			ms := math.Floor(h.CurrentTime() * 1000)
			c.time.Next(time.Duration(ms) * time.Millisecond)
		}),
		add(player.EventPlayerStateChanged, func(ev player.Event) {
			state, ok := player.ParsePlaybackState(ev.NewState)
			if !ok {
				log.Warn("Unrecognized playback state", "player_id", c.id, "state", ev.NewState, "old_state", ev.OldState)
				return
			}
			c.playback.Next(state)
		}),
		add(player.EventFirstPlaying, func(player.Event) {
			c.events.Next(player.PlayerEvent{Type: player.PlayerEventFirstPlaying})
		}),
		add(player.EventVideoResize, func(ev player.Event) {
			c.events.Next(player.PlayerEvent{
				Type:   player.PlayerEventVideoResized,
				X:      ev.VideoSize.X,
				Y:      ev.VideoSize.Y,
				Width:  ev.VideoSize.Width,
				Height: ev.VideoSize.Height,
			})
		}),
		add(player.EventPlayerResize, func(ev player.Event) {
			c.events.Next(player.PlayerEvent{
				Type:   player.PlayerEventPlayerResized,
				Width:  ev.PlayerSize.Width,
				Height: ev.PlayerSize.Height,
			})
		}),
	}
}

func (c *Controller) handleAction(a registry.Action) {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h == nil {
		log.Debug("Dropping action, no player", "player_id", c.id, "action", a.Type.String())
		return
	}

	var err error
	switch a.Type {
	case registry.ActionPlay:
		err = h.Play()
	case registry.ActionPause:
		err = h.Pause()
	case registry.ActionSeek:
		if a.Seek == nil {
			return
		}
		if a.Seek.Pause {
			if perr := h.Pause(); perr != nil {
				log.Warn("Failed to pause before seeking", "player_id", c.id, "error", perr)
			}
		}
		err = h.SetCurrentTime(a.Seek.To.Seconds())
	}
	if err != nil {
		log.Warn("Player action failed", "player_id", c.id, "action", a.Type.String(), "error", err)
	}
}

// beginLoadLocked moves the media into Loading and returns the function starting the load.  c.mu must be held;
// the returned function must be called after it is released and the new state published.
func (c *Controller) beginLoadLocked() func() {
	entryID := c.entryID
	// Any load in flight belongs to a previous entry
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.loadGen++
	gen := c.loadGen

	if entryID == "" {
		c.state.Media = MediaInitial
		return func() {
			log.Warn("No entry id, not loading media", "player_id", c.id)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelLoad = cancel
	c.state.Media = MediaLoading
	h := c.handle
	info := player.MediaInfo{EntryID: entryID, KS: c.deps.Bundle.KS}

	return func() {
		log.Info("Loading media", "player_id", c.id, "entry_id", entryID)
		go c.awaitLoad(ctx, h, info, gen)
	}
}

func (c *Controller) awaitLoad(ctx context.Context, h player.Handle, info player.MediaInfo, gen uint64) {
	err := h.LoadMedia(ctx, info)

	c.mu.Lock()
	if c.destroyed || gen != c.loadGen {
		c.mu.Unlock()
		log.Debug("Discarding superseded media load", "player_id", c.id, "entry_id", info.EntryID)
		return
	}
	c.cancelLoad()
	c.cancelLoad = nil
	if err != nil {
		c.state.Media = MediaError
	} else {
		c.state.Media = MediaLoaded
	}
	c.mu.Unlock()
	c.publish()

	if err != nil {
		log.Error("Media failed to load", "player_id", c.id, "entry_id", info.EntryID, "error", fmt.Errorf("%w: %w", ErrMediaLoad, err))
		if c.opts.OnMediaLoadingError != nil {
			c.opts.OnMediaLoadingError(info.EntryID)
		}
		return
	}
	log.Info("Media loaded", "player_id", c.id, "entry_id", info.EntryID)
	if c.opts.OnMediaLoaded != nil {
		c.opts.OnMediaLoaded(info.EntryID)
	}
}

// publish emits the latest state, read after the change, so concurrent publishers converge on the current value
func (c *Controller) publish() {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	c.states.Next(st)
}
