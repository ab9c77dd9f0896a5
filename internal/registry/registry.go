package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrUnknownPlayer is returned when no player is registered under the given id
var ErrUnknownPlayer = errors.New("unknown player id")

// ActionType discriminates Action
type ActionType int

const (
	ActionPlay ActionType = iota
	ActionPause
	ActionSeek
)

func (a ActionType) String() string {
	switch a {
	case ActionPlay:
		return "Play"
	case ActionPause:
		return "Pause"
	case ActionSeek:
		return "Seek"
	default:
		return fmt.Sprintf("ActionType(%d)", int(a))
	}
}

// SeekOptions is the payload of a seek action
type SeekOptions struct {
	// To is the absolute playback position to move to
	To time.Duration
	// Pause pauses playback before seeking
	Pause bool
}

// Action is a command sent to the controller owning a player.  Seek is only set for ActionSeek.
type Action struct {
	Type ActionType
	Seek *SeekOptions
}

// Registration is handed back to the owner of a newly registered player
type Registration struct {
	// Actions delivers every command dispatched to the player
	Actions stream.Stream[Action]
	// Unregister removes the entry.  Safe to call more than once.
	Unregister func()
}

type entry struct {
	id      string
	time    stream.Stream[time.Duration]
	state   stream.Stream[player.PlaybackState]
	events  stream.Stream[player.PlayerEvent]
	actions *stream.Subject[Action]
}

// Registry maps player ids onto the streams and command sink of live players
type Registry struct {
	manager player.Manager

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty registry.  Instances are resolved through manager.
func New(manager player.Manager) *Registry {
	return &Registry{
		manager: manager,
		entries: make(map[string]*entry),
	}
}

var playerCount atomic.Uint64

// NewPlayerID returns a process wide unique player id
func NewPlayerID() string {
	return fmt.Sprintf("embedplayer%d", playerCount.Add(1))
}

// Register adds a player.  A player already registered under id is replaced and its action sink completed.
func (r *Registry) Register(id string, timeStream stream.Stream[time.Duration], state stream.Stream[player.PlaybackState],
	events stream.Stream[player.PlayerEvent]) Registration {
	e := &entry{
		id:      id,
		time:    timeStream,
		state:   state,
		events:  events,
		actions: stream.NewSubject[Action](),
	}

	r.mu.Lock()
	old := r.entries[id]
	r.entries[id] = e
	r.mu.Unlock()

	if old != nil {
		log.Warn("Player id registered twice, replacing the previous registration", "player_id", id)
		old.actions.Complete()
	}
	log.Debug("Registered player", "player_id", id)

	return Registration{
		Actions:    e.actions.AsStream(),
		Unregister: func() { r.unregisterEntry(e) },
	}
}

// Unregister removes the player registered under id, if any
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	e := r.entries[id]
	r.mu.Unlock()
	if e != nil {
		r.unregisterEntry(e)
	}
}

// unregisterEntry only removes e itself, so a stale Unregister cannot remove a replacement
func (r *Registry) unregisterEntry(e *entry) {
	r.mu.Lock()
	if r.entries[e.id] == e {
		delete(r.entries, e.id)
		log.Debug("Unregistered player", "player_id", e.id)
	}
	r.mu.Unlock()
	e.actions.Complete()
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// Has reports whether a player is registered under id
func (r *Registry) Has(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

// IDs returns the registered player ids in sorted order
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := lo.Keys(r.entries)
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Dispatch sends an action to the player registered under id
func (r *Registry) Dispatch(id string, a Action) error {
	e, ok := r.lookup(id)
	if !ok {
		log.Warn("Cannot dispatch action, player not registered", "player_id", id, "action", a.Type.String())
		return fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}
	log.Trace("Dispatching action", "player_id", id, "action", a.Type.String())
	e.actions.Next(a)
	return nil
}

func (r *Registry) Play(id string) error {
	return r.Dispatch(id, Action{Type: ActionPlay})
}

func (r *Registry) Pause(id string) error {
	return r.Dispatch(id, Action{Type: ActionPause})
}

func (r *Registry) Seek(id string, opts SeekOptions) error {
	return r.Dispatch(id, Action{Type: ActionSeek, Seek: &opts})
}

// TimeStream returns the playback position stream of a player.  Unknown ids yield a stream that errors.
func (r *Registry) TimeStream(id string) stream.Stream[time.Duration] {
	e, ok := r.lookup(id)
	if !ok {
		return stream.Fail[time.Duration](fmt.Errorf("%w: %q", ErrUnknownPlayer, id))
	}
	return e.time
}

// StateStream returns the playback state stream of a player.  Unknown ids yield a stream that errors.
func (r *Registry) StateStream(id string) stream.Stream[player.PlaybackState] {
	e, ok := r.lookup(id)
	if !ok {
		return stream.Fail[player.PlaybackState](fmt.Errorf("%w: %q", ErrUnknownPlayer, id))
	}
	return e.state
}

// EventStream returns the discrete event stream of a player.  Unknown ids yield a stream that errors.
func (r *Registry) EventStream(id string) stream.Stream[player.PlayerEvent] {
	e, ok := r.lookup(id)
	if !ok {
		return stream.Fail[player.PlayerEvent](fmt.Errorf("%w: %q", ErrUnknownPlayer, id))
	}
	return e.events
}

// InstanceAccessor returns a function resolving the live handle for id.  The handle is looked up on every call,
// so the accessor can be created before the player exists.
func (r *Registry) InstanceAccessor(id string) func() mo.Option[player.Handle] {
	return func() mo.Option[player.Handle] {
		return r.Instance(id)
	}
}

// Instance returns the live handle for id, if the runtime has one
func (r *Registry) Instance(id string) mo.Option[player.Handle] {
	if r.manager == nil || id == "" {
		return mo.None[player.Handle]()
	}
	h, ok := r.manager.Players()[id]
	if !ok || h == nil {
		return mo.None[player.Handle]()
	}
	return mo.Some(h)
}
