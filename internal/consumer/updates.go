package consumer

import (
	"sync"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
)

// Streams is the read side of the registry
type Streams interface {
	TimeStream(id string) stream.Stream[time.Duration]
	StateStream(id string) stream.Stream[player.PlaybackState]
	EventStream(id string) stream.Stream[player.PlayerEvent]
}

// Updates follows the streams of one player.  Its own streams stay the same when the followed player changes,
// so subscribers never need to resubscribe.
type Updates struct {
	src Streams

	time   *stream.Behavior[time.Duration]
	state  *stream.Behavior[player.PlaybackState]
	events *stream.Subject[player.PlayerEvent]

	mu     sync.Mutex
	id     string
	subs   []*stream.Subscription
	closed bool
}

// NewUpdates creates an Updates following no player.  Time starts at 0 and the state at idle.
func NewUpdates(src Streams) *Updates {
	return &Updates{
		src:    src,
		time:   stream.NewBehavior[time.Duration](0),
		state:  stream.NewBehavior(player.PlaybackIdle),
		events: stream.NewSubject[player.PlayerEvent](),
	}
}

// SetPlayerID switches to the streams of id.  The previous player's subscriptions are dropped first.
func (u *Updates) SetPlayerID(id string) {
	u.mu.Lock()
	if u.closed || id == u.id {
		u.mu.Unlock()
		return
	}
	old := u.subs
	u.subs = nil
	u.id = id
	u.mu.Unlock()

	for _, s := range old {
		s.Unsubscribe()
	}
	if id == "" {
		return
	}

	lookupFailed := func(kind string) func(error) {
		return func(err error) {
			log.Warn("Failed to follow player updates", "player_id", id, "stream", kind, "error", err)
		}
	}
	subs := []*stream.Subscription{
		u.src.TimeStream(id).Subscribe(stream.Observer[time.Duration]{Next: u.time.Next, Error: lookupFailed("time")}),
		u.src.StateStream(id).Subscribe(stream.Observer[player.PlaybackState]{Next: u.state.Next, Error: lookupFailed("state")}),
		u.src.EventStream(id).Subscribe(stream.Observer[player.PlayerEvent]{Next: u.events.Next, Error: lookupFailed("events")}),
	}

	u.mu.Lock()
	if u.closed || u.id != id {
		u.mu.Unlock()
		for _, s := range subs {
			s.Unsubscribe()
		}
		return
	}
	u.subs = subs
	u.mu.Unlock()
}

// PlayerID returns the followed player id
func (u *Updates) PlayerID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.id
}

// Time returns the latest playback position
func (u *Updates) Time() time.Duration {
	return u.time.Value()
}

// State returns the latest playback state
func (u *Updates) State() player.PlaybackState {
	return u.state.Value()
}

func (u *Updates) TimeStream() stream.Stream[time.Duration] {
	return u.time.AsStream()
}

func (u *Updates) StateStream() stream.Stream[player.PlaybackState] {
	return u.state.AsStream()
}

func (u *Updates) EventStream() stream.Stream[player.PlayerEvent] {
	return u.events.AsStream()
}

// Close stops following and completes the streams.  The player itself is unaffected.
func (u *Updates) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	subs := u.subs
	u.subs = nil
	u.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	u.time.Complete()
	u.state.Complete()
	u.events.Complete()
}
