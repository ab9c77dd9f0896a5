package registry

import (
	"strings"
	"testing"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/player/playertest"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryStreams struct {
	time   *stream.Behavior[time.Duration]
	state  *stream.Behavior[player.PlaybackState]
	events *stream.Subject[player.PlayerEvent]
}

func register(r *Registry, id string) (entryStreams, Registration) {
	s := entryStreams{
		time:   stream.NewBehavior[time.Duration](0),
		state:  stream.NewBehavior(player.PlaybackIdle),
		events: stream.NewSubject[player.PlayerEvent](),
	}
	return s, r.Register(id, s.time.AsStream(), s.state.AsStream(), s.events.AsStream())
}

func collectActions(reg Registration) *[]Action {
	var got []Action
	reg.Actions.Subscribe(stream.Observer[Action]{Next: func(a Action) { got = append(got, a) }})
	return &got
}

func TestNewPlayerID(t *testing.T) {
	a, b := NewPlayerID(), NewPlayerID()
	assert.True(t, strings.HasPrefix(a, "embedplayer"))
	assert.NotEqual(t, a, b)
}

func TestDispatch(t *testing.T) {
	r := New(nil)
	_, reg := register(r, "p1")
	got := collectActions(reg)

	require.NoError(t, r.Play("p1"))
	require.NoError(t, r.Pause("p1"))
	require.NoError(t, r.Seek("p1", SeekOptions{To: 5 * time.Second, Pause: true}))

	require.Len(t, *got, 3)
	assert.Equal(t, ActionPlay, (*got)[0].Type)
	assert.Equal(t, ActionPause, (*got)[1].Type)
	assert.Equal(t, ActionSeek, (*got)[2].Type)
	assert.Equal(t, &SeekOptions{To: 5 * time.Second, Pause: true}, (*got)[2].Seek)
}

func TestDispatchUnknownPlayer(t *testing.T) {
	r := New(nil)
	_, reg := register(r, "p1")
	got := collectActions(reg)

	err := r.Play("p2")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.Empty(t, *got)
}

func TestStreamLookups(t *testing.T) {
	r := New(nil)
	s, _ := register(r, "p1")

	var times []time.Duration
	r.TimeStream("p1").Subscribe(stream.Observer[time.Duration]{Next: func(d time.Duration) { times = append(times, d) }})
	s.time.Next(1500 * time.Millisecond)
	assert.Equal(t, []time.Duration{0, 1500 * time.Millisecond}, times)

	var states []player.PlaybackState
	r.StateStream("p1").Subscribe(stream.Observer[player.PlaybackState]{Next: func(st player.PlaybackState) { states = append(states, st) }})
	s.state.Next(player.PlaybackPlaying)
	assert.Equal(t, []player.PlaybackState{player.PlaybackIdle, player.PlaybackPlaying}, states)

	var events []player.PlayerEvent
	r.EventStream("p1").Subscribe(stream.Observer[player.PlayerEvent]{Next: func(e player.PlayerEvent) { events = append(events, e) }})
	s.events.Next(player.PlayerEvent{Type: player.PlayerEventFirstPlaying})
	assert.Len(t, events, 1)

	t.Run("UnknownID", func(t *testing.T) {
		var errs []error
		onErr := func(err error) { errs = append(errs, err) }
		r.TimeStream("nope").Subscribe(stream.Observer[time.Duration]{Error: onErr})
		r.StateStream("nope").Subscribe(stream.Observer[player.PlaybackState]{Error: onErr})
		r.EventStream("nope").Subscribe(stream.Observer[player.PlayerEvent]{Error: onErr})

		require.Len(t, errs, 3)
		for _, err := range errs {
			assert.ErrorIs(t, err, ErrUnknownPlayer)
		}
	})
}

func TestUnregister(t *testing.T) {
	r := New(nil)
	_, reg := register(r, "p1")
	completed := 0
	reg.Actions.Subscribe(stream.Observer[Action]{Complete: func() { completed++ }})

	assert.True(t, r.Has("p1"))
	reg.Unregister()
	reg.Unregister()
	r.Unregister("p1")

	assert.False(t, r.Has("p1"))
	assert.Equal(t, 1, completed)
	assert.ErrorIs(t, r.Play("p1"), ErrUnknownPlayer)
}

func TestReRegisterReplaces(t *testing.T) {
	r := New(nil)
	_, first := register(r, "p1")
	firstDone := false
	first.Actions.Subscribe(stream.Observer[Action]{Complete: func() { firstDone = true }})

	_, second := register(r, "p1")
	got := collectActions(second)
	assert.True(t, firstDone)

	// The stale registration must not remove its replacement
	first.Unregister()
	assert.True(t, r.Has("p1"))

	require.NoError(t, r.Play("p1"))
	assert.Len(t, *got, 1)
	assert.Equal(t, []string{"p1"}, r.IDs())
}

func TestDispatchReentrancy(t *testing.T) {
	r := New(nil)
	_, reg := register(r, "p1")

	var got []ActionType
	reg.Actions.Subscribe(stream.Observer[Action]{Next: func(a Action) {
		got = append(got, a.Type)
		if a.Type == ActionSeek {
			assert.NoError(t, r.Pause("p1"))
			r.Unregister("p1")
		}
	}})

	require.NoError(t, r.Seek("p1", SeekOptions{}))
	assert.Equal(t, []ActionType{ActionSeek, ActionPause}, got)
	assert.False(t, r.Has("p1"))
}

func TestInstanceAccessor(t *testing.T) {
	m := playertest.NewManager()
	r := New(m)

	get := r.InstanceAccessor("embedplayer42")
	assert.True(t, get().IsAbsent())

	_, err := m.Setup(player.SetupConfig{TargetID: "embedplayer42"})
	require.NoError(t, err)

	h, ok := get().Get()
	require.True(t, ok)
	assert.Same(t, m.Handle("embedplayer42"), h)

	require.NoError(t, h.Destroy())
	assert.True(t, get().IsAbsent())
	assert.True(t, r.Instance("").IsAbsent())
}

func TestIDs(t *testing.T) {
	r := New(nil)
	register(r, "b")
	register(r, "a")
	assert.Equal(t, []string{"a", "b"}, r.IDs())
	assert.Equal(t, "Seek", ActionSeek.String())
}
