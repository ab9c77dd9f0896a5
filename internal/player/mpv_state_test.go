package player

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func propertyChange(name string, value any) MPVEvent {
	data, _ := json.Marshal(value)
	return MPVEvent{Event: "property-change", Name: name, Data: data}
}

func eventNames(events []Event) []EventName {
	names := make([]EventName, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

func TestMPVStatePlaybackTransitions(t *testing.T) {
	s := newMPVState(true)

	t.Run("LoadingWhileFileStarts", func(t *testing.T) {
		events := s.apply(MPVEvent{Event: "start-file"})
		assert.Equal(t, []Event{{Name: EventPlayerStateChanged, NewState: "loading", OldState: "idle"}}, events)
	})

	t.Run("IdleActiveIgnoredWhileLoading", func(t *testing.T) {
		events := s.apply(propertyChange("idle-active", false))
		assert.Empty(t, events)
	})

	t.Run("FirstPlayingAfterLoad", func(t *testing.T) {
		events := s.apply(MPVEvent{Event: "file-loaded"})
		assert.Equal(t, []EventName{EventPlayerStateChanged, EventFirstPlaying}, eventNames(events))
		assert.Equal(t, "playing", events[0].NewState)
		assert.Equal(t, "loading", events[0].OldState)
	})

	t.Run("PauseAndResumeDoNotRepeatFirstPlaying", func(t *testing.T) {
		events := s.apply(propertyChange("pause", true))
		assert.Equal(t, "paused", events[0].NewState)

		events = s.apply(propertyChange("pause", false))
		assert.Equal(t, []EventName{EventPlayerStateChanged}, eventNames(events))
		assert.Equal(t, "playing", events[0].NewState)
	})

	t.Run("Buffering", func(t *testing.T) {
		events := s.apply(propertyChange("paused-for-cache", true))
		assert.Equal(t, "buffering", events[0].NewState)
		assert.Empty(t, s.apply(propertyChange("paused-for-cache", true)))
	})

	t.Run("LoadErrorReportsErrorState", func(t *testing.T) {
		s.apply(MPVEvent{Event: "start-file"})
		events := s.apply(MPVEvent{Event: "end-file", Reason: "error", FileError: "loading failed"})
		assert.Equal(t, "error", events[0].NewState)
	})
}

func TestMPVStateStartsPausedWithoutAutoplay(t *testing.T) {
	s := newMPVState(false)
	s.apply(MPVEvent{Event: "start-file"})
	s.apply(propertyChange("idle-active", false))

	events := s.apply(MPVEvent{Event: "file-loaded"})
	assert.Equal(t, "paused", events[0].NewState)
	assert.Len(t, events, 1)
}

func TestMPVStateTimeUpdates(t *testing.T) {
	s := newMPVState(true)

	events := s.apply(propertyChange("time-pos", 12.345))
	assert.Equal(t, []EventName{EventTimeUpdate}, eventNames(events))
	assert.InDelta(t, 12.345, s.timePos, 1e-9)

	// time-pos is null while nothing is loaded
	assert.Empty(t, s.apply(MPVEvent{Event: "property-change", Name: "time-pos", Data: json.RawMessage("null")}))
	assert.InDelta(t, 12.345, s.timePos, 1e-9)

	// Malformed values are dropped
	assert.Empty(t, s.apply(propertyChange("time-pos", "soon")))
}

func TestMPVStateResize(t *testing.T) {
	s := newMPVState(true)

	events := s.apply(propertyChange("osd-dimensions", osdDimensions{W: 1280, H: 720, MT: 60, MB: 60}))
	assert.Equal(t, []Event{
		{Name: EventPlayerResize, PlayerSize: Size{Width: 1280, Height: 720}},
		{Name: EventVideoResize, VideoSize: Rect{X: 0, Y: 60, Width: 1280, Height: 600}},
	}, events)

	// Same window, different letterboxing only moves the video
	events = s.apply(propertyChange("osd-dimensions", osdDimensions{W: 1280, H: 720, ML: 40, MR: 40}))
	assert.Equal(t, []Event{
		{Name: EventVideoResize, VideoSize: Rect{X: 40, Y: 0, Width: 1200, Height: 720}},
	}, events)

	assert.Empty(t, s.apply(propertyChange("osd-dimensions", osdDimensions{W: 1280, H: 720, ML: 40, MR: 40})))
}

func TestMPVStateMuteAndVideoParams(t *testing.T) {
	s := newMPVState(true)

	assert.Empty(t, s.apply(propertyChange("mute", true)))
	assert.True(t, s.muted)

	assert.Empty(t, s.apply(propertyChange("video-params", map[string]any{"w": 1920, "h": 1080, "pixelformat": "yuv420p"})))
	assert.Equal(t, videoParams{W: 1920, H: 1080}, s.video)
}
