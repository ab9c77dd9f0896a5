package player

import (
	"encoding/json"
	"fmt"

	"github.com/PizzaHomicide/embedplayer/internal/log"
)

// Properties observed on every MPV instance.  The index is used as the observe_property id.
var observedMPVProperties = []string{
	"time-pos",
	"pause",
	"idle-active",
	"paused-for-cache",
	"osd-dimensions",
	"video-params",
	"mute",
}

type osdDimensions struct {
	W  int `json:"w"`
	H  int `json:"h"`
	ML int `json:"ml"`
	MR int `json:"mr"`
	MT int `json:"mt"`
	MB int `json:"mb"`
}

type videoParams struct {
	W int `json:"w"`
	H int `json:"h"`
}

// mpvState folds MPV events into the player's view of playback and works out which player events they produce.
// It is not safe for concurrent use.
type mpvState struct {
	timePos   float64
	paused    bool
	idle      bool
	buffering bool
	loading   bool
	muted     bool

	state        PlaybackState
	firstPlaying bool

	osd   osdDimensions
	video videoParams
}

func newMPVState(autoplay bool) *mpvState {
	return &mpvState{
		paused: !autoplay,
		idle:   true,
		state:  PlaybackIdle,
	}
}

// apply consumes one MPV event and returns the events to emit, in order
func (s *mpvState) apply(ev MPVEvent) []Event {
	switch ev.Event {
	case "start-file":
		s.loading = true
		s.firstPlaying = false
		return s.transition()
	case "file-loaded", "playback-restart":
		s.loading = false
		return s.transition()
	case "end-file":
		s.loading = false
		if ev.Reason == "error" {
			return s.transitionTo(PlaybackError)
		}
		return s.transition()
	case "property-change":
		return s.applyProperty(ev.Name, ev.Data)
	}
	return nil
}

func (s *mpvState) applyProperty(name string, data json.RawMessage) []Event {
	if len(data) == 0 || string(data) == "null" {
		// Properties become unavailable while no file is loaded
		return nil
	}

	switch name {
	case "time-pos":
		if err := json.Unmarshal(data, &s.timePos); err != nil {
			return logPropertyError(name, err)
		}
		return []Event{{Name: EventTimeUpdate}}
	case "pause":
		if err := json.Unmarshal(data, &s.paused); err != nil {
			return logPropertyError(name, err)
		}
		return s.transition()
	case "idle-active":
		if err := json.Unmarshal(data, &s.idle); err != nil {
			return logPropertyError(name, err)
		}
		return s.transition()
	case "paused-for-cache":
		if err := json.Unmarshal(data, &s.buffering); err != nil {
			return logPropertyError(name, err)
		}
		return s.transition()
	case "mute":
		if err := json.Unmarshal(data, &s.muted); err != nil {
			return logPropertyError(name, err)
		}
		return nil
	case "video-params":
		if err := json.Unmarshal(data, &s.video); err != nil {
			return logPropertyError(name, err)
		}
		return nil
	case "osd-dimensions":
		var osd osdDimensions
		if err := json.Unmarshal(data, &osd); err != nil {
			return logPropertyError(name, err)
		}
		return s.resize(osd)
	}
	return nil
}

func (s *mpvState) resize(osd osdDimensions) []Event {
	prev := s.osd
	s.osd = osd

	var events []Event
	if prev.W != osd.W || prev.H != osd.H {
		events = append(events, Event{
			Name:       EventPlayerResize,
			PlayerSize: Size{Width: osd.W, Height: osd.H},
		})
	}
	if prevRect, rect := videoRect(prev), videoRect(osd); prevRect != rect {
		events = append(events, Event{
			Name:      EventVideoResize,
			VideoSize: rect,
		})
	}
	return events
}

// videoRect is the area of the window covered by video, which is the window minus its margins
func videoRect(osd osdDimensions) Rect {
	return Rect{
		X:      osd.ML,
		Y:      osd.MT,
		Width:  osd.W - osd.ML - osd.MR,
		Height: osd.H - osd.MT - osd.MB,
	}
}

func (s *mpvState) derived() PlaybackState {
	switch {
	case s.loading:
		return PlaybackLoading
	case s.idle:
		return PlaybackIdle
	case s.buffering:
		return PlaybackBuffering
	case s.paused:
		return PlaybackPaused
	default:
		return PlaybackPlaying
	}
}

func (s *mpvState) transition() []Event {
	return s.transitionTo(s.derived())
}

func (s *mpvState) transitionTo(next PlaybackState) []Event {
	if next == s.state {
		return nil
	}
	prev := s.state
	s.state = next

	events := []Event{{
		Name:     EventPlayerStateChanged,
		NewState: string(next),
		OldState: string(prev),
	}}
	if next == PlaybackPlaying && !s.firstPlaying {
		s.firstPlaying = true
		events = append(events, Event{Name: EventFirstPlaying})
	}
	return events
}

func logPropertyError(name string, err error) []Event {
	log.Warn("Failed to parse MPV property", "property", name, "error", fmt.Errorf("unexpected value: %w", err))
	return nil
}
