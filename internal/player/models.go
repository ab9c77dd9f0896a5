package player

// PlayerType defines the type of media player backend to use
type PlayerType string

const (
	// PlayerTypeMPV represents the MPV player
	PlayerTypeMPV PlayerType = "mpv"
)

// EventName is the name of an event emitted by a Handle
type EventName string

const (
	EventTimeUpdate         EventName = "timeupdate"
	EventPlayerStateChanged EventName = "playerstatechanged"
	EventFirstPlaying       EventName = "firstplaying"
	EventVideoResize        EventName = "videoresize"
	EventPlayerResize       EventName = "playerresize"
)

// Event is the payload handed to listeners.  Only the fields relevant to Name are set.
type Event struct {
	Name EventName
	// NewState and OldState are set for EventPlayerStateChanged.  They are raw values reported by the runtime and
	// may fall outside the known PlaybackState values.
	NewState string
	OldState string
	// VideoSize is set for EventVideoResize
	VideoSize Rect
	// PlayerSize is set for EventPlayerResize
	PlayerSize Size
}

// PlaybackState is the state of playback as reported by the player runtime
type PlaybackState string

const (
	PlaybackPaused    PlaybackState = "paused"
	PlaybackPlaying   PlaybackState = "playing"
	PlaybackLoading   PlaybackState = "loading"
	PlaybackIdle      PlaybackState = "idle"
	PlaybackBuffering PlaybackState = "buffering"
	PlaybackError     PlaybackState = "error"
)

var knownPlaybackStates = map[string]PlaybackState{
	string(PlaybackPaused):    PlaybackPaused,
	string(PlaybackPlaying):   PlaybackPlaying,
	string(PlaybackLoading):   PlaybackLoading,
	string(PlaybackIdle):      PlaybackIdle,
	string(PlaybackBuffering): PlaybackBuffering,
	string(PlaybackError):     PlaybackError,
}

// ParsePlaybackState maps a raw state value onto a PlaybackState.  ok is false for unknown values.
func ParsePlaybackState(s string) (state PlaybackState, ok bool) {
	state, ok = knownPlaybackStates[s]
	return state, ok
}

// PlayerEventType discriminates PlayerEvent
type PlayerEventType string

const (
	PlayerEventFirstPlaying  PlayerEventType = "FirstPlaying"
	PlayerEventVideoResized  PlayerEventType = "VideoResized"
	PlayerEventPlayerResized PlayerEventType = "PlayerResized"
)

// PlayerEvent is a discrete, non-state event published to consumers.  X and Y are only meaningful for
// PlayerEventVideoResized, and none of the geometry is set for PlayerEventFirstPlaying.
type PlayerEvent struct {
	Type   PlayerEventType
	X, Y   int
	Width  int
	Height int
}

// Size is a width and height in pixels
type Size struct {
	Width  int
	Height int
}

// Rect is a positioned Size
type Rect struct {
	X, Y   int
	Width  int
	Height int
}

// MediaInfo selects the media loaded into a player
type MediaInfo struct {
	EntryID string
	// KS is the optional credential token used to access the entry
	KS string
}

// SetupConfig is handed to Manager.Setup
type SetupConfig struct {
	// TargetID is the id the created player is registered under
	TargetID string
	Playback PlaybackConfig
	Provider ProviderConfig
	// Plugins holds per-plugin settings, for example {"kava": {"disable": true}}
	Plugins map[string]map[string]any
	// Options are backend specific settings.  The mpv backend passes them on as --key=value flags.
	Options map[string]string
}

// PlaybackConfig holds playback related settings
type PlaybackConfig struct {
	Autoplay bool
}

// ProviderConfig identifies the account the player plays media from
type ProviderConfig struct {
	PartnerID string
	UIConfID  string
	KS        string
}

// Clone returns a copy that shares no maps with c
func (c SetupConfig) Clone() SetupConfig {
	out := c
	if c.Plugins != nil {
		out.Plugins = make(map[string]map[string]any, len(c.Plugins))
		for name, settings := range c.Plugins {
			copied := make(map[string]any, len(settings))
			for k, v := range settings {
				copied[k] = v
			}
			out.Plugins[name] = copied
		}
	}
	if c.Options != nil {
		out.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = v
		}
	}
	return out
}
