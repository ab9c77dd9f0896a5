package lifecycle

import "fmt"

// LifecycleState is the state of the player instance owned by a Controller
type LifecycleState int

const (
	LifecycleInitial LifecycleState = iota
	LifecycleLoaded
	LifecycleError
	LifecycleDestroyed
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleInitial:
		return "Initial"
	case LifecycleLoaded:
		return "Loaded"
	case LifecycleError:
		return "Error"
	case LifecycleDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

// MediaState is the state of the media loaded into the player
type MediaState int

const (
	MediaInitial MediaState = iota
	MediaLoading
	MediaLoaded
	MediaError
	MediaDestroyed
)

func (s MediaState) String() string {
	switch s {
	case MediaInitial:
		return "Initial"
	case MediaLoading:
		return "Loading"
	case MediaLoaded:
		return "Loaded"
	case MediaError:
		return "Error"
	case MediaDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("MediaState(%d)", int(s))
	}
}

// State is a snapshot of a Controller
type State struct {
	PlayerID  string
	Lifecycle LifecycleState
	Media     MediaState
}
