package player

import (
	"context"
)

// ListenerID identifies a registered event listener so it can be removed again
type ListenerID uint64

// Listener is called for every event of the type it was registered for
type Listener func(Event)

// Manager is the entry point of a player runtime.  Once the runtime bundle is available, Setup creates player
// instances bound to a target id.
type Manager interface {
	// Setup creates a new player from the given configuration.  Malformed configurations are rejected.
	Setup(cfg SetupConfig) (Handle, error)

	// Players returns the live players keyed by target id
	Players() map[string]Handle
}

// Handle is a single live player instance
type Handle interface {
	// AddEventListener registers l for events of the given type
	AddEventListener(name EventName, l Listener) ListenerID

	// RemoveEventListener removes a listener previously returned by AddEventListener
	RemoveEventListener(name EventName, id ListenerID)

	// LoadMedia loads the given entry and blocks until it is ready or failed
	LoadMedia(ctx context.Context, info MediaInfo) error

	// CurrentTime returns the playback position in seconds
	CurrentTime() float64

	// SetCurrentTime moves the playback position, in seconds
	SetCurrentTime(seconds float64) error

	Play() error
	Pause() error

	// Destroy releases the player.  The handle must not be used afterwards.
	Destroy() error
}

// Muter is implemented by handles that can toggle audio
type Muter interface {
	Muted() bool
	SetMuted(muted bool) error
}

// Dimensioner is implemented by handles that know the size of their video and surface
type Dimensioner interface {
	VideoDimensions() (Size, bool)
	PlayerDimensions() (Size, bool)
}
