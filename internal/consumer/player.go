package consumer

import (
	"errors"
	"sync"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/registry"
	"github.com/samber/mo"
)

var (
	// ErrNoPlayerID is returned by commands issued before a player id was set
	ErrNoPlayerID = errors.New("no player id")
	// ErrUnsupported is returned when the player instance lacks a capability
	ErrUnsupported = errors.New("not supported by player")
	// ErrNoInstance is returned when no live player instance exists for the id
	ErrNoInstance = errors.New("player instance not available")
)

// Commands is the command side of the registry
type Commands interface {
	Play(id string) error
	Pause(id string) error
	Seek(id string, opts registry.SeekOptions) error
	Instance(id string) mo.Option[player.Handle]
}

// Player controls the player with a given id from anywhere under the provider, without owning it
type Player struct {
	src Commands

	mu sync.RWMutex
	id string
}

// NewPlayer creates a command facade for id, which may be empty until the player is known
func NewPlayer(src Commands, id string) *Player {
	return &Player{src: src, id: id}
}

// SetPlayerID retargets the facade
func (p *Player) SetPlayerID(id string) {
	p.mu.Lock()
	p.id = id
	p.mu.Unlock()
}

// PlayerID returns the targeted player id
func (p *Player) PlayerID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

func (p *Player) target(command string) (string, error) {
	id := p.PlayerID()
	if id == "" {
		log.Warn("Player command issued without a player id", "command", command)
		return "", ErrNoPlayerID
	}
	return id, nil
}

func (p *Player) Play() error {
	id, err := p.target("play")
	if err != nil {
		return err
	}
	return p.src.Play(id)
}

func (p *Player) Pause() error {
	id, err := p.target("pause")
	if err != nil {
		return err
	}
	return p.src.Pause(id)
}

// Seek moves playback to the absolute position to, pausing first when pause is set
func (p *Player) Seek(to time.Duration, pause bool) error {
	id, err := p.target("seek")
	if err != nil {
		return err
	}
	if to < 0 {
		to = 0
	}
	return p.src.Seek(id, registry.SeekOptions{To: to, Pause: pause})
}

// Instance returns the raw player handle, if the player exists
func (p *Player) Instance() mo.Option[player.Handle] {
	return p.instance("instance")
}

func (p *Player) instance(command string) mo.Option[player.Handle] {
	id, err := p.target(command)
	if err != nil {
		return mo.None[player.Handle]()
	}
	return p.src.Instance(id)
}

func (p *Player) dimensioner(command string) mo.Option[player.Dimensioner] {
	h, ok := p.instance(command).Get()
	if !ok {
		return mo.None[player.Dimensioner]()
	}
	d, ok := h.(player.Dimensioner)
	if !ok {
		return mo.None[player.Dimensioner]()
	}
	return mo.Some(d)
}

// VideoDimensions returns the native size of the playing video
func (p *Player) VideoDimensions() mo.Option[player.Size] {
	d, ok := p.dimensioner("video dimensions").Get()
	if !ok {
		return mo.None[player.Size]()
	}
	return mo.TupleToOption(d.VideoDimensions())
}

// PlayerDimensions returns the size of the player surface
func (p *Player) PlayerDimensions() mo.Option[player.Size] {
	d, ok := p.dimensioner("player dimensions").Get()
	if !ok {
		return mo.None[player.Size]()
	}
	return mo.TupleToOption(d.PlayerDimensions())
}

// Muted reports the mute state of the raw instance, when it supports muting
func (p *Player) Muted() mo.Option[bool] {
	h, ok := p.instance("muted").Get()
	if !ok {
		return mo.None[bool]()
	}
	m, ok := h.(player.Muter)
	if !ok {
		return mo.None[bool]()
	}
	return mo.Some(m.Muted())
}

// ToggleMute flips the mute state of the raw instance and returns the new state
func (p *Player) ToggleMute() (bool, error) {
	id, err := p.target("toggle mute")
	if err != nil {
		return false, err
	}
	h, ok := p.src.Instance(id).Get()
	if !ok {
		return false, ErrNoInstance
	}
	m, ok := h.(player.Muter)
	if !ok {
		return false, ErrUnsupported
	}
	muted := !m.Muted()
	if err := m.SetMuted(muted); err != nil {
		return !muted, err
	}
	return muted, nil
}
