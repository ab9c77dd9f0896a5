// Package playertest provides an in-memory player runtime for tests.
package playertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/embedplayer/internal/player"
)

// Manager is a fake player.Manager recording every Setup call
type Manager struct {
	mu       sync.Mutex
	setups   []player.SetupConfig
	players  map[string]*Handle
	setupErr error

	// NewHandle, when set, customises the handles created by Setup
	NewHandle func(cfg player.SetupConfig) *Handle
}

// NewManager creates an empty fake manager
func NewManager() *Manager {
	return &Manager{players: make(map[string]*Handle)}
}

// FailSetup makes every following Setup call return err
func (m *Manager) FailSetup(err error) {
	m.mu.Lock()
	m.setupErr = err
	m.mu.Unlock()
}

func (m *Manager) Setup(cfg player.SetupConfig) (player.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setups = append(m.setups, cfg.Clone())
	if m.setupErr != nil {
		return nil, m.setupErr
	}
	if cfg.TargetID == "" {
		return nil, errors.New("missing target id")
	}

	var h *Handle
	if m.NewHandle != nil {
		h = m.NewHandle(cfg)
	} else {
		h = NewHandle()
	}
	h.manager = m
	h.targetID = cfg.TargetID
	m.players[cfg.TargetID] = h
	return h, nil
}

func (m *Manager) Players() map[string]player.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]player.Handle, len(m.players))
	for id, h := range m.players {
		out[id] = h
	}
	return out
}

// Setups returns the configurations passed to Setup, in call order
func (m *Manager) Setups() []player.SetupConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]player.SetupConfig(nil), m.setups...)
}

// Handle returns the live fake handle for a target id
func (m *Manager) Handle(targetID string) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[targetID]
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.players, id)
	m.mu.Unlock()
}

// Handle is a fake player.Handle.  LoadMedia blocks until the test resolves it, unless AutoLoad is set.
type Handle struct {
	*player.Emitter

	manager  *Manager
	targetID string

	mu          sync.Mutex
	calls       []string
	loads       []player.MediaInfo
	pending     []chan error
	currentTime float64
	paused      bool
	muted       bool
	destroyed   bool
	autoLoad    bool
	loadErr     error
}

// NewHandle creates a fake handle.  The returned handle resolves loads immediately; call Manual to control them.
func NewHandle() *Handle {
	return &Handle{
		Emitter:  player.NewEmitter(),
		autoLoad: true,
	}
}

// Manual makes LoadMedia block until ResolveLoad is called
func (h *Handle) Manual() *Handle {
	h.mu.Lock()
	h.autoLoad = false
	h.mu.Unlock()
	return h
}

// FailLoads makes immediately resolved loads fail with err
func (h *Handle) FailLoads(err error) *Handle {
	h.mu.Lock()
	h.loadErr = err
	h.mu.Unlock()
	return h
}

func (h *Handle) record(call string) {
	h.calls = append(h.calls, call)
}

func (h *Handle) LoadMedia(ctx context.Context, info player.MediaInfo) error {
	h.mu.Lock()
	h.record("loadMedia:" + info.EntryID)
	h.loads = append(h.loads, info)
	if h.autoLoad {
		err := h.loadErr
		h.mu.Unlock()
		return err
	}
	waiter := make(chan error, 1)
	h.pending = append(h.pending, waiter)
	h.mu.Unlock()

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingLoads returns how many LoadMedia calls are waiting to be resolved
func (h *Handle) PendingLoads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// ResolveLoad completes the oldest pending LoadMedia call with err
func (h *Handle) ResolveLoad(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return fmt.Errorf("no pending load")
	}
	waiter := h.pending[0]
	h.pending = h.pending[1:]
	waiter <- err
	return nil
}

// Loads returns the media requested so far
func (h *Handle) Loads() []player.MediaInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]player.MediaInfo(nil), h.loads...)
}

// Calls returns the imperative calls made on the handle, in order
func (h *Handle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *Handle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentTime
}

func (h *Handle) SetCurrentTime(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record(fmt.Sprintf("setCurrentTime:%g", seconds))
	h.currentTime = seconds
	return nil
}

// Advance moves the playback position and emits a time update
func (h *Handle) Advance(seconds float64) {
	h.mu.Lock()
	h.currentTime = seconds
	h.mu.Unlock()
	h.Emit(player.Event{Name: player.EventTimeUpdate})
}

// ChangeState emits a state change with a raw state value
func (h *Handle) ChangeState(newState, oldState string) {
	h.Emit(player.Event{Name: player.EventPlayerStateChanged, NewState: newState, OldState: oldState})
}

func (h *Handle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("play")
	h.paused = false
	return nil
}

func (h *Handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("pause")
	h.paused = true
	return nil
}

// Paused reports whether the last play/pause call was a pause
func (h *Handle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *Handle) Muted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.muted
}

func (h *Handle) SetMuted(muted bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record(fmt.Sprintf("setMuted:%t", muted))
	h.muted = muted
	return nil
}

func (h *Handle) VideoDimensions() (player.Size, bool) {
	return player.Size{Width: 1920, Height: 1080}, true
}

func (h *Handle) PlayerDimensions() (player.Size, bool) {
	return player.Size{Width: 1280, Height: 720}, true
}

func (h *Handle) Destroy() error {
	h.mu.Lock()
	h.record("destroy")
	h.destroyed = true
	h.mu.Unlock()

	if h.manager != nil {
		h.manager.remove(h.targetID)
	}
	return nil
}

// Destroyed reports whether Destroy was called
func (h *Handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}
