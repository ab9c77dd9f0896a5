package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/samber/lo"
)

// ErrPlayerDestroyed is returned by handle operations after Destroy
var ErrPlayerDestroyed = errors.New("player destroyed")

// MPVManager implements Manager by running one MPV process per player
type MPVManager struct {
	path       string
	args       []string
	serviceURL string

	mu      sync.RWMutex
	players map[string]*MPVHandle
}

// NewMPVManager creates a manager using the player settings of cfg
func NewMPVManager(cfg *config.Config) *MPVManager {
	mpvPath := cfg.Player.Path
	if mpvPath == "" {
		mpvPath = "mpv"
	}
	return &MPVManager{
		path:       mpvPath,
		args:       ParseArgs(cfg.Player.Args),
		serviceURL: cfg.MediaServiceURL(),
		players:    make(map[string]*MPVHandle),
	}
}

// Setup starts an idle MPV process for the player and connects to its IPC socket
func (m *MPVManager) Setup(cfg SetupConfig) (Handle, error) {
	if cfg.TargetID == "" {
		return nil, fmt.Errorf("setup config has no target id")
	}
	if cfg.Provider.PartnerID == "" {
		return nil, fmt.Errorf("setup config has no partner id")
	}

	m.mu.RLock()
	_, exists := m.players[cfg.TargetID]
	m.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("a player with target id %q already exists", cfg.TargetID)
	}

	mpvPath, err := exec.LookPath(m.path)
	if err != nil {
		return nil, fmt.Errorf("mpv not available: %w", err)
	}

	h := newMPVHandle(m, cfg)
	if err := h.start(mpvPath, m.args); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.players[cfg.TargetID] = h
	m.mu.Unlock()

	log.Info("MPV player created", "target_id", cfg.TargetID, "socket", h.socketPath)
	return h, nil
}

// Players returns the live MPV players keyed by target id
func (m *MPVManager) Players() map[string]Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.MapValues(m.players, func(h *MPVHandle, _ string) Handle { return h })
}

func (m *MPVManager) remove(id string) {
	m.mu.Lock()
	delete(m.players, id)
	m.mu.Unlock()
}

// MPVHandle is one MPV process controlled over IPC
type MPVHandle struct {
	*Emitter

	manager    *MPVManager
	cfg        SetupConfig
	socketPath string
	ipc        *MPVIPCClient
	cmd        *exec.Cmd

	mu         sync.Mutex
	state      *mpvState
	loadWaiter chan error

	done        chan struct{}
	exited      chan struct{}
	destroyOnce sync.Once
}

func newMPVHandle(m *MPVManager, cfg SetupConfig) *MPVHandle {
	socketPath := NewMPVSocketPath()
	return &MPVHandle{
		Emitter:    NewEmitter(),
		manager:    m,
		cfg:        cfg.Clone(),
		socketPath: socketPath,
		ipc:        NewMPVIPCClient(socketPath),
		state:      newMPVState(cfg.Playback.Autoplay),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
}

// mpvArgs builds the MPV command line.  Options from the setup config go last so they win over the defaults.
func (h *MPVHandle) mpvArgs(extra []string) []string {
	args := []string{
		"--no-terminal",
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--input-ipc-server=" + h.socketPath,
		"--title=" + h.cfg.TargetID,
	}
	if !h.cfg.Playback.Autoplay {
		args = append(args, "--pause")
	}
	args = append(args, extra...)

	keys := make([]string, 0, len(h.cfg.Options))
	for k := range h.cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--"+k+"="+h.cfg.Options[k])
	}
	return args
}

func (h *MPVHandle) start(mpvPath string, extra []string) error {
	cmd := exec.Command(mpvPath, h.mpvArgs(extra)...)
	setupPlayerProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start MPV: %w", err)
	}
	h.cmd = cmd

	go func() {
		err := cmd.Wait()
		log.Debug("MPV process exited", "target_id", h.cfg.TargetID, "error", err)
		close(h.exited)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.ipc.WaitForConnection(ctx, 20, 250*time.Millisecond); err != nil {
		h.kill()
		return fmt.Errorf("failed to connect to MPV: %w", err)
	}

	for i, name := range observedMPVProperties {
		if err := h.ipc.ObserveProperty(i+1, name); err != nil {
			log.Warn("Failed to observe MPV property", "property", name, "error", err)
		}
	}

	go h.monitor()
	return nil
}

// monitor turns MPV events into player events until the connection closes
func (h *MPVHandle) monitor() {
	for ev := range h.ipc.Events() {
		h.mu.Lock()
		events := h.state.apply(ev)
		h.mu.Unlock()

		switch ev.Event {
		case "file-loaded":
			h.resolveLoad(nil)
		case "end-file":
			if ev.Reason == "error" {
				h.resolveLoad(fmt.Errorf("mpv failed to load media: %s", ev.FileError))
			}
		}

		for _, e := range events {
			h.Emit(e)
		}
	}

	h.resolveLoad(fmt.Errorf("mpv connection closed"))
}

func (h *MPVHandle) resolveLoad(err error) {
	h.mu.Lock()
	waiter := h.loadWaiter
	h.loadWaiter = nil
	h.mu.Unlock()

	if waiter != nil {
		waiter <- err
	}
}

// LoadMedia replaces the current file with the entry and waits until MPV reports it loaded
func (h *MPVHandle) LoadMedia(ctx context.Context, info MediaInfo) error {
	if info.KS == "" {
		info.KS = h.cfg.Provider.KS
	}
	mediaURL, err := MediaURL(h.manager.serviceURL, h.cfg.Provider.PartnerID, info)
	if err != nil {
		return err
	}

	waiter := make(chan error, 1)
	h.mu.Lock()
	if h.isDestroyed() {
		h.mu.Unlock()
		return ErrPlayerDestroyed
	}
	previous := h.loadWaiter
	h.loadWaiter = waiter
	h.mu.Unlock()

	if previous != nil {
		previous <- fmt.Errorf("superseded by a newer load")
	}

	log.Debug("Loading media into MPV", "target_id", h.cfg.TargetID, "entry_id", info.EntryID, "url", mediaURL)
	if err := h.ipc.SendCommand("loadfile", mediaURL, "replace"); err != nil {
		h.clearWaiter(waiter)
		return err
	}

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		h.clearWaiter(waiter)
		return ctx.Err()
	case <-h.done:
		return ErrPlayerDestroyed
	}
}

func (h *MPVHandle) clearWaiter(waiter chan error) {
	h.mu.Lock()
	if h.loadWaiter == waiter {
		h.loadWaiter = nil
	}
	h.mu.Unlock()
}

// CurrentTime returns the last reported playback position in seconds
func (h *MPVHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.timePos
}

// SetCurrentTime seeks to the given position in seconds
func (h *MPVHandle) SetCurrentTime(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	if err := h.ipc.SetProperty("time-pos", seconds); err != nil {
		return err
	}
	h.mu.Lock()
	h.state.timePos = seconds
	h.mu.Unlock()
	return nil
}

func (h *MPVHandle) Play() error {
	return h.ipc.SetProperty("pause", false)
}

func (h *MPVHandle) Pause() error {
	return h.ipc.SetProperty("pause", true)
}

// Muted reports the last known mute state
func (h *MPVHandle) Muted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.muted
}

func (h *MPVHandle) SetMuted(muted bool) error {
	return h.ipc.SetProperty("mute", muted)
}

// VideoDimensions returns the native size of the current video
func (h *MPVHandle) VideoDimensions() (Size, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.state.video
	return Size{Width: v.W, Height: v.H}, v.W > 0 && v.H > 0
}

// PlayerDimensions returns the size of the MPV window
func (h *MPVHandle) PlayerDimensions() (Size, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	osd := h.state.osd
	return Size{Width: osd.W, Height: osd.H}, osd.W > 0 && osd.H > 0
}

// Destroy asks MPV to quit, kills it if it does not, and removes the player from its manager.  Calling it more
// than once is safe.
func (h *MPVHandle) Destroy() error {
	var err error
	h.destroyOnce.Do(func() {
		close(h.done)
		h.manager.remove(h.cfg.TargetID)

		if quitErr := h.ipc.SendCommand("quit"); quitErr != nil {
			log.Debug("MPV quit command failed, killing process", "target_id", h.cfg.TargetID, "error", quitErr)
		}

		select {
		case <-h.exited:
		case <-time.After(2 * time.Second):
			err = h.kill()
		}

		_ = h.ipc.Close()
		if _, statErr := os.Stat(h.socketPath); statErr == nil {
			if rmErr := os.Remove(h.socketPath); rmErr != nil {
				log.Warn("Failed to remove MPV socket file", "path", h.socketPath, "error", rmErr)
			}
		}
		log.Info("MPV player destroyed", "target_id", h.cfg.TargetID)
	})
	return err
}

func (h *MPVHandle) isDestroyed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *MPVHandle) kill() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill MPV: %w", err)
	}
	return nil
}
