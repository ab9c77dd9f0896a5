package provider

import (
	"sync"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/consumer"
	"github.com/PizzaHomicide/embedplayer/internal/lifecycle"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/registry"
	"github.com/PizzaHomicide/embedplayer/internal/stream"
)

// Deps are the process wide collaborators of a provider
type Deps struct {
	Loader  *bundle.Loader
	Manager player.Manager
	// Registry is created from Manager when nil
	Registry *registry.Registry
}

// Provider loads one bundle and shares its status, the registry and the player runtime with every player and
// consumer created from it.
type Provider struct {
	cfg      bundle.Config
	loader   *bundle.Loader
	manager  player.Manager
	registry *registry.Registry
	status   *stream.Behavior[bundle.Result]

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  func()
	players []*lifecycle.Controller
}

// New creates a provider for cfg.  The bundle is not requested until Start.
func New(cfg bundle.Config, deps Deps) *Provider {
	reg := deps.Registry
	if reg == nil {
		reg = registry.New(deps.Manager)
	}
	return &Provider{
		cfg:      cfg,
		loader:   deps.Loader,
		manager:  deps.Manager,
		registry: reg,
		status:   stream.NewBehavior(bundle.Result{Status: bundle.StatusInitial}),
	}
}

// Start requests the bundle.  The status moves to Loading, then to the loader's outcome.
func (p *Provider) Start() {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	log.Info("Starting player provider", "partner_id", p.cfg.PartnerID, "ui_conf_id", p.cfg.UIConfID)
	if err := p.cfg.Validate(); err == nil {
		p.status.Next(bundle.Result{Status: bundle.StatusLoading})
	}

	res, cancel := p.loader.Request(p.cfg, p.settle)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		return
	}
	p.cancel = cancel
	p.mu.Unlock()

	if res.Status != bundle.StatusLoading {
		p.settle(res)
	}
}

func (p *Provider) settle(res bundle.Result) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	if res.Err != nil {
		log.Error("Player bundle unavailable", "status", res.Status.String(), "error", res.Err)
	} else {
		log.Info("Player bundle ready", "status", res.Status.String())
	}
	p.status.Next(res)
}

// Status returns the current bundle status
func (p *Provider) Status() bundle.Result {
	return p.status.Value()
}

// StatusStream emits the current bundle status to new subscribers and every change afterwards
func (p *Provider) StatusStream() stream.Stream[bundle.Result] {
	return p.status.AsStream()
}

// BundleConfig returns the bundle configuration the provider was created with
func (p *Provider) BundleConfig() bundle.Config {
	return p.cfg
}

func (p *Provider) Registry() *registry.Registry {
	return p.registry
}

// NewPlayer creates and mounts a player controller.  Its player is created once the bundle is loaded.
func (p *Provider) NewPlayer(opts lifecycle.Options) *lifecycle.Controller {
	c := lifecycle.New(lifecycle.Deps{
		Status:   p.status.AsStream(),
		Bundle:   p.cfg,
		Registry: p.registry,
		Manager:  p.manager,
	}, opts)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Warn("Player requested from a closed provider", "player_id", c.ID())
		c.Unmount()
		return c
	}
	p.players = append(p.players, c)
	p.mu.Unlock()

	c.Mount()
	return c
}

// Player returns a command facade for the player with id
func (p *Provider) Player(id string) *consumer.Player {
	return consumer.NewPlayer(p.registry, id)
}

// Updates returns a facade following the streams of the player with id
func (p *Provider) Updates(id string) *consumer.Updates {
	u := consumer.NewUpdates(p.registry)
	u.SetPlayerID(id)
	return u
}

// Close unmounts every player created by the provider and drops a pending bundle notification
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	cancel := p.cancel
	players := p.players
	p.players = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, c := range players {
		c.Unmount()
	}
	p.status.Complete()
	log.Info("Player provider closed", "players", len(players))
}
