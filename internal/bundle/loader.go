package bundle

import (
	"fmt"
	"sync"

	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/samber/lo"
)

// Page is the host the bundle is injected into
type Page interface {
	// HasPlayerGlobal reports whether a player runtime is already installed, in which case no injection is needed
	HasPlayerGlobal() bool

	// InjectScript starts loading the script at url and calls done exactly once with the outcome.  A returned error
	// means the injection could not be started and done will not be called.
	InjectScript(url string, done func(error)) error
}

type waiter struct {
	notify func(Result)
}

// Loader makes sure the player bundle is injected into the page at most once.  A process should own a single
// Loader, shared by every provider.
type Loader struct {
	page Page

	mu          sync.Mutex
	injectedURL string
	status      Status
	err         error
	pending     []*waiter
}

// NewLoader creates a loader injecting into page
func NewLoader(page Page) *Loader {
	return &Loader{page: page}
}

// Status returns the current load result
func (l *Loader) Status() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Result{Status: l.status, Err: l.err}
}

// InjectedURL returns the URL of the bundle being or having been injected, if any
func (l *Loader) InjectedURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.injectedURL
}

// Request asks for the bundle described by cfg and returns the current result.  When the returned status is
// Loading, notify is called once with the terminal result; cancel stops that notification.  notify is never
// called when the returned result is already terminal.
func (l *Loader) Request(cfg Config, notify func(Result)) (Result, func()) {
	noop := func() {}

	if err := cfg.Validate(); err != nil {
		log.Warn("Cannot load player bundle, did you provide a bundler url, partner id and ui conf id?", "error", err)
		return Result{Status: StatusError, Err: err}, noop
	}

	url := cfg.URL()

	l.mu.Lock()
	switch {
	case l.injectedURL == "":
		l.injectedURL = url
		l.status = StatusLoading
		l.mu.Unlock()
		return l.inject(url, notify)

	case l.injectedURL != url:
		injected := l.injectedURL
		l.mu.Unlock()
		log.Warn("Multiple player bundles with different urls are not allowed.  Was more than one provider created?",
			"requested", url, "injected", injected)
		return Result{Status: StatusError, Err: fmt.Errorf("%w: %s", ErrBundleConflict, injected)}, noop

	case l.status == StatusLoading:
		cancel := l.addWaiterLocked(notify)
		l.mu.Unlock()
		return Result{Status: StatusLoading}, cancel

	default:
		res := Result{Status: l.status, Err: l.err}
		l.mu.Unlock()
		return res, noop
	}
}

// inject performs the single injection attempt.  The terminal result may arrive before InjectScript returns, so
// the waiter is only added if the load is still in flight afterwards.
func (l *Loader) inject(url string, notify func(Result)) (Result, func()) {
	log.Info("Injecting player bundle", "url", url)

	switch {
	case l.page.HasPlayerGlobal():
		log.Debug("Player runtime already present, skipping bundle injection")
		l.finish(Result{Status: StatusLoaded})
	default:
		err := l.page.InjectScript(url, func(err error) {
			if err != nil {
				log.Warn("Failed to load player bundle script", "url", url, "error", err)
				l.finish(Result{Status: StatusError, Err: fmt.Errorf("%w: %w", ErrScriptLoad, err)})
				return
			}
			log.Info("Player bundle loaded", "url", url)
			l.finish(Result{Status: StatusLoaded})
		})
		if err != nil {
			log.Warn("Failed to inject player bundle script", "url", url, "error", err)
			l.finish(Result{Status: StatusError, Err: fmt.Errorf("%w: %w", ErrScriptLoad, err)})
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status.Terminal() {
		return Result{Status: l.status, Err: l.err}, func() {}
	}
	return Result{Status: StatusLoading}, l.addWaiterLocked(notify)
}

func (l *Loader) addWaiterLocked(notify func(Result)) func() {
	if notify == nil {
		return func() {}
	}
	w := &waiter{notify: notify}
	l.pending = append(l.pending, w)
	return func() {
		l.mu.Lock()
		l.pending = lo.Without(l.pending, w)
		l.mu.Unlock()
	}
}

// finish moves the loader into its terminal state and drains the waiters exactly once
func (l *Loader) finish(res Result) {
	l.mu.Lock()
	if l.status.Terminal() {
		l.mu.Unlock()
		return
	}
	l.status = res.Status
	l.err = res.Err
	waiters := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, w := range waiters {
		w.notify(res)
	}
}
