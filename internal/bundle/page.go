package bundle

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/PizzaHomicide/embedplayer/internal/log"
)

// HTTPPage is the process wide document the bundle is injected into.  Injecting a script fetches it; a successful
// fetch installs the player runtime.
type HTTPPage struct {
	client *http.Client

	mu        sync.Mutex
	scripts   []string
	installed bool
}

// NewHTTPPage creates a page fetching scripts with client, or http.DefaultClient when nil
func NewHTTPPage(client *http.Client) *HTTPPage {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPage{client: client}
}

func (p *HTTPPage) HasPlayerGlobal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installed
}

// Scripts returns the URLs of every script injected so far
func (p *HTTPPage) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

func (p *HTTPPage) InjectScript(url string, done func(error)) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid script url: %w", err)
	}

	p.mu.Lock()
	p.scripts = append(p.scripts, url)
	p.mu.Unlock()

	go func() {
		done(p.fetch(req))
	}()
	return nil
}

func (p *HTTPPage) fetch(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("reading script body: %w", err)
	}
	log.Debug("Fetched player bundle", "url", req.URL.String(), "bytes", n)

	p.mu.Lock()
	p.installed = true
	p.mu.Unlock()
	return nil
}
