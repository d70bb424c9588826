// Package viewer owns the state a product viewer observes while a model is
// acquired, certified, and either rendered or replaced by its 2D preview.
package viewer

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"modelgallery/internal/acquire"
)

// ErrNotStarted is returned by Retry before any session was started.
var ErrNotStarted = errors.New("viewer session not started")

// Auth is the authentication collaborator.
type Auth interface {
	Credential() (string, bool)
	Invalidate()
	NavigateToLogin()
}

// Renderer displays a certified model locator.
type Renderer interface {
	RenderAsset(locator string)
}

// Fetcher acquires a product record; see acquire.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, id int64, credential string) acquire.Result
}

// Controller drives one viewer. Each Start opens a new generation; results
// from older generations are dropped without touching state.
type Controller struct {
	fetcher  Fetcher
	auth     Auth
	renderer Renderer
	logger   *log.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	started    bool
	cancel     context.CancelFunc
	done       chan struct{}
	redirected uint64
}

func NewController(fetcher Fetcher, auth Auth, renderer Renderer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	done := make(chan struct{})
	close(done)
	return &Controller{
		fetcher:  fetcher,
		auth:     auth,
		renderer: renderer,
		logger:   logger,
		done:     done,
	}
}

// Start begins a session for productID, superseding any session in flight.
// Without a credential the controller stays Idle and routes to login instead
// of fetching. It returns the new session generation.
func (c *Controller) Start(ctx context.Context, productID int64) uint64 {
	c.mu.Lock()
	gen := c.supersedeLocked()
	c.started = true

	cred, ok := c.auth.Credential()
	if !ok || cred == "" {
		c.state = State{Phase: Idle, ProductID: productID, LoginRequired: true, Generation: gen}
		redirect := c.markRedirectLocked(gen)
		c.mu.Unlock()
		if redirect {
			c.logger.Printf("viewer: product_id=%d no credential, routing to login", productID)
			c.auth.NavigateToLogin()
		}
		return gen
	}

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.state = State{Phase: Loading, ProductID: productID, Loading: true, Generation: gen}
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		res := c.fetcher.Fetch(sctx, productID, cred)
		c.apply(gen, res)
	}()
	return gen
}

// Retry re-enters Loading for the current product with lastError cleared.
func (c *Controller) Retry(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	started, id := c.started, c.state.ProductID
	c.mu.Unlock()
	if !started {
		return 0, ErrNotStarted
	}
	return c.Start(ctx, id), nil
}

// Close ends the session; any in-flight result is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.supersedeLocked()
	c.mu.Unlock()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Wait blocks until the newest session settles or ctx is done.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		gen, done := c.gen, c.done
		c.mu.Unlock()

		select {
		case <-done:
			c.mu.Lock()
			if c.gen == gen {
				s := c.state.clone()
				c.mu.Unlock()
				return s, nil
			}
			c.mu.Unlock()
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
}

func (c *Controller) apply(gen uint64, res acquire.Result) {
	c.mu.Lock()
	if gen != c.gen || res.Outcome == acquire.Cancelled {
		c.mu.Unlock()
		c.logger.Printf("viewer: discarding stale result generation=%d outcome=%s", gen, res.Outcome)
		return
	}

	rec := res.Record
	next := State{
		ProductID:  c.state.ProductID,
		Record:     &rec,
		Outcome:    res.Outcome.String(),
		Generation: gen,
	}
	var (
		redirect bool
		render   string
	)
	switch res.Outcome {
	case acquire.AuthExpired:
		next.Phase = Idle
		next.Record = nil
		next.LoginRequired = true
		redirect = c.markRedirectLocked(gen)
	case acquire.Certified:
		next.Phase = Ready
		next.AssetReady = true
		render = rec.ModelURL
	default:
		next.Phase = Degraded
		if msg := res.Message(); msg != "" {
			next.LastError = &msg
		}
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Printf("viewer: product_id=%d generation=%d phase=%s outcome=%s", next.ProductID, gen, next.Phase, res.Outcome)
	if redirect {
		c.auth.Invalidate()
		c.auth.NavigateToLogin()
	}
	if render != "" && c.renderer != nil {
		c.renderer.RenderAsset(render)
	}
}

// supersedeLocked invalidates the current generation and starts a new one.
func (c *Controller) supersedeLocked() uint64 {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	done := make(chan struct{})
	close(done)
	c.done = done
	return c.gen
}

// markRedirectLocked reports whether gen has not redirected to login yet.
func (c *Controller) markRedirectLocked(gen uint64) bool {
	if c.redirected == gen {
		return false
	}
	c.redirected = gen
	return true
}
