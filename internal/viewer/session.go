package viewer

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("viewer session not found")

// SessionAuth holds the bearer credential a viewer session fetches with.
type SessionAuth struct {
	mu            sync.Mutex
	token         string
	invalidated   bool
	loginRequests int
}

func NewSessionAuth(token string) *SessionAuth {
	return &SessionAuth{token: token}
}

func (a *SessionAuth) Credential() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.invalidated || a.token == "" {
		return "", false
	}
	return a.token, true
}

func (a *SessionAuth) Invalidate() {
	a.mu.Lock()
	a.invalidated = true
	a.mu.Unlock()
}

func (a *SessionAuth) NavigateToLogin() {
	a.mu.Lock()
	a.loginRequests++
	a.mu.Unlock()
}

// Refresh installs a new credential after re-authentication. An empty token
// leaves the current credential untouched.
func (a *SessionAuth) Refresh(token string) {
	if token == "" {
		return
	}
	a.mu.Lock()
	if token != a.token {
		a.token = token
		a.invalidated = false
	}
	a.mu.Unlock()
}

// LoginRequests counts NavigateToLogin calls.
func (a *SessionAuth) LoginRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loginRequests
}

// LogRenderer records certified locators in the log; the browser does the drawing.
type LogRenderer struct {
	Logger *log.Logger
}

func (r LogRenderer) RenderAsset(locator string) {
	if r.Logger != nil {
		r.Logger.Printf("viewer: render asset url=%s", locator)
	}
}

// Session is one viewer bound to a browser tab.
type Session struct {
	ID         string
	Controller *Controller
	Auth       *SessionAuth

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Registry owns the live viewer sessions of the HTTP surface.
type Registry struct {
	base     context.Context
	fetcher  Fetcher
	renderer Renderer
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions outlive individual requests
// but stop when base is cancelled.
func NewRegistry(base context.Context, fetcher Fetcher, renderer Renderer, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry{
		base:     base,
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session and starts loading productID with token.
func (r *Registry) Open(token string, productID int64) *Session {
	auth := NewSessionAuth(token)
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: NewController(r.fetcher, auth, r.renderer, r.logger),
		Auth:       auth,
	}
	sess.touch(r.now())

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	r.logger.Printf("viewer registry: open session=%s product_id=%d", sess.ID, productID)
	sess.Controller.Start(r.base, productID)
	return sess
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(r.now())
	return sess, nil
}

// SwitchProduct supersedes the session's current fetch with productID.
func (r *Registry) SwitchProduct(id string, productID int64) (*Session, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	sess.Controller.Start(r.base, productID)
	return sess, nil
}

// Retry restarts the session's current product.
func (r *Registry) Retry(id string) (*Session, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Controller.Retry(r.base); err != nil {
		return nil, err
	}
	return sess, nil
}

// Close ends and forgets the session.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Controller.Close()
	r.logger.Printf("viewer registry: closed session=%s", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions unused for longer than idle and returns how many.
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.now()
	var stale []string
	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.idleSince(now) > idle {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		_ = r.Close(id)
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Printf("viewer registry: swept %d idle sessions", n)
			}
		}
	}
}
