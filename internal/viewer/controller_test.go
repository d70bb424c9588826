package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"modelgallery/internal/acquire"
	"modelgallery/internal/domain"
)

var testFallback = domain.NewFallback("https://assets.example.com")

type stubFetcher struct {
	mu      sync.Mutex
	results map[int64]acquire.Result
	gates   map[int64]chan struct{}
	calls   []int64
	creds   []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{results: map[int64]acquire.Result{}, gates: map[int64]chan struct{}{}}
}

func (f *stubFetcher) Fetch(_ context.Context, id int64, credential string) acquire.Result {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.creds = append(f.creds, credential)
	gate := f.gates[id]
	res := f.results[id]
	f.mu.Unlock()
	if gate != nil {
		// Late results ignore cancellation on purpose: the controller must drop them.
		<-gate
	}
	return res
}

func (f *stubFetcher) set(id int64, res acquire.Result) {
	f.mu.Lock()
	f.results[id] = res
	f.mu.Unlock()
}

func (f *stubFetcher) hold(id int64) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = gate
	f.mu.Unlock()
	return gate
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubAuth struct {
	mu          sync.Mutex
	token       string
	invalidated int
	navigations int
}

func (a *stubAuth) Credential() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token, a.token != ""
}

func (a *stubAuth) Invalidate() {
	a.mu.Lock()
	a.invalidated++
	a.token = ""
	a.mu.Unlock()
}

func (a *stubAuth) NavigateToLogin() {
	a.mu.Lock()
	a.navigations++
	a.mu.Unlock()
}

func (a *stubAuth) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.invalidated, a.navigations
}

type stubRenderer struct {
	mu       sync.Mutex
	rendered []string
}

func (r *stubRenderer) RenderAsset(locator string) {
	r.mu.Lock()
	r.rendered = append(r.rendered, locator)
	r.mu.Unlock()
}

func (r *stubRenderer) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.rendered...)
}

func product(id int64, name string) domain.ProductRecord {
	return domain.ProductRecord{
		ID:       id,
		Name:     name,
		Category: "Decor",
		ImageURL: "https://cdn.example.com/" + name + ".jpg",
		ModelURL: "https://cdn.example.com/" + name + ".glb",
	}
}

func certified(rec domain.ProductRecord) acquire.Result {
	return acquire.Result{Record: rec, Certified: true, Outcome: acquire.Certified}
}

func waitState(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v (state %+v)", err, s)
	}
	return s
}

func TestController_ReadyOnCertifiedRecord(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, certified(product(1, "lamp")))
	renderer := &stubRenderer{}
	c := NewController(fetcher, &stubAuth{token: "tok"}, renderer, nil)

	c.Start(context.Background(), 1)
	s := waitState(t, c)

	if s.Phase != Ready || !s.AssetReady || s.Loading || s.LastError != nil {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.Record == nil || s.Record.Name != "lamp" {
		t.Fatalf("unexpected record %+v", s.Record)
	}
	if got := renderer.list(); len(got) != 1 || got[0] != "https://cdn.example.com/lamp.glb" {
		t.Fatalf("unexpected renders %v", got)
	}
}

func TestController_LoadingWhileFetching(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, certified(product(1, "lamp")))
	gate := fetcher.hold(1)
	c := NewController(fetcher, &stubAuth{token: "tok"}, nil, nil)

	c.Start(context.Background(), 1)
	s := c.State()
	if s.Phase != Loading || !s.Loading || s.Record != nil {
		t.Fatalf("expected loading state, got %+v", s)
	}
	close(gate)
	if s := waitState(t, c); s.Phase != Ready {
		t.Fatalf("expected ready, got %+v", s)
	}
}

func TestController_DegradedOnUncertifiedOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		outcome acquire.Kind
		err     error
	}{
		{"incomplete", acquire.IncompleteData, acquire.ErrIncompleteData},
		{"certification", acquire.CertificationFailed, acquire.ErrCertificationFailed},
		{"exhausted", acquire.RetriesExhausted, acquire.ErrTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := newStubFetcher()
			rec := testFallback.WithFallbackModel(product(3, "vase"))
			fetcher.set(3, acquire.Result{Record: rec, Outcome: tc.outcome, Err: tc.err})
			renderer := &stubRenderer{}
			c := NewController(fetcher, &stubAuth{token: "tok"}, renderer, nil)

			c.Start(context.Background(), 3)
			s := waitState(t, c)

			if s.Phase != Degraded || s.AssetReady || s.Loading {
				t.Fatalf("unexpected state %+v", s)
			}
			if s.Record == nil || s.Record.Name != "vase" || s.Record.ImageURL == "" {
				t.Fatalf("metadata and preview must remain visible: %+v", s.Record)
			}
			if s.LastError == nil || *s.LastError != tc.err.Error() {
				t.Fatalf("unexpected last error %v", s.LastError)
			}
			if s.Outcome != tc.outcome.String() {
				t.Fatalf("unexpected outcome %q", s.Outcome)
			}
			if len(renderer.list()) != 0 {
				t.Fatalf("degraded state must not render the model")
			}
		})
	}
}

func TestController_NoCredentialRoutesToLogin(t *testing.T) {
	fetcher := newStubFetcher()
	auth := &stubAuth{}
	c := NewController(fetcher, auth, nil, nil)

	c.Start(context.Background(), 1)
	s := waitState(t, c)

	if s.Phase != Idle || !s.LoginRequired || s.Loading {
		t.Fatalf("unexpected state %+v", s)
	}
	if fetcher.callCount() != 0 {
		t.Fatalf("fetch must not run without a credential")
	}
	if _, nav := auth.counts(); nav != 1 {
		t.Fatalf("expected one login navigation, got %d", nav)
	}
}

func TestController_AuthExpiredInvalidatesAndRedirectsOnce(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, acquire.Result{Record: testFallback.For(1), Outcome: acquire.AuthExpired, Err: domain.ErrUnauthorized})
	fetcher.set(2, acquire.Result{Record: testFallback.For(2), Outcome: acquire.AuthExpired, Err: domain.ErrUnauthorized})
	gate := fetcher.hold(1)
	auth := &stubAuth{token: "tok"}
	c := NewController(fetcher, auth, nil, nil)

	c.Start(context.Background(), 1)
	c.Start(context.Background(), 2)
	s := waitState(t, c)
	close(gate)
	time.Sleep(20 * time.Millisecond)

	if s.Phase != Idle || !s.LoginRequired || s.Record != nil {
		t.Fatalf("unexpected state %+v", s)
	}
	inv, nav := auth.counts()
	if inv != 1 || nav != 1 {
		t.Fatalf("expected exactly one invalidate and one navigation, got %d/%d", inv, nav)
	}
	if got := c.State(); got.ProductID != 2 {
		t.Fatalf("stale session mutated state: %+v", got)
	}
}

func TestController_SupersededSessionIsDiscarded(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, certified(product(1, "a")))
	fetcher.set(2, certified(product(2, "b")))
	gateA := fetcher.hold(1)
	renderer := &stubRenderer{}
	c := NewController(fetcher, &stubAuth{token: "tok"}, renderer, nil)

	genA := c.Start(context.Background(), 1)
	genB := c.Start(context.Background(), 2)
	if genB <= genA {
		t.Fatalf("expected increasing generations, got %d then %d", genA, genB)
	}
	s := waitState(t, c)
	close(gateA)
	time.Sleep(20 * time.Millisecond)

	final := c.State()
	if s.Record.Name != "b" || final.Record == nil || final.Record.Name != "b" || final.ProductID != 2 {
		t.Fatalf("expected only B's outcome, got %+v", final)
	}
	if final.Generation != genB {
		t.Fatalf("expected generation %d, got %d", genB, final.Generation)
	}
	if got := renderer.list(); len(got) != 1 || got[0] != "https://cdn.example.com/b.glb" {
		t.Fatalf("stale session rendered: %v", got)
	}
}

func TestController_RetryReentersLoadingAndClearsError(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(4, acquire.Result{Record: testFallback.For(4), Outcome: acquire.RetriesExhausted, Err: acquire.ErrTimeout})
	c := NewController(fetcher, &stubAuth{token: "tok"}, nil, nil)

	c.Start(context.Background(), 4)
	if s := waitState(t, c); s.Phase != Degraded || s.LastError == nil {
		t.Fatalf("expected degraded with error, got %+v", s)
	}

	fetcher.set(4, certified(product(4, "stool")))
	gate := fetcher.hold(4)
	if _, err := c.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	s := c.State()
	if s.Phase != Loading || s.LastError != nil || s.ProductID != 4 {
		t.Fatalf("expected loading with cleared error, got %+v", s)
	}
	close(gate)
	if s := waitState(t, c); s.Phase != Ready || s.Record.Name != "stool" {
		t.Fatalf("expected ready after retry, got %+v", s)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("expected two fetches, got %d", fetcher.callCount())
	}
}

func TestController_RetryBeforeStart(t *testing.T) {
	c := NewController(newStubFetcher(), &stubAuth{token: "tok"}, nil, nil)
	if _, err := c.Retry(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestController_CloseDiscardsLateResult(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, certified(product(1, "lamp")))
	gate := fetcher.hold(1)
	renderer := &stubRenderer{}
	c := NewController(fetcher, &stubAuth{token: "tok"}, renderer, nil)

	c.Start(context.Background(), 1)
	c.Close()
	close(gate)
	time.Sleep(20 * time.Millisecond)

	if s := c.State(); s.Phase == Ready || s.Record != nil {
		t.Fatalf("closed session mutated: %+v", s)
	}
	if len(renderer.list()) != 0 {
		t.Fatalf("closed session rendered")
	}
}

func TestController_StateIsACopy(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.set(1, certified(product(1, "lamp")))
	c := NewController(fetcher, &stubAuth{token: "tok"}, nil, nil)
	c.Start(context.Background(), 1)
	s := waitState(t, c)

	s.Record.Name = "changed"
	if c.State().Record.Name != "lamp" {
		t.Fatalf("snapshot aliases controller state")
	}
}
