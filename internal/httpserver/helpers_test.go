package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"modelgallery/internal/acquire"
	"modelgallery/internal/domain"
	"modelgallery/internal/viewer"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCatalog struct {
	products  []domain.ProductRecord
	err       error
	lastQuery string
}

func (s *stubCatalog) List(_ context.Context, query string) ([]domain.ProductRecord, error) {
	s.lastQuery = query
	return s.products, s.err
}

func (s *stubCatalog) Get(_ context.Context, id int64) (*domain.ProductRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCategories struct {
	cats []domain.Category
	err  error
}

func (s *stubCategories) List(context.Context) ([]domain.Category, error) {
	return s.cats, s.err
}

// stubAccounts accepts exactly one token, "good-token".
type stubAccounts struct {
	user      *domain.User
	signupErr error
	loginErr  error
	logoutErr error
}

func (s *stubAccounts) Signup(_ context.Context, email, _ string, displayName string) (*domain.User, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.User{ID: "user-1", Email: email, DisplayName: displayName}, nil
}

func (s *stubAccounts) Login(_ context.Context, _ string, _ string) (*domain.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.user, "good-token", nil
}

func (s *stubAccounts) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token != "good-token" || s.user == nil {
		return nil, errors.New("invalid token")
	}
	return s.user, nil
}

func (s *stubAccounts) Logout(_ context.Context, _ string) error {
	return s.logoutErr
}

func (s *stubAccounts) AccessTTLSeconds() int {
	return 172800
}

type stubAssets struct {
	valid map[string]bool
	calls []string
}

func (s *stubAssets) Validate(_ context.Context, locator string) bool {
	s.calls = append(s.calls, locator)
	return s.valid[locator]
}

// stubFetcher answers viewer fetches from a table keyed by product id.
type stubFetcher struct {
	mu      sync.Mutex
	results map[int64]acquire.Result
	creds   []string
}

func (f *stubFetcher) Fetch(_ context.Context, id int64, credential string) acquire.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = append(f.creds, credential)
	if res, ok := f.results[id]; ok {
		return res
	}
	return acquire.Result{
		Record:  domain.NewFallback("https://assets.test").For(id),
		Outcome: acquire.RetriesExhausted,
		Err:     errors.New("connection refused"),
	}
}

func (f *stubFetcher) credentials() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.creds...)
}

func galleryRecord(id int64, name string) domain.ProductRecord {
	return domain.ProductRecord{
		ID:       id,
		Name:     name,
		Category: "Decor",
		ImageURL: "https://assets.test/images/" + name + ".jpg",
		ModelURL: "https://assets.test/models/" + name + ".glb",
	}
}

type testEnv struct {
	router     *gin.Engine
	catalog    *stubCatalog
	categories *stubCategories
	accounts   *stubAccounts
	assets     *stubAssets
	fetcher    *stubFetcher
	registry   *viewer.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		catalog: &stubCatalog{products: []domain.ProductRecord{
			galleryRecord(1, "lamp"),
			galleryRecord(2, "chair"),
		}},
		categories: &stubCategories{cats: []domain.Category{{Name: "Decor", Products: 2}}},
		accounts:   &stubAccounts{user: &domain.User{ID: "user-1", Email: "me@example.com"}},
		assets:     &stubAssets{valid: map[string]bool{}},
		fetcher:    &stubFetcher{results: map[int64]acquire.Result{}},
	}
	env.registry = viewer.NewRegistry(context.Background(), env.fetcher, nil, nil)
	router, err := buildRouter(logDiscard(), nil, Deps{
		Catalog:       env.catalog,
		Categories:    env.categories,
		Accounts:      env.accounts,
		Viewer:        env.registry,
		Assets:        env.assets,
		SettleTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}

func (e *testEnv) do(method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rec.Code, rec.Body.String())
	}
}
