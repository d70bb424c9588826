package httpserver

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestValidateAsset(t *testing.T) {
	env := newTestEnv(t)
	good := "https://assets.test/models/lamp.glb"
	env.assets.valid[good] = true

	rec := env.do(http.MethodGet, "/api/assets/validate?url="+url.QueryEscape(good), "good-token", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/assets/validate?url="+url.QueryEscape("https://assets.test/models/x.obj"), "good-token", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"valid":false`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	expectStatus(t, env.do(http.MethodGet, "/api/assets/validate", "good-token", ""), http.StatusBadRequest)
}

func TestValidateAsset_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	internal := "http://127.0.0.1:9000/admin/x.glb"
	env.assets.valid[internal] = true

	for _, token := range []string{"", "stale-token"} {
		rec := env.do(http.MethodGet, "/api/assets/validate?url="+url.QueryEscape(internal), token, "")
		expectStatus(t, rec, http.StatusUnauthorized)
	}
	if len(env.assets.calls) != 0 {
		t.Fatalf("validator must not run for unauthenticated callers, got %v", env.assets.calls)
	}
}
