package inbound

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/goroutine"
	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/pkg/uid"
	"github.com/watarui/wauth/internal/vault/outbound/store"
	"github.com/watarui/wauth/internal/vault/usecase"
)

const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

type staticUUID string

func (s staticUUID) Generate() string { return string(s) }

type server struct {
	handler http.Handler
	mr      *miniredis.Miniredis
	signer  *jwt.Symmetric
}

func newServer(t *testing.T, withAuth bool) *server {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg, err := config.NewViperFromBytes("yaml", []byte("vault:\n  strict_uniqueness: true\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	sf, err := uid.NewSnowflake()
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	gm := goroutine.NewManager(2)
	t.Cleanup(func() { _ = gm.Wait() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := store.NewRedis(client, "", nil)
	t.Cleanup(func() { _ = repo.Close() })

	uc := usecase.New(usecase.Dependency{
		RepoStore:  repo,
		Config:     cfg,
		Totp:       otp.NewTOTP("wauth"),
		UID:        sf,
		Clock:      clock.NewFixed(time.Unix(1111111109, 0)),
		Instrument: instrument.NewNoop(),
		Goroutine:  gm,
	})

	s := &server{mr: mr}
	rcfg := router.Config{UUID: staticUUID("cid")}
	if withAuth {
		s.signer, err = jwt.NewHS512(jwt.Config{
			Secret:    []byte(strings.Repeat("k", 64)),
			Issuer:    "wauth",
			Audiences: []string{"wauth-api"},
			TTL:       time.Hour,
			Clock:     clock.New(),
			UUID:      uid.NewUUID(),
		})
		if err != nil {
			t.Fatalf("NewHS512: %v", err)
		}
		rcfg.JWT = s.signer
	}

	r := router.NewRouter(rcfg)
	RegisterHTTPEndpoint(r, uc, idempotency.New(client, idempotency.Options{}))
	RegisterGraphQLEndpoint(r, uc)
	s.handler = r

	return s
}

func (s *server) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return s.doWithHeader(t, method, path, body, token, nil)
}

func (s *server) doWithHeader(t *testing.T, method, path, body, token string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range header {
		req.Header[k] = v
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, out
}

func TestHTTP_SiteLifecycle(t *testing.T) {
	s := newServer(t, false)

	rec, body := s.do(t, http.MethodPost, "/api/v1/sites", `{"site_name":"github","secret":"`+rfcSecret+`"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodPost, "/api/v1/sites", `{"site_name":"github","secret":"`+rfcSecret+`"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, body = %v", rec.Code, body)
	}
	if fields, _ := body["error"].(map[string]any); fields["site_name"] != "Site name 'github' already exists" {
		t.Fatalf("duplicate body = %v", body)
	}

	rec, body = s.do(t, http.MethodGet, "/api/v1/sites/github/code", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code status = %d, body = %v", rec.Code, body)
	}
	data := body["data"].(map[string]any)
	if data["code"] != "081804" || data["remaining_seconds"] != float64(1) || data["site_name"] != "github" {
		t.Fatalf("code data = %v", data)
	}

	rec, body = s.do(t, http.MethodGet, "/api/v1/sites?page=1&size=10", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if meta := body["meta"].(map[string]any); meta["total"] != float64(1) {
		t.Fatalf("list meta = %v", meta)
	}

	rec, body = s.do(t, http.MethodGet, "/api/v1/sites?page=184467440737095517&size=100", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("far page status = %d", rec.Code)
	}
	if sites, _ := body["data"].(map[string]any)["sites"].([]any); len(sites) != 0 {
		t.Fatalf("far page sites = %v, want none", sites)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/sites/github", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/sites/github", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete missing status = %d", rec.Code)
	}

	rec, body = s.do(t, http.MethodGet, "/api/v1/sites/github/code", "", "")
	if rec.Code != http.StatusNotFound || body["message"] != "No secret found for site: github" {
		t.Fatalf("missing code = %d %v", rec.Code, body)
	}
}

func TestHTTP_Errors(t *testing.T) {
	s := newServer(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		field  string
	}{
		{"bad secret", http.MethodPost, "/api/v1/sites", `{"site_name":"ok","secret":"abc"}`, http.StatusUnprocessableEntity, "secret"},
		{"bad site", http.MethodPost, "/api/v1/sites", `{"site_name":"my site","secret":"` + rfcSecret + `"}`, http.StatusUnprocessableEntity, "site_name"},
		{"unknown field", http.MethodPost, "/api/v1/sites", `{"site":"x"}`, http.StatusBadRequest, ""},
		{"bad page", http.MethodGet, "/api/v1/sites?page=x", "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, tt.method, tt.path, tt.body, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%v)", rec.Code, tt.want, body)
			}
			if tt.field != "" {
				fields, _ := body["error"].(map[string]any)
				if _, ok := fields[tt.field]; !ok {
					t.Fatalf("error fields = %v, want %s", fields, tt.field)
				}
			}
		})
	}
}

func TestHTTP_GenerateAndHealth(t *testing.T) {
	s := newServer(t, false)

	rec, body := s.do(t, http.MethodPost, "/api/v1/sites/gitlab/generate", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body = %v", rec.Code, body)
	}
	data := body["data"].(map[string]any)
	if secret, _ := data["secret"].(string); len(secret) != 32 || s.mr.HGet(store.DefaultRedisKey, "gitlab") != secret {
		t.Fatalf("generated = %v", data)
	}
	if uri, _ := data["uri"].(string); !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("uri = %v", data["uri"])
	}

	rec, _ = s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	s.mr.SetError("ERR store unavailable")
	rec, _ = s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("health with store down = %d", rec.Code)
	}
}

func TestHTTP_Scopes(t *testing.T) {
	s := newServer(t, true)

	reader, err := s.signer.Generate("ci", jwt.ScopeRead)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	writer, err := s.signer.Generate("ops")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	add := `{"site_name":"github","secret":"` + rfcSecret + `"}`

	if rec, _ := s.do(t, http.MethodGet, "/api/v1/sites", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodPost, "/api/v1/sites", add, reader); rec.Code != http.StatusForbidden {
		t.Fatalf("reader add = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodPost, "/api/v1/sites", add, writer); rec.Code != http.StatusCreated {
		t.Fatalf("writer add = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/sites/github/code", "", reader); rec.Code != http.StatusOK {
		t.Fatalf("reader code = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("public health = %d", rec.Code)
	}

	_, body := s.do(t, http.MethodPost, "/graphql", `{"query":"mutation { deleteSite(siteName: \"github\") { name } }"}`, reader)
	errs, _ := body["errors"].([]any)
	if len(errs) != 1 || errs[0].(map[string]any)["message"] != "Insufficient scope" {
		t.Fatalf("graphql reader mutation = %v", body)
	}
}

func gqlDo(t *testing.T, s *server, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	rec, body := s.do(t, http.MethodPost, "/graphql", string(payload), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("graphql status = %d (%v)", rec.Code, body)
	}
	return body
}

func TestGraphQL(t *testing.T) {
	s := newServer(t, false)

	body := gqlDo(t, s, `mutation { addSite(siteName: "github", secret: "`+rfcSecret+`") { name } }`)
	if body["data"].(map[string]any)["addSite"].(map[string]any)["name"] != "github" {
		t.Fatalf("addSite = %v", body)
	}

	body = gqlDo(t, s, `mutation { addSite(siteName: "github", secret: "`+rfcSecret+`") { name } }`)
	errs := body["errors"].([]any)
	first := errs[0].(map[string]any)
	if first["message"] != "Site name 'github' already exists" {
		t.Fatalf("duplicate addSite = %v", body)
	}
	if ext := first["extensions"].(map[string]any); ext["code"] != "ERROR_CODE_CONFLICT" {
		t.Fatalf("duplicate extensions = %v", ext)
	}

	body = gqlDo(t, s, `{ listSites { name } }`)
	sites := body["data"].(map[string]any)["listSites"].([]any)
	if len(sites) != 1 || sites[0].(map[string]any)["name"] != "github" {
		t.Fatalf("listSites = %v", body)
	}

	body = gqlDo(t, s, `{ getTotpCode(siteName: "github") { code remainingSeconds siteName } }`)
	code := body["data"].(map[string]any)["getTotpCode"].(map[string]any)
	if code["code"] != "081804" || code["remainingSeconds"] != float64(1) || code["siteName"] != "github" {
		t.Fatalf("getTotpCode = %v", body)
	}

	body = gqlDo(t, s, `{ getTotpCode(siteName: "nope") { code } }`)
	if body["data"].(map[string]any)["getTotpCode"] != nil {
		t.Fatalf("getTotpCode missing = %v", body)
	}
	if msg := body["errors"].([]any)[0].(map[string]any)["message"]; msg != "No secret found for site: nope" {
		t.Fatalf("getTotpCode missing message = %v", msg)
	}

	body = gqlDo(t, s, `mutation { addSite(siteName: "x", secret: "short") { name } }`)
	if msg := body["errors"].([]any)[0].(map[string]any)["message"]; msg != "Secret must be a valid Base32 string" {
		t.Fatalf("invalid secret message = %v", msg)
	}

	body = gqlDo(t, s, `mutation { deleteSite(siteName: "github") { name } }`)
	if body["data"].(map[string]any)["deleteSite"].(map[string]any)["name"] != "github" {
		t.Fatalf("deleteSite = %v", body)
	}
}

func TestHTTP_IdempotencyKey(t *testing.T) {
	s := newServer(t, false)
	h := http.Header{}
	h.Set(HeaderIdempotencyKey, "req-1")

	rec, body := s.doWithHeader(t, http.MethodPost, "/api/v1/sites/gitlab/generate", "", "", h)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body = %v", rec.Code, body)
	}
	secret := s.mr.HGet(store.DefaultRedisKey, "gitlab")

	rec, body = s.doWithHeader(t, http.MethodPost, "/api/v1/sites/gitlab/generate", "", "", h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("replay status = %d, body = %v", rec.Code, body)
	}
	if body["message"] != "Request with this idempotency key was already processed" {
		t.Fatalf("replay body = %v", body)
	}
	if got := s.mr.HGet(store.DefaultRedisKey, "gitlab"); got != secret {
		t.Fatalf("replay replaced the secret: %q != %q", got, secret)
	}

	// same key on another route is independent
	rec, body = s.doWithHeader(t, http.MethodPost, "/api/v1/sites", `{"site_name":"github","secret":"`+rfcSecret+`"}`, "", h)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %v", rec.Code, body)
	}

	// a failed attempt is remembered as well
	h.Set(HeaderIdempotencyKey, "req-2")
	rec, _ = s.doWithHeader(t, http.MethodPost, "/api/v1/sites", `{"site_name":"github","secret":"`+rfcSecret+`"}`, "", h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	rec, body = s.doWithHeader(t, http.MethodPost, "/api/v1/sites", `{"site_name":"github","secret":"`+rfcSecret+`"}`, "", h)
	if rec.Code != http.StatusConflict || body["message"] != "Request with this idempotency key was already processed" {
		t.Fatalf("replayed failure = %d %v", rec.Code, body)
	}
}
