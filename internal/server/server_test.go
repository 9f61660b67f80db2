package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/foodwheel/internal/config"
	"github.com/dukerupert/foodwheel/internal/model"
	"github.com/dukerupert/foodwheel/internal/store"
)

func setupServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	return setupServerWith(t, nil)
}

func setupServerWith(t *testing.T, adjust func(*config.Config)) (*Server, http.Handler) {
	t.Helper()
	b, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	docs := store.NewDocuments(b)

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>wheel</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	cfg := config.Config{
		AllowedOrigins:  []string{"https://promo.example"},
		AdminPassword:   "secret",
		RateLimitWindow: time.Minute,
		RateLimitMax:    2,
		StaticDir:       static,
	}
	if adjust != nil {
		adjust(&cfg)
	}
	srv, err := New(cfg, docs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx := context.Background()
	if err := srv.PrizeStore().Seed(ctx); err != nil {
		t.Fatalf("seed prizes: %v", err)
	}
	if err := srv.CodeStore().Seed(ctx); err != nil {
		t.Fatalf("seed codes: %v", err)
	}
	return srv, srv.Router()
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "203.0.113.5:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := setupServer(t)

	rec := serve(h, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestPublicFoodsSeeded(t *testing.T) {
	_, h := setupServer(t)

	rec := serve(h, "GET", "/api/foods", "", nil)
	var foods []model.Prize
	if err := json.Unmarshal(rec.Body.Bytes(), &foods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(foods) != len(store.DefaultPrizes()) {
		t.Errorf("foods = %d, want %d", len(foods), len(store.DefaultPrizes()))
	}
}

func TestAdminRequiresPassword(t *testing.T) {
	_, h := setupServer(t)

	rec := serve(h, "GET", "/api/admin/codes", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = serve(h, "GET", "/api/admin/codes", "", map[string]string{"X-Admin-Password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong header: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = serve(h, "GET", "/api/admin/codes", "", map[string]string{"X-Admin-Password": "secret"})
	if rec.Code != http.StatusOK {
		t.Errorf("correct header: status = %d, want %d", rec.Code, http.StatusOK)
	}

	// The login endpoint takes the password in the body instead.
	rec = serve(h, "POST", "/api/admin/auth", `{"password":"secret"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("auth: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = serve(h, "GET", "/api/admin/ws", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ws without password: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGenerateAndSpinThroughRouter(t *testing.T) {
	_, h := setupServer(t)
	admin := map[string]string{"X-Admin-Password": "secret"}

	rec := serve(h, "POST", "/api/admin/codes/generate", `{"name":"Lobby"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status = %d", rec.Code)
	}
	var gen struct {
		Code model.RedemptionCode `json:"code"`
	}
	json.Unmarshal(rec.Body.Bytes(), &gen)

	rec = serve(h, "GET", "/api/validate-code/"+gen.Code.Code, "", nil)
	if !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Errorf("validate: body = %q", rec.Body.String())
	}

	rec = serve(h, "POST", "/api/spin", `{"code":"`+gen.Code.Code+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("spin: status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("RateLimit-Limit") != "2" {
		t.Errorf("RateLimit-Limit = %q, want 2", rec.Header().Get("RateLimit-Limit"))
	}

	rec = serve(h, "DELETE", "/api/admin/codes/"+gen.Code.Code, "", admin)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: status = %d", rec.Code)
	}
	rec = serve(h, "DELETE", "/api/admin/codes/"+gen.Code.Code, "", admin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSpinRateLimited(t *testing.T) {
	_, h := setupServer(t)

	for i := 0; i < 2; i++ {
		rec := serve(h, "POST", "/api/spin", `{"code":"zzzzzzzzzzzz"}`, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusNotFound)
		}
	}

	rec := serve(h, "POST", "/api/spin", `{"code":"zzzzzzzzzzzz"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// Validation is not rate limited.
	rec = serve(h, "GET", "/api/validate-code/zzzzzzzzzzzz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("validate: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCORS(t *testing.T) {
	_, h := setupServer(t)

	rec := serve(h, "GET", "/api/foods", "", map[string]string{"Origin": "https://promo.example"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://promo.example" {
		t.Errorf("allowed origin header = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = serve(h, "GET", "/api/foods", "", map[string]string{"Origin": "https://evil.example"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unexpected origin header = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestStaticFiles(t *testing.T) {
	_, h := setupServer(t)

	rec := serve(h, "GET", "/", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "wheel") {
		t.Errorf("index: status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRateLimiters(t *testing.T) {
	srv, _ := setupServer(t)
	if got := len(srv.RateLimiters()); got != 2 {
		t.Errorf("rate limiters = %d, want 2", got)
	}
}

func TestSpinRateLimitIgnoresForwardedFor(t *testing.T) {
	_, h := setupServer(t)

	limited := 0
	for i := 0; i < 10; i++ {
		rec := serve(h, "POST", "/api/spin", `{"code":"zzzzzzzzzzzz"}`,
			map[string]string{"X-Forwarded-For": "10.0.0." + strconv.Itoa(i)})
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 8 {
		t.Errorf("limited requests = %d, want 8", limited)
	}
}

func TestSpinRateLimitTrustedProxy(t *testing.T) {
	_, h := setupServerWith(t, func(c *config.Config) { c.TrustProxy = true })

	// Behind a trusted proxy each forwarded client has its own budget.
	for i := 0; i < 4; i++ {
		rec := serve(h, "POST", "/api/spin", `{"code":"zzzzzzzzzzzz"}`,
			map[string]string{"X-Forwarded-For": "10.0.0." + strconv.Itoa(i)})
		if rec.Code != http.StatusNotFound {
			t.Errorf("client %d: status = %d, want %d", i, rec.Code, http.StatusNotFound)
		}
	}
}

func TestSpinRecordsPeerAddress(t *testing.T) {
	srv, h := setupServer(t)
	ctx := context.Background()

	code, err := srv.CodeStore().Create(ctx, "", 1)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	rec := serve(h, "POST", "/api/spin", `{"code":"`+code.Code+`"}`,
		map[string]string{"X-Forwarded-For": "10.9.9.9"})
	if rec.Code != http.StatusOK {
		t.Fatalf("spin: status = %d: %s", rec.Code, rec.Body.String())
	}

	got, _ := srv.CodeStore().Get(ctx, code.Code)
	if got == nil || len(got.Spins) != 1 {
		t.Fatalf("code after spin = %+v", got)
	}
	if got.Spins[0].IPAddress != "203.0.113.5" {
		t.Errorf("ipAddress = %q, want %q", got.Spins[0].IPAddress, "203.0.113.5")
	}
}
