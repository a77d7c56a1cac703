package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-movie-catalog/internal/auth"
	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   50,
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Auth:        config.AuthConfig{BcryptCost: 4},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m, err := auth.NewManager("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:       newTestDB(t),
		Sessions: auth.NewSessions(m, "sid", false),
	}, cfg)
	return r
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// Swagger is off unless enabled.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("listed origins should allow credentials, got %q", got)
	}

	// API is mounted under the configured base path.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/users", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v2/users = %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode swagger doc: %v", err)
	}
	if doc.BasePath != "/api/v1" {
		t.Fatalf("basePath = %q", doc.BasePath)
	}
	if _, ok := doc.Paths["/catalog/add"]; !ok {
		t.Fatalf("swagger doc misses /catalog/add")
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/movies/new-releases", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("new releases = %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}
}

func TestRegisterRoutes_RateLimitExemptsHealth(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, cfg)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("health #%d = %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first api call = %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second api call expected 429, got %d", w.Code)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func send(t *testing.T, r *gin.Engine, method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Code == http.StatusOK && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

// A full session through the real stack: register, log in, catalog a movie,
// then move a second one from the wish list into the catalog.
func TestRegisterRoutes_EndToEnd(t *testing.T) {
	r := newRouter(t, testConfig())

	_, env := send(t, r, http.MethodPost, "/api/v1/catalog/add", map[string]any{"tmdb_id": 550, "title": "Fight Club"}, nil)
	if env.Success || env.Code != "not_logged_in" {
		t.Fatalf("anonymous add: %+v", env)
	}

	_, env = send(t, r, http.MethodPost, "/api/v1/users/register", map[string]any{
		"username": "cinephile", "password": "Sup3r$ecret", "email_address": "c@example.com",
		"first_name": "Ada", "last_name": "Lovelace",
	}, nil)
	if !env.Success {
		t.Fatalf("register: %+v", env)
	}

	w, env := send(t, r, http.MethodPost, "/api/v1/users/login", map[string]any{"username": "cinephile", "password": "Sup3r$ecret"}, nil)
	if !env.Success {
		t.Fatalf("login: %+v", env)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != "sid" {
		t.Fatalf("login did not set the session cookie: %v", cookies)
	}

	_, env = send(t, r, http.MethodPost, "/api/v1/catalog/add", map[string]any{
		"tmdb_id": 550, "title": "Fight Club", "poster": "/fc.jpg", "release_date": "1999-10-15",
	}, cookies)
	if !env.Success {
		t.Fatalf("catalog add: %+v", env)
	}

	_, env = send(t, r, http.MethodPost, "/api/v1/wish-list/add", map[string]any{
		"tmdb_id": 603, "title": "The Matrix", "poster": "/m.jpg", "release_date": "1999-03-31",
	}, cookies)
	if !env.Success {
		t.Fatalf("wish-list add: %+v", env)
	}
	_, env = send(t, r, http.MethodPost, "/api/v1/catalog/add", map[string]any{
		"tmdb_id": 603, "title": "The Matrix", "poster": "/m.jpg", "release_date": "1999-03-31", "copies": 2,
	}, cookies)
	if !env.Success {
		t.Fatalf("promote to catalog: %+v", env)
	}

	w, env = send(t, r, http.MethodGet, "/api/v1/catalog", nil, cookies)
	if !env.Success {
		t.Fatalf("catalog: %+v", env)
	}
	var cat struct {
		Movies []json.RawMessage `json:"movies"`
	}
	if err := json.Unmarshal(env.Data, &cat); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(cat.Movies) != 2 {
		t.Fatalf("catalog size = %d, want 2", len(cat.Movies))
	}
	if w.Header().Get("ETag") == "" {
		t.Fatalf("catalog response carries no ETag")
	}

	_, env = send(t, r, http.MethodGet, "/api/v1/wish-list", nil, cookies)
	var wl struct {
		Movies []json.RawMessage `json:"movies"`
	}
	_ = json.Unmarshal(env.Data, &wl)
	if !env.Success || len(wl.Movies) != 0 {
		t.Fatalf("wish list should be empty after promotion: %+v", env)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Smoke test that a request traverses the otel + ratelimit + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r := newRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.URL.Scheme = "https"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

// Access logs carry the request id and the session user; envelope codes reach
// /metrics; session-bound bodies are marked private.
func TestRegisterRoutes_AccessLogsOutcomesAndCaching(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	r := newRouter(t, testConfig())

	_, env := send(t, r, http.MethodPut, "/api/v1/users/update", map[string]any{"first_name": "X"}, nil)
	if env.Code != "not_logged_in" {
		t.Fatalf("anonymous update: %+v", env)
	}

	send(t, r, http.MethodPost, "/api/v1/users/register", map[string]any{
		"username": "logwatcher", "password": "Sup3r$ecret", "email_address": "lw@example.com",
		"first_name": "Log", "last_name": "Watcher",
	}, nil)
	w, env := send(t, r, http.MethodPost, "/api/v1/users/login", map[string]any{"username": "logwatcher", "password": "Sup3r$ecret"}, nil)
	if !env.Success {
		t.Fatalf("login: %+v", env)
	}
	cookies := w.Result().Cookies()

	buf.Reset()
	w, env = send(t, r, http.MethodGet, "/api/v1/catalog", nil, cookies)
	if !env.Success {
		t.Fatalf("catalog: %+v", env)
	}
	if got := w.Header().Get("Cache-Control"); got != "private, no-cache" {
		t.Fatalf("Cache-Control = %q", got)
	}

	var access map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		m := map[string]any{}
		if json.Unmarshal([]byte(line), &m) == nil && m["message"] == "http_request" {
			access = m
		}
	}
	if access == nil {
		t.Fatalf("no access log: %s", buf.String())
	}
	if access["request_id"] != w.Header().Get("X-Request-ID") || access["user_id"] == nil || access["user_id"] == "" {
		t.Fatalf("access log missing request/user: %v", access)
	}
	if access["path"] != "/api/v1/catalog" {
		t.Fatalf("access log path = %v", access["path"])
	}
	if strings.Contains(buf.String(), cookies[0].Value) {
		t.Fatalf("session cookie leaked into logs")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `moviecatalog_api_outcomes_total{code="not_logged_in",path="/api/v1/users/update"}`) {
		t.Fatalf("outcome metric missing")
	}
}
