package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/taskauth/internal/config"
	"github.com/hitoshi/taskauth/internal/database"
	"github.com/prometheus/client_golang/prometheus"
)

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.DatabaseURL != testDatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, testDatabaseURL)
	}
	if cfg.JWTSecret != "test-jwt-secret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "test-jwt-secret")
	}

	// Verify that slog global logger is configured for JSON output
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_WithMissingConfig_ReturnsError(t *testing.T) {
	clearTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}

// newTestAppRouter はDBへ接続しない状態で本番と同じワイヤリングのルーターを返す。
func newTestAppRouter(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()

	db, err := database.Open(unreachableDatabaseURL)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		DatabaseURL:        unreachableDatabaseURL,
		JWTSecret:          "test-jwt-secret",
		TokenExpiry:        time.Hour,
		TokenSweepInterval: time.Minute,
		ServerPort:         "5000",
		CORSAllowedOrigin:  "*",
	}

	reg := prometheus.NewRegistry()
	return newRouter(cfg, db, reg), reg
}

func TestNewRouter_ProtectedRouteRequiresToken(t *testing.T) {
	router, _ := newTestAppRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "NO_TOKEN") {
		t.Errorf("body = %s, want NO_TOKEN", rec.Body.String())
	}
}

func TestNewRouter_MalformedLoginBodyIsRejectedBeforeDB(t *testing.T) {
	router, _ := newTestAppRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestNewRouter_MetricsExposeCollector(t *testing.T) {
	router, _ := newTestAppRouter(t)

	// 認証失敗を1件発生させてからメトリクスを取得する
	unauth := httptest.NewRecorder()
	router.ServeHTTP(unauth, httptest.NewRequest(http.MethodGet, "/api/task/list", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "taskauth_auth_failures_total") {
		t.Errorf("metrics output should contain taskauth_auth_failures_total:\n%s", rec.Body.String())
	}
}

func TestNewRouter_HealthReportsUnavailableWithoutDB(t *testing.T) {
	router, _ := newTestAppRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "パスワードを伏せる",
			raw:  "postgres://app:secret@db:5432/taskauth?sslmode=disable",
			want: "postgres://app:xxxxx@db:5432/taskauth?sslmode=disable",
		},
		{
			name: "パスワードなしはそのまま",
			raw:  "postgres://app@db:5432/taskauth",
			want: "postgres://app@db:5432/taskauth",
		},
		{
			name: "URLでない文字列は全体を伏せる",
			raw:  "host=db user=app password=secret",
			want: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskDatabaseURL(tt.raw)
			if got != tt.want {
				t.Errorf("maskDatabaseURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if strings.Contains(got, "secret") {
				t.Errorf("masked URL leaks password: %q", got)
			}
		})
	}
}
