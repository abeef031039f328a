package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/taskauth/internal/metrics"
	"github.com/hitoshi/taskauth/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// --- モック定義 ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*model.Principal, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, model.NewInvalidTokenError()
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// validTokenAuthenticator は "valid-token" のみを受け入れる。
func validTokenAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFn: func(ctx context.Context, token string) (*model.Principal, error) {
			if token == "valid-token" {
				return &model.Principal{UserID: "user-1", Username: "alice", Email: "a@x.com", Token: token}, nil
			}
			return nil, model.NewTokenNotFoundError()
		},
	}
}

func newTestRouterDeps() *RouterDeps {
	return &RouterDeps{
		Authenticator:     validTokenAuthenticator(),
		CORSAllowedOrigin: "*",
		Logger:            slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		HealthChecker:     &mockHealthChecker{},
		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, email, password string) (*loginResult, error) {
				return &loginResult{Token: "valid-token", User: userResponse{ID: "user-1"}}, nil
			},
		},
		UserService: &mockUserService{
			getFn: func(ctx context.Context, userID string) (*userResponse, error) {
				return &userResponse{ID: userID, Username: "alice", Email: "a@x.com"}, nil
			},
		},
		TaskService: &mockTaskService{
			createFn: func(ctx context.Context, actor, text string) (*taskResponse, error) {
				return &taskResponse{TaskID: "task-1", Task: text, CreatedBy: actor}, nil
			},
			updateFn: func(ctx context.Context, actor, taskID, text string) (*taskResponse, error) {
				return &taskResponse{TaskID: taskID, Task: text, CreatedBy: actor}, nil
			},
		},
	}
}

// --- テスト ---

func TestNewRouter_PublicRoutes_NoAuthRequired(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"ユーザー登録", http.MethodPost, "/api/register", `{"username":"alice","email":"a@x.com","password":"secret1"}`, http.StatusCreated},
		{"ログイン", http.MethodPost, "/api/login", `{"email":"a@x.com","password":"secret1"}`, http.StatusOK},
		{"ヘルスチェック", http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewRouter_ProtectedRoutes_RequireBearerToken(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/logout", ""},
		{http.MethodGet, "/api/user", ""},
		{http.MethodPost, "/api/task/create", `{"task":"x"}`},
		{http.MethodGet, "/api/task/list", ""},
		{http.MethodPut, "/api/task/update", `{"taskId":"t","newTask":"x"}`},
		{http.MethodDelete, "/api/task/delete", `{"taskId":"t"}`},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			// トークンなし
			req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("without token: status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if body := decodeError(t, w.Result()); body.Code != model.ErrCodeNoToken {
				t.Errorf("without token: code = %q, want %q", body.Code, model.ErrCodeNoToken)
			}

			// 台帳にないトークン
			req = httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
			req.Header.Set("Authorization", "Bearer unknown-token")
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("unknown token: status = %d, want %d", w.Code, http.StatusUnauthorized)
			}

			// 有効なトークン
			req = httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
			req.Header.Set("Authorization", "Bearer valid-token")
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code >= 400 {
				t.Errorf("valid token: status = %d, want success (body=%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestNewRouter_WrongMethod_Returns405(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/register", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestNewRouter_Health_DBDown_Returns503(t *testing.T) {
	deps := newTestRouterDeps()
	deps.HealthChecker = &mockHealthChecker{err: errors.New("connection refused")}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestNewRouter_Health_ReturnsStatusOK(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestNewRouter_MetricsEndpoint_RecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	deps := newTestRouterDeps()
	deps.HTTPMetrics = collector
	deps.AuthFailureRecorder = collector
	deps.MetricsGatherer = reg
	router := NewRouter(deps)

	// 認証失敗を1件発生させる
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{
		`taskauth_auth_failures_total{reason="no_token"} 1`,
		`taskauth_http_status_total{status_code="401"} 1`,
		"taskauth_request_latency_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewRouter_MetricsEndpoint_DisabledWithoutGatherer(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newTestRouterDeps())

	req := httptest.NewRequest(http.MethodOptions, "/api/task/list", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, should allow Authorization", got)
	}
}

func TestNewRouter_LogsUserIDForAuthenticatedRequests(t *testing.T) {
	var buf bytes.Buffer
	deps := newTestRouterDeps()
	deps.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v (%s)", err, buf.String())
	}
	if entry["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want user-1", entry["user_id"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Errorf("request_id should be set by the router, got %v", entry["request_id"])
	}
}

// compile-time check
var _ HealthChecker = (*mockHealthChecker)(nil)
