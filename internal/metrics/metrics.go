// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証失敗の理由ラベル
const (
	ReasonNoToken         = "no_token"
	ReasonInvalidToken    = "invalid_token"
	ReasonTokenNotFound   = "token_not_found"
	ReasonTokenRevoked    = "token_revoked"
	ReasonTokenExpired    = "token_expired"
	ReasonUserNotFound    = "user_not_found"
	ReasonInvalidPassword = "invalid_password"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービス、ミドルウェア、スイープワーカーから利用する。
type MetricsCollector interface {
	RecordAuthFailure(reason string)
	RecordLoginSuccess()
	RecordTokenIssued()
	RecordTokensSwept(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authFailures   *prometheus.CounterVec
	loginSuccess   prometheus.Counter
	tokensIssued   prometheus.Counter
	tokensSwept    prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskauth_auth_failures_total",
			Help: "認証失敗の理由別合計数",
		}, []string{"reason"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskauth_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskauth_tokens_issued_total",
			Help: "発行したトークンの合計数",
		}),
		tokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskauth_tokens_swept_total",
			Help: "スイープで無効化した期限切れトークンの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskauth_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskauth_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authFailures,
		c.loginSuccess,
		c.tokensIssued,
		c.tokensSwept,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAuthFailure は認証失敗を理由ラベル付きで記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordTokenIssued はトークン発行を記録する。
func (c *Collector) RecordTokenIssued() {
	c.tokensIssued.Inc()
}

// RecordTokensSwept はスイープで無効化した件数を記録する。
func (c *Collector) RecordTokensSwept(count int) {
	c.tokensSwept.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute はワーカープロセス用の運用エンドポイントを返す。
// /metrics でPrometheusスクレイプに、/health で生存確認に応答する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", Handler(gatherer))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
