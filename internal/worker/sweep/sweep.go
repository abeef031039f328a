// Package sweep は期限切れトークンの一括無効化ジョブを提供する。
// 台帳の行は削除せず、is_validをfalseに更新するのみ。
// 認証時の遅延無効化と同じ状態遷移をバッチで先回りして行う。
package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval はジョブの既定の実行間隔。
const DefaultInterval = 10 * time.Minute

// sweepQuery は有効なまま期限を過ぎたトークンを無効化する。
const sweepQuery = `UPDATE user_tokens SET is_valid = false WHERE is_valid AND expires_at < $1`

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder は無効化件数の記録先。metrics.MetricsCollectorの部分集合。
type Recorder interface {
	RecordTokensSwept(count int)
}

// Job は期限切れトークンの無効化ジョブ。
// 何度実行しても結果が変わらない。
type Job struct {
	db       Executor
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewJob は新しいJobを生成する。recorderはnilでもよい。
func NewJob(db Executor, logger *slog.Logger, recorder Recorder) *Job {
	return &Job{
		db:       db,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Run は期限切れトークンを1回無効化し、無効化した件数を返す。
func (j *Job) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := j.now()

	result, err := j.db.ExecContext(ctx, sweepQuery, cutoff)
	if err != nil {
		j.logger.Error("token sweep failed",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れトークンの無効化に失敗: %w", err)
	}

	swept, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("failed to read swept count",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("無効化件数の取得に失敗: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordTokensSwept(int(swept))
	}

	j.logger.Info("token sweep completed",
		slog.Int64("swept_count", swept),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return swept, nil
}

// Start はctxがキャンセルされるまでinterval間隔でRunを繰り返す。
// 起動直後に1回実行する。個々の実行エラーはログに記録して継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	j.logger.Info("token sweeper started", slog.Duration("interval", interval))

	j.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	// エラーはRun内でログ済み
	_, _ = j.Run(ctx)
}
