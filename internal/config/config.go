package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/taskauth/internal/logger"
	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret          string
	TokenExpiry        time.Duration
	TokenSweepInterval time.Duration

	// Server
	ServerPort        string
	WorkerMetricsPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel slog.Level
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合、値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	dbURL, dbMissing := databaseURLFromEnv()
	cfg.DatabaseURL = dbURL
	missing = append(missing, dbMissing...)

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	expiry, err := parseTokenExpiry(getEnvString("TOKEN_EXPIRY", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_EXPIRY: %w", err)
	}
	cfg.TokenExpiry = expiry

	sweep, err := getEnvDuration("TOKEN_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_SWEEP_INTERVAL: %w", err)
	}
	cfg.TokenSweepInterval = sweep

	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "9091")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func loadEnvFile() {
	// .envがない環境では環境変数のみを使う
	_ = godotenv.Load(".env")
}

// databaseURLFromEnv はDATABASE_URL、またはDB_*の個別設定から接続URLを組み立てる。
// どちらも揃っていない場合は不足している変数名を返す。
func databaseURLFromEnv() (string, []string) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")

	var missing []string
	if host == "" && user == "" && name == "" {
		return "", []string{"DATABASE_URL"}
	}
	if host == "" {
		missing = append(missing, "DB_HOST")
	}
	if user == "" {
		missing = append(missing, "DB_USER")
	}
	if name == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return "", missing
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, getEnvString("DB_PORT", "5432")),
		Path:   "/" + name,
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", getEnvString("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// parseTokenExpiry はトークン有効期間を解釈する。
// "1h"、"30m" などのGoのduration表記のほか、数字のみの場合は秒として扱う。
func parseTokenExpiry(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, err
		}
		d = parsed
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %q", v)
	}
	return d, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %q", v)
	}
	return d, nil
}
