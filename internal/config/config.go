package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shouni/zen-logo-kit/pkg/analyzer"
	"github.com/shouni/zen-logo-kit/pkg/generator"
)

const (
	DefaultAddr       = ":8080"
	DefaultSessionTTL = 24 * time.Hour
)

// Config はサーバーと CLI の設定です。API キーはここでは保持せず、credential パッケージで解決します。
type Config struct {
	Addr          string
	AnalysisModel string
	ImageModel    string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	LogLevel slog.Level
}

// Load は .env ファイルと環境変数から設定を読み込みます。
// files を省略した場合はカレントディレクトリの .env を存在すれば読み込み、
// 明示した場合はそのファイルがなければエラーにします。
// 既に設定されている環境変数は .env で上書きしません。
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(".env の読み込みに失敗しました: %w", err)
		}
		slog.Debug(".env ファイルがないため環境変数のみを使います")
	}
	return FromEnv()
}

// FromEnv は環境変数のみから設定を組み立てます。
func FromEnv() (*Config, error) {
	ttl := DefaultSessionTTL
	if raw := getEnv("SESSION_TTL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL %q: %w", raw, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("SESSION_TTL must not be negative: %s", raw)
		}
		ttl = parsed
	}

	level, err := ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Addr:          getEnv("ZENLOGO_ADDR", DefaultAddr),
		AnalysisModel: getEnv("ANALYSIS_MODEL", analyzer.DefaultModel),
		ImageModel:    getEnv("IMAGE_MODEL", generator.DefaultModel),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    ttl,
		LogLevel:      level,
	}, nil
}

// ParseLevel は debug / info / warn / error を slog.Level に変換します。
func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}
