package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shouni/zen-logo-kit/internal/config"
	"github.com/shouni/zen-logo-kit/pkg/analyzer"
	"github.com/shouni/zen-logo-kit/pkg/credential"
	"github.com/shouni/zen-logo-kit/pkg/gemini"
	"github.com/shouni/zen-logo-kit/pkg/generator"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

// newDeps はセッションが使う分析器と生成器を組み立てるのだ。テストで差し替えるのだ。
var newDeps = buildDeps

func buildDeps(c *config.Config, apiKey string) (session.Deps, error) {
	keys := credential.DefaultChain(apiKey)

	clients, err := gemini.NewGenAIFactory(keys)
	if err != nil {
		return session.Deps{}, err
	}
	an, err := analyzer.NewBrandAnalyzer(clients, c.AnalysisModel)
	if err != nil {
		return session.Deps{}, err
	}
	gen, err := generator.NewGeminiGenerator(clients, c.ImageModel)
	if err != nil {
		return session.Deps{}, err
	}
	return session.Deps{Analyzer: an, Generator: gen, Keys: keys}, nil
}

// newStore は REDIS_ADDR があれば RedisStore を、なければ SESSION_TTL 付きの MemoryStore を返すのだ。
func newStore(ctx context.Context, c *config.Config) (session.Store, func() error, error) {
	if c.RedisAddr == "" {
		return session.NewMemoryStore(c.SessionTTL), func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.RedisAddr,
		Password:     c.RedisPassword,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis %s に接続できないのだ: %w", c.RedisAddr, err)
	}
	slog.InfoContext(ctx, "セッションを Redis に保存するのだ", "addr", c.RedisAddr, "ttl", c.SessionTTL)

	store, err := session.NewRedisStore(rdb, c.SessionTTL)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return store, rdb.Close, nil
}
