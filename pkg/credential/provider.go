package credential

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// Provider は API キーの取得戦略です。キーが見つからない場合は空文字を返します。
type Provider interface {
	Name() string
	APIKey(ctx context.Context) (string, error)
}

// Static はホスト側で選択済みのキーをそのまま返します。
type Static struct {
	Label string
	Key   string
}

func (s Static) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "static"
}

func (s Static) APIKey(context.Context) (string, error) { return s.Key, nil }

// Env は環境変数からキーを読み取ります。
type Env struct {
	Var    string
	lookup func(string) (string, bool)
}

// NewEnv は os.LookupEnv を使う Env を作ります。
func NewEnv(name string) Env {
	return Env{Var: name, lookup: os.LookupEnv}
}

func (e Env) Name() string { return "env:" + e.Var }

func (e Env) APIKey(context.Context) (string, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(e.Var)
	return strings.TrimSpace(v), nil
}

// DefaultEnvVars は既定の探索順です。
// ホスト・実行時のキー、ビルド時のキー、汎用の実行時キーの順に見ます。
var DefaultEnvVars = []string{"GEMINI_API_KEY", "VITE_API_KEY", "API_KEY"}

// Chain は順序付きの Provider 列です。最初に見つかったキーを採用します。
type Chain []Provider

// DefaultChain は host があればそれを先頭に置き、続いて DefaultEnvVars を探索します。
func DefaultChain(host string) Chain {
	var c Chain
	if host != "" {
		c = append(c, Static{Label: "host", Key: host})
	}
	for _, v := range DefaultEnvVars {
		c = append(c, NewEnv(v))
	}
	return c
}

// Resolve はキーを解決します。どの Provider もキーを返さない場合は ConfigurationError です。
func (c Chain) Resolve(ctx context.Context) (string, error) {
	var errs []error
	for _, p := range c {
		key, err := p.APIKey(ctx)
		if err != nil {
			slog.WarnContext(ctx, "APIキーの取得に失敗しました", "provider", p.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		if key != "" {
			slog.DebugContext(ctx, "APIキーを解決しました", "provider", p.Name())
			return key, nil
		}
	}
	return "", &domain.ConfigurationError{
		Msg: "no API key found (set GEMINI_API_KEY, VITE_API_KEY or API_KEY)",
		Err: errors.Join(errs...),
	}
}
