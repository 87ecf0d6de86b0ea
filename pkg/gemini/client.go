package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// ContentGenerator は genai.Models のうち、このキットが利用する部分です。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// KeyResolver は API キーを解決します。credential.Chain が実装します。
type KeyResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ClientFactory は呼び出しごとにキーを解決してクライアントを返します。
type ClientFactory interface {
	Client(ctx context.Context) (ContentGenerator, error)
}

// GenAIFactory は解決されたキーごとに genai.Client を保持します。
type GenAIFactory struct {
	keys KeyResolver

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGenAIFactory は KeyResolver を注入して GenAIFactory を生成します。
func NewGenAIFactory(keys KeyResolver) (*GenAIFactory, error) {
	if keys == nil {
		return nil, fmt.Errorf("keys (KeyResolver) is required")
	}
	return &GenAIFactory{keys: keys, clients: make(map[string]*genai.Client)}, nil
}

// Client はキーを解決し、Gemini API バックエンドのクライアントを返します。
// キーの解決に失敗した場合は ConfigurationError をそのまま返します。
func (f *GenAIFactory) Client(ctx context.Context) (ContentGenerator, error) {
	key, err := f.keys.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[key]; ok {
		return c.Models, nil
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genaiクライアントの作成に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "genaiクライアントを初期化しました")
	f.clients[key] = c
	return c.Models, nil
}

// StaticFactory は固定の ContentGenerator を返します。テストやCLIでの差し替え用です。
type StaticFactory struct {
	Generator ContentGenerator
}

func (s StaticFactory) Client(context.Context) (ContentGenerator, error) {
	if s.Generator == nil {
		return nil, fmt.Errorf("no content generator configured")
	}
	return s.Generator, nil
}

// ResponseText は最初の候補のテキストパーツを連結して返します。
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
