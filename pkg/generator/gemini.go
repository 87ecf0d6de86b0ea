package generator

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/gemini"
)

// GeminiGenerator は Gemini の画像生成モデルでロゴを生成します。
type GeminiGenerator struct {
	clients gemini.ClientFactory
	model   string
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(clients gemini.ClientFactory, model string) (*GeminiGenerator, error) {
	if clients == nil {
		return nil, fmt.Errorf("clients (gemini.ClientFactory) is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{clients: clients, model: model}, nil
}

// Generate は 1 回だけ生成を実行します。リトライはしません。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedLogo, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	client, err := g.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	parts := buildParts(req)
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: AspectRatio,
			ImageSize:   ImageSize,
		},
	}

	slog.InfoContext(ctx, "ロゴ画像の生成をリクエストします",
		"model", g.model, "kind", req.Kind, "has_reference", req.Reference != nil, "parts", len(parts))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := client.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, &domain.GenerationError{Err: err}
	}

	out, err := parseToResponse(resp)
	if err != nil {
		slog.WarnContext(ctx, "画像データを取り出せませんでした", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "ロゴ画像を生成しました", "mime_type", out.MimeType, "bytes", len(out.Data))
	return &domain.GeneratedLogo{
		ImageURL:   domain.EncodeDataURL(out.MimeType, out.Data),
		PromptUsed: req.Prompt,
	}, nil
}
