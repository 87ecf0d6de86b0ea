package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/gemini"
)

const (
	// DefaultModel は分析に使う既定のテキストモデルです。
	DefaultModel = "gemini-2.5-flash"
	temperature  = 0.7
)

// BrandAnalyzer は店舗情報を Gemini に送り、視覚要素と配色の提案を受け取ります。
type BrandAnalyzer struct {
	clients gemini.ClientFactory
	model   string
}

// NewBrandAnalyzer は ClientFactory を注入して BrandAnalyzer を初期化します。
func NewBrandAnalyzer(clients gemini.ClientFactory, model string) (*BrandAnalyzer, error) {
	if clients == nil {
		return nil, fmt.Errorf("clients (gemini.ClientFactory) is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &BrandAnalyzer{clients: clients, model: model}, nil
}

// Analyze はブランド分析を 1 回だけ実行します。リトライもキャッシュもしません。
func (a *BrandAnalyzer) Analyze(ctx context.Context, in domain.UserInput) (*domain.AnalysisResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	client, err := a.clients.Client(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
		Temperature:      genai.Ptr[float32](temperature),
	}

	slog.InfoContext(ctx, "ブランド分析をリクエストします", "model", a.model, "style", in.Style)
	resp, err := client.GenerateContent(ctx, a.model, genai.Text(buildAnalysisPrompt(in)), config)
	if err != nil {
		return nil, &domain.AnalysisError{Err: err}
	}

	text := gemini.ResponseText(resp)
	if text == "" {
		return nil, &domain.AnalysisError{Msg: "empty response"}
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &result); err != nil {
		return nil, &domain.AnalysisError{Msg: "unparseable response", Err: err}
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if !result.Parallel() {
		slog.WarnContext(ctx, "表示用と英語の視覚要素の数が一致しません",
			"display", len(result.VisualSymbols), "english", len(result.VisualSymbolsEnglish))
	}

	slog.InfoContext(ctx, "ブランド分析が完了しました", "symbols", strings.Join(result.VisualSymbolsEnglish, ", "))
	return &result, nil
}

func buildAnalysisPrompt(in domain.UserInput) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following Spa/Foot Bath store details to prepare for Logo Design.\n\n")
	fmt.Fprintf(&sb, "Store Name: %s\n", in.StoreName)
	fmt.Fprintf(&sb, "Slogan: %s\n", in.Slogan)
	fmt.Fprintf(&sb, "Services: %s\n", in.Services)
	fmt.Fprintf(&sb, "Style Preference: %s\n\n", in.Style)
	sb.WriteString(`Your task:
1. Recommend 3 distinct visual elements based on services (e.g., Lotus, Bamboo, Abstract Foot curve, Steam, Hands).
2. Recommend a color scheme based on the name and style.
3. Translate the store name and slogan into English (for internal prompt understanding).
4. Provide a short reasoning for the design choice.

IMPORTANT: Please provide the display fields (visualSymbols, colorPalette, designReasoning) in Simplified Chinese (简体中文).
Provide the prompt fields (visualSymbolsEnglish, colorPaletteEnglish) in English.
`)
	return sb.String()
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出します。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
