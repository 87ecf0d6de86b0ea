package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/shouni/zen-logo-kit/internal/config"
	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

// --- Mocks ---

type mockAnalyzer struct{}

func (mockAnalyzer) Analyze(context.Context, domain.UserInput) (*domain.AnalysisResult, error) {
	return &domain.AnalysisResult{
		VisualSymbols:        []string{"莲花"},
		VisualSymbolsEnglish: []string{"Lotus"},
		ColorPalette:         "玉绿",
		ColorPaletteEnglish:  "jade green",
		EnglishTranslation:   "Cloud Hidden Foot Path",
		DesignReasoning:      "洁净",
	}, nil
}

type mockGenerator struct {
	requests []domain.GenerationRequest
	// failAt は n 回目 (0 始まり) の呼び出しで返すエラーなのだ。
	failAt map[int]error
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GeneratedLogo, error) {
	n := len(m.requests)
	m.requests = append(m.requests, req)
	if err := m.failAt[n]; err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	_ = png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	return &domain.GeneratedLogo{ImageURL: domain.EncodeDataURL("image/png", buf.Bytes()), PromptUsed: req.Prompt}, nil
}

// useMockDeps は newDeps をモックに差し替え、テスト終了時に戻すのだ。
func useMockDeps(t interface{ Cleanup(func()) }) *mockGenerator {
	gen := &mockGenerator{}
	orig := newDeps
	newDeps = func(*config.Config, string) (session.Deps, error) {
		return session.Deps{Analyzer: mockAnalyzer{}, Generator: gen}, nil
	}
	t.Cleanup(func() { newDeps = orig })
	return gen
}
