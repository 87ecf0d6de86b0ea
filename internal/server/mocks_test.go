package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// --- Mocks ---

type mockAnalyzer struct {
	err error
}

func (m *mockAnalyzer) Analyze(context.Context, domain.UserInput) (*domain.AnalysisResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AnalysisResult{
		VisualSymbols:        []string{"莲花", "流水"},
		VisualSymbolsEnglish: []string{"Lotus", "Flowing water"},
		ColorPalette:         "米色与玉绿",
		ColorPaletteEnglish:  "beige and jade green",
		EnglishTranslation:   "Cloud Hidden Foot Path",
		DesignReasoning:      "以莲花象征洁净",
	}, nil
}

type mockGenerator struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (*domain.GeneratedLogo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.GeneratedLogo{
		ImageURL:   domain.EncodeDataURL("image/png", tinyPNG()),
		PromptUsed: req.Prompt,
	}, nil
}

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{212, 175, 55, 255})
	buf := new(bytes.Buffer)
	_ = png.Encode(buf, img)
	return buf.Bytes()
}

type mockKeys struct{ err error }

func (m mockKeys) Resolve(context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "key", nil
}
