package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// --- Mocks ---

type mockAnalyzer struct {
	result *domain.AnalysisResult
	err    error
	calls  int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, in domain.UserInput) (*domain.AnalysisResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.AnalysisResult{
		VisualSymbols:        []string{"莲花", "流水", "祥云"},
		VisualSymbolsEnglish: []string{"Lotus", "Flowing water", "Auspicious cloud"},
		ColorPalette:         "米色与玉绿",
		ColorPaletteEnglish:  "beige and jade green",
		EnglishTranslation:   "Cloud Hidden Foot Path",
		DesignReasoning:      "以莲花象征洁净",
	}, nil
}

// mockGenerator は呼び出しごとに異なる画像を返し、受け取ったリクエストを記録するのだ。
type mockGenerator struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	// failAt に含まれる呼び出し番号 (0 始まり) では失敗する
	failAt map[int]error
	// gate が nil でなければ、値を受け取るまで応答を保留する
	gate    chan struct{}
	started chan struct{}
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedLogo, error) {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	err := m.failAt[n]
	gate, started := m.gate, m.started
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &domain.GeneratedLogo{
		ImageURL:   domain.EncodeDataURL("image/png", []byte(fmt.Sprintf("img-%d", n))),
		PromptUsed: req.Prompt,
	}, nil
}

func (m *mockGenerator) request(i int) domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

func (m *mockGenerator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockKeys struct{ err error }

func (m mockKeys) Resolve(context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "key", nil
}
