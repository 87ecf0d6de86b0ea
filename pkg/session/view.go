package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// View は描画用の読み取り専用スナップショットです。
type View struct {
	ID            string                 `json:"id"`
	Step          domain.Step            `json:"step"`
	Input         *InputView             `json:"input,omitempty"`
	Analysis      *domain.AnalysisResult `json:"analysis,omitempty"`
	Logos         []domain.GeneratedLogo `json:"logos"`
	SelectedIndex int                    `json:"selectedIndex"`
	Prompt        string                 `json:"prompt"`
	Error         string                 `json:"error,omitempty"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// InputView は参照画像のバイナリを除いた入力です。
type InputView struct {
	StoreName    string               `json:"storeName"`
	Slogan       string               `json:"slogan"`
	Services     string               `json:"services"`
	Style        domain.BrandingStyle `json:"style"`
	HasReference bool                 `json:"hasReference"`
}

// Selected は選択中のロゴを返します。履歴が空なら false です。
func (v View) Selected() (domain.GeneratedLogo, bool) {
	if len(v.Logos) == 0 || v.SelectedIndex < 0 || v.SelectedIndex >= len(v.Logos) {
		return domain.GeneratedLogo{}, false
	}
	return v.Logos[v.SelectedIndex], true
}

// View は現在の状態のコピーを返します。
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.id,
		Step:          s.step,
		Logos:         slices.Clone(s.logos),
		SelectedIndex: s.selected,
		Prompt:        s.prompt,
		Error:         s.lastErr,
		UpdatedAt:     s.updatedAt,
	}
	if v.Logos == nil {
		v.Logos = []domain.GeneratedLogo{}
	}
	if s.input != nil {
		v.Input = &InputView{
			StoreName:    s.input.StoreName,
			Slogan:       s.input.Slogan,
			Services:     s.input.Services,
			Style:        s.input.Style,
			HasReference: s.input.Reference != nil,
		}
	}
	if s.analysis != nil {
		a := *s.analysis
		a.VisualSymbols = slices.Clone(a.VisualSymbols)
		a.VisualSymbolsEnglish = slices.Clone(a.VisualSymbolsEnglish)
		v.Analysis = &a
	}
	return v
}

// Snapshot は永続化用の完全な状態です。参照画像も含みます。
type Snapshot struct {
	ID        string                 `json:"id"`
	Step      domain.Step            `json:"step"`
	Input     *domain.UserInput      `json:"input,omitempty"`
	Analysis  *domain.AnalysisResult `json:"analysis,omitempty"`
	Logos     []domain.GeneratedLogo `json:"logos,omitempty"`
	Selected  int                    `json:"selected"`
	Prompt    string                 `json:"prompt"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Snapshot は現在の状態を永続化用に書き出します。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Step:      s.step,
		Input:     s.input,
		Analysis:  s.analysis,
		Logos:     slices.Clone(s.logos),
		Selected:  s.selected,
		Prompt:    s.prompt,
		Error:     s.lastErr,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Restore はスナップショットからセッションを復元します。
// 実行中のまま保存された状態は、結果を受け取れないため直前の安定状態に戻します。
func Restore(snap Snapshot, deps Deps) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if len(snap.Logos) > 0 && (snap.Selected < 0 || snap.Selected >= len(snap.Logos)) {
		return nil, fmt.Errorf("snapshot %s: selected index %d out of range", snap.ID, snap.Selected)
	}

	step := snap.Step
	switch step {
	case domain.StepAnalyzing:
		step = domain.StepCollectingInput
	case domain.StepGenerating:
		if len(snap.Logos) > 0 {
			step = domain.StepComplete
		} else {
			step = domain.StepCollectingInput
		}
	case domain.StepCollectingInput, domain.StepComplete:
	default:
		return nil, fmt.Errorf("snapshot %s: unknown step %q", snap.ID, snap.Step)
	}
	if step == domain.StepComplete && len(snap.Logos) == 0 {
		return nil, fmt.Errorf("snapshot %s: complete without logos", snap.ID)
	}

	return &Session{
		id:        snap.ID,
		deps:      deps,
		step:      step,
		input:     snap.Input,
		analysis:  snap.Analysis,
		logos:     slices.Clone(snap.Logos),
		selected:  snap.Selected,
		prompt:    snap.Prompt,
		lastErr:   snap.Error,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
	}, nil
}
