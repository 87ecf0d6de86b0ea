package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/generator"
	"github.com/shouni/zen-logo-kit/pkg/prompt"
)

// ErrBusy は分析または生成の実行中に新しいリクエストを始めようとした場合のエラーです。
var ErrBusy = errors.New("session is busy")

// Analyzer はブランド分析を行うコンポーネントです。
type Analyzer interface {
	Analyze(ctx context.Context, in domain.UserInput) (*domain.AnalysisResult, error)
}

// KeyResolver はリクエスト前に API キーの有無を確認します。
type KeyResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// PromptFunc は入力と分析結果からプロンプトを組み立てる純粋関数です。
type PromptFunc func(domain.UserInput, domain.AnalysisResult) string

// Deps はセッションが利用する外部コンポーネントです。
type Deps struct {
	Analyzer  Analyzer
	Generator generator.ImageGenerator
	// Keys が nil の場合は事前のキー確認を省略します。
	Keys KeyResolver
	// Prompt が nil の場合は prompt.ConstructLogoPrompt を使います。
	Prompt PromptFunc
}

func (d Deps) validate() error {
	if d.Analyzer == nil {
		return fmt.Errorf("analyzer is required")
	}
	if d.Generator == nil {
		return fmt.Errorf("generator is required")
	}
	return nil
}

func (d Deps) buildPrompt(in domain.UserInput, a domain.AnalysisResult) string {
	if d.Prompt != nil {
		return d.Prompt(in, a)
	}
	return prompt.ConstructLogoPrompt(in, a)
}

// Session はロゴ生成ウィザード 1 回分の状態です。
//
// ロックは状態の読み書きの間だけ保持し、ネットワーク呼び出しの間は保持しません。
// 実行中の排他は step (analyzing / generating) によるゲートで行います。
type Session struct {
	id   string
	deps Deps

	mu        sync.Mutex
	step      domain.Step
	input     *domain.UserInput
	analysis  *domain.AnalysisResult
	logos     []domain.GeneratedLogo
	selected  int
	prompt    string
	lastErr   string
	epoch     uint64
	createdAt time.Time
	updatedAt time.Time
}

// New は入力待ちのセッションを作ります。
func New(id string, deps Deps) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		id:        id,
		deps:      deps,
		step:      domain.StepCollectingInput,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID はセッション ID を返します。
func (s *Session) ID() string { return s.id }

// Submit は入力を受け取り、分析 → プロンプト構築 → 初回生成を順に実行します。
// 失敗した場合はエラーを記録して入力待ちに戻ります。
func (s *Session) Submit(ctx context.Context, in domain.UserInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.step.InFlight() {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != domain.StepCollectingInput {
		s.mu.Unlock()
		return &domain.PreconditionError{Msg: "submit requires step collecting-input; reset first"}
	}
	epoch := s.epoch
	submitted := in
	s.input = &submitted
	s.analysis = nil
	s.logos = nil
	s.selected = 0
	s.prompt = ""
	s.lastErr = ""
	s.step = domain.StepAnalyzing
	s.touch()
	s.mu.Unlock()

	slog.InfoContext(ctx, "ロゴ生成を開始します", "session", s.id, "store", in.StoreName, "style", in.Style)

	if s.deps.Keys != nil {
		if _, err := s.deps.Keys.Resolve(ctx); err != nil {
			return s.failSubmit(ctx, epoch, err)
		}
	}

	analysis, err := s.deps.Analyzer.Analyze(ctx, in)
	if err != nil {
		return s.failSubmit(ctx, epoch, err)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return errReset
	}
	s.analysis = analysis
	s.prompt = s.deps.buildPrompt(in, *analysis)
	s.step = domain.StepGenerating
	req := domain.NewFreshRequest(s.prompt, in.Reference)
	s.touch()
	s.mu.Unlock()

	logo, err := s.deps.Generator.Generate(ctx, req)
	if err != nil {
		return s.failSubmit(ctx, epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return errReset
	}
	s.logos = []domain.GeneratedLogo{*logo}
	s.selected = 0
	s.step = domain.StepComplete
	s.touch()
	slog.InfoContext(ctx, "初回のロゴを生成しました", "session", s.id)
	return nil
}

func (s *Session) failSubmit(ctx context.Context, epoch uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return errReset
	}
	slog.WarnContext(ctx, "ロゴ生成に失敗しました", "session", s.id, "step", s.step, "error", err)
	s.analysis = nil
	s.prompt = ""
	s.logos = nil
	s.selected = 0
	s.lastErr = err.Error()
	s.step = domain.StepCollectingInput
	s.touch()
	return err
}

// Regenerate は現在の編集中プロンプトと元の入力の参照画像で再生成します。
// 以前に生成した画像は参照しません。
func (s *Session) Regenerate(ctx context.Context) error {
	return s.run(ctx, func() (domain.GenerationRequest, error) {
		if s.input == nil || s.analysis == nil {
			return domain.GenerationRequest{}, &domain.PreconditionError{Msg: "regenerate requires an analysed input"}
		}
		return domain.NewFreshRequest(s.prompt, s.input.Reference), nil
	})
}

// Refine は現在の編集中プロンプトと、選択中のロゴ画像を参照として再生成します。
func (s *Session) Refine(ctx context.Context) error {
	return s.run(ctx, func() (domain.GenerationRequest, error) {
		if len(s.logos) == 0 {
			return domain.GenerationRequest{}, &domain.PreconditionError{Msg: "refine requires a generated logo"}
		}
		ref, err := s.logos[s.selected].Image()
		if err != nil {
			return domain.GenerationRequest{}, &domain.GenerationError{Msg: "cannot decode selected logo", Err: err}
		}
		return domain.NewRefineRequest(s.prompt, ref), nil
	})
}

// run は complete → generating → complete の遷移で 1 回生成します。
// build は s.mu を保持した状態で呼ばれます。
// 失敗しても履歴と選択位置は変更しません。
func (s *Session) run(ctx context.Context, build func() (domain.GenerationRequest, error)) error {
	s.mu.Lock()
	if err := s.checkComplete(); err != nil {
		s.mu.Unlock()
		return err
	}
	req, err := build()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			s.lastErr = err.Error()
			s.touch()
		}
		s.mu.Unlock()
		slog.WarnContext(ctx, "ロゴの再生成を開始できませんでした", "session", s.id, "error", err)
		return err
	}
	epoch := s.epoch
	s.lastErr = ""
	s.step = domain.StepGenerating
	s.touch()
	s.mu.Unlock()

	slog.InfoContext(ctx, "ロゴを再生成します", "session", s.id, "kind", req.Kind)
	logo, err := s.deps.Generator.Generate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return errReset
	}
	s.step = domain.StepComplete
	s.touch()
	if err != nil {
		slog.WarnContext(ctx, "再生成に失敗しました。履歴は保持します", "session", s.id, "kind", req.Kind, "error", err)
		s.lastErr = err.Error()
		return err
	}
	s.logos = append(s.logos, *logo)
	s.selected = len(s.logos) - 1
	return nil
}

// checkComplete は s.mu を保持した状態で呼び出します。
func (s *Session) checkComplete() error {
	if s.step.InFlight() {
		return ErrBusy
	}
	if s.step != domain.StepComplete {
		return &domain.PreconditionError{Msg: fmt.Sprintf("operation requires step complete, got %s", s.step)}
	}
	return nil
}

// SetPrompt は編集中のプロンプトを置き換えます。以降の再生成はこの値を使います。
func (s *Session) SetPrompt(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkComplete(); err != nil {
		return err
	}
	s.prompt = p
	s.touch()
	return nil
}

// SelectLogo は履歴中のロゴを選択します。ネットワークには影響しません。
func (s *Session) SelectLogo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkComplete(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.logos) {
		return &domain.PreconditionError{Msg: fmt.Sprintf("logo index %d out of range [0,%d)", index, len(s.logos))}
	}
	s.selected = index
	s.touch()
	return nil
}

// Reset はどの状態からでも入力待ちに戻し、分析結果・履歴・プロンプト・エラーを消去します。
// 実行中のリクエストの結果は破棄されます。
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.step = domain.StepCollectingInput
	s.input = nil
	s.analysis = nil
	s.logos = nil
	s.selected = 0
	s.prompt = ""
	s.lastErr = ""
	s.touch()
}

func (s *Session) touch() { s.updatedAt = time.Now() }

// errReset は実行中にリセットされたため結果を破棄したことを示します。
var errReset = errors.New("session was reset while the request was in flight")

// IsDiscarded はリクエスト中のリセットで結果が破棄されたかを返します。
func IsDiscarded(err error) bool { return errors.Is(err, errReset) }
