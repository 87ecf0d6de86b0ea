package domain

// Step はウィザードの現在の段階です。
type Step string

const (
	StepCollectingInput Step = "collecting-input"
	StepAnalyzing       Step = "analyzing"
	StepGenerating      Step = "generating"
	StepComplete        Step = "complete"
)

// InFlight は分析または生成のリクエストが進行中かを返します。
func (s Step) InFlight() bool {
	return s == StepAnalyzing || s == StepGenerating
}
