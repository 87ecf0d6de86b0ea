package domain

// ConfigurationError は API キーが解決できないなど、リクエスト前に検出される設定不備です。
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string { return wrapMsg("configuration error", e.Msg, e.Err) }
func (e *ConfigurationError) Unwrap() error { return e.Err }

// AnalysisError はブランド分析の失敗、または空や解析不能な応答です。
type AnalysisError struct {
	Msg string
	Err error
}

func (e *AnalysisError) Error() string { return wrapMsg("analysis failed", e.Msg, e.Err) }
func (e *AnalysisError) Unwrap() error { return e.Err }

// GenerationError は画像生成の失敗、または利用可能な画像パーツがない応答です。
type GenerationError struct {
	Msg string
	Err error
}

func (e *GenerationError) Error() string { return wrapMsg("generation failed", e.Msg, e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// PreconditionError は呼び出し側の契約違反です。ユーザー向けのエラーではありません。
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return "precondition failed: " + e.Msg }

func wrapMsg(kind, msg string, err error) string {
	s := kind
	if msg != "" {
		s += ": " + msg
	}
	if err != nil {
		s += ": " + err.Error()
	}
	return s
}
