package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ReferenceImage は参照画像のバイナリと MIME タイプです。
// 両方が揃っているか、ReferenceImage 自体が nil であるかのどちらかです。
type ReferenceImage struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
}

// Validate は部分的な参照画像（データのみ、MIME のみ）を呼び出し側のバグとして扱います。
func (r *ReferenceImage) Validate() error {
	if r == nil {
		return nil
	}
	if len(r.Data) == 0 || r.MIMEType == "" {
		return &PreconditionError{Msg: "reference image requires both data and mime type"}
	}
	return nil
}

// DataURL は data:<mime>;base64,<data> 形式に変換します。
func (r *ReferenceImage) DataURL() string {
	return EncodeDataURL(r.MIMEType, r.Data)
}

// EncodeDataURL はバイナリを自己記述的な data URL に変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL は data:<mime>;base64,<data> をバイナリと MIME タイプに戻します。
func ParseDataURL(s string) (*ReferenceImage, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	mimeType, enc, _ := strings.Cut(strings.TrimPrefix(meta, "data:"), ";")
	if mimeType == "" {
		return nil, fmt.Errorf("data URL has no mime type")
	}
	if enc != "base64" {
		return nil, fmt.Errorf("unsupported data URL encoding %q", enc)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("data URL has empty payload")
	}
	return &ReferenceImage{Data: data, MIMEType: mimeType}, nil
}

// RequestKind は生成リクエストの種類です。
type RequestKind string

const (
	// KindFresh は元の入力に添付された参照画像（または無し）で生成します。
	KindFresh RequestKind = "fresh"
	// KindRefine は選択中の生成済み画像を参照として生成します。
	KindRefine RequestKind = "refine"
)

// GenerationRequest は画像生成への単一の要求です。
// 参照画像の出どころは Kind で明示されます。
type GenerationRequest struct {
	Kind      RequestKind
	Prompt    string
	Reference *ReferenceImage
}

// NewFreshRequest は元の入力の参照画像を使うリクエストを作ります。
func NewFreshRequest(prompt string, original *ReferenceImage) GenerationRequest {
	return GenerationRequest{Kind: KindFresh, Prompt: prompt, Reference: original}
}

// NewRefineRequest は選択中のロゴを参照画像とするリクエストを作ります。
func NewRefineRequest(prompt string, selected *ReferenceImage) GenerationRequest {
	return GenerationRequest{Kind: KindRefine, Prompt: prompt, Reference: selected}
}

// Validate はリクエストの契約を検証します。
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &PreconditionError{Msg: "prompt is required"}
	}
	switch r.Kind {
	case KindFresh:
	case KindRefine:
		if r.Reference == nil {
			return &PreconditionError{Msg: "refine requires a reference image"}
		}
	default:
		return &PreconditionError{Msg: fmt.Sprintf("unknown request kind %q", r.Kind)}
	}
	return r.Reference.Validate()
}

// GeneratedLogo は生成されたロゴです。作成後は変更しません。
type GeneratedLogo struct {
	ImageURL   string `json:"imageUrl"`
	PromptUsed string `json:"promptUsed"`
}

// Image は ImageURL をバイナリと MIME タイプに戻します。
func (l GeneratedLogo) Image() (*ReferenceImage, error) {
	return ParseDataURL(l.ImageURL)
}
