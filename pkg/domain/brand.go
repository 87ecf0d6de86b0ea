package domain

import (
	"fmt"
	"strings"
)

// BrandingStyle はロゴの画風を表す固定の列挙型です。
type BrandingStyle string

const (
	StyleNewChinese  BrandingStyle = "New Chinese"
	StyleTraditional BrandingStyle = "Traditional"
	StyleModern      BrandingStyle = "Modern"
	StyleLuxury      BrandingStyle = "Luxury"
	StyleThai        BrandingStyle = "Thai"
	StyleJapaneseZen BrandingStyle = "Japanese Zen"
)

var styleKeys = []struct {
	key   string
	style BrandingStyle
}{
	{"NEW_CHINESE", StyleNewChinese},
	{"TRADITIONAL", StyleTraditional},
	{"MODERN", StyleModern},
	{"LUXURY", StyleLuxury},
	{"THAI", StyleThai},
	{"JAPANESE_ZEN", StyleJapaneseZen},
}

// AllStyles は宣言順にすべてのスタイルを返します。
func AllStyles() []BrandingStyle {
	out := make([]BrandingStyle, 0, len(styleKeys))
	for _, k := range styleKeys {
		out = append(out, k.style)
	}
	return out
}

// Key は NEW_CHINESE のような定数名を返します。
func (s BrandingStyle) Key() string {
	for _, k := range styleKeys {
		if k.style == s {
			return k.key
		}
	}
	return ""
}

// Valid はスタイルが列挙値のいずれかであるかを返します。
func (s BrandingStyle) Valid() bool {
	return s.Key() != ""
}

// ParseBrandingStyle は表示値 ("New Chinese") と定数名 ("NEW_CHINESE") の両方を受け付けます。
// 大文字小文字は区別しません。
func ParseBrandingStyle(raw string) (BrandingStyle, error) {
	v := strings.TrimSpace(raw)
	for _, k := range styleKeys {
		if strings.EqualFold(v, k.key) || strings.EqualFold(v, string(k.style)) {
			return k.style, nil
		}
	}
	return "", &PreconditionError{Msg: fmt.Sprintf("unknown branding style %q", raw)}
}

// UserInput は店舗のブランディング情報です。送信後の生成試行の間は変更しません。
type UserInput struct {
	StoreName string          `json:"storeName"`
	Slogan    string          `json:"slogan"`
	Services  string          `json:"services"`
	Style     BrandingStyle   `json:"style"`
	Reference *ReferenceImage `json:"referenceImage,omitempty"`
}

// Validate は必須項目を検証します。
func (in UserInput) Validate() error {
	if strings.TrimSpace(in.StoreName) == "" {
		return &PreconditionError{Msg: "storeName is required"}
	}
	if strings.TrimSpace(in.Services) == "" {
		return &PreconditionError{Msg: "services is required"}
	}
	if !in.Style.Valid() {
		return &PreconditionError{Msg: fmt.Sprintf("unknown branding style %q", in.Style)}
	}
	if in.Reference != nil {
		if err := in.Reference.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AnalysisResult はブランド分析の結果です。
// 表示用フィールドは簡体字中国語、プロンプト用フィールドは英語で返されます。
type AnalysisResult struct {
	VisualSymbols        []string `json:"visualSymbols"`
	VisualSymbolsEnglish []string `json:"visualSymbolsEnglish"`
	ColorPalette         string   `json:"colorPalette"`
	ColorPaletteEnglish  string   `json:"colorPaletteEnglish"`
	EnglishTranslation   string   `json:"englishTranslation"`
	DesignReasoning      string   `json:"designReasoning"`
}

// Validate はプロンプト構築に必要なフィールドが揃っているかを確認します。
func (a AnalysisResult) Validate() error {
	if len(a.VisualSymbolsEnglish) == 0 {
		return &AnalysisError{Msg: "missing visualSymbolsEnglish"}
	}
	if strings.TrimSpace(a.ColorPaletteEnglish) == "" {
		return &AnalysisError{Msg: "missing colorPaletteEnglish"}
	}
	return nil
}

// Parallel は表示用と英語のシンボル列が同じ長さかを返します。
// 両者の意味的な対応は上流サービスの契約であり、ここでは長さのみ確認します。
func (a AnalysisResult) Parallel() bool {
	return len(a.VisualSymbols) == len(a.VisualSymbolsEnglish)
}
