package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// ロゴプロンプトの固定セクション
const (
	roleHeader = `Role: Master Logo Designer specializing in Zen, Minimalist, and Abstract Branding.`

	layoutSection = `[LAYOUT]
Vertical composition: A distinct graphic icon on the TOP, followed by text on the BOTTOM.
Center aligned.
Background: Pure White background (Hex #FFFFFF) for easy extraction.`

	designRules = `CRITICAL DESIGN RULES:
1. EXTREMELY SIMPLE: Use "Liao liao ji bi" (just a few strokes) technique.
2. ABSTRACT: Do not draw a literal illustration. Suggest the shape using curves and negative space.
3. CLEAN: No clutter, no small details, no complex shading.
4. STROKES: Use confident, fluid lines (ink wash or vector curve).`

	qualitySection = `[QUALITY]
2K resolution, sharp edges, professional branding design.
Exclude: complex details, many lines, realistic shading, intricate patterns, clutter, photorealistic skin, medical cross.`

	// SymbolSeparator は英語の視覚要素を連結する区切りです。
	SymbolSeparator = ", "
)

// ConstructLogoPrompt は入力と分析結果から画像生成用のプロンプトを組み立てます。
// 店名とスローガンは翻訳せず、入力されたとおりに埋め込みます。
func ConstructLogoPrompt(in domain.UserInput, analysis domain.AnalysisResult) string {
	sections := []string{
		roleHeader,
		layoutSection,
		buildIconSection(in.Style, analysis.VisualSymbolsEnglish),
		buildTextSection(in),
		buildColorSection(analysis.ColorPaletteEnglish),
		qualitySection,
	}
	return strings.Join(sections, "\n\n")
}

func buildIconSection(style domain.BrandingStyle, symbols []string) string {
	var sb strings.Builder
	sb.WriteString("[ICON DESIGN]\n")
	fmt.Fprintf(&sb, "Subject: Abstract representation of %s.\n", strings.Join(symbols, SymbolSeparator))
	fmt.Fprintf(&sb, "Style: %s\n", StyleDescriptions[style])
	fmt.Fprintf(&sb, "Vibe: %s Wellness.\n\n", style)
	sb.WriteString(designRules)
	return sb.String()
}

func buildTextSection(in domain.UserInput) string {
	var sb strings.Builder
	sb.WriteString("[TEXT RENDERING]\n")
	sb.WriteString("Render the following text strictly below the icon. Do not misspell.\n")
	fmt.Fprintf(&sb, "1. Primary Text (Store Name): \"%s\"\n", in.StoreName)
	fmt.Fprintf(&sb, "   - Font Style: Legible, Premium, matches the %s style. Ensure strokes are thick and legible.\n", in.Style)
	sb.WriteString("   - Note: If Chinese characters, focus on visual aesthetics of the strokes (Calligraphy or Rounded Sans-serif).\n")
	fmt.Fprintf(&sb, "2. Secondary Text (Slogan): \"%s\"\n", in.Slogan)
	sb.WriteString("   - Font Style: Smaller, thinner, minimalist font underneath the main name.")
	return sb.String()
}

func buildColorSection(palette string) string {
	return fmt.Sprintf("[COLOR & LIGHTING]\nPalette: %s.\nLighting: Soft studio lighting, vector crispness.", palette)
}
