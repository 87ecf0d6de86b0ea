package prompt

import "github.com/shouni/zen-logo-kit/pkg/domain"

// StyleDescriptions はスタイルごとのアイコン描写指示です。
var StyleDescriptions = map[domain.BrandingStyle]string{
	domain.StyleNewChinese:  "Abstract 'New Chinese' Zen style. Use 1-3 flowing ink strokes to suggest the form. Minimalist, elegant, vast negative space. Sophisticated beige and jade tones. Do not be literal.",
	domain.StyleTraditional: "Traditional Chinese 'Xieyi' (freehand) painting style. Bold, abstract brush strokes. Focus on the spirit rather than the form. Minimal detail. Black ink texture.",
	domain.StyleModern:      "Ultra-minimalist geometric abstraction. Reductionist design. Single line art or simple shapes. Clean, contemporary tech-wellness vibe.",
	domain.StyleLuxury:      "Abstract luxury symbol. Golden ratio composition. Minimalist serif monogram or simple abstract shape. Gold foil texture, symmetrical, premium hotel vibe.",
	domain.StyleThai:        "Abstract Thai elements. Simplified line art of lotus or elephant curves. Warm orange and purple tones, exotic but minimal.",
	domain.StyleJapaneseZen: "Enso circle aesthetic. Rough, organic, simple strokes. Wabi-sabi. Earth tones, extremely minimal composition.",
}
