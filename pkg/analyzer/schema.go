package analyzer

import "google.golang.org/genai"

// analysisSchema は分析結果の構造化出力スキーマです。6 フィールドすべて必須です。
func analysisSchema() *genai.Schema {
	stringArray := func(desc string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: desc,
		}
	}
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"visualSymbols":        stringArray("3个具体的视觉元素 (简体中文)，用于前端展示。"),
			"visualSymbolsEnglish": stringArray("The same 3 visual elements in English for image generation prompting."),
			"colorPalette":         str("配色方案描述 (简体中文)，用于前端展示。"),
			"colorPaletteEnglish":  str("Color palette description in English for image generation prompting."),
			"englishTranslation":   str("English translation of the store name and slogan."),
			"designReasoning":      str("设计理念简述 (简体中文)，解释为什么选择这些元素。"),
		},
		Required: []string{
			"visualSymbols",
			"visualSymbolsEnglish",
			"colorPalette",
			"colorPaletteEnglish",
			"englishTranslation",
			"designReasoning",
		},
		PropertyOrdering: []string{
			"visualSymbols",
			"visualSymbolsEnglish",
			"colorPalette",
			"colorPaletteEnglish",
			"englishTranslation",
			"designReasoning",
		},
	}
}
