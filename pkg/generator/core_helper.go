package generator

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// buildParts はテキストパーツを先頭に置き、参照画像があれば InlineData パーツを続けます。
func buildParts(req domain.GenerationRequest) []*genai.Part {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Reference != nil {
		parts = append(parts, toPart(req.Reference))
	}
	return parts
}

func toPart(ref *domain.ReferenceImage) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: ref.MIMEType, Data: ref.Data}}
}

// parseToResponse は応答から画像を取り出します。
//
// 方針は first-match です。最初の候補のパーツを順に見て、画像データを持つ最初の
// パーツを採用します。後続に画像パーツがあっても比較はしません。
func parseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &domain.GenerationError{Msg: "no image generated"}
	}

	// 現在の仕様では、最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &domain.GenerationError{Msg: "no image generated", Err: finishReasonErr(candidate)}
	}

	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &ImageOutput{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
		}
	}

	return nil, &domain.GenerationError{Msg: "no image data found", Err: finishReasonErr(candidate)}
}

// finishReasonErr は安全フィルター等による異常終了を説明するエラーを返します。
func finishReasonErr(c *genai.Candidate) error {
	if c == nil {
		return nil
	}
	switch c.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
		return nil
	}
	return fmt.Errorf("finish reason: %s", c.FinishReason)
}
