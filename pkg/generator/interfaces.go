package generator

import (
	"context"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// ImageGenerator はセッション層が利用する画像生成の窓口です。
type ImageGenerator interface {
	// Generate はプロンプトと（あれば）参照画像から 1 枚のロゴを生成します。
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedLogo, error)
}
