package generator

const (
	// DefaultModel は画像生成に使う既定のモデルです。
	DefaultModel = "gemini-3-pro-image-preview"
	// AspectRatio は生成画像のアスペクト比です。ロゴは正方形固定。
	AspectRatio = "1:1"
	// ImageSize は生成画像の解像度ティアです。
	ImageSize = "2K"
)

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
}
