package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/imgutil"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

// Format はダウンロードする画像の形式です。
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat はクエリ等で指定された形式を解釈します。空文字列は PNG です。
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", &domain.PreconditionError{Msg: fmt.Sprintf("unsupported download format %q", raw)}
	}
}

// ContentType は形式に対応する MIME タイプを返します。
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// FileName は zenlogo-<unix ミリ秒>.png 形式のファイル名を返します。
func FileName(t time.Time) string {
	return FileNameFor(t, FormatPNG)
}

// FileNameFor は指定された形式の拡張子でファイル名を返します。
func FileNameFor(t time.Time, f Format) string {
	return fmt.Sprintf("zenlogo-%d.%s", t.UnixMilli(), f.ext())
}

// SelectedPNG は選択中のロゴを PNG として返します。
func SelectedPNG(v session.View) ([]byte, error) {
	return Selected(v, FormatPNG)
}

// Selected は選択中のロゴを指定された形式にエンコードして返します。
// 履歴が空の場合は PreconditionError です。
func Selected(v session.View, f Format) ([]byte, error) {
	logo, ok := v.Selected()
	if !ok {
		return nil, &domain.PreconditionError{Msg: "no logo to download"}
	}
	img, err := logo.Image()
	if err != nil {
		return nil, fmt.Errorf("選択中のロゴを読み込めませんでした: %w", err)
	}

	switch f {
	case FormatJPEG:
		return imgutil.CompressToJPEG(img.Data, imgutil.DefaultJPEGQuality)
	default:
		return imgutil.ToPNG(img.Data)
	}
}
