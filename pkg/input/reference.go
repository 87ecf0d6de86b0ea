package input

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/shouni/zen-logo-kit/pkg/domain"
)

// MaxReferenceBytes は参照画像として受け付ける最大サイズ (5MB) です。
const MaxReferenceBytes = 5 * 1024 * 1024

var (
	ErrTooLarge = errors.New("reference image exceeds 5MB")
	ErrNotImage = errors.New("reference file is not an image")
	ErrEmpty    = errors.New("reference file is empty")
)

// LoadReferenceFile はローカルの画像ファイルを参照画像として読み込みます。
func LoadReferenceFile(path string) (*domain.ReferenceImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("参照画像を開けませんでした: %w", err)
	}
	defer f.Close()
	return ReadReference(f)
}

// ReadReference は r から最大 MaxReferenceBytes を読み込み、MIME タイプを判定します。
func ReadReference(r io.Reader) (*domain.ReferenceImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReferenceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
	}
	return FromBytes(data)
}

// FromBytes はバイト列を検証して ReferenceImage に変換します。
func FromBytes(data []byte) (*domain.ReferenceImage, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxReferenceBytes {
		return nil, ErrTooLarge
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w (detected %s)", ErrNotImage, mimeType)
	}
	return &domain.ReferenceImage{Data: data, MIMEType: mimeType}, nil
}

// FromDataURL はブラウザから送られた data URL を検証して ReferenceImage に変換します。
// 空文字は参照画像なしとして nil を返します。
func FromDataURL(s string) (*domain.ReferenceImage, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ref, err := domain.ParseDataURL(s)
	if err != nil {
		return nil, &domain.PreconditionError{Msg: "referenceImage: " + err.Error()}
	}
	// 宣言された MIME タイプより判定結果を優先する。
	return FromBytes(ref.Data)
}
