package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// テスト用のダミー画像（10x10の金色の正方形）を作成するヘルパー
func createDummyImageData(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{212, 175, 55, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestToPNG(t *testing.T) {
	t.Run("PNGはそのまま返すのだ", func(t *testing.T) {
		in := createDummyImageData(t, "png")
		got, err := ToPNG(in)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("JPEGはPNGに変換するのだ", func(t *testing.T) {
		got, err := ToPNG(createDummyImageData(t, "jpeg"))
		require.NoError(t, err)

		_, format, err := image.Decode(bytes.NewReader(got))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("不正なデータはエラー", func(t *testing.T) {
		_, err := ToPNG([]byte("this is not an image"))
		assert.Error(t, err)
	})
}

func TestCompressToJPEG(t *testing.T) {
	t.Run("正常なPNG画像をJPEGに圧縮できること", func(t *testing.T) {
		got, err := CompressToJPEG(createDummyImageData(t, "png"), 75)
		require.NoError(t, err)
		require.NotEmpty(t, got)

		_, format, err := image.Decode(bytes.NewReader(got))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("不正なデータを与えた場合にエラーを返すこと", func(t *testing.T) {
		_, err := CompressToJPEG([]byte("this is not an image"), 75)
		assert.Error(t, err)
	})
}
