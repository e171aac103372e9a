package storage

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

func testImage(t *testing.T, width, height int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, nil)
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func decodeBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestMakeThumbnail_ShrinksLargeImage(t *testing.T) {
	data := testImage(t, 1200, 800, encodeJPEG)

	thumb, contentType, err := makeThumbnail(data, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)

	bounds := decodeBounds(t, thumb)
	assert.LessOrEqual(t, bounds.Dx(), 300)
	assert.LessOrEqual(t, bounds.Dy(), 300)
	// пропорции сохраняются
	assert.Equal(t, 300, bounds.Dx())
	assert.Equal(t, 200, bounds.Dy())
}

func TestMakeThumbnail_KeepsSmallImage(t *testing.T) {
	data := testImage(t, 100, 60, encodePNG)

	thumb, contentType, err := makeThumbnail(data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	bounds := decodeBounds(t, thumb)
	assert.Equal(t, 100, bounds.Dx())
	assert.Equal(t, 60, bounds.Dy())
}

func TestMakeThumbnail_RejectsUnsupportedType(t *testing.T) {
	_, _, err := makeThumbnail([]byte("not an image"), "application/pdf")
	assert.Error(t, err)
}

func TestMakeThumbnail_RejectsCorruptData(t *testing.T) {
	_, _, err := makeThumbnail([]byte("garbage"), "image/jpeg")
	assert.Error(t, err)
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, isSupportedImage("image/jpeg"))
	assert.True(t, isSupportedImage("image/webp"))
	assert.False(t, isSupportedImage("application/pdf"))
	assert.False(t, isSupportedImage("video/mp4"))
}

func TestObjectKeys(t *testing.T) {
	key := objectKey("t-1", "Фото Принтера.JPG")
	assert.Contains(t, key, "tasks/t-1/")
	assert.Contains(t, key, ".jpg")

	thumb := thumbKey("tasks/t-1/abc.webp", "image/jpeg")
	assert.Equal(t, "tasks/t-1/abc_thumb.jpg", thumb)

	thumb = thumbKey("tasks/t-1/abc.png", "image/png")
	assert.Equal(t, "tasks/t-1/abc_thumb.png", thumb)
}
