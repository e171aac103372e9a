package storage

import (
	"bytes"
	"fmt"
	"image"

	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// isSupportedImage сообщает, умеем ли мы строить миниатюру для данного типа.
func isSupportedImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return true
	}
	return false
}

// makeThumbnail строит миниатюру, вписанную в квадрат ThumbnailMaxSide.
// Миниатюра кодируется в исходном формате; webp не имеет энкодера,
// поэтому отдается как JPEG.
func makeThumbnail(data []byte, contentType string) ([]byte, string, error) {
	if !isSupportedImage(contentType) {
		return nil, "", fmt.Errorf("unsupported image type: %s", contentType)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(img, models.ThumbnailMaxSide, models.ThumbnailMaxSide, imaging.Lanczos)

	format, outContentType := encodeFormat(contentType)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), outContentType, nil
}

func encodeFormat(contentType string) (imaging.Format, string) {
	switch contentType {
	case "image/png":
		return imaging.PNG, "image/png"
	case "image/gif":
		return imaging.GIF, "image/gif"
	case "image/bmp":
		return imaging.BMP, "image/bmp"
	default:
		return imaging.JPEG, "image/jpeg"
	}
}

func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
