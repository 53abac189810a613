package previews

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MinWidth = 16
	MaxWidth = 2048
)

// ClampWidth bounds a requested thumbnail width. Zero means "no resize".
func ClampWidth(width int) int {
	switch {
	case width <= 0:
		return 0
	case width < MinWidth:
		return MinWidth
	case width > MaxWidth:
		return MaxWidth
	}
	return width
}

// Resize scales an encoded image to width, keeping the aspect ratio, and
// re-encodes it in the format implied by name (JPEG when unknown). It
// returns the new bytes and their content type.
func Resize(data []byte, name string, width int) ([]byte, string, error) {
	width = ClampWidth(width)
	if width == 0 {
		return nil, "", fmt.Errorf("invalid width")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), contentType(format, name), nil
}

func contentType(format imaging.Format, name string) string {
	switch format {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.JPEG:
		return "image/jpeg"
	}
	return "image/" + strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
