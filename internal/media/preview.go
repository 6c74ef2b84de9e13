package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// previewDataURL scales the image to fit within constants.PreviewMaxSize and
// returns it as a base64 JPEG data URL.
func previewDataURL(img image.Image) (string, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := width, height
	if width > constants.PreviewMaxSize || height > constants.PreviewMaxSize {
		if width > height {
			newWidth = constants.PreviewMaxSize
			newHeight = max(1, int(float64(height)*float64(constants.PreviewMaxSize)/float64(width)))
		} else {
			newHeight = constants.PreviewMaxSize
			newWidth = max(1, int(float64(width)*float64(constants.PreviewMaxSize)/float64(height)))
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: constants.PreviewJPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// mirror copies src into a new RGBA bitmap flipped horizontally, so the captured
// photo matches the mirrored self-view shown while the camera is open.
func mirror(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	w := b.Dx()
	for y := 0; y < dst.Rect.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i, j := 0, w-1; i < j; i, j = i+1, j-1 {
			a, c := row[i*4:i*4+4], row[j*4:j*4+4]
			a[0], a[1], a[2], a[3], c[0], c[1], c[2], c[3] = c[0], c[1], c[2], c[3], a[0], a[1], a[2], a[3]
		}
	}
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}
	return buf.Bytes(), nil
}
