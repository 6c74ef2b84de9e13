package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

// supportedTypes are the MIME types accepted for upload
var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

// AcquireFromFile validates an uploaded file and turns it into an ImageCapture.
// The MIME type is sniffed from the content; the file name is informational only.
func AcquireFromFile(name string, data []byte) (*ImageCapture, error) {
	if int64(len(data)) > constants.MaxImageFileSize {
		return nil, fmt.Errorf("%w (got %s)", ErrFileTooLarge, humanSize(int64(len(data))))
	}
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if !supportedTypes[contentType] {
		return nil, fmt.Errorf("%w (got %s)", ErrUnsupportedFormat, contentType)
	}

	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	preview, err := previewDataURL(img)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = "upload" + mt.Extension()
	}

	bounds := img.Bounds()
	return &ImageCapture{
		PreviewData: preview,
		SourceFile:  data,
		Filename:    filepath.Base(name),
		ContentType: contentType,
		Origin:      OriginUpload,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// AcquireFromPath reads a file from disk. The size is checked before reading
// so oversized files are never loaded into memory.
func AcquireFromPath(path string) (*ImageCapture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access image %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > constants.MaxImageFileSize {
		return nil, fmt.Errorf("%w (got %s)", ErrFileTooLarge, humanSize(info.Size()))
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided image path
	if err != nil {
		return nil, fmt.Errorf("cannot read image %s: %w", path, err)
	}
	return AcquireFromFile(filepath.Base(path), data)
}
