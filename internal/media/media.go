// Package media acquires a single still image for enrollment, either from a
// user-selected file or from a live camera device.
package media

import (
	"errors"
	"fmt"
)

// Origin tells where an ImageCapture came from
type Origin string

const (
	OriginUpload Origin = "upload"
	OriginCamera Origin = "camera"
)

// ImageCapture is one acquired image. SourceFile holds the bytes submitted to
// the backend, PreviewData a data URL suitable for an <img> tag.
type ImageCapture struct {
	PreviewData string
	SourceFile  []byte
	Filename    string
	ContentType string
	Origin      Origin
	Width       int
	Height      int
}

// Size returns the byte size of the source file
func (c *ImageCapture) Size() int {
	if c == nil {
		return 0
	}
	return len(c.SourceFile)
}

var (
	// ErrFileTooLarge is returned for files over constants.MaxImageFileSize
	ErrFileTooLarge = errors.New("image file too large, the limit is 10 MiB")
	// ErrUnsupportedFormat is returned for files that are not a supported image
	ErrUnsupportedFormat = errors.New("unsupported image format, use JPEG, PNG, GIF, BMP or WebP")
	// ErrCaptureNotReady is returned when capturing before the camera renders frames
	ErrCaptureNotReady = errors.New("camera is not ready, wait a moment and try again")
	// ErrCameraClosed is returned when the camera was closed while it was starting
	ErrCameraClosed = errors.New("camera was closed while starting")
)

// IsMediaError reports whether err came from image acquisition and can be
// recovered from by retrying or switching between upload and camera.
func IsMediaError(err error) bool {
	var ce *CameraError
	return errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCaptureNotReady) ||
		errors.Is(err, ErrCameraClosed) ||
		errors.As(err, &ce)
}

func humanSize(n int64) string {
	const mib = 1 << 20
	if n >= mib {
		return fmt.Sprintf("%.1f MiB", float64(n)/mib)
	}
	return fmt.Sprintf("%d KiB", n>>10)
}

// Message returns the text shown to the user for an acquisition error
func Message(err error) string {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce.Kind.Message()
	}
	return err.Error()
}
