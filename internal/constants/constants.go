// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Image acquisition constants
const (
	// MaxImageFileSize is the largest image file accepted for enrollment (10 MiB)
	MaxImageFileSize = 10 << 20

	// PreviewMaxSize is the maximum dimension (width or height) of the preview image
	PreviewMaxSize = 512

	// PreviewJPEGQuality is the JPEG quality used when encoding previews
	PreviewJPEGQuality = 85
)

// Camera constants
const (
	// PreferredWidth and PreferredHeight are the ideal capture resolution
	PreferredWidth  = 640
	PreferredHeight = 480

	// MinWidth and MinHeight are the lowest resolution accepted by the preferred profile
	MinWidth  = 480
	MinHeight = 360

	// FacingUser requests the user-facing camera
	FacingUser = "user"

	// CameraReadyTimeout bounds how long OpenCamera waits for the first frame
	CameraReadyTimeout = 10 * time.Second

	// CameraReadyPollInterval is how often the frame size is polled while waiting for readiness
	CameraReadyPollInterval = 100 * time.Millisecond
)

// Workflow constants
const (
	// DefaultAdvanceDelay is the pause between a positive detection and the stage change
	DefaultAdvanceDelay = time.Second
)

// Backend constants
const (
	// DefaultAPIBaseURL is used when FACE_API_BASE_URL is not configured
	DefaultAPIBaseURL = "http://localhost:8000"

	// DefaultHTTPTimeout bounds a single backend round trip
	DefaultHTTPTimeout = 60 * time.Second
)
