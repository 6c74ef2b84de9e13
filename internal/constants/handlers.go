package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the largest multipart request accepted by the local server.
	// Files between MaxImageFileSize and this limit fail with ErrFileTooLarge.
	MaxUploadSize = MaxImageFileSize + 1<<20
)

// User status values accepted by the backend
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Local web session constants
const (
	// SessionIdleTimeout is how long an untouched browser session keeps its workflow
	SessionIdleTimeout = 30 * time.Minute
	// SessionSweepInterval is how often idle sessions are released
	SessionSweepInterval = time.Minute
	// RequestTimeout bounds a single request to the local server
	RequestTimeout = 2 * time.Minute
)
