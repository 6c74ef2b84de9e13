package media

import (
	"context"
	"errors"
	"image"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

// Constraints describe the requested video profile. Zero values mean "no preference".
type Constraints struct {
	IdealWidth  int
	IdealHeight int
	MinWidth    int
	MinHeight   int
	FacingMode  string
}

// PreferredConstraints asks for 640x480 from the user-facing camera
func PreferredConstraints() Constraints {
	return Constraints{
		IdealWidth:  constants.PreferredWidth,
		IdealHeight: constants.PreferredHeight,
		MinWidth:    constants.MinWidth,
		MinHeight:   constants.MinHeight,
		FacingMode:  constants.FacingUser,
	}
}

// MinimalConstraints only asks for the user-facing camera
func MinimalConstraints() Constraints {
	return Constraints{FacingMode: constants.FacingUser}
}

// Device opens video streams. Video only, no audio is ever requested.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live video stream.
//
// Ready is closed once the stream renders frames. A stream whose device granted
// access but never delivers a frame never becomes ready. Size returns 0x0 until
// the first frame is known. Stop releases all device tracks and must be safe to
// call more than once.
type Stream interface {
	Ready() <-chan struct{}
	Size() (width, height int)
	Frame(ctx context.Context) (image.Image, error)
	Stop()
}

// Device failures. Implementations wrap one of these so OpenCamera can
// categorize the failure.
var (
	ErrDeviceUnsupported     = errors.New("video capture is not supported")
	ErrDeviceDenied          = errors.New("camera access denied")
	ErrDeviceNotFound        = errors.New("no camera found")
	ErrDeviceBusy            = errors.New("camera is in use")
	ErrDeviceOverconstrained = errors.New("camera cannot satisfy constraints")
	ErrDeviceInsecure        = errors.New("camera access blocked by security policy")
)

// CameraErrorKind categorizes a camera access failure
type CameraErrorKind string

const (
	CameraNotSupported           CameraErrorKind = "NotSupported"
	CameraPermissionDenied       CameraErrorKind = "PermissionDenied"
	CameraDeviceNotFound         CameraErrorKind = "DeviceNotFound"
	CameraDeviceBusy             CameraErrorKind = "DeviceBusy"
	CameraConstraintsUnsupported CameraErrorKind = "ConstraintsUnsupported"
	CameraSecurityBlocked        CameraErrorKind = "SecurityBlocked"
	CameraUnknown                CameraErrorKind = "Unknown"
)

// Message is the user-facing explanation for the kind
func (k CameraErrorKind) Message() string {
	switch k {
	case CameraNotSupported:
		return "Camera not supported. Please use file upload instead."
	case CameraPermissionDenied:
		return "Camera access denied. Please allow camera permissions and try again."
	case CameraDeviceNotFound:
		return "No camera found. Please check if your device has a camera."
	case CameraDeviceBusy:
		return "Camera is being used by another application. Please close other apps and try again."
	case CameraConstraintsUnsupported:
		return "Camera settings not supported. Please try again."
	case CameraSecurityBlocked:
		return "Camera access blocked by security policy. Please check your settings."
	default:
		return "Unable to access camera. Please try again."
	}
}

// CameraError is a categorized camera access failure
type CameraError struct {
	Kind CameraErrorKind
	Err  error
}

func (e *CameraError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

// categorize maps a device failure onto a CameraError
func categorize(err error) *CameraError {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce
	}

	kind := CameraUnknown
	switch {
	case errors.Is(err, ErrDeviceUnsupported):
		kind = CameraNotSupported
	case errors.Is(err, ErrDeviceDenied):
		kind = CameraPermissionDenied
	case errors.Is(err, ErrDeviceNotFound):
		kind = CameraDeviceNotFound
	case errors.Is(err, ErrDeviceBusy):
		kind = CameraDeviceBusy
	case errors.Is(err, ErrDeviceOverconstrained):
		kind = CameraConstraintsUnsupported
	case errors.Is(err, ErrDeviceInsecure):
		kind = CameraSecurityBlocked
	}
	return &CameraError{Kind: kind, Err: err}
}
