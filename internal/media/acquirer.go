package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

// cameraSession is the open camera. It exists only between OpenCamera and
// CloseCamera and is owned by the Acquirer.
type cameraSession struct {
	stream Stream
	active bool
}

// Acquirer owns at most one camera session at a time.
type Acquirer struct {
	mu        sync.Mutex
	device    Device
	session   *cameraSession
	lastError string
	// generation changes on every CloseCamera; an Open that started under an
	// older generation must not install its stream.
	generation uint64

	readyTimeout time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// AcquirerOption configures an Acquirer
type AcquirerOption func(*Acquirer)

// WithReadyTimeout bounds how long OpenCamera waits for the first frame.
func WithReadyTimeout(d time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		if d > 0 {
			a.readyTimeout = d
		}
	}
}

// WithPollInterval sets how often the frame size is polled while starting.
func WithPollInterval(d time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// WithLogger sets the logger used for camera diagnostics.
func WithLogger(l *zap.Logger) AcquirerOption {
	return func(a *Acquirer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAcquirer creates an Acquirer. A nil device means camera mode is not
// supported and only file upload is available.
func NewAcquirer(device Device, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		device:       device,
		readyTimeout: constants.CameraReadyTimeout,
		pollInterval: constants.CameraReadyPollInterval,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CameraSupported reports whether a camera device is configured
func (a *Acquirer) CameraSupported() bool {
	return a.device != nil
}

// CameraOpen reports whether a camera session exists, active or still starting
func (a *Acquirer) CameraOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// CameraActive reports whether the open camera renders frames
func (a *Acquirer) CameraActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.active
}

// LastError returns the user-facing message of the last camera failure, or ""
func (a *Acquirer) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

// OpenCamera opens the device with the preferred profile, retrying with minimal
// constraints when the device rejects it, and waits until frames render.
// Any previously open session is closed first.
func (a *Acquirer) OpenCamera(ctx context.Context) error {
	a.CloseCamera()

	if a.device == nil {
		return a.fail(&CameraError{Kind: CameraNotSupported, Err: ErrDeviceUnsupported})
	}

	a.mu.Lock()
	gen := a.generation
	a.mu.Unlock()

	stream, err := a.device.Open(ctx, PreferredConstraints())
	if err != nil && a.generationIs(gen) {
		a.logger.Debug("preferred camera profile rejected, trying minimal constraints", zap.Error(err))
		stream, err = a.device.Open(ctx, MinimalConstraints())
	}
	if err != nil {
		if !a.generationIs(gen) {
			return ErrCameraClosed
		}
		return a.fail(categorize(err))
	}

	sess := &cameraSession{stream: stream}
	a.mu.Lock()
	if a.generation != gen {
		a.mu.Unlock()
		stream.Stop()
		a.logger.Debug("camera closed while opening, stream released")
		return ErrCameraClosed
	}
	a.session = sess
	a.lastError = ""
	a.mu.Unlock()

	return a.waitReady(ctx, sess)
}

func (a *Acquirer) generationIs(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation == gen
}

// waitReady applies the readiness transition on the first of: the stream's
// ready signal, or the poll seeing a non-zero frame size. Both triggers call
// the same idempotent activate.
func (a *Acquirer) waitReady(ctx context.Context, sess *cameraSession) error {
	timer := time.NewTimer(a.readyTimeout)
	defer timer.Stop()
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	ready := sess.stream.Ready()
	for {
		if w, h := sess.stream.Size(); w > 0 && h > 0 {
			return a.activate(sess)
		}
		select {
		case <-ready:
			return a.activate(sess)
		case <-ticker.C:
		case <-timer.C:
			a.closeSession(sess)
			return a.fail(&CameraError{Kind: CameraUnknown, Err: fmt.Errorf("no video frames after %s", a.readyTimeout)})
		case <-ctx.Done():
			a.closeSession(sess)
			return ctx.Err()
		}
	}
}

func (a *Acquirer) activate(sess *cameraSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != sess {
		return ErrCameraClosed
	}
	if !sess.active {
		sess.active = true
		w, h := sess.stream.Size()
		a.logger.Info("camera started", zap.Int("width", w), zap.Int("height", h))
	}
	return nil
}

func (a *Acquirer) fail(err *CameraError) error {
	a.mu.Lock()
	a.lastError = err.Kind.Message()
	a.mu.Unlock()
	a.logger.Warn("camera access failed", zap.String("kind", string(err.Kind)), zap.Error(err.Err))
	return err
}

// Capture grabs the current frame, mirrors it to match the self-view and
// encodes it as PNG. The camera is closed after a successful capture.
func (a *Acquirer) Capture(ctx context.Context) (*ImageCapture, error) {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()

	if sess == nil || !sess.active {
		return nil, ErrCaptureNotReady
	}
	if w, h := sess.stream.Size(); w == 0 || h == 0 {
		return nil, ErrCaptureNotReady
	}

	frame, err := sess.stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return nil, ErrCaptureNotReady
	}

	mirrored := mirror(frame)
	data, err := encodePNG(mirrored)
	if err != nil {
		return nil, err
	}
	preview, err := previewDataURL(mirrored)
	if err != nil {
		return nil, err
	}

	a.closeSession(sess)

	return &ImageCapture{
		PreviewData: preview,
		SourceFile:  data,
		Filename:    fmt.Sprintf("camera-capture-%d.png", a.now().UnixMilli()),
		ContentType: "image/png",
		Origin:      OriginCamera,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// CloseCamera stops all device tracks and forgets the session. It is safe to
// call at any time, any number of times.
func (a *Acquirer) CloseCamera() {
	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.lastError = ""
	a.generation++
	a.mu.Unlock()

	if sess != nil {
		sess.stream.Stop()
		a.logger.Debug("camera stopped")
	}
}

// closeSession closes sess only if it is still the current session.
func (a *Acquirer) closeSession(sess *cameraSession) {
	a.mu.Lock()
	current := a.session == sess
	if current {
		a.session = nil
	}
	a.mu.Unlock()

	// The stream is stopped even when it was already replaced.
	sess.stream.Stop()
}

// Close releases the camera on teardown. It implements io.Closer.
func (a *Acquirer) Close() error {
	a.CloseCamera()
	return nil
}
