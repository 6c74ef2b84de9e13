package media

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"syscall"

	"github.com/kozaktomas/face-enroll/internal/constants"
)

// SnapshotDevice is a network camera that serves the current frame as a JPEG
// or PNG image on every GET. Constraints are passed as width/height/facing
// query parameters; cameras that cannot honour them answer 400.
type SnapshotDevice struct {
	URL    string
	Client *http.Client
}

// NewSnapshotDevice returns nil when url is empty so the caller gets an
// Acquirer without camera support.
func NewSnapshotDevice(rawURL string, client *http.Client) Device {
	if rawURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: constants.CameraReadyTimeout}
	}
	return &SnapshotDevice{URL: rawURL, Client: client}
}

// Open checks that the camera answers and starts a stream. The stream becomes
// ready once the first frame has been fetched and decoded.
func (d *SnapshotDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if d.URL == "" {
		return nil, ErrDeviceUnsupported
	}
	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid snapshot URL %q", ErrDeviceNotFound, d.URL)
	}

	q := u.Query()
	if c.IdealWidth > 0 && c.IdealHeight > 0 {
		q.Set("width", strconv.Itoa(c.IdealWidth))
		q.Set("height", strconv.Itoa(c.IdealHeight))
	}
	if c.MinWidth > 0 && c.MinHeight > 0 {
		q.Set("min_width", strconv.Itoa(c.MinWidth))
		q.Set("min_height", strconv.Itoa(c.MinHeight))
	}
	if c.FacingMode != "" {
		q.Set("facing", c.FacingMode)
	}
	u.RawQuery = q.Encode()

	// Probe once so permission and constraint failures surface from Open.
	resp, err := d.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &snapshotStream{
		device: d,
		url:    u.String(),
		ready:  make(chan struct{}),
		cancel: cancel,
	}
	go s.warmUp(streamCtx)
	return s, nil
}

func (d *SnapshotDevice) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png")

	resp, err := d.Client.Do(req) //nolint:gosec // URL configured by the operator
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrDeviceDenied, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrDeviceNotFound, code)
	case code == http.StatusConflict || code == http.StatusLocked || code == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrDeviceBusy, code)
	case code == http.StatusBadRequest || code == http.StatusRequestedRangeNotSatisfiable || code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d", ErrDeviceOverconstrained, code)
	default:
		return fmt.Errorf("snapshot request failed with status %d", code)
	}
}

func classifyTransportError(err error) error {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostnameErr      x509.HostnameError
		certInvalid      x509.CertificateInvalidError
		verifyErr        *tls.CertificateVerificationError
		recordErr        tls.RecordHeaderError
		dnsErr           *net.DNSError
	)
	switch {
	case errors.As(err, &unknownAuthority), errors.As(err, &hostnameErr),
		errors.As(err, &certInvalid), errors.As(err, &verifyErr), errors.As(err, &recordErr):
		return fmt.Errorf("%w: %v", ErrDeviceInsecure, err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.As(err, &dnsErr):
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	default:
		return err
	}
}

type snapshotStream struct {
	device *SnapshotDevice
	url    string
	ready  chan struct{}
	cancel context.CancelFunc

	mu        sync.Mutex
	width     int
	height    int
	stopped   bool
	readyOnce sync.Once
	stopOnce  sync.Once
}

// warmUp fetches the first frame. On failure the stream simply never becomes ready.
func (s *snapshotStream) warmUp(ctx context.Context) {
	_, _ = s.Frame(ctx)
}

func (s *snapshotStream) Ready() <-chan struct{} {
	return s.ready
}

func (s *snapshotStream) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Frame fetches and decodes a fresh snapshot.
func (s *snapshotStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, errStreamStopped
	}

	resp, err := s.device.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(io.LimitReader(resp.Body, constants.MaxImageFileSize))
	if err != nil {
		return nil, fmt.Errorf("could not decode snapshot: %w", err)
	}

	b := img.Bounds()
	s.mu.Lock()
	s.width, s.height = b.Dx(), b.Dy()
	s.mu.Unlock()
	if !b.Empty() {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	return img, nil
}

func (s *snapshotStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.cancel()
	})
}

var errStreamStopped = errors.New("stream stopped")
