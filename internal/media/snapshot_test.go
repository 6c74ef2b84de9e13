package media

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSnapshotDevice_EmptyURL(t *testing.T) {
	if d := NewSnapshotDevice("", nil); d != nil {
		t.Errorf("expected nil device for empty URL, got %#v", d)
	}
}

func TestSnapshotDevice_OpenAndCapture(t *testing.T) {
	frame := pngBytes(t, solidImage(40, 30, color.RGBA{10, 20, 30, 255}))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("facing") != "user" {
			http.Error(w, "facing required", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(frame)
	}))
	defer server.Close()

	a := testAcquirer(NewSnapshotDevice(server.URL+"/snapshot", server.Client()))

	if err := a.OpenCamera(context.Background()); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	if !a.CameraActive() {
		t.Fatal("expected camera to be active")
	}

	capture, err := a.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if capture.Width != 40 || capture.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", capture.Width, capture.Height)
	}
	if a.CameraOpen() {
		t.Error("expected camera closed after capture")
	}
}

func TestSnapshotDevice_FallbackWhenResolutionRejected(t *testing.T) {
	frame := pngBytes(t, solidImage(8, 8, color.White))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("width") != "" {
			http.Error(w, "unsupported resolution", http.StatusBadRequest)
			return
		}
		w.Write(frame)
	}))
	defer server.Close()

	a := testAcquirer(NewSnapshotDevice(server.URL, server.Client()))

	if err := a.OpenCamera(context.Background()); err != nil {
		t.Fatalf("OpenCamera failed: %v", err)
	}
	if !a.CameraActive() {
		t.Error("expected camera to be active with minimal constraints")
	}
	a.CloseCamera()
}

func TestSnapshotDevice_StatusMapping(t *testing.T) {
	cases := map[int]CameraErrorKind{
		http.StatusUnauthorized:        CameraPermissionDenied,
		http.StatusForbidden:           CameraPermissionDenied,
		http.StatusNotFound:            CameraDeviceNotFound,
		http.StatusLocked:              CameraDeviceBusy,
		http.StatusServiceUnavailable:  CameraDeviceBusy,
		http.StatusBadRequest:          CameraConstraintsUnsupported,
		http.StatusInternalServerError: CameraUnknown,
	}

	for status, kind := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			a := testAcquirer(NewSnapshotDevice(server.URL, server.Client()))
			err := a.OpenCamera(context.Background())

			var ce *CameraError
			if !errors.As(err, &ce) {
				t.Fatalf("expected CameraError, got %v", err)
			}
			if ce.Kind != kind {
				t.Errorf("expected %s, got %s", kind, ce.Kind)
			}
		})
	}
}

func TestSnapshotDevice_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	a := testAcquirer(NewSnapshotDevice(url, &http.Client{Timeout: time.Second}))
	err := a.OpenCamera(context.Background())

	var ce *CameraError
	if !errors.As(err, &ce) || ce.Kind != CameraDeviceNotFound {
		t.Fatalf("expected DeviceNotFound, got %v", err)
	}
}

func TestSnapshotDevice_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	// Default client does not trust the test server certificate.
	a := testAcquirer(NewSnapshotDevice(server.URL, &http.Client{Timeout: time.Second}))
	err := a.OpenCamera(context.Background())

	var ce *CameraError
	if !errors.As(err, &ce) || ce.Kind != CameraSecurityBlocked {
		t.Fatalf("expected SecurityBlocked, got %v", err)
	}
}

func TestSnapshotStream_StopIsIdempotent(t *testing.T) {
	frame := pngBytes(t, solidImage(4, 4, color.White))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(frame)
	}))
	defer server.Close()

	d := NewSnapshotDevice(server.URL, server.Client())
	s, err := d.Open(context.Background(), MinimalConstraints())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	s.Stop()
	s.Stop()

	if _, err := s.Frame(context.Background()); err == nil {
		t.Error("expected Frame to fail after Stop")
	}
}
