package media

import (
	"context"
	"encoding/base64"
	"image"
	"strings"
	"sync"
	"testing"
)

func decodeDataURL(t *testing.T, dataURL string) []byte {
	t.Helper()
	_, payload, ok := strings.Cut(dataURL, ";base64,")
	if !ok {
		t.Fatalf("not a base64 data URL: %.30q", dataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	return data
}

// fakeStream is a controllable Stream for tests
type fakeStream struct {
	mu       sync.Mutex
	ready    chan struct{}
	once     sync.Once
	width    int
	height   int
	frame    image.Image
	frameErr error
	stops    int
}

func newFakeStream(frame image.Image) *fakeStream {
	return &fakeStream{ready: make(chan struct{}), frame: frame}
}

// render makes the stream deliver frames: sets the size and closes Ready.
func (s *fakeStream) render() {
	s.mu.Lock()
	if s.frame != nil {
		b := s.frame.Bounds()
		s.width, s.height = b.Dx(), b.Dy()
	}
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })
}

func (s *fakeStream) setSize(w, h int) {
	s.mu.Lock()
	s.width, s.height = w, h
	s.mu.Unlock()
}

func (s *fakeStream) Ready() <-chan struct{} { return s.ready }

func (s *fakeStream) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.frame, nil
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *fakeStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// fakeDevice hands out streams and records the constraints it was asked for
type fakeDevice struct {
	mu           sync.Mutex
	preferredErr error
	minimalErr   error
	streams      []*fakeStream
	next         func() *fakeStream
	calls        []Constraints

	// when gate is set, Open closes entered and blocks until gate is closed
	gate    chan struct{}
	entered chan struct{}
}

func (d *fakeDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if d.gate != nil {
		close(d.entered)
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)

	if c.IdealWidth > 0 && d.preferredErr != nil {
		return nil, d.preferredErr
	}
	if c.IdealWidth == 0 && d.minimalErr != nil {
		return nil, d.minimalErr
	}
	s := d.next()
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}
