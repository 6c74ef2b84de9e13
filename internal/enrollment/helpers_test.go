package enrollment

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{120, 90, 60, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func validDraft() Draft {
	return Draft{
		IDNumber:  "001203004567",
		FullName:  "Nguyen Van An",
		Gender:    "male",
		BirthDate: "1990-04-12",
		Address:   "12 Ly Thuong Kiet, Ha Noi",
	}
}

func oneFace() *faceapi.DetectionOutcome {
	return &faceapi.DetectionOutcome{
		Success:       true,
		FacesDetected: 1,
		Faces:         []faceapi.FaceCandidate{{Confidence: 97.4}},
	}
}

func noFace() *faceapi.DetectionOutcome {
	return &faceapi.DetectionOutcome{Success: true, Message: "No face detected"}
}

// fakeAPI records calls and can block enroll until released.
type fakeAPI struct {
	mu          sync.Mutex
	outcome     *faceapi.DetectionOutcome
	detectErr   error
	enrollErr   error
	detectCalls int
	enrollCalls int
	lastFields  faceapi.EnrollFields
	lastImage   faceapi.Image

	enrollStarted chan struct{}
	enrollGate    chan struct{}

	// the next DetectFace call closes detectStarted and waits for detectGate
	detectStarted chan struct{}
	detectGate    chan struct{}
}

func (f *fakeAPI) DetectFace(ctx context.Context, img faceapi.Image) (*faceapi.DetectionOutcome, error) {
	f.mu.Lock()
	f.detectCalls++
	f.lastImage = img
	started, gate := f.detectStarted, f.detectGate
	f.detectStarted, f.detectGate = nil, nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	out := *f.outcome
	return &out, nil
}

func (f *fakeAPI) EnrollUser(ctx context.Context, fields faceapi.EnrollFields, img faceapi.Image) (*faceapi.EnrollmentResult, error) {
	f.mu.Lock()
	f.enrollCalls++
	f.lastFields = fields
	f.lastImage = img
	started, gate, err := f.enrollStarted, f.enrollGate, f.enrollErr
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &faceapi.EnrollmentResult{
		Success:     true,
		Message:     "User enrolled",
		UserID:      42,
		FaceID:      "face-42",
		SubmittedAt: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}, nil
}

func (f *fakeAPI) calls() (detect, enroll int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detectCalls, f.enrollCalls
}

// readyStream renders frames right away
type readyStream struct {
	mu      sync.Mutex
	ready   chan struct{}
	stopped bool
}

func (s *readyStream) Ready() <-chan struct{} { return s.ready }
func (s *readyStream) Size() (int, int)       { return 8, 6 }

func (s *readyStream) Frame(ctx context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 8, 6)), nil
}

func (s *readyStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *readyStream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type readyDevice struct {
	mu      sync.Mutex
	streams []*readyStream
}

func (d *readyDevice) Open(ctx context.Context, c media.Constraints) (media.Stream, error) {
	s := &readyStream{ready: make(chan struct{})}
	close(s.ready)
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *readyDevice) last() *readyStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

func newTestWorkflow(api *fakeAPI, delay time.Duration) *Workflow {
	return New(api, nil, Options{AdvanceDelay: delay})
}

// uploadAndDetect brings a fresh workflow to the details stage.
func uploadAndDetect(t *testing.T, w *Workflow) {
	t.Helper()
	if _, err := w.UploadFile("face.png", pngBytes(t)); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if _, err := w.Detect(context.Background()); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	assertStage(t, w, StageCollectDetails)
}

func fillDraft(t *testing.T, w *Workflow, d Draft) {
	t.Helper()
	for _, f := range Fields {
		if err := w.SetField(f, d.Get(f)); err != nil {
			t.Fatalf("SetField(%s) failed: %v", f, err)
		}
	}
}

func assertStage(t *testing.T, w *Workflow, want Stage) {
	t.Helper()
	if got := w.Stage(); got != want {
		t.Fatalf("expected stage %s, got %s", want, got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
