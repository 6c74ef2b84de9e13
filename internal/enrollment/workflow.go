// Package enrollment drives one enrollment attempt through its three stages:
// acquire an image, collect identity details, confirm the result.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/logging"
	"github.com/kozaktomas/face-enroll/internal/media"
)

// Stage of the enrollment workflow
type Stage string

const (
	StageAcquireImage   Stage = "acquire_image"
	StageCollectDetails Stage = "collect_details"
	StageComplete       Stage = "complete"
)

// Step returns the 1-based position of the stage in the progress indicator
func (s Stage) Step() int {
	switch s {
	case StageCollectDetails:
		return 2
	case StageComplete:
		return 3
	default:
		return 1
	}
}

var (
	ErrWrongStage     = errors.New("not allowed in the current stage")
	ErrNoImage        = errors.New("no image acquired")
	ErrNotDetected    = errors.New("face detection has not finished for this image")
	ErrDetectInFlight = errors.New("face detection is already running")
	ErrSubmitInFlight = errors.New("enrollment is already being submitted")
	ErrStaleResponse  = errors.New("response belongs to an abandoned attempt")
)

// APIClient is the part of the backend client the workflow needs.
type APIClient interface {
	DetectFace(ctx context.Context, img faceapi.Image) (*faceapi.DetectionOutcome, error)
	EnrollUser(ctx context.Context, fields faceapi.EnrollFields, img faceapi.Image) (*faceapi.EnrollmentResult, error)
}

// Options configures a Workflow
type Options struct {
	// AdvanceDelay is the pause between a positive detection and the move to
	// the details stage. Zero or less advances immediately.
	AdvanceDelay time.Duration
	Registry     *Registry
	Logger       *zap.Logger
}

// Confirmation is what the complete stage shows
type Confirmation struct {
	Result      faceapi.EnrollmentResult `json:"result"`
	SubmittedAt time.Time                `json:"submitted_at"`
	Details     Draft                    `json:"details"`
	PreviewData string                   `json:"preview_data,omitempty"`
}

// Workflow is a single enrollment attempt. All methods are safe for
// concurrent use; no lock is held while the backend or the camera is called.
type Workflow struct {
	mu sync.Mutex

	api          APIClient
	acq          *media.Acquirer
	registry     *Registry
	logger       *zap.Logger
	advanceDelay time.Duration

	attemptID string
	stage     Stage

	image        *media.ImageCapture
	detection    *faceapi.DetectionOutcome
	detectFailed bool
	detecting    bool
	advanceTimer *time.Timer

	draft        Draft
	fieldErrors  FieldErrors
	submitting   bool
	confirmation *Confirmation

	lastError string
}

// New creates a workflow in the acquire image stage. A nil acquirer means
// only file upload is available.
func New(api APIClient, acq *media.Acquirer, opts Options) *Workflow {
	if acq == nil {
		acq = media.NewAcquirer(nil)
	}
	w := &Workflow{
		api:          api,
		acq:          acq,
		registry:     opts.Registry,
		logger:       opts.Logger,
		advanceDelay: opts.AdvanceDelay,
	}
	if w.registry == nil {
		w.registry = NewRegistry()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.resetLocked()
	return w
}

// Registry returns the registry the workflow records into
func (w *Workflow) Registry() *Registry {
	return w.registry
}

// Stage returns the current stage
func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// AttemptID identifies the current attempt. It changes on every Reset.
func (w *Workflow) AttemptID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attemptID
}

// UploadFile validates a user-selected file and makes it the current image.
func (w *Workflow) UploadFile(name string, data []byte) (*media.ImageCapture, error) {
	return w.acceptUpload(func() (*media.ImageCapture, error) {
		return media.AcquireFromFile(name, data)
	})
}

// UploadPath is UploadFile for a file on disk. Oversized files are rejected
// before they are read.
func (w *Workflow) UploadPath(path string) (*media.ImageCapture, error) {
	return w.acceptUpload(func() (*media.ImageCapture, error) {
		return media.AcquireFromPath(path)
	})
}

func (w *Workflow) acceptUpload(acquire func() (*media.ImageCapture, error)) (*media.ImageCapture, error) {
	w.mu.Lock()
	if err := w.requireStageLocked("upload", StageAcquireImage); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	attempt := w.attemptID
	w.mu.Unlock()

	img, err := acquire()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attemptID != attempt {
		return nil, ErrStaleResponse
	}
	if err != nil {
		w.lastError = media.Message(err)
		return nil, err
	}
	// An upload replaces a live camera preview.
	w.acq.CloseCamera()
	w.setImageLocked(img)
	return img, nil
}

// OpenCamera starts the camera and waits until it renders frames.
func (w *Workflow) OpenCamera(ctx context.Context) error {
	w.mu.Lock()
	if err := w.requireStageLocked("open camera", StageAcquireImage); err != nil {
		w.mu.Unlock()
		return err
	}
	attempt := w.attemptID
	w.mu.Unlock()

	err := w.acq.OpenCamera(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attemptID != attempt {
		w.acq.CloseCamera()
		return ErrStaleResponse
	}
	if err != nil {
		w.lastError = media.Message(err)
		return err
	}
	w.lastError = ""
	return nil
}

// Capture takes the current camera frame as the image. The camera is closed
// afterwards.
func (w *Workflow) Capture(ctx context.Context) (*media.ImageCapture, error) {
	w.mu.Lock()
	if err := w.requireStageLocked("capture", StageAcquireImage); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	attempt := w.attemptID
	w.mu.Unlock()

	img, err := w.acq.Capture(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attemptID != attempt {
		return nil, ErrStaleResponse
	}
	if err != nil {
		w.lastError = media.Message(err)
		return nil, err
	}
	w.setImageLocked(img)
	return img, nil
}

// CloseCamera stops the camera without capturing. Safe to call at any time.
func (w *Workflow) CloseCamera() {
	w.acq.CloseCamera()
}

// Detect submits the current image for face detection. When at least one face
// is found the workflow moves to the details stage after the advance delay.
// Otherwise it stays and ContinueAnyway becomes available.
func (w *Workflow) Detect(ctx context.Context) (*faceapi.DetectionOutcome, error) {
	w.mu.Lock()
	if err := w.requireStageLocked("detect", StageAcquireImage); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.image == nil {
		w.mu.Unlock()
		return nil, ErrNoImage
	}
	if w.detecting {
		w.mu.Unlock()
		return nil, ErrDetectInFlight
	}
	attempt, img := w.attemptID, w.image
	w.stopAdvanceLocked()
	w.detecting = true
	w.detection = nil
	w.detectFailed = false
	w.lastError = ""
	w.mu.Unlock()

	log := logging.WithOperation(w.logger, "detect", attempt)
	outcome, err := w.api.DetectFace(ctx, payload(img))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attemptID != attempt || w.image != img {
		log.Debug("discarding detection result of replaced image")
		return nil, ErrStaleResponse
	}
	w.detecting = false
	if w.stage != StageAcquireImage {
		log.Debug("discarding detection result, stage changed", zap.String("stage", string(w.stage)))
		return nil, ErrStaleResponse
	}
	if err != nil {
		w.detectFailed = true
		w.lastError = err.Error()
		opErr := &logging.OperationError{Operation: "detect", AttemptID: attempt, Stage: string(w.stage), Err: err}
		w.logger.Warn("face detection failed", opErr.Fields()...)
		return nil, opErr
	}

	w.detection = outcome
	log.Info("face detection finished",
		zap.Int("faces", outcome.FacesDetected),
		zap.Float64("confidence", outcome.TopConfidence()))

	if outcome.HasFace() {
		w.scheduleAdvanceLocked(attempt, img)
	}
	return outcome, nil
}

// ContinueAnyway moves to the details stage without a confirmed face. It is
// available once detection finished for the current image, also when it failed.
func (w *Workflow) ContinueAnyway() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStageLocked("continue", StageAcquireImage); err != nil {
		return err
	}
	if w.image == nil {
		return ErrNoImage
	}
	if w.detecting || (w.detection == nil && !w.detectFailed) {
		return ErrNotDetected
	}
	if !w.detection.HasFace() {
		logging.WithOperation(w.logger, "continue", w.attemptID).
			Info("proceeding without face detection")
	}
	w.enterCollectDetailsLocked()
	return nil
}

// SetField changes one draft field and clears its validation error.
func (w *Workflow) SetField(f Field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStageLocked("edit", StageCollectDetails); err != nil {
		return err
	}
	if w.submitting {
		return ErrSubmitInFlight
	}
	if err := w.draft.Set(f, value); err != nil {
		return err
	}
	delete(w.fieldErrors, f)
	return nil
}

// Submit validates the draft and enrolls the person with the current image.
// On failure the workflow stays in the details stage with the draft intact.
func (w *Workflow) Submit(ctx context.Context) (*Confirmation, error) {
	w.mu.Lock()
	if err := w.requireStageLocked("submit", StageCollectDetails); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	errs := Validate(w.draft)
	w.fieldErrors = errs
	if !errs.Empty() {
		w.mu.Unlock()
		return nil, &ValidationError{Fields: errs}
	}
	if w.image == nil {
		w.lastError = ErrNoImage.Error()
		w.mu.Unlock()
		return nil, ErrNoImage
	}
	attempt, img := w.attemptID, w.image
	details := w.draft.Normalize()
	w.submitting = true
	w.lastError = ""
	w.mu.Unlock()

	log := logging.WithOperation(w.logger, "submit", attempt)
	result, err := w.api.EnrollUser(ctx, details.EnrollFields(), payload(img))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.attemptID != attempt {
		log.Debug("discarding enrollment result of abandoned attempt")
		return nil, ErrStaleResponse
	}
	w.submitting = false
	if err != nil {
		w.lastError = err.Error()
		opErr := &logging.OperationError{Operation: "submit", AttemptID: attempt, Stage: string(w.stage), Err: err}
		w.logger.Warn("enrollment failed", opErr.Fields()...)
		return nil, opErr
	}

	submittedAt := result.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	conf := &Confirmation{
		Result:      *result,
		SubmittedAt: submittedAt,
		Details:     details,
		PreviewData: img.PreviewData,
	}
	w.registry.Record(Entry{
		UserID:     result.UserID,
		FaceID:     result.FaceID,
		IDNumber:   details.IDNumber,
		FullName:   details.FullName,
		EnrolledAt: submittedAt,
	})
	log.Info("user enrolled", zap.Int64("user_id", result.UserID), zap.String("face_id", result.FaceID))

	w.confirmation = conf
	w.stage = StageComplete
	w.image = nil
	w.detection = nil
	w.draft = Draft{}
	w.fieldErrors = FieldErrors{}
	return conf, nil
}

// Back returns from the details stage to image acquisition. The image is
// dropped and must be acquired again.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireStageLocked("back", StageCollectDetails); err != nil {
		return err
	}
	if w.submitting {
		return ErrSubmitInFlight
	}
	w.stage = StageAcquireImage
	w.clearImageLocked()
	w.lastError = ""
	return nil
}

// Reset abandons the attempt from any stage and starts a fresh one. Results of
// calls still in flight are discarded when they arrive.
func (w *Workflow) Reset() {
	w.acq.CloseCamera()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.logger.Debug("enrollment reset", zap.String("attempt_id", w.attemptID))
}

// Close releases the camera and stops pending timers.
func (w *Workflow) Close() error {
	w.mu.Lock()
	w.stopAdvanceLocked()
	w.mu.Unlock()
	return w.acq.Close()
}

func (w *Workflow) resetLocked() {
	w.stopAdvanceLocked()
	w.attemptID = uuid.NewString()
	w.stage = StageAcquireImage
	w.clearImageLocked()
	w.draft = Draft{}
	w.fieldErrors = FieldErrors{}
	w.submitting = false
	w.confirmation = nil
	w.lastError = ""
}

func (w *Workflow) requireStageLocked(op string, want Stage) error {
	if w.stage != want {
		return fmt.Errorf("%s: %w (stage %s)", op, ErrWrongStage, w.stage)
	}
	return nil
}

func (w *Workflow) setImageLocked(img *media.ImageCapture) {
	w.clearImageLocked()
	w.image = img
	w.lastError = ""
}

func (w *Workflow) clearImageLocked() {
	w.stopAdvanceLocked()
	w.image = nil
	w.detection = nil
	w.detectFailed = false
	w.detecting = false
}

func (w *Workflow) enterCollectDetailsLocked() {
	w.stopAdvanceLocked()
	w.stage = StageCollectDetails
	w.draft = Draft{}
	w.fieldErrors = FieldErrors{}
	w.lastError = ""
}

func (w *Workflow) scheduleAdvanceLocked(attempt string, img *media.ImageCapture) {
	if w.advanceDelay <= 0 {
		w.enterCollectDetailsLocked()
		return
	}
	w.stopAdvanceLocked()
	w.advanceTimer = time.AfterFunc(w.advanceDelay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.attemptID != attempt || w.image != img || w.stage != StageAcquireImage {
			return
		}
		w.advanceTimer = nil
		w.enterCollectDetailsLocked()
	})
}

func (w *Workflow) stopAdvanceLocked() {
	if w.advanceTimer != nil {
		w.advanceTimer.Stop()
		w.advanceTimer = nil
	}
}

func payload(img *media.ImageCapture) faceapi.Image {
	return faceapi.Image{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        img.SourceFile,
	}
}
