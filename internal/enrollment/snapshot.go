package enrollment

import (
	"maps"

	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
)

// ImageInfo describes the current image without its raw bytes
type ImageInfo struct {
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	Origin      media.Origin `json:"origin"`
	Size        int          `json:"size"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	PreviewData string       `json:"preview_data"`
}

// CameraState describes the acquirer's camera
type CameraState struct {
	Supported bool   `json:"supported"`
	Open      bool   `json:"open"`
	Active    bool   `json:"active"`
	Error     string `json:"error,omitempty"`
}

// Snapshot is a read-only view of a workflow
type Snapshot struct {
	AttemptID         string                    `json:"attempt_id"`
	Stage             Stage                     `json:"stage"`
	Step              int                       `json:"step"`
	Image             *ImageInfo                `json:"image,omitempty"`
	Camera            CameraState               `json:"camera"`
	Detecting         bool                      `json:"detecting"`
	Detection         *faceapi.DetectionOutcome `json:"detection,omitempty"`
	DetectionFailed   bool                      `json:"detection_failed"`
	AdvancePending    bool                      `json:"advance_pending"`
	CanContinueAnyway bool                      `json:"can_continue_anyway"`
	Draft             Draft                     `json:"draft"`
	FieldErrors       FieldErrors               `json:"field_errors"`
	Submitting        bool                      `json:"submitting"`
	CanSubmit         bool                      `json:"can_submit"`
	Confirmation      *Confirmation             `json:"confirmation,omitempty"`
	LastError         string                    `json:"last_error,omitempty"`
}

// Snapshot returns the current state. The returned value shares nothing
// mutable with the workflow.
func (w *Workflow) Snapshot() Snapshot {
	camera := CameraState{
		Supported: w.acq.CameraSupported(),
		Open:      w.acq.CameraOpen(),
		Active:    w.acq.CameraActive(),
		Error:     w.acq.LastError(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		AttemptID:       w.attemptID,
		Stage:           w.stage,
		Step:            w.stage.Step(),
		Camera:          camera,
		Detecting:       w.detecting,
		DetectionFailed: w.detectFailed,
		AdvancePending:  w.advanceTimer != nil,
		Draft:           w.draft,
		FieldErrors:     maps.Clone(w.fieldErrors),
		Submitting:      w.submitting,
		LastError:       w.lastError,
	}
	if w.image != nil {
		s.Image = &ImageInfo{
			Filename:    w.image.Filename,
			ContentType: w.image.ContentType,
			Origin:      w.image.Origin,
			Size:        w.image.Size(),
			Width:       w.image.Width,
			Height:      w.image.Height,
			PreviewData: w.image.PreviewData,
		}
	}
	if w.detection != nil {
		d := *w.detection
		s.Detection = &d
	}
	if w.confirmation != nil {
		c := *w.confirmation
		s.Confirmation = &c
	}
	s.CanContinueAnyway = w.stage == StageAcquireImage && w.image != nil && !w.detecting &&
		(w.detectFailed || (w.detection != nil && !w.detection.HasFace()))
	s.CanSubmit = w.stage == StageCollectDetails && w.image != nil && !w.submitting &&
		w.fieldErrors.Empty()
	return s
}
