package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/media"
	"github.com/kozaktomas/face-enroll/internal/web/middleware"
)

// EnrollmentHandler exposes the session workflow to the browser page.
// Every successful call answers with the current workflow snapshot.
type EnrollmentHandler struct {
	logger *zap.Logger
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(logger *zap.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentHandler{logger: logger}
}

// Get returns the workflow state
func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// UploadImage accepts a multipart "image" file as the enrollment image
func (h *EnrollmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, media.ErrFileTooLarge.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image file")
		return
	}

	if _, err := wf.UploadFile(header.Filename, data); err != nil {
		h.logger.Debug("upload rejected",
			zap.String("filename", sanitizeForLog(header.Filename)), zap.Error(err))
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// OpenCamera starts the camera and returns once it renders frames
func (h *EnrollmentHandler) OpenCamera(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	if err := wf.OpenCamera(r.Context()); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// Capture takes the current camera frame as the enrollment image
func (h *EnrollmentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	if _, err := wf.Capture(r.Context()); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// CloseCamera stops the camera without capturing
func (h *EnrollmentHandler) CloseCamera(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	wf.CloseCamera()
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// Detect runs face detection on the current image
func (h *EnrollmentHandler) Detect(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	outcome, err := wf.Detect(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"detection":  outcome,
		"enrollment": wf.Snapshot(),
	})
}

// Continue proceeds to the details stage without a confirmed face
func (h *EnrollmentHandler) Continue(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	if err := wf.ContinueAnyway(); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// UpdateDraft sets the draft fields present in the JSON body
func (h *EnrollmentHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}

	var req map[enrollment.Field]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	for f := range req {
		if !slices.Contains(enrollment.Fields, f) {
			respondError(w, http.StatusBadRequest, "unknown field "+sanitizeForLog(string(f)))
			return
		}
	}

	// Fields are applied in form order so the response is deterministic.
	for _, f := range enrollment.Fields {
		value, ok := req[f]
		if !ok {
			continue
		}
		if err := wf.SetField(f, value); err != nil {
			respondFailure(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// Submit validates the draft and enrolls the person
func (h *EnrollmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	conf, err := wf.Submit(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"confirmation": conf,
		"enrollment":   wf.Snapshot(),
	})
}

// Back returns from the details stage to image acquisition
func (h *EnrollmentHandler) Back(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	if err := wf.Back(); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, wf.Snapshot())
}

// Reset abandons the attempt and starts a fresh one
func (h *EnrollmentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	wf := middleware.MustGetWorkflow(r.Context(), w)
	if wf == nil {
		return
	}
	wf.Reset()
	respondJSON(w, http.StatusOK, wf.Snapshot())
}
