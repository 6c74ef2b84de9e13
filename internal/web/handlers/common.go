package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/media"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps an error from the workflow, the acquirer or the face
// service onto a status code and a user-facing message.
func respondFailure(w http.ResponseWriter, err error) {
	var verr *enrollment.ValidationError
	var se *faceapi.ServiceError
	var ne *faceapi.NetworkError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case media.IsMediaError(err):
		respondError(w, http.StatusBadRequest, media.Message(err))
	case errors.Is(err, enrollment.ErrWrongStage),
		errors.Is(err, enrollment.ErrNoImage),
		errors.Is(err, enrollment.ErrNotDetected),
		errors.Is(err, enrollment.ErrDetectInFlight),
		errors.Is(err, enrollment.ErrSubmitInFlight),
		errors.Is(err, enrollment.ErrStaleResponse):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &se):
		status := http.StatusBadGateway
		if se.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		respondError(w, status, se.Message)
	case errors.As(err, &ne):
		respondError(w, http.StatusBadGateway, "face service is unreachable")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
