package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-enroll/internal/enrollment"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
	"github.com/kozaktomas/face-enroll/internal/logging"
	"github.com/kozaktomas/face-enroll/internal/media"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusCreated, map[string]any{"message": "hello", "count": 42})

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["message"] != "hello" || result["count"] != float64(42) {
		t.Errorf("unexpected body %v", result)
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusOK, nil)

	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertContentType(t, recorder, "application/json")
	assertJSONError(t, recorder, "something went wrong")
}

func TestRespondFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "media",
			err:     fmt.Errorf("upload: %w", media.ErrUnsupportedFormat),
			status:  http.StatusBadRequest,
			message: media.Message(media.ErrUnsupportedFormat),
		},
		{
			name:    "camera",
			err:     &media.CameraError{Kind: media.CameraPermissionDenied},
			status:  http.StatusBadRequest,
			message: media.CameraPermissionDenied.Message(),
		},
		{
			name:   "wrong stage",
			err:    fmt.Errorf("submit: %w", enrollment.ErrWrongStage),
			status: http.StatusConflict,
		},
		{
			name:   "stale",
			err:    enrollment.ErrStaleResponse,
			status: http.StatusConflict,
		},
		{
			name:    "service",
			err:     logging.NewOperationError("submit", "a1", "collect_details", &faceapi.ServiceError{Op: "enroll user", StatusCode: 200, Message: "CCCD number already exists"}),
			status:  http.StatusBadGateway,
			message: "CCCD number already exists",
		},
		{
			name:    "not found",
			err:     &faceapi.ServiceError{Op: "get user", StatusCode: 404, Message: "User not found"},
			status:  http.StatusNotFound,
			message: "User not found",
		},
		{
			name:    "network",
			err:     &faceapi.NetworkError{Op: "detect faces", Err: errors.New("dial tcp: connection refused")},
			status:  http.StatusBadGateway,
			message: "face service is unreachable",
		},
		{
			name:    "unexpected",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondFailure(recorder, tc.err)

			assertStatusCode(t, recorder, tc.status)
			if tc.message != "" {
				assertJSONError(t, recorder, tc.message)
			}
		})
	}
}

func TestRespondFailure_Validation(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondFailure(recorder, &enrollment.ValidationError{Fields: enrollment.FieldErrors{
		enrollment.FieldIDNumber: "CCCD number must be 12 digits",
	}})

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	var result struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Fields["id_number"] != "CCCD number must be 12 digits" {
		t.Errorf("unexpected fields %v", result.Fields)
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("face\r\n.png"); got != "face.png" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	for _, method := range []string{"GET", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			HealthCheck(recorder, httptest.NewRequest(method, "/health", nil))

			assertStatusCode(t, recorder, http.StatusOK)
			if method == "GET" {
				var result map[string]string
				if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil || result["status"] != "ok" {
					t.Errorf("unexpected body %q", recorder.Body.String())
				}
			}
		})
	}
}
