package faceapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NetworkError reports a transport failure. No backend state was changed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: could not reach face service: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError reports a non-2xx response or a success:false payload.
// Message carries the backend message verbatim when one was provided.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: face service returned status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.StatusCode == 404
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// genericMessage is used when the backend did not explain a failure.
func genericMessage(statusCode int) string {
	if statusCode >= 500 {
		return "the face service failed to process the request, please try again"
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}

// errorMessage extracts a human message from an error body. FastAPI style
// "detail" and plain "error" keys are accepted besides "message".
func errorMessage(body []byte, statusCode int) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "detail", "error"} {
			var msg string
			if err := json.Unmarshal(payload[key], &msg); err == nil && strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return genericMessage(statusCode)
}
