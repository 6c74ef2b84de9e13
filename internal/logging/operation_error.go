package logging

import (
	"strings"

	"go.uber.org/zap"
)

// OperationError is a failed workflow step: which operation ran, for which
// enrollment attempt and in which stage. The cause stays reachable via Unwrap.
type OperationError struct {
	Operation string
	AttemptID string
	Stage     string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Operation)
	var meta []string
	if e.Stage != "" {
		meta = append(meta, "stage "+e.Stage)
	}
	if e.AttemptID != "" {
		meta = append(meta, "attempt "+e.AttemptID)
	}
	if len(meta) > 0 {
		b.WriteString(" [" + strings.Join(meta, ", ") + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fields returns the error's context as zap fields, for logging it where it is handled.
func (e *OperationError) Fields() []zap.Field {
	fields := []zap.Field{zap.String("operation", e.Operation)}
	if e.AttemptID != "" {
		fields = append(fields, zap.String("attempt_id", e.AttemptID))
	}
	if e.Stage != "" {
		fields = append(fields, zap.String("stage", e.Stage))
	}
	return append(fields, zap.Error(e.Err))
}

// NewOperationError wraps err with the step it failed in. A nil err stays nil.
func NewOperationError(operation, attemptID, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, AttemptID: attemptID, Stage: stage, Err: err}
}
