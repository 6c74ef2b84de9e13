package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Fatalf("NewLogger(%q) failed: %v", level, err)
		}
		if logger == nil {
			t.Fatalf("NewLogger(%q) returned nil logger", level)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face-enroll.log")
	logger, err := NewLogger("info", WithFile(path))
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("enrollment submitted")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "enrollment submitted") {
		t.Errorf("expected message in log file, got %q", data)
	}
}

func TestOperationError(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("submit", "a1", "collect_details", base)

	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if got := err.Error(); got != "submit [stage collect_details, attempt a1]: boom" {
		t.Errorf("unexpected message %q", got)
	}

	if NewOperationError("submit", "", "", nil) != nil {
		t.Error("expected nil for nil error")
	}

	plain := NewOperationError("detect", "", "", base)
	if plain.Error() != "detect: boom" {
		t.Errorf("unexpected message %q", plain.Error())
	}
}

func TestOperationError_Fields(t *testing.T) {
	var opErr *OperationError
	if !errors.As(NewOperationError("detect", "a2", "acquire_image", errors.New("down")), &opErr) {
		t.Fatal("expected *OperationError")
	}

	keys := map[string]bool{}
	for _, f := range opErr.Fields() {
		keys[f.Key] = true
	}
	for _, k := range []string{"operation", "attempt_id", "stage", "error"} {
		if !keys[k] {
			t.Errorf("expected field %q", k)
		}
	}

	opErr.AttemptID, opErr.Stage = "", ""
	if n := len(opErr.Fields()); n != 2 {
		t.Errorf("expected operation and error only, got %d fields", n)
	}
}
