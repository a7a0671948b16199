package controller

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/recist-io/recist/internal/logging"
)

// captureStdout intercepts the standard log writer that DEBUG/INFO/WARN
// lines go through.
func captureStdout(f func()) string {
	old := log.Writer()
	defer log.SetOutput(old)
	var buf bytes.Buffer
	log.SetOutput(&buf)
	f()
	return buf.String()
}

// captureStderr intercepts the stream ERROR lines go through.
func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	f()
	w.Close()
	os.Stderr = old
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestLogrInfoUsesOperatorFormat(t *testing.T) {
	logger := NewLogr("controller-runtime")

	out := captureStdout(func() {
		logger.Info("starting manager", "metrics", "disabled")
	})

	if !strings.Contains(out, "[INFO] controller-runtime: starting manager") {
		t.Errorf("output missing formatted message: %q", out)
	}
	if !strings.Contains(out, "metrics=disabled") {
		t.Errorf("output missing key/value field: %q", out)
	}
}

func TestLogrVerbosityMapsToDebug(t *testing.T) {
	if err := logging.Initialize("debug"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer func() {
		if err := logging.Initialize("info"); err != nil {
			t.Fatalf("restore log level: %v", err)
		}
	}()

	logger := NewLogr("controller-runtime")
	out := captureStdout(func() {
		logger.V(1).Info("cache synced")
	})

	if !strings.Contains(out, "[DEBUG] controller-runtime: cache synced") {
		t.Errorf("V(1) output = %q, want DEBUG line", out)
	}
}

func TestLogrErrorCarriesErrorField(t *testing.T) {
	logger := NewLogr("controller-runtime")

	out := captureStderr(func() {
		logger.Error(errors.New("connection refused"), "reconcile failed", "policy", "web")
	})

	if !strings.Contains(out, "[ERROR] controller-runtime: reconcile failed") {
		t.Errorf("stderr missing formatted message: %q", out)
	}
	if !strings.Contains(out, "error=connection refused") {
		t.Errorf("stderr missing error field: %q", out)
	}
	if !strings.Contains(out, "policy=web") {
		t.Errorf("stderr missing key/value field: %q", out)
	}
}

func TestLogrWithNameAndValues(t *testing.T) {
	logger := NewLogr("controller-runtime").
		WithName("manager").
		WithValues("controller", "healingevent")

	out := captureStdout(func() {
		logger.Info("worker started")
	})

	if !strings.Contains(out, "controller-runtime.manager: worker started") {
		t.Errorf("output missing dotted logger name: %q", out)
	}
	if !strings.Contains(out, "controller=healingevent") {
		t.Errorf("output missing accumulated field: %q", out)
	}
}
