package core

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"shadow-engine/math"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("Logger: default logger should be disabled at every level")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("scene loaded", "objects", 3)
	if !strings.Contains(buf.String(), "objects=3") {
		t.Errorf("SetLogger: expected record in output, got %q", buf.String())
	}
}

func TestTransformOrder(t *testing.T) {
	tr := NewTransform()
	tr.Position.X = 10
	tr.Scale.X = 2
	// Scale applies before translation.
	got := tr.GetMatrix().TransformPoint(math.NewVec3(1, 0, 0))
	if got.X != 12 {
		t.Errorf("Transform: expected x=12, got %v", got.X)
	}
}
