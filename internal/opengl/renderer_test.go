package opengl

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shadow-engine/core"
	"shadow-engine/scene"
)

// These tests stay on paths that never reach a GL entry point, so they run
// without a context.

func TestFailedTextureWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer core.SetLogger(nil)

	var r Renderer
	empty := &scene.Texture{Name: "empty", Width: 4, Height: 4}
	for i := 0; i < 5; i++ {
		r.BindTexture(scene.DiffuseTextureUnit, empty)
	}

	if got := strings.Count(buf.String(), "texture upload failed"); got != 1 {
		t.Errorf("warnings: expected 1, got %d\n%s", got, buf.String())
	}
	if r.hasTexture {
		t.Error("a failed texture must not mark the draw as textured")
	}
	if empty.GPUData != nil {
		t.Error("a failed upload must not leave a GPU handle")
	}
}

func TestShadowFilter(t *testing.T) {
	if got := shadowFilter(false); got != gl.LINEAR {
		t.Errorf("without PCF: expected LINEAR, got 0x%X", got)
	}
	if got := shadowFilter(true); got != gl.NEAREST {
		t.Errorf("with PCF: expected NEAREST, got 0x%X", got)
	}
}
