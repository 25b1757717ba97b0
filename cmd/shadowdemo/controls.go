package main

import (
	"shadow-engine/core"
	"shadow-engine/internal/platform"
	"shadow-engine/renderer"
)

const (
	moveStep  = 10   // world units per key press
	dragMove  = 2    // world units per pixel of vertical left drag
	dragTurn  = 0.25 // degrees per pixel of horizontal left drag
	dragPitch = 0.25 // degrees per pixel of vertical right drag
	zoomStep  = 2    // degrees of FOV per wheel notch
)

// controller maps window input onto the main camera and pipeline toggles.
type controller struct {
	win *platform.Window
	r   *renderer.Renderer

	leftDown  bool
	rightDown bool
	haveLast  bool
	lastX     float64
	lastY     float64
	cursorX   float64
	cursorY   float64
}

func installControls(win *platform.Window, r *renderer.Renderer) *controller {
	c := &controller{win: win, r: r}
	win.SetKeyCallback(c.onKey)
	win.SetMouseButtonCallback(c.onMouseButton)
	win.SetCursorPosCallback(c.onCursor)
	win.SetScrollCallback(c.onScroll)
	win.OnResize(r.Resize)
	return c
}

func (c *controller) onKey(key int, pressed bool) {
	if !pressed {
		return
	}
	s := c.r.Scene()
	cam := s.Camera
	switch key {
	case platform.KeyUp:
		cam.MoveForward(moveStep)
	case platform.KeyDown:
		cam.MoveBackward(moveStep)
	case platform.KeyLeft:
		cam.MoveLeft(moveStep)
	case platform.KeyRight:
		cam.MoveRight(moveStep)
	case platform.KeyW:
		cam.MoveUp(moveStep)
	case platform.KeyS:
		cam.MoveDown(moveStep)
	case platform.KeyI:
		cam.Reset()
	case platform.KeyL:
		on := s.Lights.ToggleGlobalSwitch()
		core.Logger().Info("lighting", "on", on)
	case platform.KeyO:
		c.r.SetOrbiting(!c.r.IsOrbiting())
		core.Logger().Info("light orbit", "on", c.r.IsOrbiting())
	case platform.KeyF:
		pcf := !c.r.Config().PCF
		c.r.SetPCF(pcf)
		core.Logger().Info("pcf", "on", pcf)
	case platform.KeyP:
		core.Logger().Info("camera", "eye", cam.Eye(), "target", cam.Target(), "fov", cam.FOV())
	case platform.KeyQ, platform.KeyEscape:
		c.win.Close()
	}
}

func (c *controller) onMouseButton(button int, pressed bool) {
	switch button {
	case platform.MouseButtonLeft:
		c.leftDown = pressed
	case platform.MouseButtonRight:
		c.rightDown = pressed
	case platform.MouseButtonMiddle:
		if pressed {
			c.toggleShadowUnderCursor()
		}
	}
	c.haveLast = false
}

// toggleShadowUnderCursor flips CastsShadow on the object under the cursor.
func (c *controller) toggleShadowUnderCursor() {
	s := c.r.Scene()
	sx, sy := c.win.PixelScale()
	hit, ok := s.Pick(s.Camera.ScreenRay(float32(c.cursorX*sx), float32(c.cursorY*sy)))
	if !ok {
		return
	}
	hit.Object.CastsShadow = !hit.Object.CastsShadow
	core.Logger().Info("shadow caster", "object", hit.Object.Name, "casts", hit.Object.CastsShadow, "at", hit.Point)
}

// onCursor: left drag moves along the view (vertical) and turns about the
// world Y axis (horizontal); right drag pitches.
func (c *controller) onCursor(x, y float64) {
	c.cursorX, c.cursorY = x, y
	if !c.leftDown && !c.rightDown {
		return
	}
	if !c.haveLast {
		c.lastX, c.lastY, c.haveLast = x, y, true
		return
	}
	dx, dy := float32(x-c.lastX), float32(y-c.lastY)
	c.lastX, c.lastY = x, y

	cam := c.r.Scene().Camera
	if c.leftDown {
		cam.MoveForward(-dy * dragMove)
		cam.RotateAroundWorldY(-dx * dragTurn)
	}
	if c.rightDown {
		cam.Pitch(-dy * dragPitch)
	}
}

func (c *controller) onScroll(_, yoff float64) {
	cam := c.r.Scene().Camera
	switch {
	case yoff > 0:
		cam.ZoomIn(zoomStep)
	case yoff < 0:
		cam.ZoomOut(zoomStep)
	}
}
