// Package render provides input handling for the viewer
package render

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Input handles keyboard and mouse input
type Input struct {
	keys map[glfw.Key]bool

	mouseX, mouseY         float64
	lastMouseX, lastMouseY float64
	firstMouse             bool

	mouseDeltaX, mouseDeltaY float64
	scrollY                  float64
}

// NewInput creates a new input handler
func NewInput() *Input {
	return &Input{
		keys:       make(map[glfw.Key]bool),
		firstMouse: true,
	}
}

// HandleKey processes keyboard events
func (i *Input) HandleKey(key glfw.Key, action glfw.Action) {
	if action == glfw.Press {
		i.keys[key] = true
	} else if action == glfw.Release {
		i.keys[key] = false
	}
}

// HandleMouseMove processes mouse movement
func (i *Input) HandleMouseMove(xpos, ypos float64) {
	if i.firstMouse {
		i.lastMouseX = xpos
		i.lastMouseY = ypos
		i.firstMouse = false
	}

	i.mouseDeltaX += xpos - i.lastMouseX
	i.mouseDeltaY += i.lastMouseY - ypos // Y is inverted

	i.lastMouseX = xpos
	i.lastMouseY = ypos
	i.mouseX = xpos
	i.mouseY = ypos
}

// HandleScroll processes scroll events
func (i *Input) HandleScroll(xoff, yoff float64) {
	i.scrollY += yoff
}

// IsKeyPressed returns whether a key is currently held
func (i *Input) IsKeyPressed(key glfw.Key) bool {
	return i.keys[key]
}

// MouseDelta returns the mouse movement accumulated this frame
func (i *Input) MouseDelta() (float64, float64) {
	return i.mouseDeltaX, i.mouseDeltaY
}

// ScrollDelta returns the scroll accumulated this frame
func (i *Input) ScrollDelta() float64 {
	return i.scrollY
}

// EndFrame resets the per-frame deltas
func (i *Input) EndFrame() {
	i.mouseDeltaX = 0
	i.mouseDeltaY = 0
	i.scrollY = 0
}
