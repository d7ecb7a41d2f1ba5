// Package render provides the OpenGL viewer for the planet mesher
package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/tbogdala/groggy"
)

// Engine owns the window, the GL context, and the main loop
type Engine struct {
	window *glfw.Window
	width  int
	height int

	input *Input

	// Timing
	lastFrame float64
	deltaTime float64

	onResize func(width, height int)
}

// Config contains engine configuration
type Config struct {
	Width  int
	Height int
	Title  string
	VSync  bool
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Width:  1280,
		Height: 720,
		Title:  "Planet Viewer",
		VSync:  true,
	}
}

// NewEngine creates the window and initializes OpenGL
func NewEngine(config Config) (*Engine, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	window, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	window.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	groggy.Logsf("INFO", "OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.02, 0.02, 0.05, 1.0)

	engine := &Engine{
		window: window,
		width:  config.Width,
		height: config.Height,
		input:  NewInput(),
	}

	window.SetFramebufferSizeCallback(engine.framebufferSizeCallback)
	window.SetKeyCallback(engine.keyCallback)
	window.SetCursorPosCallback(engine.cursorPosCallback)
	window.SetScrollCallback(engine.scrollCallback)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return engine, nil
}

// Run drives the main loop until the window closes
func (e *Engine) Run(onFrame func(dt float64)) {
	e.lastFrame = glfw.GetTime()

	for !e.window.ShouldClose() {
		now := glfw.GetTime()
		e.deltaTime = now - e.lastFrame
		e.lastFrame = now
		if e.deltaTime > 0.1 {
			e.deltaTime = 0.1
		}

		glfw.PollEvents()
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		onFrame(e.deltaTime)

		e.input.EndFrame()
		e.window.SwapBuffers()
	}
}

// Cleanup releases resources
func (e *Engine) Cleanup() {
	glfw.Terminate()
}

// Input returns the input state
func (e *Engine) Input() *Input {
	return e.input
}

// Size returns the current framebuffer size
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// Close requests the main loop to stop
func (e *Engine) Close() {
	e.window.SetShouldClose(true)
}

// Callbacks

func (e *Engine) framebufferSizeCallback(w *glfw.Window, width, height int) {
	e.width = width
	e.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	if e.onResize != nil {
		e.onResize(width, height)
	}
}

func (e *Engine) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	e.input.HandleKey(key, action)
}

func (e *Engine) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	e.input.HandleMouseMove(xpos, ypos)
}

func (e *Engine) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	e.input.HandleScroll(xoff, yoff)
}
