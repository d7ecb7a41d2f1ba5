// Planet Viewer - Main entry point
// An interactive viewer for the planet-scale terrain mesher
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tbogdala/groggy"

	"planetmesh/assets"
	"planetmesh/internal/config"
	"planetmesh/internal/core/displace"
	"planetmesh/internal/core/face"
	"planetmesh/internal/core/frame"
	"planetmesh/internal/core/quadtree"
	"planetmesh/internal/render"
)

// Build metadata - injected at build time via ldflags
var (
	Version = "dev"
)

// Viewer holds the running application state
type Viewer struct {
	cfg      config.Config
	engine   *render.Engine
	camera   *render.FlyCamera
	pipeline *frame.Pipeline
	mesh     *render.PlanetMesh
	shader   *render.Shader
	palette  uint32

	// The last good frame, re-submitted when a frame aborts
	lastOutput *frame.Output

	// Stats
	frames     int
	lastReport time.Time
	lastStats  *frame.Stats
}

func main() {
	// OpenGL requires the main thread
	runtime.LockOSThread()

	groggy.Register("INFO", groggy.DefaultSyncHandler)
	groggy.Register("ERROR", groggy.DefaultSyncHandler)

	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	groggy.Logsf("INFO", "Planet Viewer v%s, radius %.0f m, max level %d",
		Version, cfg.PlanetRadius, cfg.MaxLevel)

	v, err := NewViewer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer v.Cleanup()

	v.Run()
}

// NewViewer wires the engine, pipeline, and renderer together
func NewViewer(cfg config.Config) (*Viewer, error) {
	engine, err := render.NewEngine(render.Config{
		Width:  cfg.Viewer.Width,
		Height: cfg.Viewer.Height,
		Title:  cfg.Viewer.Title,
		VSync:  cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, err
	}

	vsrc, err := assets.ReadShader("planet.vert")
	if err != nil {
		return nil, fmt.Errorf("failed to read vertex shader: %w", err)
	}
	fsrc, err := assets.ReadShader("planet.frag")
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment shader: %w", err)
	}
	shader, err := render.NewShader(string(vsrc), string(fsrc))
	if err != nil {
		return nil, fmt.Errorf("failed to create planet shader: %w", err)
	}

	terrainCfg := displace.DefaultTerrainConfig()
	terrainCfg.Seed = cfg.Viewer.Seed
	field := displace.NewTerrain(terrainCfg)

	pipeline, err := frame.New(cfg, field, terrainCfg.Amplitude+terrainCfg.OceanDepth)
	if err != nil {
		return nil, err
	}

	// Start in orbit over the +X face.
	camera := render.NewFlyCamera(
		mgl64.Vec3{cfg.PlanetRadius * 3, 0, 0}, cfg.PlanetRadius)

	return &Viewer{
		cfg:        cfg,
		engine:     engine,
		camera:     camera,
		pipeline:   pipeline,
		mesh:       render.NewPlanetMesh(),
		shader:     shader,
		palette:    render.NewPaletteTexture(),
		lastReport: time.Now(),
	}, nil
}

// Run drives the frame loop until the window closes
func (v *Viewer) Run() {
	v.engine.Run(func(dt float64) {
		v.processInput(dt)

		width, height := v.engine.Size()
		cam := v.camera.Pose(width, height)

		out, stats, err := v.pipeline.RenderFrame(cam)
		if err != nil {
			// Keep showing the previous frame; re-submit is idempotent.
			groggy.Logsf("ERROR", "frame aborted: %v", err)
			out = v.lastOutput
		} else {
			v.lastOutput = out
			v.lastStats = stats
		}
		if out != nil {
			if err := v.mesh.Submit(out); err != nil {
				groggy.Logsf("ERROR", "submit failed: %v", err)
			}
		}

		v.draw(cam)
		v.report()
	})
}

func (v *Viewer) draw(cam quadtree.Camera) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, v.palette)

	// The vertex buffer is camera-relative, so the f32 view-projection
	// keeps the camera at the origin and only sees small coordinates.
	width, height := v.engine.Size()
	vp := v.camera.RelativeViewProj(width, height)

	heightScale := float32(8000)
	v.mesh.Draw(v.shader, vp,
		mgl32.Vec3{0.45, 0.7, 0.3}.Normalize(),
		mgl32.Vec3{float32(cam.Pos.X()), float32(cam.Pos.Y()), float32(cam.Pos.Z())},
		float32(v.cfg.PlanetRadius), heightScale)
}

// Cleanup releases resources
func (v *Viewer) Cleanup() {
	v.mesh.Delete()
	v.shader.Delete()
	v.engine.Cleanup()
}

func (v *Viewer) processInput(dt float64) {
	in := v.engine.Input()

	if in.IsKeyPressed(glfw.KeyEscape) {
		v.engine.Close()
		return
	}

	var forward, strafe, lift float64
	if in.IsKeyPressed(glfw.KeyW) {
		forward++
	}
	if in.IsKeyPressed(glfw.KeyS) {
		forward--
	}
	if in.IsKeyPressed(glfw.KeyD) {
		strafe++
	}
	if in.IsKeyPressed(glfw.KeyA) {
		strafe--
	}
	if in.IsKeyPressed(glfw.KeySpace) {
		lift++
	}
	if in.IsKeyPressed(glfw.KeyLeftControl) {
		lift--
	}
	if in.IsKeyPressed(glfw.KeyLeftShift) {
		forward *= 3
		strafe *= 3
		lift *= 3
	}
	v.camera.Move(forward, strafe, lift, dt)

	dx, dy := in.MouseDelta()
	if dx != 0 || dy != 0 {
		v.camera.ProcessMouse(dx, dy)
	}
}

func (v *Viewer) report() {
	v.frames++
	if time.Since(v.lastReport) < time.Second {
		return
	}
	s := v.lastStats
	if s != nil {
		groundFace := face.FromDirection(v.camera.Position.Normalize())
		groggy.Logsf("INFO", "fps %d | face %v | patches %d | verts %d | tris %d | cache %d/%d | denied %d",
			v.frames, groundFace, s.Patches, s.Vertices, s.Indices/3,
			s.CacheHits, s.CacheMisses, s.SplitDenied)
	}
	v.frames = 0
	v.lastReport = time.Now()
}
