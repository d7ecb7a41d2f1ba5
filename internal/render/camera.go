// Package render provides the orbital fly camera for the viewer
package render

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"planetmesh/internal/core/quadtree"
)

// FlyCamera is a free camera in double-precision world space. Speed
// scales with altitude so both orbit and surface flight feel right.
type FlyCamera struct {
	Position mgl64.Vec3

	front mgl64.Vec3
	up    mgl64.Vec3
	right mgl64.Vec3

	// Euler angles in degrees
	Yaw   float32
	Pitch float32

	FOV         float32 // degrees
	Sensitivity float32

	planetRadius float64
}

// NewFlyCamera creates a camera at the given position facing -X (yaw
// 180, pitch 0), which looks at the planet center from a start on the
// +X axis. The initial direction does not depend on the position.
func NewFlyCamera(position mgl64.Vec3, planetRadius float64) *FlyCamera {
	c := &FlyCamera{
		Position:     position,
		Yaw:          180,
		Pitch:        0,
		FOV:          60,
		Sensitivity:  0.1,
		planetRadius: planetRadius,
	}
	c.updateVectors()
	return c
}

// ProcessMouse applies a mouse delta to the view direction
func (c *FlyCamera) ProcessMouse(dx, dy float64) {
	c.Yaw += float32(dx) * c.Sensitivity
	c.Pitch += float32(dy) * c.Sensitivity

	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}
	c.updateVectors()
}

// Move translates the camera along its local axes. Speed is tied to
// altitude: one second of travel covers roughly half the distance to
// the surface.
func (c *FlyCamera) Move(forward, strafe, lift, dt float64) {
	altitude := c.Position.Len() - c.planetRadius
	if altitude < 10 {
		altitude = 10
	}
	speed := altitude * 0.5 * dt

	c.Position = c.Position.Add(c.front.Mul(forward * speed))
	c.Position = c.Position.Add(c.right.Mul(strafe * speed))
	c.Position = c.Position.Add(c.up.Mul(lift * speed))
}

// Pose produces the frame camera: pose, view-projection, frustum.
// Near and far planes track altitude to keep depth precision.
func (c *FlyCamera) Pose(width, height int) quadtree.Camera {
	altitude := c.Position.Len() - c.planetRadius
	near := math.Max(0.5, altitude*0.01)
	far := c.planetRadius*4 + altitude

	fov := float64(mgl64.DegToRad(float64(c.FOV)))
	aspect := float64(width) / float64(height)

	view := mgl64.LookAtV(c.Position, c.Position.Add(c.front), c.up)
	proj := mgl64.Perspective(fov, aspect, near, far)

	return quadtree.NewCamera(c.Position, proj.Mul4(view), float64(height), fov)
}

// RelativeViewProj is the f32 view-projection for camera-relative
// geometry: the same orientation and projection as Pose, with the
// camera at the origin. Keeping the translation out of the f32 matrix
// is what preserves precision at planetary scale.
func (c *FlyCamera) RelativeViewProj(width, height int) mgl32.Mat4 {
	altitude := c.Position.Len() - c.planetRadius
	near := float32(math.Max(0.5, altitude*0.01))
	far := float32(c.planetRadius*4 + altitude)

	view := mgl32.LookAtV(
		mgl32.Vec3{},
		mgl32.Vec3{float32(c.front.X()), float32(c.front.Y()), float32(c.front.Z())},
		mgl32.Vec3{float32(c.up.X()), float32(c.up.Y()), float32(c.up.Z())},
	)
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), float32(width)/float32(height), near, far)
	return proj.Mul4(view)
}

func (c *FlyCamera) updateVectors() {
	yaw := math32.Pi / 180 * c.Yaw
	pitch := math32.Pi / 180 * c.Pitch

	c.front = mgl64.Vec3{
		float64(math32.Cos(yaw) * math32.Cos(pitch)),
		float64(math32.Sin(pitch)),
		float64(math32.Sin(yaw) * math32.Cos(pitch)),
	}.Normalize()

	worldUp := mgl64.Vec3{0, 1, 0}
	c.right = c.front.Cross(worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}
