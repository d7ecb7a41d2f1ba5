// Package displace defines the terrain displacement field consumed by
// the mesher, plus the stock field implementations
package displace

import (
	"errors"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrFailed is the base error for displacement fields that cannot
// evaluate a sample. A field error aborts the frame.
var ErrFailed = errors.New("displacement field failed")

// Field is the injected displacement collaborator. Implementations
// must be pure, deterministic, and safe for concurrent use.
type Field interface {
	// Displace returns the radial height (meters) above the reference
	// sphere for a unit direction. grad, when non-nil, is the analytic
	// tangent-space gradient of the height over the sphere surface;
	// when nil the mesher derives normals by central differences.
	Displace(normal mgl64.Vec3) (height float64, grad *mgl64.Vec3, err error)
}

var zeroGrad = mgl64.Vec3{}

// Zero is a flat reference sphere with no displacement
type Zero struct{}

// Displace always returns zero height with an exact zero gradient
func (Zero) Displace(mgl64.Vec3) (float64, *mgl64.Vec3, error) {
	return 0, &zeroGrad, nil
}

// Counting wraps a field and counts Displace calls. Used to verify
// that each distinct vertex identity is materialized exactly once.
type Counting struct {
	Inner Field
	calls atomic.Int64
}

// NewCounting wraps a field with a call counter
func NewCounting(inner Field) *Counting {
	return &Counting{Inner: inner}
}

// Displace forwards to the wrapped field and counts the call
func (c *Counting) Displace(n mgl64.Vec3) (float64, *mgl64.Vec3, error) {
	c.calls.Add(1)
	return c.Inner.Displace(n)
}

// Calls returns the number of Displace calls made so far
func (c *Counting) Calls() int64 {
	return c.calls.Load()
}
