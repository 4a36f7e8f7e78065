package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking at a target.
type Camera struct {
	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32 // degrees
	aspect float32
	near   float32
	far    float32

	view       mgl32.Mat4
	projection mgl32.Mat4
	dirty      bool
}

// NewCamera creates a camera. fov is the vertical field of view in degrees.
func NewCamera(position, target mgl32.Vec3, fov, aspect float32) *Camera {
	c := &Camera{
		position: position,
		target:   target,
		up:       mgl32.Vec3{0, 1, 0},
		fov:      fov,
		aspect:   aspect,
		near:     0.1,
		far:      1000,
		dirty:    true,
	}
	c.updateMatrices()
	return c
}

// NewDemoCamera frames the default sphere scene.
func NewDemoCamera(aspect float32) *Camera {
	return NewCamera(mgl32.Vec3{0, 2.5, 9}, mgl32.Vec3{0, 1, 0}, 60, aspect)
}

func (c *Camera) View() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.view
}

func (c *Camera) Projection() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projection
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }

func (c *Camera) Target() mgl32.Vec3 { return c.target }

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

func (c *Camera) updateMatrices() {
	c.view = mgl32.LookAtV(c.position, c.target, c.up)
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
	c.dirty = false
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.position = pos
	c.dirty = true
}

func (c *Camera) SetAspectRatio(aspect float32) {
	c.aspect = aspect
	c.dirty = true
}

// Orbit rotates the camera around its target by deltaYaw degrees about the
// up axis, keeping distance and height.
func (c *Camera) Orbit(deltaYaw float32) {
	rel := c.position.Sub(c.target)
	yaw := float64(mgl32.DegToRad(deltaYaw))
	sin, cos := math.Sincos(yaw)
	x := float64(rel.X())*cos + float64(rel.Z())*sin
	z := -float64(rel.X())*sin + float64(rel.Z())*cos
	c.position = c.target.Add(mgl32.Vec3{float32(x), rel.Y(), float32(z)})
	c.dirty = true
}
