package renderer

import "github.com/go-gl/mathgl/mgl32"

// Camera supplies the view of a scene.
type Camera interface {
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	Position() mgl32.Vec3
}

// Scene draws itself into whatever destination is currently bound.
type Scene interface {
	Draw(cam Camera) error
}
