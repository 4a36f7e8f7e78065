package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/renderer"
	"github.com/richinsley/postfx/shader"
)

// Sphere is one ray-traced sphere. Emission is added after lighting, so an
// emissive sphere can exceed 1.0 in any channel.
type Sphere struct {
	Center   mgl32.Vec3
	Radius   float32
	Albedo   mgl32.Vec3
	Emission mgl32.Vec3
}

// DefaultSpheres is a lit grey sphere flanked by two HDR emitters.
var DefaultSpheres = []Sphere{
	{Center: mgl32.Vec3{0, 1, 0}, Radius: 1, Albedo: mgl32.Vec3{0.8, 0.8, 0.8}},
	{Center: mgl32.Vec3{-2.5, 0.75, 1}, Radius: 0.75, Albedo: mgl32.Vec3{0.2, 0.1, 0.05}, Emission: mgl32.Vec3{6, 3, 0.8}},
	{Center: mgl32.Vec3{2.5, 0.75, -0.5}, Radius: 0.75, Albedo: mgl32.Vec3{0.05, 0.1, 0.2}, Emission: mgl32.Vec3{1, 3, 8}},
	{Center: mgl32.Vec3{0.8, 0.4, 2.5}, Radius: 0.4, Albedo: mgl32.Vec3{0.9, 0.2, 0.2}},
}

var (
	lightDir = mgl32.Vec3{0.4, 1, 0.3}.Normalize()
	sky      = mgl32.Vec3{0.05, 0.06, 0.09}
)

const (
	uniformInverseViewProjection = "inverseViewProjection"
	uniformCameraPosition        = "cameraPosition"
)

// Spheres draws a procedural HDR scene on the full-screen quad: spheres
// over a checkered ground plane, traced per fragment.
type Spheres struct {
	dev     graphics.Device
	quad    *renderer.FullscreenQuad
	program graphics.ProgramID
	spheres []Sphere
}

// SpheresSource returns the program that traces spheres.
func SpheresSource(spheres []Sphere) graphics.ProgramSource {
	decls := make([]shader.SphereDecl, len(spheres))
	for i, s := range spheres {
		decls[i] = shader.SphereDecl{Center: s.Center, Radius: s.Radius, Albedo: s.Albedo, Emission: s.Emission}
	}
	uniforms := []graphics.UniformDecl{
		{Name: uniformInverseViewProjection, Type: graphics.Mat4},
		{Name: uniformCameraPosition, Type: graphics.Vec3},
	}
	decl := make([]string, len(uniforms))
	for i, u := range uniforms {
		decl[i] = u.Type.String() + " " + u.GLSLName()
	}
	table := append([]Sphere(nil), spheres...)
	return graphics.ProgramSource{
		Name:     "spheres",
		Fragment: shader.Fragment(nil, decl, shader.SpheresBody(decls)),
		Uniforms: uniforms,
		Kernel: func(_ graphics.Sampler, f graphics.Fragment, u graphics.Uniforms) mgl32.Vec4 {
			c := trace(table, u.Mat4(uniformInverseViewProjection), u.Vec3(uniformCameraPosition), f.UV)
			return c.Vec4(1)
		},
	}
}

// NewSpheres compiles the sphere program on dev. The quad is borrowed.
func NewSpheres(dev graphics.Device, quad *renderer.FullscreenQuad, spheres []Sphere) (*Spheres, error) {
	if len(spheres) == 0 {
		return nil, fmt.Errorf("spheres scene needs at least one sphere")
	}
	program, err := dev.CompileProgram(SpheresSource(spheres))
	if err != nil {
		return nil, fmt.Errorf("failed to compile spheres program: %w", err)
	}
	return &Spheres{dev: dev, quad: quad, program: program, spheres: spheres}, nil
}

func (s *Spheres) Draw(cam renderer.Camera) error {
	if s.program == 0 {
		return &graphics.NotInitializedError{What: "spheres program"}
	}
	inv := cam.Projection().Mul4(cam.View()).Inv()
	return s.quad.Draw(s.program, nil, graphics.Uniforms{
		uniformInverseViewProjection: inv,
		uniformCameraPosition:        cam.Position(),
	})
}

// Spheres returns the traced spheres.
func (s *Spheres) Spheres() []Sphere { return s.spheres }

func (s *Spheres) Destroy() {
	if s.program != 0 {
		s.dev.DeleteProgram(s.program)
		s.program = 0
	}
}

func hitSphere(s Sphere, ro, rd mgl32.Vec3) float32 {
	oc := ro.Sub(s.Center)
	b := oc.Dot(rd)
	c := oc.Dot(oc) - s.Radius*s.Radius
	h := b*b - c
	if h < 0 {
		return -1
	}
	return -b - float32(math.Sqrt(float64(h)))
}

func unproject(inv mgl32.Mat4, ndc mgl32.Vec2, z float32) mgl32.Vec3 {
	p := inv.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], z, 1})
	return p.Vec3().Mul(1 / p[3])
}

func trace(spheres []Sphere, inv mgl32.Mat4, ro mgl32.Vec3, uv mgl32.Vec2) mgl32.Vec3 {
	ndc := mgl32.Vec2{uv[0]*2 - 1, uv[1]*2 - 1}
	rd := unproject(inv, ndc, 1).Sub(unproject(inv, ndc, -1)).Normalize()

	best := float32(1e20)
	color := sky
	for _, s := range spheres {
		t := hitSphere(s, ro, rd)
		if t > 0 && t < best {
			best = t
			n := ro.Add(rd.Mul(t)).Sub(s.Center).Normalize()
			diffuse := max(n.Dot(lightDir), 0)
			color = s.Albedo.Mul(0.1 + 0.9*diffuse).Add(s.Emission)
		}
	}
	if rd.Y() < 0 {
		t := -ro.Y() / rd.Y()
		if t > 0 && t < best {
			p := ro.Add(rd.Mul(t))
			checker := float32(math.Mod(math.Floor(float64(p.X()))+math.Floor(float64(p.Z())), 2))
			if checker < 0 {
				checker += 2
			}
			g := (0.25 + 0.35*checker) * (0.1 + 0.9*lightDir.Y())
			color = mgl32.Vec3{g, g, g}
		}
	}
	return color
}
