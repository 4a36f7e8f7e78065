package software

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
)

type textureSampler struct {
	slots []*imaging.Image
}

func (s textureSampler) Sample(slot int, uv mgl32.Vec2) mgl32.Vec4 {
	if slot < 0 || slot >= len(s.slots) || s.slots[slot] == nil {
		return mgl32.Vec4{}
	}
	img := s.slots[slot]
	x := int(math.Floor(float64(uv[0]) * float64(img.Width)))
	y := int(math.Floor(float64(uv[1]) * float64(img.Height)))
	return img.AtClamped(x, y)
}

func (s textureSampler) Size(slot int) (int, int) {
	if slot < 0 || slot >= len(s.slots) || s.slots[slot] == nil {
		return 0, 0
	}
	return s.slots[slot].Width, s.slots[slot].Height
}

// Draw rasterizes the call's triangles into the bound destination.
func (d *Device) Draw(call graphics.DrawCall) error {
	prog, ok := d.programs[call.Program]
	if !ok {
		return fmt.Errorf("unknown program %d", call.Program)
	}
	verts, ok := d.geometries[call.Geometry]
	if !ok {
		return fmt.Errorf("unknown geometry %d", call.Geometry)
	}
	dst, depth, err := d.surface(d.bound)
	if err != nil {
		return err
	}
	if len(call.Textures) < len(prog.Samplers) {
		return fmt.Errorf("program %q needs %d textures, got %d", prog.Name, len(prog.Samplers), len(call.Textures))
	}
	for _, u := range prog.Uniforms {
		v, ok := call.Uniforms[u.Name]
		if !ok {
			return fmt.Errorf("program %q: uniform %q not set", prog.Name, u.Name)
		}
		if t, _ := graphics.TypeOf(v); t != u.Type {
			return fmt.Errorf("program %q: uniform %q is %T, want %s", prog.Name, u.Name, v, u.Type)
		}
	}

	sampler := textureSampler{slots: make([]*imaging.Image, len(prog.Samplers))}
	for i := range prog.Samplers {
		tex, ok := d.textures[call.Textures[i]]
		if !ok {
			return fmt.Errorf("program %q: sampler %q has no texture", prog.Name, prog.Samplers[i])
		}
		if tex == dst {
			return fmt.Errorf("program %q: sampler %q reads the bound render target", prog.Name, prog.Samplers[i])
		}
		sampler.slots[i] = tex
	}

	d.draws++
	res := mgl32.Vec2{float32(dst.Width), float32(dst.Height)}
	for i := 0; i+3*graphics.VertexStride <= len(verts); i += 3 * graphics.VertexStride {
		d.triangle(dst, depth, call.DepthTest, verts[i:i+3*graphics.VertexStride], prog.Kernel, sampler, call.Uniforms, res)
	}
	return nil
}

type vertex struct {
	x, y, u, v float64
}

func (d *Device) triangle(dst *imaging.Image, depth []float32, depthTest bool, tri []float32,
	kernel graphics.Kernel, s graphics.Sampler, u graphics.Uniforms, res mgl32.Vec2) {
	var v [3]vertex
	for i := range v {
		o := i * graphics.VertexStride
		v[i] = vertex{
			x: (float64(tri[o]) + 1) / 2 * float64(dst.Width),
			y: (float64(tri[o+1]) + 1) / 2 * float64(dst.Height),
			u: float64(tri[o+2]),
			v: float64(tri[o+3]),
		}
	}
	area := edge(v[0], v[1], v[2].x, v[2].y)
	if area == 0 {
		return
	}

	minX := max(0, int(math.Floor(min(v[0].x, v[1].x, v[2].x))))
	maxX := min(dst.Width-1, int(math.Ceil(max(v[0].x, v[1].x, v[2].x))))
	minY := max(0, int(math.Floor(min(v[0].y, v[1].y, v[2].y))))
	maxY := min(dst.Height-1, int(math.Ceil(max(v[0].y, v[1].y, v[2].y))))

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			w0 := edge(v[1], v[2], cx, cy) / area
			w1 := edge(v[2], v[0], cx, cy) / area
			w2 := edge(v[0], v[1], cx, cy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if depthTest && depth != nil {
				// Flat geometry sits at the depth-range midpoint; GL_LESS.
				di := py*dst.Width + px
				if depth[di] <= 0.5 {
					continue
				}
				depth[di] = 0.5
			}
			frag := graphics.Fragment{
				UV: mgl32.Vec2{
					float32(w0*v[0].u + w1*v[1].u + w2*v[2].u),
					float32(w0*v[0].v + w1*v[1].v + w2*v[2].v),
				},
				Coord:      mgl32.Vec2{float32(cx), float32(cy)},
				Resolution: res,
			}
			dst.Set(px, py, kernel(s, frag, u))
		}
	}
}

func edge(a, b vertex, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}
