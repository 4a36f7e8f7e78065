package software

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/imaging"
)

var copySource = graphics.ProgramSource{
	Name:     "copy",
	Samplers: []string{"image"},
	Kernel: func(s graphics.Sampler, f graphics.Fragment, _ graphics.Uniforms) mgl32.Vec4 {
		return s.Sample(0, f.UV)
	},
}

func gradient(w, h int) *imaging.Image {
	img := imaging.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, mgl32.Vec4{float32(x), float32(y), float32(x * y), 1})
		}
	}
	return img
}

func newQuad(t *testing.T, d *Device) graphics.GeometryID {
	t.Helper()
	geo, err := d.CreateGeometry(graphics.QuadVertices)
	require.NoError(t, err)
	return geo
}

func TestCopyIsExact(t *testing.T) {
	for _, size := range [][2]int{{8, 8}, {7, 5}, {1, 1}, {16, 3}} {
		d := New(size[0], size[1])
		src := gradient(size[0], size[1])
		tex, err := d.CreateTexture(src)
		require.NoError(t, err)
		prog, err := d.CompileProgram(copySource)
		require.NoError(t, err)

		require.NoError(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: newQuad(t, d), Textures: []graphics.TextureID{tex}}))

		out, err := d.ReadPixels(graphics.Screen)
		require.NoError(t, err)
		assert.Zero(t, imaging.MaxDiff(src, out), "size %v", size)
	}
}

func TestFragmentCoordinates(t *testing.T) {
	d := New(4, 2)
	prog, err := d.CompileProgram(graphics.ProgramSource{
		Name: "coords",
		Kernel: func(_ graphics.Sampler, f graphics.Fragment, _ graphics.Uniforms) mgl32.Vec4 {
			return mgl32.Vec4{f.Coord[0], f.Coord[1], f.Resolution[0], f.Resolution[1]}
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: newQuad(t, d)}))

	out, err := d.ReadPixels(graphics.Screen)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 4, 2}, out.At(0, 0))
	assert.Equal(t, mgl32.Vec4{3.5, 1.5, 4, 2}, out.At(3, 1))
	assert.Equal(t, 1, d.Draws())
}

func TestRenderTargetRoundTrip(t *testing.T) {
	d := New(4, 4)
	target, tex, err := d.CreateTarget(4, 4, true)
	require.NoError(t, err)

	require.NoError(t, d.Bind(graphics.Binding{Target: target}))
	d.Clear(mgl32.Vec4{0.25, 0.5, 0.75, 1})
	assert.Equal(t, graphics.Binding{Target: target}, d.Binding())

	w, h, ok := d.TextureSize(tex)
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 4}, [2]int{w, h})

	require.NoError(t, d.BindScreen())
	prog, err := d.CompileProgram(copySource)
	require.NoError(t, err)
	require.NoError(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: newQuad(t, d), Textures: []graphics.TextureID{tex}}))

	out, err := d.ReadPixels(graphics.Screen)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{0.25, 0.5, 0.75, 1}, out.At(2, 3))
}

func TestDrawRejectsFeedbackLoop(t *testing.T) {
	d := New(4, 4)
	target, tex, err := d.CreateTarget(4, 4, false)
	require.NoError(t, err)
	require.NoError(t, d.Bind(graphics.Binding{Target: target}))

	prog, err := d.CompileProgram(copySource)
	require.NoError(t, err)
	err = d.Draw(graphics.DrawCall{Program: prog, Geometry: newQuad(t, d), Textures: []graphics.TextureID{tex}})
	assert.ErrorContains(t, err, "reads the bound render target")
}

func TestDrawChecksUniforms(t *testing.T) {
	d := New(2, 2)
	src := graphics.ProgramSource{
		Name:     "needs-threshold",
		Uniforms: []graphics.UniformDecl{{Name: "threshold", Type: graphics.Float}},
		Kernel: func(graphics.Sampler, graphics.Fragment, graphics.Uniforms) mgl32.Vec4 {
			return mgl32.Vec4{}
		},
	}
	prog, err := d.CompileProgram(src)
	require.NoError(t, err)
	geo := newQuad(t, d)

	assert.ErrorContains(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: geo}), `uniform "threshold" not set`)
	assert.ErrorContains(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: geo,
		Uniforms: graphics.Uniforms{"threshold": int32(2)}}), "want float")
	assert.NoError(t, d.Draw(graphics.DrawCall{Program: prog, Geometry: geo,
		Uniforms: graphics.Uniforms{"threshold": float32(2)}}))
}

func TestAllocationLimits(t *testing.T) {
	d := New(4, 4, WithMaxTextureSize(16), WithTargetLimit(1))

	_, _, err := d.CreateTarget(32, 4, false)
	var alloc *graphics.AllocationError
	require.True(t, errors.As(err, &alloc))
	assert.Equal(t, 32, alloc.Width)

	_, _, err = d.CreateTarget(0, 4, false)
	assert.True(t, errors.As(err, &alloc))

	_, _, err = d.CreateTarget(4, 4, false)
	require.NoError(t, err)
	_, _, err = d.CreateTarget(4, 4, false)
	assert.True(t, errors.As(err, &alloc))
}

func TestDeleteTargetReleasesTexture(t *testing.T) {
	d := New(2, 2)
	target, _, err := d.CreateTarget(2, 2, false)
	require.NoError(t, err)
	require.NoError(t, d.Bind(graphics.Binding{Target: target}))
	assert.Equal(t, Resources{Textures: 1, Targets: 1}, d.Live())

	d.DeleteTarget(target)
	assert.Equal(t, Resources{}, d.Live())
	assert.True(t, d.Binding().IsScreen())
	assert.Error(t, d.Bind(graphics.Binding{Target: target}))
}

func TestDepthTestRejectsSecondFlatDraw(t *testing.T) {
	d := New(2, 2)
	target, _, err := d.CreateTarget(2, 2, true)
	require.NoError(t, err)
	require.NoError(t, d.Bind(graphics.Binding{Target: target}))
	d.Clear(mgl32.Vec4{})

	solid := func(c mgl32.Vec4) graphics.ProgramID {
		p, err := d.CompileProgram(graphics.ProgramSource{Name: "solid",
			Kernel: func(graphics.Sampler, graphics.Fragment, graphics.Uniforms) mgl32.Vec4 { return c }})
		require.NoError(t, err)
		return p
	}
	geo := newQuad(t, d)
	require.NoError(t, d.Draw(graphics.DrawCall{Program: solid(mgl32.Vec4{1, 0, 0, 1}), Geometry: geo, DepthTest: true}))
	require.NoError(t, d.Draw(graphics.DrawCall{Program: solid(mgl32.Vec4{0, 1, 0, 1}), Geometry: geo, DepthTest: true}))

	require.NoError(t, d.BindScreen())
	out, err := d.ReadPixels(graphics.Binding{Target: target})
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, out.At(1, 1))
}
