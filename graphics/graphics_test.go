package graphics

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		typ  UniformType
		in   any
		want any
	}{
		{Float, 2.4, float32(2.4)},
		{Float, 3, float32(3)},
		{Float, int32(2), float32(2)},
		{Int, 4, int32(4)},
		{Vec2, []any{1.0, 2}, mgl32.Vec2{1, 2}},
		{Vec3, []float64{1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{Vec4, mgl32.Vec4{1, 2, 3, 4}, mgl32.Vec4{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.typ, tt.in)
		require.NoError(t, err, "%s <- %v", tt.typ, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCoerceErrors(t *testing.T) {
	_, err := Coerce(Int, 1.5)
	assert.Error(t, err)
	_, err = Coerce(Vec3, []any{1.0, 2.0})
	assert.Error(t, err)
	_, err = Coerce(Float, "bright")
	assert.Error(t, err)
}

func TestUniformGetters(t *testing.T) {
	u := Uniforms{"threshold": float32(2.4), "tintColor": mgl32.Vec3{1, 0, 0}}
	assert.Equal(t, float32(2.4), u.Float("threshold"))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, u.Vec3("tintColor"))
	assert.Zero(t, u.Float("missing"))

	c := u.Clone()
	c["threshold"] = float32(1)
	assert.Equal(t, float32(2.4), u.Float("threshold"))
}

func TestErrorsMatchWithAs(t *testing.T) {
	var err error = fmt.Errorf("add effect: %w", &ConfigurationError{
		Index: 2, Effect: "additive_blend", Slot: "mainScene", Reason: "no texture bound",
	})

	var cfg *ConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "mainScene", cfg.Slot)
	assert.Contains(t, err.Error(), `effect 2 (additive_blend) slot "mainScene"`)

	inner := errors.New("out of memory")
	alloc := &AllocationError{What: "render target", Width: 64, Height: 32, Err: inner}
	assert.ErrorIs(t, alloc, inner)
	assert.Equal(t, "failed to allocate render target (64x32): out of memory", alloc.Error())

	assert.Equal(t, "camera not set", (&NotInitializedError{What: "camera"}).Error())
}

func TestQuadVerticesCoverClipSpace(t *testing.T) {
	require.Len(t, QuadVertices, 6*VertexStride)
	for i := 0; i < len(QuadVertices); i += VertexStride {
		x, y, u, v := QuadVertices[i], QuadVertices[i+1], QuadVertices[i+2], QuadVertices[i+3]
		assert.Equal(t, (x+1)/2, u)
		assert.Equal(t, (y+1)/2, v)
	}
	assert.True(t, Screen.IsScreen())
	assert.False(t, Binding{Target: 3}.IsScreen())
}

func TestUniformDeclCheck(t *testing.T) {
	levels := UniformDecl{Name: "levels", Type: Float, Range: AtLeast(1)}
	assert.NoError(t, levels.Check(float32(1)))
	assert.NoError(t, levels.Check(float32(64)))
	assert.ErrorContains(t, levels.Check(float32(0)), ">= 1")

	radius := UniformDecl{Name: "blurRadius", Type: Float, Range: &Range{Min: 0, Max: 100}}
	assert.NoError(t, radius.Check(float32(0)))
	assert.ErrorContains(t, radius.Check(float32(-1)), "in [0, 100]")
	assert.Error(t, radius.Check(float32(1e6)))

	free := UniformDecl{Name: "tintColor", Type: Vec3}
	assert.NoError(t, free.Check(mgl32.Vec3{-1, 5, 0}))
	assert.ErrorContains(t, free.Check(mgl32.Vec3{1, float32(math.NaN()), 0}), "not finite")
	assert.Error(t, UniformDecl{Type: Float}.Check(float32(math.Inf(1))))
}
