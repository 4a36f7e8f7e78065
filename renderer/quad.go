package renderer

import (
	"fmt"

	"github.com/richinsley/postfx/graphics"
)

// FullscreenQuad is the two-triangle geometry covering the whole viewport.
// One quad is shared by every effect of a Postprocessor and by scenes that
// draw on a quad.
type FullscreenQuad struct {
	dev graphics.Device
	geo graphics.GeometryID
}

// NewFullscreenQuad uploads graphics.QuadVertices to dev.
func NewFullscreenQuad(dev graphics.Device) (*FullscreenQuad, error) {
	geo, err := dev.CreateGeometry(graphics.QuadVertices)
	if err != nil {
		return nil, fmt.Errorf("failed to create fullscreen quad: %w", err)
	}
	return &FullscreenQuad{dev: dev, geo: geo}, nil
}

// Geometry returns the device geometry handle.
func (q *FullscreenQuad) Geometry() graphics.GeometryID { return q.geo }

// VertexCount is always 6.
func (q *FullscreenQuad) VertexCount() int {
	return len(graphics.QuadVertices) / graphics.VertexStride
}

// Draw draws the quad once with program into the bound destination.
func (q *FullscreenQuad) Draw(program graphics.ProgramID, textures []graphics.TextureID, uniforms graphics.Uniforms) error {
	return q.dev.Draw(graphics.DrawCall{
		Program:  program,
		Geometry: q.geo,
		Textures: textures,
		Uniforms: uniforms,
	})
}

// Destroy releases the geometry. It is safe to call more than once.
func (q *FullscreenQuad) Destroy() {
	if q.geo == 0 {
		return
	}
	q.dev.DeleteGeometry(q.geo)
	q.geo = 0
}
