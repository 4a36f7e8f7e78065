package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentDeclarations(t *testing.T) {
	src := Fragment([]string{SourceTexture, "mainScene"}, []string{"float threshold"}, CopyBody)

	assert.True(t, strings.HasPrefix(src, "#version 300 es\n"))
	assert.Contains(t, src, "uniform sampler2D sourceTexture;\n")
	assert.Contains(t, src, "uniform sampler2D mainScene;\n")
	assert.Contains(t, src, "uniform float threshold;\n")
	assert.Contains(t, src, "in vec2 frag_uv;")
}

func TestVertexShaderUsesMappedVarying(t *testing.T) {
	gl := GenerateVertexShader(false, "_ufrag_uv")
	assert.Contains(t, gl, "#version 410 core")
	assert.Contains(t, gl, "out vec2 _ufrag_uv;")
	assert.Contains(t, gl, "_ufrag_uv = in_uv;")

	gles := GenerateVertexShader(true, "")
	assert.Contains(t, gles, "#version 300 es")
	assert.Contains(t, gles, "out vec2 frag_uv;")
}

func TestBlurBodiesStepAlongOneAxis(t *testing.T) {
	assert.Contains(t, HorizontalBlurBody, "vec2(float(k) * pixel.x, 0.0)")
	assert.Contains(t, VerticalBlurBody, "vec2(0.0, float(k) * pixel.y)")
	assert.NotContains(t, HorizontalBlurBody, "%")
}

func TestSpheresBodyTable(t *testing.T) {
	body := SpheresBody([]SphereDecl{
		{Center: [3]float32{0, 1, 0}, Radius: 1, Albedo: [3]float32{1, 1, 1}, Emission: [3]float32{4, 3, 1}},
		{Center: [3]float32{2, 0.5, 1}, Radius: 0.5},
	})
	assert.Contains(t, body, "#define SPHERE_COUNT 2")
	assert.Contains(t, body, "Sphere(vec3(0.00000, 1.00000, 0.00000), 1.00000,")
	assert.Equal(t, 1, strings.Count(body, "),\n"))
}

func TestShadertoyFragment(t *testing.T) {
	src := GetShadertoyFragment(2, "// common", "void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0); }")
	assert.Contains(t, src, "uniform sampler2D iChannel1;")
	assert.NotContains(t, src, "iChannel2")
	assert.Contains(t, src, "mainImage(fragColor, gl_FragCoord.xy);")
}
