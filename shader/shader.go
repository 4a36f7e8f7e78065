// Package shader holds the GLSL sources of the pipeline. Fragment shaders
// are written once as WebGL2 (GLSL ES 3.00) and translated per backend;
// vertex shaders are emitted directly for desktop GL and GLES.
package shader

import (
	"fmt"
	"strings"
)

// Varying is the name of the texture coordinate passed from the quad vertex
// shader to every fragment shader.
const Varying = "frag_uv"

// SourceTexture is the sampler bound to the previous pass's output.
const SourceTexture = "sourceTexture"

// ────────────────────────────────── Vertex ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 %[1]s;
void main() {
    %[1]s = in_uv;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 %[1]s;
void main() {
    %[1]s = in_uv;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// GenerateVertexShader returns the full-screen quad vertex shader. varying
// is the (possibly translator-mapped) name the fragment stage reads the
// texture coordinate from.
func GenerateVertexShader(isGLES bool, varying string) string {
	if varying == "" {
		varying = Varying
	}
	if isGLES {
		return fmt.Sprintf(vertexShaderSourceGLES, varying)
	}
	return fmt.Sprintf(vertexShaderSourceGL, varying)
}

// ──────────────────────────── Fragment preamble ─────────────────────────────

const fragmentHeader = `#version 300 es
precision highp float;
precision highp int;

in vec2 frag_uv;
out vec4 fragColor;
`

// Fragment assembles a WebGL2 fragment shader from sampler names, uniform
// declarations ("float threshold") and a body containing main.
func Fragment(samplers []string, uniforms []string, body string) string {
	var sb strings.Builder
	sb.WriteString(fragmentHeader)
	for _, s := range samplers {
		fmt.Fprintf(&sb, "uniform sampler2D %s;\n", s)
	}
	for _, u := range uniforms {
		fmt.Fprintf(&sb, "uniform %s;\n", u)
	}
	sb.WriteString(body)
	return sb.String()
}
