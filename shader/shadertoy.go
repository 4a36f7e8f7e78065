package shader

import "fmt"

// ShadertoyUniforms are the standard uniforms a Shadertoy image pass reads.
var ShadertoyUniforms = []string{"iResolution", "iTime", "iTimeDelta", "iFrame", "iMouse", "iDate"}

// GeneratePreamble declares the Shadertoy uniforms and nchannels
// iChannelN samplers.
func GeneratePreamble(nchannels int) string {
	base := `#version 300 es
precision highp float;
precision highp int;

#define HW_PERFORMANCE 1

uniform vec3  iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform int   iFrame;
uniform vec4  iMouse;
uniform vec4  iDate;
`
	for i := 0; i < nchannels; i++ {
		base += fmt.Sprintf("uniform sampler2D iChannel%d;\n", i)
	}

	return base + `
in vec2 frag_uv;
out vec4 fragColor;

#define FAST_TANH_BODY(x) ((x) * (27.0 + (x)*(x)) / (27.0 + 9.0*(x)*(x)))
float fast_tanh(float x) { return FAST_TANH_BODY(x); }
vec2  fast_tanh(vec2  x) { return FAST_TANH_BODY(x); }
vec3  fast_tanh(vec3  x) { return FAST_TANH_BODY(x); }
vec4  fast_tanh(vec4  x) { return FAST_TANH_BODY(x); }
#define tanh fast_tanh
`
}

func GetMain() string {
	return `
void main(void)
{
    mainImage(fragColor, gl_FragCoord.xy);
}
`
}

// GetShadertoyFragment combines preamble, common code, the user's image
// pass and the main wrapper.
func GetShadertoyFragment(nchannels int, common, user string) string {
	return GeneratePreamble(nchannels) + common + "\n" + user + GetMain()
}
