package gldevice

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/shader"
	"github.com/richinsley/postfx/translator"
)

type program struct {
	src         graphics.ProgramSource
	samplerLocs []int32
	uniformLocs map[string]int32
}

// CompileProgram translates the WebGL2 fragment for this context, pairs it
// with the quad vertex shader and resolves sampler and uniform locations.
func (d *Device) CompileProgram(src graphics.ProgramSource) (graphics.ProgramID, error) {
	fs, err := translator.Fragment(src.Fragment, d.isGLES)
	if err != nil {
		return 0, fmt.Errorf("program %q: %w", src.Name, err)
	}

	vs := shader.GenerateVertexShader(d.isGLES, fs.MappedName(shader.Varying))
	id, err := newProgram(vs, fs.Code)
	if err != nil {
		return 0, fmt.Errorf("program %q: %w", src.Name, err)
	}

	p := &program{
		src:         src,
		samplerLocs: make([]int32, len(src.Samplers)),
		uniformLocs: make(map[string]int32, len(src.Uniforms)),
	}
	for i, name := range src.Samplers {
		p.samplerLocs[i] = uniformLocation(id, fs.MappedName(name))
	}
	for _, u := range src.Uniforms {
		p.uniformLocs[u.Name] = uniformLocation(id, fs.MappedName(u.GLSLName()))
	}

	d.programs[graphics.ProgramID(id)] = p
	d.log.Debug().Str("program", src.Name).Uint32("id", id).Msg("program compiled")
	return graphics.ProgramID(id), nil
}

func (d *Device) DeleteProgram(id graphics.ProgramID) {
	if _, ok := d.programs[id]; !ok {
		return
	}
	gl.DeleteProgram(uint32(id))
	delete(d.programs, id)
}

// checkDraw resolves and validates everything a draw needs without touching
// GL state, so a rejected call leaves the context exactly as it was.
func (d *Device) checkDraw(call graphics.DrawCall) (*program, *geometry, error) {
	p, ok := d.programs[call.Program]
	if !ok {
		return nil, nil, fmt.Errorf("unknown program %d", call.Program)
	}
	g, ok := d.geometries[call.Geometry]
	if !ok {
		return nil, nil, fmt.Errorf("unknown geometry %d", call.Geometry)
	}
	if len(call.Textures) < len(p.samplerLocs) {
		return nil, nil, fmt.Errorf("program %q needs %d textures, got %d", p.src.Name, len(p.samplerLocs), len(call.Textures))
	}
	var boundColor graphics.TextureID
	if fb, ok := d.targets[d.bound.Target]; ok {
		boundColor = fb.color
	}
	for i, name := range p.src.Samplers {
		tex := call.Textures[i]
		if _, ok := d.textures[tex]; !ok {
			return nil, nil, fmt.Errorf("program %q: sampler %q has no texture", p.src.Name, name)
		}
		if tex == boundColor {
			return nil, nil, fmt.Errorf("program %q: sampler %q reads the bound render target", p.src.Name, name)
		}
	}
	for _, u := range p.src.Uniforms {
		v, ok := call.Uniforms[u.Name]
		if !ok {
			return nil, nil, fmt.Errorf("program %q: uniform %q not set", p.src.Name, u.Name)
		}
		if t, _ := graphics.TypeOf(v); t != u.Type {
			return nil, nil, fmt.Errorf("program %q: uniform %q is %T, want %s", p.src.Name, u.Name, v, u.Type)
		}
	}
	return p, g, nil
}

// Draw issues one draw of the geometry into the bound destination.
func (d *Device) Draw(call graphics.DrawCall) error {
	p, g, err := d.checkDraw(call)
	if err != nil {
		return err
	}

	gl.UseProgram(uint32(call.Program))
	for i, loc := range p.samplerLocs {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, uint32(call.Textures[i]))
		if loc >= 0 {
			gl.Uniform1i(loc, int32(i))
		}
	}
	for _, u := range p.src.Uniforms {
		setUniform(p.uniformLocs[u.Name], call.Uniforms[u.Name])
	}

	if call.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	gl.BindVertexArray(uint32(call.Geometry))
	gl.DrawArrays(gl.TRIANGLES, 0, g.count)
	gl.BindVertexArray(0)

	for i := range p.samplerLocs {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.UseProgram(0)
	return glError("draw " + p.src.Name)
}

// setUniform uploads v, already type-checked by checkDraw.
func setUniform(loc int32, v any) {
	if loc < 0 {
		// optimized out by the compiler
		return
	}
	switch x := v.(type) {
	case float32:
		gl.Uniform1f(loc, x)
	case int32:
		gl.Uniform1i(loc, x)
	case mgl32.Vec2:
		gl.Uniform2f(loc, x[0], x[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, x[0], x[1], x[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, x[0], x[1], x[2], x[3])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &x[0])
	}
}

func uniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(sh, logLength, nil, gl.Str(logText))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return sh, nil
}
