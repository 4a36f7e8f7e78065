package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms maps uniform names to values. Accepted value types are float32,
// int32, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4 and mgl32.Mat4.
type Uniforms map[string]any

// Clone returns a shallow copy.
func (u Uniforms) Clone() Uniforms {
	out := make(Uniforms, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

func (u Uniforms) Float(name string) float32 {
	v, _ := u[name].(float32)
	return v
}

func (u Uniforms) Int(name string) int32 {
	v, _ := u[name].(int32)
	return v
}

func (u Uniforms) Vec2(name string) mgl32.Vec2 {
	v, _ := u[name].(mgl32.Vec2)
	return v
}

func (u Uniforms) Vec3(name string) mgl32.Vec3 {
	v, _ := u[name].(mgl32.Vec3)
	return v
}

func (u Uniforms) Vec4(name string) mgl32.Vec4 {
	v, _ := u[name].(mgl32.Vec4)
	return v
}

func (u Uniforms) Mat4(name string) mgl32.Mat4 {
	v, _ := u[name].(mgl32.Mat4)
	return v
}

// TypeOf returns the uniform type of a Go value.
func TypeOf(v any) (UniformType, bool) {
	switch v.(type) {
	case float32:
		return Float, true
	case int32:
		return Int, true
	case mgl32.Vec2:
		return Vec2, true
	case mgl32.Vec3:
		return Vec3, true
	case mgl32.Vec4:
		return Vec4, true
	case mgl32.Mat4:
		return Mat4, true
	}
	return 0, false
}

// Coerce converts loosely typed values (float64, int, []float64 and
// friends, as produced by YAML decoding) into the Go type of t.
func Coerce(t UniformType, v any) (any, error) {
	if got, ok := TypeOf(v); ok {
		if got == t {
			return v, nil
		}
		if t == Float && got == Int {
			return float32(v.(int32)), nil
		}
	}
	switch t {
	case Float:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot use %T as float", v)
		}
		return float32(f), nil
	case Int:
		f, ok := toFloat(v)
		if !ok || f != float64(int32(f)) {
			return nil, fmt.Errorf("cannot use %v as int", v)
		}
		return int32(f), nil
	case Vec2, Vec3, Vec4, Mat4:
		n := map[UniformType]int{Vec2: 2, Vec3: 3, Vec4: 4, Mat4: 16}[t]
		fs, err := toFloats(v, n)
		if err != nil {
			return nil, fmt.Errorf("cannot use %v as %s: %w", v, t, err)
		}
		switch t {
		case Vec2:
			return mgl32.Vec2{fs[0], fs[1]}, nil
		case Vec3:
			return mgl32.Vec3{fs[0], fs[1], fs[2]}, nil
		case Vec4:
			return mgl32.Vec4{fs[0], fs[1], fs[2], fs[3]}, nil
		default:
			var m mgl32.Mat4
			copy(m[:], fs)
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown uniform type %s", t)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func toFloats(v any, n int) ([]float32, error) {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []float64:
		for _, f := range x {
			items = append(items, f)
		}
	case []float32:
		for _, f := range x {
			items = append(items, f)
		}
	case []int:
		for _, f := range x {
			items = append(items, f)
		}
	default:
		return nil, fmt.Errorf("not a list")
	}
	if len(items) != n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(items))
	}
	out := make([]float32, n)
	for i, it := range items {
		f, ok := toFloat(it)
		if !ok {
			return nil, fmt.Errorf("component %d is %T", i, it)
		}
		out[i] = float32(f)
	}
	return out, nil
}
