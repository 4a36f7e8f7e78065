// Package translator owns the process-wide goshadertranslator instance.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the shared translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
		if initErr != nil {
			initErr = fmt.Errorf("failed to create shader translator: %w", initErr)
		}
	})
	return translator, initErr
}

// Translated is a translated shader and the mapping from declared names
// to the names in the output.
type Translated struct {
	Code  string
	Names map[string]string
}

// MappedName returns the output name of a declared variable, or name
// itself when the translator left it untouched.
func (t *Translated) MappedName(name string) string {
	if mapped, ok := t.Names[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

// Fragment translates a WebGL2 fragment shader for desktop GL 4.1 or, when
// isGLES is set, for OpenGL ES.
func Fragment(source string, isGLES bool) (*Translated, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, err
	}
	outputFormat := gst.OutputFormatGLSL410
	if isGLES {
		outputFormat = gst.OutputFormatESSL
	}
	sh, err := t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}
	out := &Translated{Code: sh.Code, Names: make(map[string]string, len(sh.Variables))}
	for name, v := range sh.Variables {
		out.Names[name] = v.MappedName
	}
	return out, nil
}
