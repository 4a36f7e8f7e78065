//go:build linux

package headless

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/richinsley/postfx/graphics"
)

/*
#cgo LDFLAGS: -lEGL -lGLESv2
#include <EGL/egl.h>
#include <EGL/eglext.h>

// Extension entry points are resolved at runtime; the wrappers return
// failure when the driver lacks them.
static PFNEGLQUERYDEVICESEXTPROC eglQueryDevicesEXT_ptr = NULL;
static PFNEGLGETPLATFORMDISPLAYEXTPROC eglGetPlatformDisplayEXT_ptr = NULL;

static void initialize_egl_extension_pointers() {
    eglQueryDevicesEXT_ptr = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    eglGetPlatformDisplayEXT_ptr = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLDisplay get_platform_display(EGLenum platform, void *native_display, const EGLint *attrib_list) {
    if (eglGetPlatformDisplayEXT_ptr) {
        return eglGetPlatformDisplayEXT_ptr(platform, native_display, attrib_list);
    }
    return EGL_NO_DISPLAY;
}

static EGLBoolean query_devices(EGLint max_devices, EGLDeviceEXT *devices, EGLint *num_devices) {
    if (eglQueryDevicesEXT_ptr) {
        return eglQueryDevicesEXT_ptr(max_devices, devices, num_devices);
    }
    return EGL_FALSE;
}
*/
import "C"

var _ graphics.Context = (*Headless)(nil)

// Headless is an EGL pbuffer surface with an OpenGL ES 3 context. It never
// asks to close; callers stop after the frames they need.
type Headless struct {
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
	start   time.Time
	log     zerolog.Logger
}

// getEGLDisplay enumerates EGL devices first and falls back to the default
// display.
func getEGLDisplay(log zerolog.Logger) (C.EGLDisplay, error) {
	C.initialize_egl_extension_pointers()

	var count C.EGLint
	if C.query_devices(0, nil, &count) == C.EGL_FALSE || count == 0 {
		log.Warn().Msg("EGL_EXT_device_query unavailable, using EGL_DEFAULT_DISPLAY")
		display := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
		if display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
			return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("no default EGL display")
		}
		return display, nil
	}

	log.Debug().Int("devices", int(count)).Msg("EGL devices found")
	devices := make([]C.EGLDeviceEXT, count)
	if C.query_devices(count, &devices[0], &count) == C.EGL_FALSE {
		return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("failed to query EGL devices")
	}

	for i, dev := range devices[:count] {
		display := C.get_platform_display(C.EGL_PLATFORM_DEVICE_EXT, unsafe.Pointer(dev), nil)
		if display != C.EGLDisplay(C.EGL_NO_DISPLAY) {
			log.Debug().Int("device", i).Msg("EGL display acquired")
			return display, nil
		}
	}

	return C.EGLDisplay(C.EGL_NO_DISPLAY), fmt.Errorf("no EGL device yields a display")
}

// contextProfile is one API/version combination New tries, in order.
type contextProfile struct {
	name       string
	api        C.EGLenum
	renderable C.EGLint
	attribs    []C.EGLint
}

// Desktop GL 4.1 core matches the go-gl bindings; ES 3 is the fallback on
// drivers that only expose GLES through EGL.
var profiles = []contextProfile{
	{
		name:       "OpenGL 4.1 core",
		api:        C.EGL_OPENGL_API,
		renderable: C.EGL_OPENGL_BIT,
		attribs: []C.EGLint{
			C.EGL_CONTEXT_MAJOR_VERSION, 4,
			C.EGL_CONTEXT_MINOR_VERSION, 1,
			C.EGL_CONTEXT_OPENGL_PROFILE_MASK, C.EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT,
			C.EGL_NONE,
		},
	},
	{
		name:       "OpenGL ES 3",
		api:        C.EGL_OPENGL_ES_API,
		renderable: C.EGL_OPENGL_ES3_BIT,
		attribs:    []C.EGLint{C.EGL_CONTEXT_CLIENT_VERSION, 3, C.EGL_NONE},
	},
}

// New creates a width x height pbuffer context and makes it current.
func New(width, height int, log zerolog.Logger) (*Headless, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid headless surface size %dx%d", width, height)
	}
	h := &Headless{
		width:   width,
		height:  height,
		log:     log,
		context: C.EGLContext(C.EGL_NO_CONTEXT),
		surface: C.EGLSurface(C.EGL_NO_SURFACE),
	}

	var err error
	h.display, err = getEGLDisplay(log)
	if err != nil {
		return nil, fmt.Errorf("failed to get EGL display: %w", err)
	}

	var major, minor C.EGLint
	if C.eglInitialize(h.display, &major, &minor) == C.EGL_FALSE {
		return nil, fmt.Errorf("failed to initialize EGL")
	}
	log.Debug().Int("major", int(major)).Int("minor", int(minor)).Msg("EGL initialized")

	for _, p := range profiles {
		if err = h.createContext(p); err == nil {
			log.Info().Str("profile", p.name).Int("width", width).Int("height", height).Msg("headless context created")
			h.start = time.Now()
			return h, nil
		}
		log.Debug().Err(err).Str("profile", p.name).Msg("context profile unavailable")
	}
	h.Shutdown()
	return nil, fmt.Errorf("no usable EGL context: %w", err)
}

// createContext binds the profile's API and creates the pbuffer surface and
// context. Partial state is released on failure.
func (h *Headless) createContext(p contextProfile) error {
	if C.eglBindAPI(p.api) == C.EGL_FALSE {
		return fmt.Errorf("eglBindAPI failed")
	}
	configAttribs := []C.EGLint{
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_DEPTH_SIZE, 24,
		C.EGL_RENDERABLE_TYPE, p.renderable,
		C.EGL_NONE,
	}
	var config C.EGLConfig
	var n C.EGLint
	if C.eglChooseConfig(h.display, &configAttribs[0], &config, 1, &n) == C.EGL_FALSE || n == 0 {
		return fmt.Errorf("no matching EGL config")
	}

	size := []C.EGLint{C.EGL_WIDTH, C.EGLint(h.width), C.EGL_HEIGHT, C.EGLint(h.height), C.EGL_NONE}
	surface := C.eglCreatePbufferSurface(h.display, config, &size[0])
	if surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		return fmt.Errorf("failed to create pbuffer surface")
	}
	context := C.eglCreateContext(h.display, config, C.EGLContext(C.EGL_NO_CONTEXT), &p.attribs[0])
	if context == C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroySurface(h.display, surface)
		return fmt.Errorf("failed to create context")
	}
	if C.eglMakeCurrent(h.display, surface, surface, context) == C.EGL_FALSE {
		C.eglDestroyContext(h.display, context)
		C.eglDestroySurface(h.display, surface)
		return fmt.Errorf("eglMakeCurrent failed")
	}
	h.surface, h.context = surface, context
	return nil
}

func (h *Headless) MakeCurrent() {
	if C.eglMakeCurrent(h.display, h.surface, h.surface, h.context) == C.EGL_FALSE {
		h.log.Error().Msg("eglMakeCurrent failed")
	}
}

func (h *Headless) ShouldClose() bool { return false }

func (h *Headless) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

func (h *Headless) GetFramebufferSize() (int, int) { return h.width, h.height }

func (h *Headless) Time() float64 { return time.Since(h.start).Seconds() }

func (h *Headless) Shutdown() {
	if h.display != C.EGLDisplay(C.EGL_NO_DISPLAY) {
		C.eglMakeCurrent(h.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
		if h.context != C.EGLContext(C.EGL_NO_CONTEXT) {
			C.eglDestroyContext(h.display, h.context)
		}
		if h.surface != C.EGLSurface(C.EGL_NO_SURFACE) {
			C.eglDestroySurface(h.display, h.surface)
		}
		C.eglTerminate(h.display)
		h.display = C.EGLDisplay(C.EGL_NO_DISPLAY)
	}
}
