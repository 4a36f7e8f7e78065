// Command postfx renders a scene through a post-processing effect chain.
package main

import (
	"os"
	"runtime"

	"github.com/richinsley/postfx/logging"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.New(logging.Config{}).Error().Err(err).Msg("postfx failed")
		os.Exit(1)
	}
}
