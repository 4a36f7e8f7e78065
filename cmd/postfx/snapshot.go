package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richinsley/postfx/gldevice"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/headless"
	"github.com/richinsley/postfx/imaging"
	"github.com/richinsley/postfx/logging"
	"github.com/richinsley/postfx/software"
)

// newSnapshotCmd renders a single frame to a PNG. The software device is
// used unless --gl is given; Shadertoy scenes need --gl.
func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		out    string
		useGL  bool
		warmup int
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render one frame through the chain and save it as PNG",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			w, h := cfg.Window.Width, cfg.Window.Height

			var dev graphics.Device
			if useGL {
				ctx, err := headless.New(w, h, logging.Component(log, "egl"))
				if err != nil {
					return err
				}
				defer ctx.Shutdown()
				gl, err := gldevice.New(ctx, gldevice.WithLogger(logging.Component(log, "gldevice")))
				if err != nil {
					return err
				}
				defer gl.Destroy()
				dev = gl
			} else {
				if cfg.Scene.Kind == "shadertoy" {
					return fmt.Errorf("shadertoy scenes need the GL device, pass --gl")
				}
				sw := software.New(w, h)
				defer sw.Destroy()
				dev = sw
			}

			var t float64
			p, err := newPipeline(cmd.Context(), dev, cfg, func() float64 { return t }, log)
			if err != nil {
				return err
			}
			defer p.Destroy()

			// warmup frames advance the orbit and clock before the captured one
			dt := 1.0 / 60
			for i := 0; i <= warmup; i++ {
				if err := p.frame(dt); err != nil {
					return err
				}
				t += dt
			}
			img, err := dev.ReadPixels(graphics.Screen)
			if err != nil {
				return err
			}
			if err := imaging.SavePNG(out, img); err != nil {
				return err
			}
			log.Info().Str("output", out).Int("width", w).Int("height", h).Float32("peak", img.MaxChannel()).Msg("snapshot saved")
			return nil
		},
	}
	addSceneFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "snapshot.png", "output PNG file")
	cmd.Flags().BoolVar(&useGL, "gl", false, "render with OpenGL on a headless EGL context")
	cmd.Flags().IntVar(&warmup, "warmup", 0, "frames rendered before the captured one")
	return cmd
}
