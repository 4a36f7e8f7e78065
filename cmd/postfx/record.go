package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richinsley/postfx/encoder"
	"github.com/richinsley/postfx/gldevice"
	"github.com/richinsley/postfx/graphics"
	"github.com/richinsley/postfx/headless"
	"github.com/richinsley/postfx/logging"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Render offscreen and encode the result with ffmpeg",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			w, h := cfg.Window.Width, cfg.Window.Height
			fps := cfg.Record.FPS
			frames := int(cfg.Record.Duration * float64(fps))
			if frames <= 0 {
				return fmt.Errorf("nothing to record: duration %.2fs at %d fps", cfg.Record.Duration, fps)
			}

			ctx, err := headless.New(w, h, logging.Component(log, "egl"))
			if err != nil {
				return err
			}
			defer ctx.Shutdown()

			dev, err := gldevice.New(ctx, gldevice.WithLogger(logging.Component(log, "gldevice")))
			if err != nil {
				return err
			}
			defer dev.Destroy()

			var t float64
			p, err := newPipeline(cmd.Context(), dev, cfg, func() float64 { return t }, log)
			if err != nil {
				return err
			}
			defer p.Destroy()

			enc, err := encoder.NewFFmpegEncoder(encoder.Options{
				Output:     cfg.Record.Output,
				Width:      w,
				Height:     h,
				FPS:        fps,
				Codec:      cfg.Record.Codec,
				PixFmt:     cfg.Record.PixFmt,
				FFmpegPath: cfg.Record.FFmpegPath,
			}, logging.Component(log, "encoder"))
			if err != nil {
				return err
			}
			if err := enc.Start(); err != nil {
				return err
			}

			dt := 1 / float64(fps)
			for i := 0; i < frames; i++ {
				if err := cmd.Context().Err(); err != nil {
					enc.Close()
					return err
				}
				if err := p.frame(dt); err != nil {
					enc.Close()
					return err
				}
				t += dt
				img, err := dev.ReadPixels(graphics.Screen)
				if err != nil {
					enc.Close()
					return err
				}
				if err := enc.SendImage(img); err != nil {
					enc.Close()
					return err
				}
				if i%fps == 0 {
					log.Debug().Int("frame", i).Int("of", frames).Msg("recording")
				}
			}
			if err := enc.Close(); err != nil {
				return fmt.Errorf("ffmpeg failed: %w", err)
			}
			log.Info().Str("output", cfg.Record.Output).Int("frames", frames).Msg("recording complete")
			return nil
		},
	}
	addSceneFlags(cmd)
	f := cmd.Flags()
	f.String("output", "output.mp4", "output video file")
	f.Int("fps", 60, "frames per second")
	f.Float64("duration", 10, "duration in seconds")
	f.String("codec", "libx264", "ffmpeg video codec")
	f.String("ffmpeg", "", "path to the ffmpeg executable")
	return cmd
}
