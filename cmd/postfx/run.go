package main

import (
	"context"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"

	"github.com/richinsley/postfx/config"
	"github.com/richinsley/postfx/gldevice"
	"github.com/richinsley/postfx/glfwcontext"
	"github.com/richinsley/postfx/logging"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render interactively in a window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			if err := glfwcontext.InitGraphics(); err != nil {
				return err
			}
			defer glfwcontext.TerminateGraphics()

			win, err := glfwcontext.New(glfwcontext.Config{
				Width:   cfg.Window.Width,
				Height:  cfg.Window.Height,
				Title:   cfg.Window.Title,
				Visible: true,
				VSync:   cfg.Window.VSync,
			})
			if err != nil {
				return err
			}
			defer win.Shutdown()

			dev, err := gldevice.New(win, gldevice.WithLogger(logging.Component(log, "gldevice")))
			if err != nil {
				return err
			}
			defer dev.Destroy()

			p, err := newPipeline(cmd.Context(), dev, cfg, win.Time, log)
			if err != nil {
				return err
			}
			defer p.Destroy()

			paused := false
			win.RegisterKeyCallback(glfw.KeySpace, func() { paused = !paused })

			var updates <-chan config.ChainUpdate
			if watch && cfg.Chain != "" {
				cw, err := config.NewChainWatcher(cfg.Chain, logging.Component(log, "watcher"))
				if err != nil {
					return err
				}
				defer cw.Close()
				updates = cw.Updates()
			}

			return runLoop(cmd.Context(), win, p, updates, &paused)
		},
	}
	addSceneFlags(cmd)
	cmd.Flags().String("title", "postfx", "window title")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the chain file when it changes")
	return cmd
}

func runLoop(ctx context.Context, win *glfwcontext.Context, p *pipeline, updates <-chan config.ChainUpdate, paused *bool) error {
	last := win.Time()
	for !win.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-updates:
			if u.Err != nil {
				p.log.Warn().Err(u.Err).Msg("chain file rejected, keeping current chain")
			} else if err := p.install(u.Chain); err != nil {
				p.log.Warn().Err(err).Msg("chain reload failed")
			}
		default:
		}

		now := win.Time()
		dt := now - last
		last = now
		if *paused {
			dt = 0
		}
		if err := p.frame(dt); err != nil {
			return err
		}
		win.EndFrame()
	}
	return nil
}
