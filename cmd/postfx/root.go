package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/richinsley/postfx/config"
	"github.com/richinsley/postfx/logging"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "postfx",
		Short:         "Real-time post-processing effect chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./postfx.yaml when present)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	cmd.AddCommand(
		newRunCmd(opts),
		newRecordCmd(opts),
		newSnapshotCmd(opts),
		newKernelCmd(),
	)
	return cmd
}

// addSceneFlags registers the flags shared by every rendering command.
func addSceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("width", 1280, "render width")
	f.Int("height", 720, "render height")
	f.String("scene", "spheres", "scene: spheres, image, shadertoy")
	f.String("image", "", "image file for the image scene")
	f.String("filter", "linear", "image resampling filter: nearest, linear, catmullrom")
	f.String("shader", "", "Shadertoy shader ID for the shadertoy scene")
	f.String("chain", "", "effect chain YAML file (default bloom chain)")
}

// setup loads the configuration, layering the command's flags on top, and
// builds the logger.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}
