// Package config loads the application configuration and effect chain
// files.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/richinsley/postfx/imaging"
)

// Config holds all application configuration.
type Config struct {
	Window    WindowConfig    `mapstructure:"window"`
	Scene     SceneConfig     `mapstructure:"scene"`
	Chain     string          `mapstructure:"chain"`
	Record    RecordConfig    `mapstructure:"record"`
	Shadertoy ShadertoyConfig `mapstructure:"shadertoy"`
	Log       LogConfig       `mapstructure:"log"`
}

// WindowConfig configures the window and the render target size.
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	VSync  bool   `mapstructure:"vsync"`
}

// SceneConfig selects what is rendered before post-processing.
type SceneConfig struct {
	Kind       string    `mapstructure:"kind"` // spheres, image, shadertoy
	Image      string    `mapstructure:"image"`
	Filter     string    `mapstructure:"filter"` // nearest, linear, catmullrom
	ShaderID   string    `mapstructure:"shader_id"`
	OrbitSpeed float64   `mapstructure:"orbit_speed"` // degrees per second
	ClearColor []float64 `mapstructure:"clear_color"`
}

// RecordConfig configures the ffmpeg encoder.
type RecordConfig struct {
	Output     string  `mapstructure:"output"`
	FPS        int     `mapstructure:"fps"`
	Duration   float64 `mapstructure:"duration"`
	Codec      string  `mapstructure:"codec"`
	PixFmt     string  `mapstructure:"pix_fmt"`
	FFmpegPath string  `mapstructure:"ffmpeg_path"`
}

type ShadertoyConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "postfx",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Scene: SceneConfig{
			Kind:       "spheres",
			Filter:     "linear",
			OrbitSpeed: 10,
			ClearColor: []float64{0, 0, 0, 1},
		},
		Record: RecordConfig{
			Output:   "output.mp4",
			FPS:      60,
			Duration: 10,
			Codec:    "libx264",
			PixFmt:   "yuv420p",
		},
		Shadertoy: ShadertoyConfig{
			BaseURL: "https://www.shadertoy.com/api/v1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// setDefaults registers every default with v so env overrides apply to
// keys missing from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("window.title", cfg.Window.Title)
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
	v.SetDefault("window.vsync", cfg.Window.VSync)
	v.SetDefault("scene.kind", cfg.Scene.Kind)
	v.SetDefault("scene.image", cfg.Scene.Image)
	v.SetDefault("scene.filter", cfg.Scene.Filter)
	v.SetDefault("scene.shader_id", cfg.Scene.ShaderID)
	v.SetDefault("scene.orbit_speed", cfg.Scene.OrbitSpeed)
	v.SetDefault("scene.clear_color", cfg.Scene.ClearColor)
	v.SetDefault("chain", cfg.Chain)
	v.SetDefault("record.output", cfg.Record.Output)
	v.SetDefault("record.fps", cfg.Record.FPS)
	v.SetDefault("record.duration", cfg.Record.Duration)
	v.SetDefault("record.codec", cfg.Record.Codec)
	v.SetDefault("record.pix_fmt", cfg.Record.PixFmt)
	v.SetDefault("record.ffmpeg_path", cfg.Record.FFmpegPath)
	v.SetDefault("shadertoy.key", cfg.Shadertoy.Key)
	v.SetDefault("shadertoy.base_url", cfg.Shadertoy.BaseURL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"width":     "window.width",
	"height":    "window.height",
	"title":     "window.title",
	"scene":     "scene.kind",
	"image":     "scene.image",
	"filter":    "scene.filter",
	"shader":    "scene.shader_id",
	"chain":     "chain",
	"output":    "record.output",
	"fps":       "record.fps",
	"duration":  "record.duration",
	"codec":     "record.codec",
	"ffmpeg":    "record.ffmpeg_path",
	"log-level": "log.level",
	"log-json":  "log.format",
}

// Load reads the configuration file at path (optional when empty), then
// POSTFX_* environment variables, then any flags that were set. Missing
// keys keep their defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("POSTFX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("postfx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := FlagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if f.Name == "log-json" {
			if f.Value.String() == "true" {
				v.Set(key, "json")
			}
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// Validate checks values that would otherwise fail deep inside the
// renderer.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Scene.Kind {
	case "spheres":
	case "image":
		if c.Scene.Image == "" {
			return fmt.Errorf("scene kind image needs scene.image")
		}
	case "shadertoy":
		if c.Scene.ShaderID == "" {
			return fmt.Errorf("scene kind shadertoy needs scene.shader_id")
		}
	default:
		return fmt.Errorf("unknown scene kind %q", c.Scene.Kind)
	}
	if len(c.Scene.ClearColor) != 4 {
		return fmt.Errorf("scene.clear_color needs 4 components, got %d", len(c.Scene.ClearColor))
	}
	if c.Record.FPS <= 0 {
		return fmt.Errorf("record.fps must be positive")
	}
	switch imaging.Filter(c.Scene.Filter) {
	case imaging.FilterNearest, imaging.FilterBilinear, imaging.FilterCatmullRom:
	default:
		return fmt.Errorf("unknown filter %q", c.Scene.Filter)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
