// Package config loads go-sphere configuration from YAML, the environment
// and command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-sphere/pkg/animator"
	"github.com/teslashibe/go-sphere/pkg/audioio"
	"github.com/teslashibe/go-sphere/pkg/expression"
	"github.com/teslashibe/go-sphere/pkg/spectrum"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort         = "SPHERE_PORT"
	EnvLogLevel     = "SPHERE_LOG_LEVEL"
	EnvLogFormat    = "SPHERE_LOG_FORMAT"
	EnvFigureSize   = "SPHERE_FIGURE_SIZE"
	EnvTickRate     = "SPHERE_TICK_RATE"
	EnvAudioBackend = "SPHERE_AUDIO_BACKEND"
	EnvStaticDir    = "SPHERE_STATIC_DIR"
)

// DefaultPort is where the server listens unless told otherwise.
const DefaultPort = 8080

// Config is the complete configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server" json:"server"`
	Log      LogConfig       `yaml:"log" json:"log"`
	Figure   FigureConfig    `yaml:"figure" json:"figure"`
	Animator animator.Config `yaml:"animator" json:"animator"`
	Spectrum spectrum.Config `yaml:"spectrum" json:"spectrum"`
	Audio    audioio.Config  `yaml:"audio" json:"audio"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port       int    `yaml:"port" json:"port"`
	StaticDir  string `yaml:"static_dir" json:"static_dir"`
	MaxFigures int    `yaml:"max_figures" json:"max_figures"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// FigureConfig sets the size and tuning of new figures.
type FigureConfig struct {
	Size       float64           `yaml:"size" json:"size"`
	Expression expression.Config `yaml:"expression" json:"expression"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: DefaultPort, MaxFigures: 64},
		Log:    LogConfig{Level: "info"},
		Figure: FigureConfig{
			Size:       expression.DefaultSize,
			Expression: expression.DefaultConfig(),
		},
		Animator: animator.DefaultConfig(),
		Spectrum: spectrum.VoiceConfig(),
		Audio:    audioio.DefaultConfig(),
	}
}

// Load reads path over the defaults, then applies the environment. An empty
// path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvFigureSize); ok {
		size, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFigureSize, err)
		}
		c.Figure.Size = size
	}
	if v, ok := lookup(EnvTickRate); ok {
		rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTickRate, err)
		}
		c.Animator.TickRate = rate
	}
	if v, ok := lookup(EnvAudioBackend); ok {
		c.Audio.Backend = audioio.Backend(v)
	}
	if v, ok := lookup(EnvStaticDir); ok {
		c.Server.StaticDir = v
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxFigures < 0 {
		errs = append(errs, fmt.Errorf("server.max_figures must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Figure.Size <= 0 {
		errs = append(errs, fmt.Errorf("figure.size must be positive, got %v", c.Figure.Size))
	}
	if err := c.Figure.Expression.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("figure.expression: %w", err))
	}
	if err := c.Animator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("animator: %w", err))
	}
	if err := c.Spectrum.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spectrum: %w", err))
	}
	if err := c.Audio.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("audio: %w", err))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
