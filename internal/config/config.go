// Package config loads the settings shared by the markerpose commands.
//
// Values are resolved in order: built-in defaults, a YAML file, POSE_*
// environment variables, then command-line flags set by each command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/camera"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the web server port.
const DefaultPort = "8080"

// Config is the full application configuration.
type Config struct {
	Bridge bridge.Config `yaml:"bridge"`
	Vision Vision        `yaml:"vision"`
	Camera camera.Config `yaml:"camera"`
	Server Server        `yaml:"server"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Vision holds marker detection settings.
type Vision struct {
	Dictionary   string  `yaml:"dictionary"`
	MarkerLength float64 `yaml:"marker_length"`
}

// Server holds web server settings.
type Server struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bridge: bridge.DefaultConfig(),
		Vision: Vision{
			Dictionary:   vision.DefaultDictionary,
			MarkerLength: vision.DefaultMarkerLength,
		},
		Camera: camera.DefaultConfig(),
		Server: Server{
			Enabled: true,
			Port:    DefaultPort,
		},
		LogLevel: "info",
	}
}

// LoadFile reads a YAML file over the defaults. Keys missing from the
// file keep their default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Load returns the defaults, overlaid with path when it is not empty and
// then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// VisionOptions returns the session options. The capture device follows
// the bridge camera index.
func (c Config) VisionOptions() vision.Options {
	opts := vision.DefaultOptions()
	opts.Dictionary = c.Vision.Dictionary
	opts.MarkerLength = c.Vision.MarkerLength
	opts.Camera = c.Camera
	opts.Camera.Device = c.Bridge.CameraIndex
	return opts
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	if err := c.Bridge.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := vision.ValidateDictionary(c.Vision.Dictionary); err != nil {
		errs = append(errs, fmt.Errorf("vision: %w", err))
	}
	if c.Vision.MarkerLength <= 0 {
		errs = append(errs, fmt.Errorf("vision: marker_length must be positive"))
	}

	cam := c.Camera
	cam.Device = c.Bridge.CameraIndex
	if problems := cam.Validate(); len(problems) > 0 {
		errs = append(errs, fmt.Errorf("camera: %s", strings.Join(problems, "; ")))
	}

	if c.Server.Enabled && c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("server: port is required"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
