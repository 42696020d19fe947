// Package camera holds the capture settings used by the marker pose session.
// Settings can be changed at runtime through the Manager.
package camera

// Config holds capture parameters for the marker camera.
type Config struct {
	// Device is the capture device index (0 is the first attached camera).
	Device int `json:"device" yaml:"device"`

	// Requested frame size. Zero keeps the driver default.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// FPS is the requested capture rate. Zero keeps the driver default.
	FPS float64 `json:"fps" yaml:"fps"`

	// Quality is the JPEG quality of the annotated frames sent to viewers.
	Quality int `json:"quality" yaml:"quality"`

	// Preview opens a local window showing the annotated frames.
	Preview bool `json:"preview" yaml:"preview"`
}

// Capture limits accepted by Validate.
const (
	MaxWidth  = 4096
	MaxHeight = 2160
	MaxFPS    = 240
)

// DefaultConfig returns the configuration used when nothing is set:
// device 0 at the driver's native resolution.
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Quality: 80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width != 0 && (c.Width < 160 || c.Width > MaxWidth) {
		errors = append(errors, "width must be 0 (driver default) or between 160 and 4096")
	}
	if c.Height != 0 && (c.Height < 120 || c.Height > MaxHeight) {
		errors = append(errors, "height must be 0 (driver default) or between 120 and 2160")
	}
	if (c.Width == 0) != (c.Height == 0) {
		errors = append(errors, "width and height must be set together")
	}
	if c.FPS < 0 || c.FPS > MaxFPS {
		errors = append(errors, "fps must be between 0 and 240")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// Preset names for common capture sizes.
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	cfg := DefaultConfig()
	switch name {
	case PresetDefault:
	case PresetVGA:
		cfg.Width, cfg.Height, cfg.FPS = 640, 480, 30
	case Preset720p:
		cfg.Width, cfg.Height, cfg.FPS = 1280, 720, 30
	case Preset1080p:
		cfg.Width, cfg.Height, cfg.FPS = 1920, 1080, 30
	default:
		return nil
	}
	return &cfg
}
