package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/camera"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/line_renderer"
	"github.com/pelletier/go-toml/v2"
)

// Window holds the [window] section.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Renderer holds the [renderer] section.
type Renderer struct {
	Backend     string     `toml:"backend"`
	PresentMode string     `toml:"present_mode"`
	MSAA        int        `toml:"msaa"`
	ClearColor  [4]float64 `toml:"clear_color"`
	Software    bool       `toml:"software"`
}

// Camera holds the [camera] section.
type Camera struct {
	Position       [3]float32 `toml:"position"`
	Yaw            float32    `toml:"yaw"`
	Pitch          float32    `toml:"pitch"`
	Speed          float32    `toml:"speed"`
	Sensitivity    float32    `toml:"sensitivity"`
	Zoom           float32    `toml:"zoom"`
	ConstrainPitch bool       `toml:"constrain_pitch"`
	Near           float32    `toml:"near"`
	Far            float32    `toml:"far"`
}

// Lines holds the [lines] section.
type Lines struct {
	Capacity int     `toml:"capacity"`
	Enabled  bool    `toml:"enabled"`
	Overlay  bool    `toml:"overlay"`
	Alpha    float64 `toml:"alpha"`
	WGSL     string  `toml:"wgsl"`
	Vertex   string  `toml:"vertex"`
	Fragment string  `toml:"fragment"`
}

// Engine holds the [engine] section.
type Engine struct {
	Profiling bool `toml:"profiling"`
	// ProfileInterval is a Go duration string such as "1s" or "500ms".
	ProfileInterval string `toml:"profile_interval"`
	// FrameLimit caps the frame rate; 0 means no cap.
	FrameLimit int `toml:"frame_limit"`
}

// Config is the full sandbox configuration.
type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Camera   Camera   `toml:"camera"`
	Lines    Lines    `toml:"lines"`
	Engine   Engine   `toml:"engine"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: Window{
			Title:  "oxy sandbox",
			Width:  1280,
			Height: 720,
		},
		Renderer: Renderer{
			Backend:     renderer.BackendTypeWGPU.String(),
			PresentMode: "vsync",
			MSAA:        int(renderer.MSAA4x),
			ClearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
		},
		Camera: Camera{
			Position:       [3]float32{0, 0, 3},
			Yaw:            camera.DefaultYaw,
			Pitch:          camera.DefaultPitch,
			Speed:          camera.DefaultSpeed,
			Sensitivity:    camera.DefaultSensitivity,
			Zoom:           camera.DefaultZoom,
			ConstrainPitch: true,
			Near:           0.1,
			Far:            100,
		},
		Lines: Lines{
			Capacity: 1024,
			Enabled:  true,
			Alpha:    1,
			WGSL:     line_renderer.DefaultWGSLPath,
			Vertex:   line_renderer.DefaultVertexPath,
			Fragment: line_renderer.DefaultFragmentPath,
		},
		Engine: Engine{
			ProfileInterval: "1s",
		},
	}
}

// Decode reads TOML from r on top of Default. Unknown keys are an error.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the decoded configuration, not yet validated
//   - error: a decode error naming the offending key or position
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return cfg, fmt.Errorf("config line %d column %d: %w", row, col, err)
		}
		return cfg, err
	}
	return cfg, nil
}

// Load reads and validates a TOML config file. An empty path returns Default.
//
// Parameters:
//   - path: the file to read, or ""
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate reports every invalid field, joined into one error.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window: size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}

	if _, err := c.BackendType(); err != nil {
		errs = append(errs, fmt.Errorf("renderer: %w", err))
	}
	if _, err := c.PresentMode(); err != nil {
		errs = append(errs, fmt.Errorf("renderer: %w", err))
	}
	if !renderer.MSAASampleCount(c.Renderer.MSAA).Valid() {
		add("renderer: msaa %d must be 1, 4, 8 or 16", c.Renderer.MSAA)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			add("renderer: clear_color[%d] = %g outside [0, 1]", i, v)
		}
	}

	if c.Camera.Speed < 0 {
		add("camera: speed %g must not be negative", c.Camera.Speed)
	}
	if c.Camera.Sensitivity < 0 {
		add("camera: sensitivity %g must not be negative", c.Camera.Sensitivity)
	}
	if c.Camera.Zoom < camera.MinZoom || c.Camera.Zoom > camera.MaxZoom {
		add("camera: zoom %g outside [%g, %g]", c.Camera.Zoom, camera.MinZoom, camera.MaxZoom)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		add("camera: need 0 < near < far, got near %g far %g", c.Camera.Near, c.Camera.Far)
	}

	if c.Lines.Capacity < 0 {
		add("lines: capacity %d must not be negative", c.Lines.Capacity)
	}
	if c.Lines.Alpha < 0 || c.Lines.Alpha > 1 {
		add("lines: alpha %g outside [0, 1]", c.Lines.Alpha)
	}

	if c.Engine.FrameLimit < 0 {
		add("engine: frame_limit %d must not be negative", c.Engine.FrameLimit)
	}
	if _, err := c.ProfileInterval(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}

	return errors.Join(errs...)
}

// BackendType parses the renderer backend name.
func (c Config) BackendType() (renderer.RendererBackendType, error) {
	return renderer.ParseBackendType(c.Renderer.Backend)
}

// PresentMode parses the renderer present mode.
func (c Config) PresentMode() (renderer.PresentMode, error) {
	return renderer.ParsePresentMode(c.Renderer.PresentMode)
}

// ProfileInterval parses the profiler interval. An empty string means one second.
func (c Config) ProfileInterval() (time.Duration, error) {
	if c.Engine.ProfileInterval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(c.Engine.ProfileInterval)
	if err != nil {
		return 0, fmt.Errorf("profile_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("profile_interval %s must be positive", d)
	}
	return d, nil
}
