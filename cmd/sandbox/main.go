package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/config"
	"github.com/Carmen-Shannon/oxy-sandbox/engine"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/camera"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/line_renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/scene"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/pflag"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

// options are the command line flags.
type options struct {
	configPath string
	backend    string
	profile    bool
	logLevel   slog.Level
	help       bool
}

func parseFlags(args []string) (options, *pflag.FlagSet, error) {
	var opts options
	var level string

	fs := pflag.NewFlagSet("sandbox", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	fs.StringVarP(&opts.backend, "backend", "b", "", "renderer backend: wgpu or opengl (overrides the config)")
	fs.BoolVarP(&opts.profile, "profile", "p", false, "log frame and memory stats every interval")
	fs.StringVar(&level, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVarP(&opts.help, "help", "h", false, "show this help")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	if err := opts.logLevel.UnmarshalText([]byte(level)); err != nil {
		return opts, fs, fmt.Errorf("--log-level: %w", err)
	}
	return opts, fs, nil
}

// loadConfig reads the config file and applies the flags that were set on top of it.
func loadConfig(opts options, fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if fs.Changed("backend") {
		cfg.Renderer.Backend = opts.backend
	}
	if fs.Changed("profile") {
		cfg.Engine.Profiling = opts.profile
	}
	return cfg, cfg.Validate()
}

func clientAPIFor(backend renderer.RendererBackendType) window.ClientAPI {
	if backend == renderer.BackendTypeOpenGL {
		return window.ClientAPIOpenGL
	}
	return window.ClientAPIWebGPU
}

// newSandbox builds the window, renderer, line renderer and engine described by cfg.
// Everything created before a failure is released before the error is returned.
func newSandbox(cfg config.Config) (eng engine.Engine, err error) {
	backend, err := cfg.BackendType()
	if err != nil {
		return nil, err
	}
	presentMode, err := cfg.PresentMode()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.ProfileInterval()
	if err != nil {
		return nil, err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithClientAPI(clientAPIFor(backend)),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = win.Close()
		}
	}()

	cc := cfg.Renderer.ClearColor
	r, err := renderer.NewRenderer(backend, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.Software),
		renderer.WithClearColor(cc[0], cc[1], cc[2], cc[3]),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			r.Release()
		}
	}()

	lines, err := line_renderer.NewLineRenderer(r.Device(), cfg.Lines.Capacity,
		line_renderer.WithShaderSources(cfg.Lines.WGSL, cfg.Lines.Vertex, cfg.Lines.Fragment),
		line_renderer.WithEnabled(cfg.Lines.Enabled),
		line_renderer.WithOverlay(cfg.Lines.Overlay),
		line_renderer.WithAlpha(float32(cfg.Lines.Alpha)),
	)
	if err != nil {
		return nil, err
	}

	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3(cfg.Camera.Position)),
		camera.WithYaw(cfg.Camera.Yaw),
		camera.WithPitch(cfg.Camera.Pitch),
		camera.WithSpeed(cfg.Camera.Speed),
		camera.WithSensitivity(cfg.Camera.Sensitivity),
		camera.WithZoom(cfg.Camera.Zoom),
	)

	eng, err = engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithLineRenderer(lines),
		engine.WithCamera(cam),
		engine.WithCameraController(camera.NewCameraController(camera.WithConstrainPitch(cfg.Camera.ConstrainPitch))),
		engine.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		engine.WithScene(0, scene.NewSandboxScene()),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfileInterval(interval),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
	)
	if err != nil {
		lines.Destroy()
		return nil, err
	}
	return eng, nil
}

func run(args []string) error {
	opts, fs, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.help {
		fs.PrintDefaults()
		return nil
	}

	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.logLevel})))

	cfg, err := loadConfig(opts, fs)
	if err != nil {
		return err
	}

	eng, err := newSandbox(cfg)
	if err != nil {
		return err
	}
	common.Logger().Info("controls", "move", "WASD, Space, Shift", "look", "right mouse toggles capture", "zoom", "scroll", "lines", "L", "quit", "Esc")
	return eng.Run()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		common.Logger().Error("sandbox failed", "error", err)
		os.Exit(1)
	}
}
