// Package posebridge wires the marker pose application together: a vision
// session feeding a bridge that moves the tracked cube, with the web server
// and metrics observing every frame.
package posebridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-markerpose/internal/config"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/camera"
	"github.com/teslashibe/go-markerpose/pkg/metrics"
	"github.com/teslashibe/go-markerpose/pkg/scene"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"github.com/teslashibe/go-markerpose/pkg/web"
)

// ObjectName is the name of the tracked scene object.
const ObjectName = "Cube"

// markerSource is implemented by backends that expose their detections.
type markerSource interface {
	Markers() []vision.Marker
}

// cameraApplier is implemented by backends whose capture settings can be
// changed while running.
type cameraApplier interface {
	ApplyCamera(cfg camera.Config) error
	SetFrameSink(fn func(jpeg []byte))
}

// App is the marker pose application.
type App struct {
	config config.Config
	log    *slog.Logger

	backend vision.Backend
	object  *scene.Object
	bridge  *bridge.Bridge
	camera  *camera.Manager
	metrics *metrics.Metrics
	server  *web.Server
}

// New creates an application driving backend. The backend is usually an
// opencv.Session built from cfg.VisionOptions().
func New(cfg config.Config, backend vision.Backend) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		config:  cfg,
		log:     log.Component("posebridge"),
		backend: backend,
		object:  scene.NewObject(ObjectName),
		metrics: metrics.New(),
	}

	a.camera = camera.NewManager(cfg.VisionOptions().Camera)
	if ca, ok := backend.(cameraApplier); ok {
		a.camera.OnConfigChange = ca.ApplyCamera
	}

	a.bridge = bridge.New(cfg.Bridge, backend, a.object)
	a.bridge.OnFrame(a.observeFrame)
	return a, nil
}

// Init starts the bridge session and prepares the web server.
// Call this after New() and before Run().
func (a *App) Init() error {
	if a.config.Server.Enabled {
		opts := web.Options{
			Port:    a.config.Server.Port,
			Bridge:  a.bridge,
			Camera:  a.camera,
			Metrics: a.metrics,
		}
		if ms, ok := a.backend.(markerSource); ok {
			opts.Markers = ms.Markers
		}
		a.server = web.NewServer(opts)

		if ca, ok := a.backend.(cameraApplier); ok {
			ca.SetFrameSink(a.server.SendCameraFrame)
		}
	}

	res, err := a.bridge.Start()
	if err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	a.metrics.ObserveStart(res)

	if !res.CalibrationLoaded {
		a.log.Warn("running without camera calibration", "file", res.CalibrationFile)
	}
	return nil
}

// Run serves the web API in the background and runs the frame loop on the
// calling goroutine. Blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.server != nil {
		a.server.StartAsync(ctx)
	}
	return a.bridge.Run(ctx)
}

// Shutdown closes the session and stops the web server.
func (a *App) Shutdown() {
	if err := a.bridge.Stop(); err != nil {
		a.log.Warn("stop bridge", "error", err)
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.log.Warn("stop web server", "error", err)
		}
	}
	a.log.Info("shutdown complete")
}

// Bridge returns the bridge.
func (a *App) Bridge() *bridge.Bridge { return a.bridge }

// Object returns the tracked scene object.
func (a *App) Object() *scene.Object { return a.object }

// Camera returns the capture settings manager.
func (a *App) Camera() *camera.Manager { return a.camera }

// Server returns the web server, nil when disabled.
func (a *App) Server() *web.Server { return a.server }

func (a *App) observeFrame(res bridge.FrameResult) {
	markers := 0
	if ms, ok := a.backend.(markerSource); ok {
		markers = len(ms.Markers())
	} else if res.Status.OK() {
		markers = 1
	}
	a.metrics.ObserveFrame(res, markers)

	if a.server != nil {
		a.server.PublishFrame(res)
	}
}
