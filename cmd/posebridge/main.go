// posebridge moves a tracked cube to the pose of an ArUco marker seen by a
// local camera and serves the pose stream over HTTP and websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/teslashibe/go-markerpose/internal/config"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/posebridge"
	"github.com/teslashibe/go-markerpose/pkg/vision/opencv"
)

// The frame loop runs on the main goroutine; keep it on the main thread so
// the preview window works on every platform.
func init() { runtime.LockOSThread() }

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)

	app, err := posebridge.New(cfg, opencv.NewSession(cfg.VisionOptions()))
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}

// parseFlags loads the config file and environment, then applies the flags
// that were set explicitly.
func parseFlags() (config.Config, error) {
	def := config.Default()

	configPath := flag.String("config", "", "YAML configuration file")
	cameraIdx := flag.Int("camera", def.Bridge.CameraIndex, "Camera device index")
	calib := flag.String("calibration", def.Bridge.CalibrationFile, "Camera calibration file")
	requireCalib := flag.Bool("require-calibration", def.Bridge.RequireCalibration, "Fail when the calibration cannot be loaded")
	port := flag.String("port", def.Server.Port, "Web server port")
	noServer := flag.Bool("no-server", false, "Disable the web server")
	interval := flag.Duration("interval", def.Bridge.FrameInterval, "Frame loop interval")
	onFailure := flag.String("on-failure", string(def.Bridge.OnFailure), "What to do when estimation fails: apply or hold")
	scaleByDelta := flag.Bool("scale-by-delta", def.Bridge.ScaleMoveByDelta, "Scale the rigid-body target by frame delta time")
	dictionary := flag.String("dictionary", def.Vision.Dictionary, "ArUco dictionary")
	preview := flag.Bool("preview", false, "Show the annotated camera image in a window")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			cfg.Bridge.CameraIndex = *cameraIdx
		case "calibration":
			cfg.Bridge.CalibrationFile = *calib
		case "require-calibration":
			cfg.Bridge.RequireCalibration = *requireCalib
		case "port":
			cfg.Server.Port = *port
		case "no-server":
			cfg.Server.Enabled = !*noServer
		case "interval":
			cfg.Bridge.FrameInterval = *interval
		case "on-failure":
			cfg.Bridge.OnFailure = bridge.FailurePolicy(*onFailure)
		case "scale-by-delta":
			cfg.Bridge.ScaleMoveByDelta = *scaleByDelta
		case "dictionary":
			cfg.Vision.Dictionary = *dictionary
		case "preview":
			cfg.Camera.Preview = *preview
		case "debug":
			if *debug {
				cfg.LogLevel = "debug"
			}
		}
	})

	if cfg.Bridge.FrameInterval < time.Millisecond {
		return cfg, fmt.Errorf("interval %v is too short", cfg.Bridge.FrameInterval)
	}
	return cfg, cfg.Validate()
}
