// Package web serves the bridge state over HTTP and streams poses and
// annotated camera frames over websockets.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/camera"
	"github.com/teslashibe/go-markerpose/pkg/hub"
	"github.com/teslashibe/go-markerpose/pkg/metrics"
	"github.com/teslashibe/go-markerpose/pkg/protocol"
	"github.com/teslashibe/go-markerpose/pkg/vision"
)

// BridgeState is what the server reads from the bridge.
type BridgeState interface {
	Stats() bridge.Stats
	Last() (bridge.FrameResult, bool)
}

// Options configures a Server. Only Bridge is required.
type Options struct {
	// Port to listen on, e.g. "8080".
	Port string

	Bridge BridgeState

	// Markers returns the detections of the last frame.
	Markers func() []vision.Marker

	// Camera exposes the capture settings at /api/camera.
	Camera *camera.Manager

	// Metrics is served at /metrics when set.
	Metrics *metrics.Metrics
}

// Server is the bridge web server
type Server struct {
	app  *fiber.App
	opts Options
	log  *slog.Logger

	poseHub   *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the server and its routes.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:      opts,
		log:       log.Component("web"),
		poseHub:   hub.New("pose"),
		cameraHub: hub.New("camera"),
	}

	s.poseHub.OnConnect(s.sendStatus)

	app := fiber.New(fiber.Config{
		AppName:               "markerpose",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/pose", s.handlePose)
	api.Get("/markers", s.handleMarkers)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)

	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/pose", websocket.New(s.handlePoseWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App returns the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and listens on the configured port until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.opts.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves on ln until Shutdown. The hubs stop when
// ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.poseHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.log.Info("web server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Error("web server stopped", "error", err)
		}
	}()
}

// PublishFrame broadcasts one bridge frame to pose subscribers.
func (s *Server) PublishFrame(res bridge.FrameResult) {
	msg, err := protocol.NewPoseMessage(PoseData(res))
	if err != nil {
		s.log.Warn("encode pose", "error", err)
		return
	}
	out, err := hub.FromProtocol(msg)
	if err != nil {
		s.log.Warn("encode pose", "error", err)
		return
	}
	s.poseHub.Broadcast(out)

	if s.opts.Metrics != nil {
		s.opts.Metrics.SetClients("pose", s.poseHub.ClientCount())
		s.opts.Metrics.SetClients("camera", s.cameraHub.ClientCount())
	}
}

// SendCameraFrame sends an annotated JPEG frame to camera subscribers.
func (s *Server) SendCameraFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// PoseHub returns the pose stream hub.
func (s *Server) PoseHub() *hub.Hub {
	return s.poseHub
}

// CameraHub returns the camera stream hub.
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
