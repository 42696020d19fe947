package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/hub"
	"github.com/teslashibe/go-markerpose/pkg/protocol"
)

// MarkerView is a detected marker as served by /api/markers.
type MarkerView struct {
	ID          int        `json:"id"`
	Translation [3]float64 `json:"translation"`
	Rotation    [3]float64 `json:"rotation"`
	Solved      bool       `json:"solved"`
}

// PoseData converts a bridge frame to its wire form.
func PoseData(res bridge.FrameResult) protocol.PoseData {
	return protocol.PoseData{
		Frame:    res.Frame,
		Status:   int(res.Status),
		Raw:      [3]float64{res.Raw.X, res.Raw.Y, res.Raw.Z},
		Position: res.Position.Array(),
		Applied:  res.Applied,
		DtMs:     float64(res.Delta.Microseconds()) / 1000,
	}
}

// StatusData converts bridge stats to their wire form.
func StatusData(s bridge.Stats) protocol.StatusData {
	return protocol.StatusData{
		SessionID:         s.SessionID,
		CameraIndex:       s.CameraIndex,
		Calibration:       s.CalibrationFile,
		CalibrationLoaded: s.CalibrationLoaded,
		Running:           s.Running,
		Frames:            s.Frames,
		Failures:          s.Failures,
	}
}

// handleStatus returns the session state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusData(s.opts.Bridge.Stats()))
}

// handlePose returns the last frame
func (s *Server) handlePose(c *fiber.Ctx) error {
	res, ok := s.opts.Bridge.Last()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frames yet",
		})
	}
	return c.JSON(PoseData(res))
}

// handleMarkers returns the detections of the last frame
func (s *Server) handleMarkers(c *fiber.Ctx) error {
	views := []MarkerView{}
	if s.opts.Markers != nil {
		for _, m := range s.opts.Markers() {
			views = append(views, MarkerView{
				ID:          m.ID,
				Translation: [3]float64{m.Translation.X, m.Translation.Y, m.Translation.Z},
				Rotation:    [3]float64{m.Rotation.X, m.Rotation.Y, m.Rotation.Z},
				Solved:      m.Solved,
			})
		}
	}
	return c.JSON(views)
}

// handleGetCamera returns the capture settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}
	return c.JSON(s.opts.Camera.GetConfig())
}

// handleUpdateCamera applies a partial settings update
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}

	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}

	if err := s.opts.Camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.log.Info("camera settings updated", "params", params)
	return c.JSON(s.opts.Camera.GetConfig())
}

// handlePoseWS streams poses; the status is sent first
func (s *Server) handlePoseWS(c *websocket.Conn) {
	client := hub.NewClient(s.poseHub, c)
	client.OnMessage(s.handleClientMessage)
	client.Run()
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleClientMessage answers pings from pose subscribers.
func (s *Server) handleClientMessage(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.log.Debug("ignoring client message", "client", c.ID, "error", err)
		return
	}
	if msg.Type != protocol.TypePing {
		return
	}
	pong, err := protocol.Pong(msg)
	if err != nil {
		return
	}
	if out, err := hub.FromProtocol(pong); err == nil {
		c.Send(out)
	}
}

// sendStatus runs on the hub goroutine for every new pose subscriber.
func (s *Server) sendStatus(c *hub.Client) {
	msg, err := protocol.NewStatusMessage(StatusData(s.opts.Bridge.Stats()))
	if err != nil {
		return
	}
	if out, err := hub.FromProtocol(msg); err == nil {
		c.Send(out)
	}
}
