// Package bridge moves a scene object to the pose of a tracked marker.
//
// A Bridge owns one vision session. Start initializes it and loads the
// camera calibration, Update runs one frame (estimate, read x/y/z, convert,
// apply) and Stop closes the session. Run drives Update from a ticker.
package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/scene"
	"github.com/teslashibe/go-markerpose/pkg/vision"
)

// SceneObject is the part of a scene object the bridge drives.
type SceneObject interface {
	SetKinematic(kinematic bool)
	SetPosition(p scene.Vec3)
	MovePosition(target scene.Vec3)
}

// StartResult describes a started session.
type StartResult struct {
	SessionID         string    `json:"session_id"`
	CameraIndex       int       `json:"camera_index"`
	CalibrationFile   string    `json:"calibration_file"`
	CalibrationLoaded bool      `json:"calibration_loaded"`
	Started           time.Time `json:"started"`
}

// FrameResult is the outcome of one Update.
type FrameResult struct {
	Frame  uint64        `json:"frame"`
	Status vision.Status `json:"status"`

	// Raw is the translation read from the backend.
	Raw r3.Vector `json:"raw"`

	// Position is the converted scene position.
	Position scene.Vec3 `json:"position"`

	// Target is the rigid-body target derived from Position.
	Target scene.Vec3 `json:"target"`

	// Applied reports whether the scene object was moved.
	Applied bool `json:"applied"`

	Delta time.Duration `json:"delta"`
	Time  time.Time     `json:"time"`
}

// Stats summarizes the bridge state.
type Stats struct {
	StartResult
	Started  bool   `json:"started"`
	Running  bool   `json:"running"`
	Frames   uint64 `json:"frames"`
	Failures uint64 `json:"failures"`
	Applied  uint64 `json:"applied"`
}

// Bridge connects a vision backend to a scene object.
type Bridge struct {
	cfg     Config
	backend vision.Backend
	object  SceneObject
	log     *slog.Logger

	// op serializes Start, Update and Stop so backend calls never overlap.
	op sync.Mutex

	mu        sync.RWMutex
	started   bool
	running   bool
	start     StartResult
	frames    uint64
	failures  uint64
	applied   uint64
	last      FrameResult
	listeners []func(FrameResult)
}

// New creates a bridge. Nothing is called on backend until Start.
func New(cfg Config, backend vision.Backend, object SceneObject) *Bridge {
	return &Bridge{
		cfg:     cfg,
		backend: backend,
		object:  object,
		log:     log.Component("bridge"),
	}
}

// Config returns the bridge configuration.
func (b *Bridge) Config() Config {
	return b.cfg
}

// OnFrame registers fn to receive every FrameResult.
// Listeners run on the frame goroutine and must not block.
func (b *Bridge) OnFrame(fn func(FrameResult)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Start makes the object's rigid body kinematic, initializes the backend
// on the configured camera and loads the configured calibration.
//
// A calibration that fails to load is logged and reported in the result;
// it only fails Start when RequireCalibration is set, in which case the
// session is closed again.
func (b *Bridge) Start() (StartResult, error) {
	b.op.Lock()
	defer b.op.Unlock()

	if b.isStarted() {
		return StartResult{}, ErrAlreadyStarted
	}

	b.object.SetKinematic(true)

	if err := b.backend.Initialize(b.cfg.CameraIndex); err != nil {
		return StartResult{}, fmt.Errorf("bridge: initialize camera %d: %w", b.cfg.CameraIndex, err)
	}

	loaded := b.backend.LoadCalibration(b.cfg.CalibrationFile)
	b.log.Info("camera calibration loaded", "file", b.cfg.CalibrationFile, "loaded", loaded)

	if !loaded && b.cfg.RequireCalibration {
		if err := b.backend.Close(); err != nil {
			b.log.Warn("close after calibration failure", "error", err)
		}
		return StartResult{}, fmt.Errorf("%w: %s", ErrCalibrationNotLoaded, b.cfg.CalibrationFile)
	}

	res := StartResult{
		SessionID:         uuid.NewString(),
		CameraIndex:       b.cfg.CameraIndex,
		CalibrationFile:   b.cfg.CalibrationFile,
		CalibrationLoaded: loaded,
		Started:           time.Now(),
	}

	b.mu.Lock()
	b.started = true
	b.start = res
	b.frames, b.failures, b.applied = 0, 0, 0
	b.last = FrameResult{}
	b.mu.Unlock()

	b.log.Info("session started", "session", res.SessionID, "camera", res.CameraIndex,
		"on_failure", b.cfg.OnFailure, "flip_y", b.cfg.FlipY, "scale_move_by_delta", b.cfg.ScaleMoveByDelta)
	return res, nil
}

// Update runs one frame: one estimation pass, then x, y and z are read in
// that order whatever the status is. The converted position is applied to
// the object unless the status is a failure and the policy is FailureHold.
// dt is the time since the previous frame.
func (b *Bridge) Update(dt time.Duration) (FrameResult, error) {
	b.op.Lock()
	defer b.op.Unlock()

	if !b.isStarted() {
		return FrameResult{}, ErrNotStarted
	}

	status := b.backend.EstimatePose()
	raw := r3.Vector{
		X: b.backend.XCoordinate(),
		Y: b.backend.YCoordinate(),
		Z: b.backend.ZCoordinate(),
	}

	pos := ToScene(raw, b.cfg.FlipY)
	target := MoveTarget(pos, dt, b.cfg.ScaleMoveByDelta)

	apply := status.OK() || b.cfg.OnFailure == FailureApply
	if apply {
		b.object.SetPosition(pos)
		b.object.MovePosition(target)
	}

	b.mu.Lock()
	b.frames++
	if !status.OK() {
		b.failures++
	}
	if apply {
		b.applied++
	}
	res := FrameResult{
		Frame:    b.frames,
		Status:   status,
		Raw:      raw,
		Position: pos,
		Target:   target,
		Applied:  apply,
		Delta:    dt,
		Time:     time.Now(),
	}
	b.last = res
	listeners := b.listeners
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
	return res, nil
}

// Stop closes the backend session. Stop without Start and repeated Stop
// calls do nothing, so the session is closed exactly once.
func (b *Bridge) Stop() error {
	b.op.Lock()
	defer b.op.Unlock()

	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	stats := b.statsLocked()
	b.mu.Unlock()

	if err := b.backend.Close(); err != nil {
		return fmt.Errorf("bridge: close: %w", err)
	}
	b.log.Info("session closed", "session", stats.SessionID,
		"frames", stats.Frames, "failures", stats.Failures)
	return nil
}

// Last returns the most recent frame, if any.
func (b *Bridge) Last() (FrameResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.last.Frame > 0
}

// Stats returns counters and session info.
func (b *Bridge) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.statsLocked()
}

func (b *Bridge) statsLocked() Stats {
	return Stats{
		StartResult: b.start,
		Started:     b.started,
		Running:     b.running,
		Frames:      b.frames,
		Failures:    b.failures,
		Applied:     b.applied,
	}
}

func (b *Bridge) isStarted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.started
}

func (b *Bridge) setRunning(v bool) {
	b.mu.Lock()
	b.running = v
	b.mu.Unlock()
}
