package posebridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-markerpose/internal/config"
	"github.com/teslashibe/go-markerpose/pkg/bridge"
	"github.com/teslashibe/go-markerpose/pkg/camera"
	"github.com/teslashibe/go-markerpose/pkg/scene"
	"github.com/teslashibe/go-markerpose/pkg/vision"
)

func newApp(t *testing.T, cfg config.Config, backend vision.Backend) *App {
	t.Helper()
	app, err := New(cfg, backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Server.Enabled = false
	cfg.Bridge.FrameInterval = 2 * time.Millisecond
	return cfg
}

func TestApp_MovesCube(t *testing.T) {
	m := vision.NewMock(r3.Vector{X: 1, Y: 2, Z: 3})
	app := newApp(t, testConfig(), m)

	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !app.Object().IsKinematic() {
		t.Error("cube must be kinematic after Init")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	app.Shutdown()
	app.Shutdown()

	if got, want := app.Object().Position(), (scene.Vec3{X: 1, Y: -2, Z: 3}); got != want {
		t.Errorf("cube position = %v, want %v", got, want)
	}
	if app.Bridge().Stats().Frames == 0 {
		t.Error("no frames ran")
	}
	if n := m.CallCount(vision.CallClose); n != 1 {
		t.Errorf("Close calls = %d, want 1", n)
	}
	if app.Server() != nil {
		t.Error("server should be disabled")
	}
}

func TestApp_RequiredCalibrationMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Bridge.RequireCalibration = true
	m := vision.NewMock(r3.Vector{})
	m.LoadCalibrationFunc = func(string) bool { return false }

	app := newApp(t, cfg, m)
	if err := app.Init(); !errors.Is(err, bridge.ErrCalibrationNotLoaded) {
		t.Fatalf("Init = %v, want ErrCalibrationNotLoaded", err)
	}
}

func TestApp_WithServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Enabled = true
	app := newApp(t, cfg, vision.NewMock(r3.Vector{}))

	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer app.Shutdown()
	if app.Server() == nil {
		t.Fatal("server should be created")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Bridge.OnFailure = "retry"
	if _, err := New(cfg, vision.NewMock(r3.Vector{})); err == nil {
		t.Error("New should reject an invalid configuration")
	}
}

// applierBackend is a mock backend whose capture settings can change.
type applierBackend struct {
	*vision.Mock

	mu      sync.Mutex
	applied []camera.Config
	err     error
}

func (b *applierBackend) ApplyCamera(cfg camera.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.applied = append(b.applied, cfg)
	return nil
}

func (b *applierBackend) SetFrameSink(func([]byte)) {}

func (b *applierBackend) Applied() []camera.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]camera.Config(nil), b.applied...)
}

func TestApp_CameraUpdateReachesBackend(t *testing.T) {
	b := &applierBackend{Mock: vision.NewMock(r3.Vector{})}
	app := newApp(t, testConfig(), b)

	if err := app.Camera().UpdateConfig(map[string]any{"preview": true, "quality": 50.0}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	applied := b.Applied()
	if len(applied) != 1 {
		t.Fatalf("ApplyCamera calls = %d, want 1", len(applied))
	}
	if !applied[0].Preview || applied[0].Quality != 50 {
		t.Errorf("applied = %+v", applied[0])
	}
	if got := app.Camera().GetConfig(); !got.Preview || got.Quality != 50 {
		t.Errorf("manager config = %+v", got)
	}
	if n := len(b.Methods()); n != 0 {
		t.Errorf("settings update touched the session: %v", b.Methods())
	}
}

func TestApp_CameraUpdateRejected(t *testing.T) {
	b := &applierBackend{Mock: vision.NewMock(r3.Vector{}), err: errors.New("device busy")}
	app := newApp(t, testConfig(), b)
	before := app.Camera().GetConfig()

	if err := app.Camera().UpdateConfig(map[string]any{"quality": 50.0}); err == nil {
		t.Fatal("UpdateConfig should fail when the backend rejects it")
	}
	if got := app.Camera().GetConfig(); got != before {
		t.Errorf("manager config = %+v, want unchanged %+v", got, before)
	}
}
