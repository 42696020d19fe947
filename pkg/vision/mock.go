package vision

import (
	"sync"

	"github.com/golang/geo/r3"
)

// Mock implements Backend for testing.
// Behavior can be customized via function fields; every call is recorded.
type Mock struct {
	// InitializeFunc is called by Initialize. If nil, returns nil.
	InitializeFunc func(cameraIndex int) error

	// LoadCalibrationFunc is called by LoadCalibration. If nil, returns true.
	LoadCalibrationFunc func(name string) bool

	// EstimateFunc is called by EstimatePose. If nil, returns StatusSuccess.
	EstimateFunc func() Status

	// CloseFunc is called by Close. If nil, returns nil.
	CloseFunc func() error

	mu    sync.Mutex
	pose  r3.Vector
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Arg    any
}

// Mock method names as recorded in MockCall.Method.
const (
	CallInitialize      = "Initialize"
	CallLoadCalibration = "LoadCalibration"
	CallEstimatePose    = "EstimatePose"
	CallX               = "XCoordinate"
	CallY               = "YCoordinate"
	CallZ               = "ZCoordinate"
	CallClose           = "Close"
)

var _ Backend = (*Mock)(nil)

// NewMock creates a mock that reports pose at every estimation.
func NewMock(pose r3.Vector) *Mock {
	return &Mock{pose: pose}
}

// SetPose changes the coordinates the getters return.
func (m *Mock) SetPose(pose r3.Vector) {
	m.mu.Lock()
	m.pose = pose
	m.mu.Unlock()
}

func (m *Mock) record(method string, arg any) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Arg: arg})
	m.mu.Unlock()
}

// Initialize implements Backend.
func (m *Mock) Initialize(cameraIndex int) error {
	m.record(CallInitialize, cameraIndex)
	if m.InitializeFunc != nil {
		return m.InitializeFunc(cameraIndex)
	}
	return nil
}

// LoadCalibration implements Backend.
func (m *Mock) LoadCalibration(name string) bool {
	m.record(CallLoadCalibration, name)
	if m.LoadCalibrationFunc != nil {
		return m.LoadCalibrationFunc(name)
	}
	return true
}

// EstimatePose implements Backend.
func (m *Mock) EstimatePose() Status {
	m.record(CallEstimatePose, nil)
	if m.EstimateFunc != nil {
		return m.EstimateFunc()
	}
	return StatusSuccess
}

// XCoordinate implements Backend.
func (m *Mock) XCoordinate() float64 {
	m.record(CallX, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pose.X
}

// YCoordinate implements Backend.
func (m *Mock) YCoordinate() float64 {
	m.record(CallY, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pose.Y
}

// ZCoordinate implements Backend.
func (m *Mock) ZCoordinate() float64 {
	m.record(CallZ, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pose.Z
}

// Close implements Backend.
func (m *Mock) Close() error {
	m.record(CallClose, nil)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Methods returns the recorded method names in call order.
func (m *Mock) Methods() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// CallCount returns how many times method was called.
func (m *Mock) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}
