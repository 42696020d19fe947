package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "pose message",
			msgType: TypePose,
			data:    PoseData{Frame: 1, Status: 1, Position: [3]float32{1, -2, 3}},
		},
		{
			name:    "status message",
			msgType: TypeStatus,
			data:    StatusData{SessionID: "abc", Calibration: "CameraCalibration"},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypePose,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestPoseMessageRoundTrip(t *testing.T) {
	original := PoseData{
		Frame:    42,
		Status:   -1,
		Raw:      [3]float64{0.1, 0.2, 0.75},
		Position: [3]float32{0.1, -0.2, 0.75},
		Applied:  true,
		DtMs:     33.3,
	}

	msg, err := NewPoseMessage(original)
	if err != nil {
		t.Fatalf("NewPoseMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypePose {
		t.Errorf("Type = %v, want %v", parsed.Type, TypePose)
	}

	pose, err := parsed.GetPoseData()
	if err != nil {
		t.Fatalf("GetPoseData() error = %v", err)
	}
	if *pose != original {
		t.Errorf("pose = %+v, want %+v", *pose, original)
	}
}

func TestStatusMessage(t *testing.T) {
	msg, err := NewStatusMessage(StatusData{
		SessionID:         "s-1",
		CameraIndex:       1,
		Calibration:       "CameraCalibration",
		CalibrationLoaded: false,
		Running:           true,
		Frames:            100,
		Failures:          7,
	})
	if err != nil {
		t.Fatalf("NewStatusMessage() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(msg.Data, &parsed); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	for _, key := range []string{"session_id", "camera_index", "calibration", "calibration_loaded", "running", "frames", "failures"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("status data missing %q", key)
		}
	}

	status, err := msg.GetStatusData()
	if err != nil {
		t.Fatalf("GetStatusData() error = %v", err)
	}
	if status.Frames != 100 || status.Failures != 7 || status.CalibrationLoaded {
		t.Errorf("status = %+v", status)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}
	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}
	if pingData.Timestamp == 0 {
		t.Error("ping timestamp should be set")
	}

	pongMsg, err := Pong(pingMsg)
	if err != nil {
		t.Fatalf("Pong() error = %v", err)
	}
	if pongMsg.Type != TypePong {
		t.Errorf("Type = %v, want %v", pongMsg.Type, TypePong)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.ID != "test-123" || pongData.PingTS != pingData.Timestamp {
		t.Errorf("pong = %+v", pongData)
	}
	if pongData.LatencyMs < 0 || pongData.LatencyMs > int64(time.Minute/time.Millisecond) {
		t.Errorf("LatencyMs = %v", pongData.LatencyMs)
	}
}

func TestNewPongMessage_Latency(t *testing.T) {
	msg, _ := NewPongMessage("x", 1000, 1045)
	pong, _ := msg.GetPongData()
	if pong.LatencyMs != 45 {
		t.Errorf("LatencyMs = %v, want 45", pong.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "missing type",
			input:   "{}",
			wantErr: true,
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	msg, _ := NewPoseMessage(PoseData{Frame: 3, Status: 1, Position: [3]float32{1, -2, 3}})
	bytes, _ := msg.Bytes()

	var parsed map[string]any
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "pose" {
		t.Errorf("type = %v, want pose", parsed["type"])
	}
	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	data, ok := parsed["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", parsed["data"])
	}
	pos, ok := data["position"].([]any)
	if !ok || len(pos) != 3 || pos[1] != -2.0 {
		t.Errorf("position = %v, want [1 -2 3]", data["position"])
	}
}

func TestParseData_NoData(t *testing.T) {
	msg, _ := NewMessage(TypePing, nil)
	pose := PoseData{Frame: 9}
	if err := msg.ParseData(&pose); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pose.Frame != 9 {
		t.Error("ParseData without data must leave the target untouched")
	}
}

func BenchmarkNewPoseMessage(b *testing.B) {
	data := PoseData{Frame: 1, Status: 1, Raw: [3]float64{0.1, 0.2, 0.3}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data.Frame = uint64(i)
		NewPoseMessage(data)
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewPoseMessage(PoseData{Frame: 1})
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
