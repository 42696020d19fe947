// Package protocol defines the WebSocket messages a pose bridge streams to
// its subscribers. The same envelope is decoded by pkg/poseclient.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Bridge → subscriber
	TypePose   MessageType = "pose"   // One frame of the bridge
	TypeStatus MessageType = "status" // Session state, sent on connect

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into v. A message without data
// leaves v untouched.
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// PoseData is one frame of the bridge.
type PoseData struct {
	Frame  uint64 `json:"frame"`
	Status int    `json:"status"` // 1 success, -1 failure

	// Raw is the camera-frame translation in meters as read from the backend.
	Raw [3]float64 `json:"raw"`

	// Position is the scene position after narrowing and the y flip.
	Position [3]float32 `json:"position"`

	Applied bool    `json:"applied"`
	DtMs    float64 `json:"dt_ms"`
}

// StatusData describes the bridge session.
type StatusData struct {
	SessionID         string `json:"session_id"`
	CameraIndex       int    `json:"camera_index"`
	Calibration       string `json:"calibration"`
	CalibrationLoaded bool   `json:"calibration_loaded"`
	Running           bool   `json:"running"`
	Frames            uint64 `json:"frames"`
	Failures          uint64 `json:"failures"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
