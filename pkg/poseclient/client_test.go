package poseclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-markerpose/pkg/protocol"
)

func TestStreamURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "localhost:8080", want: "ws://localhost:8080/ws/pose"},
		{in: "http://10.0.0.2:8080", want: "ws://10.0.0.2:8080/ws/pose"},
		{in: "https://bridge.local/", want: "wss://bridge.local/ws/pose"},
		{in: "ws://host:1/custom", want: "ws://host:1/custom"},
		{in: "ftp://host", wantErr: true},
		{in: "ws://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := streamURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func send(t *testing.T, conn *websocket.Conn, msg *protocol.Message) {
	data, err := msg.Bytes()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestRun_ReceivesPoses(t *testing.T) {
	pongs := make(chan protocol.PongData, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PosePath, r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		status, _ := protocol.NewStatusMessage(protocol.StatusData{SessionID: "s1", Running: true})
		send(t, conn, status)

		ping, _ := protocol.NewPingMessage("server-ping")
		send(t, conn, ping)

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err == nil && msg.Type == protocol.TypePong {
			if p, err := msg.GetPongData(); err == nil {
				pongs <- *p
			}
		}

		for i := 1; i <= 3; i++ {
			pose, _ := protocol.NewPoseMessage(protocol.PoseData{
				Frame:    uint64(i),
				Status:   1,
				Position: [3]float32{float32(i), -2, 3},
			})
			send(t, conn, pose)
		}

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.URL(), "ws://"))

	var (
		status protocol.StatusData
		poses  []protocol.PoseData
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.OnStatus = func(s protocol.StatusData) { status = s }
	c.OnPose = func(p protocol.PoseData) {
		poses = append(poses, p)
		if len(poses) == 3 {
			cancel()
		}
	}

	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	err = c.Run(ctx)
	assert.NoError(t, err)

	assert.Equal(t, "s1", status.SessionID)
	require.Len(t, poses, 3)
	assert.Equal(t, uint64(3), poses[2].Frame)
	assert.Equal(t, [3]float32{3, -2, 3}, poses[2].Position)

	select {
	case p := <-pongs:
		assert.Equal(t, "server-ping", p.ID)
	case <-time.After(time.Second):
		t.Fatal("server never received a pong")
	}
}

func TestRun_NotConnected(t *testing.T) {
	c, err := New("localhost:1")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Run(context.Background()), ErrNotConnected)
	assert.ErrorIs(t, c.Ping("x"), ErrNotConnected)
	assert.NoError(t, c.Close())
}

func TestRun_ServerCloses(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	assert.Error(t, c.Run(context.Background()))
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"s9","camera_index":0,"calibration":"CameraCalibration","calibration_loaded":true,"frames":5}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s9", status.SessionID)
	assert.True(t, status.CalibrationLoaded)
	assert.Equal(t, uint64(5), status.Frames)
}

func TestAPIURL(t *testing.T) {
	c, _ := New("wss://bridge.local:8443")
	assert.Equal(t, "https://bridge.local:8443/api/status", c.apiURL("/api/status"))
}
