// Package poseclient subscribes to the pose stream of a running bridge.
package poseclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-markerpose/internal/httpc"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/protocol"
)

// PosePath is the websocket route of the pose stream.
const PosePath = "/ws/pose"

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 5 * time.Second
)

// ErrNotConnected is returned by Run and Ping before Connect.
var ErrNotConnected = errors.New("poseclient: not connected")

// Client receives pose and status messages from a bridge.
type Client struct {
	url string
	log *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	// Callbacks run on the Run goroutine.
	OnPose   func(protocol.PoseData)
	OnStatus func(protocol.StatusData)
	OnPong   func(protocol.PongData)
}

// New creates a client for the bridge at addr. addr is a host:port, an
// http(s) URL or a ws(s) URL; the pose path is added when missing.
func New(addr string) (*Client, error) {
	u, err := streamURL(addr)
	if err != nil {
		return nil, err
	}
	return &Client{url: u, log: log.Component("poseclient")}, nil
}

// URL returns the websocket URL the client dials.
func (c *Client) URL() string {
	return c.url
}

func streamURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("poseclient: parse %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("poseclient: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("poseclient: missing host in %q", addr)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = PosePath
	}
	return u.String(), nil
}

// Connect dials the bridge.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("poseclient: dial %s: %w", c.url, err)
	}

	c.wsMu.Lock()
	c.ws = ws
	c.wsMu.Unlock()

	c.log.Info("connected", "url", c.url)
	return nil
}

// Run reads messages and dispatches them to the callbacks until ctx is
// done or the connection fails. Pings from the bridge are answered with a
// pong. It returns nil when ctx ends.
func (c *Client) Run(ctx context.Context) error {
	c.wsMu.Lock()
	ws := c.ws
	c.wsMu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poseclient: read: %w", err)
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.log.Debug("skipping message", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePose:
		pose, err := msg.GetPoseData()
		if err != nil {
			c.log.Debug("bad pose", "error", err)
			return
		}
		if c.OnPose != nil {
			c.OnPose(*pose)
		}

	case protocol.TypeStatus:
		status, err := msg.GetStatusData()
		if err != nil {
			c.log.Debug("bad status", "error", err)
			return
		}
		if c.OnStatus != nil {
			c.OnStatus(*status)
		}

	case protocol.TypePing:
		pong, err := protocol.Pong(msg)
		if err == nil {
			if err := c.write(pong); err != nil {
				c.log.Warn("pong", "error", err)
			}
		}

	case protocol.TypePong:
		pong, err := msg.GetPongData()
		if err == nil && c.OnPong != nil {
			c.OnPong(*pong)
		}
	}
}

// Ping asks the bridge for a pong carrying id.
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Client) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Status fetches the session state from the bridge's REST API.
func (c *Client) Status(ctx context.Context) (protocol.StatusData, error) {
	var status protocol.StatusData
	err := httpc.GetJSON(ctx, httpc.Client, c.apiURL("/api/status"), &status)
	return status, err
}

// apiURL maps the websocket URL to an HTTP URL on the same host.
func (c *Client) apiURL(path string) string {
	u, _ := url.Parse(c.url)
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = path
	u.RawQuery = ""
	return u.String()
}

// Close closes the connection.
func (c *Client) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}
