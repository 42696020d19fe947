// pose-watch prints the pose stream of a running posebridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/poseclient"
	"github.com/teslashibe/go-markerpose/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Bridge address")
	every := flag.Int("every", 1, "Print every n-th frame")
	ping := flag.Duration("ping", 10*time.Second, "Latency probe interval, 0 to disable")
	statusOnly := flag.Bool("status", false, "Print the session status and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.Init("debug")
	} else {
		log.Init("warn")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := poseclient.New(*addr)
	if err != nil {
		log.Error("invalid address", "error", err)
		os.Exit(2)
	}

	client.OnStatus = printStatus
	if *statusOnly {
		status, err := client.Status(ctx)
		if err != nil {
			log.Error("status failed", "error", err)
			os.Exit(1)
		}
		printStatus(status)
		return
	}

	n := max(*every, 1)
	client.OnPose = func(p protocol.PoseData) {
		if p.Frame%uint64(n) != 0 {
			return
		}
		state := "ok"
		if p.Status != 1 {
			state = "FAIL"
		}
		fmt.Printf("#%-6d %-4s raw=(%.3f, %.3f, %.3f) pos=(%.3f, %.3f, %.3f) applied=%v dt=%.1fms\n",
			p.Frame, state, p.Raw[0], p.Raw[1], p.Raw[2],
			p.Position[0], p.Position[1], p.Position[2], p.Applied, p.DtMs)
	}
	client.OnPong = func(p protocol.PongData) {
		fmt.Printf("latency %dms\n", time.Now().UnixMilli()-p.PingTS)
	}

	if err := client.Connect(ctx); err != nil {
		log.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if *ping > 0 {
		go func() {
			ticker := time.NewTicker(*ping)
			defer ticker.Stop()
			for i := 1; ; i++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := client.Ping(fmt.Sprintf("watch-%d", i)); err != nil {
						return
					}
				}
			}
		}()
	}

	if err := client.Run(ctx); err != nil {
		log.Error("stream ended", "error", err)
		os.Exit(1)
	}
}

func printStatus(s protocol.StatusData) {
	fmt.Printf("session %s camera=%d calibration=%s loaded=%v running=%v frames=%d failures=%d\n",
		s.SessionID, s.CameraIndex, s.Calibration, s.CalibrationLoaded, s.Running, s.Frames, s.Failures)
}
