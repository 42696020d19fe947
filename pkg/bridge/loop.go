package bridge

import (
	"context"
	"time"
)

// failureLogInterval throttles estimation-failure warnings.
const failureLogInterval = 5 * time.Second

// Run calls Update once per FrameInterval until ctx is done, passing the
// measured time since the previous frame. It returns nil when ctx ends and
// ErrNotStarted if the bridge is not (or no longer) started.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.isStarted() {
		return ErrNotStarted
	}

	ticker := time.NewTicker(b.cfg.FrameInterval)
	defer ticker.Stop()

	b.setRunning(true)
	defer b.setRunning(false)

	b.log.Info("frame loop started", "interval", b.cfg.FrameInterval)

	var (
		last           = time.Now()
		lastFailureLog time.Time
		failedSinceLog uint64
	)

	for {
		select {
		case <-ctx.Done():
			b.log.Info("frame loop stopped", "frames", b.Stats().Frames)
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			res, err := b.Update(dt)
			if err != nil {
				return err
			}

			if !res.Status.OK() {
				failedSinceLog++
				if lastFailureLog.IsZero() || time.Since(lastFailureLog) > failureLogInterval {
					b.log.Warn("pose estimation failed", "frame", res.Frame,
						"failed_since_last_log", failedSinceLog, "applied", res.Applied)
					lastFailureLog = time.Now()
					failedSinceLog = 0
				}
			}

			if b.cfg.HeartbeatFrames > 0 && res.Frame%b.cfg.HeartbeatFrames == 0 {
				s := b.Stats()
				b.log.Info("frame loop heartbeat",
					"frames", s.Frames, "failures", s.Failures, "applied", s.Applied,
					"position", res.Position.String(), "dt", dt)
			}
		}
	}
}
