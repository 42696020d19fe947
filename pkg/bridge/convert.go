package bridge

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-markerpose/pkg/scene"
)

// ToScene converts a camera-frame translation to a scene position: each
// component is narrowed to float32 and, with flipY, y is negated.
func ToScene(raw r3.Vector, flipY bool) scene.Vec3 {
	p := scene.Vec3{
		X: float32(raw.X),
		Y: float32(raw.Y),
		Z: float32(raw.Z),
	}
	if flipY {
		p.Y = -p.Y
	}
	return p
}

// MoveTarget returns the rigid-body target for pos. With scale the target
// is pos multiplied by dt in seconds.
func MoveTarget(pos scene.Vec3, dt time.Duration, scale bool) scene.Vec3 {
	if !scale {
		return pos
	}
	return pos.Scale(float32(dt.Seconds()))
}
