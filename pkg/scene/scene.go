// Package scene models the object the marker pose drives: a transform with
// an absolute position and a rigid body that can be kinematic.
//
// Positions use single precision and a left-handed frame (y up), the way
// game engines store them.
package scene

import (
	"fmt"
	"sync"
	"time"
)

// Vec3 is a single-precision 3D vector.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// String implements fmt.Stringer.
func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// Snapshot is a consistent copy of an object's state.
type Snapshot struct {
	Name      string    `json:"name"`
	Position  Vec3      `json:"position"`
	Body      Vec3      `json:"body"`
	Pending   *Vec3     `json:"pending,omitempty"`
	Kinematic bool      `json:"kinematic"`
	Updated   time.Time `json:"updated"`
}

// Object is a scene object with a transform and a rigid body.
// It is safe for concurrent use.
type Object struct {
	name string

	mu        sync.RWMutex
	position  Vec3 // transform position
	body      Vec3 // rigid body position
	pending   *Vec3
	kinematic bool
	updated   time.Time

	onChange func(Snapshot)
}

// NewObject creates an object at the origin.
func NewObject(name string) *Object {
	return &Object{name: name}
}

// Name returns the object name.
func (o *Object) Name() string {
	return o.name
}

// OnChange sets a callback fired after every move.
func (o *Object) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

// SetKinematic switches the rigid body between kinematic (moved only by
// code) and dynamic.
func (o *Object) SetKinematic(kinematic bool) {
	o.mu.Lock()
	o.kinematic = kinematic
	o.mu.Unlock()
}

// IsKinematic reports whether the rigid body is kinematic.
func (o *Object) IsKinematic() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.kinematic
}

// SetPosition sets the transform's absolute position.
func (o *Object) SetPosition(p Vec3) {
	o.mu.Lock()
	o.position = p
	o.updated = time.Now()
	snap, fn := o.snapshotLocked(), o.onChange
	o.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// MovePosition moves the rigid body to target. A kinematic body snaps to
// target; a dynamic body keeps target pending for the physics step.
func (o *Object) MovePosition(target Vec3) {
	o.mu.Lock()
	if o.kinematic {
		o.body = target
		o.pending = nil
	} else {
		t := target
		o.pending = &t
	}
	o.updated = time.Now()
	snap, fn := o.snapshotLocked(), o.onChange
	o.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Position returns the transform position.
func (o *Object) Position() Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position
}

// BodyPosition returns the rigid body position.
func (o *Object) BodyPosition() Vec3 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.body
}

// Snapshot returns a copy of the object's state.
func (o *Object) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

func (o *Object) snapshotLocked() Snapshot {
	s := Snapshot{
		Name:      o.name,
		Position:  o.position,
		Body:      o.body,
		Kinematic: o.kinematic,
		Updated:   o.updated,
	}
	if o.pending != nil {
		p := *o.pending
		s.Pending = &p
	}
	return s
}
