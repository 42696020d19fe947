package scene

import "testing"

func TestVec3(t *testing.T) {
	v := Vec3{X: 1, Y: -2, Z: 3}

	if got := v.Scale(0.5); got != (Vec3{X: 0.5, Y: -1, Z: 1.5}) {
		t.Errorf("Scale = %v", got)
	}
	if got := v.Add(Vec3{X: 1, Y: 1, Z: 1}); got != (Vec3{X: 2, Y: -1, Z: 4}) {
		t.Errorf("Add = %v", got)
	}
	if got := v.Array(); got != [3]float32{1, -2, 3} {
		t.Errorf("Array = %v", got)
	}
	if got := v.String(); got != "(1.000, -2.000, 3.000)" {
		t.Errorf("String = %q", got)
	}
}

func TestObject_KinematicSnaps(t *testing.T) {
	o := NewObject("cube")
	o.SetKinematic(true)

	o.SetPosition(Vec3{X: 1, Y: -2, Z: 3})
	o.MovePosition(Vec3{X: 4, Y: 5, Z: 6})

	if o.Position() != (Vec3{X: 1, Y: -2, Z: 3}) {
		t.Errorf("Position = %v", o.Position())
	}
	if o.BodyPosition() != (Vec3{X: 4, Y: 5, Z: 6}) {
		t.Errorf("BodyPosition = %v", o.BodyPosition())
	}
	if s := o.Snapshot(); s.Pending != nil || !s.Kinematic || s.Name != "cube" {
		t.Errorf("Snapshot = %+v", s)
	}
}

func TestObject_DynamicKeepsPending(t *testing.T) {
	o := NewObject("cube")
	o.MovePosition(Vec3{X: 1})

	s := o.Snapshot()
	if s.Pending == nil || *s.Pending != (Vec3{X: 1}) {
		t.Fatalf("Pending = %v", s.Pending)
	}
	if s.Body != (Vec3{}) {
		t.Errorf("dynamic body should not move immediately, got %v", s.Body)
	}
}

func TestObject_OnChange(t *testing.T) {
	o := NewObject("cube")
	o.SetKinematic(true)

	var snaps []Snapshot
	o.OnChange(func(s Snapshot) { snaps = append(snaps, s) })

	o.SetPosition(Vec3{Y: -1})
	o.MovePosition(Vec3{Y: -1})

	if len(snaps) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(snaps))
	}
	if snaps[1].Body != (Vec3{Y: -1}) {
		t.Errorf("second snapshot body = %v", snaps[1].Body)
	}
}
