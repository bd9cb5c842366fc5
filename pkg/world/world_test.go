package world

import (
	"math"
	"testing"
	"time"
)

func TestWorld_AddModel(t *testing.T) {
	w := New()

	m, err := w.AddModel("door_1", Pose{Pos: Vector3{X: 1, Y: 2, Z: 3}}, "door")
	if err != nil {
		t.Fatalf("AddModel failed: %v", err)
	}
	if m.Pose.Rot != Identity {
		t.Errorf("Expected identity orientation, got %+v", m.Pose.Rot)
	}
	if _, ok := m.Link("door"); !ok {
		t.Error("Expected link 'door' to exist")
	}

	if _, err := w.AddModel("door_1", NewPose(0, 0, 0)); err == nil {
		t.Error("Expected error for duplicate model, got nil")
	}
	if _, err := w.AddModel("", NewPose(0, 0, 0)); err == nil {
		t.Error("Expected error for empty name, got nil")
	}
}

func TestWorld_Step(t *testing.T) {
	w := New()
	m, _ := w.AddModel("door_1", NewPose(2, 5, 0), "door")
	l, _ := m.Link("door")

	l.SetLinearVel(Vector3{X: 1, Y: -1})
	w.Step(500 * time.Millisecond)

	p := m.WorldPose().Pos
	if p.X != 2.5 || p.Y != 4.5 || p.Z != 0 {
		t.Errorf("Expected (2.5, 4.5, 0), got %+v", p)
	}
	if w.SimTime() != 500*time.Millisecond {
		t.Errorf("Expected sim time 500ms, got %v", w.SimTime())
	}
}

func TestWorld_Snapshot(t *testing.T) {
	w := New()
	m, _ := w.AddModel("elevator_1", NewPose(0, 0, 1), "body")

	st, err := w.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// Mutating the live world must not reach the snapshot.
	m.SetWorldPose(NewPose(9, 9, 9))
	l, _ := m.Link("body")
	l.SetLinearVel(Vector3{Z: 1})

	snap := st.Models["elevator_1"]
	if snap == nil {
		t.Fatal("Expected elevator_1 in snapshot")
	}
	if snap.Pose.Pos.Z != 1 {
		t.Errorf("Expected snapshot z 1, got %v", snap.Pose.Pos.Z)
	}
	if snap.Links["body"].LinearVel.Z != 0 {
		t.Errorf("Expected snapshot velocity 0, got %v", snap.Links["body"].LinearVel.Z)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(3, 0, 2); got != 2 {
		t.Errorf("Expected 2, got %v", got)
	}
	if got := Clamp(-1, 0, 2); got != 0 {
		t.Errorf("Expected 0, got %v", got)
	}
	if got := Clamp(1, 0, 2); got != 1 {
		t.Errorf("Expected 1, got %v", got)
	}
}

func TestWorld_StepAngular(t *testing.T) {
	w := New()
	m, _ := w.AddModel("door_2", NewPose(0, 0, 0), "door")
	l, _ := m.Link("door")

	// Two half-second steps at pi/4 rad/s turn the model by pi/4.
	l.SetAngularVel(Vector3{Z: math.Pi / 4})
	w.Step(500 * time.Millisecond)
	w.Step(500 * time.Millisecond)

	if got := m.WorldPose().Rot.Yaw(); math.Abs(got-math.Pi/4) > 1e-9 {
		t.Errorf("Expected yaw pi/4, got %v", got)
	}
	if p := m.WorldPose().Pos; p != (Vector3{}) {
		t.Errorf("Expected position unchanged, got %+v", p)
	}
}

func TestQuaternion_Yaw(t *testing.T) {
	for _, yaw := range []float64{0, 0.3, -1.2, math.Pi / 2} {
		if got := FromYaw(yaw).Yaw(); math.Abs(got-yaw) > 1e-9 {
			t.Errorf("Expected yaw %v, got %v", yaw, got)
		}
	}
	if got := (Quaternion{}).Normalize(); got != Identity {
		t.Errorf("Expected Identity for zero quaternion, got %+v", got)
	}
}
