package door

import (
	"errors"
	"math"
	"testing"

	"go-elevator-door-simulator/pkg/world"
)

type fakeModel struct {
	pose   world.Pose
	writes int
}

func (m *fakeModel) WorldPose() world.Pose     { return m.pose }
func (m *fakeModel) SetWorldPose(p world.Pose) { m.pose = p; m.writes++ }

type fakeLink struct {
	vels []world.Vector3
}

func (l *fakeLink) SetLinearVel(v world.Vector3) { l.vels = append(l.vels, v) }

func (l *fakeLink) last() (world.Vector3, bool) {
	if len(l.vels) == 0 {
		return world.Vector3{}, false
	}
	return l.vels[len(l.vels)-1], true
}

type fakeElevator struct {
	pose world.Pose
}

func (e *fakeElevator) WorldPose() world.Pose { return e.pose }

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestController(t *testing.T, dir Direction, spawn world.Pose) (*Controller, *fakeModel, *fakeLink, *fakeElevator) {
	t.Helper()
	model := &fakeModel{pose: spawn}
	link := &fakeLink{}
	elev := &fakeElevator{pose: world.NewPose(0, 0, spawn.Pos.Z)}
	cfg := Config{
		ModelDomainSpace: DefaultModelDomainSpace,
		ElevatorName:     "elevator_1",
		Direction:        dir,
		MaxTransDist:     DefaultMaxTransDist,
		Speed:            1.0,
	}
	c, err := New(cfg, "elevator_", model, link, elev, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, model, link, elev
}

func TestController_Velocities(t *testing.T) {
	right, _, _, _ := newTestController(t, Right, world.NewPose(0, 0, 0))
	if right.OpenVelocity() != -1 || right.CloseVelocity() != 1 {
		t.Errorf("Right: expected open -1 / close +1, got %v / %v", right.OpenVelocity(), right.CloseVelocity())
	}

	left, _, _, _ := newTestController(t, Left, world.NewPose(0, 0, 0))
	if left.OpenVelocity() != 1 || left.CloseVelocity() != -1 {
		t.Errorf("Left: expected open +1 / close -1, got %v / %v", left.OpenVelocity(), left.CloseVelocity())
	}
}

func TestController_Bounds(t *testing.T) {
	const d = DefaultMaxTransDist

	left, _, _, _ := newTestController(t, Left, world.NewPose(2.0, 5.0, 0))
	b := left.Bounds()
	if !approx(b.MinX, 2.0) || !approx(b.MaxX, 2.711305) || !approx(b.MinY, 5.0) || !approx(b.MaxY, 5.711305) {
		t.Errorf("Left: unexpected bounds %+v", b)
	}

	right, _, _, _ := newTestController(t, Right, world.NewPose(2.0, 5.0, 0))
	b = right.Bounds()
	if !approx(b.MinX, 2.0-d) || !approx(b.MaxX, 2.0) || !approx(b.MinY, 5.0-d) || !approx(b.MaxY, 5.0) {
		t.Errorf("Right: unexpected bounds %+v", b)
	}
}

func TestController_ElevatorRef(t *testing.T) {
	c, _, _, _ := newTestController(t, Left, world.NewPose(0, 0, 0))
	if c.ElevatorRef() != 1 {
		t.Errorf("Expected elevator ref 1, got %d", c.ElevatorRef())
	}
}

func TestNew_Errors(t *testing.T) {
	model := &fakeModel{pose: world.NewPose(0, 0, 0)}
	link := &fakeLink{}
	elev := &fakeElevator{}

	_, err := New(Config{}, "elevator_", model, link, elev, nil)
	if !errors.Is(err, ErrMissingElevatorName) {
		t.Errorf("Expected ErrMissingElevatorName, got %v", err)
	}

	_, err = New(Config{ElevatorName: "elevator_1"}, "", model, link, elev, nil)
	if !errors.Is(err, ErrMissingDomainSpace) {
		t.Errorf("Expected ErrMissingDomainSpace, got %v", err)
	}

	_, err = New(Config{ElevatorName: "lift_x"}, "elevator_", model, link, elev, nil)
	if !errors.Is(err, ErrInvalidElevatorName) {
		t.Errorf("Expected ErrInvalidElevatorName, got %v", err)
	}
}

func TestController_InactiveIssuesNothing(t *testing.T) {
	c, _, link, _ := newTestController(t, Left, world.NewPose(0, 0, 0))

	if _, issued := c.ActivateDoors(); issued {
		t.Error("Expected no command while inactive")
	}

	// Roster without this elevator keeps it inactive.
	c.OnActiveElevators([]uint32{2, 3})
	if _, issued := c.ActivateDoors(); issued {
		t.Error("Expected no command when absent from roster")
	}
	if len(link.vels) != 0 {
		t.Errorf("Expected no velocity commands, got %v", link.vels)
	}
}

func TestController_ActivateDoors(t *testing.T) {
	c, _, link, elev := newTestController(t, Left, world.NewPose(0, 0, 3.0))
	c.OnActiveElevators([]uint32{4, 1})

	// Scenario 1: floors differ -> close regardless of override
	c.OnTargetFloor(2)
	c.OnEstimatedFloor(1)
	for _, cmd := range []uint8{0, 1, 2} {
		c.OnDoorOverride(cmd)
		v, issued := c.ActivateDoors()
		if !issued || v != c.CloseVelocity() {
			t.Errorf("Scenario 1 (override %d): expected close, got %v (issued=%v)", cmd, v, issued)
		}
	}

	// Scenario 2: floors match, car within tolerance, free -> open
	c.OnEstimatedFloor(2)
	c.OnDoorOverride(2)
	if v, _ := c.ActivateDoors(); v != c.OpenVelocity() {
		t.Errorf("Scenario 2: expected open, got %v", v)
	}

	// Scenario 3: override close wins over automatic open
	c.OnDoorOverride(0)
	if v, _ := c.ActivateDoors(); v != c.CloseVelocity() {
		t.Errorf("Scenario 3: expected close, got %v", v)
	}

	// Scenario 4: override open
	c.OnDoorOverride(1)
	if v, _ := c.ActivateDoors(); v != c.OpenVelocity() {
		t.Errorf("Scenario 4: expected open, got %v", v)
	}

	// Scenario 5: car too far below the door -> close even with override open
	elev.pose = world.NewPose(0, 0, 1.4)
	if v, _ := c.ActivateDoors(); v != c.CloseVelocity() {
		t.Errorf("Scenario 5: expected close, got %v", v)
	}

	// Scenario 6: exactly at tolerance still counts as behind the door
	elev.pose = world.NewPose(0, 0, 3.0+HeightTolerance)
	if v, _ := c.ActivateDoors(); v != c.OpenVelocity() {
		t.Errorf("Scenario 6: expected open, got %v", v)
	}

	got, _ := link.last()
	if got.X != c.OpenVelocity() || got.Y != c.OpenVelocity() || got.Z != 0 {
		t.Errorf("Expected (v, v, 0) command, got %+v", got)
	}
}

func TestController_UnknownOverrideIsFree(t *testing.T) {
	c, _, _, _ := newTestController(t, Right, world.NewPose(0, 0, 0))
	c.OnDoorOverride(7)
	if c.State().Override != OverrideFree {
		t.Errorf("Expected Free, got %v", c.State().Override)
	}
}

func TestController_CheckSlideConstraints(t *testing.T) {
	c, model, _, _ := newTestController(t, Left, world.NewPose(2.0, 5.0, 1.0))

	rot := world.Quaternion{W: 0.7071, Z: 0.7071}
	model.pose = world.Pose{Pos: world.Vector3{X: 3.5, Y: 4.0, Z: 1.0}, Rot: rot}

	p := c.CheckSlideConstraints()
	b := c.Bounds()
	if p.Pos.X != b.MaxX || p.Pos.Y != b.MinY {
		t.Errorf("Expected clamp to (%v, %v), got (%v, %v)", b.MaxX, b.MinY, p.Pos.X, p.Pos.Y)
	}
	if p.Pos.Z != 1.0 {
		t.Errorf("Expected z unchanged, got %v", p.Pos.Z)
	}
	if p.Rot != rot {
		t.Errorf("Expected orientation unchanged, got %+v", p.Rot)
	}

	// Idempotent
	again := c.CheckSlideConstraints()
	if again != p {
		t.Errorf("Expected idempotent clamp, got %+v then %+v", p, again)
	}

	// Inside bounds is identity
	inside := world.Pose{Pos: world.Vector3{X: 2.3, Y: 5.2, Z: 1.0}, Rot: world.Identity}
	model.pose = inside
	if got := c.CheckSlideConstraints(); got != inside {
		t.Errorf("Expected identity inside bounds, got %+v", got)
	}
}

func TestController_TickClampsWhileInactive(t *testing.T) {
	c, model, link, _ := newTestController(t, Right, world.NewPose(0, 0, 0))
	model.pose = world.NewPose(1, 1, 0)

	c.Tick()

	if len(link.vels) != 0 {
		t.Errorf("Expected no velocity while inactive, got %v", link.vels)
	}
	if model.pose.Pos.X != 0 || model.pose.Pos.Y != 0 {
		t.Errorf("Expected clamp to spawn corner, got %+v", model.pose.Pos)
	}
}
