// Package door drives an automatic elevator landing door.
//
// The Controller holds no locks: its signal handlers and Tick must be called
// from the same goroutine, which the Plugin guarantees by draining its bus
// node right before each tick.
// 이 패키지는 엘리베이터 승강장 자동문을 제어합니다.
package door

import (
	"fmt"
	"log/slog"
	"math"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/world"
)

// HeightTolerance is how far (m) the car floor may sit from the door and
// still count as behind it.
const HeightTolerance = 1.5

// PoseReader reads a world pose.
type PoseReader interface {
	WorldPose() world.Pose
}

// Model is the door model: its pose can be read and corrected.
type Model interface {
	PoseReader
	SetWorldPose(world.Pose)
}

// Link is the door body receiving velocity commands.
type Link interface {
	SetLinearVel(world.Vector3)
}

// OverrideState is the last door command received from the elevator
// controller. It is sampled every tick and does not follow door position.
// OverrideState는 엘리베이터 컨트롤러로부터 받은 마지막 문 명령입니다.
type OverrideState uint8

const (
	OverrideClose OverrideState = OverrideState(bus.DoorCommandClose)
	OverrideOpen  OverrideState = OverrideState(bus.DoorCommandOpen)
	OverrideFree  OverrideState = OverrideState(bus.DoorCommandFree)
)

func (o OverrideState) String() string {
	switch o {
	case OverrideClose:
		return "Close"
	case OverrideOpen:
		return "Open"
	case OverrideFree:
		return "Free"
	}
	return fmt.Sprintf("OverrideState(%d)", uint8(o))
}

// Bounds is the travel range of the door on the horizontal axes.
// Bounds는 수평 축에서 문의 이동 범위입니다.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// ComputeBounds derives the travel range from the spawn position.
func ComputeBounds(dir Direction, spawn world.Vector3, maxDist float64) Bounds {
	if dir == Right {
		return Bounds{
			MinX: spawn.X - maxDist, MaxX: spawn.X,
			MinY: spawn.Y - maxDist, MaxY: spawn.Y,
		}
	}
	return Bounds{
		MinX: spawn.X, MaxX: spawn.X + maxDist,
		MinY: spawn.Y, MaxY: spawn.Y + maxDist,
	}
}

// Clamp limits X and Y of p into the bounds; Z is untouched.
func (b Bounds) Clamp(p world.Vector3) world.Vector3 {
	return world.Vector3{
		X: world.Clamp(p.X, b.MinX, b.MaxX),
		Y: world.Clamp(p.Y, b.MinY, b.MaxY),
		Z: p.Z,
	}
}

// State is the runtime input of the controller.
// State는 컨트롤러의 실행 시간 입력입니다.
type State struct {
	TargetFloor    int32
	EstimatedFloor int32
	Override       OverrideState
	Active         bool
}

// Controller commands door velocity from floor alignment and the override.
// Controller는 층 정렬과 오버라이드에 따라 문 속도를 지시합니다.
type Controller struct {
	cfg         Config
	elevatorRef uint32
	openVel     float64
	closeVel    float64
	bounds      Bounds

	state State

	model    Model
	link     Link
	elevator PoseReader

	lastVel    float64
	hasLastVel bool
	logger     *slog.Logger
}

// New builds a controller. The door model's current pose is taken as the
// spawn pose for the travel bounds.
func New(cfg Config, elevatorDomainSpace string, model Model, link Link, elevator PoseReader, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ElevatorName == "" {
		return nil, ErrMissingElevatorName
	}
	ref, err := ParseRefNumber(cfg.ElevatorName, elevatorDomainSpace)
	if err != nil {
		return nil, err
	}
	if model == nil || link == nil || elevator == nil {
		return nil, fmt.Errorf("door controller needs a model, a link and an elevator")
	}

	c := &Controller{
		cfg:         cfg,
		elevatorRef: ref,
		bounds:      ComputeBounds(cfg.Direction, model.WorldPose().Pos, cfg.MaxTransDist),
		state:       State{Override: OverrideFree},
		model:       model,
		link:        link,
		elevator:    elevator,
		logger:      logger,
	}
	if cfg.Direction == Right {
		c.openVel, c.closeVel = -cfg.Speed, cfg.Speed
	} else {
		c.openVel, c.closeVel = cfg.Speed, -cfg.Speed
	}

	c.logger.Info("Door initialized",
		"elevator", cfg.ElevatorName,
		"elevator_ref", ref,
		"direction", cfg.Direction,
		"speed", cfg.Speed,
		"max_trans_dist", cfg.MaxTransDist,
	)
	return c, nil
}

// Config returns the resolved configuration.
func (c *Controller) Config() Config { return c.cfg }

// ElevatorRef returns the reference number parsed from the elevator name.
func (c *Controller) ElevatorRef() uint32 { return c.elevatorRef }

// Bounds returns the travel range.
func (c *Controller) Bounds() Bounds { return c.bounds }

// OpenVelocity returns the scalar commanded to open.
func (c *Controller) OpenVelocity() float64 { return c.openVel }

// CloseVelocity returns the scalar commanded to close.
func (c *Controller) CloseVelocity() float64 { return c.closeVel }

// State returns a copy of the runtime state.
func (c *Controller) State() State { return c.state }

// OnTargetFloor records the controller's target floor.
func (c *Controller) OnTargetFloor(floor int32) {
	c.state.TargetFloor = floor
}

// OnEstimatedFloor records the floor the elevator believes it is at.
func (c *Controller) OnEstimatedFloor(floor int32) {
	c.state.EstimatedFloor = floor
}

// OnDoorOverride records the door command. Unknown values fall back to Free.
func (c *Controller) OnDoorOverride(cmd uint8) {
	o := OverrideState(cmd)
	if o != OverrideOpen && o != OverrideClose && o != OverrideFree {
		c.logger.Warn("Unknown door command, treating as free", "command", cmd)
		o = OverrideFree
	}
	c.state.Override = o
}

// OnActiveElevators sets Active iff this door's elevator is in the roster.
func (c *Controller) OnActiveElevators(roster []uint32) {
	c.state.Active = false
	for _, ref := range roster {
		if ref == c.elevatorRef {
			c.state.Active = true
			break
		}
	}
}

// Tick runs one update: the velocity decision, then the travel clamp.
func (c *Controller) Tick() {
	c.ActivateDoors()
	c.CheckSlideConstraints()
}

// ActivateDoors decides and commands the slide velocity. It returns the
// commanded scalar, and false when the elevator is inactive and nothing was
// commanded.
func (c *Controller) ActivateDoors() (float64, bool) {
	if !c.state.Active {
		return 0, false
	}

	elevZ := c.elevator.WorldPose().Pos.Z
	doorZ := c.model.WorldPose().Pos.Z

	var vel float64
	switch {
	case math.Abs(elevZ-doorZ) > HeightTolerance || c.state.EstimatedFloor != c.state.TargetFloor:
		// Car is not behind this door.
		vel = c.closeVel
	case c.state.Override == OverrideOpen:
		vel = c.openVel
	case c.state.Override == OverrideClose:
		vel = c.closeVel
	default:
		vel = c.openVel
	}

	c.setSlideVel(vel)
	return vel, true
}

// setSlideVel commands v on both horizontal axes; the facing axis is not
// known, so the clamp holds the other one.
func (c *Controller) setSlideVel(v float64) {
	c.link.SetLinearVel(world.Vector3{X: v, Y: v})

	if !c.hasLastVel || c.lastVel != v {
		c.logger.Debug("Door velocity changed", "velocity", v, "opening", v == c.openVel, "override", c.state.Override)
		c.lastVel, c.hasLastVel = v, true
	}
}

// CheckSlideConstraints clamps the door position back into its travel range,
// keeping height and orientation. It returns the pose written.
func (c *Controller) CheckSlideConstraints() world.Pose {
	cur := c.model.WorldPose()
	constrained := world.Pose{
		Pos: c.bounds.Clamp(cur.Pos),
		Rot: cur.Rot,
	}
	c.model.SetWorldPose(constrained)
	return constrained
}
