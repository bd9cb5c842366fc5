// Package roomdoor drives general-purpose doors: flip doors that swing about
// their vertical axis and sliding doors that translate within a range.
// Doors move only on velocity commands addressed to the active door roster.
// 이 패키지는 회전문(flip)과 미닫이문(slide)을 제어합니다.
// 활성 문 목록에 포함된 문만 속도 명령을 받아 움직입니다.
package roomdoor

import (
	"fmt"
	"log/slog"
	"math"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/door"
	"go-elevator-door-simulator/pkg/world"
)

// Link is the door body receiving velocity commands.
// Link는 속도 명령을 받는 문 링크입니다.
type Link interface {
	SetLinearVel(world.Vector3)
	SetAngularVel(world.Vector3)
}

// Controller turns velocity commands into link motion and keeps the door
// inside its opening range. Not safe for concurrent use.
// Controller는 속도 명령을 링크 운동으로 바꾸고 문을 열림 범위 안에 유지합니다.
type Controller struct {
	cfg    Config
	ref    uint32
	active bool
	cmdVel world.Vector3

	model door.Model
	link  Link

	// --- Opening range ---
	bounds   door.Bounds
	spawnRot world.Quaternion
	minYaw   float64 // relative to spawn
	maxYaw   float64

	logger *slog.Logger
}

// New builds a controller taking the model's current pose as its closed pose.
func New(cfg Config, name string, model door.Model, link Link, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil || link == nil {
		return nil, fmt.Errorf("door controller needs a model and a link")
	}
	ref, err := ParseRefNumber(name, cfg.ModelDomainSpace)
	if err != nil {
		return nil, err
	}

	spawn := model.WorldPose()
	c := &Controller{
		cfg:      cfg,
		ref:      ref,
		model:    model,
		link:     link,
		spawnRot: spawn.Rot,
		logger:   logger,
	}

	switch cfg.Kind {
	case Slide:
		dir := door.Left
		if cfg.Direction == Right {
			dir = door.Right
		}
		c.bounds = door.ComputeBounds(dir, spawn.Pos, cfg.MaxTransDist)
	case Flip:
		// Clockwise doors open towards negative yaw.
		if cfg.Direction == Clockwise {
			c.minYaw, c.maxYaw = -cfg.MaxOpenAngle, 0
		} else {
			c.minYaw, c.maxYaw = 0, cfg.MaxOpenAngle
		}
	}

	c.logger.Info("Door initialized",
		"type", cfg.Kind,
		"direction", cfg.Direction,
		"domain_space", cfg.ModelDomainSpace,
		"ref", ref,
	)
	return c, nil
}

// Config returns the resolved configuration.
func (c *Controller) Config() Config { return c.cfg }

// Ref returns the door reference number.
func (c *Controller) Ref() uint32 { return c.ref }

// Active reports whether the door is in the active roster.
func (c *Controller) Active() bool { return c.active }

// Bounds returns the sliding range. Zero for flip doors.
func (c *Controller) Bounds() door.Bounds { return c.bounds }

// CommandVelocity returns the velocity applied every tick.
func (c *Controller) CommandVelocity() world.Vector3 { return c.cmdVel }

// OnActiveDoors sets Active iff this door is in the roster.
func (c *Controller) OnActiveDoors(roster []uint32) {
	c.active = false
	for _, ref := range roster {
		if ref == c.ref {
			c.active = true
			break
		}
	}
}

// OnCommand stores a velocity command. Inactive doors ignore it. Left sliding
// doors and counter-clockwise flip doors mirror the command so the same
// command opens every door.
func (c *Controller) OnCommand(cmd bus.Twist) {
	if !c.active {
		return
	}
	switch c.cfg.Kind {
	case Flip:
		z := cmd.AngularZ
		if c.cfg.Direction != Clockwise {
			z = -z
		}
		c.cmdVel = world.Vector3{Z: z}
		c.logger.Info("Door command", "angular_z", z)
	case Slide:
		x, y := cmd.LinearX, cmd.LinearY
		if c.cfg.Direction == Left {
			x, y = -x, -y
		}
		c.cmdVel = world.Vector3{X: x, Y: y}
		c.logger.Info("Door command", "linear_x", x, "linear_y", y)
	}
}

// Tick applies the stored command and then the range constraint.
func (c *Controller) Tick() {
	if c.cfg.Kind == Flip {
		c.link.SetAngularVel(c.cmdVel)
	} else {
		c.link.SetLinearVel(c.cmdVel)
	}
	c.ApplyConstraints()
}

// ApplyConstraints holds a sliding door in its X/Y range and a flip door in
// its opening angle. Height is always kept.
func (c *Controller) ApplyConstraints() world.Pose {
	cur := c.model.WorldPose()
	out := cur
	switch c.cfg.Kind {
	case Slide:
		out.Pos = c.bounds.Clamp(cur.Pos)
	case Flip:
		rel := c.Angle()
		if clamped := world.Clamp(rel, c.minYaw, c.maxYaw); clamped != rel {
			out.Rot = c.spawnRot.Mul(world.FromYaw(clamped)).Normalize()
		}
	}
	c.model.SetWorldPose(out)
	return out
}

// Angle returns the door yaw relative to its closed pose, in (-pi, pi].
func (c *Controller) Angle() float64 {
	rel := c.model.WorldPose().Rot.Yaw() - c.spawnRot.Yaw()
	for rel > math.Pi {
		rel -= 2 * math.Pi
	}
	for rel <= -math.Pi {
		rel += 2 * math.Pi
	}
	return rel
}

// OpenFraction returns 0 for closed through 1 for fully open.
func (c *Controller) OpenFraction() float64 {
	switch c.cfg.Kind {
	case Slide:
		if c.cfg.MaxTransDist <= 0 {
			return 0
		}
		p := c.model.WorldPose().Pos
		var dx, dy float64
		if c.cfg.Direction == Right {
			dx, dy = c.bounds.MaxX-p.X, c.bounds.MaxY-p.Y
		} else {
			dx, dy = p.X-c.bounds.MinX, p.Y-c.bounds.MinY
		}
		return world.Clamp(max(dx, dy)/c.cfg.MaxTransDist, 0, 1)
	default:
		if c.cfg.MaxOpenAngle <= 0 {
			return 0
		}
		return world.Clamp(math.Abs(c.Angle())/c.cfg.MaxOpenAngle, 0, 1)
	}
}
