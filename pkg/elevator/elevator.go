// Package elevator implements the elevator car plugin and call scheduling.
// The car drives its body link toward the target floor height, stays pinned
// on its spawn column and publishes the floor it estimates it is at.
// 이 패키지는 엘리베이터 카 플러그인과 호출 스케줄링을 구현합니다.
// 카는 목표 층 높이로 이동하고 추정 층을 발행합니다.
package elevator

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/world"
)

// Defaults applied when a scene omits optional car parameters.
const (
	DefaultModelDomainSpace = "elevator_"
	DefaultSpeed            = 1.5 // m/s
	DefaultForce            = 100 // N

	// FloorTolerance is how close (m) the car must be to a floor height to
	// be at that floor.
	FloorTolerance = 0.01

	// BodyLinkName is the car link receiving velocity commands.
	BodyLinkName = "body"

	subscriberQueue = 100
)

// Params are the per-instance scene parameters. Nil means not specified.
// Params는 씬에 지정된 카별 파라미터입니다.
type Params struct {
	ModelDomainSpace *string  `yaml:"model_domain_space"`
	FloorHeights     *string  `yaml:"floor_heights"`
	Speed            *float64 `yaml:"speed"`
	Force            *float64 `yaml:"force"`
}

// Car is one elevator car bound to a world model.
// Car는 월드 모델에 연결된 엘리베이터 카 하나입니다.
type Car struct {
	name   string
	ref    uint32
	floors FloorMap

	// --- Runtime state, touched only from Update ---
	speed     float64
	force     float64
	target    int32
	estimated int32
	active    bool
	spawnX    float64
	spawnY    float64

	model  *world.Model
	body   *world.Link
	bus    *bus.Bus
	node   *bus.Node
	logger *slog.Logger
}

// Load binds the car plugin to modelName and publishes the elevator domain
// space parameter that automatic doors depend on.
func Load(w *world.World, b *bus.Bus, modelName string, p Params, logger *slog.Logger) (*Car, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("model", modelName)

	model, ok := w.ModelByName(modelName)
	if !ok {
		return nil, fmt.Errorf("elevator %s: model not in world", modelName)
	}
	body, ok := model.Link(BodyLinkName)
	if !ok {
		return nil, fmt.Errorf("elevator %s: link %q not found", modelName, BodyLinkName)
	}

	domainSpace := DefaultModelDomainSpace
	if p.ModelDomainSpace == nil {
		logger.Warn("Model domain space not specified, using default", "default", DefaultModelDomainSpace)
	} else {
		domainSpace = *p.ModelDomainSpace
	}
	b.SetParam(bus.ParamElevatorDomainSpace, domainSpace)

	if p.FloorHeights == nil {
		logger.Error("Floor heights not specified")
		return nil, fmt.Errorf("elevator %s: %w", modelName, ErrMissingFloorHeights)
	}
	floors, err := ParseFloorHeights(*p.FloorHeights)
	if err != nil {
		logger.Error("Cannot parse floor heights", "floor_heights", *p.FloorHeights, "error", err)
		return nil, fmt.Errorf("elevator %s: %w", modelName, err)
	}

	speed := float64(DefaultSpeed)
	if p.Speed == nil {
		logger.Warn("Elevator speed not specified, using default", "default_mps", DefaultSpeed)
	} else {
		speed = *p.Speed
	}
	force := float64(DefaultForce)
	if p.Force == nil {
		logger.Warn("Elevator force not specified, using default", "default_n", DefaultForce)
	} else {
		force = *p.Force
	}

	ref, err := bus.RefNumber(modelName, domainSpace)
	if err != nil {
		return nil, fmt.Errorf("elevator %s: %w", modelName, err)
	}

	spawn := model.WorldPose().Pos
	c := &Car{
		name:      modelName,
		ref:       ref,
		floors:    floors,
		speed:     speed,
		force:     force,
		estimated: floors.Estimate(spawn.Z, FloorTolerance),
		spawnX:    spawn.X,
		spawnY:    spawn.Y,
		model:     model,
		body:      body,
		bus:       b,
		node:      b.NewNode(modelName),
		logger:    logger.With("ref", ref),
	}

	bus.Subscribe(c.node, bus.TopicTargetFloor, subscriberQueue, c.onTargetFloor)
	bus.Subscribe(c.node, bus.TopicActive, subscriberQueue, c.onActiveElevators)
	bus.Subscribe(c.node, bus.TopicParam, subscriberQueue, c.onParam)

	for i, h := range floors.heights {
		c.logger.Debug("Mapped floor to height", "floor", i, "height", h)
	}
	c.logger.Info("Elevator initialized",
		"floors", floors.Len(),
		"speed", speed,
		"force", force,
	)
	return c, nil
}

// Name returns the model name.
func (c *Car) Name() string { return c.name }

// Ref returns the elevator reference number.
func (c *Car) Ref() uint32 { return c.ref }

// Floors returns the floor map.
func (c *Car) Floors() FloorMap { return c.floors }

// TargetFloor returns the floor the car is heading to.
func (c *Car) TargetFloor() int32 { return c.target }

// EstimatedFloor returns the last published floor estimate.
func (c *Car) EstimatedFloor() int32 { return c.estimated }

// Active reports whether the car is in the active roster.
func (c *Car) Active() bool { return c.active }

// Speed returns the current lift speed.
func (c *Car) Speed() float64 { return c.speed }

// Force returns the current lift force.
func (c *Car) Force() float64 { return c.force }

// Update is the per-tick hook: drain signals, drive, pin, publish.
func (c *Car) Update(dt time.Duration) {
	c.node.SpinOnce()
	c.direct(dt)
	c.constrainHorizontalMovement()
	c.publishEstimatedFloor()
}

// Close unsubscribes the car.
func (c *Car) Close() {
	c.node.Shutdown()
}

func (c *Car) onTargetFloor(floor int32) {
	if !c.active || c.target == floor {
		return
	}
	if _, ok := c.floors.Height(floor); !ok {
		c.logger.Error("Target floor does not exist", "floor", floor)
		return
	}
	c.target = floor
	c.logger.Info("Target floor set", "floor", floor)
}

func (c *Car) onActiveElevators(roster []uint32) {
	c.active = false
	for _, ref := range roster {
		if ref == c.ref {
			c.active = true
			break
		}
	}
}

// onParam takes [speed, force].
func (c *Car) onParam(param []float32) {
	if !c.active {
		return
	}
	if len(param) < 2 {
		c.logger.Warn("Ignoring malformed elevator params", "len", len(param))
		return
	}
	speed, force := float64(param[0]), float64(param[1])
	if speed != c.speed {
		c.logger.Info("Lift speed changed", "speed", speed)
	}
	if force != c.force {
		c.logger.Info("Lift force changed", "force", force)
	}
	c.speed, c.force = speed, force
}

// direct commands the body toward the target height. The last step is
// shortened so the car lands on the floor instead of oscillating around it.
func (c *Car) direct(dt time.Duration) {
	targetHeight, _ := c.floors.Height(c.target)
	diff := c.model.WorldPose().Pos.Z - targetHeight

	if math.Abs(diff) <= FloorTolerance/2 {
		c.body.SetForce(world.Vector3{})
		c.body.SetLinearVel(world.Vector3{})
		return
	}

	speed := c.speed
	if sec := dt.Seconds(); sec > 0 && speed*sec > math.Abs(diff) {
		speed = math.Abs(diff) / sec
	}
	if diff > 0 {
		c.body.SetForce(world.Vector3{Z: -c.force})
		c.body.SetLinearVel(world.Vector3{Z: -speed})
	} else {
		c.body.SetForce(world.Vector3{Z: c.force})
		c.body.SetLinearVel(world.Vector3{Z: speed})
	}
}

// constrainHorizontalMovement keeps the car on its shaft: spawn X/Y, level.
func (c *Car) constrainHorizontalMovement() {
	cur := c.model.WorldPose()
	c.model.SetWorldPose(world.Pose{
		Pos: world.Vector3{X: c.spawnX, Y: c.spawnY, Z: cur.Pos.Z},
		Rot: world.Identity,
	})
}

func (c *Car) publishEstimatedFloor() {
	est := c.floors.Estimate(c.model.WorldPose().Pos.Z, FloorTolerance)
	if est != c.estimated {
		c.logger.Debug("Estimated floor changed", "floor", est)
	}
	c.estimated = est
	c.bus.Publish(bus.EstimatedFloorTopic(c.name), est)
}
