// Package manager is the model dynamics manager: it keeps named control
// groups of elevators or doors and exposes the services that steer them over
// the bus (target floor, door open/close, door velocity, lift properties).
// Elevator groups with a scheduler also queue floor calls and dispatch them
// one by one.
// 이 패키지는 모델 동역학 매니저입니다. 엘리베이터와 문의 제어 그룹을 관리하고 버스를 통해 서비스를 제공합니다.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zyedidia/generic/mapset"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/elevator"
)

// DefaultDoorHoldTime is how long a scheduled car waits at a served floor
// before the next call is dispatched.
const DefaultDoorHoldTime = 3 * time.Second

// Door speeds used by OpenCloseDoors.
const (
	DefaultSlideSpeed = 1.0  // m/s
	DefaultFlipSpeed  = 1.57 // rad/s
)

var (
	ErrInvalidGroupType = errors.New("invalid group type")
	ErrGroupExists      = errors.New("group name already exists")
	ErrGroupNotFound    = errors.New("group does not exist")
	ErrWrongGroupType   = errors.New("group type does not support this call")
	ErrNoScheduler      = errors.New("group has no call scheduler")
)

// GroupType is the kind of units a group controls.
// GroupType은 그룹이 제어하는 유닛의 종류입니다.
type GroupType string

const (
	GroupDoor     GroupType = "door"
	GroupElevator GroupType = "elevator"
)

// ParseGroupType validates a group type string.
func ParseGroupType(s string) (GroupType, error) {
	switch GroupType(s) {
	case GroupDoor, GroupElevator:
		return GroupType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupType, s)
}

// GroupSpec describes a group to add. Elevator, when set, names the car whose
// estimated floor drives call scheduling between MinFloor and MaxFloor;
// calls to InaccessibleFloors are refused.
// GroupSpec은 추가할 그룹을 기술합니다.
type GroupSpec struct {
	Name               string
	Type               string
	ActiveUnits        []uint32
	Elevator           string
	MinFloor           int
	MaxFloor           int
	InaccessibleFloors []int
}

// GroupInfo is a read-only view of a group.
// GroupInfo는 그룹의 읽기 전용 뷰입니다.
type GroupInfo struct {
	Name        string    `json:"name"`
	Type        GroupType `json:"type"`
	ActiveUnits []uint32  `json:"activeUnits"`
	Elevator    string    `json:"elevator,omitempty"`
	TargetFloor *int32    `json:"targetFloor,omitempty"`
	Calls       []int     `json:"calls,omitempty"`
}

type group struct {
	name  string
	typ   GroupType
	units mapset.Set[uint32]

	// --- Scheduling ---
	elevator   string
	sched      *elevator.Scheduler
	estSub     *bus.Subscription
	estimated  int32
	target     int32
	hasTarget  bool
	dispatched bool
	held       time.Duration
}

func (g *group) activeUnits() []uint32 {
	units := make([]uint32, 0, g.units.Size())
	g.units.Each(func(u uint32) {
		units = append(units, u)
	})
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// Config holds manager settings.
type Config struct {
	DoorHoldTime time.Duration
}

// Manager owns the control groups. Service methods are safe to call from any
// goroutine; Update must be called from the simulation tick.
// Manager는 제어 그룹을 소유합니다. 서비스 메서드는 어느 고루틴에서나 호출할 수 있습니다.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	bus    *bus.Bus
	node   *bus.Node
	groups []*group
	logger *slog.Logger
}

// New creates a manager publishing on b.
func New(b *bus.Bus, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DoorHoldTime <= 0 {
		cfg.DoorHoldTime = DefaultDoorHoldTime
	}
	return &Manager{
		cfg:    cfg,
		bus:    b,
		node:   b.NewNode("model_dynamics_manager"),
		logger: logger.With("component", "manager"),
	}
}

// AddGroup registers a control group.
func (m *Manager) AddGroup(spec GroupSpec) error {
	typ, err := ParseGroupType(spec.Type)
	if err != nil {
		m.logger.Error("Add group failed", "group", spec.Name, "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(spec.Name) != nil {
		m.logger.Error("Add group failed", "group", spec.Name, "error", ErrGroupExists)
		return fmt.Errorf("%w: %s", ErrGroupExists, spec.Name)
	}

	g := &group{name: spec.Name, typ: typ, units: mapset.New[uint32]()}
	for _, u := range spec.ActiveUnits {
		g.units.Put(u)
	}

	if spec.Elevator == "" && len(spec.InaccessibleFloors) > 0 {
		return fmt.Errorf("%w: %s: inaccessible floors need a scheduled elevator", ErrNoScheduler, spec.Name)
	}
	if spec.Elevator != "" {
		if typ != GroupElevator {
			return fmt.Errorf("%w: scheduling needs an elevator group", ErrWrongGroupType)
		}
		floors := make(map[int]elevator.FloorConfig, len(spec.InaccessibleFloors))
		for _, f := range spec.InaccessibleFloors {
			floors[f] = elevator.FloorConfig{FloorNumber: f, IsAccessible: false}
		}
		sched, err := elevator.NewScheduler(elevator.SchedulerConfig{
			MinFloor:     spec.MinFloor,
			MaxFloor:     spec.MaxFloor,
			FloorConfigs: floors,
		})
		if err != nil {
			return fmt.Errorf("group %s: %w", spec.Name, err)
		}
		g.elevator = spec.Elevator
		g.sched = sched
		g.estimated = elevator.UnknownFloor
		g.estSub = bus.Subscribe(m.node, bus.EstimatedFloorTopic(spec.Elevator), 100, func(f int32) {
			g.estimated = f
		})
	}

	m.groups = append(m.groups, g)
	m.logger.Info("Group added", "group", g.name, "type", g.typ, "units", g.activeUnits(), "elevator", g.elevator)
	return nil
}

// DeleteGroup removes a group.
func (m *Manager) DeleteGroup(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, g := range m.groups {
		if g.name == name {
			if g.estSub != nil {
				g.estSub.Close()
			}
			m.groups = append(m.groups[:i], m.groups[i+1:]...)
			m.logger.Info("Group deleted", "group", name)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

// Groups lists all groups in insertion order.
func (m *Manager) Groups() []GroupInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]GroupInfo, 0, len(m.groups))
	for _, g := range m.groups {
		info := GroupInfo{
			Name:        g.name,
			Type:        g.typ,
			ActiveUnits: g.activeUnits(),
			Elevator:    g.elevator,
		}
		if g.hasTarget {
			t := g.target
			info.TargetFloor = &t
		}
		if g.sched != nil {
			info.Calls = g.sched.CallFloors()
		}
		infos = append(infos, info)
	}
	return infos
}

// Activate publishes the group's roster, making its units the active ones.
func (m *Manager) Activate(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.find(name)
	if g == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	m.publishRoster(g)
	return nil
}

// OpenCloseDoors swings or slides the group's doors open or closed at the
// default door speeds.
func (m *Manager) OpenCloseDoors(name string, open bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activateDoors(name); err != nil {
		return err
	}
	cmd := bus.Twist{LinearX: DefaultSlideSpeed, LinearY: DefaultSlideSpeed, AngularZ: DefaultFlipSpeed}
	if open {
		cmd = bus.Twist{LinearX: -DefaultSlideSpeed, LinearY: -DefaultSlideSpeed, AngularZ: -DefaultFlipSpeed}
	}
	m.bus.Publish(bus.TopicDoorCommand, cmd)
	m.logger.Info("Doors commanded", "group", name, "open", open)
	return nil
}

// SetDoorVelocity sends a raw velocity command to the group's doors.
func (m *Manager) SetDoorVelocity(name string, linX, linY, angZ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activateDoors(name); err != nil {
		return err
	}
	m.bus.Publish(bus.TopicDoorCommand, bus.Twist{LinearX: linX, LinearY: linY, AngularZ: angZ})
	return nil
}

// TargetFloor sends the group's elevators to floor, with doors on automatic.
func (m *Manager) TargetFloor(name string, floor int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := m.activateElevators(name)
	if err != nil {
		return err
	}
	m.publishTarget(g, floor)
	return nil
}

// OpenCloseElevatorDoors forces the group's doors open or closed.
func (m *Manager) OpenCloseElevatorDoors(name string, open bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activateElevators(name); err != nil {
		return err
	}
	cmd := bus.DoorCommandClose
	if open {
		cmd = bus.DoorCommandOpen
	}
	m.bus.Publish(bus.TopicDoor, cmd)
	m.logger.Info("Elevator doors forced", "group", name, "open", open)
	return nil
}

// ReleaseElevatorDoors returns the doors to automatic operation.
func (m *Manager) ReleaseElevatorDoors(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activateElevators(name); err != nil {
		return err
	}
	m.bus.Publish(bus.TopicDoor, bus.DoorCommandFree)
	return nil
}

// SetElevatorProps changes lift speed (m/s) and force (N).
func (m *Manager) SetElevatorProps(name string, speed, force float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.activateElevators(name); err != nil {
		return err
	}
	m.bus.Publish(bus.TopicParam, []float32{speed, force})
	return nil
}

// AddCall queues a floor call on a scheduled group.
func (m *Manager) AddCall(name string, floor int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.find(name)
	if g == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if g.sched == nil {
		return fmt.Errorf("%w: %s", ErrNoScheduler, name)
	}
	if err := g.sched.AddCall(floor); err != nil {
		m.logger.Warn("AddCall failed", "group", name, "floor", floor, "error", err)
		return err
	}
	m.logger.Info("Call registered", "group", name, "floor", floor)
	return nil
}

// Update drains estimated floors and advances call scheduling.
func (m *Manager) Update(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.node.SpinOnce()
	for _, g := range m.groups {
		if g.sched != nil {
			m.schedule(g, dt)
		}
	}
}

// Close unsubscribes the manager.
func (m *Manager) Close() {
	m.node.Shutdown()
}

// schedule holds a served floor for DoorHoldTime, then dispatches the next
// SCAN target.
func (m *Manager) schedule(g *group, dt time.Duration) {
	if g.dispatched {
		if g.estimated != g.target {
			return
		}
		g.held += dt
		if g.held < m.cfg.DoorHoldTime {
			return
		}
		g.sched.Arrive(int(g.target))
		g.dispatched = false
		m.logger.Debug("Call served", "group", g.name, "floor", g.target)
	}

	next, ok := g.sched.Next()
	if !ok {
		return
	}
	m.publishRoster(g)
	m.publishTarget(g, int32(next))
	g.dispatched = true
	g.held = 0
}

func (m *Manager) publishTarget(g *group, floor int32) {
	m.bus.Publish(bus.TopicDoor, bus.DoorCommandFree)
	m.bus.Publish(bus.TopicTargetFloor, floor)
	g.target, g.hasTarget = floor, true
	m.logger.Info("Target floor dispatched", "group", g.name, "floor", floor)
}

func (m *Manager) activateElevators(name string) (*group, error) {
	g := m.find(name)
	if g == nil {
		m.logger.Error("Elevator service failed", "group", name, "error", ErrGroupNotFound)
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if g.typ != GroupElevator {
		m.logger.Error("Elevator service failed", "group", name, "error", ErrWrongGroupType)
		return nil, fmt.Errorf("%w: %s is a %s group", ErrWrongGroupType, name, g.typ)
	}
	m.publishRoster(g)
	return g, nil
}

func (m *Manager) activateDoors(name string) (*group, error) {
	g := m.find(name)
	if g == nil {
		m.logger.Error("Door service failed", "group", name, "error", ErrGroupNotFound)
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if g.typ != GroupDoor {
		m.logger.Error("Door service failed", "group", name, "error", ErrWrongGroupType)
		return nil, fmt.Errorf("%w: %s is a %s group", ErrWrongGroupType, name, g.typ)
	}
	m.publishRoster(g)
	return g, nil
}

// publishRoster makes the group's units the active ones on its type's topic.
func (m *Manager) publishRoster(g *group) {
	topic := bus.TopicActive
	if g.typ == GroupDoor {
		topic = bus.TopicDoorActive
	}
	m.bus.Publish(topic, g.activeUnits())
}

func (m *Manager) find(name string) *group {
	for _, g := range m.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}
