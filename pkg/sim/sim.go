// Package sim hosts a scene: it builds the world, loads the elevator and
// automatic door plugins, runs the dynamics manager and steps everything on
// a fixed tick. Plugin updates and physics run on the Run goroutine; other
// goroutines interact through the manager services and the event channel.
// 이 패키지는 씬을 호스팅하며 월드와 플러그인, 매니저를 고정 틱으로 진행시킵니다.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/door"
	"go-elevator-door-simulator/pkg/elevator"
	"go-elevator-door-simulator/pkg/manager"
	"go-elevator-door-simulator/pkg/roomdoor"
	"go-elevator-door-simulator/pkg/scene"
	"go-elevator-door-simulator/pkg/world"
)

// EventType represents the category of a simulator event.
// EventType은 시뮬레이터 이벤트의 카테고리를 나타냅니다.
type EventType string

const (
	EventSnapshot EventType = "Snapshot"
	EventError    EventType = "Error"
)

// Event carries simulator output.
// Event는 시뮬레이터 출력을 담습니다.
type Event struct {
	Type      EventType
	Payload   interface{}
	Timestamp time.Time
}

// Config holds simulator settings.
// Config는 시뮬레이터 설정입니다.
type Config struct {
	TickRate      time.Duration // wall-clock interval between steps
	StepSize      time.Duration // simulated time per step, TickRate if zero
	SnapshotEvery int           // publish a snapshot every N steps, 1 if zero
	EventBuffer   int
}

// Plugin is anything updated once per tick before physics.
// Plugin은 물리 연산 전에 매 틱마다 갱신되는 대상입니다.
type Plugin interface {
	Name() string
	Update(dt time.Duration)
}

// Constrainer is a plugin whose position limits are re-applied after physics.
// Constrainer는 물리 연산 후 위치 제약을 다시 적용하는 플러그인입니다.
type Constrainer interface {
	Constrain()
}

// DoorStatus is the observable state of one automatic door.
// DoorStatus는 자동문 하나의 관측 가능한 상태입니다.
type DoorStatus struct {
	Name        string  `json:"name"`
	Elevator    string  `json:"elevator"`
	Active      bool    `json:"active"`
	Override    string  `json:"override"`
	TargetFloor int32   `json:"targetFloor"`
	Estimated   int32   `json:"estimatedFloor"`
	Position    float64 `json:"position"` // 0 closed .. 1 fully open
}

// RoomDoorStatus is the observable state of one general door.
// RoomDoorStatus는 일반 문 하나의 관측 가능한 상태입니다.
type RoomDoorStatus struct {
	Name     string  `json:"name"`
	Ref      uint32  `json:"ref"`
	Type     string  `json:"type"`
	Active   bool    `json:"active"`
	Position float64 `json:"position"` // 0 closed .. 1 fully open
}

// CarStatus is the observable state of one elevator car.
// CarStatus는 엘리베이터 카 하나의 관측 가능한 상태입니다.
type CarStatus struct {
	Name      string  `json:"name"`
	Ref       uint32  `json:"ref"`
	Active    bool    `json:"active"`
	Target    int32   `json:"targetFloor"`
	Estimated int32   `json:"estimatedFloor"`
	Height    float64 `json:"height"`
}

// Snapshot is a consistent view of the simulation after a step.
// Snapshot은 한 스텝 이후 시뮬레이션의 일관된 뷰입니다.
type Snapshot struct {
	Step      uint64              `json:"step"`
	World     world.State         `json:"world"`
	Cars      []CarStatus         `json:"cars"`
	Doors     []DoorStatus        `json:"doors"`
	RoomDoors []RoomDoorStatus    `json:"roomDoors"`
	Groups    []manager.GroupInfo `json:"groups"`
}

// Simulator owns the world and every plugin.
// Simulator는 월드와 모든 플러그인을 소유합니다.
type Simulator struct {
	mu     sync.Mutex
	cfg    Config
	world  *world.World
	bus    *bus.Bus
	mgr    *manager.Manager
	cars   []*elevator.Car
	doors  []*door.Plugin
	rooms  []*roomdoor.Plugin
	order  []Plugin
	post   []Constrainer
	step   uint64
	logger *slog.Logger

	eventCh           chan Event
	droppedEventCount uint64
}

// New builds a simulator from a scene. Elevators load before doors since
// doors read the elevator domain space parameter the elevators publish.
func New(sc *scene.Scene, cfg Config, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 10 * time.Millisecond
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = cfg.TickRate
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 1
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}

	s := &Simulator{
		cfg:     cfg,
		world:   world.New(),
		bus:     bus.New(logger),
		eventCh: make(chan Event, cfg.EventBuffer),
		logger:  logger.With("scene", sc.Name),
	}

	for k, v := range sc.Params {
		s.bus.SetParam(k, v)
	}

	for _, m := range sc.Models {
		if _, err := s.world.AddModel(m.Name, m.Pose, m.LinksFor()...); err != nil {
			return nil, fmt.Errorf("scene %s: %w", sc.Name, err)
		}
	}

	for _, m := range sc.Models {
		if m.Plugin.Elevator == nil {
			continue
		}
		car, err := elevator.Load(s.world, s.bus, m.Name, *m.Plugin.Elevator, logger)
		if err != nil {
			return nil, err
		}
		s.cars = append(s.cars, car)
		s.order = append(s.order, car)
	}

	for _, m := range sc.Models {
		if m.Plugin.AutoDoor == nil {
			continue
		}
		d, err := door.Load(s.world, s.bus, m.Name, *m.Plugin.AutoDoor, logger)
		if err != nil {
			return nil, err
		}
		s.doors = append(s.doors, d)
		s.order = append(s.order, d)
		s.post = append(s.post, d)
	}

	for _, m := range sc.Models {
		if m.Plugin.Door == nil {
			continue
		}
		d, err := roomdoor.Load(s.world, s.bus, m.Name, *m.Plugin.Door, logger)
		if err != nil {
			return nil, err
		}
		s.rooms = append(s.rooms, d)
		s.order = append(s.order, d)
		s.post = append(s.post, d)
	}

	s.mgr = manager.New(s.bus, manager.Config{DoorHoldTime: sc.Manager.DoorHoldTime}, logger)
	for _, g := range sc.Groups {
		err := s.mgr.AddGroup(manager.GroupSpec{
			Name:        g.Name,
			Type:        g.Type,
			ActiveUnits: g.ActiveUnits,
			Elevator:    g.Elevator,
			MinFloor:    g.MinFloor,
			MaxFloor:    g.MaxFloor,

			InaccessibleFloors: g.InaccessibleFloors,
		})
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", sc.Name, err)
		}
		if g.Activate {
			if err := s.mgr.Activate(g.Name); err != nil {
				return nil, fmt.Errorf("scene %s: %w", sc.Name, err)
			}
		}
	}

	s.logger.Info("Simulator initialized",
		"models", len(sc.Models),
		"elevators", len(s.cars),
		"doors", len(s.doors),
		"room_doors", len(s.rooms),
		"groups", len(sc.Groups),
	)
	return s, nil
}

// Manager returns the dynamics manager for service calls.
func (s *Simulator) Manager() *manager.Manager {
	return s.mgr
}

// Events returns the read-only channel of simulator events.
func (s *Simulator) Events() <-chan Event {
	return s.eventCh
}

// DroppedEventCount returns diagnostic metric for channel health.
func (s *Simulator) DroppedEventCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.droppedEventCount
}

// Step advances one tick: plugins in load order, the manager, physics, then
// the door range constraints so every step ends with doors inside their range.
func (s *Simulator) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.order {
		p.Update(dt)
	}
	s.mgr.Update(dt)
	s.world.Step(dt)
	for _, c := range s.post {
		c.Constrain()
	}
	s.step++
}

// Snapshot returns a deep copy of the current state.
func (s *Simulator) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulator) snapshot() (Snapshot, error) {
	st, err := s.world.Snapshot()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Step:   s.step,
		World:  st,
		Groups: s.mgr.Groups(),
	}
	for _, c := range s.cars {
		height := 0.0
		if m, ok := st.Models[c.Name()]; ok {
			height = m.Pose.Pos.Z
		}
		snap.Cars = append(snap.Cars, CarStatus{
			Name:      c.Name(),
			Ref:       c.Ref(),
			Active:    c.Active(),
			Target:    c.TargetFloor(),
			Estimated: c.EstimatedFloor(),
			Height:    height,
		})
	}
	for _, d := range s.doors {
		ctrl := d.Controller()
		state := ctrl.State()
		ds := DoorStatus{
			Name:        d.Name(),
			Elevator:    ctrl.Config().ElevatorName,
			Active:      state.Active,
			Override:    state.Override.String(),
			TargetFloor: state.TargetFloor,
			Estimated:   state.EstimatedFloor,
		}
		if m, ok := st.Models[d.Name()]; ok {
			ds.Position = openFraction(ctrl, m.Pose.Pos)
		}
		snap.Doors = append(snap.Doors, ds)
	}
	for _, d := range s.rooms {
		ctrl := d.Controller()
		snap.RoomDoors = append(snap.RoomDoors, RoomDoorStatus{
			Name:     d.Name(),
			Ref:      ctrl.Ref(),
			Type:     string(ctrl.Config().Kind),
			Active:   ctrl.Active(),
			Position: ctrl.OpenFraction(),
		})
	}
	return snap, nil
}

// openFraction maps a door position to 0 (closed) .. 1 (fully open) along
// whichever axis has travelled furthest from the closed edge.
func openFraction(ctrl *door.Controller, p world.Vector3) float64 {
	cfg := ctrl.Config()
	if cfg.MaxTransDist <= 0 {
		return 0
	}
	b := ctrl.Bounds()
	var dx, dy float64
	if cfg.Direction == door.Right {
		dx, dy = b.MaxX-p.X, b.MaxY-p.Y
	} else {
		dx, dy = p.X-b.MinX, p.Y-b.MinY
	}
	return world.Clamp(max(dx, dy)/cfg.MaxTransDist, 0, 1)
}

// Run executes the main simulation loop until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("Simulation Started", "tick", s.cfg.TickRate, "step", s.cfg.StepSize)

	ticker := time.NewTicker(s.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Simulation Stopping (Context Cancelled)")
			return ctx.Err()

		case <-ticker.C:
			s.Step(s.cfg.StepSize)

			s.mu.Lock()
			if s.step%uint64(s.cfg.SnapshotEvery) == 0 {
				snap, err := s.snapshot()
				if err != nil {
					s.publishEvent(EventError, err.Error())
				} else {
					s.publishEvent(EventSnapshot, snap)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close detaches every plugin from the bus.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cars {
		c.Close()
	}
	for _, d := range s.doors {
		d.Close()
	}
	for _, d := range s.rooms {
		d.Close()
	}
	s.mgr.Close()
}

// publishEvent sends an event without blocking the loop; when the channel
// is full the event is dropped and counted. Caller holds s.mu.
func (s *Simulator) publishEvent(eventType EventType, payload interface{}) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case s.eventCh <- event:
	default:
		s.droppedEventCount++
		// Log rarely to avoid flooding
		if s.droppedEventCount%100 == 1 {
			s.logger.Error("Event Channel Saturated", "dropped", s.droppedEventCount, "type", eventType)
		}
	}
}
