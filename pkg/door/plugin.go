package door

import (
	"fmt"
	"log/slog"
	"time"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/world"
)

// LinkName is the link of a door model that gets velocity commands.
const LinkName = "door"

const subscriberQueue = 50

// Plugin binds a Controller to a world model and the bus.
// Plugin은 Controller를 월드 모델과 버스에 연결합니다.
type Plugin struct {
	name   string
	node   *bus.Node
	ctrl   *Controller
	logger *slog.Logger
}

// Load resolves params for the door model named modelName, reads the shared
// elevator domain space from the bus parameters, and subscribes the door's
// signal topics. Any returned error means the door cannot run.
func Load(w *world.World, b *bus.Bus, modelName string, p Params, logger *slog.Logger) (*Plugin, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("model", modelName)

	cfg, err := ResolveConfig(p, logger)
	if err != nil {
		return nil, fmt.Errorf("door %s: %w", modelName, err)
	}

	domainSpace, ok := b.StringParam(bus.ParamElevatorDomainSpace)
	if !ok {
		logger.Error("Elevator domain space parameter missing", "param", bus.ParamElevatorDomainSpace)
		return nil, fmt.Errorf("door %s: %w", modelName, ErrMissingDomainSpace)
	}

	model, ok := w.ModelByName(modelName)
	if !ok {
		return nil, fmt.Errorf("door %s: model not in world", modelName)
	}
	link, ok := model.Link(LinkName)
	if !ok {
		return nil, fmt.Errorf("door %s: %w", modelName, ErrMissingLink)
	}
	elevator, ok := w.ModelByName(cfg.ElevatorName)
	if !ok {
		return nil, fmt.Errorf("door %s: %w: %s", modelName, ErrElevatorNotFound, cfg.ElevatorName)
	}

	ctrl, err := New(cfg, domainSpace, model, link, elevator, logger)
	if err != nil {
		return nil, fmt.Errorf("door %s: %w", modelName, err)
	}

	node := b.NewNode(modelName)
	bus.Subscribe(node, bus.TopicTargetFloor, subscriberQueue, ctrl.OnTargetFloor)
	bus.Subscribe(node, bus.EstimatedFloorTopic(cfg.ElevatorName), subscriberQueue, ctrl.OnEstimatedFloor)
	bus.Subscribe(node, bus.TopicDoor, subscriberQueue, ctrl.OnDoorOverride)
	bus.Subscribe(node, bus.TopicActive, subscriberQueue, ctrl.OnActiveElevators)

	return &Plugin{name: modelName, node: node, ctrl: ctrl, logger: logger}, nil
}

// Name returns the door model name.
func (p *Plugin) Name() string { return p.name }

// Controller exposes the underlying controller.
func (p *Plugin) Controller() *Controller { return p.ctrl }

// Update is the per-tick hook: drain signals, then run the controller.
func (p *Plugin) Update(time.Duration) {
	p.node.SpinOnce()
	p.ctrl.Tick()
}

// Constrain clamps the door back into its travel range. The host calls it
// after physics so observers never see the door past its bounds.
func (p *Plugin) Constrain() {
	p.ctrl.CheckSlideConstraints()
}

// Close unsubscribes the door.
func (p *Plugin) Close() {
	p.node.Shutdown()
}
