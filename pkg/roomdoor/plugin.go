package roomdoor

import (
	"fmt"
	"log/slog"
	"time"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/world"
)

// LinkName is the link of a door model that gets velocity commands.
const LinkName = "door"

const subscriberQueue = 1000

// Plugin binds a Controller to a world model and the door topics.
// Plugin은 Controller를 월드 모델과 문 토픽에 연결합니다.
type Plugin struct {
	name string
	node *bus.Node
	ctrl *Controller
}

// Load resolves params for modelName and subscribes the door command and
// roster topics.
func Load(w *world.World, b *bus.Bus, modelName string, p Params, logger *slog.Logger) (*Plugin, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("model", modelName)

	cfg := ResolveConfig(p, logger)

	model, ok := w.ModelByName(modelName)
	if !ok {
		return nil, fmt.Errorf("door %s: model not in world", modelName)
	}
	link, ok := model.Link(LinkName)
	if !ok {
		return nil, fmt.Errorf("door %s: link %q not found", modelName, LinkName)
	}

	ctrl, err := New(cfg, modelName, model, link, logger)
	if err != nil {
		return nil, fmt.Errorf("door %s: %w", modelName, err)
	}

	node := b.NewNode(modelName)
	bus.Subscribe(node, bus.TopicDoorCommand, subscriberQueue, ctrl.OnCommand)
	bus.Subscribe(node, bus.TopicDoorActive, subscriberQueue, ctrl.OnActiveDoors)

	return &Plugin{name: modelName, node: node, ctrl: ctrl}, nil
}

// Name returns the door model name.
func (p *Plugin) Name() string { return p.name }

// Controller exposes the underlying controller.
func (p *Plugin) Controller() *Controller { return p.ctrl }

// Update drains commands, then applies velocity and constraints.
func (p *Plugin) Update(time.Duration) {
	p.node.SpinOnce()
	p.ctrl.Tick()
}

// Constrain re-applies the range constraint after physics.
func (p *Plugin) Constrain() {
	p.ctrl.ApplyConstraints()
}

// Close unsubscribes the door.
func (p *Plugin) Close() {
	p.node.Shutdown()
}
