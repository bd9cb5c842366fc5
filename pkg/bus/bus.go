// Package bus is an in-process topic bus modeled on the controller messaging
// layer: publishers enqueue, and each node drains its own queues with
// SpinOnce on the goroutine that owns it. Handlers therefore never run
// concurrently with the node owner's tick logic.
// 이 패키지는 프로세스 내부 토픽 버스를 구현합니다.
// 각 노드는 자신의 큐를 SpinOnce로 소유 고루틴에서 처리하므로 핸들러는 틱 로직과 동시에 실행되지 않습니다.
package bus

import (
	"fmt"
	"log/slog"
	"sync"
)

// Bus routes messages by topic and holds the process-wide parameters.
// Bus는 토픽별로 메시지를 전달하고 프로세스 전역 파라미터를 보관합니다.
type Bus struct {
	mu     sync.Mutex
	subs   map[string][]*Subscription
	params map[string]any
	logger *slog.Logger
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[string][]*Subscription),
		params: make(map[string]any),
		logger: logger.With("component", "bus"),
	}
}

// Node groups the subscriptions of one plugin. Messages for all of its
// subscriptions share one queue, so SpinOnce delivers in publish order.
// Node는 플러그인 하나의 구독을 묶으며, 발행 순서대로 메시지를 전달합니다.
type Node struct {
	bus  *Bus
	name string

	mu    sync.Mutex
	subs  []*Subscription
	queue []delivery
}

type delivery struct {
	sub *Subscription
	msg any
}

// NewNode registers a node. Its subscriptions only deliver on SpinOnce.
func (b *Bus) NewNode(name string) *Node {
	return &Node{bus: b, name: name}
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Subscription is one queued topic binding. Its counters are guarded by the
// owning node's mutex.
// Subscription은 크기가 제한된 큐를 가진 토픽 구독입니다.
type Subscription struct {
	node     *Node
	topic    string
	queueLen int
	deliver  func(msg any) error

	pending int
	dropped uint64
	closed  bool
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Dropped returns how many messages were discarded on queue overflow.
func (s *Subscription) Dropped() uint64 {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return s.dropped
}

// Pending returns the number of undelivered messages.
func (s *Subscription) Pending() int {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return s.pending
}

// Close detaches the subscription from the bus. Pending messages are lost.
func (s *Subscription) Close() {
	b := s.node.bus
	b.mu.Lock()
	subs := b.subs[s.topic]
	for i, other := range subs {
		if other == s {
			b.subs[s.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	n := s.node
	n.mu.Lock()
	defer n.mu.Unlock()
	s.closed = true
	s.pending = 0
	kept := n.queue[:0]
	for _, d := range n.queue {
		if d.sub != s {
			kept = append(kept, d)
		}
	}
	n.queue = kept
}

func (n *Node) enqueue(s *Subscription, msg any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s.closed {
		return
	}
	if s.pending >= s.queueLen {
		// Oldest message of this subscription loses, as with a full
		// subscriber queue on the wire.
		for i, d := range n.queue {
			if d.sub == s {
				n.queue = append(n.queue[:i], n.queue[i+1:]...)
				break
			}
		}
		s.pending--
		s.dropped++
	}
	n.queue = append(n.queue, delivery{sub: s, msg: msg})
	s.pending++
}

// Subscribe binds fn to topic on node n. Messages whose payload is not a T
// are logged and dropped at delivery.
func Subscribe[T any](n *Node, topic string, queueLen int, fn func(T)) *Subscription {
	if queueLen < 1 {
		queueLen = 1
	}
	s := &Subscription{
		node:     n,
		topic:    topic,
		queueLen: queueLen,
		deliver: func(msg any) error {
			v, ok := msg.(T)
			if !ok {
				var want T
				return fmt.Errorf("payload type %T, handler expects %T", msg, want)
			}
			fn(v)
			return nil
		},
	}

	n.mu.Lock()
	n.subs = append(n.subs, s)
	n.mu.Unlock()

	b := n.bus
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	b.logger.Debug("Subscribed", "node", n.name, "topic", topic, "queue", queueLen)
	return s
}

// Publish enqueues msg on every subscription of topic. It never blocks on a
// subscriber and returns the number of subscriptions reached.
func (b *Bus) Publish(topic string, msg any) int {
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.node.enqueue(s, msg)
	}
	return len(subs)
}

// SpinOnce delivers every message queued for this node, in publish order,
// on the calling goroutine. Messages published by handlers wait for the
// next spin. It returns the number delivered.
func (n *Node) SpinOnce() int {
	n.mu.Lock()
	queue := n.queue
	n.queue = nil
	for _, s := range n.subs {
		s.pending = 0
	}
	n.mu.Unlock()

	delivered := 0
	for _, d := range queue {
		if err := d.sub.deliver(d.msg); err != nil {
			n.bus.logger.Warn("Dropped message", "node", n.name, "topic", d.sub.topic, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Shutdown closes every subscription of the node.
func (n *Node) Shutdown() {
	n.mu.Lock()
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}

// SetParam stores a process-wide parameter.
func (b *Bus) SetParam(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params[key] = value
}

// Param reads a process-wide parameter.
func (b *Bus) Param(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.params[key]
	return v, ok
}

// HasParam reports whether key is set.
func (b *Bus) HasParam(key string) bool {
	_, ok := b.Param(key)
	return ok
}

// StringParam reads a string parameter. ok is false when the key is unset
// or holds another type.
func (b *Bus) StringParam(key string) (string, bool) {
	v, ok := b.Param(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
