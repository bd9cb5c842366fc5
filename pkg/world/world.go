// Package world is the simulated physics host: named models made of links,
// each link carrying commanded velocities that Step integrates.
// World is not safe for concurrent use; the simulator owns it from a single
// tick goroutine.
// 이 패키지는 시뮬레이션 물리 호스트입니다. 링크 속도를 적분하여 모델을 움직입니다.
package world

import (
	"fmt"
	"sort"
	"time"

	"github.com/tiendc/go-deepcopy"
)

// Link is a rigid body part of a model that accepts velocity commands.
// Link는 속도 명령을 받는 모델의 강체 부품입니다.
type Link struct {
	Name       string  `json:"name"`
	LinearVel  Vector3 `json:"linearVel"`
	AngularVel Vector3 `json:"angularVel"`
	Force      Vector3 `json:"force"`
}

// SetLinearVel commands the link's linear velocity.
func (l *Link) SetLinearVel(v Vector3) {
	l.LinearVel = v
}

// SetAngularVel commands the link's angular velocity (rad/s). Only the Z
// component is integrated.
func (l *Link) SetAngularVel(v Vector3) {
	l.AngularVel = v
}

// SetForce records the force applied to the link.
func (l *Link) SetForce(f Vector3) {
	l.Force = f
}

// Model is a named object placed in the world.
// Model은 월드에 배치된 이름 있는 객체입니다.
type Model struct {
	Name  string           `json:"name"`
	Pose  Pose             `json:"pose"`
	Links map[string]*Link `json:"links"`
}

// WorldPose returns the model pose in world coordinates.
func (m *Model) WorldPose() Pose {
	return m.Pose
}

// SetWorldPose teleports the model.
func (m *Model) SetWorldPose(p Pose) {
	m.Pose = p
}

// Link returns the named link.
func (m *Model) Link(name string) (*Link, bool) {
	l, ok := m.Links[name]
	return l, ok
}

// World holds every model and the simulated clock.
// World는 모든 모델과 시뮬레이션 시계를 보관합니다.
type World struct {
	models  map[string]*Model
	simTime time.Duration
}

// State is a detached copy of the world.
// State는 월드의 분리된 복사본입니다.
type State struct {
	SimTime time.Duration     `json:"simTime"`
	Models  map[string]*Model `json:"models"`
}

// New returns an empty world.
func New() *World {
	return &World{models: make(map[string]*Model)}
}

// AddModel places a model with the given links. A zero orientation becomes
// the identity.
func (w *World) AddModel(name string, pose Pose, links ...string) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("model name is empty")
	}
	if _, ok := w.models[name]; ok {
		return nil, fmt.Errorf("model %q already exists", name)
	}
	if pose.Rot.IsZero() {
		pose.Rot = Identity
	}

	m := &Model{Name: name, Pose: pose, Links: make(map[string]*Link, len(links))}
	for _, l := range links {
		m.Links[l] = &Link{Name: l}
	}
	w.models[name] = m
	return m, nil
}

// ModelByName looks a model up.
func (w *World) ModelByName(name string) (*Model, bool) {
	m, ok := w.models[name]
	return m, ok
}

// ModelNames returns the sorted model names.
func (w *World) ModelNames() []string {
	names := make([]string, 0, len(w.models))
	for n := range w.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SimTime returns the total simulated time.
func (w *World) SimTime() time.Duration {
	return w.simTime
}

// Step advances the world by dt. Links are rigid, so every link velocity
// moves its whole model. Angular velocity turns the model about its own Z.
func (w *World) Step(dt time.Duration) {
	sec := dt.Seconds()
	for _, m := range w.models {
		for _, l := range m.Links {
			m.Pose.Pos = m.Pose.Pos.Add(l.LinearVel.Scale(sec))
			if l.AngularVel.Z != 0 {
				m.Pose.Rot = m.Pose.Rot.Mul(FromYaw(l.AngularVel.Z * sec)).Normalize()
			}
		}
	}
	w.simTime += dt
}

// Snapshot deep-copies the world so the copy can leave the tick goroutine.
func (w *World) Snapshot() (State, error) {
	st := State{SimTime: w.simTime}
	if err := deepcopy.Copy(&st.Models, w.models); err != nil {
		return State{}, fmt.Errorf("snapshot world: %w", err)
	}
	return st, nil
}
