// Package scene loads the YAML scene description: the models placed in the
// world, the plugin attached to each, process-wide parameters and the
// manager's control groups.
// 이 패키지는 YAML 씬 파일을 읽고 검증합니다.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"go-elevator-door-simulator/pkg/door"
	"go-elevator-door-simulator/pkg/elevator"
	"go-elevator-door-simulator/pkg/roomdoor"
	"go-elevator-door-simulator/pkg/world"
)

var ErrInvalidScene = errors.New("invalid scene")

// Scene is a whole scene file.
// Scene은 씬 파일 전체입니다.
type Scene struct {
	Name    string            `yaml:"name"`
	Params  map[string]string `yaml:"params"`
	Models  []Model           `yaml:"models"`
	Groups  []Group           `yaml:"groups"`
	Manager Manager           `yaml:"manager"`
}

// Model is one model instance.
// Model은 모델 인스턴스 하나입니다.
type Model struct {
	Name   string     `yaml:"name"`
	Pose   world.Pose `yaml:"pose"`
	Links  []string   `yaml:"links"`
	Plugin Plugin     `yaml:"plugin"`
}

// Plugin holds at most one plugin block.
// Plugin은 모델당 최대 하나의 플러그인 블록을 담습니다.
type Plugin struct {
	Elevator *elevator.Params `yaml:"elevator"`
	AutoDoor *door.Params     `yaml:"auto_elevator_door"`
	Door     *roomdoor.Params `yaml:"door"`
}

func (p Plugin) count() int {
	n := 0
	if p.Elevator != nil {
		n++
	}
	if p.AutoDoor != nil {
		n++
	}
	if p.Door != nil {
		n++
	}
	return n
}

// Group is a manager control group.
// Group은 매니저 제어 그룹 정의입니다.
type Group struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	ActiveUnits []uint32 `yaml:"active_units"`
	Elevator    string   `yaml:"elevator"`
	MinFloor    int      `yaml:"min_floor"`
	MaxFloor    int      `yaml:"max_floor"`
	Activate    bool     `yaml:"activate"`

	InaccessibleFloors []int `yaml:"inaccessible_floors"`
}

// Manager holds manager settings.
type Manager struct {
	DoorHoldTime time.Duration `yaml:"door_hold_time"`
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	sc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scene
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks model names and plugin blocks.
func (s *Scene) Validate() error {
	seen := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if m.Name == "" {
			return fmt.Errorf("%w: model %d has no name", ErrInvalidScene, i)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate model %q", ErrInvalidScene, m.Name)
		}
		seen[m.Name] = true

		if m.Plugin.count() > 1 {
			return fmt.Errorf("%w: model %q has more than one plugin", ErrInvalidScene, m.Name)
		}
	}

	groups := make(map[string]bool, len(s.Groups))
	for _, g := range s.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: group without name", ErrInvalidScene)
		}
		if groups[g.Name] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidScene, g.Name)
		}
		groups[g.Name] = true
		if g.Elevator != "" && !seen[g.Elevator] {
			return fmt.Errorf("%w: group %q schedules unknown model %q", ErrInvalidScene, g.Name, g.Elevator)
		}
		if g.Elevator == "" && len(g.InaccessibleFloors) > 0 {
			return fmt.Errorf("%w: group %q lists inaccessible floors without an elevator", ErrInvalidScene, g.Name)
		}
	}
	return nil
}

// LinksFor returns the links a model needs: the declared ones plus the link
// its plugin drives.
func (m Model) LinksFor() []string {
	links := append([]string(nil), m.Links...)
	need := ""
	switch {
	case m.Plugin.Elevator != nil:
		need = elevator.BodyLinkName
	case m.Plugin.AutoDoor != nil:
		need = door.LinkName
	case m.Plugin.Door != nil:
		need = roomdoor.LinkName
	}
	if need == "" {
		return links
	}
	for _, l := range links {
		if l == need {
			return links
		}
	}
	return append(links, need)
}
