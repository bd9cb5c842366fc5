package elevator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// --- Floors ---

// UnknownFloor is reported while the car is between floors.
const UnknownFloor int32 = -100

var (
	ErrMissingFloorHeights = errors.New("floor heights not specified: the elevator cannot function without known floor heights")
	ErrInvalidFloorHeight  = errors.New("invalid floor height")
)

// FloorMap maps floor indices 0..n-1 to heights, lowest floor first.
// FloorMap은 층 번호를 높이에 대응시킵니다. 가장 낮은 층이 먼저입니다.
type FloorMap struct {
	heights []float64
}

// ParseFloorHeights parses a comma separated height list such as
// "0, 3.5, 7". Whitespace is ignored and heights are sorted.
func ParseFloorHeights(s string) (FloorMap, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return FloorMap{}, ErrMissingFloorHeights
	}

	var heights []float64
	for _, token := range strings.Split(s, ",") {
		h, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return FloorMap{}, fmt.Errorf("%w %q", ErrInvalidFloorHeight, token)
		}
		heights = append(heights, h)
	}
	sort.Float64s(heights)
	return FloorMap{heights: heights}, nil
}

// Len returns the number of floors.
func (f FloorMap) Len() int {
	return len(f.heights)
}

// Height returns the height of a floor.
func (f FloorMap) Height(floor int32) (float64, bool) {
	if floor < 0 || int(floor) >= len(f.heights) {
		return 0, false
	}
	return f.heights[floor], true
}

// Heights returns a copy of the sorted heights.
func (f FloorMap) Heights() []float64 {
	return append([]float64(nil), f.heights...)
}

// Estimate returns the floor whose height is within tol of z, or
// UnknownFloor.
func (f FloorMap) Estimate(z, tol float64) int32 {
	for i, h := range f.heights {
		if math.Abs(z-h) < tol {
			return int32(i)
		}
	}
	return UnknownFloor
}

// --- Call scheduling ---

// Direction indicates the vertical movement vector.
// Direction은 수직 이동 벡터를 나타냅니다.
type Direction string

const (
	DirUp   Direction = "Up"
	DirDown Direction = "Down"
	DirNone Direction = "None"
)

// FloorConfig holds specific settings for a single floor.
// FloorConfig는 단일 층의 특정 설정을 저장합니다.
type FloorConfig struct {
	FloorNumber  int
	IsAccessible bool
}

// SchedulerConfig holds static configuration for call scheduling.
// SchedulerConfig는 호출 스케줄링을 위한 정적 설정입니다.
type SchedulerConfig struct {
	MinFloor     int
	MaxFloor     int
	InitialFloor int
	FloorConfigs map[int]FloorConfig
}

// Scheduler picks the next target floor from pending calls with the SCAN
// algorithm. No mutex, no channel, no time: the owner serializes access.
// Scheduler는 SCAN 알고리즘으로 대기 중인 호출에서 다음 목표 층을 고릅니다.
type Scheduler struct {
	Config SchedulerConfig

	Floor     int
	Direction Direction
	Calls     map[int]bool
}

// NewScheduler creates a scheduler with every unlisted floor accessible.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.MinFloor > cfg.MaxFloor {
		return nil, fmt.Errorf("invalid config: MinFloor (%d) > MaxFloor (%d)", cfg.MinFloor, cfg.MaxFloor)
	}
	if cfg.FloorConfigs == nil {
		cfg.FloorConfigs = make(map[int]FloorConfig)
	}
	for i := cfg.MinFloor; i <= cfg.MaxFloor; i++ {
		if _, ok := cfg.FloorConfigs[i]; !ok {
			cfg.FloorConfigs[i] = FloorConfig{FloorNumber: i, IsAccessible: true}
		}
	}

	return &Scheduler{
		Config:    cfg,
		Floor:     cfg.InitialFloor,
		Direction: DirNone,
		Calls:     make(map[int]bool),
	}, nil
}

// AddCall registers a call if valid.
func (s *Scheduler) AddCall(floor int) error {
	if floor < s.Config.MinFloor || floor > s.Config.MaxFloor {
		return fmt.Errorf("floor %d out of range", floor)
	}
	if !s.Config.FloorConfigs[floor].IsAccessible {
		return fmt.Errorf("floor %d is inaccessible", floor)
	}
	s.Calls[floor] = true
	return nil
}

// RemoveCall removes a call.
func (s *Scheduler) RemoveCall(floor int) {
	delete(s.Calls, floor)
}

// Arrive records the car at floor and clears its call.
func (s *Scheduler) Arrive(floor int) {
	s.Floor = floor
	delete(s.Calls, floor)
	if len(s.Calls) == 0 {
		s.Direction = DirNone
	}
}

// Next selects the next target and updates Direction towards it. ok is
// false when no call is pending.
func (s *Scheduler) Next() (target int, ok bool) {
	target, ok = s.selectNextTarget()
	if !ok {
		s.Direction = DirNone
		return 0, false
	}
	switch {
	case target > s.Floor:
		s.Direction = DirUp
	case target < s.Floor:
		s.Direction = DirDown
	}
	return target, true
}

// selectNextTarget implements SCAN.
// 1. Calls ahead in the current heading (current floor included) first.
// 2. Otherwise the nearest call in any direction.
func (s *Scheduler) selectNextTarget() (int, bool) {
	if len(s.Calls) == 0 {
		return 0, false
	}

	// Phase 1: Current Direction Scan
	switch s.Direction {
	case DirUp:
		if target, found := s.nearest(func(f int) bool { return f >= s.Floor }); found {
			return target, true
		}
	case DirDown:
		if target, found := s.nearest(func(f int) bool { return f <= s.Floor }); found {
			return target, true
		}
	}

	// Phase 2: Nearest Call (Direction Reversal or Idle)
	return s.nearest(func(int) bool { return true })
}

func (s *Scheduler) nearest(accept func(int) bool) (int, bool) {
	minDist := math.MaxInt
	target := -1
	found := false
	for f := range s.Calls {
		if !accept(f) {
			continue
		}
		dist := f - s.Floor
		if dist < 0 {
			dist = -dist
		}
		// Ties go to the lower floor so selection does not depend on map order.
		if dist < minDist || (dist == minDist && f < target) {
			minDist = dist
			target = f
			found = true
		}
	}
	return target, found
}

// CallFloors returns sorted list of calls.
func (s *Scheduler) CallFloors() []int {
	floors := make([]int, 0, len(s.Calls))
	for f := range s.Calls {
		floors = append(floors, f)
	}
	sort.Ints(floors)
	return floors
}
