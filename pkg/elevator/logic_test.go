package elevator

import (
	"errors"
	"testing"
)

func TestScheduler_Init(t *testing.T) {
	s, err := NewScheduler(SchedulerConfig{MinFloor: 0, MaxFloor: 10, InitialFloor: 1})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	if s.Floor != 1 {
		t.Errorf("Expected initial floor 1, got %d", s.Floor)
	}
	if s.Direction != DirNone {
		t.Errorf("Expected initial direction None, got %s", s.Direction)
	}

	if _, err := NewScheduler(SchedulerConfig{MinFloor: 5, MaxFloor: 1}); err == nil {
		t.Error("Expected error for MinFloor > MaxFloor, got nil")
	}
}

func TestScheduler_AddCall(t *testing.T) {
	cfg := SchedulerConfig{MinFloor: 1, MaxFloor: 5, InitialFloor: 1}
	s, _ := NewScheduler(cfg)

	// Valid Call
	if err := s.AddCall(3); err != nil {
		t.Errorf("Failed to add valid call: %v", err)
	}
	if !s.Calls[3] {
		t.Errorf("Call at 3 not registered")
	}

	// Invalid Call (Out of range)
	if err := s.AddCall(6); err == nil {
		t.Error("Expected error for out-of-range call, got nil")
	}

	// Invalid Call (Inaccessible - explicit config)
	cfg.FloorConfigs = map[int]FloorConfig{
		2: {FloorNumber: 2, IsAccessible: false},
	}
	s, _ = NewScheduler(cfg)
	if err := s.AddCall(2); err == nil {
		t.Error("Expected error for inaccessible floor, got nil")
	}
}

func TestScheduler_Next_SCAN(t *testing.T) {
	cfg := SchedulerConfig{MinFloor: 1, MaxFloor: 10, InitialFloor: 5}

	// Scenario 1: Idle, Call above -> Up
	s, _ := NewScheduler(cfg)
	s.AddCall(8)
	target, ok := s.Next()
	if !ok || target != 8 || s.Direction != DirUp {
		t.Errorf("Scenario 1 failed: Expected Up to 8, got %d (%s)", target, s.Direction)
	}

	// Scenario 2: Moving Up, Call above and below -> Continue Up (SCAN)
	s, _ = NewScheduler(cfg)
	s.Direction = DirUp
	s.AddCall(4) // Below, nearer
	s.AddCall(9) // Above
	target, _ = s.Next()
	if target != 9 || s.Direction != DirUp {
		t.Errorf("Scenario 2 failed: Expected Up to 9, got %d (%s)", target, s.Direction)
	}

	// Scenario 3: Moving Up, nothing above -> reversal to nearest
	s, _ = NewScheduler(cfg)
	s.Direction = DirUp
	s.AddCall(2)
	target, _ = s.Next()
	if target != 2 || s.Direction != DirDown {
		t.Errorf("Scenario 3 failed: Expected Down to 2 (Reversal), got %d (%s)", target, s.Direction)
	}

	// Scenario 4: Call at current floor is served in place
	s, _ = NewScheduler(cfg)
	s.AddCall(5)
	target, _ = s.Next()
	if target != 5 || s.Direction != DirNone {
		t.Errorf("Scenario 4 failed: Expected 5 in place, got %d (%s)", target, s.Direction)
	}

	// Scenario 5: Equal distance picks the lower floor
	s, _ = NewScheduler(cfg)
	s.AddCall(3)
	s.AddCall(7)
	target, _ = s.Next()
	if target != 3 {
		t.Errorf("Scenario 5 failed: Expected 3, got %d", target)
	}

	// Scenario 6: No calls
	s, _ = NewScheduler(cfg)
	if _, ok := s.Next(); ok {
		t.Error("Scenario 6 failed: Expected no target")
	}
}

func TestScheduler_Arrive(t *testing.T) {
	s, _ := NewScheduler(SchedulerConfig{MinFloor: 0, MaxFloor: 5})
	s.AddCall(2)
	s.AddCall(4)
	s.Next()

	s.Arrive(2)
	if s.Floor != 2 || s.Calls[2] {
		t.Errorf("Expected floor 2 with call cleared, got floor %d calls %v", s.Floor, s.CallFloors())
	}
	if s.Direction != DirUp {
		t.Errorf("Expected direction kept while calls remain, got %s", s.Direction)
	}

	s.Arrive(4)
	if s.Direction != DirNone {
		t.Errorf("Expected idle after last call, got %s", s.Direction)
	}
}

func TestParseFloorHeights(t *testing.T) {
	f, err := ParseFloorHeights("7.0, 0 ,3.5")
	if err != nil {
		t.Fatalf("ParseFloorHeights failed: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("Expected 3 floors, got %d", f.Len())
	}
	if h, _ := f.Height(1); h != 3.5 {
		t.Errorf("Expected floor 1 at 3.5, got %v", h)
	}
	if _, ok := f.Height(3); ok {
		t.Error("Expected floor 3 to not exist")
	}

	if _, err := ParseFloorHeights("0, x"); !errors.Is(err, ErrInvalidFloorHeight) {
		t.Errorf("Expected ErrInvalidFloorHeight, got %v", err)
	}
	if _, err := ParseFloorHeights("  "); !errors.Is(err, ErrMissingFloorHeights) {
		t.Errorf("Expected ErrMissingFloorHeights, got %v", err)
	}
}

func TestFloorMap_Estimate(t *testing.T) {
	f, _ := ParseFloorHeights("0,3.5,7")

	if got := f.Estimate(3.505, FloorTolerance); got != 1 {
		t.Errorf("Expected floor 1, got %d", got)
	}
	if got := f.Estimate(2.0, FloorTolerance); got != UnknownFloor {
		t.Errorf("Expected UnknownFloor, got %d", got)
	}
}
