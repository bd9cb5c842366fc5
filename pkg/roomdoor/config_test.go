package roomdoor

import (
	"errors"
	"testing"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestResolveConfig_Defaults(t *testing.T) {
	cfg := ResolveConfig(Params{}, nil)

	if cfg.Kind != Flip || cfg.Direction != Clockwise {
		t.Errorf("Expected flip/clockwise, got %s/%s", cfg.Kind, cfg.Direction)
	}
	if cfg.ModelDomainSpace != "door_" {
		t.Errorf("Expected domain space door_, got %q", cfg.ModelDomainSpace)
	}
	if cfg.MaxOpenAngle != DefaultMaxOpenAngle || cfg.MaxTransDist != 0 {
		t.Errorf("Expected only the flip range resolved, got %+v", cfg)
	}
}

func TestResolveConfig_Slide(t *testing.T) {
	cfg := ResolveConfig(Params{DoorType: strPtr("slide")}, nil)
	if cfg.Kind != Slide || cfg.Direction != Left {
		t.Errorf("Expected slide/left, got %s/%s", cfg.Kind, cfg.Direction)
	}
	if cfg.MaxTransDist != DefaultMaxTransDist || cfg.MaxOpenAngle != 0 {
		t.Errorf("Expected only the slide range resolved, got %+v", cfg)
	}

	cfg = ResolveConfig(Params{
		DoorType:      strPtr("slide"),
		DoorDirection: strPtr("right"),
		MaxTransDist:  floatPtr(1.2),
	}, nil)
	if cfg.Direction != Right || cfg.MaxTransDist != 1.2 {
		t.Errorf("Expected right/1.2, got %s/%v", cfg.Direction, cfg.MaxTransDist)
	}
}

func TestResolveConfig_InvalidDirection(t *testing.T) {
	// Scenario 1: slide direction on a flip door
	cfg := ResolveConfig(Params{DoorType: strPtr("flip"), DoorDirection: strPtr("left")}, nil)
	if cfg.Direction != Clockwise {
		t.Errorf("Scenario 1: expected clockwise, got %s", cfg.Direction)
	}

	// Scenario 2: flip direction on a sliding door
	cfg = ResolveConfig(Params{DoorType: strPtr("slide"), DoorDirection: strPtr("counter_clockwise")}, nil)
	if cfg.Direction != Left {
		t.Errorf("Scenario 2: expected left, got %s", cfg.Direction)
	}

	// Scenario 3: unknown type is a flip door
	cfg = ResolveConfig(Params{DoorType: strPtr("revolving"), DoorDirection: strPtr("counter_clockwise")}, nil)
	if cfg.Kind != Flip || cfg.Direction != CounterClockwise {
		t.Errorf("Scenario 3: expected flip/counter_clockwise, got %s/%s", cfg.Kind, cfg.Direction)
	}
}

func TestParseRefNumber(t *testing.T) {
	if n, err := ParseRefNumber("door_12", "door_"); err != nil || n != 12 {
		t.Errorf("Expected 12, got %d (%v)", n, err)
	}
	if _, err := ParseRefNumber("gate_1", "door_"); !errors.Is(err, ErrInvalidDoorName) {
		t.Errorf("Expected ErrInvalidDoorName, got %v", err)
	}
}
