package roomdoor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go-elevator-door-simulator/pkg/bus"
)

// Defaults applied when a scene omits the optional parameters.
const (
	DefaultModelDomainSpace = "door_"
	DefaultMaxTransDist     = 0.711305
	DefaultMaxOpenAngle     = math.Pi / 2 // rad
)

var ErrInvalidDoorName = errors.New("door name does not carry a reference number")

// Kind is how a door opens.
// Kind는 문이 열리는 방식입니다.
type Kind string

const (
	Flip  Kind = "flip"  // 회전문
	Slide Kind = "slide" // 미닫이문
)

// Direction is the way a door opens: clockwise or counter_clockwise for flip
// doors, left or right for sliding doors.
// Direction은 문이 열리는 방향입니다.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counter_clockwise"
	Left             Direction = "left"
	Right            Direction = "right"
)

func (k Kind) defaultDirection() Direction {
	if k == Slide {
		return Left
	}
	return Clockwise
}

func (k Kind) accepts(d Direction) bool {
	if k == Slide {
		return d == Left || d == Right
	}
	return d == Clockwise || d == CounterClockwise
}

// Params are the per-instance scene parameters. Nil means not specified.
// Params는 씬에 지정된 문별 파라미터입니다. nil은 미지정을 뜻합니다.
type Params struct {
	ModelDomainSpace *string  `yaml:"model_domain_space"`
	DoorType         *string  `yaml:"door_type"`
	DoorDirection    *string  `yaml:"door_direction"`
	MaxTransDist     *float64 `yaml:"max_trans_dist"`
	MaxOpenAngle     *float64 `yaml:"max_open_angle"`
}

// Config is the resolved door configuration.
// Config는 기본값이 채워진 문 설정입니다.
type Config struct {
	ModelDomainSpace string
	Kind             Kind
	Direction        Direction
	MaxTransDist     float64
	MaxOpenAngle     float64
}

// ResolveConfig fills unspecified parameters with defaults, logging a warning
// for each. Any type other than "slide" is a flip door, and a direction that
// does not fit the type falls back to the type's default. Range parameters
// are only resolved for the type that uses them.
func ResolveConfig(p Params, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Config{
		ModelDomainSpace: DefaultModelDomainSpace,
		Kind:             Flip,
	}

	if p.DoorType == nil {
		logger.Warn("Door type not specified, using default", "default", Flip)
	} else if Kind(*p.DoorType) == Slide {
		cfg.Kind = Slide
	}

	cfg.Direction = cfg.Kind.defaultDirection()
	if p.DoorDirection == nil {
		logger.Warn("Door direction not specified, using default", "default", cfg.Direction)
	} else if d := Direction(*p.DoorDirection); cfg.Kind.accepts(d) {
		cfg.Direction = d
	} else {
		logger.Warn("Invalid door direction, using default", "direction", d, "type", cfg.Kind, "default", cfg.Direction)
	}

	if p.ModelDomainSpace == nil {
		logger.Warn("Model domain space not specified, using default", "default", DefaultModelDomainSpace)
	} else {
		cfg.ModelDomainSpace = *p.ModelDomainSpace
	}

	switch cfg.Kind {
	case Slide:
		cfg.MaxTransDist = DefaultMaxTransDist
		if p.MaxTransDist == nil {
			logger.Warn("Maximum translation distance not specified, using default", "default", DefaultMaxTransDist)
		} else {
			cfg.MaxTransDist = *p.MaxTransDist
		}
	case Flip:
		cfg.MaxOpenAngle = DefaultMaxOpenAngle
		if p.MaxOpenAngle == nil {
			logger.Warn("Maximum open angle not specified, using default", "default_rad", DefaultMaxOpenAngle)
		} else {
			cfg.MaxOpenAngle = *p.MaxOpenAngle
		}
	}

	return cfg
}

// ParseRefNumber derives the door reference number from its model name.
func ParseRefNumber(name, domainSpace string) (uint32, error) {
	n, err := bus.RefNumber(name, domainSpace)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDoorName, err)
	}
	return n, nil
}
