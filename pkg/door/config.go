package door

import (
	"errors"
	"fmt"
	"log/slog"

	"go-elevator-door-simulator/pkg/bus"
)

// Defaults applied when a scene omits the optional parameters.
const (
	DefaultModelDomainSpace = "auto_door_"
	DefaultDirection        = Left
	DefaultMaxTransDist     = 0.711305
	DefaultSpeed            = 1.0 // m/s
)

var (
	ErrMissingElevatorName = errors.New("elevator name not specified: an automatic door needs a corresponding elevator")
	ErrMissingDomainSpace  = errors.New("elevator domain space parameter does not exist: check that an elevator plugin sets it")
	ErrInvalidElevatorName = errors.New("elevator name does not carry a reference number")
	ErrElevatorNotFound    = errors.New("elevator model not found")
	ErrMissingLink         = errors.New("door link not found")
)

// Direction is the side the door slides towards when opening.
// Direction은 문이 열릴 때 미끄러지는 방향입니다.
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	if d == Right {
		return "right"
	}
	return "left"
}

// ParseDirection maps a scene value to a Direction. Anything but "right"
// slides left.
func ParseDirection(s string) Direction {
	if s == "right" {
		return Right
	}
	return Left
}

// Params are the per-instance scene parameters. Nil means not specified.
// Params는 씬에 지정된 문별 파라미터입니다. nil은 미지정을 뜻합니다.
type Params struct {
	ModelDomainSpace *string  `yaml:"model_domain_space"`
	ElevatorName     *string  `yaml:"elevator_name"`
	DoorDirection    *string  `yaml:"door_direction"`
	MaxTransDist     *float64 `yaml:"max_trans_dist"`
	Speed            *float64 `yaml:"speed"`
}

// Config is the resolved, immutable door configuration.
// Config는 기본값이 채워진 불변 문 설정입니다.
type Config struct {
	ModelDomainSpace string
	ElevatorName     string
	Direction        Direction
	MaxTransDist     float64
	Speed            float64
}

// ResolveConfig fills unspecified optional parameters with defaults, logging
// a warning for each. A missing elevator name is the only error.
func ResolveConfig(p Params, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Config{
		ModelDomainSpace: DefaultModelDomainSpace,
		Direction:        DefaultDirection,
		MaxTransDist:     DefaultMaxTransDist,
		Speed:            DefaultSpeed,
	}

	if p.ModelDomainSpace == nil {
		logger.Warn("Model domain space not specified, using default", "default", DefaultModelDomainSpace)
	} else {
		cfg.ModelDomainSpace = *p.ModelDomainSpace
	}

	if p.ElevatorName == nil || *p.ElevatorName == "" {
		logger.Error("Elevator name not specified")
		return Config{}, ErrMissingElevatorName
	}
	cfg.ElevatorName = *p.ElevatorName

	if p.DoorDirection == nil {
		logger.Warn("Door direction not specified, using default", "default", DefaultDirection)
	} else {
		cfg.Direction = ParseDirection(*p.DoorDirection)
	}

	if p.MaxTransDist == nil {
		logger.Warn("Maximum translation distance not specified, using default", "default", DefaultMaxTransDist)
	} else {
		cfg.MaxTransDist = *p.MaxTransDist
	}

	if p.Speed == nil {
		logger.Warn("Sliding speed not specified, using default", "default_mps", DefaultSpeed)
	} else {
		cfg.Speed = *p.Speed
	}

	return cfg, nil
}

// ParseRefNumber derives the elevator reference number from its name by
// removing the elevator domain space prefix.
func ParseRefNumber(name, domainSpace string) (uint32, error) {
	if domainSpace == "" {
		return 0, ErrMissingDomainSpace
	}
	n, err := bus.RefNumber(name, domainSpace)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidElevatorName, err)
	}
	return n, nil
}
