package bus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoRefNumber means a model name does not follow the domain space naming
// convention "<domain space><number>".
var ErrNoRefNumber = errors.New("name does not carry a reference number")

// RefNumber strips the first occurrence of domainSpace from name and parses
// the remainder, e.g. ("elevator_3", "elevator_") -> 3.
func RefNumber(name, domainSpace string) (uint32, error) {
	if domainSpace == "" || !strings.Contains(name, domainSpace) {
		return 0, fmt.Errorf("%w: %q has no prefix %q", ErrNoRefNumber, name, domainSpace)
	}
	rest := strings.Replace(name, domainSpace, "", 1)
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoRefNumber, name)
	}
	return uint32(n), nil
}
