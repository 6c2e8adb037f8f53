package revforecast

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinHorizon     Horizon = 1
	MaxHorizon     Horizon = 24
	DefaultHorizon Horizon = 6

	// DaysPerMonth is the flat month length used to turn a horizon into days
	DaysPerMonth = 30
)

// Horizon is the number of months to forecast past the end of the history
type Horizon int

// ParseHorizon parses a month count, using the default horizon for an empty string
func ParseHorizon(s string) (Horizon, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultHorizon, nil
	}
	months, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number of months, %w", s, ErrHorizon)
	}
	h := Horizon(months)
	if err := h.Validate(); err != nil {
		return 0, err
	}
	return h, nil
}

// Validate checks that the horizon is within [MinHorizon, MaxHorizon]
func (h Horizon) Validate() error {
	if h < MinHorizon || h > MaxHorizon {
		return fmt.Errorf("%d months is outside %d to %d, %w", int(h), int(MinHorizon), int(MaxHorizon), ErrHorizon)
	}
	return nil
}

// Days returns the number of daily points forecast for the horizon
func (h Horizon) Days() int {
	return int(h) * DaysPerMonth
}

func (h Horizon) String() string {
	if h == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", int(h))
}
