// Package signal holds the numeric model for station signal values.
package signal

import (
	"errors"
	"math"
)

// Settings bounds and tunes signal movement.
type Settings struct {
	Default          int     `yaml:"default" json:"default"`
	Threshold        int     `yaml:"threshold" json:"threshold"`
	ChangePercentage float64 `yaml:"change_percentage" json:"change_percentage"`
	MaxChange        int     `yaml:"max_change" json:"max_change"`
}

// DefaultSettings returns the stock game tuning.
func DefaultSettings() Settings {
	return Settings{
		Default:          100,
		Threshold:        50,
		ChangePercentage: 0.2,
		MaxChange:        10,
	}
}

// Validate checks settings invariants.
func (s Settings) Validate() error {
	if s.Threshold < 0 {
		return errors.New("signal: negative threshold")
	}
	if s.ChangePercentage < 0 || s.ChangePercentage > 1 {
		return errors.New("signal: change percentage must be within [0,1]")
	}
	if s.MaxChange < 0 {
		return errors.New("signal: negative max change")
	}
	return nil
}

// Min is the lowest allowed signal value.
func (s Settings) Min() int { return s.Default - s.Threshold }

// Max is the highest allowed signal value.
func (s Settings) Max() int { return s.Default + s.Threshold }

// Clamp bounds a value to [Default-Threshold, Default+Threshold].
func Clamp(value int, s Settings) int {
	if value < s.Min() {
		return s.Min()
	}
	if value > s.Max() {
		return s.Max()
	}
	return value
}

// DecayStep moves value one unit toward def.
func DecayStep(value, def int) int {
	switch {
	case value < def:
		return value + 1
	case value > def:
		return value - 1
	default:
		return value
	}
}

// Boost computes the signal value after a successful hack.
// Moving away from the default is throttled by the remaining headroom;
// moving back toward it always applies MaxChange.
func Boost(value int, boosting bool, s Settings) int {
	difference := math.Abs(float64(value - s.Default))
	delta := (float64(s.Threshold) - difference) * s.ChangePercentage

	if (boosting && value < s.Default) || (!boosting && value > s.Default) {
		delta = float64(s.MaxChange)
	}

	candidate := float64(value)
	if boosting {
		candidate += delta
	} else {
		candidate -= math.Abs(delta)
	}
	return Clamp(int(math.Ceil(candidate)), s)
}

// Direction names a boost direction for clients and reports.
func Direction(boosting bool) string {
	if boosting {
		return "boost"
	}
	return "dampen"
}
