package domain

import (
	"strconv"
	"strings"
)

const (
	// DefaultVolume is the initial volume percentage of a session.
	DefaultVolume = 100
	// DefaultMaxVolume is the volume ceiling when none is configured.
	DefaultMaxVolume = 250
)

// ClampVolume limits v to [0, maxVolume].
func ClampVolume(v, maxVolume int) int {
	if v < 0 {
		return 0
	}
	if v > maxVolume {
		return maxVolume
	}
	return v
}

// ParseVolume converts user input to a volume percentage.
// Non-numeric input yields DefaultVolume.
func ParseVolume(input string) int {
	input = strings.TrimSuffix(strings.TrimSpace(input), "%")
	v, err := strconv.Atoi(input)
	if err != nil {
		f, ferr := strconv.ParseFloat(input, 64)
		if ferr != nil {
			return DefaultVolume
		}
		return int(f)
	}
	return v
}

// VolumeScale converts a percentage to the linear gain handed to an audio sink.
func VolumeScale(v int) float64 {
	return float64(v) / 100
}
