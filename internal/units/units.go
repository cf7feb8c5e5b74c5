// Package units provides shared constants, validation and conversion for
// speed units
package units

import "fmt"

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Conversion factors from metres per second.
const (
	MPSToKPH = 3.6
	MPSToMPH = 2.236936
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units fall back to m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * MPSToMPH
	case KMPH, KPH:
		return speedMPS * MPSToKPH
	default:
		return speedMPS
	}
}

// ConvertToMPS converts a speed in the given units back to metres per second.
func ConvertToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed / MPSToMPH
	case KMPH, KPH:
		return speed / MPSToKPH
	default:
		return speed
	}
}

// Label returns the display suffix for a unit.
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

// FormatSpeed renders a speed already expressed in unit. Metres per second
// are shown to three decimals, km/h and mph to two.
func FormatSpeed(value float64, unit string) string {
	if unit == MPS || !IsValid(unit) {
		return fmt.Sprintf("%.3f %s", value, Label(unit))
	}
	return fmt.Sprintf("%.2f %s", value, Label(unit))
}
