// Package units converts flow speeds and observation times for display.
// Observations are stored in metres per second and UTC.
package units

import "strings"

// Speed unit constants
const (
	MPS   = "mps"
	Knots = "kn"
	KMPH  = "kmph"
	MPH   = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, Knots, KMPH, MPH}

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
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case Knots:
		return speedMPS * 1.9438444924406
	case KMPH:
		return speedMPS * 3.6
	case MPH:
		return speedMPS * 2.2369362920544
	default:
		return speedMPS
	}
}

// Symbol returns the display suffix for a unit.
func Symbol(unit string) string {
	switch unit {
	case Knots:
		return "kn"
	case KMPH:
		return "km/h"
	case MPH:
		return "mph"
	default:
		return "m/s"
	}
}
