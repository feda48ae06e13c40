package hydro

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"hydro-go/internal/model"
)

const (
	mlPerFluidOunce = 29.5735
	kgPerPound      = 0.45359237
)

// MLToFluidOunces converts milliliters to US fluid ounces.
func MLToFluidOunces(ml float64) float64 { return ml / mlPerFluidOunce }

// FluidOuncesToML converts US fluid ounces to milliliters.
func FluidOuncesToML(oz float64) float64 { return oz * mlPerFluidOunce }

// KgToPounds converts kilograms to pounds.
func KgToPounds(kg float64) float64 { return kg / kgPerPound }

// PoundsToKg converts pounds to kilograms.
func PoundsToKg(lb float64) float64 { return lb * kgPerPound }

// ToML converts a volume expressed in the unit system's display unit to whole milliliters.
func ToML(amount float64, units model.UnitSystem) int {
	if units == model.Imperial {
		return int(math.Round(FluidOuncesToML(amount)))
	}
	return int(math.Round(amount))
}

// FromML converts milliliters to the unit system's display unit.
func FromML(ml int, units model.UnitSystem) float64 {
	if units == model.Imperial {
		return MLToFluidOunces(float64(ml))
	}
	return float64(ml)
}

// ToKg converts a weight expressed in the unit system's display unit to kilograms.
func ToKg(weight float64, units model.UnitSystem) float64 {
	if units == model.Imperial {
		return PoundsToKg(weight)
	}
	return weight
}

// FormatVolume renders ml for display, e.g. "250 ml" or "8.5 fl oz".
func FormatVolume(ml int, units model.UnitSystem) string {
	if units == model.Imperial {
		return fmt.Sprintf("%.1f fl oz", MLToFluidOunces(float64(ml)))
	}
	return fmt.Sprintf("%d ml", ml)
}

// ParseClock parses "HH:MM" (24h) into a minute of day.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidInput, s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidInput, s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidInput, s)
	}
	return hours*60 + mins, nil
}

// FormatClock renders a minute of day as "HH:MM".
func FormatClock(minute int) string {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
