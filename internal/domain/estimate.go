package domain

import (
	"fmt"
	"math"
)

// Unit conversions and emission constants. See the package documentation
// for how they combine.
const (
	AcresPerRai         = 0.39525691699605
	SquareMetersPerAcre = 4046.85642
	SecondsPerDay       = 86400.0

	// EmissionFactor is the particulate release per unit area per day.
	EmissionFactor = 4e7

	microgramsPerMilligram = 1000.0
)

// Estimate runs the box model for a burn of burnAreaRai under reading.
// It performs no I/O and returns identical output for identical input.
// Inputs whose concentration overflows or is undefined in float64 are
// rejected with ErrInvalidInput, so a returned concentration is always finite.
func Estimate(burnAreaRai float64, reading MeteorologicalReading) (SimulationResult, error) {
	if reading.WindSpeed == nil {
		return SimulationResult{}, fmt.Errorf("%w: wind speed missing", ErrIncompleteData)
	}
	if reading.MixingHeight == nil {
		return SimulationResult{}, fmt.Errorf("%w: mixing height missing", ErrIncompleteData)
	}

	u := *reading.WindSpeed
	b := *reading.MixingHeight

	if !isFinite(burnAreaRai) || !isFinite(u) || !isFinite(b) {
		return SimulationResult{}, fmt.Errorf("%w: non-finite input (area=%g, wind=%g, mixing=%g)", ErrInvalidInput, burnAreaRai, u, b)
	}
	if u < 0 {
		return SimulationResult{}, fmt.Errorf("%w: wind speed %g is negative", ErrInvalidInput, u)
	}
	if u == 0 {
		return SimulationResult{}, fmt.Errorf("%w: wind speed is zero", ErrDivisionByZero)
	}
	if b <= 0 {
		return SimulationResult{}, fmt.Errorf("%w: mixing height %g must be positive", ErrInvalidInput, b)
	}
	if dir := reading.WindDirection; dir != nil && (!isFinite(*dir) || *dir < 0 || *dir > 360) {
		return SimulationResult{}, fmt.Errorf("%w: wind direction %g outside 0-360", ErrInvalidInput, *dir)
	}

	acres := burnAreaRai * AcresPerRai
	areaM2 := acres * SquareMetersPerAcre
	if areaM2 <= 0 {
		return SimulationResult{}, fmt.Errorf("%w: burn area %g rai must be positive", ErrInvalidInput, burnAreaRai)
	}
	if !isFinite(areaM2) {
		return SimulationResult{}, fmt.Errorf("%w: burn area %g rai is too large", ErrInvalidInput, burnAreaRai)
	}

	p := emissionRate(areaM2)
	w := plumeWidth(areaM2)
	ug := p / (u * w * b) * microgramsPerMilligram
	if !isFinite(ug) {
		return SimulationResult{}, fmt.Errorf("%w: concentration not representable (area=%g, wind=%g, mixing=%g)", ErrInvalidInput, burnAreaRai, u, b)
	}

	result := SimulationResult{
		ConcentrationUgM3: ug,
		Level:             Classify(ug),
		WindSpeed:         u,
		MixingHeight:      b,
		AreaRai:           burnAreaRai,
		AreaAcres:         acres,
		AreaM2:            areaM2,
		EmissionRate:      p,
		PlumeWidth:        w,
	}
	if reading.WindDirection != nil {
		dir := *reading.WindDirection
		result.WindDirection = &dir
	}
	return result, nil
}

// emissionRate spreads a day's release over a nominal 24-hour burn.
func emissionRate(areaM2 float64) float64 {
	return (EmissionFactor / SecondsPerDay) * areaM2 / SecondsPerDay
}

// plumeWidth is the diagonal effective width of a square plot of areaM2.
func plumeWidth(areaM2 float64) float64 {
	return math.Sqrt(areaM2) * (math.Sqrt2 / 2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
