package domain

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports ErrInvalidInput when either component is out of range or not finite.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinate (%g, %g) out of range", ErrInvalidInput, c.Lat, c.Lng)
	}
	return nil
}

// MeteorologicalReading holds the hourly inputs the estimator needs.
// WindSpeed and MixingHeight are required; nil means the provider did not
// report them.
type MeteorologicalReading struct {
	WindSpeed     *float64 `json:"wind_speed_ms"`
	WindDirection *float64 `json:"wind_direction_deg,omitempty"` // direction the wind blows from
	MixingHeight  *float64 `json:"mixing_height_m"`
}

// SimulationResult is the estimator output attached to a site.
type SimulationResult struct {
	ConcentrationUgM3 float64        `json:"concentration_ug_m3"`
	Level             Classification `json:"level"`

	// Readings used, retained for display.
	WindSpeed     float64  `json:"wind_speed_ms"`
	WindDirection *float64 `json:"wind_direction_deg,omitempty"`
	MixingHeight  float64  `json:"mixing_height_m"`

	// Intermediate quantities of the box model.
	AreaRai      float64 `json:"area_rai"`
	AreaAcres    float64 `json:"area_acres"`
	AreaM2       float64 `json:"area_m2"`
	EmissionRate float64 `json:"emission_rate"`
	PlumeWidth   float64 `json:"plume_width_m"`

	// Set by the session when the result is stored.
	Schedule    Schedule  `json:"schedule"`
	SimulatedAt time.Time `json:"simulated_at"`
}

// Clone returns a deep copy so callers cannot alias a stored result.
func (r SimulationResult) Clone() SimulationResult {
	if r.WindDirection != nil {
		dir := *r.WindDirection
		r.WindDirection = &dir
	}
	return r
}

// Site is one candidate burn location within a session.
type Site struct {
	ID          string            `json:"id"`
	Coordinate  Coordinate        `json:"coordinate"`
	BurnAreaRai float64           `json:"burn_area_rai"`
	Result      *SimulationResult `json:"result,omitempty"`
}

// Clone returns a deep copy of the site including its result.
func (s Site) Clone() Site {
	if s.Result != nil {
		r := s.Result.Clone()
		s.Result = &r
	}
	return s
}

// HasResult reports whether a simulation has succeeded for the site.
func (s Site) HasResult() bool {
	return s.Result != nil
}
