package domain

import (
	"context"
	"time"
)

// WeatherSource supplies hourly meteorological readings.
type WeatherSource interface {
	// FetchReading returns the reading for the given hour of date at coord.
	// An hour absent from the provider's series is ErrNotFound; transport or
	// provider failures are ErrUnavailable.
	FetchReading(ctx context.Context, coord Coordinate, date time.Time, hour int) (MeteorologicalReading, error)
}
