package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/domain"
)

// Simulate fetches a reading for the site's coordinate at the session
// schedule, runs the estimator, and stores the result on the site.
//
// Any failure leaves the site's previous result untouched. When the site is
// mutated while the reading is in flight, or another Simulate on the same
// site starts, the late result is dropped and ErrStale is returned. When the
// site is removed in flight the result is dropped silently: Simulate returns
// a zero result and a nil error.
func (s *Session) Simulate(ctx context.Context, id string) (domain.SimulationResult, error) {
	start := time.Now()
	result, err := s.simulate(ctx, id)
	s.metrics.SimulationDuration.Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case errors.Is(err, errSiteRemoved):
		outcome = "dropped"
		err = nil
	case err != nil:
		outcome = domain.Kind(err)
	}
	s.metrics.Simulations.WithLabelValues(outcome).Inc()
	return result, err
}

// errSiteRemoved marks a result discarded because its site no longer exists.
var errSiteRemoved = errors.New("site removed during simulation")

func (s *Session) simulate(ctx context.Context, id string) (domain.SimulationResult, error) {
	if s.source == nil {
		return domain.SimulationResult{}, fmt.Errorf("%w: no weather source configured", domain.ErrUnavailable)
	}

	s.mu.Lock()
	rec := s.find(id)
	if rec == nil {
		s.mu.Unlock()
		return domain.SimulationResult{}, notFound(id)
	}
	if rec.site.BurnAreaRai <= 0 {
		s.mu.Unlock()
		return domain.SimulationResult{}, fmt.Errorf("%w: site %q has no burn area", domain.ErrInvalidInput, id)
	}
	schedule := s.schedule
	if schedule.InPast() {
		s.mu.Unlock()
		return domain.SimulationResult{}, fmt.Errorf("site %q at %s: %w", id, schedule, domain.ErrPastTime)
	}
	rec.generation++
	generation := rec.generation
	coord := rec.site.Coordinate
	area := rec.site.BurnAreaRai
	s.mu.Unlock()

	reading, err := s.source.FetchReading(ctx, coord, schedule.Date, schedule.Hour)
	if err != nil {
		s.logger.Warn("weather lookup failed",
			"site_id", id,
			"lat", coord.Lat,
			"lng", coord.Lng,
			"schedule", schedule.String(),
			"error", err,
		)
		return domain.SimulationResult{}, fmt.Errorf("fetch reading for site %q: %w", id, err)
	}

	result, err := domain.Estimate(area, reading)
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("estimate site %q: %w", id, err)
	}
	result.Schedule = schedule
	result.SimulatedAt = domain.Now()

	s.mu.Lock()
	rec = s.find(id)
	if rec == nil {
		s.mu.Unlock()
		s.logger.Debug("dropping result for removed site", "site_id", id)
		return domain.SimulationResult{}, errSiteRemoved
	}
	if rec.generation != generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale simulation result", "site_id", id)
		return domain.SimulationResult{}, fmt.Errorf("site %q: %w", id, domain.ErrStale)
	}
	stored := result.Clone()
	rec.site.Result = &stored
	site := rec.site.Clone()
	s.mu.Unlock()

	s.metrics.Concentration.Observe(result.ConcentrationUgM3)
	s.metrics.Classifications.WithLabelValues(result.Level.Code).Inc()
	s.logger.Info("simulation stored",
		"site_id", id,
		"schedule", schedule.String(),
		"concentration_ug_m3", result.ConcentrationUgM3,
		"level", result.Level.Code,
	)

	s.publish(ctx, site)
	return result, nil
}

// publish announces a stored result. Failures are logged and counted but
// never fail the simulation.
func (s *Session) publish(ctx context.Context, site domain.Site) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, site); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("publish result failed", "site_id", site.ID, "error", err)
		}
		s.metrics.ResultsPublished.WithLabelValues("error").Inc()
		return
	}
	s.metrics.ResultsPublished.WithLabelValues("success").Inc()
}
