package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/domain"
	"github.com/SurawutP/Projectpm2.5/internal/observability"
	"github.com/google/uuid"
)

// ResultPublisher announces stored simulation results to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, site domain.Site) error
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Schedule       domain.Schedule `json:"schedule"`
	Sites          []domain.Site   `json:"sites"`
	SelectedSiteID string          `json:"selected_site_id,omitempty"`
}

// record is a site plus its generation, which every mutation of the site
// increments so in-flight simulations can detect that they are stale.
type record struct {
	site       domain.Site
	generation uint64
}

// Session holds the candidate sites, their inputs and results, the
// selected schedule, and the selected site. It is safe for concurrent use;
// the lock is never held while a reading is fetched.
type Session struct {
	source    domain.WeatherSource
	publisher ResultPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	newID     func() string

	mu       sync.Mutex
	schedule domain.Schedule
	sites    []*record
	selected string
}

// New creates an empty session scheduled for the current hour in loc.
// Pass a nil publisher to disable result publishing.
func New(source domain.WeatherSource, publisher ResultPublisher, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Session {
	metrics.SitesActive.Set(0)
	return &Session{
		source:    source,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		newID:     uuid.NewString,
		schedule:  domain.CurrentSchedule(loc),
	}
}

// CheckReadiness reports whether the session can run simulations.
func (s *Session) CheckReadiness(_ context.Context) error {
	if s.source == nil {
		return errors.New("no weather source configured")
	}
	return nil
}

// AddSite registers a new site at coord and selects it.
// Sites sharing a coordinate are allowed.
func (s *Session) AddSite(coord domain.Coordinate) (domain.Site, error) {
	if err := coord.Validate(); err != nil {
		return domain.Site{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{site: domain.Site{ID: s.newID(), Coordinate: coord}}
	s.sites = append(s.sites, rec)
	s.selected = rec.site.ID
	s.metrics.SitesActive.Set(float64(len(s.sites)))

	s.logger.Debug("site added", "site_id", rec.site.ID, "lat", coord.Lat, "lng", coord.Lng)
	return rec.site.Clone(), nil
}

// RemoveSite deletes a site, unselecting it if it was selected.
// Returns ErrNotFound for an unknown id.
func (s *Session) RemoveSite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	s.sites = slices.Delete(s.sites, i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	s.metrics.SitesActive.Set(float64(len(s.sites)))

	s.logger.Debug("site removed", "site_id", id)
	return nil
}

// SelectSite marks id as the site being edited.
func (s *Session) SelectSite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return notFound(id)
	}
	s.selected = id
	return nil
}

// SetArea sets the burn area in rai and clears any previous result.
// A non-positive or non-finite area leaves the site unchanged.
func (s *Session) SetArea(id string, areaRai float64) error {
	if math.IsNaN(areaRai) || math.IsInf(areaRai, 0) || areaRai <= 0 {
		return fmt.Errorf("%w: burn area %g rai must be a positive number", domain.ErrInvalidInput, areaRai)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(id)
	if rec == nil {
		return notFound(id)
	}
	rec.site.BurnAreaRai = areaRai
	rec.site.Result = nil
	rec.generation++
	return nil
}

// MoveSite re-points a site to coord and clears any previous result.
func (s *Session) MoveSite(id string, coord domain.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(id)
	if rec == nil {
		return notFound(id)
	}
	rec.site.Coordinate = coord
	rec.site.Result = nil
	rec.generation++
	return nil
}

// SetSchedule sets the date and hour simulations refer to. The date is
// taken in its own location. Past schedules are rejected with ErrInvalidInput.
func (s *Session) SetSchedule(date time.Time, hour int) error {
	schedule, err := domain.NewSchedule(date, hour)
	if err != nil {
		return err
	}
	if schedule.InPast() {
		return fmt.Errorf("%w: %s is in the past", domain.ErrInvalidInput, schedule)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = schedule
	return nil
}

// Schedule returns the selected date and hour.
func (s *Session) Schedule() domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// Clear removes every site and the selection. The schedule is kept.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sites = nil
	s.selected = ""
	s.metrics.SitesActive.Set(0)
}

// Site returns a copy of one site.
func (s *Session) Site(id string) (domain.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(id)
	if rec == nil {
		return domain.Site{}, notFound(id)
	}
	return rec.site.Clone(), nil
}

// SelectedSiteID returns the selected site id, or "" when none is selected.
func (s *Session) SelectedSiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Snapshot copies the whole session state in insertion order.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sites := make([]domain.Site, len(s.sites))
	for i, rec := range s.sites {
		sites[i] = rec.site.Clone()
	}
	return Snapshot{
		Schedule:       s.schedule,
		Sites:          sites,
		SelectedSiteID: s.selected,
	}
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.sites, func(r *record) bool { return r.site.ID == id })
}

func (s *Session) find(id string) *record {
	if i := s.indexOf(id); i >= 0 {
		return s.sites[i]
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("site %q: %w", id, domain.ErrNotFound)
}
