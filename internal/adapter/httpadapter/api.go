package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/SurawutP/Projectpm2.5/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 1 << 16

type coordinateRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (c coordinateRequest) coordinate() (domain.Coordinate, error) {
	if c.Lat == nil || c.Lng == nil {
		return domain.Coordinate{}, fmt.Errorf("%w: lat and lng are required", domain.ErrInvalidInput)
	}
	return domain.Coordinate{Lat: *c.Lat, Lng: *c.Lng}, nil
}

type areaRequest struct {
	AreaRai *float64 `json:"area_rai"`
}

type scheduleRequest struct {
	Date string `json:"date"`
	Hour *int   `json:"hour"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.sessions.Snapshot())
}

func (s *Server) handleLevels(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Levels())
}

func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Hour == nil {
		s.writeError(w, fmt.Errorf("%w: hour is required", domain.ErrInvalidInput))
		return
	}
	schedule, err := domain.ParseSchedule(req.Date, *req.Hour, s.location)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.SetSchedule(schedule.Date, schedule.Hour); err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.sessions.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var req coordinateRequest
	if !s.decode(w, r, &req) {
		return
	}
	coord, err := req.coordinate()
	if err != nil {
		s.writeError(w, err)
		return
	}
	site, err := s.sessions.AddSite(coord)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sites/"+site.ID)
	sharedobs.WriteJSON(w, http.StatusCreated, site)
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := s.sessions.Site(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, site)
}

func (s *Server) handleRemoveSite(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.RemoveSite(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetArea(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AreaRai == nil {
		s.writeError(w, fmt.Errorf("%w: area_rai is required", domain.ErrInvalidInput))
		return
	}
	id := r.PathValue("id")
	if err := s.sessions.SetArea(id, *req.AreaRai); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSite(w, id)
}

func (s *Server) handleMoveSite(w http.ResponseWriter, r *http.Request) {
	var req coordinateRequest
	if !s.decode(w, r, &req) {
		return
	}
	coord, err := req.coordinate()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.sessions.MoveSite(id, coord); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSite(w, id)
}

func (s *Server) handleSelectSite(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SelectSite(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.sessions.Snapshot())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	result, err := s.sessions.Simulate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result.SimulatedAt.IsZero() {
		// The site was removed while the reading was in flight.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

// writeSite responds with the current state of one site.
func (s *Server) writeSite(w http.ResponseWriter, id string) {
	site, err := s.sessions.Site(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, site)
}

// decode reads a JSON request body into v, writing a 400 and returning false
// when the body is malformed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := domain.Kind(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "kind", kind, "error", err)
	}
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(kind string) int {
	switch kind {
	case "invalid_input":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "incomplete_data", "division_by_zero":
		return http.StatusUnprocessableEntity
	case "past_time", "stale":
		return http.StatusConflict
	case "unavailable":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
