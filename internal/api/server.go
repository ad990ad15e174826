// Package api exposes the tracker over a small JSON HTTP surface. It is
// presentation glue only: all counting and aggregation lives in the
// tracker package.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"smoketrack/internal/storage"
	"smoketrack/internal/tracker"
)

// Sentinel display strings for the time-since-last computation. These are
// user-visible values, not errors.
const (
	NoEventsToday = "No cigarettes today"
	TimeSinceErr  = "Error calculating time"
)

// Server handles HTTP requests for the smoketrack API.
type Server struct {
	tracker *tracker.Tracker
	addr    string
}

// New creates a new API server.
func New(t *tracker.Tracker, addr string) *Server {
	return &Server{tracker: t, addr: addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/event", s.logEvent)
	mux.HandleFunc("GET /api/event/{id}", s.getEvent)
	mux.HandleFunc("PATCH /api/event/{id}", s.updateEvent)
	mux.HandleFunc("DELETE /api/event/{id}", s.deleteEvent)

	mux.HandleFunc("GET /api/stats/today", s.todayStats)
	mux.HandleFunc("GET /api/events/today", s.todayEvents)

	mux.HandleFunc("GET /health", s.health)

	return withLogging(mux)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	log.Info("server starting", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// statusWriter records the response code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging logs every request with method, path, status, and duration.
func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, r)
		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// eventJSON is the wire shape of a single event.
type eventJSON struct {
	ID              int64   `json:"id"`
	Timestamp       string  `json:"timestamp"`
	Notes           *string `json:"notes,omitempty"`
	TriggerCategory *string `json:"trigger_category,omitempty"`
	Location        *string `json:"location,omitempty"`
}

func toEventJSON(e storage.Event) eventJSON {
	return eventJSON{
		ID:              e.ID,
		Timestamp:       e.Timestamp.Format(storage.TimeLayout),
		Notes:           e.Notes,
		TriggerCategory: e.TriggerCategory,
		Location:        e.Location,
	}
}

// eventFieldsRequest is the request body for logging and updating events.
// Absent fields stay nil and are stored as NULL / left unchanged.
type eventFieldsRequest struct {
	Notes           *string `json:"notes"`
	TriggerCategory *string `json:"trigger_category"`
	Location        *string `json:"location"`
}

func (r eventFieldsRequest) fields() storage.EventFields {
	return storage.EventFields{
		Notes:           r.Notes,
		TriggerCategory: r.TriggerCategory,
		Location:        r.Location,
	}
}

func (s *Server) logEvent(w http.ResponseWriter, r *http.Request) {
	var req eventFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.tracker.LogEvent(r.Context(), req.fields())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	event, err := s.tracker.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, http.StatusOK, toEventJSON(*event))
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	var req eventFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.tracker.UpdateEvent(r.Context(), id, req.fields())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	event, err := s.tracker.GetEvent(r.Context(), id)
	if err != nil || event == nil {
		writeError(w, http.StatusInternalServerError, "event updated but could not be read back")
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(*event))
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	deleted, err := s.tracker.DeleteEvent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// statsResponse is the shape of GET /api/stats/today.
type statsResponse struct {
	TotalCount      int            `json:"total_count"`
	TimeSinceLast   string         `json:"time_since_last"`
	HourlyBreakdown map[string]int `json:"hourly_breakdown"`
	Triggers        map[string]int `json:"triggers"`
}

func (s *Server) todayStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	stats, err := s.tracker.DayStatistics(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, err := s.tracker.EventsForDay(r.Context(), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalCount:      stats.TotalCount,
		TimeSinceLast:   TimeSinceLast(events, now),
		HourlyBreakdown: stats.HourlyBreakdown,
		Triggers:        stats.Triggers,
	})
}

func (s *Server) todayEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.tracker.EventsForDay(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]eventJSON, len(events))
	for i, e := range events {
		out[i] = toEventJSON(e)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": out,
		"count":  len(out),
	})
}

// TimeSinceLast renders a best-effort "{hours}h {minutes}m" since the most
// recent event in the list (which is ordered newest first). An empty list
// yields NoEventsToday; an event whose stored timestamp could not be
// parsed yields TimeSinceErr rather than failing the request.
func TimeSinceLast(events []storage.Event, now time.Time) string {
	if len(events) == 0 {
		return NoEventsToday
	}

	last := events[0].Timestamp
	if last.IsZero() {
		log.Warn("unparseable timestamp on most recent event", "id", events[0].ID)
		return TimeSinceErr
	}

	totalMinutes := int(now.Sub(last).Minutes())
	return fmt.Sprintf("%dh %dm", totalMinutes/60, totalMinutes%60)
}

// eventID parses the {id} path segment, writing a 400 on failure.
func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
