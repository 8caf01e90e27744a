package http

import (
	"net/http"

	"timetracker/internal/core"
	"timetracker/internal/log"
)

// rangeFromQuery reads ?period= or ?start=&end= (YYYY-MM-DD).
func (s *Server) rangeFromQuery(r *http.Request) (core.DateRange, error) {
	q := r.URL.Query()
	return s.tracker.ResolveRange(q.Get("period"), q.Get("start"), q.Get("end"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFromQuery(r)
	if err != nil {
		respondError(w, r, err, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Stats(r.Context(), rng))
}

func (s *Server) handleProjectProgress(w http.ResponseWriter, r *http.Request) {
	line, err := s.tracker.Progress(r.PathValue("id"))
	if err != nil {
		respondError(w, r, err, "Failed to compute progress")
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFromQuery(r)
	if err != nil {
		respondError(w, r, err, "Failed to render chart")
		return
	}
	report := s.tracker.Stats(r.Context(), rng)
	s.writeChart(w, r, "daily", func() ([]byte, error) {
		return s.charts.Daily(report.Daily, report.Range)
	})
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFromQuery(r)
	if err != nil {
		respondError(w, r, err, "Failed to render chart")
		return
	}
	report := s.tracker.Stats(r.Context(), rng)
	s.writeChart(w, r, "categories", func() ([]byte, error) {
		return s.charts.Categories(report.Stats.Categories)
	})
}

// handleProgressChart ignores the range: progress is always all-time.
func (s *Server) handleProgressChart(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	s.writeChart(w, r, "progress", func() ([]byte, error) {
		return s.charts.Progress(core.ProgressByProject(snap.Projects, snap.TimeEntries))
	})
}

// writeChart answers 204 when there is nothing to draw.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, name string, render func() ([]byte, error)) {
	png, err := render()
	if err != nil {
		respondError(w, r, err, "Failed to render chart")
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentCharts).DebugContext(r.Context(), "Chart rendered",
		log.FieldOperation, log.OpChart,
		"chart", name,
		"bytes", len(png))
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
