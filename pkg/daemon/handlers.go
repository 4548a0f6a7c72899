package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"

	"github.com/lumenapp/lumen/pkg/api"
	"github.com/lumenapp/lumen/pkg/daemon/query"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, api.Error{Error: msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, api.Status{
		State:         s.svc.State().String(),
		Entries:       s.svc.Entries(),
		BuiltAt:       s.svc.BuiltAt(),
		UptimeSeconds: int64(s.svc.Uptime().Seconds()),
		MemoryBytes:   int64(mem.Alloc), //nolint:gosec // alloc fits in int64
	})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	metricQueries.WithLabelValues("years").Inc()
	years := s.svc.Queries().Years(r.Context())
	writeJSON(w, http.StatusOK, api.YearsResponse{Years: years})
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	metricQueries.WithLabelValues("places").Inc()
	names := s.svc.Queries().Places(r.Context())
	writeJSON(w, http.StatusOK, api.GroupsResponse{Names: names})
}

func (s *Server) handlePeople(w http.ResponseWriter, r *http.Request) {
	metricQueries.WithLabelValues("people").Inc()
	names := s.svc.Queries().People(r.Context())
	writeJSON(w, http.StatusOK, api.GroupsResponse{Names: names})
}

// handleTop serves ranked queries. Exactly one of year, place, and
// person selects the dimension.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	yearRaw, place, person := q.Get("year"), q.Get("place"), q.Get("person")
	selectors := 0
	for _, v := range []string{yearRaw, place, person} {
		if v != "" {
			selectors++
		}
	}
	if selectors != 1 {
		writeError(w, http.StatusBadRequest, "exactly one of year, place, person is required")
		return
	}

	var items []query.Item
	switch {
	case yearRaw != "":
		year, err := strconv.Atoi(yearRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		metricQueries.WithLabelValues("top_year").Inc()
		items = s.svc.Queries().TopForYear(r.Context(), year, limit)
	case place != "":
		metricQueries.WithLabelValues("top_place").Inc()
		items = s.svc.Queries().TopForPlace(r.Context(), place, limit)
	default:
		metricQueries.WithLabelValues("top_person").Inc()
		items = s.svc.Queries().TopForPerson(r.Context(), person, limit)
	}

	out := make([]api.Item, 0, len(items))
	for _, it := range items {
		out = append(out, api.Item{ID: it.ID, Score: it.Score, Asset: it.Asset})
	}
	writeJSON(w, http.StatusOK, api.TopResponse{Items: out})
}

func (s *Server) handleRebuild(w http.ResponseWriter, _ *http.Request) {
	// Builds outlive the request, so the request context is not used.
	if s.svc.TriggerRebuild(context.Background()) {
		writeJSON(w, http.StatusAccepted, api.RebuildResponse{Started: true, Message: "rebuild started"})
		return
	}
	writeJSON(w, http.StatusOK, api.RebuildResponse{Started: false, Message: "already building"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.ShutdownResponse{Success: true})
	if s.shutdown != nil {
		go s.shutdown()
	}
}
