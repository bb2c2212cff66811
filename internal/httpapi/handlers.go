// internal/httpapi/handlers.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/metrics"
	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
)

type contextKey string

const userIDKey contextKey = "userID"

const userIDHeader = "X-User-ID"

func (s *Server) requireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "missing " + userIDHeader + " header",
			})
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// --- Search ---

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	result, err := s.pipeline.InterpretAndRank(r.Context(), req.Query, userID(r))
	if err != nil {
		code := "UNKNOWN"
		if c, ok := errors.CodeOf(err); ok {
			code = string(c)
		}
		metrics.SearchesFailed.WithLabelValues("pipeline", code).Inc()
		s.errHandler.WriteError(w, r, err)
		return
	}
	metrics.SearchesCompleted.WithLabelValues("pipeline").Inc()
	metrics.SearchStageDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	records, err := s.searches.History(r.Context(), userID(r), limit)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
}

// --- Saved searches ---

type saveSearchRequest struct {
	Name          string              `json:"name"`
	Filter        filter.SearchFilter `json:"filter"`
	AlertsEnabled bool                `json:"alertsEnabled"`
}

func (s *Server) handleSaveSearch(w http.ResponseWriter, r *http.Request) {
	var req saveSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	saved, err := s.searches.SaveSearch(r.Context(), userID(r), req.Name, req.Filter, req.AlertsEnabled)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSavedSearches(w http.ResponseWriter, r *http.Request) {
	saved, err := s.searches.ListSavedSearches(r.Context(), userID(r))
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"savedSearches": saved})
}

func (s *Server) handleDeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.searches.DeleteSavedSearch(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tours ---

type createTourRequest struct {
	ListingID string    `json:"listingId"`
	TouredAt  time.Time `json:"touredAt"`
	Rating    int       `json:"rating"`
	Notes     string    `json:"notes"`
}

func (s *Server) handleCreateTour(w http.ResponseWriter, r *http.Request) {
	var req createTourRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ListingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "listingId is required"})
		return
	}
	if req.TouredAt.IsZero() {
		req.TouredAt = time.Now().UTC()
	}

	rec, err := s.tours.Create(r.Context(), userID(r), req.ListingID, req.TouredAt, req.Rating, req.Notes)
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListTours(w http.ResponseWriter, r *http.Request) {
	records, err := s.tours.List(r.Context(), userID(r))
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tours": records})
}

func (s *Server) handleDeleteTour(w http.ResponseWriter, r *http.Request) {
	if err := s.tours.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Preference profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.Get(r.Context(), userID(r))
	if err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	if profile == nil {
		profile = &models.PreferenceProfile{
			UserID:  userID(r),
			Weights: models.DefaultWeights(),
		}
	}
	writeJSON(w, http.StatusOK, profile)
}

type putProfileRequest struct {
	Weights models.PreferenceWeights `json:"weights"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req putProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile := &models.PreferenceProfile{
		UserID:  userID(r),
		Weights: req.Weights,
	}
	if err := s.profiles.Put(r.Context(), profile); err != nil {
		s.errHandler.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// --- Probes ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for _, check := range s.readiness {
		if err := check.Check(); err != nil {
			failures[check.Name] = err.Error()
		}
	}
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unavailable",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
