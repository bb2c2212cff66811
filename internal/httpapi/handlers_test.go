// internal/httpapi/handlers_test.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/enhancer"
	"apartment-search/internal/search/filter"
	"apartment-search/internal/search/interpreter"
	"apartment-search/internal/search/pipeline"
	"apartment-search/internal/search/ranking"
	"apartment-search/internal/storage/profiles"
	"apartment-search/internal/storage/searches"
	"apartment-search/internal/storage/tours"
)

// ==========================
// Test Helper Functions
// ==========================

type stubCompletion struct{}

func (stubCompletion) Complete(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "apartment reviews") {
		return `["thin walls"]`, nil
	}
	return `{"location": "Seattle", "price_range": {"min": 1000, "max": 2000}, "bedrooms": 2}`, nil
}

type stubCandidates struct{}

func (stubCandidates) FindCandidates(_ context.Context, _ *filter.SearchFilter) ([]models.Listing, error) {
	return []models.Listing{
		{ID: "l1", Title: "Two bed", Price: 1500, Bedrooms: 2, Bathrooms: 1, City: "Seattle"},
	}, nil
}

type testEnv struct {
	server *Server
	mock   sqlmock.Sqlmock
	mr     *miniredis.Miniredis
}

func setupServer(t *testing.T) *testEnv {
	log := logger.NewTestLogger(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	profileRepo := profiles.NewRepository(db, rdb, time.Minute, log)
	searchRepo := searches.NewRepository(db, log)
	tourRepo := tours.NewRepository(db, log)

	interp := interpreter.NewHandler(&interpreter.Config{Timeout: 5 * time.Second}, stubCompletion{}, log)
	enh := enhancer.NewHandler(&enhancer.Config{Timeout: 5 * time.Second}, stubCompletion{}, log)
	ranker := ranking.NewRanker(log)
	p := pipeline.New(interp, enh, profileRepo, stubCandidates{}, searchRepo, ranker, rdb, 50, time.Minute, log)

	readiness := []ReadinessCheck{{Name: "postgres", Check: func() error { return nil }}}
	srv := NewServer(p, profileRepo, searchRepo, tourRepo, readiness, log)

	return &testEnv{server: srv, mock: mock, mr: mr}
}

func doRequest(t *testing.T, env *testEnv, method, path, userID string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)
	return rec
}

// ==========================
// Middleware Tests
// ==========================

func TestAPI_RequiresUserID(t *testing.T) {
	env := setupServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/search", "", `{"query": "anything"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-User-ID")
}

// ==========================
// Probe Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	env := setupServer(t)

	rec := doRequest(t, env, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_FailingDependency(t *testing.T) {
	env := setupServer(t)
	env.server.readiness = []ReadinessCheck{
		{Name: "postgres", Check: func() error { return errors.New("connection refused") }},
	}

	rec := doRequest(t, env, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "postgres")
}

// ==========================
// Search Tests
// ==========================

func TestSearch_EndToEnd(t *testing.T) {
	env := setupServer(t)

	// profile lookup misses, history insert succeeds
	env.mock.ExpectQuery("SELECT weights, updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}))
	env.mock.ExpectExec("INSERT INTO search_history").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, env, http.MethodPost, "/api/search", "user-1", `{"query": "2 bed in Seattle under 2000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, "Seattle", result.Filter.Location.City)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "l1", result.Results[0].Listing.ID)
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	env := setupServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/search", "user-1", `{"query": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Profile Tests
// ==========================

func TestGetProfile_DefaultsWhenMissing(t *testing.T) {
	env := setupServer(t)

	env.mock.ExpectQuery("SELECT weights, updated_at").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}))

	rec := doRequest(t, env, http.MethodGet, "/api/profile/", "user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.PreferenceProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, models.DefaultWeights(), profile.Weights)
}

func TestPutProfile_InvalidWeights(t *testing.T) {
	env := setupServer(t)

	rec := doRequest(t, env, http.MethodPut, "/api/profile/", "user-1",
		`{"weights": {"price": 15, "location": 7, "safety": 9, "amenities": 5, "noise": 6, "light": 4}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPutProfile_Success(t *testing.T) {
	env := setupServer(t)

	env.mock.ExpectExec("INSERT INTO preference_profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, env, http.MethodPut, "/api/profile/", "user-1",
		`{"weights": {"price": 10, "location": 7, "safety": 9, "amenities": 5, "noise": 6, "light": 4}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// ==========================
// Saved Search / Tour Tests
// ==========================

func TestDeleteSavedSearch_NotFound(t *testing.T) {
	env := setupServer(t)

	env.mock.ExpectExec("DELETE FROM saved_searches").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doRequest(t, env, http.MethodDelete, "/api/saved-searches/missing", "user-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTour(t *testing.T) {
	env := setupServer(t)

	env.mock.ExpectExec("INSERT INTO tours").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, env, http.MethodPost, "/api/tours/", "user-1",
		`{"listingId": "l1", "rating": 4, "notes": "nice light"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tour models.TourRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tour))
	assert.Equal(t, "l1", tour.ListingID)
	assert.False(t, tour.TouredAt.IsZero())
}
