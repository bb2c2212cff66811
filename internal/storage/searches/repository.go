package searches

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
)

// Repository persists saved searches and the per-user search history.
// Filters are stored as JSONB so schema changes in the filter shape do not
// require migrations.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "search-repository"}),
	}
}

// SaveSearch stores a named search for later re-runs and alerting.
func (r *Repository) SaveSearch(ctx context.Context, userID, name string, f filter.SearchFilter, alertsEnabled bool) (*models.SavedSearch, error) {
	saved := &models.SavedSearch{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          name,
		Filter:        f,
		AlertsEnabled: alertsEnabled,
		CreatedAt:     time.Now().UTC(),
	}

	filterJSON, err := json.Marshal(f)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO saved_searches (id, user_id, name, filter, alerts_enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		saved.ID, saved.UserID, saved.Name, filterJSON, saved.AlertsEnabled, saved.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("search saved", map[string]interface{}{
		"searchId": saved.ID,
		"userId":   userID,
	})
	return saved, nil
}

// ListSavedSearches returns the user's saved searches, newest first.
func (r *Repository) ListSavedSearches(ctx context.Context, userID string) ([]models.SavedSearch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, filter, alerts_enabled, created_at
		 FROM saved_searches WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list saved searches", err)
	}
	defer rows.Close()

	var results []models.SavedSearch
	for rows.Next() {
		var s models.SavedSearch
		var filterJSON []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &filterJSON, &s.AlertsEnabled, &s.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan saved search", err)
		}
		if err := json.Unmarshal(filterJSON, &s.Filter); err != nil {
			r.logger.Warn("unreadable stored filter, using defaults", map[string]interface{}{
				"searchId": s.ID,
				"error":    err.Error(),
			})
			s.Filter = filter.Default()
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list saved searches", err)
	}
	return results, nil
}

// ListAlertable returns every saved search with alerting enabled, across all
// users. Used by the alert evaluator.
func (r *Repository) ListAlertable(ctx context.Context) ([]models.SavedSearch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, filter, alerts_enabled, created_at
		 FROM saved_searches WHERE alerts_enabled = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list alertable searches", err)
	}
	defer rows.Close()

	var results []models.SavedSearch
	for rows.Next() {
		var s models.SavedSearch
		var filterJSON []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &filterJSON, &s.AlertsEnabled, &s.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan saved search", err)
		}
		if err := json.Unmarshal(filterJSON, &s.Filter); err != nil {
			continue
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list alertable searches", err)
	}
	return results, nil
}

// DeleteSavedSearch removes a saved search owned by the user.
func (r *Repository) DeleteSavedSearch(ctx context.Context, userID, searchID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`,
		searchID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete saved search", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewResourceNotFoundError("saved search", searchID)
	}
	return nil
}

// RecordSearch appends one entry to the user's search history. Failures here
// are the caller's to ignore; history is best effort.
func (r *Repository) RecordSearch(ctx context.Context, userID, query string, f filter.SearchFilter, resultCount int) (*models.SearchRecord, error) {
	rec := &models.SearchRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		Query:       query,
		Filter:      f,
		ResultCount: resultCount,
		CreatedAt:   time.Now().UTC(),
	}

	filterJSON, err := json.Marshal(f)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO search_history (id, user_id, query, filter, result_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.Query, filterJSON, rec.ResultCount, rec.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	return rec, nil
}

// History returns the user's most recent searches.
func (r *Repository) History(ctx context.Context, userID string, limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, query, filter, result_count, created_at
		 FROM search_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("search history", err)
	}
	defer rows.Close()

	var results []models.SearchRecord
	for rows.Next() {
		var rec models.SearchRecord
		var filterJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Query, &filterJSON, &rec.ResultCount, &rec.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan search record", err)
		}
		if err := json.Unmarshal(filterJSON, &rec.Filter); err != nil {
			rec.Filter = filter.Default()
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("search history", err)
	}
	return results, nil
}
