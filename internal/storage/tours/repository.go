package tours

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
)

// Repository persists apartment tour records.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "tour-repository"}),
	}
}

// Create records a completed or scheduled tour.
func (r *Repository) Create(ctx context.Context, userID, listingID string, touredAt time.Time, rating int, notes string) (*models.TourRecord, error) {
	rec := &models.TourRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		ListingID: listingID,
		TouredAt:  touredAt.UTC(),
		Rating:    rating,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tours (id, user_id, listing_id, toured_at, rating, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.ListingID, rec.TouredAt, rec.Rating, rec.Notes, rec.CreatedAt)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	r.logger.Info("tour recorded", map[string]interface{}{
		"tourId":    rec.ID,
		"userId":    userID,
		"listingId": listingID,
	})
	return rec, nil
}

// List returns the user's tours, most recent first.
func (r *Repository) List(ctx context.Context, userID string) ([]models.TourRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, listing_id, toured_at, rating, notes, created_at
		 FROM tours WHERE user_id = $1 ORDER BY toured_at DESC`,
		userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list tours", err)
	}
	defer rows.Close()

	var results []models.TourRecord
	for rows.Next() {
		var rec models.TourRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ListingID, &rec.TouredAt, &rec.Rating, &rec.Notes, &rec.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan tour", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list tours", err)
	}
	return results, nil
}

// Delete removes a tour record owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, tourID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tours WHERE id = $1 AND user_id = $2`,
		tourID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete tour", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewResourceNotFoundError("tour", tourID)
	}
	return nil
}
