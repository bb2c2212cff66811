// internal/storage/tours/repository_test.go
package tours

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
)

func setupRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, logger.NewTestLogger(t)), mock
}

func TestCreate(t *testing.T) {
	repo, mock := setupRepository(t)

	touredAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO tours").
		WithArgs(sqlmock.AnyArg(), "user-1", "listing-9", touredAt, 4, "liked the light", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, err := repo.Create(context.Background(), "user-1", "listing-9", touredAt, 4, "liked the light")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "listing-9", rec.ListingID)
	assert.Equal(t, 4, rec.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := setupRepository(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, listing_id, toured_at, rating, notes, created_at").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "listing_id", "toured_at", "rating", "notes", "created_at"}).
			AddRow("t1", "user-1", "l1", now, 5, "great", now).
			AddRow("t2", "user-1", "l2", now.Add(-time.Hour), 2, "noisy street", now))

	records, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "l1", records[0].ListingID)
	assert.Equal(t, "noisy street", records[1].Notes)
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectExec("DELETE FROM tours").
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-1", "missing")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeResourceNotFound, code)
}
