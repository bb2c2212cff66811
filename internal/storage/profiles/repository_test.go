// internal/storage/profiles/repository_test.go
package profiles

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRepository(t *testing.T) (*Repository, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := NewRepository(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	return repo, mock, mr
}

func testWeights() models.PreferenceWeights {
	return models.PreferenceWeights{Price: 8, Location: 7, Safety: 9, Amenities: 5, Noise: 6, Light: 4}
}

// ==========================
// Get Tests
// ==========================

func TestGet_FromDatabaseAndPopulatesCache(t *testing.T) {
	repo, mock, mr := setupRepository(t)

	weightsJSON, _ := json.Marshal(testWeights())
	updatedAt := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery("SELECT weights, updated_at").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}).
			AddRow(weightsJSON, updatedAt))

	profile, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, testWeights(), profile.Weights)
	assert.NoError(t, mock.ExpectationsWereMet())

	// cache now holds the profile
	assert.True(t, mr.Exists("user:profile:user-1"))
}

func TestGet_CacheHitSkipsDatabase(t *testing.T) {
	repo, mock, mr := setupRepository(t)

	cached, _ := json.Marshal(models.PreferenceProfile{
		UserID:  "user-2",
		Weights: testWeights(),
	})
	require.NoError(t, mr.Set("user:profile:user-2", string(cached)))

	profile, err := repo.Get(context.Background(), "user-2")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, testWeights(), profile.Weights)
	// no query was expected and none should have run
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_MissingProfileReturnsNil(t *testing.T) {
	repo, mock, _ := setupRepository(t)

	mock.ExpectQuery("SELECT weights, updated_at").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}))

	profile, err := repo.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGet_UnreadableWeightsTreatedAsAbsent(t *testing.T) {
	repo, mock, _ := setupRepository(t)

	mock.ExpectQuery("SELECT weights, updated_at").
		WithArgs("user-3").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}).
			AddRow([]byte("{corrupt"), time.Now()))

	profile, err := repo.Get(context.Background(), "user-3")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGet_CacheWriteUsesConfiguredTTL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	repo := NewRepository(db, rdb, 5*time.Minute, logger.NewTestLogger(t))

	weights := testWeights()
	weightsJSON, _ := json.Marshal(weights)
	updatedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cached, _ := json.Marshal(models.PreferenceProfile{UserID: "user-6", Weights: weights, UpdatedAt: updatedAt})

	redisMock.ExpectGet("user:profile:user-6").RedisNil()
	redisMock.ExpectSet("user:profile:user-6", cached, 5*time.Minute).SetVal("OK")

	mock.ExpectQuery("SELECT weights, updated_at").
		WithArgs("user-6").
		WillReturnRows(sqlmock.NewRows([]string{"weights", "updated_at"}).
			AddRow(weightsJSON, updatedAt))

	_, err = repo.Get(context.Background(), "user-6")
	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Put Tests
// ==========================

func TestPut_UpsertsAndInvalidatesCache(t *testing.T) {
	repo, mock, mr := setupRepository(t)

	require.NoError(t, mr.Set("user:profile:user-4", "stale"))

	mock.ExpectExec("INSERT INTO preference_profiles").
		WithArgs("user-4", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	profile := &models.PreferenceProfile{UserID: "user-4", Weights: testWeights()}
	require.NoError(t, repo.Put(context.Background(), profile))

	assert.False(t, profile.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.False(t, mr.Exists("user:profile:user-4"), "stale cache entry must be dropped")
}

func TestPut_RejectsOutOfRangeWeights(t *testing.T) {
	repo, mock, _ := setupRepository(t)

	weights := testWeights()
	weights.Safety = 11

	err := repo.Put(context.Background(), &models.PreferenceProfile{UserID: "user-5", Weights: weights})
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeProfileValidationFailed, code)
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert on validation failure")
}

// ==========================
// Weight Schema Tests
// ==========================

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *models.PreferenceWeights)
		wantErr bool
	}{
		{"all defaults valid", func(w *models.PreferenceWeights) {}, false},
		{"zero weights valid", func(w *models.PreferenceWeights) { *w = models.PreferenceWeights{} }, false},
		{"max weights valid", func(w *models.PreferenceWeights) {
			*w = models.PreferenceWeights{Price: 10, Location: 10, Safety: 10, Amenities: 10, Noise: 10, Light: 10}
		}, false},
		{"above ten rejected", func(w *models.PreferenceWeights) { w.Noise = 12 }, true},
		{"negative rejected", func(w *models.PreferenceWeights) { w.Light = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testWeights()
			tt.mutate(&w)
			err := ValidateWeights(w)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
