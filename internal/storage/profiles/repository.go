// Package profiles stores per-user ranking preference profiles in Postgres
// with a Redis cache in front.
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
)

const cacheKeyPrefix = "user:profile:"

type Repository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewRepository(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Repository {
	return &Repository{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "profile-repository"}),
	}
}

// Get returns the user's preference profile, or nil when none is stored.
// Cache misses fall through to Postgres and repopulate the cache.
func (r *Repository) Get(ctx context.Context, userID string) (*models.PreferenceProfile, error) {
	cacheKey := cacheKeyPrefix + userID
	if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.PreferenceProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT weights, updated_at
		FROM preference_profiles WHERE user_id = $1`, userID)

	profile := models.PreferenceProfile{UserID: userID}
	var weightsRaw []byte
	err := row.Scan(&weightsRaw, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, stderrors.NewQueryExecutionFailedError("get-profile", err)
	}

	if err := json.Unmarshal(weightsRaw, &profile.Weights); err != nil {
		// A row we cannot decode counts as no profile
		r.logger.Warn("stored profile weights unreadable, treating as absent", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, nil
	}

	data, _ := json.Marshal(profile)
	r.redis.Set(ctx, cacheKey, data, r.cacheTTL)

	return &profile, nil
}

// Put validates and upserts the user's profile, then invalidates the cache.
func (r *Repository) Put(ctx context.Context, profile *models.PreferenceProfile) error {
	if err := ValidateWeights(profile.Weights); err != nil {
		return err
	}

	weightsRaw, err := json.Marshal(profile.Weights)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("put-profile", err)
	}

	profile.UpdatedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO preference_profiles (user_id, weights, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET weights = $2, updated_at = $3`,
		profile.UserID, weightsRaw, profile.UpdatedAt)
	if err != nil {
		return stderrors.NewDatabaseInsertFailedError(err)
	}

	r.redis.Del(ctx, cacheKeyPrefix+profile.UserID)

	r.logger.Info("profile stored", map[string]interface{}{
		"userId": profile.UserID,
	})

	return nil
}
