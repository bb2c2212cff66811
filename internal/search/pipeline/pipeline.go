// internal/search/pipeline/pipeline.go
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/enhancer"
	"apartment-search/internal/search/filter"
	"apartment-search/internal/search/interpreter"
	"apartment-search/internal/search/ranking"
)

const (
	stage = "search-pipeline"

	filterCacheKeyPrefix = "search:filter:"
)

// ProfileSource loads a user's preference profile. A nil profile means the
// user never stored one.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.PreferenceProfile, error)
}

// CandidateSource retrieves listings matching a filter.
type CandidateSource interface {
	FindCandidates(ctx context.Context, f *filter.SearchFilter) ([]models.Listing, error)
}

// HistorySink records completed searches. Failures are logged, never
// surfaced.
type HistorySink interface {
	RecordSearch(ctx context.Context, userID, query string, f filter.SearchFilter, resultCount int) (*models.SearchRecord, error)
}

// Result is the outcome of one free-text search.
type Result struct {
	RequestID  string                 `json:"requestId"`
	Query      string                 `json:"query"`
	Filter     *filter.SearchFilter   `json:"filter"`
	Results    []ranking.ScoredListing `json:"results"`
	DurationMs int64                  `json:"durationMs"`
}

// Pipeline wires interpretation, enhancement, candidate retrieval, and
// ranking into the single entry point callers use.
type Pipeline struct {
	interpreter    *interpreter.Handler
	enhancer       *enhancer.Handler
	profiles       ProfileSource
	listings       CandidateSource
	history        HistorySink
	ranker         *ranking.Ranker
	redis          *redis.Client
	maxResults     int
	filterCacheTTL time.Duration
	logger         logger.Logger
}

func New(
	interp *interpreter.Handler,
	enh *enhancer.Handler,
	profiles ProfileSource,
	listings CandidateSource,
	history HistorySink,
	ranker *ranking.Ranker,
	rdb *redis.Client,
	maxResults int,
	filterCacheTTL time.Duration,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		interpreter:    interp,
		enhancer:       enh,
		profiles:       profiles,
		listings:       listings,
		history:        history,
		ranker:         ranker,
		redis:          rdb,
		maxResults:     maxResults,
		filterCacheTTL: filterCacheTTL,
		logger:         log.WithFields(map[string]interface{}{"stage": stage}),
	}
}

// InterpretAndRank converts free text to a structured filter, enhances it
// with review keywords, and ranks the matching listings under the user's
// preference weights. Interpretation errors abort the search; a missing
// profile falls back to default weights.
func (p *Pipeline) InterpretAndRank(ctx context.Context, freeText, userID string) (*Result, error) {
	start := time.Now()
	requestID := uuid.New().String()

	log := p.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"userId":    userID,
	})

	f, cached, err := p.interpret(ctx, freeText)
	if err != nil {
		return nil, err
	}

	if !cached {
		if err := p.enhancer.Enhance(ctx, f); err != nil {
			return nil, err
		}
		p.cacheFilter(ctx, freeText, f)
	}

	weights := models.DefaultWeights()
	profile, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		weights = profile.Weights
	}

	candidates, err := p.listings.FindCandidates(ctx, f)
	if err != nil {
		return nil, err
	}

	ranked := p.ranker.Rank(candidates, f, weights)
	// The engine scores every candidate; the page cap is applied here.
	if p.maxResults > 0 && len(ranked) > p.maxResults {
		ranked = ranked[:p.maxResults]
	}

	if p.history != nil {
		if _, err := p.history.RecordSearch(ctx, userID, freeText, *f, len(ranked)); err != nil {
			log.Warn("history record failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	result := &Result{
		RequestID:  requestID,
		Query:      freeText,
		Filter:     f,
		Results:    ranked,
		DurationMs: time.Since(start).Milliseconds(),
	}

	log.Info("search complete", map[string]interface{}{
		"filterCached": cached,
		"candidates":   len(candidates),
		"results":      len(ranked),
		"durationMs":   result.DurationMs,
	})
	return result, nil
}

// interpret resolves the free text to a filter, consulting the cache first.
// Cached filters already carry their review keywords, so enhancement is
// skipped for them.
func (p *Pipeline) interpret(ctx context.Context, freeText string) (*filter.SearchFilter, bool, error) {
	key := filterCacheKey(freeText)

	if p.redis != nil {
		if data, err := p.redis.Get(ctx, key).Bytes(); err == nil {
			var f filter.SearchFilter
			if err := json.Unmarshal(data, &f); err == nil {
				return &f, true, nil
			}
			p.redis.Del(ctx, key)
		}
	}

	f, err := p.interpreter.Interpret(ctx, freeText)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

func (p *Pipeline) cacheFilter(ctx context.Context, freeText string, f *filter.SearchFilter) {
	if p.redis == nil || p.filterCacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, filterCacheKey(freeText), data, p.filterCacheTTL).Err(); err != nil {
		p.logger.Warn("filter cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func filterCacheKey(freeText string) string {
	sum := sha256.Sum256([]byte(freeText))
	return filterCacheKeyPrefix + hex.EncodeToString(sum[:])
}
