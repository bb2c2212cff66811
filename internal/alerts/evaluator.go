// internal/alerts/evaluator.go
package alerts

import (
	"context"
	"time"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
	"apartment-search/internal/search/ranking"
)

// SearchSource lists the saved searches that have alerting enabled.
type SearchSource interface {
	ListAlertable(ctx context.Context) ([]models.SavedSearch, error)
}

// ProfileSource loads a user's preference profile. A nil profile means the
// user never stored one.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.PreferenceProfile, error)
}

// CandidateSource retrieves listings matching a filter.
type CandidateSource interface {
	FindCandidates(ctx context.Context, f *filter.SearchFilter) ([]models.Listing, error)
}

// Evaluator re-runs alert-enabled saved searches and delivers a notification
// for every listing that clears the alert threshold.
type Evaluator struct {
	config   *Config
	searches SearchSource
	profiles ProfileSource
	listings CandidateSource
	ranker   *ranking.Ranker
	notifier *Notifier
	logger   logger.Logger
}

func NewEvaluator(config *Config, searches SearchSource, profiles ProfileSource, listings CandidateSource, ranker *ranking.Ranker, notifier *Notifier, log logger.Logger) *Evaluator {
	return &Evaluator{
		config:   config,
		searches: searches,
		profiles: profiles,
		listings: listings,
		ranker:   ranker,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "alert-evaluator"}),
	}
}

// Run evaluates every alertable saved search once. Per-search failures are
// logged and skipped so one broken search cannot starve the rest.
func (e *Evaluator) Run(ctx context.Context) error {
	start := time.Now()

	saved, err := e.searches.ListAlertable(ctx)
	if err != nil {
		return err
	}

	sent := 0
	for i := range saved {
		s := &saved[i]
		n, err := e.evaluateOne(ctx, s)
		if err != nil {
			e.logger.Warn("saved search evaluation failed", map[string]interface{}{
				"searchId": s.ID,
				"userId":   s.UserID,
				"error":    err.Error(),
			})
			continue
		}
		sent += n
	}

	e.logger.Info("alert run complete", map[string]interface{}{
		"searches":   len(saved),
		"alertsSent": sent,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, s *models.SavedSearch) (int, error) {
	weights := models.DefaultWeights()
	profile, err := e.profiles.Get(ctx, s.UserID)
	if err != nil {
		return 0, err
	}
	if profile != nil {
		weights = profile.Weights
	}

	candidates, err := e.listings.FindCandidates(ctx, &s.Filter)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, scored := range e.ranker.Rank(candidates, &s.Filter, weights) {
		if scored.Score < e.config.MinScore {
			break // ranked descending, nothing below clears the bar
		}
		out, err := e.notifier.Notify(ctx, &Input{
			UserID:     s.UserID,
			SearchName: s.Name,
			Match:      Match{Listing: scored.Listing, Score: scored.Score},
		})
		if err != nil {
			return sent, err
		}
		if out.Status == StatusSent {
			sent++
		}
	}
	return sent, nil
}
