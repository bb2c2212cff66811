// Package enhancer enriches a structured filter with review keywords so the
// ranking stage can match subjective requirements against review text.
package enhancer

import (
	"context"
	"encoding/json"
	"fmt"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/search/filter"
)

const stage = "review-enhancer"

// CompletionClient is the subset of the llama client the enhancer needs.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Handler struct {
	config *Config
	client CompletionClient
	logger logger.Logger
}

func NewHandler(config *Config, client CompletionClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.WithFields(map[string]interface{}{"stage": stage}),
	}
}

// Enhance asks the model which words to look for in apartment reviews when
// the filter carries subjective requirements, and records them in the
// filter's review-keyword list. A transport failure is returned to the
// caller; extraction and decode failures are swallowed and leave the filter
// unchanged. Filters with no noise preference and no other requirements are
// returned as-is without a model call.
func (h *Handler) Enhance(ctx context.Context, f *filter.SearchFilter) error {
	if f.NoisePreference == "" && len(f.OtherRequirements) == 0 {
		return nil
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	prompt := buildKeywordPrompt(f)

	completion, err := h.client.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	raw := filter.ExtractArray(completion)
	if raw == "" {
		h.logger.Warn("no JSON array in keyword reply, skipping enhancement", map[string]interface{}{
			"completionLength": len(completion),
		})
		return nil
	}

	var keywords []string
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		h.logger.Warn("keyword array failed to decode, skipping enhancement", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	before := len(f.ReviewKeywords)
	f.AddReviewKeywords(keywords)

	h.logger.Info("filter enhanced with review keywords", map[string]interface{}{
		"keywords": len(keywords),
		"added":    len(f.ReviewKeywords) - before,
	})

	return nil
}

func buildKeywordPrompt(f *filter.SearchFilter) string {
	return fmt.Sprintf(`Based on these apartment requirements:
%s

What specific words or phrases should I look for in apartment reviews to find matches?
Return as a JSON array of keywords or phrases with no additional text.`, f.Summary())
}
