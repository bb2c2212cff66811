// Package interpreter turns free-text apartment queries into structured
// search filters by prompting a language-model completion endpoint.
package interpreter

import (
	"context"
	"fmt"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/search/filter"
)

const stage = "query-interpreter"

// CompletionClient is the subset of the llama client the interpreter needs.
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

// Interpret extracts a fully populated SearchFilter from freeText. The
// returned error is one of the interpretation taxonomy: API_ERROR when the
// completion call fails, INVALID_RESPONSE when the reply holds no JSON
// object, PARSING_ERROR when the object's fields do not decode.
func (h *Handler) Interpret(ctx context.Context, freeText string) (*filter.SearchFilter, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	prompt := buildExtractionPrompt(freeText)

	completion, err := h.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw := filter.ExtractObject(completion)
	if raw == "" {
		h.logger.Warn("no JSON object in model reply", map[string]interface{}{
			"completionLength": len(completion),
		})
		return nil, stderrors.NewInvalidResponseError(truncate(completion, 200))
	}

	parsed, err := filter.Decode([]byte(raw))
	if err != nil {
		h.logger.Warn("extracted JSON failed to decode", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, stderrors.NewParsingError(err.Error())
	}

	h.logger.Info("query interpreted", map[string]interface{}{
		"location":   parsed.Location.String(),
		"priceMin":   parsed.PriceRange.Min,
		"priceMax":   parsed.PriceRange.Max,
		"bedrooms":   parsed.Bedrooms,
		"amenities":  len(parsed.Amenities),
		"petPolicy":  parsed.PetPolicy,
		"noisePref":  parsed.NoisePreference,
	})

	return parsed, nil
}

func buildExtractionPrompt(query string) string {
	return fmt.Sprintf(`Extract apartment search parameters from the following request:
%q

Return a JSON object with the following fields (if mentioned):
- location (object with city and neighborhood)
- price_range (min, max)
- bedrooms (number)
- bathrooms (number)
- size_range (min, max in sq ft)
- apartment_type (high-rise, garden, etc.)
- orientation (north, south, east, west)
- floor_preference (low, middle, high, any)
- pet_policy (allowed, not allowed, cat only, dog only)
- noise_preference (quiet, any)
- amenities (array of requested amenities)
- other_requirements (array of other specific requirements)

Format your response as valid JSON only, with no additional text.`, query)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
