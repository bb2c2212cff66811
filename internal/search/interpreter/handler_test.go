// internal/search/interpreter/handler_test.go
package interpreter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/search/filter"
)

// ==========================
// Mock Implementations
// ==========================

type mockCompletionClient struct {
	completion string
	err        error
	gotPrompt  string
}

func (m *mockCompletionClient) Complete(_ context.Context, prompt string) (string, error) {
	m.gotPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.completion, nil
}

func createTestHandler(t *testing.T, client CompletionClient) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, client, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestInterpret_Success(t *testing.T) {
	client := &mockCompletionClient{
		completion: `Here are your parameters:
{"location": {"city": "Seattle", "neighborhood": "Ballard"}, "price_range": {"min": 1200, "max": 2200}, "bedrooms": 2, "noise_preference": "quiet"}
Good luck with the search!`,
	}
	h := createTestHandler(t, client)

	f, err := h.Interpret(context.Background(), "2 bedroom in Ballard under 2200, somewhere quiet")
	require.NoError(t, err)

	assert.Equal(t, "Seattle", f.Location.City)
	assert.Equal(t, "Ballard", f.Location.Neighborhood)
	assert.Equal(t, 1200.0, f.PriceRange.Min)
	assert.Equal(t, 2200.0, f.PriceRange.Max)
	assert.Equal(t, 2, f.Bedrooms)
	assert.Equal(t, "quiet", f.NoisePreference)

	// unspecified fields carry defaults
	assert.Equal(t, 1.0, f.Bathrooms)
	assert.Equal(t, float64(filter.DefaultSizeMax), f.SizeRange.Max)
}

func TestInterpret_PromptCarriesQuery(t *testing.T) {
	client := &mockCompletionClient{completion: `{}`}
	h := createTestHandler(t, client)

	_, err := h.Interpret(context.Background(), "cheap studio near downtown")
	require.NoError(t, err)

	assert.Contains(t, client.gotPrompt, `"cheap studio near downtown"`)
	assert.Contains(t, client.gotPrompt, "valid JSON only")
}

// ==========================
// Error Taxonomy Tests
// ==========================

func TestInterpret_NoJSONIsInvalidResponse(t *testing.T) {
	client := &mockCompletionClient{
		completion: "I could not determine any search parameters from that.",
	}
	h := createTestHandler(t, client)

	_, err := h.Interpret(context.Background(), "asdfgh")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeInvalidResponse, code)
}

func TestInterpret_MalformedJSONIsParsingError(t *testing.T) {
	// Balanced braces but not valid JSON
	client := &mockCompletionClient{
		completion: `{location: Seattle, bedrooms: two}`,
	}
	h := createTestHandler(t, client)

	_, err := h.Interpret(context.Background(), "place in Seattle")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeParsingError, code)
}

func TestInterpret_TransportErrorPassesThrough(t *testing.T) {
	apiErr := stderrors.NewAPIError(errors.New("connection refused"))
	client := &mockCompletionClient{err: apiErr}
	h := createTestHandler(t, client)

	_, err := h.Interpret(context.Background(), "anything")
	require.Error(t, err)

	code, ok := stderrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeAPIError, code)
}
