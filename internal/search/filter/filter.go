// Package filter defines the structured search filter produced by query
// interpretation and the tolerant decoding that fills it from model output.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range default bounds. A filter handed to ranking is always fully
// populated; absent or unusable fields fall back to these.
const (
	DefaultPriceMin  = 0
	DefaultPriceMax  = 10000
	DefaultBedrooms  = 1
	DefaultBathrooms = 1.0
	DefaultSizeMin   = 0
	DefaultSizeMax   = 5000
)

var ErrNotAnObject = errors.New("filter payload is not a JSON object")

// Location names the wanted area. City may be empty when the query never
// mentions a place; Neighborhood is optional even when City is set.
type Location struct {
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
}

// String renders the location as "Neighborhood, City" with empty parts
// omitted.
func (l Location) String() string {
	switch {
	case l.Neighborhood != "" && l.City != "":
		return l.Neighborhood + ", " + l.City
	case l.Neighborhood != "":
		return l.Neighborhood
	default:
		return l.City
	}
}

// PriceRange bounds monthly rent in dollars.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SizeRange bounds apartment size in square feet.
type SizeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchFilter is the structured form of a free-text apartment search.
// ReviewKeywords is written by the enhancement stage only; interpretation
// always leaves it empty.
type SearchFilter struct {
	Location          Location   `json:"location"`
	PriceRange        PriceRange `json:"price_range"`
	Bedrooms          int        `json:"bedrooms"`
	Bathrooms         float64    `json:"bathrooms"`
	SizeRange         SizeRange  `json:"size_range"`
	Amenities         []string   `json:"amenities"`
	ApartmentType     string     `json:"apartment_type"`
	Orientation       string     `json:"orientation"`
	FloorPreference   string     `json:"floor_preference"`
	PetPolicy         string     `json:"pet_policy"`
	NoisePreference   string     `json:"noise_preference"`
	OtherRequirements []string   `json:"other_requirements"`
	ReviewKeywords    []string   `json:"review_keywords"`
}

// Default returns a filter with every field at its default value.
func Default() SearchFilter {
	return SearchFilter{
		Location:          Location{},
		PriceRange:        PriceRange{Min: DefaultPriceMin, Max: DefaultPriceMax},
		Bedrooms:          DefaultBedrooms,
		Bathrooms:         DefaultBathrooms,
		SizeRange:         SizeRange{Min: DefaultSizeMin, Max: DefaultSizeMax},
		Amenities:         []string{},
		ApartmentType:     "",
		Orientation:       "",
		FloorPreference:   "",
		PetPolicy:         "",
		NoisePreference:   "",
		OtherRequirements: []string{},
		ReviewKeywords:    []string{},
	}
}

// Decode builds a SearchFilter from raw JSON. Decoding is tolerant at the
// field level: a missing, null or mistyped field keeps its default instead
// of failing the whole filter. Only a payload that is not a JSON object at
// all is an error. A review_keywords field in the payload is ignored; the
// enhancement stage is the sole writer of that list.
func Decode(raw []byte) (*SearchFilter, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}

	parsed := Default()

	if v, ok := fields["location"]; ok {
		switch loc := v.(type) {
		case map[string]interface{}:
			if s, ok := loc["city"].(string); ok {
				parsed.Location.City = strings.TrimSpace(s)
			}
			if s, ok := loc["neighborhood"].(string); ok {
				parsed.Location.Neighborhood = strings.TrimSpace(s)
			}
		case string:
			// Models sometimes flatten the location to one string.
			parsed.Location.City = strings.TrimSpace(loc)
		}
	}

	if v, ok := fields["price_range"]; ok {
		if rangeMap, ok := v.(map[string]interface{}); ok {
			minSet, maxSet := false, false
			if minRaw, exists := rangeMap["min"]; exists {
				if min, err := parseNumber(minRaw); err == nil && min >= 0 {
					parsed.PriceRange.Min = min
					minSet = true
				}
			}
			if maxRaw, exists := rangeMap["max"]; exists {
				if max, err := parseNumber(maxRaw); err == nil && max > 0 {
					parsed.PriceRange.Max = max
					maxSet = true
				}
			}
			if parsed.PriceRange.Min > parsed.PriceRange.Max {
				switch {
				case minSet && !maxSet:
					// Only a floor was given; widen the defaulted ceiling
					// instead of discarding the stated bound.
					parsed.PriceRange.Max = parsed.PriceRange.Min
				case maxSet && !minSet:
					parsed.PriceRange.Min = parsed.PriceRange.Max
				default:
					// Both bounds stated and inverted: unusable, fall back.
					parsed.PriceRange = PriceRange{Min: DefaultPriceMin, Max: DefaultPriceMax}
				}
			}
		}
	}

	if v, ok := fields["bedrooms"]; ok {
		if n, err := parseNumber(v); err == nil && n >= 0 && n == float64(int(n)) {
			parsed.Bedrooms = int(n)
		}
	}

	if v, ok := fields["bathrooms"]; ok {
		if n, err := parseNumber(v); err == nil && n >= 0 {
			parsed.Bathrooms = n
		}
	}

	if v, ok := fields["size_range"]; ok {
		if rangeMap, ok := v.(map[string]interface{}); ok {
			minSet, maxSet := false, false
			if minRaw, exists := rangeMap["min"]; exists {
				if min, err := parseNumber(minRaw); err == nil && min >= 0 {
					parsed.SizeRange.Min = min
					minSet = true
				}
			}
			if maxRaw, exists := rangeMap["max"]; exists {
				if max, err := parseNumber(maxRaw); err == nil && max > 0 {
					parsed.SizeRange.Max = max
					maxSet = true
				}
			}
			if parsed.SizeRange.Min > parsed.SizeRange.Max {
				switch {
				case minSet && !maxSet:
					parsed.SizeRange.Max = parsed.SizeRange.Min
				case maxSet && !minSet:
					parsed.SizeRange.Min = parsed.SizeRange.Max
				default:
					parsed.SizeRange = SizeRange{Min: DefaultSizeMin, Max: DefaultSizeMax}
				}
			}
		}
	}

	if v, ok := fields["amenities"]; ok {
		parsed.Amenities = parseStringArray(v)
	}

	if v, ok := fields["apartment_type"]; ok {
		if s, ok := v.(string); ok {
			parsed.ApartmentType = strings.TrimSpace(s)
		}
	}

	if v, ok := fields["orientation"]; ok {
		if s, ok := v.(string); ok {
			parsed.Orientation = strings.TrimSpace(s)
		}
	}

	if v, ok := fields["floor_preference"]; ok {
		if s, ok := v.(string); ok {
			parsed.FloorPreference = strings.TrimSpace(s)
		}
	}

	if v, ok := fields["pet_policy"]; ok {
		if s, ok := v.(string); ok {
			parsed.PetPolicy = strings.TrimSpace(s)
		}
	}

	if v, ok := fields["noise_preference"]; ok {
		if s, ok := v.(string); ok {
			parsed.NoisePreference = strings.TrimSpace(s)
		}
	}

	if v, ok := fields["other_requirements"]; ok {
		parsed.OtherRequirements = parseStringArray(v)
	}

	return &parsed, nil
}

// AddReviewKeywords appends keywords to the review-keyword list, skipping
// duplicates case-insensitively.
func (f *SearchFilter) AddReviewKeywords(keywords []string) {
	seen := make(map[string]bool, len(f.ReviewKeywords))
	for _, existing := range f.ReviewKeywords {
		seen[strings.ToLower(existing)] = true
	}
	for _, kw := range keywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed == "" {
			continue
		}
		if !seen[strings.ToLower(trimmed)] {
			f.ReviewKeywords = append(f.ReviewKeywords, trimmed)
			seen[strings.ToLower(trimmed)] = true
		}
	}
}

// Summary renders the filter as the human-readable block used when asking
// the model follow-up questions about it.
func (f *SearchFilter) Summary() string {
	return fmt.Sprintf(
		"Location: %s\nPrice: $%.0f - $%.0f\nSize: %d bed, %g bath\nType: %s\nOrientation: %s\nFloor: %s\nPets: %s\nNoise: %s\nAmenities: %s\nOther Requirements: %s",
		f.Location.String(),
		f.PriceRange.Min, f.PriceRange.Max,
		f.Bedrooms, f.Bathrooms,
		f.ApartmentType,
		f.Orientation,
		f.FloorPreference,
		f.PetPolicy,
		f.NoisePreference,
		strings.Join(f.Amenities, ", "),
		strings.Join(f.OtherRequirements, ", "),
	)
}

// WantsQuiet reports whether the noise preference asks for a quiet home.
func (f *SearchFilter) WantsQuiet() bool {
	pref := strings.ToLower(f.NoisePreference)
	return strings.Contains(pref, "quiet") || strings.Contains(pref, "silent") || strings.Contains(pref, "peaceful")
}

func parseStringArray(raw interface{}) []string {
	// Always return non-nil slice
	result := []string{}

	if raw == nil {
		return result
	}

	seen := make(map[string]bool) // For deduplication

	switch v := raw.(type) {
	case string:
		if v != "" {
			parts := strings.Split(v, ",")
			for _, s := range parts {
				trimmed := strings.TrimSpace(s)
				if trimmed != "" && !seen[trimmed] {
					result = append(result, trimmed)
					seen[trimmed] = true
				}
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				trimmed := strings.TrimSpace(s)
				if trimmed != "" && !seen[trimmed] {
					result = append(result, trimmed)
					seen[trimmed] = true
				}
			}
		}
	case []string:
		for _, s := range v {
			trimmed := strings.TrimSpace(s)
			if trimmed != "" && !seen[trimmed] {
				result = append(result, trimmed)
				seen[trimmed] = true
			}
		}
	}

	return result
}

var nonNumeric = regexp.MustCompile(`[^\d.]+`)

func parseNumber(raw interface{}) (float64, error) {
	if raw == nil {
		return 0, errors.New("cannot parse nil as number")
	}

	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return 0, errors.New("negative number not allowed")
		}
		return v, nil

	case int:
		if v < 0 {
			return 0, errors.New("negative number not allowed")
		}
		return float64(v), nil

	case string:
		// Model output sometimes quotes numbers with currency markers,
		// "$1,500.00" should become 1500
		cleaned := strings.ReplaceAll(v, " ", "")
		cleaned = strings.ReplaceAll(cleaned, "$", "")
		cleaned = strings.ReplaceAll(cleaned, "USD", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = nonNumeric.ReplaceAllString(cleaned, "")

		if cleaned == "" {
			return 0, errors.New("not a number")
		}

		num, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("strconv.ParseFloat failed: %w", err)
		}
		if num < 0 {
			return 0, errors.New("negative number not allowed")
		}
		return num, nil

	default:
		return 0, errors.New("not a number")
	}
}
