package listings

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"apartment-search/internal/search/filter"
)

var ErrMissingIndex = errors.New("index name is required")

// buildCandidateQuery turns a structured filter into an Elasticsearch bool
// query. Text fields become scored must clauses, numeric constraints become
// range filters. Bedrooms and price are left loose on purpose: the ranking
// engine scores near-misses, so retrieval only trims listings that could
// never place.
func buildCandidateQuery(f *filter.SearchFilter, overageCutoff float64) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if place := f.Location.String(); place != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  place,
				"fields": []string{"city^3", "neighborhood^3", "state", "title", "description"},
				"type":   "best_fields",
			},
		})
	}

	if terms := searchTerms(f); terms != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  terms,
				"fields": []string{"title^2", "description", "amenities^2"},
				"type":   "cross_fields",
			},
		})
	}

	if f.PriceRange.Max > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price": map[string]interface{}{"lte": f.PriceRange.Max * (1 + overageCutoff)},
			},
		})
	}
	if f.PriceRange.Min > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price": map[string]interface{}{"gte": f.PriceRange.Min},
			},
		})
	}

	// Bedrooms within two of the requested count; exact fit is scored later.
	if f.Bedrooms > 0 {
		lower := f.Bedrooms - 2
		if lower < 0 {
			lower = 0
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"bedrooms": map[string]interface{}{"gte": lower, "lte": f.Bedrooms + 2},
			},
		})
	}

	if f.ApartmentType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"match": map[string]interface{}{"apartment_type": f.ApartmentType},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"_source": false,
	}
}

// searchTerms joins amenities and free-form requirements into one query
// string for relevance scoring.
func searchTerms(f *filter.SearchFilter) string {
	parts := make([]string, 0, len(f.Amenities)+len(f.OtherRequirements))
	parts = append(parts, f.Amenities...)
	parts = append(parts, f.OtherRequirements...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// petConflict reports a hard mismatch between the filter's pet requirement
// and a listing's policy. Pet-policy text is too free-form for an index
// filter, so retrieval applies it after hydration.
func petConflict(listingPolicy, wantedPolicy string) bool {
	want := strings.ToLower(strings.TrimSpace(wantedPolicy))
	if want == "" || want == "any" {
		return false
	}
	have := strings.ToLower(strings.TrimSpace(listingPolicy))
	if have == "" {
		return false
	}

	wantsPets := !strings.Contains(want, "not allowed") && !strings.Contains(want, "no pets")
	if !wantsPets {
		return false
	}

	if strings.Contains(have, "not allowed") || strings.Contains(have, "no pets") {
		return true
	}
	if strings.Contains(want, "dog") && strings.Contains(have, "cat only") {
		return true
	}
	if strings.Contains(want, "cat") && strings.Contains(have, "dog only") {
		return true
	}
	return false
}

func buildSearchRequest(index string, f *filter.SearchFilter, overageCutoff float64, size int) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}

	body, _ := json.Marshal(buildCandidateQuery(f, overageCutoff))

	from := 0
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}
	return &req, nil
}
