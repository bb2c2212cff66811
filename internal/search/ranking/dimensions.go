// internal/search/ranking/dimensions.go
package ranking

import (
	"math"
	"strings"

	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
)

// Every dimension scores 0-100. Listings with no usable signal for a
// dimension score a neutral 50 so missing data neither rewards nor punishes.
const neutralScore = 50

// priceFit is 100 inside the filter's range and decays linearly outside it,
// reaching 0 at one range-width beyond the near edge.
func priceFit(price float64, r filter.PriceRange) float64 {
	width := r.Max - r.Min
	if width <= 0 {
		width = math.Max(r.Max, 1)
	}

	if price >= r.Min && price <= r.Max {
		return 100
	}

	var distance float64
	if price < r.Min {
		distance = r.Min - price
	} else {
		distance = price - r.Max
	}

	fit := 100 * (1 - distance/width)
	if fit < 0 {
		return 0
	}
	return fit
}

// locationFit gates on the wanted city and, when one is named, the wanted
// neighborhood. A filter with no city fits everywhere; anything short of a
// case-insensitive match scores 0.
func locationFit(listing *models.Listing, want filter.Location) float64 {
	if want.City == "" {
		return 100
	}
	if !strings.EqualFold(strings.TrimSpace(listing.City), strings.TrimSpace(want.City)) {
		return 0
	}
	if want.Neighborhood != "" &&
		!strings.EqualFold(strings.TrimSpace(listing.Neighborhood), strings.TrimSpace(want.Neighborhood)) {
		return 0
	}
	return 100
}

// safetyFit derives from review signal: management rating carries most of
// the weight, overall rating the rest.
func safetyFit(stats models.ReviewStats) float64 {
	if stats.ReviewCount == 0 {
		return neutralScore
	}

	management := clamp01(stats.ManagementRating / 10)
	overall := clamp01(stats.AverageRating / 5)

	return (management*0.6 + overall*0.4) * 100
}

// amenityFit is the fraction of requested amenities the listing offers.
// No requested amenities means nothing to violate.
func amenityFit(listing *models.Listing, requested []string) float64 {
	if len(requested) == 0 {
		return 100
	}

	available := make(map[string]bool, len(listing.Amenities))
	for _, a := range listing.Amenities {
		available[strings.ToLower(strings.TrimSpace(a))] = true
	}

	matched := 0
	for _, want := range requested {
		if available[strings.ToLower(strings.TrimSpace(want))] {
			matched++
		}
	}

	return float64(matched) / float64(len(requested)) * 100
}

// noiseFit maps the listing's reviewed noise level (1 quiet, 10 loud)
// against a quiet preference. It only engages once the enhancement stage
// has produced review keywords; without them, or without review signal on
// the listing, the dimension stays neutral.
func noiseFit(stats models.ReviewStats, f *filter.SearchFilter) float64 {
	if len(f.ReviewKeywords) == 0 || !f.WantsQuiet() {
		return neutralScore
	}
	if stats.NoiseLevel == 0 {
		return neutralScore
	}

	level := math.Min(math.Max(stats.NoiseLevel, 1), 10)
	return (10 - level) / 9 * 100
}

// lightFit uses orientation as a daylight heuristic.
func lightFit(listing *models.Listing, wanted string) float64 {
	orientation := strings.ToLower(listing.Orientation)
	if orientation == "" {
		return neutralScore
	}

	if wanted != "" {
		if strings.Contains(orientation, strings.ToLower(wanted)) {
			return 100
		}
		return 40
	}

	switch {
	case strings.Contains(orientation, "south"):
		return 80
	case strings.Contains(orientation, "east"), strings.Contains(orientation, "west"):
		return 65
	default:
		return neutralScore
	}
}

// roomFit combines bedroom and bathroom closeness, gated when the listing's
// size falls outside the requested range.
func roomFit(listing *models.Listing, f *filter.SearchFilter) float64 {
	bedFit := float64(0)
	switch diff := abs(listing.Bedrooms - f.Bedrooms); diff {
	case 0:
		bedFit = 100
	case 1:
		bedFit = 60
	case 2:
		bedFit = 30
	}

	bathFit := float64(0)
	switch bathDiff := math.Abs(listing.Bathrooms - f.Bathrooms); {
	case bathDiff == 0:
		bathFit = 100
	case bathDiff <= 0.5:
		bathFit = 70
	case bathDiff <= 1.0:
		bathFit = 40
	}

	fit := (bedFit + bathFit) / 2

	if listing.SquareFeet > 0 &&
		(listing.SquareFeet < f.SizeRange.Min || listing.SquareFeet > f.SizeRange.Max) {
		fit *= 0.6
	}

	return fit
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
