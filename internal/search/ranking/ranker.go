// Package ranking scores candidate listings against a structured filter and
// a user's preference weights, producing a deterministic ordering.
package ranking

import (
	"sort"
	"time"

	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
)

const stage = "ranking-engine"

type Ranker struct {
	logger logger.Logger
}

func NewRanker(log logger.Logger) *Ranker {
	return &Ranker{
		logger: log.WithFields(map[string]interface{}{"stage": stage}),
	}
}

// Rank scores candidates against f using the given weights and returns them
// best-first, one result per candidate: nothing is filtered out here, hard
// constraints belong to retrieval and pagination to the caller. The ordering
// is deterministic: identical inputs produce identical output. Ties on score
// break by ascending price, then listing ID.
//
// The six weighted dimensions combine as a weight-normalized sum; the room
// closeness score then scales the result, so a listing with the wrong
// bedroom count cannot outrank an equivalent one with the right count. When
// every weight is zero the dimensions average unweighted instead.
func (r *Ranker) Rank(candidates []models.Listing, f *filter.SearchFilter, weights models.PreferenceWeights) []ScoredListing {
	started := time.Now()

	weightSum := weights.Sum()

	scored := make([]ScoredListing, 0, len(candidates))
	for i := range candidates {
		listing := &candidates[i]

		dims := DimensionScores{
			Price:     priceFit(listing.Price, f.PriceRange),
			Location:  locationFit(listing, f.Location),
			Safety:    safetyFit(listing.ReviewStats),
			Amenities: amenityFit(listing, f.Amenities),
			Noise:     noiseFit(listing.ReviewStats, f),
			Light:     lightFit(listing, f.Orientation),
			Rooms:     roomFit(listing, f),
		}

		var base float64
		if weightSum > 0 {
			base = (dims.Price*float64(weights.Price) +
				dims.Location*float64(weights.Location) +
				dims.Safety*float64(weights.Safety) +
				dims.Amenities*float64(weights.Amenities) +
				dims.Noise*float64(weights.Noise) +
				dims.Light*float64(weights.Light)) / float64(weightSum)
		} else {
			base = (dims.Price + dims.Location + dims.Safety +
				dims.Amenities + dims.Noise + dims.Light) / 6
		}

		scored = append(scored, ScoredListing{
			Listing:    *listing,
			Score:      base * dims.Rooms / 100,
			Dimensions: dims,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Listing.Price != scored[j].Listing.Price {
			return scored[i].Listing.Price < scored[j].Listing.Price
		}
		return scored[i].Listing.ID < scored[j].Listing.ID
	})

	r.logger.Info("listings ranked", map[string]interface{}{
		"candidates": len(candidates),
		"durationMs": time.Since(started).Milliseconds(),
	})

	return scored
}
