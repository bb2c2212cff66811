package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/models"
	"apartment-search/internal/search/filter"
)

// Repository retrieves ranking candidates. Elasticsearch narrows the listing
// pool, Postgres hydrates the rows together with their review aggregates.
type Repository struct {
	es            *elasticsearch.Client
	db            *sql.DB
	index         string
	maxCandidates int
	overageCutoff float64
	logger        logger.Logger
}

func NewRepository(es *elasticsearch.Client, db *sql.DB, index string, maxCandidates int, overageCutoff float64, log logger.Logger) *Repository {
	return &Repository{
		es:            es,
		db:            db,
		index:         index,
		maxCandidates: maxCandidates,
		overageCutoff: overageCutoff,
		logger:        log.WithFields(map[string]interface{}{"component": "listing-repository"}),
	}
}

// FindCandidates runs the retrieval query and hydrates the matching
// listings. Hard constraints live here, not in ranking: the index query
// already bounds price, and listings whose pet policy conflicts with the
// filter are dropped after hydration.
func (r *Repository) FindCandidates(ctx context.Context, f *filter.SearchFilter) ([]models.Listing, error) {
	start := time.Now()

	ids, err := r.candidateIDs(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		r.logger.Info("no candidates matched", map[string]interface{}{
			"index":    r.index,
			"location": f.Location.String(),
		})
		return nil, nil
	}

	hydrated, err := r.hydrate(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := hydrated[:0]
	for _, l := range hydrated {
		if petConflict(l.PetPolicy, f.PetPolicy) {
			continue
		}
		results = append(results, l)
	}

	r.logger.Info("candidates retrieved", map[string]interface{}{
		"index":       r.index,
		"candidates":  len(results),
		"petExcluded": len(hydrated) - len(results),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return results, nil
}

func (r *Repository) candidateIDs(ctx context.Context, f *filter.SearchFilter) ([]string, error) {
	req, err := buildSearchRequest(r.index, f, r.overageCutoff, r.maxCandidates)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(r.index, err)
	}

	res, err := req.Do(ctx, r.es)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewSearchTimeoutError(r.index)
		}
		return nil, errors.NewSearchQueryFailedError(r.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, errors.NewIndexNotFoundError(r.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(r.index, fmt.Errorf("search query failed: %s", res.String()))
	}

	var body struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.NewSearchQueryFailedError(r.index, err)
	}

	ids := make([]string, 0, len(body.Hits.Hits))
	seen := make(map[string]bool, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		if seen[hit.ID] {
			continue
		}
		seen[hit.ID] = true
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

const hydrateQuery = `
SELECT l.id, l.title, l.description, l.price, l.bedrooms, l.bathrooms,
       l.square_feet, l.city, l.neighborhood, l.state, l.latitude, l.longitude,
       l.apartment_type, l.orientation, l.floor_number, l.pet_policy,
       l.amenities, l.available_from,
       COALESCE(ra.average_rating, 0), COALESCE(ra.review_count, 0),
       COALESCE(ra.noise_level, 0), COALESCE(ra.management_rating, 0),
       COALESCE(ra.value_rating, 0)
FROM listings l
LEFT JOIN review_aggregates ra ON ra.listing_id = l.id
WHERE l.id = ANY($1)`

func (r *Repository) hydrate(ctx context.Context, ids []string) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, hydrateQuery, pq.Array(ids))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("hydrate listings")
		}
		return nil, errors.NewQueryExecutionFailedError("hydrate listings", err)
	}
	defer rows.Close()

	results := make([]models.Listing, 0, len(ids))
	for rows.Next() {
		var l models.Listing
		var availableFrom sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Description, &l.Price, &l.Bedrooms, &l.Bathrooms,
			&l.SquareFeet, &l.City, &l.Neighborhood, &l.State, &l.Latitude, &l.Longitude,
			&l.ApartmentType, &l.Orientation, &l.FloorNumber, &l.PetPolicy,
			pq.Array(&l.Amenities), &availableFrom,
			&l.ReviewStats.AverageRating, &l.ReviewStats.ReviewCount,
			&l.ReviewStats.NoiseLevel, &l.ReviewStats.ManagementRating,
			&l.ReviewStats.ValueRating,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan listing", err)
		}
		if availableFrom.Valid {
			l.AvailableFrom = availableFrom.Time
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("hydrate listings", err)
	}
	return results, nil
}
