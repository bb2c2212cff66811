// internal/search/ranking/config.go
package ranking

// Config holds the retrieval and pagination tunables that surround the
// scoring stage. The engine itself scores every candidate it is handed;
// these bounds are applied by the candidate source and the pipeline.
type Config struct {
	// PriceOverageCutoff bounds retrieval: listings priced more than this
	// fraction above the filter's max are not fetched as candidates.
	PriceOverageCutoff float64
	// MaxResults caps the ranked results returned to callers.
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		PriceOverageCutoff: 0.25,
		MaxResults:         50,
	}
}
