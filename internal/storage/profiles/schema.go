// internal/storage/profiles/schema.go
package profiles

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "apartment-search/internal/common/errors"
	"apartment-search/internal/models"
)

// weightsSchema is closed: exactly the six known dimensions, each 0-10.
// additionalProperties false rejects unknown dimensions on write instead of
// silently storing weights the ranker would never read.
var weightsSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"price", "location", "safety", "amenities", "noise", "light"},
	"properties": map[string]interface{}{
		"price":     weightProperty(),
		"location":  weightProperty(),
		"safety":    weightProperty(),
		"amenities": weightProperty(),
		"noise":     weightProperty(),
		"light":     weightProperty(),
	},
}

func weightProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":    "integer",
		"minimum": 0,
		"maximum": 10,
	}
}

// ValidateWeights checks a weights payload against the closed schema.
func ValidateWeights(w models.PreferenceWeights) error {
	document := map[string]interface{}{
		"price":     w.Price,
		"location":  w.Location,
		"safety":    w.Safety,
		"amenities": w.Amenities,
		"noise":     w.Noise,
		"light":     w.Light,
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(weightsSchema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return stderrors.NewProfileValidationFailedError(err.Error())
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return stderrors.NewProfileValidationFailedError(strings.Join(details, "; "))
	}

	return nil
}
