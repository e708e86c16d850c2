// Package engine provides the deterministic components of the triage
// pipeline: text normalization, duplicate aggregation, ranking and
// filtering, the published result snapshot, and CSV export.
package engine

import (
	"github.com/go-playground/validator/v10"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
