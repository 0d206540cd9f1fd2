package parser

import (
	"context"

	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/ruleset"
)

// Parser turns the source files described by a rule set into records for one
// format. Each implementation owns the validation of its own rule sets.
type Parser interface {
	// Type returns the format discriminator matched against a rule set's
	// "type" field, e.g. "csv".
	Type() string

	// Validate checks raw against the constraints of this format and returns a
	// fully defaulted rule set. It fails with a FormatMismatchError when raw
	// declares another type and with an InvalidRuleError when a field is wrong.
	// Validation has no side effects.
	Validate(raw ruleset.Raw) (ruleset.RuleSet, error)

	// Parse reads every source file of rs and returns its records with the
	// canonical columns. Dates are left as read and categories are not yet
	// matched against the taxonomy.
	Parse(ctx context.Context, rs ruleset.RuleSet) (models.RecordSet, error)
}
