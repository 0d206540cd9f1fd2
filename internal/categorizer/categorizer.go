// Package categorizer assigns taxonomy categories to transactions by keyword
// matching on their descriptions.
package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/taxonomy"
)

// Stats counts what a categorization pass did.
type Stats struct {
	Matched int // assigned by a keyword
	Kept    int // already carried a taxonomy category
	Other   int // forced to Other
	Dropped int // removed as ignored
}

// Engine categorizes transactions against a taxonomy.
type Engine struct {
	logger logging.Logger
}

// NewEngine creates an Engine. If logger is nil, a default logger will be used.
func NewEngine(logger logging.Logger) *Engine {
	return &Engine{logger: logging.OrDefault(logger).WithField(logging.FieldComponent, "categorizer")}
}

// Match returns the category a description is assigned by the taxonomy's
// keywords, together with the keyword that decided it. Categories are tried
// in taxonomy order and keywords in list order; the last match wins.
func Match(description string, tax *taxonomy.Taxonomy) (category, keyword string, ok bool) {
	lowered := strings.ToLower(description)
	for _, cat := range tax.Categories() {
		for _, kw := range tax.Keywords(cat) {
			if strings.Contains(lowered, kw) {
				category, keyword, ok = cat, kw, true
			}
		}
	}
	return category, keyword, ok
}

// Categorize returns a new slice in which every transaction carries a taxonomy
// category: the last keyword match, else its current category when that is
// known, else Other. Transactions whose final category is ignored are left
// out. txs is not modified.
func (e *Engine) Categorize(txs []models.Transaction, tax *taxonomy.Taxonomy) ([]models.Transaction, Stats) {
	var stats Stats
	out := make([]models.Transaction, 0, len(txs))

	for _, tx := range txs {
		if category, keyword, ok := Match(tx.Description, tax); ok {
			e.logger.Debug("Transaction categorized using keyword matching",
				logging.F("description", tx.Description),
				logging.F(logging.FieldKeyword, keyword),
				logging.F(logging.FieldCategory, category))
			tx.Category = category
			stats.Matched++
		} else if tax.IsKnown(tx.Category) {
			stats.Kept++
		} else {
			tx.Category = models.CategoryOther
			stats.Other++
		}

		if tax.IsIgnored(tx.Category) {
			stats.Dropped++
			continue
		}
		out = append(out, tx)
	}

	e.logger.Debug("Categorization complete",
		logging.F(logging.FieldCount, len(out)),
		logging.F("matched", stats.Matched),
		logging.F("kept", stats.Kept),
		logging.F("other", stats.Other),
		logging.F("dropped", stats.Dropped))
	return out, stats
}

// CheckClosure fails on the first transaction whose category is not a
// taxonomy category or is ignored.
func CheckClosure(txs []models.Transaction, tax *taxonomy.Taxonomy) error {
	for i, tx := range txs {
		if !tax.IsKnown(tx.Category) {
			return fmt.Errorf("transaction %d (%q) has unknown category %q", i, tx.Description, tx.Category)
		}
		if tax.IsIgnored(tx.Category) {
			return fmt.Errorf("transaction %d (%q) has ignored category %q", i, tx.Description, tx.Category)
		}
	}
	return nil
}
