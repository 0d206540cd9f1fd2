// Package csvparser reads delimited bank exports whose layout is described by
// a csv rule set: which columns hold the canonical fields, how many banner
// lines precede the header, the sign convention and the dedup column.
package csvparser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fjacquet/tally/internal/currencyutils"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parser"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"
)

// Type is the rule-set type handled by this parser.
const Type = "csv"

var allowedFields = []string{
	ruleset.FieldType,
	ruleset.FieldDirectory,
	ruleset.FieldColumns,
	ruleset.FieldUseColumnNames,
	ruleset.FieldExpendituresPositive,
	ruleset.FieldDuplicateChecking,
	ruleset.FieldHashColumn,
	ruleset.FieldSkipLines,
	ruleset.FieldCategories,
}

// Parser implements parser.Parser for delimited text files.
type Parser struct {
	parser.BaseParser
}

// New returns a csv parser logging to logger.
func New(logger logging.Logger) *Parser {
	return &Parser{BaseParser: parser.NewBaseParser(Type, logger)}
}

// Validate checks raw against the csv rule-set constraints and returns the
// fully defaulted rule set.
func (p *Parser) Validate(raw ruleset.Raw) (ruleset.RuleSet, error) {
	if err := p.CheckType(raw); err != nil {
		return ruleset.RuleSet{}, err
	}
	if err := raw.RejectUnknown(allowedFields...); err != nil {
		return ruleset.RuleSet{}, err
	}

	directory, err := raw.Directory()
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	skipLines, err := raw.NonNegInt(ruleset.FieldSkipLines, 0)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	useNames, err := raw.Bool(ruleset.FieldUseColumnNames, true)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	expendituresPositive, err := raw.Bool(ruleset.FieldExpendituresPositive, false)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	dedup, err := raw.Bool(ruleset.FieldDuplicateChecking, false)
	if err != nil {
		return ruleset.RuleSet{}, err
	}
	columns, err := validateColumns(raw, useNames)
	if err != nil {
		return ruleset.RuleSet{}, err
	}

	var hashColumn ruleset.ColumnRef
	if dedup {
		value, ok := raw.Fields[ruleset.FieldHashColumn]
		if !ok || value == nil {
			return ruleset.RuleSet{}, &parsererror.InvalidRuleError{
				RuleSet: raw.Name,
				Field:   ruleset.FieldHashColumn,
				Reason:  fmt.Sprintf("required when %q is true", ruleset.FieldDuplicateChecking),
			}
		}
		if hashColumn, err = raw.ColumnRefOf(ruleset.FieldHashColumn, value, useNames); err != nil {
			return ruleset.RuleSet{}, err
		}
	}

	categories, err := raw.StringMap(ruleset.FieldCategories)
	if err != nil {
		return ruleset.RuleSet{}, err
	}

	return ruleset.New(ruleset.Spec{
		Name:                 raw.Name,
		Path:                 raw.Path,
		Type:                 Type,
		Directory:            directory,
		Columns:              columns,
		UseColumnNames:       useNames,
		ExpendituresPositive: expendituresPositive,
		DuplicateChecking:    dedup,
		HashColumn:           hashColumn,
		SkipLines:            skipLines,
		Categories:           categories,
	}), nil
}

// validateColumns requires the columns mapping to have exactly the canonical keys.
func validateColumns(raw ruleset.Raw, useNames bool) (map[string]ruleset.ColumnRef, error) {
	mapping, err := raw.Mapping(ruleset.FieldColumns)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, &parsererror.InvalidRuleError{RuleSet: raw.Name, Field: ruleset.FieldColumns, Reason: "required"}
	}

	var missing, extra []string
	for _, canonical := range models.CanonicalColumns {
		if _, ok := mapping[canonical]; !ok {
			missing = append(missing, canonical)
		}
	}
	for key := range mapping {
		if !isCanonical(key) {
			extra = append(extra, key)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		return nil, &parsererror.InvalidRuleError{
			RuleSet: raw.Name,
			Field:   ruleset.FieldColumns,
			Reason: fmt.Sprintf("keys must be exactly %s (missing: [%s], unexpected: [%s])",
				strings.Join(models.CanonicalColumns, ", "), strings.Join(missing, ", "), strings.Join(extra, ", ")),
		}
	}

	columns := make(map[string]ruleset.ColumnRef, len(mapping))
	for _, canonical := range models.CanonicalColumns {
		ref, err := raw.ColumnRefOf(ruleset.FieldColumns+"."+canonical, mapping[canonical], useNames)
		if err != nil {
			return nil, err
		}
		columns[canonical] = ref
	}
	return columns, nil
}

func isCanonical(name string) bool {
	for _, c := range models.CanonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Parse reads every file under the rule set's directory, in discovery order,
// and returns the canonical records.
func (p *Parser) Parse(ctx context.Context, rs ruleset.RuleSet) (models.RecordSet, error) {
	logger := p.GetLogger().WithField(logging.FieldRuleSet, rs.Name())

	files, err := p.DiscoverSources(ctx, rs)
	if err != nil {
		return nil, err
	}

	var rows []rawRow
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileRows, err := readFile(file, rs)
		if err != nil {
			return nil, err
		}
		logger.Debug("Read source file",
			logging.F(logging.FieldFile, file),
			logging.F(logging.FieldCount, len(fileRows)))
		rows = append(rows, fileRows...)
	}

	if rs.DuplicateChecking() {
		before := len(rows)
		rows = dedupe(rows)
		if dropped := before - len(rows); dropped > 0 {
			logger.Info("Dropped duplicate rows",
				logging.F(logging.FieldCount, dropped),
				logging.F("hash_column", rs.HashColumn().String()))
		}
	}

	records, err := toRecords(rows, rs)
	if err != nil {
		return nil, err
	}

	logger.Info("Parsed rule set",
		logging.F(logging.FieldCount, len(records)),
		logging.F("files", len(files)))
	return records, nil
}

// dedupe keeps the first row for every hash value.
func dedupe(rows []rawRow) []rawRow {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		if _, dup := seen[row.hash]; dup {
			continue
		}
		seen[row.hash] = struct{}{}
		out = append(out, row)
	}
	return out
}

// toRecords converts amounts, applies the sign convention and the per-source
// category rewrites.
func toRecords(rows []rawRow, rs ruleset.RuleSet) (models.RecordSet, error) {
	records := make(models.RecordSet, 0, len(rows))
	for _, row := range rows {
		amount, err := currencyutils.ParseAmount(row.amount)
		if err != nil {
			return nil, &parsererror.MalformedAmountError{
				RuleSet:  rs.Name(),
				FilePath: row.file,
				Line:     row.line,
				Value:    row.amount,
				Err:      err,
			}
		}
		if rs.ExpendituresPositive() {
			amount = amount.Neg()
		}

		records = append(records, models.Record{
			Date:        row.date,
			Description: row.description,
			Amount:      amount,
			Category:    rs.RewriteCategory(row.category),
			Source:      row.file,
		})
	}
	return records, nil
}
