// Package pipeline runs ingestion end to end: it discovers rule sets,
// dispatches each to its format parser, merges the records into one
// date-sorted table and categorizes it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fjacquet/tally/internal/categorizer"
	"fjacquet/tally/internal/dateutils"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parser"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"
	"fjacquet/tally/internal/taxonomy"

	"github.com/google/uuid"
)

// Options control how a run treats its rule sets.
type Options struct {
	// IsolateFailures skips a failing rule set with a warning instead of
	// aborting the run.
	IsolateFailures bool
	// RuleExtensions selects rule-set files by extension.
	RuleExtensions []string
}

// Skipped records a rule set left out of an isolated run.
type Skipped struct {
	Path string
	Err  error
}

// Result is the outcome of a run.
type Result struct {
	Table   models.CanonicalTable
	Skipped []Skipped
	Stats   categorizer.Stats
}

// Pipeline orchestrates a run. The taxonomy is read-only for its lifetime.
type Pipeline struct {
	registry *parser.Registry
	taxonomy *taxonomy.Taxonomy
	engine   *categorizer.Engine
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// New creates a Pipeline. If logger is nil, a default logger will be used.
func New(registry *parser.Registry, tax *taxonomy.Taxonomy, engine *categorizer.Engine, logger logging.Logger, opts Options) *Pipeline {
	logger = logging.OrDefault(logger)
	if engine == nil {
		engine = categorizer.NewEngine(logger)
	}
	if len(opts.RuleExtensions) == 0 {
		opts.RuleExtensions = ruleset.DefaultExtensions
	}
	return &Pipeline{
		registry: registry,
		taxonomy: tax,
		engine:   engine,
		logger:   logger.WithField(logging.FieldComponent, "pipeline"),
		opts:     opts,
		now:      time.Now,
	}
}

// Run builds the canonical table from every rule set under ruleDir.
// Without IsolateFailures the first failing rule set aborts the run and no
// table is returned.
func (p *Pipeline) Run(ctx context.Context, ruleDir string) (Result, error) {
	runID := uuid.NewString()
	logger := p.logger.WithField(logging.FieldRunID, runID)
	start := p.now()

	files, err := ruleset.Discover(ruleDir, p.opts.RuleExtensions)
	if err != nil {
		return Result{}, fmt.Errorf("failed to discover rule sets in %s: %w", ruleDir, err)
	}
	if len(files) == 0 {
		logger.Warn("No rule sets found", logging.F(logging.FieldDirectory, ruleDir))
	}

	var result Result
	var merged []models.Transaction
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		txs, err := p.ingest(ctx, file)
		if err != nil {
			if !p.opts.IsolateFailures || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Result{}, fmt.Errorf("ingestion aborted: %w", err)
			}
			logger.WithError(err).Warn("Skipping failed rule set", logging.F(logging.FieldFile, file))
			result.Skipped = append(result.Skipped, Skipped{Path: file, Err: err})
			continue
		}
		merged = append(merged, txs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	categorized, stats := p.engine.Categorize(merged, p.taxonomy)
	if err := categorizer.CheckClosure(categorized, p.taxonomy); err != nil {
		return Result{}, fmt.Errorf("canonical table invariant violated: %w", err)
	}

	result.Table = models.CanonicalTable{RunID: runID, CreatedAt: p.now(), Transactions: categorized}
	result.Stats = stats

	logger.Info("Ingestion complete",
		logging.F(logging.FieldCount, len(categorized)),
		logging.F("rule_sets", len(files)),
		logging.F("skipped", len(result.Skipped)),
		logging.F(logging.FieldDuration, p.now().Sub(start).Milliseconds()))
	return result, nil
}

// ingest loads, validates and parses one rule-set file and types its dates.
func (p *Pipeline) ingest(ctx context.Context, file string) ([]models.Transaction, error) {
	fmtParser, rs, err := p.validateFile(file)
	if err != nil {
		return nil, err
	}

	records, err := fmtParser.Parse(ctx, rs)
	if err != nil {
		return nil, err
	}
	return toTransactions(records, rs)
}

func (p *Pipeline) validateFile(file string) (parser.Parser, ruleset.RuleSet, error) {
	raw, err := ruleset.LoadFile(file)
	if err != nil {
		return nil, ruleset.RuleSet{}, err
	}
	fmtParser, err := p.registry.Get(raw.Type(), raw.Name)
	if err != nil {
		return nil, ruleset.RuleSet{}, err
	}
	rs, err := fmtParser.Validate(raw)
	if err != nil {
		return nil, ruleset.RuleSet{}, err
	}
	return fmtParser, rs, nil
}

// toTransactions parses each record's date into a calendar date.
func toTransactions(records models.RecordSet, rs ruleset.RuleSet) ([]models.Transaction, error) {
	txs := make([]models.Transaction, 0, len(records))
	for _, r := range records {
		date, _, err := dateutils.ParseDate(r.Date)
		if err != nil {
			return nil, &parsererror.MalformedDateError{RuleSet: rs.Name(), FilePath: r.Source, Value: r.Date, Err: err}
		}
		txs = append(txs, models.Transaction{
			Date:        date,
			Description: r.Description,
			Amount:      r.Amount,
			Category:    r.Category,
			Source:      r.Source,
		})
	}
	return txs, nil
}

// Validate loads and validates every rule set under ruleDir without reading
// any source file. It returns the valid rule sets and every failure joined.
func (p *Pipeline) Validate(ctx context.Context, ruleDir string) ([]ruleset.RuleSet, error) {
	files, err := ruleset.Discover(ruleDir, p.opts.RuleExtensions)
	if err != nil {
		return nil, fmt.Errorf("failed to discover rule sets in %s: %w", ruleDir, err)
	}

	var valid []ruleset.RuleSet
	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, rs, err := p.validateFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, rs)
	}
	return valid, errors.Join(errs...)
}
