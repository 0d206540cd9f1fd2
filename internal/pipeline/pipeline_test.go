package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/tally/internal/csvparser"
	"fjacquet/tally/internal/logging"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parser"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/ruleset"
	"fjacquet/tally/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Posting Date,Description,Amount,Type\n"

type fixture struct {
	root    string
	rules   string
	sources string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	return fixture{root: root, rules: filepath.Join(root, "parse"), sources: filepath.Join(root, "data")}
}

func (f fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// csvRules writes a csv rule set reading data/<name>.
func (f fixture) csvRules(t *testing.T, name, extra string) {
	t.Helper()
	f.write(t, filepath.Join("parse", name+".yaml"), `
type: csv
directory: `+filepath.Join(f.sources, name)+`
columns:
  Date: Posting Date
  Description: Description
  Amount: Amount
  Category: Type
`+extra)
}

func newPipeline(t *testing.T, tax *taxonomy.Taxonomy, opts Options) (*Pipeline, *logging.MockLogger) {
	t.Helper()
	mockLog := logging.NewMockLogger()
	registry, err := parser.NewRegistry(csvparser.New(mockLog))
	require.NoError(t, err)
	return New(registry, tax, nil, mockLog, opts), mockLog
}

func mustTaxonomy(t *testing.T, doc string) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Parse("categories.yaml", []byte(doc))
	require.NoError(t, err)
	return tax
}

func TestRun_KeywordCategorization(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "checking", "")
	f.write(t, "data/checking/jan.csv", header+`2023-01-05,COFFEE SHOP,-4.50,`+"\n")

	p, _ := newPipeline(t, mustTaxonomy(t, "Restaurants: [coffee]"), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	require.Len(t, result.Table.Transactions, 1)
	got := result.Table.Transactions[0]
	assert.Equal(t, "Restaurants", got.Category)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), got.Date)
	assert.True(t, decimal.RequireFromString("-4.50").Equal(got.Amount))
	assert.NotEmpty(t, result.Table.RunID)
	assert.False(t, result.Table.CreatedAt.IsZero())
}

func TestRun_SignConventionAcrossSources(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "card", "expenditures positive: true\n")
	f.csvRules(t, "checking", "expenditures positive: false\n")
	f.write(t, "data/card/a.csv", header+"2023-01-05,BOOKS,12.00,\n")
	f.write(t, "data/checking/a.csv", header+"2023-01-06,BOOKS,-12.00,\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	require.Len(t, result.Table.Transactions, 2)
	for _, tx := range result.Table.Transactions {
		assert.True(t, decimal.RequireFromString("-12.00").Equal(tx.Amount))
	}
}

func TestRun_StableSortAcrossRuleSets(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "a", "")
	f.csvRules(t, "b", "")
	f.write(t, "data/a/x.csv", header+
		"2023-01-03,A1,-1,\n"+
		"2023-01-01,A2,-1,\n"+
		"2023-01-02,A3,-1,\n")
	f.write(t, "data/b/x.csv", header+
		"01/02/2023,B1,-1,\n"+
		"2023-01-01,B2,-1,\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	var got []string
	for i, tx := range result.Table.Transactions {
		got = append(got, tx.Description)
		if i > 0 {
			assert.False(t, tx.Date.Before(result.Table.Transactions[i-1].Date))
		}
	}
	assert.Equal(t, []string{"A2", "B2", "A3", "B1", "A1"}, got)
}

func TestRun_RewritesApplyBeforeKeywords(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "card", "categories:\n  Gas: Automotive\n  Dining: Restaurants\n")
	f.write(t, "data/card/a.csv", header+
		"2023-01-01,SHELL OIL,-40,Gas\n"+
		"2023-01-02,CORNER MARKET,-10,Dining\n"+
		"2023-01-03,MYSTERY,-1,Misc\n")

	p, _ := newPipeline(t, mustTaxonomy(t, "Groceries: [market]"), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	txs := result.Table.Transactions
	require.Len(t, txs, 3)
	assert.Equal(t, "Automotive", txs[0].Category)
	assert.Equal(t, "Groceries", txs[1].Category)
	assert.Equal(t, "Other", txs[2].Category)
}

func TestRun_DropsIgnoredCategories(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "card", "")
	f.write(t, "data/card/a.csv", header+
		"2023-01-01,AUTOPAY THANK YOU,500,\n"+
		"2023-01-02,GROCER,-10,Groceries\n")

	p, _ := newPipeline(t, mustTaxonomy(t, "Transfer: [autopay]\nIgnore: [Transfer]"), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	require.Len(t, result.Table.Transactions, 1)
	assert.Equal(t, "GROCER", result.Table.Transactions[0].Description)
	assert.Equal(t, 1, result.Stats.Dropped)
}

func TestRun_FailFast(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "good", "")
	f.write(t, "data/good/a.csv", header+"2023-01-01,GROCER,-10,\n")
	f.write(t, "parse/broken.yaml", "type: csv\ndirectory: /tmp\ncolumns:\n  Date: Date\n  Description: Description\n  Amount: Amount\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	result, err := p.Run(context.Background(), f.rules)

	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrInvalidRule))
	assert.Empty(t, result.Table.Transactions)
}

func TestRun_IsolateFailures(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "good", "")
	f.write(t, "data/good/a.csv", header+"2023-01-01,GROCER,-10,\n")
	broken := f.write(t, "parse/broken.yaml", "type: qif\ndirectory: /tmp\n")

	p, mockLog := newPipeline(t, taxonomy.Default(), Options{IsolateFailures: true})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)

	assert.Len(t, result.Table.Transactions, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, broken, result.Skipped[0].Path)
	assert.True(t, errors.Is(result.Skipped[0].Err, parsererror.ErrUnknownFormat))
	assert.True(t, mockLog.HasEntry("WARN", "Skipping failed rule set"))
}

func TestRun_MalformedDate(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "card", "")
	source := f.write(t, "data/card/a.csv", header+"someday,GROCER,-10,\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	_, err := p.Run(context.Background(), f.rules)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrMalformedDate))

	var dateErr *parsererror.MalformedDateError
	require.True(t, errors.As(err, &dateErr))
	assert.Equal(t, "card", dateErr.RuleSet)
	assert.Equal(t, source, dateErr.FilePath)
}

func TestRun_MalformedRuleFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "parse/bad.yaml", "type: [csv\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	_, err := p.Run(context.Background(), f.rules)
	assert.True(t, errors.Is(err, parsererror.ErrConfigParse))
}

func TestRun_NoRuleSets(t *testing.T) {
	p, mockLog := newPipeline(t, taxonomy.Default(), Options{})

	result, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, result.Table.Transactions)
	assert.True(t, mockLog.HasEntry("WARN", "No rule sets found"))
}

func TestRun_MissingSourceDirectoryIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "never-downloaded", "")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	result, err := p.Run(context.Background(), f.rules)
	require.NoError(t, err)
	assert.Empty(t, result.Table.Transactions)
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "card", "")

	p, _ := newPipeline(t, taxonomy.Default(), Options{IsolateFailures: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, f.rules)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RunIDsDiffer(t *testing.T) {
	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	dir := t.TempDir()

	first, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEqual(t, first.Table.RunID, second.Table.RunID)
}

func TestValidate_ReportsEveryFailure(t *testing.T) {
	f := newFixture(t)
	f.csvRules(t, "good", "")
	f.write(t, "parse/missing-category.yaml", "type: csv\ndirectory: /tmp\ncolumns:\n  Date: a\n  Description: b\n  Amount: c\n")
	f.write(t, "parse/wrong-type.yaml", "type: qif\ndirectory: /tmp\n")

	p, _ := newPipeline(t, taxonomy.Default(), Options{})
	valid, err := p.Validate(context.Background(), f.rules)

	require.Len(t, valid, 1)
	assert.Equal(t, "good", valid[0].Name())
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrInvalidRule))
	assert.True(t, errors.Is(err, parsererror.ErrUnknownFormat))
}

func TestToTransactions(t *testing.T) {
	rs := ruleset.New(ruleset.Spec{Name: "card"})
	records := models.RecordSet{
		{Date: "2023-01-05", Description: "A", Amount: decimal.NewFromInt(-1), Category: "Sale", Source: "a.csv"},
		{Date: "Jan 6, 2023", Description: "B", Amount: decimal.NewFromInt(2), Source: "a.csv"},
	}

	txs, err := toTransactions(records, rs)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.Transaction{
		Date:        time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "A",
		Amount:      decimal.NewFromInt(-1),
		Category:    "Sale",
		Source:      "a.csv",
	}, txs[0])
	assert.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), txs[1].Date)

	_, err = toTransactions(models.RecordSet{{Date: "", Source: "a.csv"}}, rs)
	assert.True(t, errors.Is(err, parsererror.ErrMalformedDate))
}
