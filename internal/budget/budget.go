// Package budget loads the user's budget and compares it with the actual net
// cashflow per category.
package budget

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"fjacquet/tally/internal/analysis"
	"fjacquet/tally/internal/models"
	"fjacquet/tally/internal/parsererror"
	"fjacquet/tally/internal/taxonomy"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Load reads the budget at path. Each category maps to a number, a list of
// numbers or a mapping of named numbers, which are summed. Categories outside
// the taxonomy accumulate into Other. Every figure is an outflow except
// Income. A Total row follows and ignored categories are left out. A missing
// file yields an all-zero budget.
func Load(path string, tax *taxonomy.Taxonomy) (analysis.Sums, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return build(nil, tax), nil
		}
		return nil, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}
	return Parse(path, data, tax)
}

// Parse builds the budget from the YAML document data read from path.
func Parse(path string, data []byte, tax *taxonomy.Taxonomy) (analysis.Sums, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &parsererror.ConfigParseError{FilePath: path, Err: err}
	}

	planned := make(map[string]decimal.Decimal)
	// sorted so Other accumulates deterministically
	categories := make([]string, 0, len(doc))
	for category := range doc {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		node := doc[category]
		total, err := sumNode(&node)
		if err != nil {
			return nil, &parsererror.ConfigParseError{
				FilePath: path,
				Err:      fmt.Errorf("line %d: %s: %w", node.Line, category, err),
			}
		}
		if !tax.IsKnown(category) {
			category = models.CategoryOther
		}
		planned[category] = planned[category].Add(total)
	}
	return build(planned, tax), nil
}

// sumNode adds up a number, a list of numbers or a mapping of named numbers.
func sumNode(node *yaml.Node) (decimal.Decimal, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return decimal.Zero, nil
		}
		if node.Tag != "!!int" && node.Tag != "!!float" {
			return decimal.Zero, fmt.Errorf("%q is not a number", node.Value)
		}
		return decimal.NewFromString(node.Value)
	case yaml.SequenceNode:
		total := decimal.Zero
		for _, item := range node.Content {
			v, err := sumNode(item)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(v)
		}
		return total, nil
	case yaml.MappingNode:
		total := decimal.Zero
		for i := 1; i < len(node.Content); i += 2 {
			v, err := sumNode(node.Content[i])
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(v)
		}
		return total, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported value")
}

func build(planned map[string]decimal.Decimal, tax *taxonomy.Taxonomy) analysis.Sums {
	out := make(analysis.Sums, 0, len(tax.Categories())+1)
	total := decimal.Zero
	for _, category := range tax.Categories() {
		amount := planned[category].Abs()
		if category != models.CategoryIncome {
			amount = amount.Neg()
		}
		total = total.Add(amount)
		if tax.IsIgnored(category) {
			continue
		}
		out = append(out, analysis.Sum{Label: category, Amount: amount})
	}
	return append(out, analysis.Sum{Label: models.LabelTotal, Amount: total})
}

// Labels returns the category labels a budget built from tax carries, in
// order and without Total.
func Labels(tax *taxonomy.Taxonomy) []string {
	var labels []string
	for _, category := range tax.Categories() {
		if !tax.IsIgnored(category) {
			labels = append(labels, category)
		}
	}
	return labels
}

// Comparison pairs the actual and budgeted amount for one label.
type Comparison struct {
	Label      string
	Actual     decimal.Decimal
	Budget     decimal.Decimal
	Difference decimal.Decimal // Actual - Budget
}

// Compare lines actual up against planned, in actual's order. Both must
// carry the same labels, otherwise a LabelMismatchError is returned.
func Compare(actual, planned analysis.Sums) ([]Comparison, error) {
	onlyActual := missing(actual, planned)
	onlyBudget := missing(planned, actual)
	if len(onlyActual) > 0 || len(onlyBudget) > 0 {
		return nil, &parsererror.LabelMismatchError{OnlyActual: onlyActual, OnlyBudget: onlyBudget}
	}

	out := make([]Comparison, 0, len(actual))
	for _, a := range actual {
		b, _ := planned.Get(a.Label)
		out = append(out, Comparison{Label: a.Label, Actual: a.Amount, Budget: b, Difference: a.Amount.Sub(b)})
	}
	return out, nil
}

// missing returns the labels of a absent from b.
func missing(a, b analysis.Sums) []string {
	var out []string
	for _, s := range a {
		if _, ok := b.Get(s.Label); !ok {
			out = append(out, s.Label)
		}
	}
	return out
}
