// Package analysis derives the summaries reported on the canonical table:
// date-range selection, share of spending per category and net cashflow per
// category.
package analysis

import (
	"sort"
	"time"

	"fjacquet/tally/internal/dateutils"
	"fjacquet/tally/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FilterBetween returns the transactions dated from..to, both inclusive at
// day granularity.
func FilterBetween(txs []models.Transaction, from, to time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if dateutils.CompareDates(tx.Date, from) >= 0 && dateutils.CompareDates(tx.Date, to) <= 0 {
			out = append(out, tx)
		}
	}
	return out
}

// LastNDays returns the range from n days before now up to now.
func LastNDays(now time.Time, n int) (time.Time, time.Time) {
	return dateutils.DaysAgo(now, n)
}

// Share is one category's part of total spending.
type Share struct {
	Category string
	Amount   decimal.Decimal // absolute amount spent
	Percent  decimal.Decimal
}

// Percentages returns each category's share of total outflow; inflows are
// ignored. Categories under minPercent are folded into Other. The result is
// ordered by category name and is empty when nothing was spent.
func Percentages(txs []models.Transaction, minPercent decimal.Decimal) []Share {
	spent := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range txs {
		if !tx.IsOutflow() {
			continue
		}
		amount := tx.Amount.Abs()
		spent[tx.Category] = spent[tx.Category].Add(amount)
		total = total.Add(amount)
	}
	if total.IsZero() {
		return nil
	}

	percentOf := func(amount decimal.Decimal) decimal.Decimal {
		return amount.Mul(hundred).Div(total)
	}

	shares := make(map[string]decimal.Decimal, len(spent))
	for category, amount := range spent {
		if category != models.CategoryOther && percentOf(amount).LessThan(minPercent) {
			shares[models.CategoryOther] = shares[models.CategoryOther].Add(amount)
			continue
		}
		shares[category] = shares[category].Add(amount)
	}

	out := make([]Share, 0, len(shares))
	for category, amount := range shares {
		out = append(out, Share{Category: category, Amount: amount, Percent: percentOf(amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Sum is a labelled amount.
type Sum struct {
	Label  string
	Amount decimal.Decimal
}

// Sums is an ordered set of labelled amounts.
type Sums []Sum

// Get returns the amount for label.
func (s Sums) Get(label string) (decimal.Decimal, bool) {
	for _, sum := range s {
		if sum.Label == label {
			return sum.Amount, true
		}
	}
	return decimal.Zero, false
}

// Labels returns the labels in order.
func (s Sums) Labels() []string {
	out := make([]string, len(s))
	for i, sum := range s {
		out[i] = sum.Label
	}
	return out
}

// CategorySums returns the net amount per label, zero for labels without
// transactions, followed by a Total row. Transactions whose category is not
// among labels count towards Total only.
func CategorySums(txs []models.Transaction, labels []string) Sums {
	net := make(map[string]decimal.Decimal, len(labels))
	total := decimal.Zero
	for _, tx := range txs {
		net[tx.Category] = net[tx.Category].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	out := make(Sums, 0, len(labels)+1)
	for _, label := range labels {
		out = append(out, Sum{Label: label, Amount: net[label]})
	}
	return append(out, Sum{Label: models.LabelTotal, Amount: total})
}

// Consolidate folds every row other than Other and Total whose absolute
// amount is under minPercent of the summed absolute amounts into Other. Row
// order is kept.
func Consolidate(sums Sums, minPercent decimal.Decimal) Sums {
	if !minPercent.IsPositive() {
		return sums
	}

	gross := decimal.Zero
	for _, s := range sums {
		if s.Label != models.LabelTotal {
			gross = gross.Add(s.Amount.Abs())
		}
	}
	if gross.IsZero() {
		return sums
	}

	folded := decimal.Zero
	out := make(Sums, 0, len(sums))
	for _, s := range sums {
		if s.Label != models.LabelTotal && s.Label != models.CategoryOther &&
			s.Amount.Abs().Mul(hundred).Div(gross).LessThan(minPercent) {
			folded = folded.Add(s.Amount)
			continue
		}
		out = append(out, s)
	}

	for i, s := range out {
		if s.Label == models.CategoryOther {
			out[i].Amount = s.Amount.Add(folded)
			return out
		}
	}
	other := Sum{Label: models.CategoryOther, Amount: folded}
	if n := len(out); n > 0 && out[n-1].Label == models.LabelTotal {
		return append(out[:n-1], other, out[n-1])
	}
	return append(out, other)
}
