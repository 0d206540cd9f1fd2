// Package models provides the data structures shared by the ingestion
// pipeline, the cache and the reports.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row produced by a format parser: canonical columns, with the
// date still in its source representation.
type Record struct {
	Date        string
	Description string
	Amount      decimal.Decimal
	Category    string
	Source      string // file the row was read from
}

// RecordSet is the output of a single rule set.
type RecordSet []Record

// CanonicalTable is the merged, date-sorted and categorized set of
// transactions across every rule set.
type CanonicalTable struct {
	RunID        string
	CreatedAt    time.Time
	Transactions []Transaction
}

// Len returns the number of transactions in the table.
func (t CanonicalTable) Len() int {
	return len(t.Transactions)
}

// DateRange returns the first and last transaction dates. Both are zero for an empty table.
func (t CanonicalTable) DateRange() (time.Time, time.Time) {
	if len(t.Transactions) == 0 {
		return time.Time{}, time.Time{}
	}
	return t.Transactions[0].Date, t.Transactions[len(t.Transactions)-1].Date
}

// WithTransactions returns a copy of the table metadata holding txs.
func (t CanonicalTable) WithTransactions(txs []Transaction) CanonicalTable {
	return CanonicalTable{RunID: t.RunID, CreatedAt: t.CreatedAt, Transactions: txs}
}
