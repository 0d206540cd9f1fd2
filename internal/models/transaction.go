package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the canonical table.
// Amount is signed: negative is an outflow, positive an inflow.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
	Source      string
}

// IsOutflow reports whether the transaction spends money.
func (t Transaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// IsInflow reports whether the transaction brings money in.
func (t Transaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// TransactionRow is the flat CSV form of a Transaction.
type TransactionRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
}

// ToRow formats the transaction with an ISO date and two-decimal amount.
func (t Transaction) ToRow() TransactionRow {
	return TransactionRow{
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Category:    t.Category,
	}
}
