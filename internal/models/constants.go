package models

// Canonical column names of the transaction table.
const (
	ColumnDate        = "Date"
	ColumnDescription = "Description"
	ColumnAmount      = "Amount"
	ColumnCategory    = "Category"
)

// CanonicalColumns lists the canonical columns in table order.
var CanonicalColumns = []string{ColumnDate, ColumnDescription, ColumnAmount, ColumnCategory}

// Built-in category names.
const (
	CategoryAutomotive    = "Automotive"
	CategoryCash          = "Cash"
	CategoryEntertainment = "Entertainment"
	CategoryGroceries     = "Groceries"
	CategoryHealthcare    = "Healthcare"
	CategoryIncome        = "Income"
	CategoryOther         = "Other"
	CategoryRestaurants   = "Restaurants"
	CategoryRetail        = "Retail"
	CategoryTransfer      = "Transfer"

	// CategoryIgnore is the reserved pseudo-category listing categories whose
	// records are dropped. It is never assigned to a record.
	CategoryIgnore = "Ignore"

	// LabelTotal is the summary row appended to per-category sums.
	LabelTotal = "Total"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
