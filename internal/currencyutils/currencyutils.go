// Package currencyutils converts the amount strings found in bank exports
// into decimals.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// thousands matches amounts grouped with commas, like 1,234 or 12,345.67.
var thousands = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseAmount parses an amount such as "-4.50", "$12.00", "-$1,234.56" or
// "(12.00)". A leading currency symbol is stripped and a parenthesized value
// is negative. Empty or otherwise non-numeric input is an error.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized, err := StandardizeAmount(amountStr)
	if err != nil {
		return decimal.Zero, err
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount rewrites amountStr into a form decimal.NewFromString accepts.
func StandardizeAmount(amountStr string) (string, error) {
	s := strings.TrimSpace(amountStr)
	if s == "" {
		return "", fmt.Errorf("empty amount")
	}

	// at most one of: parentheses, a leading sign, a sign after the symbol
	markers := 0
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		markers++
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		markers++
		negative = negative || s[0] == '-'
		s = s[1:]
	}

	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	// "$-4.50" puts the sign after the symbol
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		markers++
		negative = negative || s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}

	if markers > 1 {
		return "", fmt.Errorf("more than one sign in amount '%s'", amountStr)
	}

	if thousands.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return "", fmt.Errorf("no digits in amount '%s'", amountStr)
	}

	if negative {
		return "-" + s, nil
	}
	return s, nil
}

// FormatAmount formats amount with two decimals and a leading dollar sign on
// the absolute value, e.g. "-$4.50".
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}
