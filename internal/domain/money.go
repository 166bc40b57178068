package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatMoney renders an amount in major units with two decimals, e.g. "$5.20".
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
