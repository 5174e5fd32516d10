package constants

import "strings"

// AllowedCurrencies is the ISO 4217 allow-list used by the compliance scorer.
var AllowedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "INR": {}, "AED": {},
	"SGD": {}, "AUD": {}, "CAD": {}, "JPY": {}, "CNY": {},
}

// AllowedCurrency reports whether code (any case, surrounding space ok) is allow-listed.
func AllowedCurrency(code string) bool {
	_, ok := AllowedCurrencies[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}
