package domain

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is the zero-decimal currency used across the checkout pipeline.
const DefaultCurrency = "XOF"

var frenchPrinter = message.NewPrinter(language.French)

// FormatAmount renders a minor-unit amount with French digit grouping, e.g.
// 13999 -> "13 999 F CFA". XOF is zero-decimal so no fractional part exists.
func FormatAmount(amount int64, currency string) string {
	suffix := currencySuffix(currency)
	formatted := frenchPrinter.Sprintf("%d", amount)
	if suffix == "" {
		return formatted
	}
	return formatted + " " + suffix
}

func currencySuffix(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "XOF", "XAF":
		return "F CFA"
	case "EUR":
		return "€"
	default:
		return strings.ToUpper(strings.TrimSpace(currency))
	}
}
