// Package currencyutils provides locale-aware parsing of monetary amount
// strings into decimals.
package currencyutils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a string representation of an amount into a decimal.
// It handles both separator conventions: "1.234,56" and "1,234.56".
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount string")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts the common bank-export amount formats into a
// form decimal.NewFromString accepts.
//
// When both comma and period appear, whichever occurs last is the decimal
// separator: "1.234,56" -> "1234.56" and "1,234.56" -> "1234.56". A lone
// comma is always a decimal separator ("123,45" -> "123.45"). Currency
// symbols and whitespace, including non-breaking spaces, are stripped.
func StandardizeAmount(amountStr string) string {
	cleaned := strings.TrimSpace(amountStr)

	// Strip currency symbols and all whitespace (incl. NBSP)
	replacer := strings.NewReplacer(
		"€", "", "$", "", "£", "",
		" ", "", " ", "", "\t", "",
	)
	cleaned = replacer.Replace(cleaned)

	hasComma := strings.Contains(cleaned, ",")
	hasPeriod := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European style: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// English style: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	return cleaned
}

// FormatAmount formats a decimal with two decimal places and a currency
// symbol where one is well known.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)

	switch strings.ToUpper(currency) {
	case "EUR":
		return formatted + "€"
	case "USD":
		return "$" + formatted
	case "GBP":
		return "£" + formatted
	case "":
		return formatted
	default:
		return currency + " " + formatted
	}
}
