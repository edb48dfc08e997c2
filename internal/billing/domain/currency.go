package domain

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount renders an amount in its currency, with a symbol and thousands
// separators, e.g. FormatAmount("PHP", 15700) == "₱15,700.00". Non-finite
// amounts render as zero.
func FormatAmount(currency string, amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	symbol := "₱"
	if strings.EqualFold(strings.TrimSpace(currency), "USD") {
		symbol = "$"
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}

	formatted := groupThousands(fmt.Sprintf("%.2f", amount))
	if negative {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

func groupThousands(s string) string {
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String() + frac
}
