package utils

import (
	"strconv"
	"strings"
)

// FormatMoney renders whole amounts with dot thousand separators and the
// currency label in front: "USD 144.000".
func FormatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	out := sign + formatThousand(amount)
	if c := strings.TrimSpace(currency); c != "" {
		return c + " " + out
	}
	return out
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(c)
	}
	return out.String()
}
