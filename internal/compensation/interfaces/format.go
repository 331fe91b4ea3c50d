package interfaces

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders v as pt-BR currency with 2 decimals, e.g. "R$ 1.234,56".
func FormatCurrency(v float64) string {
	text := formatFixed(v, 2)
	if strings.HasPrefix(text, "-") {
		return "-R$ " + text[1:]
	}
	return "R$ " + text
}

// FormatTariff renders a unit tariff with 5 decimals, e.g. "R$ 0,49723".
func FormatTariff(v float64) string {
	text := formatFixed(v, 5)
	if strings.HasPrefix(text, "-") {
		return "-R$ " + text[1:]
	}
	return "R$ " + text
}

// FormatPercent renders a percentage with 2 decimals, e.g. "12,85%".
func FormatPercent(v float64) string {
	return formatFixed(v, 2) + "%"
}

// FormatKWh renders energy with up to 2 decimals, e.g. "1.234,5 kWh".
func FormatKWh(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	text := d.String()
	intPart, frac, _ := strings.Cut(text, ".")
	return groupThousands(intPart) + joinFraction(frac) + " kWh"
}

func formatFixed(v float64, places int32) string {
	text := decimal.NewFromFloat(v).Round(places).StringFixed(places)
	intPart, frac, _ := strings.Cut(text, ".")
	return groupThousands(intPart) + joinFraction(frac)
}

func joinFraction(frac string) string {
	if frac == "" {
		return ""
	}
	return "," + frac
}

func groupThousands(intPart string) string {
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	if len(intPart) <= 3 {
		return sign + intPart
	}
	var b strings.Builder
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String()
}
