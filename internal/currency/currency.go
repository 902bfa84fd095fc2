// Package currency renders monetary amounts for display. Formatting is a
// pure projection of minor-unit values and never feeds back into total
// computation.
package currency

import (
	"fmt"
	"strings"

	"tillpoint/backend/internal/money"
)

type Formatter interface {
	Format(amount money.Money) string
}

// SymbolFormatter prefixes a currency symbol and groups thousands, e.g.
// 1234567 cents → "$12,345.67".
type SymbolFormatter struct {
	Symbol string
}

func (f SymbolFormatter) Format(amount money.Money) string {
	sign := ""
	v := int64(amount)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, f.Symbol, groupThousands(v/100), v%100)
}

func groupThousands(v int64) string {
	digits := fmt.Sprintf("%d", v)
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
