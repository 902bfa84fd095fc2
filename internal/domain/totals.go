package domain

import (
	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/money"
)

// ComputeTotals derives the full totals breakdown from a cart's lines and
// bill-level fields. It is a pure function: callers invoke it after every
// mutating command and store the result, so a cart never carries stale
// totals.
//
// Tax is computed after all discounts. Each line is taxed at its own rate on
// its net amount reduced by the bill discount, so per-line rates and a
// single blended rate both fall out of the same formula. All arithmetic
// stays in decimal minor-unit intermediates; each reported component is
// rounded once, and round_off closes the gap between the rounded components
// and the rounded grand total.
func ComputeTotals(c Cart) CartTotals {
	gross := decimal.Zero
	lineDiscount := decimal.Zero
	tax := decimal.Zero

	for _, line := range c.Lines {
		lineGross := line.GrossAmount()
		lineDisc := line.DiscountAmount()
		net := lineGross.Sub(lineDisc)
		taxable := net.Sub(money.Percent(net, c.BillDiscountPercent))
		tax = tax.Add(money.Percent(taxable, line.TaxRatePercent))
		gross = gross.Add(lineGross)
		lineDiscount = lineDiscount.Add(lineDisc)
	}

	netAfterLines := gross.Sub(lineDiscount)
	billDiscount := money.Percent(netAfterLines, c.BillDiscountPercent)
	totalDiscount := lineDiscount.Add(billDiscount)

	exact := gross.Sub(totalDiscount).Add(tax).
		Add(c.OtherChargesCents.Decimal()).
		Sub(c.ReturnAmountCents.Decimal())

	subtotal := money.FromDecimal(gross)
	discount := money.FromDecimal(totalDiscount)
	taxCents := money.FromDecimal(tax)
	total := money.FromDecimal(exact)

	preRound := subtotal.Sub(discount).Add(taxCents).
		Add(c.OtherChargesCents).Sub(c.ReturnAmountCents)

	return CartTotals{
		SubtotalCents:      subtotal,
		TotalDiscountCents: discount,
		TaxCents:           taxCents,
		OtherChargesCents:  c.OtherChargesCents,
		ReturnAmountCents:  c.ReturnAmountCents,
		RoundOffCents:      total.Sub(preRound),
		TotalCents:         total,
	}
}
