package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/money"
)

// Product is the shape returned by the product lookup collaborator. Catalog
// maintenance happens outside this service.
type Product struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	PriceCents     money.Money     `json:"price_cents"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Active         bool            `json:"active"`
}

// CartLine is one product line on a cart. UnitPriceCents may diverge from
// CatalogPriceCents only through an explicit price override, flagged so line
// history can distinguish an override from a catalog change.
type CartLine struct {
	ID                  string          `json:"id"`
	ProductCode         string          `json:"product_code"`
	Name                string          `json:"name"`
	UnitPriceCents      money.Money     `json:"unit_price_cents"`
	CatalogPriceCents   money.Money     `json:"catalog_price_cents"`
	PriceOverridden     bool            `json:"price_overridden"`
	Quantity            decimal.Decimal `json:"quantity"`
	LineDiscountPercent decimal.Decimal `json:"line_discount_percent"`
	TaxRatePercent      decimal.Decimal `json:"tax_rate_percent"`
}

// GrossAmount is unit price × quantity as an unrounded minor-unit
// intermediate.
func (l CartLine) GrossAmount() decimal.Decimal {
	return l.UnitPriceCents.Mul(l.Quantity)
}

func (l CartLine) DiscountAmount() decimal.Decimal {
	return money.Percent(l.GrossAmount(), l.LineDiscountPercent)
}

func (l CartLine) NetAmount() decimal.Decimal {
	return l.GrossAmount().Sub(l.DiscountAmount())
}

const (
	CartStatusDraft     = "draft"
	CartStatusSuspended = "suspended"
	CartStatusCompleted = "completed"
	CartStatusVoided    = "voided"
)

const (
	SaleTypeRetail   = "retail"
	SaleTypeDelivery = "delivery"
)

// Cart is an in-progress or completed sale transaction. Totals are
// recomputed from the lines after every mutating command; they are never
// edited directly.
type Cart struct {
	ID                  string          `json:"id"`
	StoreID             string          `json:"store_id"`
	TerminalID          string          `json:"terminal_id"`
	ShiftID             string          `json:"shift_id"`
	Status              string          `json:"status"`
	Lines               []CartLine      `json:"lines"`
	BillDiscountPercent decimal.Decimal `json:"bill_discount_percent"`
	OtherChargesCents   money.Money     `json:"other_charges_cents"`
	ReturnAmountCents   money.Money     `json:"return_amount_cents"`
	Notes               string          `json:"notes,omitempty"`
	CustomerRef         string          `json:"customer_ref,omitempty"`
	SaleType            string          `json:"sale_type"`
	Totals              CartTotals      `json:"totals"`
	ChangeDueCents      money.Money     `json:"change_due_cents"`
	CreatedAt           time.Time       `json:"created_at"`
	SuspendedAt         *time.Time      `json:"suspended_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	VoidedAt            *time.Time      `json:"voided_at,omitempty"`
	VoidReason          string          `json:"void_reason,omitempty"`
}

// CartTotals is the reconciled breakdown of a cart. The identity
// total = subtotal − total_discount + tax + other_charges − return_amount +
// round_off holds exactly in integer minor units.
type CartTotals struct {
	SubtotalCents      money.Money `json:"subtotal_cents"`
	TotalDiscountCents money.Money `json:"total_discount_cents"`
	TaxCents           money.Money `json:"tax_cents"`
	OtherChargesCents  money.Money `json:"other_charges_cents"`
	ReturnAmountCents  money.Money `json:"return_amount_cents"`
	RoundOffCents      money.Money `json:"round_off_cents"`
	TotalCents         money.Money `json:"total_cents"`
}

type Payment struct {
	Method      string      `json:"method"`
	AmountCents money.Money `json:"amount_cents"`
	Reference   string      `json:"reference,omitempty"`
	RecordedAt  time.Time   `json:"recorded_at"`
}

// TenderSession accumulates payments against one draft cart.
type TenderSession struct {
	CartID         string      `json:"cart_id"`
	Payments       []Payment   `json:"payments"`
	ChangeDueCents money.Money `json:"change_due_cents"`
}

func (t TenderSession) PaidCents() money.Money {
	var paid money.Money
	for _, p := range t.Payments {
		paid = paid.Add(p.AmountCents)
	}
	return paid
}

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

type Shift struct {
	ID                string      `json:"id"`
	StoreID           string      `json:"store_id"`
	TerminalID        string      `json:"terminal_id"`
	CashierName       string      `json:"cashier_name"`
	OpeningFloatCents money.Money `json:"opening_float_cents"`
	Status            string      `json:"status"`
	SettlementID      string      `json:"settlement_id,omitempty"`
	OpenedAt          time.Time   `json:"opened_at"`
	ClosedAt          *time.Time  `json:"closed_at,omitempty"`
}

const (
	SettlementStatusPending   = "pending"
	SettlementStatusCompleted = "completed"
)

const (
	AdjustmentAdd      = "add"
	AdjustmentSubtract = "subtract"
)

// SettlementAdjustment is a recorded correction. It is reported separately
// from variance so an auditor can tell a drawer discrepancy from an applied
// correction.
type SettlementAdjustment struct {
	ID          string      `json:"id"`
	Direction   string      `json:"direction"`
	AmountCents money.Money `json:"amount_cents"`
	Reason      string      `json:"reason"`
	CreatedAt   time.Time   `json:"created_at"`
}

type MethodTotal struct {
	Method       string      `json:"method"`
	Transactions int         `json:"transactions"`
	TotalCents   money.Money `json:"total_cents"`
}

// Settlement is one end-of-shift reconciliation attempt. Expected cash and
// the non-cash totals derive from the carts completed at or before
// SnapshotAt; carts completing later are flagged in LateCartIDs and belong
// to the next shift. Once Status is completed the record is immutable.
type Settlement struct {
	ID                 string                 `json:"id"`
	StoreID            string                 `json:"store_id"`
	ShiftID            string                 `json:"shift_id"`
	Status             string                 `json:"status"`
	SnapshotAt         time.Time              `json:"snapshot_at"`
	OpeningFloatCents  money.Money            `json:"opening_float_cents"`
	ExpectedCashCents  money.Money            `json:"expected_cash_cents"`
	CountedCashCents   money.Money            `json:"counted_cash_cents"`
	VarianceCents      money.Money            `json:"variance_cents"`
	AdjustmentNetCents money.Money            `json:"adjustment_net_cents"`
	NonCashTotals      []MethodTotal          `json:"non_cash_totals"`
	Adjustments        []SettlementAdjustment `json:"adjustments"`
	Tally              DenominationTally      `json:"tally"`
	SnapshotCartIDs    []string               `json:"snapshot_cart_ids"`
	LateCartIDs        []string               `json:"late_cart_ids,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	CompletedAt        *time.Time             `json:"completed_at,omitempty"`
}

// AdjustmentNet is additions minus subtractions across all recorded
// adjustments.
func (s Settlement) AdjustmentNet() money.Money {
	var net money.Money
	for _, adj := range s.Adjustments {
		if adj.Direction == AdjustmentSubtract {
			net = net.Sub(adj.AmountCents)
		} else {
			net = net.Add(adj.AmountCents)
		}
	}
	return net
}

type Actor struct {
	Username string
	Role     string
}

type AuditLog struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
