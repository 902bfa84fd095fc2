package domain

import (
	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/money"
)

type ShiftOpenRequest struct {
	StoreID           string      `json:"store_id"`
	TerminalID        string      `json:"terminal_id"`
	CashierName       string      `json:"cashier_name"`
	OpeningFloatCents money.Money `json:"opening_float_cents"`
}

type ShiftResponse struct {
	Shift Shift `json:"shift"`
}

type StartCartRequest struct {
	StoreID     string `json:"store_id"`
	TerminalID  string `json:"terminal_id"`
	SaleType    string `json:"sale_type"`
	CustomerRef string `json:"customer_ref,omitempty"`
}

type CartResponse struct {
	Cart Cart `json:"cart"`
}

type AddLineRequest struct {
	StoreID     string          `json:"store_id"`
	TerminalID  string          `json:"terminal_id"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// LineUpdateRequest mutates one line. Nil fields are left untouched. Setting
// UnitPriceCents records an explicit price override.
type LineUpdateRequest struct {
	StoreID         string           `json:"store_id"`
	TerminalID      string           `json:"terminal_id"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	UnitPriceCents  *money.Money     `json:"unit_price_cents,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
}

type BillDiscountRequest struct {
	StoreID    string          `json:"store_id"`
	TerminalID string          `json:"terminal_id"`
	Percent    decimal.Decimal `json:"percent"`
}

// CartDetailsRequest updates bill-level fields. Nil fields are untouched.
type CartDetailsRequest struct {
	StoreID           string       `json:"store_id"`
	TerminalID        string       `json:"terminal_id"`
	Notes             *string      `json:"notes,omitempty"`
	CustomerRef       *string      `json:"customer_ref,omitempty"`
	SaleType          *string      `json:"sale_type,omitempty"`
	OtherChargesCents *money.Money `json:"other_charges_cents,omitempty"`
	ReturnAmountCents *money.Money `json:"return_amount_cents,omitempty"`
}

type SuspendCartRequest struct {
	StoreID    string `json:"store_id"`
	TerminalID string `json:"terminal_id"`
	Note       string `json:"note,omitempty"`
}

type SuspendCartResponse struct {
	HeldID string `json:"held_id"`
	Cart   Cart   `json:"cart"`
}

type SuspendedCartListResponse struct {
	Items []Cart `json:"items"`
}

type ResumeCartRequest struct {
	TerminalID string `json:"terminal_id"`
}

type VoidCartRequest struct {
	StoreID    string `json:"store_id"`
	TerminalID string `json:"terminal_id"`
	Reason     string `json:"reason"`
}

type PaymentRequest struct {
	StoreID     string      `json:"store_id"`
	TerminalID  string      `json:"terminal_id"`
	Method      string      `json:"method"`
	AmountCents money.Money `json:"amount_cents"`
	Reference   string      `json:"reference,omitempty"`
}

type TenderResponse struct {
	Tender TenderSession `json:"tender"`
	Cart   Cart          `json:"cart"`
}

// CompleteCartRequest finalizes the draft on a lane. CartID, when set, pins
// the attempt to one specific cart so a retried request after a timeout
// reports the earlier completion instead of resolving to whatever draft now
// occupies the lane.
type CompleteCartRequest struct {
	StoreID    string `json:"store_id"`
	TerminalID string `json:"terminal_id"`
	CartID     string `json:"cart_id,omitempty"`
}

type CompleteCartResponse struct {
	Cart           Cart        `json:"cart"`
	PaidCents      money.Money `json:"paid_cents"`
	ChangeDueCents money.Money `json:"change_due_cents"`
}

type BeginSettlementRequest struct {
	StoreID string `json:"store_id"`
	ShiftID string `json:"shift_id"`
}

type SettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type CashCountRequest struct {
	Counts []DenominationCount `json:"counts"`
}

type AdjustmentRequest struct {
	Direction   string      `json:"direction"`
	AmountCents money.Money `json:"amount_cents"`
	Reason      string      `json:"reason"`
}

type CompleteSettlementRequest struct {
	Notes string `json:"notes"`
}

// ShiftSalesSummary aggregates a shift's completed carts by tender method.
// It backs the settlement's non-cash cross-check against the external
// processor report.
type ShiftSalesSummary struct {
	ShiftID         string        `json:"shift_id"`
	Transactions    int           `json:"transactions"`
	GrossSalesCents money.Money   `json:"gross_sales_cents"`
	DiscountCents   money.Money   `json:"discount_cents"`
	TaxCents        money.Money   `json:"tax_cents"`
	TotalCents      money.Money   `json:"total_cents"`
	ByMethod        []MethodTotal `json:"by_method"`
}

type ReceiptResponse struct {
	CartID       string `json:"cart_id"`
	EscposBase64 string `json:"escpos_base64"`
	PreviewText  string `json:"preview_text"`
	FileName     string `json:"file_name"`
}
