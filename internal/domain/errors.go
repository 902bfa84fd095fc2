package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors: returned synchronously, the caller corrects input and
// retries. Never logged as incidents.
var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPayment    = errors.New("invalid payment")
	ErrInvalidAdjustment = errors.New("invalid adjustment")
	ErrInvalidCount      = errors.New("invalid denomination count")
	ErrInvalidSaleType   = errors.New("invalid sale type")
	ErrReasonRequired    = errors.New("reason required")
)

// State errors: a precondition does not hold; the caller recovers by
// choosing a different action.
var (
	ErrAlreadyCompleted    = errors.New("already completed")
	ErrNoActiveTransaction = errors.New("no active transaction")
	ErrDraftCartExists     = errors.New("draft cart already active on terminal")
	ErrPaymentsRecorded    = errors.New("payments already recorded")
	ErrEmptyCart           = errors.New("cart has no lines")
)

// Financial errors: expected and recoverable, the caller prompts for more
// tender.
var ErrInsufficientPayment = errors.New("insufficient payment")

// BlockingItem identifies one cart preventing settlement completion.
type BlockingItem struct {
	Kind       string `json:"kind"` // suspended_cart or draft_cart
	CartID     string `json:"cart_id"`
	TerminalID string `json:"terminal_id"`
}

// SettlementBlockedError reports every item the caller must resolve before
// retrying completion. The list is reported, never silently bypassed.
type SettlementBlockedError struct {
	Reason        string         `json:"reason"`
	BlockingItems []BlockingItem `json:"blocking_items"`
}

func (e *SettlementBlockedError) Error() string {
	ids := make([]string, 0, len(e.BlockingItems))
	for _, item := range e.BlockingItems {
		ids = append(ids, fmt.Sprintf("%s:%s", item.Kind, item.CartID))
	}
	return fmt.Sprintf("settlement blocked: %s [%s]", e.Reason, strings.Join(ids, ", "))
}
