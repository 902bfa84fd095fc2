package store

import (
	"context"
	"errors"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/money"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Repository is the persistence collaborator for the engine. Implementations
// must make CompleteCart and CompleteSettlement compare-and-set on status so
// duplicate completion attempts surface as domain.ErrAlreadyCompleted rather
// than a second financial record, and must keep SaveCart from creating a
// second draft for the same terminal (ErrConflict).
type Repository interface {
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetActiveShift(ctx context.Context, storeID string, terminalID string) (*domain.Shift, error)
	GetShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error)
	CloseShift(ctx context.Context, shiftID string, settlementID string, closedAt time.Time) (*domain.Shift, error)

	SaveCart(ctx context.Context, cart domain.Cart) (*domain.Cart, error)
	GetCartByID(ctx context.Context, cartID string) (*domain.Cart, error)
	GetDraftCart(ctx context.Context, storeID string, terminalID string) (*domain.Cart, error)
	ListSuspendedCarts(ctx context.Context, storeID string) ([]domain.Cart, error)
	ListCartsByShiftAndStatus(ctx context.Context, shiftID string, status string) ([]domain.Cart, error)
	ListCompletedCarts(ctx context.Context, shiftID string, asOf time.Time) ([]domain.Cart, error)
	ListCompletedCartsAfter(ctx context.Context, shiftID string, after time.Time) ([]domain.Cart, error)
	CompleteCart(ctx context.Context, cartID string, changeDue money.Money, completedAt time.Time) (*domain.Cart, error)
	VoidCart(ctx context.Context, cartID string, reason string, voidedAt time.Time) (*domain.Cart, error)

	GetTenderSession(ctx context.Context, cartID string) (*domain.TenderSession, error)
	SaveTenderSession(ctx context.Context, session domain.TenderSession) error

	CreateSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error)
	GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error)
	GetPendingSettlement(ctx context.Context, shiftID string) (*domain.Settlement, error)
	UpdatePendingSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error)
	CompleteSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
