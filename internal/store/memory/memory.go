package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/money"
	"tillpoint/backend/internal/store"
)

// Store is a mutex-guarded in-memory Repository used for development and
// tests. All returned values are clones so callers can never mutate shared
// state behind the lock.
type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	cartsByID        map[string]domain.Cart
	draftByTerminal  map[string]string
	tendersByCart    map[string]domain.TenderSession
	shiftsByID       map[string]domain.Shift
	activeShiftByKey map[string]string
	settlementsByID  map[string]domain.Settlement
	pendingByShift   map[string]string
	auditLogs        []domain.AuditLog
}

func New() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		cartsByID:        make(map[string]domain.Cart),
		draftByTerminal:  make(map[string]string),
		tendersByCart:    make(map[string]domain.TenderSession),
		shiftsByID:       make(map[string]domain.Shift),
		activeShiftByKey: make(map[string]string),
		settlementsByID:  make(map[string]domain.Settlement),
		pendingByShift:   make(map[string]string),
		auditLogs:        make([]domain.AuditLog, 0, 128),
	}
}

// NewSeeded returns a store preloaded with a small demo catalog.
func NewSeeded() *Store {
	tenPct := decimal.NewFromInt(10)
	fivePct := decimal.NewFromInt(5)

	products := []domain.Product{
		{Code: "PRD-RICE-01", Name: "Basmati Rice 1kg", PriceCents: 12500, TaxRatePercent: fivePct, Active: true},
		{Code: "PRD-OIL-01", Name: "Sunflower Oil 1L", PriceCents: 16900, TaxRatePercent: fivePct, Active: true},
		{Code: "PRD-SOAP-01", Name: "Bath Soap", PriceCents: 4200, TaxRatePercent: tenPct, Active: true},
		{Code: "PRD-TEA-01", Name: "Tea Leaves 250g", PriceCents: 9800, TaxRatePercent: fivePct, Active: true},
		{Code: "PRD-MILK-01", Name: "Milk 1L", PriceCents: 6200, TaxRatePercent: decimal.Zero, Active: true},
		{Code: "PRD-BISC-01", Name: "Butter Biscuits", PriceCents: 3500, TaxRatePercent: tenPct, Active: true},
		{Code: "PRD-SUGR-01", Name: "Sugar 1kg", PriceCents: 5400, TaxRatePercent: fivePct, Active: true},
		{Code: "PRD-SHMP-01", Name: "Shampoo 180ml", PriceCents: 11200, TaxRatePercent: tenPct, Active: true},
		{Code: "PRD-PEN-01", Name: "Ball Pen", PriceCents: 1000, TaxRatePercent: tenPct, Active: true},
		{Code: "PRD-CHOC-01", Name: "Chocolate Bar", PriceCents: 10000, TaxRatePercent: tenPct, Active: true},
	}

	s := New()
	for _, p := range products {
		s.products[p.Code] = p
	}
	return s
}

func terminalKey(storeID string, terminalID string) string {
	return storeID + "/" + terminalID
}

func (s *Store) GetProductByCode(_ context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[strings.ToUpper(strings.TrimSpace(code))]
	if !exists || !product.Active {
		return nil, store.ErrNotFound
	}
	found := product
	return &found, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return strings.Compare(a.Code, b.Code)
	})
	return products, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.ID == "" || shift.StoreID == "" || shift.TerminalID == "" {
		return nil, store.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := terminalKey(shift.StoreID, shift.TerminalID)
	if _, open := s.activeShiftByKey[key]; open {
		return nil, store.ErrConflict
	}

	s.shiftsByID[shift.ID] = shift
	s.activeShiftByKey[key] = shift.ID
	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(_ context.Context, storeID string, terminalID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, ok := s.activeShiftByKey[terminalKey(storeID, terminalID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	shift := s.shiftsByID[shiftID]
	return &shift, nil
}

func (s *Store) GetShiftByID(_ context.Context, shiftID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := shift
	return &found, nil
}

func (s *Store) CloseShift(_ context.Context, shiftID string, settlementID string, closedAt time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrConflict
	}

	shift.Status = domain.ShiftStatusClosed
	shift.SettlementID = settlementID
	shift.ClosedAt = &closedAt
	s.shiftsByID[shiftID] = shift
	delete(s.activeShiftByKey, terminalKey(shift.StoreID, shift.TerminalID))

	closed := shift
	return &closed, nil
}

func (s *Store) SaveCart(_ context.Context, cart domain.Cart) (*domain.Cart, error) {
	if cart.ID == "" || cart.StoreID == "" || cart.TerminalID == "" {
		return nil, store.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := terminalKey(cart.StoreID, cart.TerminalID)
	if cart.Status == domain.CartStatusDraft {
		if existing, busy := s.draftByTerminal[key]; busy && existing != cart.ID {
			return nil, store.ErrConflict
		}
		s.draftByTerminal[key] = cart.ID
	} else if s.draftByTerminal[key] == cart.ID {
		delete(s.draftByTerminal, key)
	}

	s.cartsByID[cart.ID] = cloneCart(cart)
	saved := cloneCart(cart)
	return &saved, nil
}

func (s *Store) GetCartByID(_ context.Context, cartID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.cartsByID[cartID]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := cloneCart(cart)
	return &found, nil
}

func (s *Store) GetDraftCart(_ context.Context, storeID string, terminalID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cartID, ok := s.draftByTerminal[terminalKey(storeID, terminalID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cart := cloneCart(s.cartsByID[cartID])
	return &cart, nil
}

func (s *Store) ListSuspendedCarts(_ context.Context, storeID string) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]domain.Cart, 0, 8)
	for _, cart := range s.cartsByID {
		if cart.StoreID != storeID || cart.Status != domain.CartStatusSuspended {
			continue
		}
		carts = append(carts, cloneCart(cart))
	}
	slices.SortFunc(carts, compareBySuspendedAt)
	return carts, nil
}

func (s *Store) ListCartsByShiftAndStatus(_ context.Context, shiftID string, status string) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]domain.Cart, 0, 8)
	for _, cart := range s.cartsByID {
		if cart.ShiftID != shiftID || cart.Status != status {
			continue
		}
		carts = append(carts, cloneCart(cart))
	}
	slices.SortFunc(carts, func(a, b domain.Cart) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return carts, nil
}

func (s *Store) ListCompletedCarts(_ context.Context, shiftID string, asOf time.Time) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]domain.Cart, 0, 32)
	for _, cart := range s.cartsByID {
		if cart.ShiftID != shiftID || cart.Status != domain.CartStatusCompleted || cart.CompletedAt == nil {
			continue
		}
		if !asOf.IsZero() && cart.CompletedAt.After(asOf) {
			continue
		}
		carts = append(carts, cloneCart(cart))
	}
	slices.SortFunc(carts, compareByCompletedAt)
	return carts, nil
}

func (s *Store) ListCompletedCartsAfter(_ context.Context, shiftID string, after time.Time) ([]domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]domain.Cart, 0, 4)
	for _, cart := range s.cartsByID {
		if cart.ShiftID != shiftID || cart.Status != domain.CartStatusCompleted || cart.CompletedAt == nil {
			continue
		}
		if !cart.CompletedAt.After(after) {
			continue
		}
		carts = append(carts, cloneCart(cart))
	}
	slices.SortFunc(carts, compareByCompletedAt)
	return carts, nil
}

func (s *Store) CompleteCart(_ context.Context, cartID string, changeDue money.Money, completedAt time.Time) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.cartsByID[cartID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if cart.Status == domain.CartStatusCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	if cart.Status != domain.CartStatusDraft {
		return nil, store.ErrConflict
	}

	cart.Status = domain.CartStatusCompleted
	cart.ChangeDueCents = changeDue
	cart.CompletedAt = &completedAt
	s.cartsByID[cartID] = cloneCart(cart)
	delete(s.draftByTerminal, terminalKey(cart.StoreID, cart.TerminalID))

	completed := cloneCart(cart)
	return &completed, nil
}

func (s *Store) VoidCart(_ context.Context, cartID string, reason string, voidedAt time.Time) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.cartsByID[cartID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if cart.Status == domain.CartStatusCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	if cart.Status != domain.CartStatusDraft {
		return nil, store.ErrConflict
	}

	cart.Status = domain.CartStatusVoided
	cart.VoidReason = reason
	cart.VoidedAt = &voidedAt
	s.cartsByID[cartID] = cloneCart(cart)
	delete(s.draftByTerminal, terminalKey(cart.StoreID, cart.TerminalID))

	voided := cloneCart(cart)
	return &voided, nil
}

func (s *Store) GetTenderSession(_ context.Context, cartID string) (*domain.TenderSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.tendersByCart[cartID]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := cloneTenderSession(session)
	return &found, nil
}

func (s *Store) SaveTenderSession(_ context.Context, session domain.TenderSession) error {
	if session.CartID == "" {
		return store.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tendersByCart[session.CartID] = cloneTenderSession(session)
	return nil
}

func (s *Store) CreateSettlement(_ context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	if settlement.ID == "" || settlement.ShiftID == "" {
		return nil, store.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.pendingByShift[settlement.ShiftID]; pending {
		return nil, store.ErrConflict
	}

	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	if settlement.Status == domain.SettlementStatusPending {
		s.pendingByShift[settlement.ShiftID] = settlement.ID
	}
	created := cloneSettlement(settlement)
	return &created, nil
}

func (s *Store) GetSettlementByID(_ context.Context, settlementID string) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settlement, exists := s.settlementsByID[settlementID]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := cloneSettlement(settlement)
	return &found, nil
}

func (s *Store) GetPendingSettlement(_ context.Context, shiftID string) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settlementID, ok := s.pendingByShift[shiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	settlement := cloneSettlement(s.settlementsByID[settlementID])
	return &settlement, nil
}

func (s *Store) UpdatePendingSettlement(_ context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.settlementsByID[settlement.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if existing.Status != domain.SettlementStatusPending {
		return nil, domain.ErrAlreadyCompleted
	}

	settlement.Status = domain.SettlementStatusPending
	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	updated := cloneSettlement(settlement)
	return &updated, nil
}

func (s *Store) CompleteSettlement(_ context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.settlementsByID[settlement.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if existing.Status != domain.SettlementStatusPending {
		return nil, domain.ErrAlreadyCompleted
	}

	settlement.Status = domain.SettlementStatusCompleted
	s.settlementsByID[settlement.ID] = cloneSettlement(settlement)
	delete(s.pendingByShift, settlement.ShiftID)

	completed := cloneSettlement(settlement)
	return &completed, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, limit)
	for _, entry := range s.auditLogs {
		if entry.StoreID != storeID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func cloneCart(cart domain.Cart) domain.Cart {
	cloned := cart
	cloned.Lines = slices.Clone(cart.Lines)
	return cloned
}

func cloneTenderSession(session domain.TenderSession) domain.TenderSession {
	cloned := session
	cloned.Payments = slices.Clone(session.Payments)
	return cloned
}

func cloneSettlement(settlement domain.Settlement) domain.Settlement {
	cloned := settlement
	cloned.NonCashTotals = slices.Clone(settlement.NonCashTotals)
	cloned.Adjustments = slices.Clone(settlement.Adjustments)
	cloned.Tally.Counts = slices.Clone(settlement.Tally.Counts)
	cloned.SnapshotCartIDs = slices.Clone(settlement.SnapshotCartIDs)
	cloned.LateCartIDs = slices.Clone(settlement.LateCartIDs)
	return cloned
}

func compareBySuspendedAt(a domain.Cart, b domain.Cart) int {
	switch {
	case a.SuspendedAt == nil && b.SuspendedAt == nil:
		return strings.Compare(a.ID, b.ID)
	case a.SuspendedAt == nil:
		return -1
	case b.SuspendedAt == nil:
		return 1
	default:
		return a.SuspendedAt.Compare(*b.SuspendedAt)
	}
}

func compareByCompletedAt(a domain.Cart, b domain.Cart) int {
	if a.CompletedAt.Equal(*b.CompletedAt) {
		return strings.Compare(a.ID, b.ID)
	}
	return a.CompletedAt.Compare(*b.CompletedAt)
}
