package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/cache"
	"tillpoint/backend/internal/currency"
	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/money"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ProductLookup resolves catalog products for cart lines. The repository
// satisfies it; a remote catalog client can stand in without touching the
// cart logic.
type ProductLookup interface {
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	repo           store.Repository
	lookup         ProductLookup
	heldCache      cache.SuspendedCartCache
	formatter      currency.Formatter
	defaultStoreID string
	heldCartTTL    time.Duration
}

func New(repo store.Repository, lookup ProductLookup, heldCache cache.SuspendedCartCache, formatter currency.Formatter, defaultStoreID string, heldCartTTL time.Duration) *Service {
	if lookup == nil {
		lookup = repo
	}
	if heldCache == nil {
		heldCache = cache.NoopSuspendedCartCache{}
	}
	if formatter == nil {
		formatter = currency.SymbolFormatter{Symbol: "$"}
	}
	if defaultStoreID == "" {
		defaultStoreID = "store-main"
	}
	if heldCartTTL <= 0 {
		heldCartTTL = 4 * time.Hour
	}

	return &Service{
		repo:           repo,
		lookup:         lookup,
		heldCache:      heldCache,
		formatter:      formatter,
		defaultStoreID: defaultStoreID,
		heldCartTTL:    heldCartTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.lookup.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	product, err := s.lookup.GetProductByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.Shift, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.TerminalID = strings.TrimSpace(req.TerminalID)
	req.CashierName = strings.TrimSpace(req.CashierName)
	if req.TerminalID == "" || req.CashierName == "" {
		return domain.Shift{}, store.ErrConflict
	}
	if req.OpeningFloatCents.IsNegative() {
		return domain.Shift{}, domain.ErrInvalidAmount
	}

	shift := domain.Shift{
		ID:                xid.New("shift"),
		StoreID:           req.StoreID,
		TerminalID:        req.TerminalID,
		CashierName:       req.CashierName,
		OpeningFloatCents: req.OpeningFloatCents,
		Status:            domain.ShiftStatusOpen,
		OpenedAt:          time.Now().UTC(),
	}
	created, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		return domain.Shift{}, err
	}

	s.logAudit(ctx, req.StoreID, "shift_open", "shift", created.ID, fmt.Sprintf("cashier=%s,float=%d", req.CashierName, req.OpeningFloatCents))
	return *created, nil
}

func (s *Service) GetActiveShift(ctx context.Context, storeID string, terminalID string) (domain.Shift, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	shift, err := s.repo.GetActiveShift(ctx, storeID, terminalID)
	if err != nil {
		return domain.Shift{}, err
	}
	return *shift, nil
}

func (s *Service) StartCart(ctx context.Context, req domain.StartCartRequest) (domain.Cart, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	req.TerminalID = strings.TrimSpace(req.TerminalID)
	if req.TerminalID == "" {
		return domain.Cart{}, store.ErrConflict
	}
	if req.SaleType == "" {
		req.SaleType = domain.SaleTypeRetail
	}
	if req.SaleType != domain.SaleTypeRetail && req.SaleType != domain.SaleTypeDelivery {
		return domain.Cart{}, domain.ErrInvalidSaleType
	}

	shift, err := s.repo.GetActiveShift(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Cart{}, fmt.Errorf("open shift required: %w", store.ErrNotFound)
		}
		return domain.Cart{}, err
	}

	if _, err := s.repo.GetDraftCart(ctx, req.StoreID, req.TerminalID); err == nil {
		return domain.Cart{}, domain.ErrDraftCartExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		ID:          xid.New("cart"),
		StoreID:     req.StoreID,
		TerminalID:  req.TerminalID,
		ShiftID:     shift.ID,
		Status:      domain.CartStatusDraft,
		Lines:       []domain.CartLine{},
		SaleType:    req.SaleType,
		CustomerRef: strings.TrimSpace(req.CustomerRef),
		CreatedAt:   time.Now().UTC(),
	}
	cart.Totals = domain.ComputeTotals(cart)

	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Cart{}, domain.ErrDraftCartExists
		}
		return domain.Cart{}, err
	}

	s.logAudit(ctx, req.StoreID, "cart_start", "cart", saved.ID, fmt.Sprintf("terminal=%s,sale_type=%s", req.TerminalID, req.SaleType))
	return *saved, nil
}

// draftCart resolves the single draft on a lane or reports that no
// transaction is active.
func (s *Service) draftCart(ctx context.Context, storeID string, terminalID string) (*domain.Cart, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	cart, err := s.repo.GetDraftCart(ctx, storeID, terminalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrNoActiveTransaction
		}
		return nil, err
	}
	return cart, nil
}

func (s *Service) GetDraftCart(ctx context.Context, storeID string, terminalID string) (domain.Cart, error) {
	cart, err := s.draftCart(ctx, storeID, terminalID)
	if err != nil {
		return domain.Cart{}, err
	}
	return *cart, nil
}

func (s *Service) GetCart(ctx context.Context, cartID string) (domain.Cart, error) {
	cart, err := s.repo.GetCartByID(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	return *cart, nil
}

func (s *Service) AddLine(ctx context.Context, req domain.AddLineRequest) (domain.Cart, error) {
	if req.Quantity.Sign() <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.Cart{}, err
	}

	product, err := s.lookup.GetProductByCode(ctx, strings.ToUpper(strings.TrimSpace(req.ProductCode)))
	if err != nil {
		return domain.Cart{}, err
	}

	// Re-scanning the same product merges into the existing line only while
	// the line still carries the current catalog price. An overridden price,
	// or a catalog change between scans, gets its own line.
	merged := false
	for i := range cart.Lines {
		line := &cart.Lines[i]
		if line.ProductCode == product.Code && !line.PriceOverridden && line.UnitPriceCents == product.PriceCents {
			line.Quantity = line.Quantity.Add(req.Quantity)
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:                xid.New("line"),
			ProductCode:       product.Code,
			Name:              product.Name,
			UnitPriceCents:    product.PriceCents,
			CatalogPriceCents: product.PriceCents,
			Quantity:          req.Quantity,
			TaxRatePercent:    product.TaxRatePercent,
		})
	}

	return s.saveDraft(ctx, *cart, "cart_line_add", fmt.Sprintf("product=%s,qty=%s", product.Code, req.Quantity))
}

func (s *Service) UpdateLine(ctx context.Context, lineID string, req domain.LineUpdateRequest) (domain.Cart, error) {
	if req.Quantity != nil && req.Quantity.Sign() <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}
	if req.UnitPriceCents != nil && req.UnitPriceCents.IsNegative() {
		return domain.Cart{}, domain.ErrInvalidAmount
	}
	if req.DiscountPercent != nil && !validPercent(*req.DiscountPercent) {
		return domain.Cart{}, domain.ErrInvalidDiscount
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.Cart{}, err
	}

	line := findLine(cart, lineID)
	if line == nil {
		return domain.Cart{}, store.ErrNotFound
	}
	if req.Quantity != nil {
		line.Quantity = *req.Quantity
	}
	if req.UnitPriceCents != nil {
		line.UnitPriceCents = *req.UnitPriceCents
		line.PriceOverridden = *req.UnitPriceCents != line.CatalogPriceCents
	}
	if req.DiscountPercent != nil {
		line.LineDiscountPercent = *req.DiscountPercent
	}

	return s.saveDraft(ctx, *cart, "cart_line_update", fmt.Sprintf("line=%s", lineID))
}

func (s *Service) RemoveLine(ctx context.Context, storeID string, terminalID string, lineID string) (domain.Cart, error) {
	cart, err := s.draftCart(ctx, storeID, terminalID)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := cart.Lines[:0]
	removed := false
	for _, line := range cart.Lines {
		if line.ID == lineID {
			removed = true
			continue
		}
		kept = append(kept, line)
	}
	if !removed {
		return domain.Cart{}, store.ErrNotFound
	}
	cart.Lines = kept

	return s.saveDraft(ctx, *cart, "cart_line_remove", fmt.Sprintf("line=%s", lineID))
}

func (s *Service) ApplyBillDiscount(ctx context.Context, req domain.BillDiscountRequest) (domain.Cart, error) {
	if !validPercent(req.Percent) {
		return domain.Cart{}, domain.ErrInvalidDiscount
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.BillDiscountPercent = req.Percent

	return s.saveDraft(ctx, *cart, "cart_bill_discount", fmt.Sprintf("percent=%s", req.Percent))
}

func (s *Service) UpdateCartDetails(ctx context.Context, req domain.CartDetailsRequest) (domain.Cart, error) {
	if req.OtherChargesCents != nil && req.OtherChargesCents.IsNegative() {
		return domain.Cart{}, domain.ErrInvalidAmount
	}
	if req.ReturnAmountCents != nil && req.ReturnAmountCents.IsNegative() {
		return domain.Cart{}, domain.ErrInvalidAmount
	}
	if req.SaleType != nil && *req.SaleType != domain.SaleTypeRetail && *req.SaleType != domain.SaleTypeDelivery {
		return domain.Cart{}, domain.ErrInvalidSaleType
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.Cart{}, err
	}
	if req.Notes != nil {
		cart.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.CustomerRef != nil {
		cart.CustomerRef = strings.TrimSpace(*req.CustomerRef)
	}
	if req.SaleType != nil {
		cart.SaleType = *req.SaleType
	}
	if req.OtherChargesCents != nil {
		cart.OtherChargesCents = *req.OtherChargesCents
	}
	if req.ReturnAmountCents != nil {
		cart.ReturnAmountCents = *req.ReturnAmountCents
	}

	return s.saveDraft(ctx, *cart, "cart_details_update", "")
}

// saveDraft recomputes totals and persists a mutated draft, keeping the
// stored totals authoritative after every command.
func (s *Service) saveDraft(ctx context.Context, cart domain.Cart, action string, detail string) (domain.Cart, error) {
	cart.Totals = domain.ComputeTotals(cart)
	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		return domain.Cart{}, err
	}
	s.logAudit(ctx, cart.StoreID, action, "cart", cart.ID, detail)
	return *saved, nil
}

func (s *Service) SuspendCart(ctx context.Context, req domain.SuspendCartRequest) (domain.SuspendCartResponse, error) {
	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.SuspendCartResponse{}, err
	}

	now := time.Now().UTC()
	cart.Status = domain.CartStatusSuspended
	cart.SuspendedAt = &now
	if note := strings.TrimSpace(req.Note); note != "" {
		cart.Notes = note
	}
	cart.Totals = domain.ComputeTotals(*cart)

	saved, err := s.repo.SaveCart(ctx, *cart)
	if err != nil {
		return domain.SuspendCartResponse{}, err
	}

	if err := s.heldCache.Set(ctx, *saved, s.heldCartTTL); err != nil {
		log.Printf("[service] WARN: failed to cache held cart id=%s: %v", saved.ID, err)
	}

	s.logAudit(ctx, cart.StoreID, "cart_suspend", "cart", saved.ID, fmt.Sprintf("terminal=%s", cart.TerminalID))
	return domain.SuspendCartResponse{HeldID: saved.ID, Cart: *saved}, nil
}

func (s *Service) ListSuspendedCarts(ctx context.Context, storeID string) ([]domain.Cart, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	return s.repo.ListSuspendedCarts(ctx, storeID)
}

// GetSuspendedCart reads through the held-cart cache; the store remains the
// source of truth on a miss.
func (s *Service) GetSuspendedCart(ctx context.Context, cartID string) (domain.Cart, error) {
	cached, hit, err := s.heldCache.Get(ctx, cartID)
	if err != nil {
		log.Printf("[service] WARN: held cart cache read failed id=%s: %v", cartID, err)
	}
	if hit && cached.Status == domain.CartStatusSuspended {
		return *cached, nil
	}

	cart, err := s.repo.GetCartByID(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if cart.Status != domain.CartStatusSuspended {
		return domain.Cart{}, store.ErrNotFound
	}
	return *cart, nil
}

func (s *Service) ResumeCart(ctx context.Context, cartID string, req domain.ResumeCartRequest) (domain.Cart, error) {
	req.TerminalID = strings.TrimSpace(req.TerminalID)
	if req.TerminalID == "" {
		return domain.Cart{}, store.ErrConflict
	}

	cart, err := s.repo.GetCartByID(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	switch cart.Status {
	case domain.CartStatusSuspended:
	case domain.CartStatusCompleted:
		return domain.Cart{}, domain.ErrAlreadyCompleted
	default:
		// A draft or voided id does not resolve to a parked cart.
		return domain.Cart{}, store.ErrNotFound
	}

	if _, err := s.repo.GetDraftCart(ctx, cart.StoreID, req.TerminalID); err == nil {
		return domain.Cart{}, domain.ErrDraftCartExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Cart{}, err
	}

	cart.Status = domain.CartStatusDraft
	cart.TerminalID = req.TerminalID
	cart.SuspendedAt = nil
	cart.Totals = domain.ComputeTotals(*cart)

	saved, err := s.repo.SaveCart(ctx, *cart)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Cart{}, domain.ErrDraftCartExists
		}
		return domain.Cart{}, err
	}

	if err := s.heldCache.Delete(ctx, cartID); err != nil {
		log.Printf("[service] WARN: failed to evict held cart id=%s: %v", cartID, err)
	}

	s.logAudit(ctx, cart.StoreID, "cart_resume", "cart", saved.ID, fmt.Sprintf("terminal=%s", req.TerminalID))
	return *saved, nil
}

func (s *Service) VoidCart(ctx context.Context, req domain.VoidCartRequest) (domain.Cart, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Cart{}, domain.ErrReasonRequired
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.Cart{}, err
	}

	session, err := s.repo.GetTenderSession(ctx, cart.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.Cart{}, err
	}
	if session != nil && len(session.Payments) > 0 {
		return domain.Cart{}, domain.ErrPaymentsRecorded
	}

	voided, err := s.repo.VoidCart(ctx, cart.ID, reason, time.Now().UTC())
	if err != nil {
		return domain.Cart{}, err
	}

	s.logAudit(ctx, cart.StoreID, "cart_void", "cart", voided.ID, fmt.Sprintf("reason=%s", reason))
	return *voided, nil
}

var supportedTenderMethods = map[string]bool{
	"cash":    true,
	"card":    true,
	"wallet":  true,
	"voucher": true,
}

func (s *Service) RecordPayment(ctx context.Context, req domain.PaymentRequest) (domain.TenderResponse, error) {
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if !supportedTenderMethods[method] || req.AmountCents <= 0 {
		return domain.TenderResponse{}, domain.ErrInvalidPayment
	}

	cart, err := s.draftCart(ctx, req.StoreID, req.TerminalID)
	if err != nil {
		return domain.TenderResponse{}, err
	}

	session, err := s.repo.GetTenderSession(ctx, cart.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.TenderResponse{}, err
		}
		session = &domain.TenderSession{CartID: cart.ID}
	}

	session.Payments = append(session.Payments, domain.Payment{
		Method:      method,
		AmountCents: req.AmountCents,
		Reference:   strings.TrimSpace(req.Reference),
		RecordedAt:  time.Now().UTC(),
	})
	if err := s.repo.SaveTenderSession(ctx, *session); err != nil {
		return domain.TenderResponse{}, err
	}

	s.logAudit(ctx, cart.StoreID, "payment_record", "cart", cart.ID, fmt.Sprintf("method=%s,amount=%d", method, req.AmountCents))
	return domain.TenderResponse{Tender: *session, Cart: *cart}, nil
}

// AttemptComplete finalizes the draft on a lane. Completion is
// compare-and-set in the store, so a retried request after a timeout
// surfaces as ErrAlreadyCompleted instead of a second financial record.
func (s *Service) AttemptComplete(ctx context.Context, req domain.CompleteCartRequest) (domain.CompleteCartResponse, error) {
	cart, err := s.completionTarget(ctx, req)
	if err != nil {
		return domain.CompleteCartResponse{}, err
	}
	if len(cart.Lines) == 0 {
		return domain.CompleteCartResponse{}, domain.ErrEmptyCart
	}

	cart.Totals = domain.ComputeTotals(*cart)

	session, err := s.repo.GetTenderSession(ctx, cart.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.CompleteCartResponse{}, err
		}
		session = &domain.TenderSession{CartID: cart.ID}
	}

	paid := session.PaidCents()
	if paid < cart.Totals.TotalCents {
		return domain.CompleteCartResponse{}, domain.ErrInsufficientPayment
	}
	changeDue := paid.Sub(cart.Totals.TotalCents)

	if _, err := s.repo.SaveCart(ctx, *cart); err != nil {
		return domain.CompleteCartResponse{}, err
	}

	completed, err := s.repo.CompleteCart(ctx, cart.ID, changeDue, time.Now().UTC())
	if err != nil {
		return domain.CompleteCartResponse{}, err
	}

	// The completed cart record is authoritative for change due. The tender
	// session copy is written only after the status transition, so a failed
	// attempt leaves no tender state behind.
	session.ChangeDueCents = changeDue
	if err := s.repo.SaveTenderSession(ctx, *session); err != nil {
		log.Printf("[service] WARN: change due not recorded on tender session cart=%s: %v", cart.ID, err)
	}

	s.logAudit(ctx, cart.StoreID, "cart_complete", "cart", completed.ID,
		fmt.Sprintf("total=%d,paid=%d,change=%d", completed.Totals.TotalCents, paid, changeDue))
	return domain.CompleteCartResponse{Cart: *completed, PaidCents: paid, ChangeDueCents: changeDue}, nil
}

// completionTarget resolves the cart a completion request refers to. With a
// cart id the request is pinned to that cart: a retry after the original
// attempt landed reports ErrAlreadyCompleted even if a new draft has since
// started on the lane. Without one the request falls back to the lane's
// current draft.
func (s *Service) completionTarget(ctx context.Context, req domain.CompleteCartRequest) (*domain.Cart, error) {
	cartID := strings.TrimSpace(req.CartID)
	if cartID == "" {
		return s.draftCart(ctx, req.StoreID, req.TerminalID)
	}

	cart, err := s.repo.GetCartByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	switch cart.Status {
	case domain.CartStatusDraft:
		return cart, nil
	case domain.CartStatusCompleted:
		return nil, domain.ErrAlreadyCompleted
	default:
		return nil, store.ErrConflict
	}
}

func (s *Service) BuildReceipt(ctx context.Context, cartID string) (domain.ReceiptResponse, error) {
	cart, err := s.repo.GetCartByID(ctx, strings.TrimSpace(cartID))
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	if cart.Status != domain.CartStatusCompleted {
		return domain.ReceiptResponse{}, store.ErrConflict
	}

	session, err := s.repo.GetTenderSession(ctx, cart.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.ReceiptResponse{}, err
	}

	lines := []string{
		"TillPoint POS",
		"========================",
		"Sale: " + cart.ID,
		"Store: " + cart.StoreID,
		"Terminal: " + cart.TerminalID,
		"Date: " + cart.CompletedAt.Format("2006-01-02 15:04:05"),
		"------------------------",
	}
	for _, line := range cart.Lines {
		lines = append(lines, fmt.Sprintf("%s x%s", line.Name, line.Quantity))
		lines = append(lines, "  "+s.formatter.Format(money.FromDecimal(line.NetAmount())))
	}
	lines = append(lines,
		"------------------------",
		"Subtotal : "+s.formatter.Format(cart.Totals.SubtotalCents),
		"Discount : "+s.formatter.Format(cart.Totals.TotalDiscountCents),
		"Tax      : "+s.formatter.Format(cart.Totals.TaxCents),
	)
	if !cart.Totals.OtherChargesCents.IsZero() {
		lines = append(lines, "Charges  : "+s.formatter.Format(cart.Totals.OtherChargesCents))
	}
	if !cart.Totals.ReturnAmountCents.IsZero() {
		lines = append(lines, "Return   : -"+s.formatter.Format(cart.Totals.ReturnAmountCents))
	}
	if !cart.Totals.RoundOffCents.IsZero() {
		lines = append(lines, "RoundOff : "+s.formatter.Format(cart.Totals.RoundOffCents))
	}
	lines = append(lines, "Total    : "+s.formatter.Format(cart.Totals.TotalCents))
	if session != nil {
		for _, p := range session.Payments {
			lines = append(lines, fmt.Sprintf("%-9s: %s", p.Method, s.formatter.Format(p.AmountCents)))
		}
	}
	lines = append(lines,
		"Change   : "+s.formatter.Format(cart.ChangeDueCents),
		"========================",
		"Thank you",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		CartID:       cart.ID,
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		PreviewText:  strings.Join(lines, "\n"),
		FileName:     fmt.Sprintf("receipt-%s.bin", cart.ID),
	}, nil
}

// ShiftSalesSummary aggregates every completed cart on a shift by tender
// method. Cash contributions are net of change handed back.
func (s *Service) ShiftSalesSummary(ctx context.Context, shiftID string) (domain.ShiftSalesSummary, error) {
	if _, err := s.repo.GetShiftByID(ctx, shiftID); err != nil {
		return domain.ShiftSalesSummary{}, err
	}

	carts, err := s.repo.ListCompletedCarts(ctx, shiftID, time.Time{})
	if err != nil {
		return domain.ShiftSalesSummary{}, err
	}

	summary := domain.ShiftSalesSummary{ShiftID: shiftID, Transactions: len(carts)}
	byMethod := map[string]*domain.MethodTotal{}
	for _, cart := range carts {
		summary.GrossSalesCents = summary.GrossSalesCents.Add(cart.Totals.SubtotalCents)
		summary.DiscountCents = summary.DiscountCents.Add(cart.Totals.TotalDiscountCents)
		summary.TaxCents = summary.TaxCents.Add(cart.Totals.TaxCents)
		summary.TotalCents = summary.TotalCents.Add(cart.Totals.TotalCents)

		session, err := s.repo.GetTenderSession(ctx, cart.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return domain.ShiftSalesSummary{}, err
		}
		for _, p := range session.Payments {
			mt, ok := byMethod[p.Method]
			if !ok {
				mt = &domain.MethodTotal{Method: p.Method}
				byMethod[p.Method] = mt
			}
			mt.Transactions++
			amount := p.AmountCents
			if p.Method == "cash" {
				amount = amount.Sub(cart.ChangeDueCents)
			}
			mt.TotalCents = mt.TotalCents.Add(amount)
		}
	}
	summary.ByMethod = sortedMethodTotals(byMethod)

	return summary, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(time.Minute)
	}
	return s.repo.ListAuditLogs(ctx, storeID, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		StoreID:       storeID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func findLine(cart *domain.Cart, lineID string) *domain.CartLine {
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			return &cart.Lines[i]
		}
	}
	return nil
}

func validPercent(pct decimal.Decimal) bool {
	return pct.Sign() >= 0 && pct.LessThanOrEqual(decimal.NewFromInt(100))
}

func sortedMethodTotals(byMethod map[string]*domain.MethodTotal) []domain.MethodTotal {
	totals := make([]domain.MethodTotal, 0, len(byMethod))
	for _, mt := range byMethod {
		totals = append(totals, *mt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Method < totals[j].Method })
	return totals
}
