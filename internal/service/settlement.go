package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/store"
	"tillpoint/backend/internal/xid"
)

// BeginSettlement opens the reconciliation attempt for a shift. The expected
// figures derive from the carts completed at or before the snapshot instant;
// anything completing later belongs to the next shift and is flagged at
// completion time instead of silently shifting the expectation.
func (s *Service) BeginSettlement(ctx context.Context, req domain.BeginSettlementRequest) (domain.Settlement, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}

	shift, err := s.repo.GetShiftByID(ctx, req.ShiftID)
	if err != nil {
		return domain.Settlement{}, err
	}
	if shift.Status != domain.ShiftStatusOpen {
		return domain.Settlement{}, domain.ErrAlreadyCompleted
	}

	// Beginning twice resumes the pending attempt rather than re-snapshotting.
	if pending, err := s.repo.GetPendingSettlement(ctx, shift.ID); err == nil {
		return *pending, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Settlement{}, err
	}

	snapshotAt := time.Now().UTC()
	carts, err := s.repo.ListCompletedCarts(ctx, shift.ID, snapshotAt)
	if err != nil {
		return domain.Settlement{}, err
	}

	expectedCash := shift.OpeningFloatCents
	byMethod := map[string]*domain.MethodTotal{}
	cartIDs := make([]string, 0, len(carts))
	for _, cart := range carts {
		cartIDs = append(cartIDs, cart.ID)

		session, err := s.repo.GetTenderSession(ctx, cart.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return domain.Settlement{}, err
		}
		for _, p := range session.Payments {
			if p.Method == "cash" {
				expectedCash = expectedCash.Add(p.AmountCents)
				continue
			}
			mt, ok := byMethod[p.Method]
			if !ok {
				mt = &domain.MethodTotal{Method: p.Method}
				byMethod[p.Method] = mt
			}
			mt.Transactions++
			mt.TotalCents = mt.TotalCents.Add(p.AmountCents)
		}
		expectedCash = expectedCash.Sub(cart.ChangeDueCents)
	}

	settlement := domain.Settlement{
		ID:                xid.New("settle"),
		StoreID:           shift.StoreID,
		ShiftID:           shift.ID,
		Status:            domain.SettlementStatusPending,
		SnapshotAt:        snapshotAt,
		OpeningFloatCents: shift.OpeningFloatCents,
		ExpectedCashCents: expectedCash,
		// Variance is derived state and holds from the start: nothing
		// counted yet means the full expectation is outstanding.
		VarianceCents:   expectedCash.Neg(),
		NonCashTotals:   sortedMethodTotals(byMethod),
		SnapshotCartIDs: cartIDs,
		CreatedAt:       snapshotAt,
	}

	created, err := s.repo.CreateSettlement(ctx, settlement)
	if err != nil {
		return domain.Settlement{}, err
	}

	s.logAudit(ctx, shift.StoreID, "settlement_begin", "settlement", created.ID,
		fmt.Sprintf("shift=%s,expected_cash=%d,carts=%d", shift.ID, expectedCash, len(cartIDs)))
	return *created, nil
}

func (s *Service) GetSettlement(ctx context.Context, settlementID string) (domain.Settlement, error) {
	settlement, err := s.repo.GetSettlementByID(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}
	return *settlement, nil
}

// RecordCashCount replaces the denomination tally for a pending settlement
// and re-derives the counted cash and variance from it.
func (s *Service) RecordCashCount(ctx context.Context, settlementID string, req domain.CashCountRequest) (domain.Settlement, error) {
	settlement, err := s.pendingSettlement(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}

	var tally domain.DenominationTally
	for _, c := range req.Counts {
		if err := tally.SetCount(c.FaceValueCents, c.Count); err != nil {
			return domain.Settlement{}, err
		}
	}

	settlement.Tally = tally
	settlement.CountedCashCents = tally.TotalCents()
	settlement.VarianceCents = settlement.CountedCashCents.Sub(settlement.ExpectedCashCents)

	updated, err := s.repo.UpdatePendingSettlement(ctx, *settlement)
	if err != nil {
		return domain.Settlement{}, err
	}

	s.logAudit(ctx, settlement.StoreID, "settlement_cash_count", "settlement", settlement.ID,
		fmt.Sprintf("counted=%d,variance=%d", updated.CountedCashCents, updated.VarianceCents))
	return *updated, nil
}

func (s *Service) AddAdjustment(ctx context.Context, settlementID string, req domain.AdjustmentRequest) (domain.Settlement, error) {
	if req.Direction != domain.AdjustmentAdd && req.Direction != domain.AdjustmentSubtract {
		return domain.Settlement{}, domain.ErrInvalidAdjustment
	}
	if req.AmountCents <= 0 {
		return domain.Settlement{}, domain.ErrInvalidAdjustment
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Settlement{}, domain.ErrInvalidAdjustment
	}

	settlement, err := s.pendingSettlement(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}

	adjustment := domain.SettlementAdjustment{
		ID:          xid.New("adj"),
		Direction:   req.Direction,
		AmountCents: req.AmountCents,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
	settlement.Adjustments = append(settlement.Adjustments, adjustment)
	settlement.AdjustmentNetCents = settlement.AdjustmentNet()

	updated, err := s.repo.UpdatePendingSettlement(ctx, *settlement)
	if err != nil {
		return domain.Settlement{}, err
	}

	s.logAudit(ctx, settlement.StoreID, "settlement_adjustment_add", "settlement", settlement.ID,
		fmt.Sprintf("adjustment=%s,direction=%s,amount=%d", adjustment.ID, req.Direction, req.AmountCents))
	return *updated, nil
}

func (s *Service) RemoveAdjustment(ctx context.Context, settlementID string, adjustmentID string) (domain.Settlement, error) {
	settlement, err := s.pendingSettlement(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}

	kept := settlement.Adjustments[:0]
	removed := false
	for _, adj := range settlement.Adjustments {
		if adj.ID == adjustmentID {
			removed = true
			continue
		}
		kept = append(kept, adj)
	}
	if !removed {
		return domain.Settlement{}, store.ErrNotFound
	}
	settlement.Adjustments = kept
	settlement.AdjustmentNetCents = settlement.AdjustmentNet()

	updated, err := s.repo.UpdatePendingSettlement(ctx, *settlement)
	if err != nil {
		return domain.Settlement{}, err
	}

	s.logAudit(ctx, settlement.StoreID, "settlement_adjustment_remove", "settlement", settlement.ID,
		fmt.Sprintf("adjustment=%s", adjustmentID))
	return *updated, nil
}

// CompleteSettlement finalizes a pending settlement and closes its shift.
// Suspended or draft carts still open on the shift block completion; every
// blocker is reported so the operator resolves all of them in one pass.
// Completion is compare-and-set in the store, so a duplicate request
// surfaces as ErrAlreadyCompleted.
func (s *Service) CompleteSettlement(ctx context.Context, settlementID string, req domain.CompleteSettlementRequest) (domain.Settlement, error) {
	settlement, err := s.pendingSettlement(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}

	blocking, err := s.blockingCarts(ctx, settlement.ShiftID)
	if err != nil {
		return domain.Settlement{}, err
	}
	if len(blocking) > 0 {
		return domain.Settlement{}, &domain.SettlementBlockedError{
			Reason:        "open carts remain on the shift",
			BlockingItems: blocking,
		}
	}

	// Carts completed after the snapshot are excluded from the expectation
	// and carried on the record for the next shift's reconciliation.
	late, err := s.repo.ListCompletedCartsAfter(ctx, settlement.ShiftID, settlement.SnapshotAt)
	if err != nil {
		return domain.Settlement{}, err
	}
	if len(late) > 0 {
		lateIDs := make([]string, 0, len(late))
		for _, cart := range late {
			lateIDs = append(lateIDs, cart.ID)
		}
		settlement.LateCartIDs = lateIDs
		s.logAudit(ctx, settlement.StoreID, "settlement_late_carts", "settlement", settlement.ID,
			fmt.Sprintf("count=%d,ids=%s", len(lateIDs), strings.Join(lateIDs, ",")))
	}

	now := time.Now().UTC()
	settlement.CountedCashCents = settlement.Tally.TotalCents()
	settlement.VarianceCents = settlement.CountedCashCents.Sub(settlement.ExpectedCashCents)
	settlement.AdjustmentNetCents = settlement.AdjustmentNet()
	settlement.Notes = strings.TrimSpace(req.Notes)
	settlement.CompletedAt = &now

	completed, err := s.repo.CompleteSettlement(ctx, *settlement)
	if err != nil {
		return domain.Settlement{}, err
	}

	if _, err := s.repo.CloseShift(ctx, settlement.ShiftID, settlement.ID, now); err != nil {
		return domain.Settlement{}, err
	}

	s.logAudit(ctx, settlement.StoreID, "settlement_complete", "settlement", completed.ID,
		fmt.Sprintf("shift=%s,counted=%d,variance=%d,adjustment_net=%d",
			settlement.ShiftID, completed.CountedCashCents, completed.VarianceCents, completed.AdjustmentNetCents))
	return *completed, nil
}

func (s *Service) pendingSettlement(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	settlement, err := s.repo.GetSettlementByID(ctx, strings.TrimSpace(settlementID))
	if err != nil {
		return nil, err
	}
	if settlement.Status != domain.SettlementStatusPending {
		return nil, domain.ErrAlreadyCompleted
	}
	return settlement, nil
}

func (s *Service) blockingCarts(ctx context.Context, shiftID string) ([]domain.BlockingItem, error) {
	blocking := make([]domain.BlockingItem, 0, 4)
	for _, check := range []struct {
		status string
		kind   string
	}{
		{domain.CartStatusSuspended, "suspended_cart"},
		{domain.CartStatusDraft, "draft_cart"},
	} {
		carts, err := s.repo.ListCartsByShiftAndStatus(ctx, shiftID, check.status)
		if err != nil {
			return nil, err
		}
		for _, cart := range carts {
			blocking = append(blocking, domain.BlockingItem{
				Kind:       check.kind,
				CartID:     cart.ID,
				TerminalID: cart.TerminalID,
			})
		}
	}
	return blocking, nil
}
