package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/money"
	"tillpoint/backend/internal/store"
)

// completeSale rings up one unit of PRD-CHOC-01 (100.00 + 10% tax = 110.00)
// and completes it with the given tender.
func completeSale(t *testing.T, svc *Service, ctx context.Context, terminalID string, method string, amount money.Money) domain.CompleteCartResponse {
	t.Helper()
	if _, err := svc.StartCart(ctx, domain.StartCartRequest{TerminalID: terminalID}); err != nil {
		t.Fatalf("start cart: %v", err)
	}
	if _, err := svc.AddLine(ctx, domain.AddLineRequest{
		StoreID: "store-main", TerminalID: terminalID,
		ProductCode: "PRD-CHOC-01", Quantity: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("add line: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, domain.PaymentRequest{
		StoreID: "store-main", TerminalID: terminalID,
		Method: method, AmountCents: amount,
	}); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	resp, err := svc.AttemptComplete(ctx, domain.CompleteCartRequest{StoreID: "store-main", TerminalID: terminalID})
	if err != nil {
		t.Fatalf("complete sale: %v", err)
	}
	return resp
}

func TestBeginSettlementSnapshotsExpectedFigures(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)

	completeSale(t, svc, ctx, "lane-1", "cash", 12000) // change 1000
	completeSale(t, svc, ctx, "lane-1", "card", 11000)

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	// float 500.00 + cash 120.00 - change 10.00
	if settlement.ExpectedCashCents != 61000 {
		t.Fatalf("expected cash = %d, want 61000", settlement.ExpectedCashCents)
	}
	// Nothing counted yet, so the whole expectation is outstanding.
	if settlement.CountedCashCents != 0 || settlement.VarianceCents != -61000 {
		t.Fatalf("counted/variance = %d/%d, want 0/-61000", settlement.CountedCashCents, settlement.VarianceCents)
	}
	if len(settlement.NonCashTotals) != 1 || settlement.NonCashTotals[0].Method != "card" || settlement.NonCashTotals[0].TotalCents != 11000 {
		t.Fatalf("non-cash totals = %+v, want card 11000", settlement.NonCashTotals)
	}
	if len(settlement.SnapshotCartIDs) != 2 {
		t.Fatalf("snapshot carts = %d, want 2", len(settlement.SnapshotCartIDs))
	}

	// Beginning again resumes the same pending attempt.
	again, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin again: %v", err)
	}
	if again.ID != settlement.ID {
		t.Fatalf("second begin returned %s, want pending %s", again.ID, settlement.ID)
	}
}

func TestRecordCashCountDerivesVariance(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)
	completeSale(t, svc, ctx, "lane-1", "cash", 11000)

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}
	// expected 610.00; count 609.50 for a 50 cent shortage
	settlement, err = svc.RecordCashCount(ctx, settlement.ID, domain.CashCountRequest{
		Counts: []domain.DenominationCount{
			{FaceValueCents: 10000, Count: 6},
			{FaceValueCents: 500, Count: 1},
			{FaceValueCents: 400, Count: 1},
			{FaceValueCents: 50, Count: 1},
		},
	})
	if err != nil {
		t.Fatalf("record cash count: %v", err)
	}

	if settlement.CountedCashCents != 60950 {
		t.Fatalf("counted = %d, want 60950", settlement.CountedCashCents)
	}
	if settlement.VarianceCents != -50 {
		t.Fatalf("variance = %d, want -50", settlement.VarianceCents)
	}
}

func TestAdjustmentsReportedSeparatelyFromVariance(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	settlement, err = svc.AddAdjustment(ctx, settlement.ID, domain.AdjustmentRequest{
		Direction: domain.AdjustmentAdd, AmountCents: 200, Reason: "found note under drawer",
	})
	if err != nil {
		t.Fatalf("add adjustment: %v", err)
	}
	settlement, err = svc.AddAdjustment(ctx, settlement.ID, domain.AdjustmentRequest{
		Direction: domain.AdjustmentSubtract, AmountCents: 120, Reason: "courier float payout",
	})
	if err != nil {
		t.Fatalf("subtract adjustment: %v", err)
	}

	if settlement.AdjustmentNetCents != 80 {
		t.Fatalf("adjustment net = %d, want 80", settlement.AdjustmentNetCents)
	}
	// Variance derives only from the count, not the adjustments.
	if settlement.VarianceCents != settlement.CountedCashCents.Sub(settlement.ExpectedCashCents) {
		t.Fatalf("variance %d mixes in adjustments", settlement.VarianceCents)
	}

	// Adjustments can be withdrawn while the settlement is pending.
	settlement, err = svc.RemoveAdjustment(ctx, settlement.ID, settlement.Adjustments[0].ID)
	if err != nil {
		t.Fatalf("remove adjustment: %v", err)
	}
	if settlement.AdjustmentNetCents != -120 {
		t.Fatalf("adjustment net after removal = %d, want -120", settlement.AdjustmentNetCents)
	}
}

func TestAdjustmentValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)
	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	cases := []domain.AdjustmentRequest{
		{Direction: "sideways", AmountCents: 100, Reason: "x"},
		{Direction: domain.AdjustmentAdd, AmountCents: 0, Reason: "x"},
		{Direction: domain.AdjustmentAdd, AmountCents: 100, Reason: "  "},
	}
	for i, req := range cases {
		if _, err := svc.AddAdjustment(ctx, settlement.ID, req); !errors.Is(err, domain.ErrInvalidAdjustment) {
			t.Fatalf("case %d: expected ErrInvalidAdjustment, got %v", i, err)
		}
	}

	if _, err := svc.RemoveAdjustment(ctx, settlement.ID, "adj-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown adjustment, got %v", err)
	}
}

func TestCompleteSettlementBlockedByOpenCarts(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)

	// Park one cart and leave another in draft.
	if _, err := svc.StartCart(ctx, domain.StartCartRequest{TerminalID: "lane-1"}); err != nil {
		t.Fatalf("start cart: %v", err)
	}
	held, err := svc.SuspendCart(ctx, domain.SuspendCartRequest{StoreID: "store-main", TerminalID: "lane-1"})
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, err := svc.StartCart(ctx, domain.StartCartRequest{TerminalID: "lane-1"}); err != nil {
		t.Fatalf("start second cart: %v", err)
	}

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}

	_, err = svc.CompleteSettlement(ctx, settlement.ID, domain.CompleteSettlementRequest{})
	var blocked *domain.SettlementBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected SettlementBlockedError, got %v", err)
	}
	if len(blocked.BlockingItems) != 2 {
		t.Fatalf("blocking items = %+v, want suspended and draft carts", blocked.BlockingItems)
	}

	// Resolve both blockers, then completion goes through and closes the
	// shift.
	if _, err := svc.VoidCart(ctx, domain.VoidCartRequest{StoreID: "store-main", TerminalID: "lane-1", Reason: "abandoned"}); err != nil {
		t.Fatalf("void draft: %v", err)
	}
	if _, err := svc.ResumeCart(ctx, held.HeldID, domain.ResumeCartRequest{TerminalID: "lane-1"}); err != nil {
		t.Fatalf("resume held: %v", err)
	}
	if _, err := svc.VoidCart(ctx, domain.VoidCartRequest{StoreID: "store-main", TerminalID: "lane-1", Reason: "abandoned"}); err != nil {
		t.Fatalf("void resumed: %v", err)
	}

	completed, err := svc.CompleteSettlement(ctx, settlement.ID, domain.CompleteSettlementRequest{Notes: "clean close"})
	if err != nil {
		t.Fatalf("complete settlement: %v", err)
	}
	if completed.Status != domain.SettlementStatusCompleted {
		t.Fatalf("status = %s, want completed", completed.Status)
	}

	closedShift, err := svc.repo.GetShiftByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("get shift: %v", err)
	}
	if closedShift.Status != domain.ShiftStatusClosed || closedShift.SettlementID != settlement.ID {
		t.Fatalf("shift = %s/%s, want closed by %s", closedShift.Status, closedShift.SettlementID, settlement.ID)
	}

	// Completing again is a no-op error, not a second record.
	if _, err := svc.CompleteSettlement(ctx, settlement.ID, domain.CompleteSettlementRequest{}); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestLateCompletionsFlaggedNotAbsorbed(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)
	completeSale(t, svc, ctx, "lane-1", "cash", 11000)

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}
	expectedBefore := settlement.ExpectedCashCents

	// A sale completes after the snapshot was taken.
	time.Sleep(2 * time.Millisecond)
	late := completeSale(t, svc, ctx, "lane-1", "cash", 11000)

	completed, err := svc.CompleteSettlement(ctx, settlement.ID, domain.CompleteSettlementRequest{})
	if err != nil {
		t.Fatalf("complete settlement: %v", err)
	}

	if completed.ExpectedCashCents != expectedBefore {
		t.Fatalf("expected cash shifted from %d to %d after snapshot", expectedBefore, completed.ExpectedCashCents)
	}
	if len(completed.LateCartIDs) != 1 || completed.LateCartIDs[0] != late.Cart.ID {
		t.Fatalf("late carts = %v, want [%s]", completed.LateCartIDs, late.Cart.ID)
	}
}

func TestCashCountOnCompletedSettlementRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := testContext()
	shift := openShift(t, svc, ctx, "lane-1", 50000)

	settlement, err := svc.BeginSettlement(ctx, domain.BeginSettlementRequest{ShiftID: shift.ID})
	if err != nil {
		t.Fatalf("begin settlement: %v", err)
	}
	if _, err := svc.CompleteSettlement(ctx, settlement.ID, domain.CompleteSettlementRequest{}); err != nil {
		t.Fatalf("complete settlement: %v", err)
	}

	_, err = svc.RecordCashCount(ctx, settlement.ID, domain.CashCountRequest{
		Counts: []domain.DenominationCount{{FaceValueCents: 500, Count: 1}},
	})
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}
