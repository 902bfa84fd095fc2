package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/service"
	"tillpoint/backend/internal/store/memory"
)

func newTestHandler() http.Handler {
	repo := memory.NewSeeded()
	svc := service.New(repo, nil, nil, nil, "store-main", time.Hour)
	return New(svc, "http://localhost:5173").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator", "kara")
	req.Header.Set("X-Operator-Role", "cashier")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"cashier_name": "Kara", "opening_float_cents": 50000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open shift status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/carts", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start cart status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/carts/lines", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"product_code": "PRD-CHOC-01", "quantity": "2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/carts/payments", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"method": "cash", "amount_cents": 25000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("payment status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/carts/complete", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d body=%s", rec.Code, rec.Body.String())
	}

	var completed domain.CompleteCartResponse
	decodeBody(t, rec, &completed)
	// 2 x 100.00 at 10% tax
	if completed.Cart.Totals.TotalCents != 22000 {
		t.Fatalf("total = %d, want 22000", completed.Cart.Totals.TotalCents)
	}
	if completed.ChangeDueCents != 3000 {
		t.Fatalf("change = %d, want 3000", completed.ChangeDueCents)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/carts/"+completed.Cart.ID+"/receipt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt status = %d body=%s", rec.Code, rec.Body.String())
	}
	var receipt domain.ReceiptResponse
	decodeBody(t, rec, &receipt)
	if receipt.EscposBase64 == "" || receipt.PreviewText == "" {
		t.Fatalf("receipt payload incomplete: %+v", receipt)
	}
}

func TestCompleteWithoutCartReturnsNotFound(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/carts/complete", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSecondDraftReturnsConflict(t *testing.T) {
	handler := newTestHandler()

	doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"cashier_name": "Kara", "opening_float_cents": 0,
	})
	doJSON(t, handler, http.MethodPost, "/api/v1/carts", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/carts", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestBlockedSettlementListsBlockers(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"cashier_name": "Kara", "opening_float_cents": 0,
	})
	var shiftResp domain.ShiftResponse
	decodeBody(t, rec, &shiftResp)

	doJSON(t, handler, http.MethodPost, "/api/v1/carts", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
	})

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/settlements", map[string]any{
		"store_id": "store-main", "shift_id": shiftResp.Shift.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("begin settlement status = %d body=%s", rec.Code, rec.Body.String())
	}
	var settlementResp domain.SettlementResponse
	decodeBody(t, rec, &settlementResp)

	rec = doJSON(t, handler, http.MethodPost,
		fmt.Sprintf("/api/v1/settlements/%s/complete", settlementResp.Settlement.ID),
		map[string]any{})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		BlockingItems []domain.BlockingItem `json:"blocking_items"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.BlockingItems) != 1 || payload.BlockingItems[0].Kind != "draft_cart" {
		t.Fatalf("blocking items = %+v, want one draft_cart", payload.BlockingItems)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/carts", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestOperatorHeaderReachesAuditLog(t *testing.T) {
	handler := newTestHandler()

	doJSON(t, handler, http.MethodPost, "/api/v1/shifts/open", map[string]any{
		"store_id": "store-main", "terminal_id": "lane-1",
		"cashier_name": "Kara", "opening_float_cents": 0,
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs?store_id=store-main", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit logs status = %d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		AuditLogs []domain.AuditLog `json:"audit_logs"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.AuditLogs) == 0 {
		t.Fatalf("expected at least one audit entry")
	}
	if payload.AuditLogs[0].ActorUsername != "kara" {
		t.Fatalf("actor = %q, want kara", payload.AuditLogs[0].ActorUsername)
	}
}
