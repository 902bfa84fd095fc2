package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/service"
	"tillpoint/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/products", a.handleProducts)
	mux.HandleFunc("/api/v1/products/", a.handleProductActions)

	mux.HandleFunc("/api/v1/shifts/open", a.handleShiftOpen)
	mux.HandleFunc("/api/v1/shifts/active", a.handleShiftActive)
	mux.HandleFunc("/api/v1/shifts/", a.handleShiftActions)

	mux.HandleFunc("/api/v1/carts", a.handleCarts)
	mux.HandleFunc("/api/v1/carts/active", a.handleCartActive)
	mux.HandleFunc("/api/v1/carts/lines", a.handleCartLines)
	mux.HandleFunc("/api/v1/carts/lines/", a.handleCartLineActions)
	mux.HandleFunc("/api/v1/carts/bill-discount", a.handleBillDiscount)
	mux.HandleFunc("/api/v1/carts/details", a.handleCartDetails)
	mux.HandleFunc("/api/v1/carts/suspend", a.handleCartSuspend)
	mux.HandleFunc("/api/v1/carts/suspended", a.handleSuspendedCarts)
	mux.HandleFunc("/api/v1/carts/suspended/", a.handleSuspendedCartActions)
	mux.HandleFunc("/api/v1/carts/void", a.handleCartVoid)
	mux.HandleFunc("/api/v1/carts/payments", a.handleCartPayments)
	mux.HandleFunc("/api/v1/carts/complete", a.handleCartComplete)
	mux.HandleFunc("/api/v1/carts/", a.handleCartActions)

	mux.HandleFunc("/api/v1/settlements", a.handleSettlements)
	mux.HandleFunc("/api/v1/settlements/", a.handleSettlementActions)

	mux.HandleFunc("/api/v1/audit-logs", a.handleAuditLogs)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Operator, X-Operator-Role")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Operator identity arrives from the terminal session; the upstream
		// gateway is trusted to have authenticated it.
		if operator := strings.TrimSpace(r.Header.Get("X-Operator")); operator != "" {
			role := strings.TrimSpace(r.Header.Get("X-Operator-Role"))
			if role == "" {
				role = "cashier"
			}
			r = r.WithContext(service.WithActor(r.Context(), domain.Actor{Username: operator, Role: role}))
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/products/"), "/")
	if code == "" {
		writeError(w, http.StatusBadRequest, errors.New("product code required"))
		return
	}

	product, err := a.service.GetProduct(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleShiftOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ShiftOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	shift, err := a.service.OpenShift(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.ShiftResponse{Shift: shift})
}

func (a *API) handleShiftActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	shift, err := a.service.GetActiveShift(r.Context(), r.URL.Query().Get("store_id"), r.URL.Query().Get("terminal_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ShiftResponse{Shift: shift})
}

func (a *API) handleShiftActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/shifts/"), "/")
	shiftID, action, _ := strings.Cut(tail, "/")
	if shiftID == "" || action != "summary" {
		writeError(w, http.StatusBadRequest, errors.New("invalid shift action path"))
		return
	}

	summary, err := a.service.ShiftSalesSummary(r.Context(), shiftID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleCarts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.StartCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.service.StartCart(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	cart, err := a.service.GetDraftCart(r.Context(), r.URL.Query().Get("store_id"), r.URL.Query().Get("terminal_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.AddLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.service.AddLine(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartLineActions(w http.ResponseWriter, r *http.Request) {
	lineID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/carts/lines/"), "/")
	if lineID == "" {
		writeError(w, http.StatusBadRequest, errors.New("line id required"))
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req domain.LineUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cart, err := a.service.UpdateLine(r.Context(), lineID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
	case http.MethodDelete:
		cart, err := a.service.RemoveLine(r.Context(), r.URL.Query().Get("store_id"), r.URL.Query().Get("terminal_id"), lineID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleBillDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.BillDiscountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.service.ApplyBillDiscount(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.CartDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.service.UpdateCartDetails(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartSuspend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SuspendCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.SuspendCart(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSuspendedCarts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	items, err := a.service.ListSuspendedCarts(r.Context(), r.URL.Query().Get("store_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.SuspendedCartListResponse{Items: items})
}

func (a *API) handleSuspendedCartActions(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/carts/suspended/"), "/")
	cartID, action, _ := strings.Cut(tail, "/")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, errors.New("cart id required"))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		cart, err := a.service.GetSuspendedCart(r.Context(), cartID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
	case action == "resume" && r.Method == http.MethodPost:
		var req domain.ResumeCartRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cart, err := a.service.ResumeCart(r.Context(), cartID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCartVoid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.VoidCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := a.service.VoidCart(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
}

func (a *API) handleCartPayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.RecordPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCartComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.CompleteCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.AttemptComplete(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCartActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/carts/"), "/")
	cartID, action, _ := strings.Cut(tail, "/")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, errors.New("cart id required"))
		return
	}

	switch action {
	case "":
		cart, err := a.service.GetCart(r.Context(), cartID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.CartResponse{Cart: cart})
	case "receipt":
		receipt, err := a.service.BuildReceipt(r.Context(), cartID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, receipt)
	default:
		writeError(w, http.StatusBadRequest, errors.New("invalid cart action path"))
	}
}

func (a *API) handleSettlements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.BeginSettlementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	settlement, err := a.service.BeginSettlement(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.SettlementResponse{Settlement: settlement})
}

func (a *API) handleSettlementActions(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/settlements/"), "/")
	settlementID, action, _ := strings.Cut(tail, "/")
	if settlementID == "" {
		writeError(w, http.StatusBadRequest, errors.New("settlement id required"))
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		settlement, err := a.service.GetSettlement(r.Context(), settlementID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SettlementResponse{Settlement: settlement})
	case action == "cash-count" && r.Method == http.MethodPost:
		var req domain.CashCountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settlement, err := a.service.RecordCashCount(r.Context(), settlementID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SettlementResponse{Settlement: settlement})
	case action == "adjustments" && r.Method == http.MethodPost:
		var req domain.AdjustmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settlement, err := a.service.AddAdjustment(r.Context(), settlementID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SettlementResponse{Settlement: settlement})
	case strings.HasPrefix(action, "adjustments/") && r.Method == http.MethodDelete:
		adjustmentID := strings.TrimPrefix(action, "adjustments/")
		settlement, err := a.service.RemoveAdjustment(r.Context(), settlementID, adjustmentID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SettlementResponse{Settlement: settlement})
	case action == "complete" && r.Method == http.MethodPost:
		var req domain.CompleteSettlementRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		settlement, err := a.service.CompleteSettlement(r.Context(), settlementID, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SettlementResponse{Settlement: settlement})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	query := r.URL.Query()
	from, _ := time.Parse(time.RFC3339, query.Get("from"))
	to, _ := time.Parse(time.RFC3339, query.Get("to"))
	limit := parsePositiveLimit(query.Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), query.Get("store_id"), from, to, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}

// writeServiceError maps domain and store errors onto HTTP statuses. A
// blocked settlement carries its blocking items in the response body so the
// operator can resolve all of them in one pass.
func writeServiceError(w http.ResponseWriter, err error) {
	var blocked *domain.SettlementBlockedError
	if errors.As(err, &blocked) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          blocked.Error(),
			"reason":         blocked.Reason,
			"blocking_items": blocked.BlockingItems,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPayment),
		errors.Is(err, domain.ErrInvalidAdjustment),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrInvalidSaleType),
		errors.Is(err, domain.ErrReasonRequired):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrInsufficientPayment):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrDraftCartExists),
		errors.Is(err, domain.ErrPaymentsRecorded),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrNoActiveTransaction),
		errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the server log; clients get a generic message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
