package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/money"
	"tillpoint/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name, price_cents, tax_rate_percent, active
		FROM products
		WHERE code = upper($1) AND active = true
	`, code).Scan(&product.Code, &product.Name, &product.PriceCents, &product.TaxRatePercent, &product.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, price_cents, tax_rate_percent, active
		FROM products
		WHERE active = true
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Code, &p.Name, &p.PriceCents, &p.TaxRatePercent, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.ID == "" || shift.StoreID == "" || shift.TerminalID == "" {
		return nil, store.ErrConflict
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, store_id, terminal_id, cashier_name, opening_float_cents, status, opened_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, shift.ID, shift.StoreID, shift.TerminalID, shift.CashierName, shift.OpeningFloatCents, shift.Status, shift.OpenedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := shift
	return &created, nil
}

func (s *Store) GetActiveShift(ctx context.Context, storeID string, terminalID string) (*domain.Shift, error) {
	return s.scanShift(s.db.QueryRowContext(ctx, `
		SELECT id, store_id, terminal_id, cashier_name, opening_float_cents, status, settlement_id, opened_at, closed_at
		FROM shifts
		WHERE store_id = $1 AND terminal_id = $2 AND status = $3
	`, storeID, terminalID, domain.ShiftStatusOpen))
}

func (s *Store) GetShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	return s.scanShift(s.db.QueryRowContext(ctx, `
		SELECT id, store_id, terminal_id, cashier_name, opening_float_cents, status, settlement_id, opened_at, closed_at
		FROM shifts
		WHERE id = $1
	`, shiftID))
}

func (s *Store) scanShift(row *sql.Row) (*domain.Shift, error) {
	var shift domain.Shift
	var settlementID sql.NullString
	var closedAt sql.NullTime
	err := row.Scan(
		&shift.ID,
		&shift.StoreID,
		&shift.TerminalID,
		&shift.CashierName,
		&shift.OpeningFloatCents,
		&shift.Status,
		&settlementID,
		&shift.OpenedAt,
		&closedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	shift.OpenedAt = shift.OpenedAt.UTC()
	if settlementID.Valid {
		shift.SettlementID = settlementID.String
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		shift.ClosedAt = &t
	}
	return &shift, nil
}

func (s *Store) CloseShift(ctx context.Context, shiftID string, settlementID string, closedAt time.Time) (*domain.Shift, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shifts
		SET status = $1, settlement_id = $2, closed_at = $3
		WHERE id = $4 AND status = $5
	`, domain.ShiftStatusClosed, settlementID, closedAt, shiftID, domain.ShiftStatusOpen)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetShiftByID(ctx, shiftID); getErr != nil {
			return nil, getErr
		}
		return nil, store.ErrConflict
	}

	return s.GetShiftByID(ctx, shiftID)
}

func (s *Store) SaveCart(ctx context.Context, cart domain.Cart) (*domain.Cart, error) {
	if cart.ID == "" || cart.StoreID == "" || cart.TerminalID == "" {
		return nil, store.ErrConflict
	}

	linesJSON, err := json.Marshal(cart.Lines)
	if err != nil {
		return nil, err
	}
	totalsJSON, err := json.Marshal(cart.Totals)
	if err != nil {
		return nil, err
	}

	// A partial unique index on (store_id, terminal_id) WHERE status='draft'
	// enforces one open cart per lane.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (
			id, store_id, terminal_id, shift_id, status, lines,
			bill_discount_percent, other_charges_cents, return_amount_cents,
			notes, customer_ref, sale_type, totals, change_due_cents,
			created_at, suspended_at, completed_at, voided_at, void_reason
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			lines = EXCLUDED.lines,
			bill_discount_percent = EXCLUDED.bill_discount_percent,
			other_charges_cents = EXCLUDED.other_charges_cents,
			return_amount_cents = EXCLUDED.return_amount_cents,
			notes = EXCLUDED.notes,
			customer_ref = EXCLUDED.customer_ref,
			sale_type = EXCLUDED.sale_type,
			totals = EXCLUDED.totals,
			change_due_cents = EXCLUDED.change_due_cents,
			suspended_at = EXCLUDED.suspended_at,
			completed_at = EXCLUDED.completed_at,
			voided_at = EXCLUDED.voided_at,
			void_reason = EXCLUDED.void_reason
	`, cart.ID, cart.StoreID, cart.TerminalID, cart.ShiftID, cart.Status, linesJSON,
		cart.BillDiscountPercent, cart.OtherChargesCents, cart.ReturnAmountCents,
		cart.Notes, nullIfEmpty(cart.CustomerRef), cart.SaleType, totalsJSON, cart.ChangeDueCents,
		cart.CreatedAt, nullTime(cart.SuspendedAt), nullTime(cart.CompletedAt), nullTime(cart.VoidedAt),
		nullIfEmpty(cart.VoidReason))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	saved := cart
	return &saved, nil
}

const cartColumns = `
	id, store_id, terminal_id, shift_id, status, lines,
	bill_discount_percent, other_charges_cents, return_amount_cents,
	notes, customer_ref, sale_type, totals, change_due_cents,
	created_at, suspended_at, completed_at, voided_at, void_reason
`

func (s *Store) GetCartByID(ctx context.Context, cartID string) (*domain.Cart, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, cartID)
	cart, err := scanCartRow(row)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Store) GetDraftCart(ctx context.Context, storeID string, terminalID string) (*domain.Cart, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE store_id = $1 AND terminal_id = $2 AND status = $3
	`, storeID, terminalID, domain.CartStatusDraft)
	return scanCartRow(row)
}

func (s *Store) ListSuspendedCarts(ctx context.Context, storeID string) ([]domain.Cart, error) {
	return s.queryCarts(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE store_id = $1 AND status = $2
		ORDER BY suspended_at
	`, storeID, domain.CartStatusSuspended)
}

func (s *Store) ListCartsByShiftAndStatus(ctx context.Context, shiftID string, status string) ([]domain.Cart, error) {
	return s.queryCarts(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE shift_id = $1 AND status = $2
		ORDER BY created_at
	`, shiftID, status)
}

func (s *Store) ListCompletedCarts(ctx context.Context, shiftID string, asOf time.Time) ([]domain.Cart, error) {
	if asOf.IsZero() {
		return s.queryCarts(ctx, `
			SELECT `+cartColumns+`
			FROM carts
			WHERE shift_id = $1 AND status = $2
			ORDER BY completed_at
		`, shiftID, domain.CartStatusCompleted)
	}
	return s.queryCarts(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE shift_id = $1 AND status = $2 AND completed_at <= $3
		ORDER BY completed_at
	`, shiftID, domain.CartStatusCompleted, asOf)
}

func (s *Store) ListCompletedCartsAfter(ctx context.Context, shiftID string, after time.Time) ([]domain.Cart, error) {
	return s.queryCarts(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE shift_id = $1 AND status = $2 AND completed_at > $3
		ORDER BY completed_at
	`, shiftID, domain.CartStatusCompleted, after)
}

func (s *Store) queryCarts(ctx context.Context, query string, args ...any) ([]domain.Cart, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	carts := make([]domain.Cart, 0, 32)
	for rows.Next() {
		cart, err := scanCartRows(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, *cart)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return carts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCart(scanner rowScanner) (*domain.Cart, error) {
	var cart domain.Cart
	var linesRaw []byte
	var totalsRaw []byte
	var customerRef sql.NullString
	var voidReason sql.NullString
	var suspendedAt sql.NullTime
	var completedAt sql.NullTime
	var voidedAt sql.NullTime

	err := scanner.Scan(
		&cart.ID,
		&cart.StoreID,
		&cart.TerminalID,
		&cart.ShiftID,
		&cart.Status,
		&linesRaw,
		&cart.BillDiscountPercent,
		&cart.OtherChargesCents,
		&cart.ReturnAmountCents,
		&cart.Notes,
		&customerRef,
		&cart.SaleType,
		&totalsRaw,
		&cart.ChangeDueCents,
		&cart.CreatedAt,
		&suspendedAt,
		&completedAt,
		&voidedAt,
		&voidReason,
	)
	if err != nil {
		return nil, err
	}

	cart.CreatedAt = cart.CreatedAt.UTC()
	if customerRef.Valid {
		cart.CustomerRef = customerRef.String
	}
	if voidReason.Valid {
		cart.VoidReason = voidReason.String
	}
	if suspendedAt.Valid {
		t := suspendedAt.Time.UTC()
		cart.SuspendedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		cart.CompletedAt = &t
	}
	if voidedAt.Valid {
		t := voidedAt.Time.UTC()
		cart.VoidedAt = &t
	}
	if len(linesRaw) > 0 {
		if err := json.Unmarshal(linesRaw, &cart.Lines); err != nil {
			return nil, err
		}
	}
	if len(totalsRaw) > 0 {
		if err := json.Unmarshal(totalsRaw, &cart.Totals); err != nil {
			return nil, err
		}
	}

	return &cart, nil
}

func scanCartRow(row *sql.Row) (*domain.Cart, error) {
	cart, err := scanCart(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return cart, nil
}

func scanCartRows(rows *sql.Rows) (*domain.Cart, error) {
	return scanCart(rows)
}

func (s *Store) CompleteCart(ctx context.Context, cartID string, changeDue money.Money, completedAt time.Time) (*domain.Cart, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE carts
		SET status = $1, change_due_cents = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`, domain.CartStatusCompleted, changeDue, completedAt, cartID, domain.CartStatusDraft)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, getErr := s.GetCartByID(ctx, cartID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == domain.CartStatusCompleted {
			return nil, domain.ErrAlreadyCompleted
		}
		return nil, store.ErrConflict
	}

	return s.GetCartByID(ctx, cartID)
}

func (s *Store) VoidCart(ctx context.Context, cartID string, reason string, voidedAt time.Time) (*domain.Cart, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE carts
		SET status = $1, void_reason = $2, voided_at = $3
		WHERE id = $4 AND status = $5
	`, domain.CartStatusVoided, reason, voidedAt, cartID, domain.CartStatusDraft)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, getErr := s.GetCartByID(ctx, cartID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == domain.CartStatusCompleted {
			return nil, domain.ErrAlreadyCompleted
		}
		return nil, store.ErrConflict
	}

	return s.GetCartByID(ctx, cartID)
}

func (s *Store) GetTenderSession(ctx context.Context, cartID string) (*domain.TenderSession, error) {
	var session domain.TenderSession
	var paymentsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT cart_id, payments, change_due_cents
		FROM tender_sessions
		WHERE cart_id = $1
	`, cartID).Scan(&session.CartID, &paymentsRaw, &session.ChangeDueCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if len(paymentsRaw) > 0 {
		if err := json.Unmarshal(paymentsRaw, &session.Payments); err != nil {
			return nil, err
		}
	}
	return &session, nil
}

func (s *Store) SaveTenderSession(ctx context.Context, session domain.TenderSession) error {
	if session.CartID == "" {
		return store.ErrConflict
	}

	paymentsJSON, err := json.Marshal(session.Payments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tender_sessions (cart_id, payments, change_due_cents)
		VALUES ($1,$2,$3)
		ON CONFLICT (cart_id) DO UPDATE SET
			payments = EXCLUDED.payments,
			change_due_cents = EXCLUDED.change_due_cents
	`, session.CartID, paymentsJSON, session.ChangeDueCents)
	return err
}

func (s *Store) CreateSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	if settlement.ID == "" || settlement.ShiftID == "" {
		return nil, store.ErrConflict
	}

	blob, err := marshalSettlementBlob(settlement)
	if err != nil {
		return nil, err
	}

	// A partial unique index on shift_id WHERE status='pending' keeps one
	// open settlement per shift.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settlements (
			id, store_id, shift_id, status, snapshot_at,
			opening_float_cents, expected_cash_cents, counted_cash_cents,
			variance_cents, adjustment_net_cents, detail, notes, created_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, settlement.ID, settlement.StoreID, settlement.ShiftID, settlement.Status, settlement.SnapshotAt,
		settlement.OpeningFloatCents, settlement.ExpectedCashCents, settlement.CountedCashCents,
		settlement.VarianceCents, settlement.AdjustmentNetCents, blob, settlement.Notes,
		settlement.CreatedAt, nullTime(settlement.CompletedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := settlement
	return &created, nil
}

func (s *Store) GetSettlementByID(ctx context.Context, settlementID string) (*domain.Settlement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, shift_id, status, snapshot_at,
			opening_float_cents, expected_cash_cents, counted_cash_cents,
			variance_cents, adjustment_net_cents, detail, notes, created_at, completed_at
		FROM settlements
		WHERE id = $1
	`, settlementID)
	return scanSettlement(row)
}

func (s *Store) GetPendingSettlement(ctx context.Context, shiftID string) (*domain.Settlement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, shift_id, status, snapshot_at,
			opening_float_cents, expected_cash_cents, counted_cash_cents,
			variance_cents, adjustment_net_cents, detail, notes, created_at, completed_at
		FROM settlements
		WHERE shift_id = $1 AND status = $2
	`, shiftID, domain.SettlementStatusPending)
	return scanSettlement(row)
}

func (s *Store) UpdatePendingSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	blob, err := marshalSettlementBlob(settlement)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE settlements
		SET counted_cash_cents = $1, variance_cents = $2, adjustment_net_cents = $3,
			detail = $4, notes = $5
		WHERE id = $6 AND status = $7
	`, settlement.CountedCashCents, settlement.VarianceCents, settlement.AdjustmentNetCents,
		blob, settlement.Notes, settlement.ID, domain.SettlementStatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetSettlementByID(ctx, settlement.ID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrAlreadyCompleted
	}

	return s.GetSettlementByID(ctx, settlement.ID)
}

func (s *Store) CompleteSettlement(ctx context.Context, settlement domain.Settlement) (*domain.Settlement, error) {
	blob, err := marshalSettlementBlob(settlement)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE settlements
		SET status = $1, counted_cash_cents = $2, variance_cents = $3,
			adjustment_net_cents = $4, detail = $5, notes = $6, completed_at = $7
		WHERE id = $8 AND status = $9
	`, domain.SettlementStatusCompleted, settlement.CountedCashCents, settlement.VarianceCents,
		settlement.AdjustmentNetCents, blob, settlement.Notes, nullTime(settlement.CompletedAt),
		settlement.ID, domain.SettlementStatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetSettlementByID(ctx, settlement.ID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrAlreadyCompleted
	}

	return s.GetSettlementByID(ctx, settlement.ID)
}

// settlementBlob groups the nested settlement parts into one JSONB column.
type settlementBlob struct {
	NonCashTotals   []domain.MethodTotal          `json:"non_cash_totals"`
	Adjustments     []domain.SettlementAdjustment `json:"adjustments"`
	Tally           domain.DenominationTally      `json:"tally"`
	SnapshotCartIDs []string                      `json:"snapshot_cart_ids"`
	LateCartIDs     []string                      `json:"late_cart_ids"`
}

func marshalSettlementBlob(settlement domain.Settlement) ([]byte, error) {
	return json.Marshal(settlementBlob{
		NonCashTotals:   settlement.NonCashTotals,
		Adjustments:     settlement.Adjustments,
		Tally:           settlement.Tally,
		SnapshotCartIDs: settlement.SnapshotCartIDs,
		LateCartIDs:     settlement.LateCartIDs,
	})
}

func scanSettlement(row *sql.Row) (*domain.Settlement, error) {
	var settlement domain.Settlement
	var detailRaw []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&settlement.ID,
		&settlement.StoreID,
		&settlement.ShiftID,
		&settlement.Status,
		&settlement.SnapshotAt,
		&settlement.OpeningFloatCents,
		&settlement.ExpectedCashCents,
		&settlement.CountedCashCents,
		&settlement.VarianceCents,
		&settlement.AdjustmentNetCents,
		&detailRaw,
		&settlement.Notes,
		&settlement.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	settlement.SnapshotAt = settlement.SnapshotAt.UTC()
	settlement.CreatedAt = settlement.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		settlement.CompletedAt = &t
	}
	if len(detailRaw) > 0 {
		var blob settlementBlob
		if err := json.Unmarshal(detailRaw, &blob); err != nil {
			return nil, err
		}
		settlement.NonCashTotals = blob.NonCashTotals
		settlement.Adjustments = blob.Adjustments
		settlement.Tally = blob.Tally
		settlement.SnapshotCartIDs = blob.SnapshotCartIDs
		settlement.LateCartIDs = blob.LateCartIDs
	}

	return &settlement, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StoreID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ActorUsername, &entry.ActorRole,
			&entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
