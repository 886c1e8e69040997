package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"escrow_ledger/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so that read helpers
// are shared between plain reads and in-transaction reads.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type LedgerPGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewLedgerPGRepository(pool *pgxpool.Pool, logger *slog.Logger) *LedgerPGRepository {
	return &LedgerPGRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *LedgerPGRepository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error("Failed to begin transaction", slog.Any("err", err))
		return err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", slog.Any("err", err))
		}
	}()

	if err := fn(&pgTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transaction", slog.Any("err", err))
		return err
	}
	return nil
}

func (r *LedgerPGRepository) GetWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	w, err := scanWallet(r.pool.QueryRow(ctx, selectWallet+" WHERE id = $1", id))
	if err != nil && !errors.Is(err, ErrWalletNotFound) {
		r.logger.Error("Failed to get wallet",
			slog.String("wallet_id", id.String()),
			slog.Any("err", err),
		)
	}
	return w, err
}

func (r *LedgerPGRepository) ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	return listEntries(ctx, r.pool, walletID)
}

func listEntries(ctx context.Context, q querier, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	rows, err := q.Query(ctx, selectEntry+" WHERE wallet_id = $1 ORDER BY seq", walletID)
	if err != nil {
		return nil, fmt.Errorf("repository: list entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.LedgerEntry, 0, 16)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate entries: %w", err)
	}
	return out, nil
}

func (r *LedgerPGRepository) GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, selectWithdrawal+" WHERE id = $1", id))
}

func (r *LedgerPGRepository) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	query := selectWithdrawal
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: list withdrawals: %w", err)
	}
	defer rows.Close()

	out := make([]models.WithdrawalRequest, 0, 8)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate withdrawals: %w", err)
	}
	return out, nil
}

func (r *LedgerPGRepository) GetEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error) {
	return scanHold(r.pool.QueryRow(ctx, selectHold+" WHERE booking_id = $1", bookingID))
}

func (r *LedgerPGRepository) GetDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error) {
	return scanDispute(r.pool.QueryRow(ctx, selectDispute+" WHERE id = $1", id))
}

func (r *LedgerPGRepository) Totals(ctx context.Context) (models.LedgerTotals, error) {
	var t models.LedgerTotals
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return t, fmt.Errorf("repository: totals begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(available), 0), COALESCE(SUM(locked), 0) FROM wallets`,
	).Scan(&t.Available, &t.Locked); err != nil {
		return t, fmt.Errorf("repository: totals wallets: %w", err)
	}
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status IN ('APPROVED', 'PAID')), 0)
		FROM withdrawal_requests`,
	).Scan(&t.PendingWithdrawals, &t.Outflow); err != nil {
		return t, fmt.Errorf("repository: totals withdrawals: %w", err)
	}
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE kind = 'CREDIT' AND reason = 'TOPUP'`,
	).Scan(&t.Inflow); err != nil {
		return t, fmt.Errorf("repository: totals inflow: %w", err)
	}
	return t, nil
}

// CreateWallet inserts a wallet outside of any ledger operation. Used by
// startup bootstrap and tests.
func (r *LedgerPGRepository) CreateWallet(ctx context.Context, w models.Wallet) error {
	return (&pgTx{q: r.pool}).InsertWallet(ctx, w)
}

type pgTx struct {
	q querier
}

func (t *pgTx) LockWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	return scanWallet(t.q.QueryRow(ctx, selectWallet+" WHERE id = $1 FOR UPDATE", id))
}

func (t *pgTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE wallets
		SET available = $2, locked = $3, is_frozen = $4, version = version + 1, updated_at = $5
		WHERE id = $1 AND version = $6`,
		w.ID, w.Available, w.Locked, w.IsFrozen, w.UpdatedAt, w.Version,
	)
	if err != nil {
		return fmt.Errorf("repository: save wallet: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrVersionConflict
	}
	w.Version++
	return nil
}

func (t *pgTx) InsertWallet(ctx context.Context, w models.Wallet) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO wallets (id, owner_id, owner_type, available, locked, is_frozen, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.OwnerID, string(w.OwnerType), w.Available, w.Locked, w.IsFrozen, w.Version, w.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrWalletAlreadyExist
	}
	if err != nil {
		return fmt.Errorf("repository: insert wallet: %w", err)
	}
	return nil
}

func (t *pgTx) FindEntryByKey(ctx context.Context, key string) (models.LedgerEntry, error) {
	return scanEntry(t.q.QueryRow(ctx, selectEntry+" WHERE idempotency_key = $1", key))
}

func (t *pgTx) ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	return listEntries(ctx, t.q, walletID)
}

func (t *pgTx) InsertEntry(ctx context.Context, e models.LedgerEntry) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO ledger_entries (id, wallet_id, kind, amount, reason, reference_id, counterparty_wallet_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.WalletID, string(e.Kind), e.Amount, string(e.Reason), e.ReferenceID,
		e.CounterpartyWalletID, e.IdempotencyKey, e.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrIdempotencyConflict
	}
	if err != nil {
		return fmt.Errorf("repository: insert entry: %w", err)
	}
	return nil
}

func (t *pgTx) FindWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	return scanWithdrawal(t.q.QueryRow(ctx, selectWithdrawal+" WHERE id = $1 FOR UPDATE", id))
}

func (t *pgTx) InsertWithdrawal(ctx context.Context, w models.WithdrawalRequest) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO withdrawal_requests (id, wallet_id, amount, status, bank_account_name, bank_account_number, bank_name, admin_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.WalletID, w.Amount, string(w.Status),
		w.BankDetails.AccountName, w.BankDetails.AccountNumber, w.BankDetails.BankName,
		w.AdminNote, w.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrIdempotencyConflict
	}
	if err != nil {
		return fmt.Errorf("repository: insert withdrawal: %w", err)
	}
	return nil
}

func (t *pgTx) TransitionWithdrawal(ctx context.Context, id uuid.UUID, to models.WithdrawalStatus, adminID uuid.UUID, note string, at time.Time) (models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.q.QueryRow(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, resolved_by = $3, resolved_at = $4, admin_note = $5
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+withdrawalColumns,
		id, string(to), adminID, at, note,
	))
	if err == nil || !errors.Is(err, ErrWithdrawalNotFound) {
		return w, err
	}

	// Nothing updated: either the request does not exist or someone else
	// already moved it out of PENDING.
	var exists bool
	if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("repository: withdrawal exists: %w", err)
	}
	if !exists {
		return models.WithdrawalRequest{}, ErrWithdrawalNotFound
	}
	return models.WithdrawalRequest{}, ErrInvalidState
}

func (t *pgTx) LockEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error) {
	return scanHold(t.q.QueryRow(ctx, selectHold+" WHERE booking_id = $1 FOR UPDATE", bookingID))
}

func (t *pgTx) InsertEscrowHold(ctx context.Context, h models.EscrowHold) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO escrow_holds (booking_id, client_wallet_id, amount, lock_entry_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.BookingID, h.ClientWalletID, h.Amount, h.LockEntryID, string(h.Status), h.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrIdempotencyConflict
	}
	if err != nil {
		return fmt.Errorf("repository: insert escrow hold: %w", err)
	}
	return nil
}

func (t *pgTx) SettleEscrowHold(ctx context.Context, bookingID uuid.UUID, to models.HoldStatus, at time.Time) (models.EscrowHold, error) {
	h, err := scanHold(t.q.QueryRow(ctx, `
		UPDATE escrow_holds SET status = $2, settled_at = $3
		WHERE booking_id = $1 AND status = 'HELD'
		RETURNING `+holdColumns,
		bookingID, string(to), at,
	))
	if err == nil || !errors.Is(err, ErrHoldNotFound) {
		return h, err
	}

	var exists bool
	if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM escrow_holds WHERE booking_id = $1)`, bookingID).Scan(&exists); err != nil {
		return models.EscrowHold{}, fmt.Errorf("repository: hold exists: %w", err)
	}
	if !exists {
		return models.EscrowHold{}, ErrHoldNotFound
	}
	return models.EscrowHold{}, ErrAlreadySettled
}

func (t *pgTx) LockDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error) {
	return scanDispute(t.q.QueryRow(ctx, selectDispute+" WHERE id = $1 FOR UPDATE", id))
}

func (t *pgTx) InsertDispute(ctx context.Context, d models.Dispute) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO disputes (id, booking_id, artisan_wallet_id, reason, opened_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.BookingID, d.ArtisanWalletID, d.Reason, d.OpenedBy, string(d.Status), d.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDisputeExists
	}
	if err != nil {
		return fmt.Errorf("repository: insert dispute: %w", err)
	}
	return nil
}

func (t *pgTx) ResolveDispute(ctx context.Context, id uuid.UUID, rt models.ResolutionType, partial *int64, adminID uuid.UUID, at time.Time) (models.Dispute, error) {
	d, err := scanDispute(t.q.QueryRow(ctx, `
		UPDATE disputes
		SET status = 'RESOLVED', resolution_type = $2, partial_refund_amount = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+disputeColumns,
		id, string(rt), partial, adminID, at,
	))
	if err == nil || !errors.Is(err, ErrDisputeNotFound) {
		return d, err
	}

	var exists bool
	if err := t.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM disputes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return models.Dispute{}, fmt.Errorf("repository: dispute exists: %w", err)
	}
	if !exists {
		return models.Dispute{}, ErrDisputeNotFound
	}
	return models.Dispute{}, ErrInvalidState
}

const (
	walletColumns     = `id, owner_id, owner_type, available, locked, is_frozen, version, updated_at`
	entryColumns      = `id, wallet_id, kind, amount, reason, reference_id, counterparty_wallet_id, idempotency_key, created_at`
	withdrawalColumns = `id, wallet_id, amount, status, bank_account_name, bank_account_number, bank_name, admin_note, created_at, resolved_at, resolved_by`
	holdColumns       = `booking_id, client_wallet_id, amount, lock_entry_id, status, created_at, settled_at`
	disputeColumns    = `id, booking_id, artisan_wallet_id, reason, opened_by, status, resolution_type, partial_refund_amount, resolved_by, created_at, resolved_at`

	selectWallet     = `SELECT ` + walletColumns + ` FROM wallets`
	selectEntry      = `SELECT ` + entryColumns + ` FROM ledger_entries`
	selectWithdrawal = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests`
	selectHold       = `SELECT ` + holdColumns + ` FROM escrow_holds`
	selectDispute    = `SELECT ` + disputeColumns + ` FROM disputes`
)

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	var ownerType string
	err := row.Scan(&w.ID, &w.OwnerID, &ownerType, &w.Available, &w.Locked, &w.IsFrozen, &w.Version, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		return models.Wallet{}, fmt.Errorf("repository: scan wallet: %w", err)
	}
	w.OwnerType = models.OwnerType(ownerType)
	return w, nil
}

func scanEntry(row pgx.Row) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	var kind, reason string
	err := row.Scan(&e.ID, &e.WalletID, &kind, &e.Amount, &reason, &e.ReferenceID,
		&e.CounterpartyWalletID, &e.IdempotencyKey, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.LedgerEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("repository: scan entry: %w", err)
	}
	e.Kind = models.EntryKind(kind)
	e.Reason = models.EntryReason(reason)
	return e, nil
}

func scanWithdrawal(row pgx.Row) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var status string
	err := row.Scan(&w.ID, &w.WalletID, &w.Amount, &status,
		&w.BankDetails.AccountName, &w.BankDetails.AccountNumber, &w.BankDetails.BankName,
		&w.AdminNote, &w.CreatedAt, &w.ResolvedAt, &w.ResolvedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WithdrawalRequest{}, ErrWithdrawalNotFound
	}
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("repository: scan withdrawal: %w", err)
	}
	w.Status = models.WithdrawalStatus(status)
	return w, nil
}

func scanHold(row pgx.Row) (models.EscrowHold, error) {
	var h models.EscrowHold
	var status string
	err := row.Scan(&h.BookingID, &h.ClientWalletID, &h.Amount, &h.LockEntryID, &status, &h.CreatedAt, &h.SettledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EscrowHold{}, ErrHoldNotFound
	}
	if err != nil {
		return models.EscrowHold{}, fmt.Errorf("repository: scan escrow hold: %w", err)
	}
	h.Status = models.HoldStatus(status)
	return h, nil
}

func scanDispute(row pgx.Row) (models.Dispute, error) {
	var d models.Dispute
	var status string
	var rt *string
	err := row.Scan(&d.ID, &d.BookingID, &d.ArtisanWalletID, &d.Reason, &d.OpenedBy, &status,
		&rt, &d.PartialRefundAmount, &d.ResolvedBy, &d.CreatedAt, &d.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Dispute{}, ErrDisputeNotFound
	}
	if err != nil {
		return models.Dispute{}, fmt.Errorf("repository: scan dispute: %w", err)
	}
	d.Status = models.DisputeStatus(status)
	if rt != nil {
		v := models.ResolutionType(*rt)
		d.ResolutionType = &v
	}
	return d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
