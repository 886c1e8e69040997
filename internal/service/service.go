// Package service implements the escrow ledger's business operations on top
// of repository.Store: wallet primitives, withdrawals, escrow capture and
// release, and dispute settlement.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"escrow_ledger/internal/metrics"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
)

type Options struct {
	MaxRetries       int
	PlatformFeeBps   int64
	PlatformWalletID uuid.UUID
}

// Ledger groups every service behind one value for the HTTP layer.
type Ledger struct {
	*WalletService
	*WithdrawalService
	*EscrowService
	*DisputeService
}

func NewLedger(store repository.Store, logger *slog.Logger, publisher notify.Publisher, opts Options) *Ledger {
	wallets := NewWalletService(store, logger, opts.MaxRetries)
	return &Ledger{
		WalletService:     wallets,
		WithdrawalService: NewWithdrawalService(wallets, publisher),
		EscrowService:     NewEscrowService(wallets, publisher, opts.PlatformFeeBps, opts.PlatformWalletID),
		DisputeService:    NewDisputeService(wallets, publisher, opts.PlatformFeeBps, opts.PlatformWalletID),
	}
}

// runner executes a unit of work in a storage transaction and retries it on
// serialization failures, deadlocks and lost optimistic races.
type runner struct {
	store      repository.Store
	logger     *slog.Logger
	maxRetries int
}

func (r *runner) inTx(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := r.store.InTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		r.logger.Warn("Retrying ledger transaction",
			slog.String("op", op),
			slog.Int("attempt", i+1),
			slog.Any("err", err),
		)
		metrics.TxRetriesTotal.WithLabelValues(op).Inc()
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * 10 * time.Millisecond):
		}
	}
	r.logger.Error("Ledger transaction failed after retries",
		slog.String("op", op),
		slog.Any("err", lastErr),
	)
	return lastErr
}

func isRetryableError(err error) bool {
	if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrIdempotencyConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// errorLabel maps an error to a bounded metrics label.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, repository.ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, repository.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, repository.ErrInsufficientLockedFunds):
		return "insufficient_locked_funds"
	case errors.Is(err, repository.ErrWalletFrozen):
		return "wallet_frozen"
	case errors.Is(err, repository.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, repository.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, repository.ErrWithdrawalNotFound),
		errors.Is(err, repository.ErrHoldNotFound),
		errors.Is(err, repository.ErrDisputeNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrDisputeExists):
		return "dispute_exists"
	case errors.Is(err, repository.ErrDuplicateOperation):
		return "duplicate_operation"
	case errors.Is(err, repository.ErrLedgerDrift):
		return "ledger_drift"
	}
	return "internal"
}

// isRejection reports whether err is an expected business outcome rather
// than an infrastructure failure.
func isRejection(err error) bool {
	return errorLabel(err) != "internal"
}

// fail records a failed operation and returns err unchanged.
func fail(logger *slog.Logger, op string, err error, attrs ...any) error {
	label := errorLabel(err)
	metrics.LedgerRejectionsTotal.WithLabelValues(op, label).Inc()

	attrs = append(attrs, slog.String("op", op), slog.Any("err", err))
	if isRejection(err) {
		logger.Warn("Ledger operation rejected", attrs...)
	} else {
		logger.Error("Ledger operation failed", attrs...)
	}
	return err
}

// publish delivers a post-commit event. Failures are logged only.
func publish(ctx context.Context, logger *slog.Logger, p notify.Publisher, ev notify.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish ledger event",
			slog.String("type", string(ev.Type)),
			slog.String("reference_id", ev.ReferenceID),
			slog.Any("err", err),
		)
	}
}
