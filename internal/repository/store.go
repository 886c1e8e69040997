// Package repository is the ledger store: wallets, append-only ledger
// entries, withdrawal requests, escrow holds and disputes. PostgreSQL is the
// source of truth; the in-memory implementation backs unit tests.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"escrow_ledger/internal/models"
)

// Tx is the write surface of a single storage transaction. Every method runs
// inside the transaction opened by Store.InTx; nothing is visible to other
// transactions until fn returns nil.
type Tx interface {
	// LockWallet reads the wallet row and holds a row lock until commit.
	LockWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error)
	// SaveWallet persists balances and the frozen flag if w.Version still
	// matches the stored version, then increments w.Version.
	SaveWallet(ctx context.Context, w *models.Wallet) error
	InsertWallet(ctx context.Context, w models.Wallet) error

	FindEntryByKey(ctx context.Context, key string) (models.LedgerEntry, error)
	// ListEntries returns a wallet's entries in append order.
	ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error)
	InsertEntry(ctx context.Context, e models.LedgerEntry) error

	FindWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)
	InsertWithdrawal(ctx context.Context, w models.WithdrawalRequest) error
	// TransitionWithdrawal moves a PENDING request to a terminal status.
	// Returns ErrInvalidState if the request is no longer PENDING.
	TransitionWithdrawal(ctx context.Context, id uuid.UUID, to models.WithdrawalStatus, adminID uuid.UUID, note string, at time.Time) (models.WithdrawalRequest, error)

	LockEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error)
	InsertEscrowHold(ctx context.Context, h models.EscrowHold) error
	// SettleEscrowHold consumes a HELD hold. Returns ErrAlreadySettled otherwise.
	SettleEscrowHold(ctx context.Context, bookingID uuid.UUID, to models.HoldStatus, at time.Time) (models.EscrowHold, error)

	LockDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error)
	InsertDispute(ctx context.Context, d models.Dispute) error
	// ResolveDispute moves an OPEN dispute to RESOLVED. Returns ErrInvalidState otherwise.
	ResolveDispute(ctx context.Context, id uuid.UUID, rt models.ResolutionType, partial *int64, adminID uuid.UUID, at time.Time) (models.Dispute, error)
}

//go:generate mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks Store

// Store is the persistence interface used by the service layer.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error)
	// ListEntries returns a wallet's entries in append order.
	ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)
	// ListWithdrawals filters by status when status is non-empty.
	ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error)
	GetEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error)
	GetDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error)
	// Totals reads a consistent system-wide snapshot. Balanced is left for
	// the caller to compute.
	Totals(ctx context.Context) (models.LedgerTotals, error)
}
