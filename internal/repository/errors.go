package repository

import "errors"

var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrWalletAlreadyExist      = errors.New("wallet already exists")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientLockedFunds = errors.New("insufficient locked funds")
	ErrWalletFrozen            = errors.New("wallet is frozen")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidState            = errors.New("invalid state")
	ErrAlreadySettled          = errors.New("already settled")
	ErrDuplicateOperation      = errors.New("idempotency key reused for a different operation")
	ErrInvalidRequest          = errors.New("invalid request")

	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrHoldNotFound       = errors.New("escrow hold not found")
	ErrDisputeNotFound    = errors.New("dispute not found")
	ErrDisputeExists      = errors.New("dispute already open for booking")

	// Transient, retried by the service with the same idempotency keys.
	ErrVersionConflict     = errors.New("wallet version conflict")
	ErrIdempotencyConflict = errors.New("idempotency key raced")

	ErrLedgerDrift = errors.New("ledger drift: cached balance differs from entries")
)
