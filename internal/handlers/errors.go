package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"escrow_ledger/internal/repository"
)

const staleViewMessage = "this request was already resolved by someone else - refresh"

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Checked in order. AlreadySettled precedes InvalidState because a resolved
// dispute carries both.
var errorMappings = []errorMapping{
	{repository.ErrWalletNotFound, http.StatusNotFound, "WALLET_NOT_FOUND", ""},
	{repository.ErrWithdrawalNotFound, http.StatusNotFound, "WITHDRAWAL_NOT_FOUND", ""},
	{repository.ErrHoldNotFound, http.StatusNotFound, "ESCROW_HOLD_NOT_FOUND", ""},
	{repository.ErrDisputeNotFound, http.StatusNotFound, "DISPUTE_NOT_FOUND", ""},
	{repository.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT", ""},
	{repository.ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST", ""},
	{repository.ErrInsufficientFunds, http.StatusConflict, "INSUFFICIENT_FUNDS", "amount exceeds available balance"},
	{repository.ErrInsufficientLockedFunds, http.StatusConflict, "INSUFFICIENT_LOCKED_FUNDS", ""},
	{repository.ErrAlreadySettled, http.StatusConflict, "ALREADY_SETTLED", staleViewMessage},
	{repository.ErrInvalidState, http.StatusConflict, "INVALID_STATE", staleViewMessage},
	{repository.ErrDisputeExists, http.StatusConflict, "DISPUTE_EXISTS", ""},
	{repository.ErrDuplicateOperation, http.StatusConflict, "DUPLICATE_OPERATION", ""},
	{repository.ErrWalletAlreadyExist, http.StatusConflict, "WALLET_EXISTS", ""},
	{repository.ErrLedgerDrift, http.StatusConflict, "LEDGER_DRIFT", ""},
	{repository.ErrWalletFrozen, http.StatusLocked, "WALLET_FROZEN", ""},
}

func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			c.JSON(m.status, gin.H{"error": msg, "code": m.code})
			return
		}
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable", "code": "UNAVAILABLE"})
}
