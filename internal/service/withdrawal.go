package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"escrow_ledger/internal/models"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
)

// WithdrawalService moves funds out of the ledger. A request debits the
// wallet immediately; approval marks the request paid and rejection credits
// the amount back.
type WithdrawalService struct {
	wallets   *WalletService
	publisher notify.Publisher
	logger    *slog.Logger
}

func NewWithdrawalService(wallets *WalletService, publisher notify.Publisher) *WithdrawalService {
	return &WithdrawalService{
		wallets:   wallets,
		publisher: publisher,
		logger:    wallets.logger,
	}
}

func withdrawalKey(id uuid.UUID, step string) string {
	return "withdrawal:" + id.String() + ":" + step
}

// RequestWithdrawal debits the wallet and queues a PENDING request. requestID
// is the caller's idempotency key and becomes the request id; uuid.Nil asks
// for a fresh one. Replaying a requestID returns the original request, and
// reusing it for a different wallet or amount fails with
// ErrDuplicateOperation.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, requestID, walletID uuid.UUID, amount int64, bank models.BankDetails) (models.WithdrawalRequest, error) {
	if amount <= 0 {
		return models.WithdrawalRequest{}, fail(s.logger, "request_withdrawal",
			fmt.Errorf("%w: %d", repository.ErrInvalidAmount, amount), slog.String("wallet_id", walletID.String()))
	}
	if strings.TrimSpace(bank.AccountName) == "" || strings.TrimSpace(bank.AccountNumber) == "" || strings.TrimSpace(bank.BankName) == "" {
		return models.WithdrawalRequest{}, fail(s.logger, "request_withdrawal",
			fmt.Errorf("%w: bank details are incomplete", repository.ErrInvalidRequest), slog.String("wallet_id", walletID.String()))
	}

	if requestID == uuid.Nil {
		requestID = uuid.New()
	}
	req := models.WithdrawalRequest{
		ID:          requestID,
		WalletID:    walletID,
		Amount:      amount,
		Status:      models.WithdrawalPending,
		BankDetails: bank,
	}
	replayed := false
	err := s.wallets.inTx(ctx, "request_withdrawal", func(t *txn) error {
		existing, err := t.FindWithdrawal(ctx, requestID)
		switch {
		case err == nil:
			if existing.WalletID != walletID || existing.Amount != amount {
				return fmt.Errorf("%w: withdrawal %s", repository.ErrDuplicateOperation, requestID)
			}
			req, replayed = existing, true
			return nil
		case !errors.Is(err, repository.ErrWithdrawalNotFound):
			return err
		}

		_, err = s.wallets.debit(ctx, t, mutation{
			walletID:    walletID,
			amount:      amount,
			reason:      models.ReasonWithdrawalHold,
			referenceID: req.ID.String(),
			key:         withdrawalKey(req.ID, "hold"),
		})
		if err != nil {
			return err
		}
		req.CreatedAt = t.now
		return t.InsertWithdrawal(ctx, req)
	})
	if err != nil {
		return models.WithdrawalRequest{}, fail(s.logger, "request_withdrawal", err,
			slog.String("wallet_id", walletID.String()),
			slog.Int64("amount", amount),
		)
	}

	if replayed {
		return req, nil
	}
	s.logger.Info("Withdrawal requested",
		slog.String("withdrawal_id", req.ID.String()),
		slog.String("wallet_id", walletID.String()),
		slog.Int64("amount", amount),
	)
	return req, nil
}

// ApproveWithdrawal marks a pending request paid. The funds already left the
// wallet at request time, so no ledger entry is written.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, id, adminID uuid.UUID) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := s.wallets.inTx(ctx, "approve_withdrawal", func(t *txn) (err error) {
		req, err = t.TransitionWithdrawal(ctx, id, models.WithdrawalPaid, adminID, "", t.now)
		return err
	})
	if err != nil {
		return models.WithdrawalRequest{}, fail(s.logger, "approve_withdrawal", err, slog.String("withdrawal_id", id.String()))
	}

	s.logger.Info("Withdrawal approved",
		slog.String("withdrawal_id", id.String()),
		slog.String("admin_id", adminID.String()),
		slog.Int64("amount", req.Amount),
	)
	publish(ctx, s.logger, s.publisher, notify.Event{
		Type:        notify.EventWithdrawalApproved,
		ReferenceID: id.String(),
		WalletIDs:   []uuid.UUID{req.WalletID},
		Amount:      req.Amount,
		At:          *req.ResolvedAt,
	})
	return req, nil
}

// RejectWithdrawal closes a pending request and credits the amount back to
// the wallet in the same transaction.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, id, adminID uuid.UUID, reason string) (models.WithdrawalRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return models.WithdrawalRequest{}, fail(s.logger, "reject_withdrawal",
			fmt.Errorf("%w: rejection reason is required", repository.ErrInvalidRequest), slog.String("withdrawal_id", id.String()))
	}

	var req models.WithdrawalRequest
	err := s.wallets.inTx(ctx, "reject_withdrawal", func(t *txn) (err error) {
		req, err = t.TransitionWithdrawal(ctx, id, models.WithdrawalRejected, adminID, reason, t.now)
		if err != nil {
			return err
		}
		_, err = s.wallets.credit(ctx, t, mutation{
			walletID:    req.WalletID,
			amount:      req.Amount,
			reason:      models.ReasonWithdrawalRefund,
			referenceID: id.String(),
			key:         withdrawalKey(id, "refund"),
		})
		return err
	})
	if err != nil {
		return models.WithdrawalRequest{}, fail(s.logger, "reject_withdrawal", err, slog.String("withdrawal_id", id.String()))
	}

	s.logger.Info("Withdrawal rejected",
		slog.String("withdrawal_id", id.String()),
		slog.String("admin_id", adminID.String()),
		slog.Int64("amount", req.Amount),
	)
	publish(ctx, s.logger, s.publisher, notify.Event{
		Type:        notify.EventWithdrawalRejected,
		ReferenceID: id.String(),
		WalletIDs:   []uuid.UUID{req.WalletID},
		Amount:      req.Amount,
		Detail:      reason,
		At:          *req.ResolvedAt,
	})
	return req, nil
}

func (s *WithdrawalService) GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	req, err := s.wallets.store.GetWithdrawal(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrWithdrawalNotFound) {
		s.logger.Error("GetWithdrawal failed", slog.String("withdrawal_id", id.String()), slog.Any("err", err))
	}
	return req, err
}

// ListWithdrawals returns requests newest first. An empty status lists all.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	switch status {
	case "", models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalRejected, models.WithdrawalPaid:
	default:
		return nil, fmt.Errorf("%w: status %q", repository.ErrInvalidRequest, status)
	}
	return s.wallets.store.ListWithdrawals(ctx, status)
}
