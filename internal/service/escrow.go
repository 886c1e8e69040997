package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"escrow_ledger/internal/metrics"
	"escrow_ledger/internal/models"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
)

const (
	roleClient      = "client"
	roleArtisan     = "artisan"
	rolePlatformFee = "platform_fee"
)

// EscrowService captures booking payments into escrow holds and releases
// them to the artisan on completion.
type EscrowService struct {
	wallets          *WalletService
	publisher        notify.Publisher
	logger           *slog.Logger
	feeBps           int64
	platformWalletID uuid.UUID
}

func NewEscrowService(wallets *WalletService, publisher notify.Publisher, feeBps int64, platformWalletID uuid.UUID) *EscrowService {
	return &EscrowService{
		wallets:          wallets,
		publisher:        publisher,
		logger:           wallets.logger,
		feeBps:           feeBps,
		platformWalletID: platformWalletID,
	}
}

// CaptureBookingPayment locks amount on the client wallet for the booking.
// Capturing the same booking again with the same terms returns the existing
// hold.
func (s *EscrowService) CaptureBookingPayment(ctx context.Context, bookingID, clientWalletID uuid.UUID, amount int64) (models.EscrowHold, error) {
	var hold models.EscrowHold
	err := s.wallets.inTx(ctx, "capture", func(t *txn) error {
		existing, err := t.LockEscrowHold(ctx, bookingID)
		switch {
		case err == nil:
			if existing.ClientWalletID != clientWalletID || existing.Amount != amount {
				return fmt.Errorf("%w: booking %s already captured with different terms", repository.ErrDuplicateOperation, bookingID)
			}
			hold = existing
			return nil
		case !errors.Is(err, repository.ErrHoldNotFound):
			return err
		}

		entry, err := s.wallets.lock(ctx, t, mutation{
			walletID:    clientWalletID,
			amount:      amount,
			reason:      models.ReasonBookingPayment,
			referenceID: bookingID.String(),
			key:         bookingID.String(),
		})
		if err != nil {
			return err
		}
		hold = models.EscrowHold{
			BookingID:      bookingID,
			ClientWalletID: clientWalletID,
			Amount:         amount,
			LockEntryID:    entry.ID,
			Status:         models.HoldHeld,
			CreatedAt:      t.now,
		}
		return t.InsertEscrowHold(ctx, hold)
	})
	if err != nil {
		return models.EscrowHold{}, fail(s.logger, "capture", err,
			slog.String("booking_id", bookingID.String()),
			slog.String("wallet_id", clientWalletID.String()),
			slog.Int64("amount", amount),
		)
	}
	return hold, nil
}

// ReleaseBooking pays the held amount to the artisan minus the platform fee.
// A hold that has already been released or resolved yields ErrAlreadySettled
// and writes nothing.
func (s *EscrowService) ReleaseBooking(ctx context.Context, bookingID, artisanWalletID uuid.UUID) (models.Settlement, error) {
	var st models.Settlement
	err := s.wallets.inTx(ctx, "release", func(t *txn) error {
		hold, err := t.LockEscrowHold(ctx, bookingID)
		if err != nil {
			return err
		}
		if hold.Status != models.HoldHeld {
			return fmt.Errorf("booking %s: %w", bookingID, repository.ErrAlreadySettled)
		}

		net, fee := SplitFee(hold.Amount, s.feeBps)
		payouts := []models.Payout{
			{WalletID: artisanWalletID, Amount: net, Role: roleArtisan},
			{WalletID: s.platformWalletID, Amount: fee, Role: rolePlatformFee},
		}
		paid, err := settleHold(ctx, t, s.wallets, hold, payouts, models.ReasonBookingRelease, bookingID.String()+":release")
		if err != nil {
			return err
		}
		if _, err := t.SettleEscrowHold(ctx, bookingID, models.HoldReleased, t.now); err != nil {
			return err
		}
		st = models.Settlement{BookingID: bookingID, HoldAmount: hold.Amount, Payouts: paid, SettledAt: t.now}
		return nil
	})
	if err != nil {
		return models.Settlement{}, fail(s.logger, "release", err,
			slog.String("booking_id", bookingID.String()),
			slog.String("artisan_wallet_id", artisanWalletID.String()),
		)
	}

	metrics.SettlementsTotal.WithLabelValues("RELEASE").Inc()
	s.logger.Info("Booking released",
		slog.String("booking_id", bookingID.String()),
		slog.String("artisan_wallet_id", artisanWalletID.String()),
		slog.Int64("amount", st.HoldAmount),
	)
	publish(ctx, s.logger, s.publisher, notify.Event{
		Type:        notify.EventBookingReleased,
		ReferenceID: bookingID.String(),
		WalletIDs:   payoutWallets(st.Payouts),
		Amount:      st.HoldAmount,
		At:          st.SettledAt,
	})
	return st, nil
}

func (s *EscrowService) GetEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error) {
	hold, err := s.wallets.store.GetEscrowHold(ctx, bookingID)
	if err != nil && !errors.Is(err, repository.ErrHoldNotFound) {
		s.logger.Error("GetEscrowHold failed", slog.String("booking_id", bookingID.String()), slog.Any("err", err))
	}
	return hold, err
}

// settleHold unlocks the hold from the client wallet into each payout
// wallet. Zero-amount legs are skipped. The payouts must sum to the hold.
func settleHold(ctx context.Context, t *txn, wallets *WalletService, hold models.EscrowHold, payouts []models.Payout, reason models.EntryReason, keyPrefix string) ([]models.Payout, error) {
	var total int64
	ids := []uuid.UUID{hold.ClientWalletID}
	for _, p := range payouts {
		if p.Amount < 0 {
			return nil, fmt.Errorf("%w: negative payout to %s", repository.ErrInvalidAmount, p.Role)
		}
		total += p.Amount
		ids = append(ids, p.WalletID)
	}
	if total != hold.Amount {
		return nil, fmt.Errorf("%w: payouts %d do not match hold %d", repository.ErrInvalidAmount, total, hold.Amount)
	}
	if _, err := wallets.lockWallets(ctx, t, ids...); err != nil {
		return nil, err
	}

	paid := make([]models.Payout, 0, len(payouts))
	for _, p := range payouts {
		if p.Amount == 0 {
			continue
		}
		_, err := wallets.unlock(ctx, t, mutation{
			walletID:     hold.ClientWalletID,
			counterparty: p.WalletID,
			amount:       p.Amount,
			reason:       reason,
			referenceID:  hold.BookingID.String(),
			key:          keyPrefix + ":" + p.Role,
		})
		if err != nil {
			return nil, err
		}
		paid = append(paid, p)
	}
	return paid, nil
}

func payoutWallets(payouts []models.Payout) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, p.WalletID)
	}
	return out
}
