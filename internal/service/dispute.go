package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"escrow_ledger/internal/metrics"
	"escrow_ledger/internal/models"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
)

// DisputeService opens disputes against held bookings and settles them by
// distributing the hold according to an admin's resolution.
type DisputeService struct {
	wallets          *WalletService
	publisher        notify.Publisher
	logger           *slog.Logger
	feeBps           int64
	platformWalletID uuid.UUID
}

func NewDisputeService(wallets *WalletService, publisher notify.Publisher, feeBps int64, platformWalletID uuid.UUID) *DisputeService {
	return &DisputeService{
		wallets:          wallets,
		publisher:        publisher,
		logger:           wallets.logger,
		feeBps:           feeBps,
		platformWalletID: platformWalletID,
	}
}

// OpenDispute records a dispute for a booking whose payment is still held.
// Only one dispute may exist per booking.
func (s *DisputeService) OpenDispute(ctx context.Context, bookingID, artisanWalletID uuid.UUID, reason string, openedBy uuid.UUID) (models.Dispute, error) {
	if strings.TrimSpace(reason) == "" {
		return models.Dispute{}, fail(s.logger, "open_dispute",
			fmt.Errorf("%w: dispute reason is required", repository.ErrInvalidRequest), slog.String("booking_id", bookingID.String()))
	}

	d := models.Dispute{
		ID:              uuid.New(),
		BookingID:       bookingID,
		ArtisanWalletID: artisanWalletID,
		Reason:          reason,
		OpenedBy:        openedBy,
		Status:          models.DisputeOpen,
	}
	err := s.wallets.inTx(ctx, "open_dispute", func(t *txn) error {
		hold, err := t.LockEscrowHold(ctx, bookingID)
		if err != nil {
			return err
		}
		if hold.Status != models.HoldHeld {
			return fmt.Errorf("booking %s: %w", bookingID, repository.ErrAlreadySettled)
		}
		if _, err := t.LockWallet(ctx, artisanWalletID); err != nil {
			return err
		}
		d.CreatedAt = t.now
		return t.InsertDispute(ctx, d)
	})
	if err != nil {
		return models.Dispute{}, fail(s.logger, "open_dispute", err, slog.String("booking_id", bookingID.String()))
	}

	s.logger.Info("Dispute opened",
		slog.String("dispute_id", d.ID.String()),
		slog.String("booking_id", bookingID.String()),
		slog.String("opened_by", openedBy.String()),
	)
	return d, nil
}

// ResolveDispute distributes the booking's hold per the resolution type and
// closes the dispute, all in one transaction. A dispute that is already
// resolved, or whose hold was released meanwhile, yields ErrAlreadySettled.
func (s *DisputeService) ResolveDispute(ctx context.Context, disputeID uuid.UUID, rt models.ResolutionType, adminID uuid.UUID, partialRefund *int64) (models.Settlement, error) {
	if !rt.Valid() {
		return models.Settlement{}, fail(s.logger, "resolve_dispute",
			fmt.Errorf("%w: resolution type %q", repository.ErrInvalidRequest, rt), slog.String("dispute_id", disputeID.String()))
	}
	if rt != models.ResolutionPartialRefund {
		partialRefund = nil
	}

	var st models.Settlement
	err := s.wallets.inTx(ctx, "resolve_dispute", func(t *txn) error {
		d, err := t.LockDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		if d.Status != models.DisputeOpen {
			return fmt.Errorf("dispute %s: %w: %w", disputeID, repository.ErrAlreadySettled, repository.ErrInvalidState)
		}
		hold, err := t.LockEscrowHold(ctx, d.BookingID)
		if err != nil {
			return err
		}
		if hold.Status != models.HoldHeld {
			return fmt.Errorf("booking %s: %w", d.BookingID, repository.ErrAlreadySettled)
		}

		clientShare, artisanShare, err := shares(rt, hold.Amount, partialRefund)
		if err != nil {
			return err
		}
		net, fee := SplitFee(artisanShare, s.feeBps)
		payouts := []models.Payout{
			{WalletID: hold.ClientWalletID, Amount: clientShare, Role: roleClient},
			{WalletID: d.ArtisanWalletID, Amount: net, Role: roleArtisan},
			{WalletID: s.platformWalletID, Amount: fee, Role: rolePlatformFee},
		}
		paid, err := settleHold(ctx, t, s.wallets, hold, payouts, models.ReasonDisputeSettlement, "dispute:"+disputeID.String())
		if err != nil {
			return err
		}
		if _, err := t.SettleEscrowHold(ctx, d.BookingID, models.HoldResolved, t.now); err != nil {
			return err
		}
		if _, err := t.ResolveDispute(ctx, disputeID, rt, partialRefund, adminID, t.now); err != nil {
			return err
		}

		id := disputeID
		st = models.Settlement{
			BookingID:  d.BookingID,
			DisputeID:  &id,
			Resolution: rt,
			HoldAmount: hold.Amount,
			Payouts:    paid,
			SettledAt:  t.now,
		}
		return nil
	})
	if err != nil {
		return models.Settlement{}, fail(s.logger, "resolve_dispute", err,
			slog.String("dispute_id", disputeID.String()),
			slog.String("resolution", string(rt)),
		)
	}

	metrics.SettlementsTotal.WithLabelValues(string(rt)).Inc()
	s.logger.Info("Dispute resolved",
		slog.String("dispute_id", disputeID.String()),
		slog.String("booking_id", st.BookingID.String()),
		slog.String("resolution", string(rt)),
		slog.String("admin_id", adminID.String()),
		slog.Int64("amount", st.HoldAmount),
	)
	publish(ctx, s.logger, s.publisher, notify.Event{
		Type:        notify.EventDisputeResolved,
		ReferenceID: disputeID.String(),
		WalletIDs:   payoutWallets(st.Payouts),
		Amount:      st.HoldAmount,
		Detail:      string(rt),
		At:          st.SettledAt,
	})
	return st, nil
}

// shares splits a hold between client refund and artisan gross. The
// artisan's gross is subject to the platform fee. For SPLIT_50_50 the odd
// unit goes to the client.
func shares(rt models.ResolutionType, hold int64, partialRefund *int64) (client, artisan int64, err error) {
	switch rt {
	case models.ResolutionRefundClient:
		return hold, 0, nil
	case models.ResolutionPayArtisan, models.ResolutionNoAction:
		return 0, hold, nil
	case models.ResolutionSplit5050:
		return hold - hold/2, hold / 2, nil
	case models.ResolutionPartialRefund:
		if partialRefund == nil {
			return 0, 0, fmt.Errorf("%w: partial refund amount is required", repository.ErrInvalidAmount)
		}
		p := *partialRefund
		if p < 0 || p > hold {
			return 0, 0, fmt.Errorf("%w: partial refund %d outside [0, %d]", repository.ErrInvalidAmount, p, hold)
		}
		return p, hold - p, nil
	}
	return 0, 0, fmt.Errorf("%w: resolution type %q", repository.ErrInvalidRequest, rt)
}

func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error) {
	d, err := s.wallets.store.GetDispute(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrDisputeNotFound) {
		s.logger.Error("GetDispute failed", slog.String("dispute_id", id.String()), slog.Any("err", err))
	}
	return d, err
}
