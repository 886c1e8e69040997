package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"escrow_ledger/internal/metrics"
	"escrow_ledger/internal/models"
	"escrow_ledger/internal/repository"
)

// WalletService owns balances. Every balance change goes through one of the
// four primitives below and appends exactly one ledger entry per wallet it
// touches, inside the caller's transaction.
type WalletService struct {
	store  repository.Store
	logger *slog.Logger
	run    *runner
}

func NewWalletService(store repository.Store, logger *slog.Logger, maxRetries int) *WalletService {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &WalletService{
		store:  store,
		logger: logger,
		run:    &runner{store: store, logger: logger, maxRetries: maxRetries},
	}
}

// txn is one attempt of a ledger transaction. It collects the entries
// appended so they can be counted once the attempt commits.
type txn struct {
	repository.Tx
	now     time.Time
	entries []models.LedgerEntry
}

// mutation describes a single primitive call.
type mutation struct {
	walletID uuid.UUID
	// counterparty is the destination wallet of an unlock.
	counterparty uuid.UUID
	amount       int64
	reason       models.EntryReason
	referenceID  string
	key          string
}

func (s *WalletService) inTx(ctx context.Context, op string, fn func(t *txn) error) error {
	var appended []models.LedgerEntry
	err := s.run.inTx(ctx, op, func(tx repository.Tx) error {
		t := &txn{Tx: tx, now: time.Now().UTC()}
		if err := fn(t); err != nil {
			return err
		}
		appended = t.entries
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range appended {
		metrics.LedgerEntriesTotal.WithLabelValues(string(e.Kind), string(e.Reason)).Inc()
	}
	return nil
}

// prior returns the entry already recorded under the mutation's key. A key
// reused for another wallet or amount is rejected.
func (s *WalletService) prior(ctx context.Context, t *txn, m mutation, kind models.EntryKind) (models.LedgerEntry, bool, error) {
	e, err := t.FindEntryByKey(ctx, m.key)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return models.LedgerEntry{}, false, nil
	}
	if err != nil {
		return models.LedgerEntry{}, false, err
	}
	if e.WalletID != m.walletID || e.Amount != m.amount || e.Kind != kind {
		return models.LedgerEntry{}, false, fmt.Errorf("%w: key %q", repository.ErrDuplicateOperation, m.key)
	}
	return e, true, nil
}

func (s *WalletService) record(ctx context.Context, t *txn, walletID uuid.UUID, kind models.EntryKind, m mutation, key string, counterparty *uuid.UUID) (models.LedgerEntry, error) {
	e := models.LedgerEntry{
		ID:                   uuid.New(),
		WalletID:             walletID,
		Kind:                 kind,
		Amount:               m.amount,
		Reason:               m.reason,
		ReferenceID:          m.referenceID,
		CounterpartyWalletID: counterparty,
		IdempotencyKey:       key,
		CreatedAt:            t.now,
	}
	if err := t.InsertEntry(ctx, e); err != nil {
		return models.LedgerEntry{}, err
	}
	t.entries = append(t.entries, e)
	return e, nil
}

func validate(m mutation) error {
	if m.amount <= 0 {
		return fmt.Errorf("%w: %d", repository.ErrInvalidAmount, m.amount)
	}
	if m.key == "" {
		return fmt.Errorf("%w: idempotency key is required", repository.ErrInvalidRequest)
	}
	return nil
}

// credit adds to available. Frozen wallets may still receive credits.
func (s *WalletService) credit(ctx context.Context, t *txn, m mutation) (models.LedgerEntry, error) {
	if err := validate(m); err != nil {
		return models.LedgerEntry{}, err
	}
	if e, ok, err := s.prior(ctx, t, m, models.KindCredit); err != nil || ok {
		return e, err
	}

	w, err := t.LockWallet(ctx, m.walletID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if w.Available > math.MaxInt64-m.amount {
		return models.LedgerEntry{}, fmt.Errorf("%w: balance overflow", repository.ErrInvalidAmount)
	}
	w.Available += m.amount
	w.UpdatedAt = t.now
	if err := t.SaveWallet(ctx, &w); err != nil {
		return models.LedgerEntry{}, err
	}
	return s.record(ctx, t, w.ID, models.KindCredit, m, m.key, nil)
}

// debit removes from available.
func (s *WalletService) debit(ctx context.Context, t *txn, m mutation) (models.LedgerEntry, error) {
	if err := validate(m); err != nil {
		return models.LedgerEntry{}, err
	}
	if e, ok, err := s.prior(ctx, t, m, models.KindDebit); err != nil || ok {
		return e, err
	}

	w, err := t.LockWallet(ctx, m.walletID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if w.IsFrozen {
		return models.LedgerEntry{}, repository.ErrWalletFrozen
	}
	if w.Available < m.amount {
		return models.LedgerEntry{}, repository.ErrInsufficientFunds
	}
	w.Available -= m.amount
	w.UpdatedAt = t.now
	if err := t.SaveWallet(ctx, &w); err != nil {
		return models.LedgerEntry{}, err
	}
	return s.record(ctx, t, w.ID, models.KindDebit, m, m.key, nil)
}

// lock moves funds from available to locked on the same wallet.
func (s *WalletService) lock(ctx context.Context, t *txn, m mutation) (models.LedgerEntry, error) {
	if err := validate(m); err != nil {
		return models.LedgerEntry{}, err
	}
	if e, ok, err := s.prior(ctx, t, m, models.KindLock); err != nil || ok {
		return e, err
	}

	w, err := t.LockWallet(ctx, m.walletID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if w.IsFrozen {
		return models.LedgerEntry{}, repository.ErrWalletFrozen
	}
	if w.Available < m.amount {
		return models.LedgerEntry{}, repository.ErrInsufficientFunds
	}
	w.Available -= m.amount
	w.Locked += m.amount
	w.UpdatedAt = t.now
	if err := t.SaveWallet(ctx, &w); err != nil {
		return models.LedgerEntry{}, err
	}
	return s.record(ctx, t, w.ID, models.KindLock, m, m.key, nil)
}

// unlock removes funds from the source's locked balance and adds them to the
// counterparty's available balance. It records an UNLOCK entry on the source
// under the mutation key and, for a distinct counterparty, a CREDIT entry
// under key+":credit". Unlocking from a frozen wallet is allowed: the funds
// were committed before the freeze.
func (s *WalletService) unlock(ctx context.Context, t *txn, m mutation) (models.LedgerEntry, error) {
	if err := validate(m); err != nil {
		return models.LedgerEntry{}, err
	}
	if e, ok, err := s.prior(ctx, t, m, models.KindUnlock); err != nil || ok {
		return e, err
	}

	locked, err := s.lockWallets(ctx, t, m.walletID, m.counterparty)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	src, dst := locked[m.walletID], locked[m.counterparty]
	if src.Locked < m.amount {
		return models.LedgerEntry{}, repository.ErrInsufficientLockedFunds
	}
	if dst.Available > math.MaxInt64-m.amount {
		return models.LedgerEntry{}, fmt.Errorf("%w: balance overflow", repository.ErrInvalidAmount)
	}

	src.Locked -= m.amount
	dst.Available += m.amount
	src.UpdatedAt, dst.UpdatedAt = t.now, t.now
	if err := t.SaveWallet(ctx, src); err != nil {
		return models.LedgerEntry{}, err
	}
	if dst != src {
		if err := t.SaveWallet(ctx, dst); err != nil {
			return models.LedgerEntry{}, err
		}
	}

	dstID, srcID := dst.ID, src.ID
	entry, err := s.record(ctx, t, src.ID, models.KindUnlock, m, m.key, &dstID)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	if _, err := s.record(ctx, t, dst.ID, models.KindCredit, m, m.key+":credit", &srcID); err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// lockWallets row-locks the given wallets in ascending id order so that
// concurrent multi-wallet transactions cannot deadlock. Duplicate ids share
// one value.
func (s *WalletService) lockWallets(ctx context.Context, t *txn, ids ...uuid.UUID) (map[uuid.UUID]*models.Wallet, error) {
	uniq := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].String() < uniq[j].String() })

	out := make(map[uuid.UUID]*models.Wallet, len(uniq))
	for _, id := range uniq {
		w, err := t.LockWallet(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = &w
	}
	return out, nil
}

// Credit adds amount to a wallet's available balance. A repeated key returns
// the entry recorded the first time.
func (s *WalletService) Credit(ctx context.Context, walletID uuid.UUID, amount int64, reason models.EntryReason, referenceID, key string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	m := mutation{walletID: walletID, amount: amount, reason: reason, referenceID: referenceID, key: key}
	err := s.inTx(ctx, "credit", func(t *txn) (err error) {
		entry, err = s.credit(ctx, t, m)
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, fail(s.logger, "credit", err, slog.String("wallet_id", walletID.String()), slog.Int64("amount", amount))
	}
	return entry, nil
}

func (s *WalletService) Debit(ctx context.Context, walletID uuid.UUID, amount int64, reason models.EntryReason, referenceID, key string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	m := mutation{walletID: walletID, amount: amount, reason: reason, referenceID: referenceID, key: key}
	err := s.inTx(ctx, "debit", func(t *txn) (err error) {
		entry, err = s.debit(ctx, t, m)
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, fail(s.logger, "debit", err, slog.String("wallet_id", walletID.String()), slog.Int64("amount", amount))
	}
	return entry, nil
}

func (s *WalletService) Lock(ctx context.Context, walletID uuid.UUID, amount int64, reason models.EntryReason, referenceID, key string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	m := mutation{walletID: walletID, amount: amount, reason: reason, referenceID: referenceID, key: key}
	err := s.inTx(ctx, "lock", func(t *txn) (err error) {
		entry, err = s.lock(ctx, t, m)
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, fail(s.logger, "lock", err, slog.String("wallet_id", walletID.String()), slog.Int64("amount", amount))
	}
	return entry, nil
}

// Unlock moves amount out of source's locked balance into destination's
// available balance. Source and destination may be the same wallet.
func (s *WalletService) Unlock(ctx context.Context, sourceID, destinationID uuid.UUID, amount int64, reason models.EntryReason, referenceID, key string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	m := mutation{walletID: sourceID, counterparty: destinationID, amount: amount, reason: reason, referenceID: referenceID, key: key}
	err := s.inTx(ctx, "unlock", func(t *txn) (err error) {
		entry, err = s.unlock(ctx, t, m)
		return err
	})
	if err != nil {
		return models.LedgerEntry{}, fail(s.logger, "unlock", err,
			slog.String("wallet_id", sourceID.String()),
			slog.String("destination_wallet_id", destinationID.String()),
			slog.Int64("amount", amount),
		)
	}
	return entry, nil
}

// Deposit credits an externally settled top-up. The external reference is
// the idempotency key.
func (s *WalletService) Deposit(ctx context.Context, walletID uuid.UUID, amount int64, externalRef string) (models.Wallet, error) {
	if externalRef == "" {
		return models.Wallet{}, fail(s.logger, "deposit", fmt.Errorf("%w: external reference is required", repository.ErrInvalidRequest))
	}
	var w models.Wallet
	m := mutation{walletID: walletID, amount: amount, reason: models.ReasonTopup, referenceID: externalRef, key: "topup:" + externalRef}
	err := s.inTx(ctx, "deposit", func(t *txn) error {
		if _, err := s.credit(ctx, t, m); err != nil {
			return err
		}
		var err error
		w, err = t.LockWallet(ctx, walletID)
		return err
	})
	if err != nil {
		return models.Wallet{}, fail(s.logger, "deposit", err, slog.String("wallet_id", walletID.String()), slog.Int64("amount", amount))
	}
	return w, nil
}

var walletOwnerTypes = map[models.OwnerType]bool{
	models.OwnerClient:   true,
	models.OwnerArtisan:  true,
	models.OwnerBusiness: true,
}

func (s *WalletService) CreateWallet(ctx context.Context, ownerID uuid.UUID, ownerType models.OwnerType) (models.Wallet, error) {
	if !walletOwnerTypes[ownerType] {
		return models.Wallet{}, fail(s.logger, "create_wallet", fmt.Errorf("%w: owner type %q", repository.ErrInvalidRequest, ownerType))
	}
	w := models.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		OwnerType: ownerType,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.InTx(ctx, func(tx repository.Tx) error { return tx.InsertWallet(ctx, w) }); err != nil {
		return models.Wallet{}, fail(s.logger, "create_wallet", err, slog.String("owner_id", ownerID.String()))
	}
	s.logger.Info("Wallet created",
		slog.String("wallet_id", w.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.String("owner_type", string(ownerType)),
	)
	return w, nil
}

// EnsurePlatformWallet creates the fee-collecting wallet if it does not
// exist yet.
func (s *WalletService) EnsurePlatformWallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	w := models.Wallet{ID: id, OwnerID: id, OwnerType: models.OwnerPlatform, UpdatedAt: time.Now().UTC()}
	err := s.store.InTx(ctx, func(tx repository.Tx) error { return tx.InsertWallet(ctx, w) })
	switch {
	case err == nil:
		s.logger.Info("Platform wallet created", slog.String("wallet_id", id.String()))
		return w, nil
	case errors.Is(err, repository.ErrWalletAlreadyExist):
		return s.store.GetWallet(ctx, id)
	default:
		return models.Wallet{}, err
	}
}

func (s *WalletService) GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			s.logger.Warn("GetWallet: wallet not found", slog.String("wallet_id", walletID.String()))
			return w, repository.ErrWalletNotFound
		}
		s.logger.Error("GetWallet failed", slog.String("wallet_id", walletID.String()), slog.Any("err", err))
		return w, err
	}
	return w, nil
}

func (s *WalletService) ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, walletID)
}

func (s *WalletService) FreezeWallet(ctx context.Context, walletID, adminID uuid.UUID) (models.Wallet, error) {
	return s.setFrozen(ctx, walletID, adminID, true)
}

func (s *WalletService) UnfreezeWallet(ctx context.Context, walletID, adminID uuid.UUID) (models.Wallet, error) {
	return s.setFrozen(ctx, walletID, adminID, false)
}

func (s *WalletService) setFrozen(ctx context.Context, walletID, adminID uuid.UUID, frozen bool) (models.Wallet, error) {
	op := "unfreeze"
	if frozen {
		op = "freeze"
	}
	var w models.Wallet
	err := s.inTx(ctx, op, func(t *txn) (err error) {
		w, err = t.LockWallet(ctx, walletID)
		if err != nil || w.IsFrozen == frozen {
			return err
		}
		w.IsFrozen = frozen
		w.UpdatedAt = t.now
		return t.SaveWallet(ctx, &w)
	})
	if err != nil {
		return models.Wallet{}, fail(s.logger, op, err, slog.String("wallet_id", walletID.String()))
	}
	s.logger.Info("Wallet freeze state changed",
		slog.String("wallet_id", walletID.String()),
		slog.String("admin_id", adminID.String()),
		slog.Bool("frozen", frozen),
	)
	return w, nil
}

// ReconcileWallet folds a wallet's entries and compares the result with the
// stored balances. A mismatch returns ErrLedgerDrift along with the report.
func (s *WalletService) ReconcileWallet(ctx context.Context, walletID uuid.UUID) (models.Reconciliation, error) {
	var rec models.Reconciliation
	err := s.inTx(ctx, "reconcile", func(t *txn) error {
		w, err := t.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		entries, err := t.ListEntries(ctx, walletID)
		if err != nil {
			return err
		}
		rec = fold(w, entries)
		return nil
	})
	if err != nil {
		return rec, fail(s.logger, "reconcile", err, slog.String("wallet_id", walletID.String()))
	}
	if !rec.Balanced {
		s.logger.Error("Wallet balance drift detected",
			slog.String("wallet_id", walletID.String()),
			slog.Int64("stored_available", rec.StoredAvailable),
			slog.Int64("folded_available", rec.FoldedAvailable),
			slog.Int64("stored_locked", rec.StoredLocked),
			slog.Int64("folded_locked", rec.FoldedLocked),
		)
		return rec, repository.ErrLedgerDrift
	}
	return rec, nil
}

func fold(w models.Wallet, entries []models.LedgerEntry) models.Reconciliation {
	rec := models.Reconciliation{
		WalletID:        w.ID,
		StoredAvailable: w.Available,
		StoredLocked:    w.Locked,
		Entries:         len(entries),
	}
	for _, e := range entries {
		switch e.Kind {
		case models.KindCredit:
			rec.FoldedAvailable += e.Amount
		case models.KindDebit:
			rec.FoldedAvailable -= e.Amount
		case models.KindLock:
			rec.FoldedAvailable -= e.Amount
			rec.FoldedLocked += e.Amount
		case models.KindUnlock:
			rec.FoldedLocked -= e.Amount
		}
	}
	rec.Balanced = rec.FoldedAvailable == rec.StoredAvailable && rec.FoldedLocked == rec.StoredLocked
	return rec
}

// CheckConservation verifies that money held in wallets and pending
// withdrawals equals external inflow minus paid-out withdrawals.
func (s *WalletService) CheckConservation(ctx context.Context) (models.LedgerTotals, error) {
	t, err := s.store.Totals(ctx)
	if err != nil {
		s.logger.Error("CheckConservation failed", slog.Any("err", err))
		return t, err
	}
	t.Balanced = t.Available+t.Locked+t.PendingWithdrawals == t.Inflow-t.Outflow
	if !t.Balanced {
		s.logger.Error("Conservation check failed",
			slog.Int64("available", t.Available),
			slog.Int64("locked", t.Locked),
			slog.Int64("pending_withdrawals", t.PendingWithdrawals),
			slog.Int64("inflow", t.Inflow),
			slog.Int64("outflow", t.Outflow),
		)
		return t, repository.ErrLedgerDrift
	}
	return t, nil
}
