package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"escrow_ledger/internal/models"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Transactions are serialized by a single mutex and applied
// copy-on-commit, so a failed fn leaves the state untouched.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

type memState struct {
	wallets     map[uuid.UUID]models.Wallet
	entries     []models.LedgerEntry
	keys        map[string]int
	withdrawals map[uuid.UUID]models.WithdrawalRequest
	holds       map[uuid.UUID]models.EscrowHold
	disputes    map[uuid.UUID]models.Dispute
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			wallets:     make(map[uuid.UUID]models.Wallet),
			keys:        make(map[string]int),
			withdrawals: make(map[uuid.UUID]models.WithdrawalRequest),
			holds:       make(map[uuid.UUID]models.EscrowHold),
			disputes:    make(map[uuid.UUID]models.Dispute),
		},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		wallets:     make(map[uuid.UUID]models.Wallet, len(s.wallets)),
		entries:     s.entries[:len(s.entries):len(s.entries)],
		keys:        make(map[string]int, len(s.keys)),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest, len(s.withdrawals)),
		holds:       make(map[uuid.UUID]models.EscrowHold, len(s.holds)),
		disputes:    make(map[uuid.UUID]models.Dispute, len(s.disputes)),
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	for k, v := range s.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range s.holds {
		c.holds[k] = v
	}
	for k, v := range s.disputes {
		c.disputes[k] = v
	}
	return c
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// CreateWallet inserts a wallet directly. Used by tests and bootstrap.
func (s *MemoryStore) CreateWallet(ctx context.Context, w models.Wallet) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.InsertWallet(ctx, w) })
}

func (s *MemoryStore) GetWallet(_ context.Context, id uuid.UUID) (models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.state.wallets[id]
	if !ok {
		return models.Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *MemoryStore) ListEntries(_ context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.walletEntries(walletID), nil
}

func (s *memState) walletEntries(walletID uuid.UUID) []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, 16)
	for _, e := range s.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out
}

func (s *MemoryStore) GetWithdrawal(_ context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.state.withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, ErrWithdrawalNotFound
	}
	return w, nil
}

func (s *MemoryStore) ListWithdrawals(_ context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WithdrawalRequest, 0, len(s.state.withdrawals))
	for _, w := range s.state.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetEscrowHold(_ context.Context, bookingID uuid.UUID) (models.EscrowHold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.state.holds[bookingID]
	if !ok {
		return models.EscrowHold{}, ErrHoldNotFound
	}
	return h, nil
}

func (s *MemoryStore) GetDispute(_ context.Context, id uuid.UUID) (models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.state.disputes[id]
	if !ok {
		return models.Dispute{}, ErrDisputeNotFound
	}
	return d, nil
}

func (s *MemoryStore) Totals(_ context.Context) (models.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t models.LedgerTotals
	for _, w := range s.state.wallets {
		t.Available += w.Available
		t.Locked += w.Locked
	}
	for _, w := range s.state.withdrawals {
		switch w.Status {
		case models.WithdrawalPending:
			t.PendingWithdrawals += w.Amount
		case models.WithdrawalApproved, models.WithdrawalPaid:
			t.Outflow += w.Amount
		}
	}
	for _, e := range s.state.entries {
		if e.Kind == models.KindCredit && e.Reason == models.ReasonTopup {
			t.Inflow += e.Amount
		}
	}
	return t, nil
}

type memTx struct {
	st *memState
}

func (t *memTx) LockWallet(_ context.Context, id uuid.UUID) (models.Wallet, error) {
	w, ok := t.st.wallets[id]
	if !ok {
		return models.Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (t *memTx) SaveWallet(_ context.Context, w *models.Wallet) error {
	cur, ok := t.st.wallets[w.ID]
	if !ok {
		return ErrWalletNotFound
	}
	if cur.Version != w.Version {
		return ErrVersionConflict
	}
	if w.Available < 0 || w.Locked < 0 {
		return ErrInsufficientFunds
	}
	w.Version++
	t.st.wallets[w.ID] = *w
	return nil
}

func (t *memTx) InsertWallet(_ context.Context, w models.Wallet) error {
	if _, ok := t.st.wallets[w.ID]; ok {
		return ErrWalletAlreadyExist
	}
	for _, existing := range t.st.wallets {
		if existing.OwnerID == w.OwnerID {
			return ErrWalletAlreadyExist
		}
	}
	t.st.wallets[w.ID] = w
	return nil
}

func (t *memTx) FindEntryByKey(_ context.Context, key string) (models.LedgerEntry, error) {
	i, ok := t.st.keys[key]
	if !ok {
		return models.LedgerEntry{}, ErrEntryNotFound
	}
	return t.st.entries[i], nil
}

func (t *memTx) ListEntries(_ context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error) {
	return t.st.walletEntries(walletID), nil
}

func (t *memTx) InsertEntry(_ context.Context, e models.LedgerEntry) error {
	if _, ok := t.st.keys[e.IdempotencyKey]; ok {
		return ErrIdempotencyConflict
	}
	if _, ok := t.st.wallets[e.WalletID]; !ok {
		return ErrWalletNotFound
	}
	t.st.entries = append(t.st.entries, e)
	t.st.keys[e.IdempotencyKey] = len(t.st.entries) - 1
	return nil
}

func (t *memTx) FindWithdrawal(_ context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	w, ok := t.st.withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, ErrWithdrawalNotFound
	}
	return w, nil
}

func (t *memTx) InsertWithdrawal(_ context.Context, w models.WithdrawalRequest) error {
	if _, ok := t.st.withdrawals[w.ID]; ok {
		return ErrIdempotencyConflict
	}
	t.st.withdrawals[w.ID] = w
	return nil
}

func (t *memTx) TransitionWithdrawal(_ context.Context, id uuid.UUID, to models.WithdrawalStatus, adminID uuid.UUID, note string, at time.Time) (models.WithdrawalRequest, error) {
	w, ok := t.st.withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, ErrWithdrawalNotFound
	}
	if w.Status != models.WithdrawalPending {
		return models.WithdrawalRequest{}, ErrInvalidState
	}
	w.Status = to
	w.ResolvedBy = &adminID
	w.ResolvedAt = &at
	w.AdminNote = note
	t.st.withdrawals[id] = w
	return w, nil
}

func (t *memTx) LockEscrowHold(_ context.Context, bookingID uuid.UUID) (models.EscrowHold, error) {
	h, ok := t.st.holds[bookingID]
	if !ok {
		return models.EscrowHold{}, ErrHoldNotFound
	}
	return h, nil
}

func (t *memTx) InsertEscrowHold(_ context.Context, h models.EscrowHold) error {
	if _, ok := t.st.holds[h.BookingID]; ok {
		return ErrIdempotencyConflict
	}
	t.st.holds[h.BookingID] = h
	return nil
}

func (t *memTx) SettleEscrowHold(_ context.Context, bookingID uuid.UUID, to models.HoldStatus, at time.Time) (models.EscrowHold, error) {
	h, ok := t.st.holds[bookingID]
	if !ok {
		return models.EscrowHold{}, ErrHoldNotFound
	}
	if h.Status != models.HoldHeld {
		return models.EscrowHold{}, ErrAlreadySettled
	}
	h.Status = to
	h.SettledAt = &at
	t.st.holds[bookingID] = h
	return h, nil
}

func (t *memTx) LockDispute(_ context.Context, id uuid.UUID) (models.Dispute, error) {
	d, ok := t.st.disputes[id]
	if !ok {
		return models.Dispute{}, ErrDisputeNotFound
	}
	return d, nil
}

func (t *memTx) InsertDispute(_ context.Context, d models.Dispute) error {
	for _, existing := range t.st.disputes {
		if existing.BookingID == d.BookingID {
			return ErrDisputeExists
		}
	}
	t.st.disputes[d.ID] = d
	return nil
}

func (t *memTx) ResolveDispute(_ context.Context, id uuid.UUID, rt models.ResolutionType, partial *int64, adminID uuid.UUID, at time.Time) (models.Dispute, error) {
	d, ok := t.st.disputes[id]
	if !ok {
		return models.Dispute{}, ErrDisputeNotFound
	}
	if d.Status != models.DisputeOpen {
		return models.Dispute{}, ErrInvalidState
	}
	d.Status = models.DisputeResolved
	d.ResolutionType = &rt
	d.PartialRefundAmount = partial
	d.ResolvedBy = &adminID
	d.ResolvedAt = &at
	t.st.disputes[id] = d
	return d, nil
}
