package models

import (
	"time"

	"github.com/google/uuid"
)

// All amounts are integer minor currency units.

type OwnerType string

const (
	OwnerClient   OwnerType = "CLIENT"
	OwnerArtisan  OwnerType = "ARTISAN"
	OwnerBusiness OwnerType = "BUSINESS"
	OwnerPlatform OwnerType = "PLATFORM"
)

type EntryKind string

const (
	KindCredit  EntryKind = "CREDIT"
	KindDebit   EntryKind = "DEBIT"
	KindLock    EntryKind = "LOCK"
	KindUnlock  EntryKind = "UNLOCK"
	KindReverse EntryKind = "REVERSE"
)

type EntryReason string

const (
	ReasonTopup             EntryReason = "TOPUP"
	ReasonBookingPayment    EntryReason = "BOOKING_PAYMENT"
	ReasonBookingRelease    EntryReason = "BOOKING_RELEASE"
	ReasonWithdrawalHold    EntryReason = "WITHDRAWAL_HOLD"
	ReasonWithdrawalPaid    EntryReason = "WITHDRAWAL_PAID"
	ReasonWithdrawalRefund  EntryReason = "WITHDRAWAL_REFUND"
	ReasonDisputeSettlement EntryReason = "DISPUTE_SETTLEMENT"
)

type Wallet struct {
	ID        uuid.UUID `db:"id" json:"walletId"`
	OwnerID   uuid.UUID `db:"owner_id" json:"ownerId"`
	OwnerType OwnerType `db:"owner_type" json:"ownerType"`
	Available int64     `db:"available" json:"available"`
	Locked    int64     `db:"locked" json:"locked"`
	IsFrozen  bool      `db:"is_frozen" json:"isFrozen"`
	Version   int64     `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type LedgerEntry struct {
	ID                   uuid.UUID   `db:"id" json:"id"`
	WalletID             uuid.UUID   `db:"wallet_id" json:"walletId"`
	Kind                 EntryKind   `db:"kind" json:"kind"`
	Amount               int64       `db:"amount" json:"amount"`
	Reason               EntryReason `db:"reason" json:"reason"`
	ReferenceID          string      `db:"reference_id" json:"referenceId"`
	CounterpartyWalletID *uuid.UUID  `db:"counterparty_wallet_id" json:"counterpartyWalletId,omitempty"`
	IdempotencyKey       string      `db:"idempotency_key" json:"idempotencyKey"`
	CreatedAt            time.Time   `db:"created_at" json:"createdAt"`
}

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
	WithdrawalPaid     WithdrawalStatus = "PAID"
)

type BankDetails struct {
	AccountName   string `json:"accountName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	BankName      string `json:"bankName" binding:"required"`
}

type WithdrawalRequest struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	WalletID    uuid.UUID        `db:"wallet_id" json:"walletId"`
	Amount      int64            `db:"amount" json:"amount"`
	Status      WithdrawalStatus `db:"status" json:"status"`
	BankDetails BankDetails      `json:"bankDetails"`
	AdminNote   string           `db:"admin_note" json:"adminNote,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	ResolvedAt  *time.Time       `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedBy  *uuid.UUID       `db:"resolved_by" json:"resolvedBy,omitempty"`
}

type HoldStatus string

const (
	HoldHeld     HoldStatus = "HELD"
	HoldReleased HoldStatus = "RELEASED"
	HoldResolved HoldStatus = "RESOLVED"
)

// EscrowHold is the ledger-side view of a booking's payment: the LOCK entry
// placed on the client wallet and whether it has been consumed.
type EscrowHold struct {
	BookingID      uuid.UUID  `db:"booking_id" json:"bookingId"`
	ClientWalletID uuid.UUID  `db:"client_wallet_id" json:"clientWalletId"`
	Amount         int64      `db:"amount" json:"amount"`
	LockEntryID    uuid.UUID  `db:"lock_entry_id" json:"escrowHoldId"`
	Status         HoldStatus `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	SettledAt      *time.Time `db:"settled_at" json:"settledAt,omitempty"`
}

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
)

type ResolutionType string

const (
	ResolutionRefundClient  ResolutionType = "REFUND_CLIENT"
	ResolutionPayArtisan    ResolutionType = "PAY_ARTISAN"
	ResolutionSplit5050     ResolutionType = "SPLIT_50_50"
	ResolutionPartialRefund ResolutionType = "PARTIAL_REFUND"
	ResolutionNoAction      ResolutionType = "NO_ACTION"
)

func (r ResolutionType) Valid() bool {
	switch r {
	case ResolutionRefundClient, ResolutionPayArtisan, ResolutionSplit5050,
		ResolutionPartialRefund, ResolutionNoAction:
		return true
	}
	return false
}

type Dispute struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	BookingID           uuid.UUID       `db:"booking_id" json:"bookingId"`
	ArtisanWalletID     uuid.UUID       `db:"artisan_wallet_id" json:"artisanWalletId"`
	Reason              string          `db:"reason" json:"reason"`
	OpenedBy            uuid.UUID       `db:"opened_by" json:"openedBy"`
	Status              DisputeStatus   `db:"status" json:"status"`
	ResolutionType      *ResolutionType `db:"resolution_type" json:"resolutionType,omitempty"`
	PartialRefundAmount *int64          `db:"partial_refund_amount" json:"partialRefundAmount,omitempty"`
	ResolvedBy          *uuid.UUID      `db:"resolved_by" json:"resolvedBy,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	ResolvedAt          *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// Payout is one leg of a settlement.
type Payout struct {
	WalletID uuid.UUID `json:"walletId"`
	Amount   int64     `json:"amount"`
	Role     string    `json:"role"`
}

// Settlement describes how an escrow hold was consumed.
type Settlement struct {
	BookingID  uuid.UUID      `json:"bookingId"`
	DisputeID  *uuid.UUID     `json:"disputeId,omitempty"`
	Resolution ResolutionType `json:"resolution,omitempty"`
	HoldAmount int64          `json:"holdAmount"`
	Payouts    []Payout       `json:"payouts"`
	SettledAt  time.Time      `json:"settledAt"`
}

// LedgerTotals is the system-wide snapshot used by the conservation audit.
type LedgerTotals struct {
	Available          int64 `json:"available"`
	Locked             int64 `json:"locked"`
	PendingWithdrawals int64 `json:"pendingWithdrawals"`
	Inflow             int64 `json:"inflow"`
	Outflow            int64 `json:"outflow"`
	Balanced           bool  `json:"balanced"`
}

// Reconciliation compares a wallet's stored balances with the fold of its
// ledger entries.
type Reconciliation struct {
	WalletID        uuid.UUID `json:"walletId"`
	StoredAvailable int64     `json:"storedAvailable"`
	StoredLocked    int64     `json:"storedLocked"`
	FoldedAvailable int64     `json:"foldedAvailable"`
	FoldedLocked    int64     `json:"foldedLocked"`
	Entries         int       `json:"entries"`
	Balanced        bool      `json:"balanced"`
}
