package models

import (
	"github.com/google/uuid"
)

type CreateWalletRequest struct {
	OwnerID   uuid.UUID `json:"ownerId" binding:"required"`
	OwnerType OwnerType `json:"ownerType" binding:"required,oneof=CLIENT ARTISAN BUSINESS"`
}

type DepositRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	ExternalRef string `json:"externalRef" binding:"required"`
}

// WithdrawalCreateRequest carries an optional RequestID chosen by the caller.
// Resending the same RequestID after a timeout does not debit twice.
type WithdrawalCreateRequest struct {
	RequestID   uuid.UUID   `json:"requestId"`
	WalletID    uuid.UUID   `json:"walletId" binding:"required"`
	Amount      int64       `json:"amount" binding:"required,gt=0"`
	BankDetails BankDetails `json:"bankDetails" binding:"required"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CaptureRequest struct {
	ClientWalletID uuid.UUID `json:"clientWalletId" binding:"required"`
	Amount         int64     `json:"amount" binding:"required,gt=0"`
}

type ReleaseRequest struct {
	ArtisanWalletID uuid.UUID `json:"artisanWalletId" binding:"required"`
}

type OpenDisputeRequest struct {
	BookingID       uuid.UUID `json:"bookingId" binding:"required"`
	ArtisanWalletID uuid.UUID `json:"artisanWalletId" binding:"required"`
	Reason          string    `json:"reason" binding:"required"`
}

type ResolveDisputeRequest struct {
	ResolutionType      ResolutionType `json:"resolutionType" binding:"required,oneof=REFUND_CLIENT PAY_ARTISAN SPLIT_50_50 PARTIAL_REFUND NO_ACTION"`
	PartialRefundAmount *int64         `json:"partialRefundAmount"`
}
