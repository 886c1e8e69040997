package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"escrow_ledger/internal/models"
	"escrow_ledger/internal/repository"
)

//go:generate mockgen -source=http_handlers.go -destination=../mocks/mock_ledger_service.go -package=mocks LedgerService

type LedgerService interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID, ownerType models.OwnerType) (models.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error)
	ListEntries(ctx context.Context, walletID uuid.UUID) ([]models.LedgerEntry, error)
	Deposit(ctx context.Context, walletID uuid.UUID, amount int64, externalRef string) (models.Wallet, error)
	FreezeWallet(ctx context.Context, walletID, adminID uuid.UUID) (models.Wallet, error)
	UnfreezeWallet(ctx context.Context, walletID, adminID uuid.UUID) (models.Wallet, error)
	ReconcileWallet(ctx context.Context, walletID uuid.UUID) (models.Reconciliation, error)
	CheckConservation(ctx context.Context) (models.LedgerTotals, error)

	RequestWithdrawal(ctx context.Context, requestID, walletID uuid.UUID, amount int64, bank models.BankDetails) (models.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, id, adminID uuid.UUID) (models.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, id, adminID uuid.UUID, reason string) (models.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error)

	CaptureBookingPayment(ctx context.Context, bookingID, clientWalletID uuid.UUID, amount int64) (models.EscrowHold, error)
	ReleaseBooking(ctx context.Context, bookingID, artisanWalletID uuid.UUID) (models.Settlement, error)
	GetEscrowHold(ctx context.Context, bookingID uuid.UUID) (models.EscrowHold, error)

	OpenDispute(ctx context.Context, bookingID, artisanWalletID uuid.UUID, reason string, openedBy uuid.UUID) (models.Dispute, error)
	ResolveDispute(ctx context.Context, disputeID uuid.UUID, rt models.ResolutionType, adminID uuid.UUID, partialRefund *int64) (models.Settlement, error)
	GetDispute(ctx context.Context, id uuid.UUID) (models.Dispute, error)
}

type LedgerHTTPHandler struct {
	service LedgerService
	secret  []byte
}

func NewLedgerHTTPHandler(service LedgerService, jwtSecret []byte) *LedgerHTTPHandler {
	return &LedgerHTTPHandler{service: service, secret: jwtSecret}
}

func (h *LedgerHTTPHandler) RegisterRoutes(r *gin.Engine) {
	admin := RequireRoles(RoleAdmin)
	system := RequireRoles(RoleAdmin, RoleService)

	v1 := r.Group("/api/v1", Authenticate(h.secret))
	{
		v1.POST("/wallets", system, h.HandleCreateWallet)
		v1.GET("/wallets/:wallet_id", h.HandleGetWallet)
		v1.GET("/wallets/:wallet_id/entries", h.HandleListEntries)
		v1.POST("/wallets/:wallet_id/deposits", system, h.HandleDeposit)
		v1.POST("/wallets/:wallet_id/freeze", admin, h.HandleFreeze)
		v1.POST("/wallets/:wallet_id/unfreeze", admin, h.HandleUnfreeze)
		v1.GET("/wallets/:wallet_id/reconcile", admin, h.HandleReconcile)

		v1.POST("/withdrawals", h.HandleRequestWithdrawal)
		v1.GET("/withdrawals", admin, h.HandleListWithdrawals)
		v1.GET("/withdrawals/:id", h.HandleGetWithdrawal)
		v1.POST("/withdrawals/:id/approve", admin, h.HandleApproveWithdrawal)
		v1.POST("/withdrawals/:id/reject", admin, h.HandleRejectWithdrawal)

		v1.POST("/bookings/:booking_id/capture", system, h.HandleCapture)
		v1.POST("/bookings/:booking_id/release", system, h.HandleRelease)
		v1.GET("/bookings/:booking_id/escrow", h.HandleGetEscrowHold)

		v1.POST("/disputes", h.HandleOpenDispute)
		v1.GET("/disputes/:id", h.HandleGetDispute)
		v1.POST("/disputes/:id/resolve", admin, h.HandleResolveDispute)

		v1.GET("/audit/conservation", admin, h.HandleConservation)
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return false
	}
	return true
}

// canAccessWallet lets staff roles through and otherwise requires the actor
// to own the wallet. A wallet the actor may not see is reported as missing.
func (h *LedgerHTTPHandler) canAccessWallet(c *gin.Context, walletID uuid.UUID) (models.Wallet, bool) {
	w, err := h.service.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		writeError(c, err)
		return w, false
	}
	actor, _ := actorFrom(c)
	if actor.Role != RoleUser || w.OwnerID == actor.ID {
		return w, true
	}
	writeError(c, repository.ErrWalletNotFound)
	return w, false
}

// ownsAny reports whether the actor may act for any of the wallets. Staff
// roles always may; a USER must own one of them.
func (h *LedgerHTTPHandler) ownsAny(ctx context.Context, actor Actor, walletIDs ...uuid.UUID) (bool, error) {
	if actor.Role != RoleUser {
		return true, nil
	}
	for _, id := range walletIDs {
		w, err := h.service.GetWallet(ctx, id)
		if errors.Is(err, repository.ErrWalletNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		if w.OwnerID == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

func (h *LedgerHTTPHandler) HandleCreateWallet(c *gin.Context) {
	var req models.CreateWalletRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.service.CreateWallet(c.Request.Context(), req.OwnerID, req.OwnerType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *LedgerHTTPHandler) HandleGetWallet(c *gin.Context) {
	walletID, ok := pathUUID(c, "wallet_id")
	if !ok {
		return
	}
	w, ok := h.canAccessWallet(c, walletID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *LedgerHTTPHandler) HandleListEntries(c *gin.Context) {
	walletID, ok := pathUUID(c, "wallet_id")
	if !ok {
		return
	}
	if _, ok := h.canAccessWallet(c, walletID); !ok {
		return
	}
	entries, err := h.service.ListEntries(c.Request.Context(), walletID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *LedgerHTTPHandler) HandleDeposit(c *gin.Context) {
	walletID, ok := pathUUID(c, "wallet_id")
	if !ok {
		return
	}
	var req models.DepositRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.service.Deposit(c.Request.Context(), walletID, req.Amount, req.ExternalRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *LedgerHTTPHandler) HandleFreeze(c *gin.Context) {
	h.setFrozen(c, h.service.FreezeWallet)
}

func (h *LedgerHTTPHandler) HandleUnfreeze(c *gin.Context) {
	h.setFrozen(c, h.service.UnfreezeWallet)
}

func (h *LedgerHTTPHandler) setFrozen(c *gin.Context, fn func(ctx context.Context, walletID, adminID uuid.UUID) (models.Wallet, error)) {
	walletID, ok := pathUUID(c, "wallet_id")
	if !ok {
		return
	}
	actor, _ := actorFrom(c)
	w, err := fn(c.Request.Context(), walletID, actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *LedgerHTTPHandler) HandleReconcile(c *gin.Context) {
	walletID, ok := pathUUID(c, "wallet_id")
	if !ok {
		return
	}
	rec, err := h.service.ReconcileWallet(c.Request.Context(), walletID)
	if errors.Is(err, repository.ErrLedgerDrift) {
		c.JSON(http.StatusConflict, rec)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *LedgerHTTPHandler) HandleConservation(c *gin.Context) {
	totals, err := h.service.CheckConservation(c.Request.Context())
	if errors.Is(err, repository.ErrLedgerDrift) {
		c.JSON(http.StatusConflict, totals)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *LedgerHTTPHandler) HandleRequestWithdrawal(c *gin.Context) {
	var req models.WithdrawalCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	if actor.Role == RoleService {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	if _, ok := h.canAccessWallet(c, req.WalletID); !ok {
		return
	}
	wr, err := h.service.RequestWithdrawal(c.Request.Context(), req.RequestID, req.WalletID, req.Amount, req.BankDetails)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wr)
}

func (h *LedgerHTTPHandler) HandleListWithdrawals(c *gin.Context) {
	status := models.WithdrawalStatus(c.Query("status"))
	list, err := h.service.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

func (h *LedgerHTTPHandler) HandleGetWithdrawal(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	wr, err := h.service.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if actor, _ := actorFrom(c); actor.Role == RoleUser {
		if _, ok := h.canAccessWallet(c, wr.WalletID); !ok {
			return
		}
	}
	c.JSON(http.StatusOK, wr)
}

func (h *LedgerHTTPHandler) HandleApproveWithdrawal(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, _ := actorFrom(c)
	wr, err := h.service.ApproveWithdrawal(c.Request.Context(), id, actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wr)
}

func (h *LedgerHTTPHandler) HandleRejectWithdrawal(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.RejectWithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	wr, err := h.service.RejectWithdrawal(c.Request.Context(), id, actor.ID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wr)
}

func (h *LedgerHTTPHandler) HandleCapture(c *gin.Context) {
	bookingID, ok := pathUUID(c, "booking_id")
	if !ok {
		return
	}
	var req models.CaptureRequest
	if !bindJSON(c, &req) {
		return
	}
	hold, err := h.service.CaptureBookingPayment(c.Request.Context(), bookingID, req.ClientWalletID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

func (h *LedgerHTTPHandler) HandleRelease(c *gin.Context) {
	bookingID, ok := pathUUID(c, "booking_id")
	if !ok {
		return
	}
	var req models.ReleaseRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := h.service.ReleaseBooking(c.Request.Context(), bookingID, req.ArtisanWalletID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *LedgerHTTPHandler) HandleGetEscrowHold(c *gin.Context) {
	bookingID, ok := pathUUID(c, "booking_id")
	if !ok {
		return
	}
	hold, err := h.service.GetEscrowHold(c.Request.Context(), bookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	actor, _ := actorFrom(c)
	owns, err := h.ownsAny(c.Request.Context(), actor, hold.ClientWalletID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !owns {
		writeError(c, repository.ErrHoldNotFound)
		return
	}
	c.JSON(http.StatusOK, hold)
}

func (h *LedgerHTTPHandler) HandleOpenDispute(c *gin.Context) {
	var req models.OpenDisputeRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	// A USER may only dispute a booking paid from their own wallet. The
	// artisan side opens disputes through the booking system.
	if actor.Role == RoleUser {
		hold, err := h.service.GetEscrowHold(c.Request.Context(), req.BookingID)
		if err != nil {
			writeError(c, err)
			return
		}
		owns, err := h.ownsAny(c.Request.Context(), actor, hold.ClientWalletID)
		if err != nil {
			writeError(c, err)
			return
		}
		if !owns {
			writeError(c, repository.ErrHoldNotFound)
			return
		}
	}
	d, err := h.service.OpenDispute(c.Request.Context(), req.BookingID, req.ArtisanWalletID, req.Reason, actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *LedgerHTTPHandler) HandleGetDispute(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.GetDispute(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if actor, _ := actorFrom(c); actor.Role == RoleUser {
		parties := []uuid.UUID{d.ArtisanWalletID}
		hold, err := h.service.GetEscrowHold(c.Request.Context(), d.BookingID)
		switch {
		case err == nil:
			parties = append(parties, hold.ClientWalletID)
		case !errors.Is(err, repository.ErrHoldNotFound):
			writeError(c, err)
			return
		}
		owns, err := h.ownsAny(c.Request.Context(), actor, parties...)
		if err != nil {
			writeError(c, err)
			return
		}
		if !owns {
			writeError(c, repository.ErrDisputeNotFound)
			return
		}
	}
	c.JSON(http.StatusOK, d)
}

func (h *LedgerHTTPHandler) HandleResolveDispute(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.ResolveDisputeRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	st, err := h.service.ResolveDispute(c.Request.Context(), id, req.ResolutionType, actor.ID, req.PartialRefundAmount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
