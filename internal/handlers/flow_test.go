package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow_ledger/internal/models"
	"escrow_ledger/internal/notify"
	"escrow_ledger/internal/repository"
	"escrow_ledger/internal/service"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupFlowRouter(t *testing.T) *gin.Engine {
	t.Helper()
	platform := uuid.New()
	ledger := service.NewLedger(repository.NewMemoryStore(), testLogger, notify.Nop{}, service.Options{
		MaxRetries:       3,
		PlatformFeeBps:   1000,
		PlatformWalletID: platform,
	})
	_, err := ledger.EnsurePlatformWallet(context.Background(), platform)
	require.NoError(t, err)

	r := gin.New()
	NewLedgerHTTPHandler(ledger, testSecret).RegisterRoutes(r)
	return r
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestFlow_BookingDisputeAndWithdrawal(t *testing.T) {
	r := setupFlowRouter(t)
	admin := bearer(t, uuid.New(), RoleAdmin)
	system := bearer(t, uuid.New(), RoleService)
	clientUser, artisanUser := uuid.New(), uuid.New()

	w := do(r, http.MethodPost, "/api/v1/wallets", system, map[string]any{"ownerId": clientUser, "ownerType": "CLIENT"})
	require.Equal(t, http.StatusCreated, w.Code)
	client := decode[models.Wallet](t, w.Body.Bytes())
	w = do(r, http.MethodPost, "/api/v1/wallets", system, map[string]any{"ownerId": artisanUser, "ownerType": "ARTISAN"})
	require.Equal(t, http.StatusCreated, w.Code)
	artisan := decode[models.Wallet](t, w.Body.Bytes())

	w = do(r, http.MethodPost, "/api/v1/wallets/"+client.ID.String()+"/deposits", system,
		map[string]any{"amount": 20000, "externalRef": "psp-charge-1"})
	require.Equal(t, http.StatusOK, w.Code)

	booking := uuid.New()
	w = do(r, http.MethodPost, "/api/v1/bookings/"+booking.String()+"/capture", system,
		map[string]any{"clientWalletId": client.ID, "amount": 15000})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/v1/wallets/"+client.ID.String(), bearer(t, clientUser, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Wallet](t, w.Body.Bytes())
	assert.Equal(t, int64(5000), got.Available)
	assert.Equal(t, int64(15000), got.Locked)

	// A stranger with a wallet of their own can neither see the hold nor
	// claim the booking's single dispute.
	strangerUser := uuid.New()
	w = do(r, http.MethodPost, "/api/v1/wallets", system, map[string]any{"ownerId": strangerUser, "ownerType": "ARTISAN"})
	require.Equal(t, http.StatusCreated, w.Code)
	stranger := decode[models.Wallet](t, w.Body.Bytes())
	w = do(r, http.MethodPost, "/api/v1/wallets", system, map[string]any{"ownerId": strangerUser, "ownerType": "CLIENT"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/bookings/"+booking.String()+"/escrow", bearer(t, strangerUser, RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodPost, "/api/v1/disputes", bearer(t, strangerUser, RoleUser),
		map[string]any{"bookingId": booking, "artisanWalletId": stranger.ID, "reason": "pay me"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/bookings/"+booking.String()+"/escrow", bearer(t, clientUser, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/v1/disputes", bearer(t, clientUser, RoleUser),
		map[string]any{"bookingId": booking, "artisanWalletId": artisan.ID, "reason": "not finished"})
	require.Equal(t, http.StatusCreated, w.Code)
	dispute := decode[models.Dispute](t, w.Body.Bytes())
	assert.Equal(t, clientUser, dispute.OpenedBy)

	w = do(r, http.MethodGet, "/api/v1/disputes/"+dispute.ID.String(), bearer(t, artisanUser, RoleUser), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/v1/disputes/"+dispute.ID.String(), bearer(t, strangerUser, RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resolve := "/api/v1/disputes/" + dispute.ID.String() + "/resolve"
	w = do(r, http.MethodPost, resolve, admin, map[string]any{"resolutionType": "PARTIAL_REFUND", "partialRefundAmount": 6000})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, resolve, admin, map[string]any{"resolutionType": "PARTIAL_REFUND", "partialRefundAmount": 6000})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/bookings/"+booking.String()+"/release", system, map[string]any{"artisanWalletId": artisan.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/wallets/"+artisan.ID.String(), bearer(t, artisanUser, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(8100), decode[models.Wallet](t, w.Body.Bytes()).Available)

	withdrawal := map[string]any{
		"walletId": artisan.ID,
		"amount":   8100,
		"bankDetails": map[string]string{
			"accountName": "A. Artisan", "accountNumber": "0123456789", "bankName": "First Bank",
		},
	}
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, artisanUser, RoleUser), withdrawal)
	require.Equal(t, http.StatusCreated, w.Code)
	wr := decode[models.WithdrawalRequest](t, w.Body.Bytes())

	withdrawal["amount"] = 1
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, artisanUser, RoleUser), withdrawal)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/withdrawals?status=PENDING", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), wr.ID.String())

	w = do(r, http.MethodPost, "/api/v1/withdrawals/"+wr.ID.String()+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/v1/withdrawals/"+wr.ID.String()+"/reject", admin, map[string]any{"reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/v1/audit/conservation", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	totals := decode[models.LedgerTotals](t, w.Body.Bytes())
	assert.True(t, totals.Balanced)
	assert.Equal(t, int64(20000), totals.Inflow)
	assert.Equal(t, int64(8100), totals.Outflow)

	for _, id := range []uuid.UUID{client.ID, artisan.ID} {
		w = do(r, http.MethodGet, "/api/v1/wallets/"+id.String()+"/reconcile", admin, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestFlow_FreezeBlocksWithdrawal(t *testing.T) {
	r := setupFlowRouter(t)
	admin := bearer(t, uuid.New(), RoleAdmin)
	owner := uuid.New()

	w := do(r, http.MethodPost, "/api/v1/wallets", admin, map[string]any{"ownerId": owner, "ownerType": "BUSINESS"})
	require.Equal(t, http.StatusCreated, w.Code)
	wallet := decode[models.Wallet](t, w.Body.Bytes())
	w = do(r, http.MethodPost, "/api/v1/wallets/"+wallet.ID.String()+"/deposits", admin, map[string]any{"amount": 100, "externalRef": "x-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/wallets/"+wallet.ID.String()+"/freeze", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Wallet](t, w.Body.Bytes()).IsFrozen)

	body := map[string]any{
		"walletId": wallet.ID,
		"amount":   50,
		"bankDetails": map[string]string{
			"accountName": "Shop Ltd", "accountNumber": "42", "bankName": "First Bank",
		},
	}
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, owner, RoleUser), body)
	assert.Equal(t, http.StatusLocked, w.Code)

	w = do(r, http.MethodPost, "/api/v1/wallets/"+wallet.ID.String()+"/unfreeze", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, owner, RoleUser), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/v1/wallets/"+wallet.ID.String()+"/entries", bearer(t, owner, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[struct {
		Entries []models.LedgerEntry `json:"entries"`
	}](t, w.Body.Bytes())
	require.Len(t, entries.Entries, 2)
	assert.Equal(t, models.ReasonTopup, entries.Entries[0].Reason)
	assert.Equal(t, models.ReasonWithdrawalHold, entries.Entries[1].Reason)
}
