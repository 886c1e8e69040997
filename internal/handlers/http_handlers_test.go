package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow_ledger/internal/mocks"
	"escrow_ledger/internal/models"
	"escrow_ledger/internal/repository"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockRouter(t *testing.T) (*gin.Engine, *mocks.MockLedgerService) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockLedgerService(ctrl)
	r := gin.New()
	NewLedgerHTTPHandler(svc, testSecret).RegisterRoutes(r)
	return r, svc
}

func bearer(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	token, err := SignToken(testSecret, id, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingAndInvalidToken(t *testing.T) {
	r, _ := setupMockRouter(t)
	path := "/api/v1/wallets/" + uuid.NewString()

	w := do(r, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, path, "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := SignToken([]byte("other-secret"), uuid.New(), RoleAdmin, time.Hour)
	require.NoError(t, err)
	w = do(r, http.MethodGet, path, "Bearer "+other, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := SignToken(testSecret, uuid.New(), RoleAdmin, -time.Minute)
	require.NoError(t, err)
	w = do(r, http.MethodGet, path, "Bearer "+expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unknownRole, err := SignToken(testSecret, uuid.New(), "ROOT", time.Hour)
	require.NoError(t, err)
	w = do(r, http.MethodGet, path, "Bearer "+unknownRole, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_AdminOnlyRoutes(t *testing.T) {
	r, _ := setupMockRouter(t)
	user := bearer(t, uuid.New(), RoleUser)
	id := uuid.NewString()

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/approve"},
		{http.MethodPost, "/api/v1/withdrawals/" + id + "/reject"},
		{http.MethodPost, "/api/v1/disputes/" + id + "/resolve"},
		{http.MethodPost, "/api/v1/wallets/" + id + "/freeze"},
		{http.MethodGet, "/api/v1/withdrawals"},
		{http.MethodGet, "/api/v1/audit/conservation"},
		{http.MethodPost, "/api/v1/bookings/" + id + "/release"},
		{http.MethodPost, "/api/v1/wallets"},
	} {
		w := do(r, tc.method, tc.path, user, map[string]any{})
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}
}

func TestHandleGetWallet(t *testing.T) {
	r, svc := setupMockRouter(t)
	owner := uuid.New()
	wallet := models.Wallet{ID: uuid.New(), OwnerID: owner, OwnerType: models.OwnerClient, Available: 500, Locked: 100}

	svc.EXPECT().GetWallet(gomock.Any(), wallet.ID).Return(wallet, nil).Times(2)
	w := do(r, http.MethodGet, "/api/v1/wallets/"+wallet.ID.String(), bearer(t, owner, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(500), got.Available)
	assert.Equal(t, int64(100), got.Locked)

	// Another user's wallet is hidden.
	w = do(r, http.MethodGet, "/api/v1/wallets/"+wallet.ID.String(), bearer(t, uuid.New(), RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/wallets/not-a-uuid", bearer(t, owner, RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRequestWithdrawal(t *testing.T) {
	r, svc := setupMockRouter(t)
	owner := uuid.New()
	wallet := models.Wallet{ID: uuid.New(), OwnerID: owner, OwnerType: models.OwnerArtisan, Available: 5000}
	body := map[string]any{
		"walletId": wallet.ID,
		"amount":   6000,
		"bankDetails": map[string]string{
			"accountName": "A. Artisan", "accountNumber": "0123456789", "bankName": "First Bank",
		},
	}

	svc.EXPECT().GetWallet(gomock.Any(), wallet.ID).Return(wallet, nil).AnyTimes()
	svc.EXPECT().RequestWithdrawal(gomock.Any(), gomock.Any(), wallet.ID, int64(6000), gomock.Any()).
		Return(models.WithdrawalRequest{}, repository.ErrInsufficientFunds)
	w := do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, owner, RoleUser), body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "amount exceeds available balance")

	svc.EXPECT().RequestWithdrawal(gomock.Any(), gomock.Any(), wallet.ID, int64(6000), gomock.Any()).
		Return(models.WithdrawalRequest{}, repository.ErrWalletFrozen)
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, owner, RoleUser), body)
	assert.Equal(t, http.StatusLocked, w.Code)

	// Not the owner: the service is never asked to move funds.
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, uuid.New(), RoleUser), body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, uuid.New(), RoleService), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	delete(body, "bankDetails")
	w = do(r, http.MethodPost, "/api/v1/withdrawals", bearer(t, owner, RoleUser), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleApproveWithdrawal(t *testing.T) {
	r, svc := setupMockRouter(t)
	admin := uuid.New()
	id := uuid.New()

	svc.EXPECT().ApproveWithdrawal(gomock.Any(), id, admin).
		Return(models.WithdrawalRequest{ID: id, Status: models.WithdrawalPaid}, nil)
	w := do(r, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/approve", bearer(t, admin, RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)

	svc.EXPECT().ApproveWithdrawal(gomock.Any(), id, admin).
		Return(models.WithdrawalRequest{}, repository.ErrInvalidState)
	w = do(r, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/approve", bearer(t, admin, RoleAdmin), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), staleViewMessage)
}

func TestHandleRejectWithdrawal(t *testing.T) {
	r, svc := setupMockRouter(t)
	admin := uuid.New()
	id := uuid.New()

	w := do(r, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/reject", bearer(t, admin, RoleAdmin), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.EXPECT().RejectWithdrawal(gomock.Any(), id, admin, "wrong account").
		Return(models.WithdrawalRequest{ID: id, Status: models.WithdrawalRejected, AdminNote: "wrong account"}, nil)
	w = do(r, http.MethodPost, "/api/v1/withdrawals/"+id.String()+"/reject", bearer(t, admin, RoleAdmin),
		map[string]any{"reason": "wrong account"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleResolveDispute(t *testing.T) {
	r, svc := setupMockRouter(t)
	admin := uuid.New()
	id := uuid.New()
	path := "/api/v1/disputes/" + id.String() + "/resolve"

	w := do(r, http.MethodPost, path, bearer(t, admin, RoleAdmin), map[string]any{"resolutionType": "ESCALATE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.EXPECT().ResolveDispute(gomock.Any(), id, models.ResolutionPartialRefund, admin, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ models.ResolutionType, _ uuid.UUID, partial *int64) (models.Settlement, error) {
			require.NotNil(t, partial)
			assert.Equal(t, int64(6000), *partial)
			return models.Settlement{HoldAmount: 15000}, nil
		})
	w = do(r, http.MethodPost, path, bearer(t, admin, RoleAdmin),
		map[string]any{"resolutionType": "PARTIAL_REFUND", "partialRefundAmount": 6000})
	assert.Equal(t, http.StatusOK, w.Code)

	svc.EXPECT().ResolveDispute(gomock.Any(), id, models.ResolutionRefundClient, admin, gomock.Nil()).
		Return(models.Settlement{}, repository.ErrAlreadySettled)
	w = do(r, http.MethodPost, path, bearer(t, admin, RoleAdmin), map[string]any{"resolutionType": "REFUND_CLIENT"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_SETTLED")
}

func TestHandleReconcileDrift(t *testing.T) {
	r, svc := setupMockRouter(t)
	id := uuid.New()
	rec := models.Reconciliation{WalletID: id, StoredAvailable: 10, FoldedAvailable: 9}

	svc.EXPECT().ReconcileWallet(gomock.Any(), id).Return(rec, repository.ErrLedgerDrift)
	w := do(r, http.MethodGet, "/api/v1/wallets/"+id.String()+"/reconcile", bearer(t, uuid.New(), RoleAdmin), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"foldedAvailable":9`)
}

func TestHandleUnknownError(t *testing.T) {
	r, svc := setupMockRouter(t)
	id := uuid.New()

	svc.EXPECT().GetEscrowHold(gomock.Any(), id).Return(models.EscrowHold{}, errors.New("connection reset"))
	w := do(r, http.MethodGet, "/api/v1/bookings/"+id.String()+"/escrow", bearer(t, uuid.New(), RoleService), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestHandleOpenDispute_OnlyPayingClient(t *testing.T) {
	r, svc := setupMockRouter(t)
	client, stranger := uuid.New(), uuid.New()
	clientWallet := models.Wallet{ID: uuid.New(), OwnerID: client, OwnerType: models.OwnerClient}
	strangerWallet := models.Wallet{ID: uuid.New(), OwnerID: stranger, OwnerType: models.OwnerArtisan}
	hold := models.EscrowHold{BookingID: uuid.New(), ClientWalletID: clientWallet.ID, Amount: 15000, Status: models.HoldHeld}
	body := map[string]any{"bookingId": hold.BookingID, "artisanWalletId": strangerWallet.ID, "reason": "mine now"}

	svc.EXPECT().GetEscrowHold(gomock.Any(), hold.BookingID).Return(hold, nil).AnyTimes()
	svc.EXPECT().GetWallet(gomock.Any(), clientWallet.ID).Return(clientWallet, nil).AnyTimes()

	// Naming their own wallet as the artisan does not let a stranger in.
	w := do(r, http.MethodPost, "/api/v1/disputes", bearer(t, stranger, RoleUser), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ESCROW_HOLD_NOT_FOUND")

	body["artisanWalletId"] = uuid.New()
	svc.EXPECT().OpenDispute(gomock.Any(), hold.BookingID, gomock.Any(), "mine now", client).
		Return(models.Dispute{ID: uuid.New(), BookingID: hold.BookingID, OpenedBy: client}, nil)
	w = do(r, http.MethodPost, "/api/v1/disputes", bearer(t, client, RoleUser), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// The booking system may open on behalf of either party.
	system := uuid.New()
	svc.EXPECT().OpenDispute(gomock.Any(), hold.BookingID, gomock.Any(), "mine now", system).
		Return(models.Dispute{}, repository.ErrDisputeExists)
	w = do(r, http.MethodPost, "/api/v1/disputes", bearer(t, system, RoleService), body)
	assert.Equal(t, http.StatusConflict, w.Code)

	unknown := uuid.New()
	svc.EXPECT().GetEscrowHold(gomock.Any(), unknown).Return(models.EscrowHold{}, repository.ErrHoldNotFound)
	body["bookingId"] = unknown
	w = do(r, http.MethodPost, "/api/v1/disputes", bearer(t, client, RoleUser), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetEscrowHold_HiddenFromStrangers(t *testing.T) {
	r, svc := setupMockRouter(t)
	client := uuid.New()
	clientWallet := models.Wallet{ID: uuid.New(), OwnerID: client, OwnerType: models.OwnerClient}
	hold := models.EscrowHold{BookingID: uuid.New(), ClientWalletID: clientWallet.ID, Amount: 15000, Status: models.HoldHeld}
	path := "/api/v1/bookings/" + hold.BookingID.String() + "/escrow"

	svc.EXPECT().GetEscrowHold(gomock.Any(), hold.BookingID).Return(hold, nil).Times(3)
	svc.EXPECT().GetWallet(gomock.Any(), clientWallet.ID).Return(clientWallet, nil).Times(2)

	w := do(r, http.MethodGet, path, bearer(t, client, RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), clientWallet.ID.String())

	w = do(r, http.MethodGet, path, bearer(t, uuid.New(), RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), clientWallet.ID.String())

	w = do(r, http.MethodGet, path, bearer(t, uuid.New(), RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGetDispute_PartiesOnly(t *testing.T) {
	r, svc := setupMockRouter(t)
	client, artisan := uuid.New(), uuid.New()
	clientWallet := models.Wallet{ID: uuid.New(), OwnerID: client, OwnerType: models.OwnerClient}
	artisanWallet := models.Wallet{ID: uuid.New(), OwnerID: artisan, OwnerType: models.OwnerArtisan}
	hold := models.EscrowHold{BookingID: uuid.New(), ClientWalletID: clientWallet.ID, Amount: 15000, Status: models.HoldHeld}
	d := models.Dispute{ID: uuid.New(), BookingID: hold.BookingID, ArtisanWalletID: artisanWallet.ID, Status: models.DisputeOpen}
	path := "/api/v1/disputes/" + d.ID.String()

	svc.EXPECT().GetDispute(gomock.Any(), d.ID).Return(d, nil).AnyTimes()
	svc.EXPECT().GetEscrowHold(gomock.Any(), hold.BookingID).Return(hold, nil).AnyTimes()
	svc.EXPECT().GetWallet(gomock.Any(), clientWallet.ID).Return(clientWallet, nil).AnyTimes()
	svc.EXPECT().GetWallet(gomock.Any(), artisanWallet.ID).Return(artisanWallet, nil).AnyTimes()

	for _, party := range []uuid.UUID{client, artisan} {
		w := do(r, http.MethodGet, path, bearer(t, party, RoleUser), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := do(r, http.MethodGet, path, bearer(t, uuid.New(), RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "DISPUTE_NOT_FOUND")
}
