package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escrow_ledger/internal/mocks"
	"escrow_ledger/internal/models"
	"escrow_ledger/internal/repository"
	"escrow_ledger/internal/service"
)

func TestDeposit_RetryOnSerializationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	backing := repository.NewMemoryStore()
	svc := service.NewWalletService(mockStore, testLogger, 3)
	ctx := context.Background()

	w := models.Wallet{ID: uuid.New(), OwnerID: uuid.New(), OwnerType: models.OwnerClient}
	require.NoError(t, backing.CreateWallet(ctx, w))

	gomock.InOrder(
		mockStore.EXPECT().InTx(gomock.Any(), gomock.Any()).Return(&pgconn.PgError{Code: "40001"}),
		mockStore.EXPECT().InTx(gomock.Any(), gomock.Any()).Return(&pgconn.PgError{Code: "40P01"}),
		mockStore.EXPECT().InTx(gomock.Any(), gomock.Any()).DoAndReturn(backing.InTx),
	)

	got, err := svc.Deposit(ctx, w.ID, 250, "psp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.Available)
}

func TestDeposit_NoRetryOnForeignKeyViolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger, 3)

	pgErr := &pgconn.PgError{Code: "23503"}
	mockStore.EXPECT().InTx(gomock.Any(), gomock.Any()).Return(pgErr).Times(1)

	_, err := svc.Deposit(context.Background(), uuid.New(), 250, "psp-1")
	assert.ErrorIs(t, err, pgErr)
}

func TestDeposit_GivesUpAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger, 3)

	mockStore.EXPECT().InTx(gomock.Any(), gomock.Any()).Return(&pgconn.PgError{Code: "40001"}).Times(3)

	_, err := svc.Deposit(context.Background(), uuid.New(), 250, "psp-1")
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "40001", pgErr.Code)
}

func TestGetWallet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger, 3)
	walletID := uuid.New()

	mockStore.EXPECT().GetWallet(gomock.Any(), walletID).Return(models.Wallet{}, repository.ErrWalletNotFound)

	_, err := svc.GetWallet(context.Background(), walletID)
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestCheckConservation_Drift(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	svc := service.NewWalletService(mockStore, testLogger, 3)

	mockStore.EXPECT().Totals(gomock.Any()).Return(models.LedgerTotals{Available: 90, Inflow: 100}, nil)

	totals, err := svc.CheckConservation(context.Background())
	assert.ErrorIs(t, err, repository.ErrLedgerDrift)
	assert.False(t, totals.Balanced)
}
