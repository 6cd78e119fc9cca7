package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/storage"
)

func newMockStorage(t *testing.T) (pgxmock.PgxPoolIface, *storage.DBStorage) {
	t.Helper()

	mockPool, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)

	log := zerolog.New(nil)

	return mockPool, storage.NewDBStorage(mockPool, &log)
}

func TestDBStorage_AddUser(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	ctx := context.Background()
	username := "testuser"
	passwordHash := "hashedpassword"
	expectedUserID := "123e4567-e89b-12d3-a456-426614174000"

	mockPool.ExpectQuery(`INSERT INTO users`).
		WithArgs(username, passwordHash, models.RoleUser).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(expectedUserID))

	userID, err := dbStorage.AddUser(ctx, username, passwordHash, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, expectedUserID, userID)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_GetUser(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	ctx := context.Background()
	username := "testuser"
	userID, _ := uuid.NewUUID()
	expectedUser := &models.Login{
		UserID:         userID,
		HashedPassword: "hashedpassword",
		Role:           models.RoleAdmin,
	}

	mockPool.ExpectQuery(`SELECT id, password, role FROM users WHERE username = \$1`).
		WithArgs(username).
		WillReturnRows(pgxmock.NewRows([]string{"id", "password", "role"}).
			AddRow(expectedUser.UserID, expectedUser.HashedPassword, expectedUser.Role))

	user, err := dbStorage.GetUser(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, expectedUser, user)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_GetUser_NotFound(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT id, password, role FROM users`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	user, err := dbStorage.GetUser(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_GetBalance(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	ctx := context.Background()
	userID, _ := uuid.NewUUID()

	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\) FILTER`).
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"deposited", "withdrawn"}).
			AddRow("500.00", "120.50"))

	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)::text FROM withdrawals`).
		WillReturnRows(pgxmock.NewRows([]string{"reserved"}).AddRow("79.50"))

	balance, err := dbStorage.GetBalance(ctx, userID.String())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(balance.Available), "available = %s", balance.Available)
	assert.True(t, decimal.RequireFromString("120.50").Equal(balance.Withdrawn))
	assert.True(t, decimal.RequireFromString("79.50").Equal(balance.Reserved))

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_CreateDeposit(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	ctx := context.Background()
	userID, _ := uuid.NewUUID()
	expectedID := "6a0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0001"

	mockPool.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(userID.String(), models.TxDeposit, "250", models.TxPending).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(expectedID))

	transactionID, err := dbStorage.CreateDeposit(ctx, userID.String(), decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.Equal(t, expectedID, transactionID)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_SettleDeposit(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	transactionID := "6a0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0001"

	mockPool.ExpectExec(`UPDATE transactions SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := dbStorage.SettleDeposit(context.Background(), transactionID, models.TxCompleted)
	require.NoError(t, err)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_SettleDeposit_AlreadySettled(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	mockPool.ExpectExec(`UPDATE transactions SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := dbStorage.SettleDeposit(context.Background(), "6a0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0001", models.TxCompleted)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_HasCompletedDebit(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	withdrawalID := "7b0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0002"

	mockPool.ExpectQuery(`SELECT 1 FROM transactions`).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := dbStorage.HasCompletedDebit(context.Background(), withdrawalID)
	require.NoError(t, err)
	assert.True(t, exists)

	mockPool.ExpectQuery(`SELECT 1 FROM transactions`).
		WillReturnError(pgx.ErrNoRows)

	exists, err = dbStorage.HasCompletedDebit(context.Background(), withdrawalID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_InsertDebit_Duplicate(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	userID, _ := uuid.NewUUID()
	withdrawalID := "7b0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0002"

	//nolint:exhaustruct
	mockPool.ExpectExec(`INSERT INTO transactions`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := dbStorage.InsertDebit(context.Background(), userID.String(), withdrawalID, decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_CreateWithdrawal(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	ctx := context.Background()
	userID, _ := uuid.NewUUID()
	withdrawalID, _ := uuid.NewUUID()
	now := time.Now().UTC()

	key1, key2 := storage.KeyNameAsHash64("create_withdrawal:" + userID.String())

	mockPool.ExpectBegin()
	mockPool.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(key1, key2).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\) FILTER`).
		WillReturnRows(pgxmock.NewRows([]string{"deposited", "withdrawn"}).AddRow("500", "0"))
	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)::text FROM withdrawals`).
		WillReturnRows(pgxmock.NewRows([]string{"reserved"}).AddRow("0"))
	mockPool.ExpectQuery(`INSERT INTO withdrawals`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(withdrawalID, now, now))
	mockPool.ExpectCommit()

	withdrawal, err := dbStorage.CreateWithdrawal(ctx, userID.String(), models.CreateWithdrawal{
		Amount:         decimal.NewFromInt(200),
		PaymentMethod:  "paypal",
		PaymentDetails: map[string]string{"email": "user@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, withdrawalID, withdrawal.ID)
	assert.Equal(t, userID, withdrawal.UserID)
	assert.Equal(t, models.StatusPending, withdrawal.Status)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_CreateWithdrawal_InsufficientBalance(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	userID, _ := uuid.NewUUID()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\) FILTER`).
		WillReturnRows(pgxmock.NewRows([]string{"deposited", "withdrawn"}).AddRow("100", "0"))
	mockPool.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)::text FROM withdrawals`).
		WillReturnRows(pgxmock.NewRows([]string{"reserved"}).AddRow("50"))
	mockPool.ExpectRollback()

	_, err := dbStorage.CreateWithdrawal(context.Background(), userID.String(), models.CreateWithdrawal{
		Amount:         decimal.NewFromInt(200),
		PaymentMethod:  "paypal",
		PaymentDetails: map[string]string{"email": "user@example.com"},
	})
	require.ErrorIs(t, err, storage.ErrInsufficientBalance)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_GetWithdrawal(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	withdrawalID, _ := uuid.NewUUID()
	userID, _ := uuid.NewUUID()
	now := time.Now().UTC()

	mockPool.ExpectQuery(`SELECT .+ FROM withdrawals WHERE id = \$1`).
		WithArgs(withdrawalID.String()).
		WillReturnRows(withdrawalRows(withdrawalID, userID, "150.00", models.StatusVatPending, now))

	withdrawal, err := dbStorage.GetWithdrawal(context.Background(), withdrawalID.String())
	require.NoError(t, err)
	assert.Equal(t, withdrawalID, withdrawal.ID)
	assert.Equal(t, userID, withdrawal.UserID)
	assert.Equal(t, models.StatusVatPending, withdrawal.Status)
	assert.True(t, decimal.RequireFromString("150.00").Equal(withdrawal.Amount))
	assert.Equal(t, map[string]string{"email": "user@example.com"}, withdrawal.PaymentDetails)
	assert.Equal(t, int64(3), withdrawal.Revision)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_GetWithdrawal_NotFound(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(`SELECT .+ FROM withdrawals WHERE id = \$1`).
		WillReturnError(pgx.ErrNoRows)

	_, err := dbStorage.GetWithdrawal(context.Background(), "7b0a9a3e-0a0c-4a4b-b5ad-3c1f4b1f0002")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_UpdateWithdrawal(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	withdrawalID, _ := uuid.NewUUID()
	userID, _ := uuid.NewUUID()
	withdrawal := withdrawalFixture(withdrawalID, userID, models.StatusApproved, 3)

	key1, key2 := storage.KeyNameAsHash64("withdrawal:" + withdrawalID.String())

	mockPool.ExpectBegin()
	mockPool.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(key1, key2).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectExec(`UPDATE withdrawals SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	err := dbStorage.UpdateWithdrawal(context.Background(), withdrawal)
	require.NoError(t, err)
	assert.Equal(t, int64(4), withdrawal.Revision)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_UpdateWithdrawal_RevisionConflict(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	withdrawalID, _ := uuid.NewUUID()
	userID, _ := uuid.NewUUID()
	withdrawal := withdrawalFixture(withdrawalID, userID, models.StatusApproved, 3)

	mockPool.ExpectBegin()
	mockPool.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mockPool.ExpectExec(`UPDATE withdrawals SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	err := dbStorage.UpdateWithdrawal(context.Background(), withdrawal)
	require.ErrorIs(t, err, storage.ErrRevisionConflict)
	assert.Equal(t, int64(3), withdrawal.Revision)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestDBStorage_ListWithdrawals(t *testing.T) {
	mockPool, dbStorage := newMockStorage(t)
	defer mockPool.Close()

	withdrawalID, _ := uuid.NewUUID()
	userID, _ := uuid.NewUUID()
	now := time.Now().UTC()

	mockPool.ExpectQuery(`SELECT .+ FROM withdrawals WHERE status = \$1`).
		WithArgs(models.StatusPending).
		WillReturnRows(withdrawalRows(withdrawalID, userID, "99.99", models.StatusPending, now))

	withdrawals, err := dbStorage.ListWithdrawals(context.Background(), models.StatusPending)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, withdrawalID, withdrawals[0].ID)

	require.NoError(t, mockPool.ExpectationsWereMet())
}

func withdrawalRows(id, userID uuid.UUID, amount string, status models.Status, now time.Time) *pgxmock.Rows {
	columns := []string{
		"id", "user_id", "amount", "payment_method", "payment_details", "status",
		"vat_user_code", "vat_user_submitted_at", "vat_admin_code",
		"vat_confirmed_at", "vat_confirmed_by", "vat_rejected_at", "vat_rejected_by", "vat_rejection_reason",
		"bot_user_code", "bot_user_submitted_at", "bot_admin_code",
		"bot_confirmed_at", "bot_confirmed_by", "bot_rejected_at", "bot_rejected_by", "bot_rejection_reason",
		"rejection_reason", "transaction_ref", "admin_notes", "processed_by", "processed_at",
		"revision", "created_at", "updated_at",
	}

	return pgxmock.NewRows(columns).AddRow(
		id, userID, amount, "paypal", []byte(`{"email":"user@example.com"}`), status,
		nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		int64(3), now, now,
	)
}

func withdrawalFixture(id, userID uuid.UUID, status models.Status, revision int64) *models.Withdrawal {
	//nolint:exhaustruct
	return &models.Withdrawal{
		ID:            id,
		UserID:        userID,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: "paypal",
		Status:        status,
		Revision:      revision,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}
