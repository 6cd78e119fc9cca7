package balance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suresportpicks/picks-service/internal/handlers/balance"
	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/models"
	testutils "github.com/suresportpicks/picks-service/internal/test_utils"
)

func setupBalance(t *testing.T) (*balance.HandlerBalance, *testutils.MockStorage, string) {
	t.Helper()

	log := zerolog.New(nil)
	mockStorage := testutils.NewMockStorage()

	userID, err := mockStorage.AddUser(context.Background(), "bettor", "hash", models.RoleUser)
	require.NoError(t, err)

	return balance.NewBalanceHandler(mockStorage, &log), mockStorage, userID
}

func authedRequest(method, target, userID string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middlewares.UserIDKey, userID)

	return req.WithContext(ctx)
}

func TestBalance_GetBalance(t *testing.T) {
	t.Parallel()

	handler, mockStorage, userID := setupBalance(t)

	transactionID, err := mockStorage.CreateDeposit(context.Background(), userID, decimal.NewFromInt(750))
	require.NoError(t, err)
	require.NoError(t, mockStorage.SettleDeposit(context.Background(), transactionID, models.TxCompleted))

	res := httptest.NewRecorder()
	handler.GetBalance(res, authedRequest(http.MethodGet, "/api/user/balance", userID, nil))

	require.Equal(t, http.StatusOK, res.Code)

	var got models.Balance
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.True(t, decimal.NewFromInt(750).Equal(got.Available))
	assert.True(t, got.Withdrawn.IsZero())
	assert.True(t, got.Reserved.IsZero())
}

// A pending deposit does not count until an admin confirms it.
func TestBalance_GetBalance_PendingDepositExcluded(t *testing.T) {
	t.Parallel()

	handler, mockStorage, userID := setupBalance(t)

	_, err := mockStorage.CreateDeposit(context.Background(), userID, decimal.NewFromInt(750))
	require.NoError(t, err)

	res := httptest.NewRecorder()
	handler.GetBalance(res, authedRequest(http.MethodGet, "/api/user/balance", userID, nil))

	require.Equal(t, http.StatusOK, res.Code)

	var got models.Balance
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.True(t, got.Available.IsZero())
}

func TestBalance_GetTransactions_Empty(t *testing.T) {
	t.Parallel()

	handler, _, userID := setupBalance(t)

	res := httptest.NewRecorder()
	handler.GetTransactions(res, authedRequest(http.MethodGet, "/api/user/transactions", userID, nil))

	require.Equal(t, http.StatusNoContent, res.Code)
}

func TestBalance_GetTransactions(t *testing.T) {
	t.Parallel()

	handler, mockStorage, userID := setupBalance(t)

	_, err := mockStorage.CreateDeposit(context.Background(), userID, decimal.NewFromInt(100))
	require.NoError(t, err)

	res := httptest.NewRecorder()
	handler.GetTransactions(res, authedRequest(http.MethodGet, "/api/user/transactions", userID, nil))

	require.Equal(t, http.StatusOK, res.Code)

	var transactions []models.Transaction
	require.NoError(t, json.NewDecoder(res.Body).Decode(&transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, models.TxDeposit, transactions[0].Kind)
	assert.Equal(t, models.TxPending, transactions[0].Status)
}

func TestBalance_MakeDeposit(t *testing.T) {
	t.Parallel()

	handler, mockStorage, userID := setupBalance(t)

	res := httptest.NewRecorder()
	handler.MakeDeposit(res, authedRequest(http.MethodPost, "/api/user/deposits", userID,
		models.MakeDeposit{Amount: decimal.NewFromInt(300)}))

	require.Equal(t, http.StatusAccepted, res.Code)

	transactionID := res.Body.String()
	transaction, err := mockStorage.GetTransaction(context.Background(), transactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, transaction.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(transaction.Amount))
}

func TestBalance_MakeDeposit_NonPositive(t *testing.T) {
	t.Parallel()

	handler, _, userID := setupBalance(t)

	res := httptest.NewRecorder()
	handler.MakeDeposit(res, authedRequest(http.MethodPost, "/api/user/deposits", userID,
		models.MakeDeposit{Amount: decimal.Zero}))

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestBalance_NoUserInContext(t *testing.T) {
	t.Parallel()

	handler, _, _ := setupBalance(t)

	res := httptest.NewRecorder()
	handler.GetBalance(res, httptest.NewRequest(http.MethodGet, "/api/user/balance", nil))

	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
}
