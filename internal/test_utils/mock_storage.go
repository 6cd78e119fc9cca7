package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/storage"
)

// MockStorage is an in-memory stand-in for the database storage used by
// handler tests.
type MockStorage struct {
	mu           sync.Mutex
	Users        map[string]*models.Login
	Withdrawals  map[string]*models.Withdrawal
	Transactions map[string]*models.Transaction
}

func NewMockStorage() *MockStorage {
	return &MockStorage{
		mu:           sync.Mutex{},
		Users:        make(map[string]*models.Login),
		Withdrawals:  make(map[string]*models.Withdrawal),
		Transactions: make(map[string]*models.Transaction),
	}
}

func (m *MockStorage) AddUser(_ context.Context, username string, passwordHash string, role string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Users[username]; exists {
		//nolint:exhaustruct
		pgErr := pgconn.PgError{
			Code:    "23505",
			Message: "User with username already exists",
		}

		return "", &pgErr
	}

	userID, _ := uuid.NewUUID()
	m.Users[username] = &models.Login{
		UserID:         userID,
		HashedPassword: passwordHash,
		Role:           role,
	}

	return userID.String(), nil
}

func (m *MockStorage) GetUser(_ context.Context, username string) (*models.Login, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[username]
	if !exists {
		return nil, nil
	}

	return user, nil
}

func (m *MockStorage) GetBalance(_ context.Context, userID string) (*models.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balanceLocked(userID), nil
}

func (m *MockStorage) balanceLocked(userID string) *models.Balance {
	deposited := decimal.Zero
	withdrawn := decimal.Zero
	reserved := decimal.Zero

	for _, transaction := range m.Transactions {
		if transaction.UserID.String() != userID || transaction.Status != models.TxCompleted {
			continue
		}

		if transaction.Kind == models.TxDeposit {
			deposited = deposited.Add(transaction.Amount)
		} else {
			withdrawn = withdrawn.Add(transaction.Amount)
		}
	}

	for _, withdrawal := range m.Withdrawals {
		if withdrawal.UserID.String() != userID {
			continue
		}

		switch withdrawal.Status {
		case models.StatusCompleted, models.StatusRejected, models.StatusVatRejected, models.StatusBotRejected:
		default:
			reserved = reserved.Add(withdrawal.Amount)
		}
	}

	return &models.Balance{
		Available: deposited.Sub(withdrawn).Sub(reserved),
		Withdrawn: withdrawn,
		Reserved:  reserved,
	}
}

func (m *MockStorage) GetTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transactions := make([]models.Transaction, 0)

	for _, transaction := range m.Transactions {
		if transaction.UserID.String() == userID {
			transactions = append(transactions, *transaction)
		}
	}

	return transactions, nil
}

func (m *MockStorage) GetTransaction(_ context.Context, transactionID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transaction, exists := m.Transactions[transactionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copied := *transaction

	return &copied, nil
}

func (m *MockStorage) CreateDeposit(_ context.Context, userID string, amount decimal.Decimal) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return "", errors.Wrap(err, "parsing user id")
	}

	transactionID, _ := uuid.NewUUID()
	m.Transactions[transactionID.String()] = &models.Transaction{
		ID:        transactionID,
		UserID:    parsedUserID,
		Kind:      models.TxDeposit,
		Amount:    amount,
		Status:    models.TxPending,
		Reference: nil,
		CreatedAt: time.Now(),
	}

	return transactionID.String(), nil
}

func (m *MockStorage) SettleDeposit(_ context.Context, transactionID string, status models.TxStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	transaction, exists := m.Transactions[transactionID]
	if !exists || transaction.Kind != models.TxDeposit || transaction.Status != models.TxPending {
		return storage.ErrNotFound
	}

	transaction.Status = status

	return nil
}

func (m *MockStorage) HasCompletedDebit(_ context.Context, withdrawalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, transaction := range m.Transactions {
		if transaction.Kind == models.TxWithdrawal &&
			transaction.Reference != nil &&
			transaction.Reference.String() == withdrawalID &&
			transaction.Status == models.TxCompleted {
			return true, nil
		}
	}

	return false, nil
}

func (m *MockStorage) InsertDebit(_ context.Context, userID string, withdrawalID string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return errors.Wrap(err, "parsing user id")
	}

	reference, err := uuid.Parse(withdrawalID)
	if err != nil {
		return errors.Wrap(err, "parsing withdrawal id")
	}

	for _, transaction := range m.Transactions {
		if transaction.Kind == models.TxWithdrawal &&
			transaction.Reference != nil && *transaction.Reference == reference {
			return nil
		}
	}

	transactionID, _ := uuid.NewUUID()
	m.Transactions[transactionID.String()] = &models.Transaction{
		ID:        transactionID,
		UserID:    parsedUserID,
		Kind:      models.TxWithdrawal,
		Amount:    amount,
		Status:    models.TxCompleted,
		Reference: &reference,
		CreatedAt: time.Now(),
	}

	return nil
}

func (m *MockStorage) CreateWithdrawal(_ context.Context, userID string, req models.CreateWithdrawal) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.Wrap(err, "parsing user id")
	}

	balance := m.balanceLocked(userID)
	if req.Amount.GreaterThan(balance.Available) {
		return nil, storage.ErrInsufficientBalance
	}

	withdrawalID, _ := uuid.NewUUID()
	withdrawal := &models.Withdrawal{
		ID:             withdrawalID,
		UserID:         parsedUserID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Status:         models.StatusPending,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.Withdrawals[withdrawalID.String()] = withdrawal

	copied := *withdrawal

	return &copied, nil
}

func (m *MockStorage) GetWithdrawal(_ context.Context, withdrawalID string) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	withdrawal, exists := m.Withdrawals[withdrawalID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copied := *withdrawal

	return &copied, nil
}

func (m *MockStorage) GetWithdrawals(_ context.Context, userID string) ([]models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	withdrawals := make([]models.Withdrawal, 0)

	for _, withdrawal := range m.Withdrawals {
		if withdrawal.UserID.String() == userID {
			withdrawals = append(withdrawals, *withdrawal)
		}
	}

	return withdrawals, nil
}

func (m *MockStorage) ListWithdrawals(_ context.Context, status models.Status) ([]models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	withdrawals := make([]models.Withdrawal, 0)

	for _, withdrawal := range m.Withdrawals {
		if status == "" || withdrawal.Status == status {
			withdrawals = append(withdrawals, *withdrawal)
		}
	}

	return withdrawals, nil
}

func (m *MockStorage) UpdateWithdrawal(_ context.Context, withdrawal *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.Withdrawals[withdrawal.ID.String()]
	if !exists {
		return storage.ErrNotFound
	}

	if current.Revision != withdrawal.Revision {
		return storage.ErrRevisionConflict
	}

	withdrawal.Revision++
	copied := *withdrawal
	m.Withdrawals[withdrawal.ID.String()] = &copied

	return nil
}
