package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/suresportpicks/picks-service/internal/models"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrRevisionConflict    = errors.New("withdrawal was modified concurrently")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Storage interface {
	AddUser(ctx context.Context, username string, passwordHash string, role string) (string, error)
	GetUser(ctx context.Context, username string) (*models.Login, error)

	GetBalance(ctx context.Context, userID string) (*models.Balance, error)
	GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal) (string, error)
	SettleDeposit(ctx context.Context, transactionID string, status models.TxStatus) error
	HasCompletedDebit(ctx context.Context, withdrawalID string) (bool, error)
	InsertDebit(ctx context.Context, userID string, withdrawalID string, amount decimal.Decimal) error

	CreateWithdrawal(ctx context.Context, userID string, req models.CreateWithdrawal) (*models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error)
	GetWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, status models.Status) ([]models.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
}
