package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxKind string

const (
	TxDeposit    TxKind = "deposit"
	TxWithdrawal TxKind = "withdrawal"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

type Transaction struct {
	ID        uuid.UUID       `db:"id"         json:"id"`
	UserID    uuid.UUID       `db:"user_id"    json:"-"`
	Kind      TxKind          `db:"kind"       json:"kind"`
	Amount    decimal.Decimal `db:"amount"     json:"amount"`
	Status    TxStatus        `db:"status"     json:"status"`
	Reference *uuid.UUID      `db:"reference"  json:"reference,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Balance is the derived read-model: sums over completed ledger rows, never
// a stored counter. Reserved is the amount held by still-open withdrawals.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
	Reserved  decimal.Decimal `json:"reserved"`
}

type MakeDeposit struct {
	Amount decimal.Decimal `json:"amount"`
}
