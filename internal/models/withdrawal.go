package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusProcessing   Status = "processing"
	StatusApproved     Status = "approved"
	StatusCompleted    Status = "completed"
	StatusRejected     Status = "rejected"
	StatusImfRequired  Status = "imf_required"
	StatusVatPending   Status = "vat_pending"
	StatusVatRejected  Status = "vat_rejected"
	StatusBotRequired  Status = "bot_required"
	StatusBotPending   Status = "bot_pending"
	StatusBotSubmitted Status = "bot_submitted"
	StatusBotRejected  Status = "bot_rejected"
)

// CodeCheck is one manual verification round: the code the user typed in
// and the code the reviewing admin settled on, plus the audit trail.
type CodeCheck struct {
	UserSubmitted    *string    `db:"user_code"        json:"userSubmitted,omitempty"`
	UserSubmittedAt  *time.Time `db:"user_submitted_at" json:"userSubmittedAt,omitempty"`
	AdminGenerated   *string    `db:"admin_code"       json:"adminGenerated,omitempty"`
	AdminConfirmedAt *time.Time `db:"confirmed_at"     json:"adminConfirmedAt,omitempty"`
	AdminConfirmedBy *uuid.UUID `db:"confirmed_by"     json:"adminConfirmedBy,omitempty"`
	RejectedAt       *time.Time `db:"rejected_at"      json:"rejectedAt,omitempty"`
	RejectedBy       *uuid.UUID `db:"rejected_by"      json:"rejectedBy,omitempty"`
	RejectionReason  *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

type Withdrawal struct {
	ID              uuid.UUID         `db:"id"               json:"id"`
	UserID          uuid.UUID         `db:"user_id"          json:"user"`
	Amount          decimal.Decimal   `db:"amount"           json:"amount"`
	PaymentMethod   string            `db:"payment_method"   json:"paymentMethod"`
	PaymentDetails  map[string]string `db:"payment_details"  json:"paymentDetails"`
	Status          Status            `db:"status"           json:"status"`
	VatCode         CodeCheck         `db:"-"                json:"vatCode"`
	BotCode         CodeCheck         `db:"-"                json:"botCode"`
	RejectionReason *string           `db:"rejection_reason" json:"rejectionReason,omitempty"`
	TransactionRef  *string           `db:"transaction_ref"  json:"transactionId,omitempty"`
	AdminNotes      *string           `db:"admin_notes"      json:"adminNotes,omitempty"`
	ProcessedBy     *uuid.UUID        `db:"processed_by"     json:"processedBy,omitempty"`
	ProcessedAt     *time.Time        `db:"processed_at"     json:"processedAt,omitempty"`
	Revision        int64             `db:"revision"         json:"-"`
	CreatedAt       time.Time         `db:"created_at"       json:"createdAt"`
	UpdatedAt       time.Time         `db:"updated_at"       json:"-"`
}

type CreateWithdrawal struct {
	Amount         decimal.Decimal   `json:"amount"`
	PaymentMethod  string            `json:"paymentMethod"  validate:"required,oneof=paypal bank crypto cashapp"`
	PaymentDetails map[string]string `json:"paymentDetails" validate:"required"`
}

// StatusChange is the payload sent to the external notification service
// whenever an admin action moves a withdrawal to a new status.
type StatusChange struct {
	WithdrawalID string `json:"withdrawalId"`
	UserID       string `json:"userId"`
	From         Status `json:"from"`
	To           Status `json:"to"`
	Reason       string `json:"reason,omitempty"`
}
