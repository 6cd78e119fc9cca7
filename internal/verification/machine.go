package verification

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/suresportpicks/picks-service/internal/models"
)

// Action is an operator- or user-initiated transition on a withdrawal.
type Action string

const (
	// Admin actions.
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionMarkProcessing      Action = "mark-processing"
	ActionMarkCompleted       Action = "mark-completed"
	ActionRequireVerification Action = "require-verification"
	ActionConfirmVat          Action = "confirm-vat"
	ActionApproveUserVat      Action = "approve-user-vat"
	ActionRejectVat           Action = "reject-vat"
	ActionConfirmBot          Action = "confirm-bot"
	ActionApproveUserBot      Action = "approve-user-bot"
	ActionRejectBot           Action = "reject-bot"

	// User actions.
	ActionSubmitVat Action = "submit-vat"
	ActionSubmitBot Action = "submit-bot"
)

var (
	ErrInvalidTransition = errors.New("action not allowed from current status")
	ErrEmptyCode         = errors.New("verification code must not be empty")
	ErrEmptyReason       = errors.New("rejection reason must not be empty")
	ErrNoUserCode        = errors.New("no user-submitted code on record")
)

// transitions is the single source of truth for the withdrawal lifecycle.
// Handlers consult it before every mutation; UI affordances are not trusted.
var transitions = map[models.Status]map[Action]models.Status{
	models.StatusPending: {
		ActionApprove:             models.StatusApproved,
		ActionReject:              models.StatusRejected,
		ActionMarkProcessing:      models.StatusProcessing,
		ActionRequireVerification: models.StatusImfRequired,
	},
	models.StatusProcessing: {
		ActionMarkCompleted: models.StatusCompleted,
	},
	models.StatusApproved: {
		ActionMarkCompleted: models.StatusCompleted,
	},
	models.StatusImfRequired: {
		ActionSubmitVat:  models.StatusVatPending,
		ActionConfirmVat: models.StatusBotPending,
		ActionRejectVat:  models.StatusVatRejected,
	},
	models.StatusVatPending: {
		ActionConfirmVat:     models.StatusBotPending,
		ActionApproveUserVat: models.StatusBotRequired,
		ActionRejectVat:      models.StatusVatRejected,
	},
	models.StatusBotRequired: {
		ActionSubmitBot:  models.StatusBotSubmitted,
		ActionConfirmBot: models.StatusApproved,
		ActionRejectBot:  models.StatusBotRejected,
	},
	models.StatusBotPending: {
		ActionSubmitBot:      models.StatusBotSubmitted,
		ActionConfirmBot:     models.StatusApproved,
		ActionApproveUserBot: models.StatusApproved,
		ActionRejectBot:      models.StatusBotRejected,
	},
	models.StatusBotSubmitted: {
		ActionConfirmBot:     models.StatusApproved,
		ActionApproveUserBot: models.StatusApproved,
		ActionRejectBot:      models.StatusBotRejected,
	},
}

func CanTransition(current models.Status, action Action) bool {
	_, ok := transitions[current][action]

	return ok
}

func Target(current models.Status, action Action) (models.Status, bool) {
	target, ok := transitions[current][action]

	return target, ok
}

// IsTerminal reports whether no further action is defined for the status.
func IsTerminal(status models.Status) bool {
	return len(transitions[status]) == 0
}

// Input carries the action parameters supplied by the caller.
type Input struct {
	ActorID       uuid.UUID
	Code          string
	Reason        string
	TransactionID string
	AdminNotes    string
}

// Apply validates the action against the transition table and the per-action
// guards, then mutates the withdrawal in place. The record is untouched when
// an error is returned.
//
//nolint:cyclop
func Apply(withdrawal *models.Withdrawal, action Action, input Input, now time.Time) error {
	target, ok := Target(withdrawal.Status, action)
	if !ok {
		return errors.Wrapf(ErrInvalidTransition, "status %q, action %q", withdrawal.Status, action)
	}

	switch action {
	case ActionApprove, ActionConfirmBot, ActionApproveUserBot:
		// Terminal approvals stamp the operator.
		if action == ActionConfirmBot && input.Code == "" {
			return ErrEmptyCode
		}

		if action == ActionApproveUserBot && withdrawal.BotCode.UserSubmitted == nil {
			return ErrNoUserCode
		}

		if action != ActionApprove {
			code := input.Code
			if action == ActionApproveUserBot {
				code = *withdrawal.BotCode.UserSubmitted
			}

			withdrawal.BotCode.AdminGenerated = &code
			withdrawal.BotCode.AdminConfirmedAt = &now
			withdrawal.BotCode.AdminConfirmedBy = &input.ActorID

			if input.TransactionID != "" {
				withdrawal.TransactionRef = &input.TransactionID
			}

			if input.AdminNotes != "" {
				withdrawal.AdminNotes = &input.AdminNotes
			}
		}

		withdrawal.ProcessedBy = &input.ActorID
		withdrawal.ProcessedAt = &now

	case ActionReject:
		if input.Reason == "" {
			return ErrEmptyReason
		}

		withdrawal.RejectionReason = &input.Reason
		withdrawal.ProcessedBy = &input.ActorID
		withdrawal.ProcessedAt = &now

	case ActionMarkProcessing:
		withdrawal.ProcessedBy = &input.ActorID
		withdrawal.ProcessedAt = &now

	case ActionMarkCompleted, ActionRequireVerification:
		// Status flip only; the ledger debit is realized by the consumer.

	case ActionConfirmVat:
		if input.Code == "" {
			return ErrEmptyCode
		}

		withdrawal.VatCode.AdminGenerated = &input.Code
		withdrawal.VatCode.AdminConfirmedAt = &now
		withdrawal.VatCode.AdminConfirmedBy = &input.ActorID

	case ActionApproveUserVat:
		if withdrawal.VatCode.UserSubmitted == nil {
			return ErrNoUserCode
		}

		code := *withdrawal.VatCode.UserSubmitted
		withdrawal.VatCode.AdminGenerated = &code
		withdrawal.VatCode.AdminConfirmedAt = &now
		withdrawal.VatCode.AdminConfirmedBy = &input.ActorID

	case ActionRejectVat:
		if input.Reason == "" {
			return ErrEmptyReason
		}

		withdrawal.VatCode.RejectedAt = &now
		withdrawal.VatCode.RejectedBy = &input.ActorID
		withdrawal.VatCode.RejectionReason = &input.Reason

	case ActionRejectBot:
		if input.Reason == "" {
			return ErrEmptyReason
		}

		withdrawal.BotCode.RejectedAt = &now
		withdrawal.BotCode.RejectedBy = &input.ActorID
		withdrawal.BotCode.RejectionReason = &input.Reason

	case ActionSubmitVat:
		if input.Code == "" {
			return ErrEmptyCode
		}

		withdrawal.VatCode.UserSubmitted = &input.Code
		withdrawal.VatCode.UserSubmittedAt = &now

	case ActionSubmitBot:
		if input.Code == "" {
			return ErrEmptyCode
		}

		withdrawal.BotCode.UserSubmitted = &input.Code
		withdrawal.BotCode.UserSubmittedAt = &now
	}

	withdrawal.Status = target
	withdrawal.UpdatedAt = now

	return nil
}
