package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/ledger"
	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/notifier"
	"github.com/suresportpicks/picks-service/internal/storage"
	"github.com/suresportpicks/picks-service/internal/verification"
)

// actionRequest covers every admin action body; each action reads the
// fields it needs.
type actionRequest struct {
	Code            string `json:"code"`
	VatCode         string `json:"vatCode"`
	BotCode         string `json:"botCode"`
	Reason          string `json:"reason"`
	RejectionReason string `json:"rejectionReason"`
	TransactionID   string `json:"transactionId"`
	AdminNotes      string `json:"adminNotes"`
}

func (ar actionRequest) code() string {
	if ar.Code != "" {
		return ar.Code
	}

	if ar.VatCode != "" {
		return ar.VatCode
	}

	return ar.BotCode
}

func (ar actionRequest) reason() string {
	if ar.Reason != "" {
		return ar.Reason
	}

	return ar.RejectionReason
}

type HandlerAdmin struct {
	logger   *zerolog.Logger
	storage  storage.Storage
	debits   ledger.DebitPublisher
	notifier notifier.StatusNotifier
}

// NewAdminHandler - constructor for HandlerAdmin.
func NewAdminHandler(st storage.Storage, debits ledger.DebitPublisher, ntf notifier.StatusNotifier, l *zerolog.Logger) *HandlerAdmin {
	return &HandlerAdmin{
		logger:   l,
		storage:  st,
		debits:   debits,
		notifier: ntf,
	}
}

// ListWithdrawals handles `GET /api/admin/withdrawals?status=`.
func (ha *HandlerAdmin) ListWithdrawals(response http.ResponseWriter, req *http.Request) {
	status := models.Status(req.URL.Query().Get("status"))

	withdrawals, err := ha.storage.ListWithdrawals(req.Context(), status)
	if err != nil {
		ha.logger.Error().Err(err).Msg("failed to list withdrawals")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(withdrawals)
}

func (ha *HandlerAdmin) Approve(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionApprove)
}

func (ha *HandlerAdmin) Reject(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionReject)
}

func (ha *HandlerAdmin) MarkProcessing(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionMarkProcessing)
}

func (ha *HandlerAdmin) MarkCompleted(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionMarkCompleted)
}

func (ha *HandlerAdmin) RequireVerification(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionRequireVerification)
}

func (ha *HandlerAdmin) ConfirmVat(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionConfirmVat)
}

func (ha *HandlerAdmin) ApproveUserVat(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionApproveUserVat)
}

func (ha *HandlerAdmin) RejectVat(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionRejectVat)
}

func (ha *HandlerAdmin) ConfirmBot(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionConfirmBot)
}

func (ha *HandlerAdmin) ApproveUserBot(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionApproveUserBot)
}

func (ha *HandlerAdmin) RejectBot(response http.ResponseWriter, req *http.Request) {
	ha.transition(response, req, verification.ActionRejectBot)
}

// transition is the single mutation path for every admin action: validate
// input, load the record, consult the transition table, persist with the
// revision check, then fire side effects.
func (ha *HandlerAdmin) transition(response http.ResponseWriter, req *http.Request, action verification.Action) {
	adminUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	adminID, err := uuid.Parse(adminUser)
	if err != nil {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	var body actionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(response, "Invalid request", http.StatusBadRequest)

		return
	}

	withdrawal, err := ha.storage.GetWithdrawal(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(response, "withdrawal not found", http.StatusNotFound)

			return
		}

		ha.logger.Error().Err(err).Msg("failed to load withdrawal")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	previous := withdrawal.Status
	input := verification.Input{
		ActorID:       adminID,
		Code:          body.code(),
		Reason:        body.reason(),
		TransactionID: body.TransactionID,
		AdminNotes:    body.AdminNotes,
	}

	if err := verification.Apply(withdrawal, action, input, time.Now().UTC()); err != nil {
		ha.logger.Info().Err(err).
			Str("withdrawalId", withdrawal.ID.String()).
			Str("action", string(action)).
			Msg("transition rejected")

		writeTransitionError(response, err)

		return
	}

	if err := ha.storage.UpdateWithdrawal(req.Context(), withdrawal); err != nil {
		if errors.Is(err, storage.ErrRevisionConflict) {
			http.Error(response, "withdrawal was modified, retry", http.StatusConflict)

			return
		}

		ha.logger.Error().Err(err).Msg("failed to update withdrawal")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	ha.logger.Info().
		Str("withdrawalId", withdrawal.ID.String()).
		Str("from", string(previous)).
		Str("to", string(withdrawal.Status)).
		Str("admin", adminUser).
		Msg("Withdrawal transitioned")

	if withdrawal.Status == models.StatusCompleted {
		event := ledger.Event{
			WithdrawalID: withdrawal.ID.String(),
			UserID:       withdrawal.UserID.String(),
			Amount:       withdrawal.Amount,
		}
		if err := ha.debits.AddDebit(req.Context(), event); err != nil {
			ha.logger.Error().Err(err).Msg("failed to publish debit event")
		}
	}

	ha.notifier.NotifyStatusChange(req.Context(), models.StatusChange{
		WithdrawalID: withdrawal.ID.String(),
		UserID:       withdrawal.UserID.String(),
		From:         previous,
		To:           withdrawal.Status,
		Reason:       input.Reason,
	})

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(withdrawal)
}

// ConfirmDeposit handles `PUT /api/admin/deposits/{id}/confirm`: the pending
// credit becomes part of the derived balance.
func (ha *HandlerAdmin) ConfirmDeposit(response http.ResponseWriter, req *http.Request) {
	ha.settleDeposit(response, req, models.TxCompleted)
}

// RejectDeposit handles `PUT /api/admin/deposits/{id}/reject`.
func (ha *HandlerAdmin) RejectDeposit(response http.ResponseWriter, req *http.Request) {
	ha.settleDeposit(response, req, models.TxFailed)
}

func (ha *HandlerAdmin) settleDeposit(response http.ResponseWriter, req *http.Request, status models.TxStatus) {
	transactionID := chi.URLParam(req, "id")

	if err := ha.storage.SettleDeposit(req.Context(), transactionID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(response, "pending deposit not found", http.StatusNotFound)

			return
		}

		ha.logger.Error().Err(err).Msg("failed to settle deposit")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	transaction, err := ha.storage.GetTransaction(req.Context(), transactionID)
	if err != nil {
		ha.logger.Error().Err(err).Msg("failed to load settled deposit")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(transaction)
}

func writeTransitionError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, verification.ErrInvalidTransition):
		http.Error(response, err.Error(), http.StatusConflict)
	case errors.Is(err, verification.ErrEmptyCode),
		errors.Is(err, verification.ErrEmptyReason),
		errors.Is(err, verification.ErrNoUserCode):
		http.Error(response, err.Error(), http.StatusBadRequest)
	default:
		http.Error(response, "Internal Server Error", http.StatusInternalServerError)
	}
}
