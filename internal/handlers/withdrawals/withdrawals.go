package withdrawals

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/storage"
	"github.com/suresportpicks/picks-service/internal/verification"
)

type HandlerWithdrawals struct {
	logger   *zerolog.Logger
	storage  storage.Storage
	validate *validator.Validate
}

// NewWithdrawalsHandler - constructor for HandlerWithdrawals.
func NewWithdrawalsHandler(st storage.Storage, l *zerolog.Logger) *HandlerWithdrawals {
	return &HandlerWithdrawals{
		logger:   l,
		storage:  st,
		validate: validator.New(),
	}
}

// Create handles the `POST /api/user/withdrawals` endpoint. The requested
// amount is validated against the derived available balance.
func (hw *HandlerWithdrawals) Create(response http.ResponseWriter, req *http.Request) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	var createReq models.CreateWithdrawal
	if err := json.NewDecoder(req.Body).Decode(&createReq); err != nil {
		http.Error(response, "Invalid request", http.StatusBadRequest)

		return
	}

	if err := hw.validate.Struct(createReq); err != nil {
		http.Error(response, "Invalid input: "+err.Error(), http.StatusBadRequest)

		return
	}

	if !createReq.Amount.IsPositive() {
		http.Error(response, "Amount must be positive", http.StatusBadRequest)

		return
	}

	withdrawal, err := hw.storage.CreateWithdrawal(req.Context(), currentUser, createReq)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			hw.logger.Info().Str("user", currentUser).Msg("Withdrawal Create: insufficient balance")

			http.Error(response, "insufficient balance", http.StatusPaymentRequired)

			return
		}

		hw.logger.Error().Err(err).Msg("Withdrawal Create: error creating withdrawal")

		http.Error(response, "error creating withdrawal", http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(response).Encode(withdrawal)
}

// GetWithdrawals handles the `GET /api/user/withdrawals` endpoint.
func (hw *HandlerWithdrawals) GetWithdrawals(response http.ResponseWriter, req *http.Request) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	withdrawals, err := hw.storage.GetWithdrawals(req.Context(), currentUser)
	if err != nil {
		hw.logger.Error().Err(err).Msg("failed to fetch withdrawals")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	if len(withdrawals) == 0 {
		response.WriteHeader(http.StatusNoContent)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(withdrawals)
}

type submitCodeRequest struct {
	Code string `json:"code"`
}

// SubmitVatCode handles `POST /api/user/withdrawals/{id}/vat-code`.
func (hw *HandlerWithdrawals) SubmitVatCode(response http.ResponseWriter, req *http.Request) {
	hw.submitCode(response, req, verification.ActionSubmitVat)
}

// SubmitBotCode handles `POST /api/user/withdrawals/{id}/bot-code`.
func (hw *HandlerWithdrawals) SubmitBotCode(response http.ResponseWriter, req *http.Request) {
	hw.submitCode(response, req, verification.ActionSubmitBot)
}

func (hw *HandlerWithdrawals) submitCode(response http.ResponseWriter, req *http.Request, action verification.Action) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	var body submitCodeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(response, "Invalid request", http.StatusBadRequest)

		return
	}

	withdrawal, err := hw.storage.GetWithdrawal(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(response, "withdrawal not found", http.StatusNotFound)

			return
		}

		hw.logger.Error().Err(err).Msg("failed to load withdrawal")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	// Code submission is owner-only; everyone else sees a 404.
	if withdrawal.UserID.String() != currentUser {
		http.Error(response, "withdrawal not found", http.StatusNotFound)

		return
	}

	userID, err := uuid.Parse(currentUser)
	if err != nil {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	input := verification.Input{
		ActorID: userID,
		Code:    body.Code,
	}

	if err := verification.Apply(withdrawal, action, input, time.Now().UTC()); err != nil {
		writeTransitionError(response, err)

		return
	}

	if err := hw.storage.UpdateWithdrawal(req.Context(), withdrawal); err != nil {
		if errors.Is(err, storage.ErrRevisionConflict) {
			http.Error(response, "withdrawal was modified, retry", http.StatusConflict)

			return
		}

		hw.logger.Error().Err(err).Msg("failed to update withdrawal")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(withdrawal)
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
