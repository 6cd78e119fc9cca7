package balance

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/storage"
)

type HandlerBalance struct {
	logger  *zerolog.Logger
	storage storage.Storage
}

// NewBalanceHandler - constructor for HandlerBalance.
func NewBalanceHandler(st storage.Storage, l *zerolog.Logger) *HandlerBalance {
	return &HandlerBalance{
		logger:  l,
		storage: st,
	}
}

// GetBalance handles the `GET /api/user/balance` endpoint. The balance is
// derived from completed ledger rows on every read.
func (hb *HandlerBalance) GetBalance(response http.ResponseWriter, req *http.Request) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	dbBalance, err := hb.storage.GetBalance(req.Context(), currentUser)
	if err != nil {
		hb.logger.Error().Err(err).Msg("error getting balance")

		http.Error(response, "error getting balance", http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(response).Encode(dbBalance)
}

// GetTransactions handles the `GET /api/user/transactions` endpoint.
func (hb *HandlerBalance) GetTransactions(response http.ResponseWriter, req *http.Request) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	transactions, err := hb.storage.GetTransactions(req.Context(), currentUser)
	if err != nil {
		hb.logger.Error().Err(err).Msg("failed to fetch transactions")

		http.Error(response, "Internal Server Error", http.StatusInternalServerError)

		return
	}

	if len(transactions) == 0 {
		response.WriteHeader(http.StatusNoContent)

		return
	}

	response.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(response).Encode(transactions)
}

// MakeDeposit handles the `POST /api/user/deposits` endpoint. The deposit
// lands as a pending ledger row; an admin confirmation completes it.
func (hb *HandlerBalance) MakeDeposit(response http.ResponseWriter, req *http.Request) {
	currentUser, ok := middlewares.UserID(req.Context())
	if !ok {
		http.Error(response, "user id not found", http.StatusUnprocessableEntity)

		return
	}

	var deposit models.MakeDeposit
	if err := json.NewDecoder(req.Body).Decode(&deposit); err != nil {
		http.Error(response, "Invalid request", http.StatusBadRequest)

		return
	}

	if !deposit.Amount.IsPositive() {
		http.Error(response, "Amount must be positive", http.StatusBadRequest)

		return
	}

	transactionID, err := hb.storage.CreateDeposit(req.Context(), currentUser, deposit.Amount)
	if err != nil {
		hb.logger.Error().Err(err).Msg("error creating deposit")

		http.Error(response, "error creating deposit", http.StatusInternalServerError)

		return
	}

	hb.logger.Info().Str("transactionId", transactionID).Str("user", currentUser).Msg("Deposit created")

	response.WriteHeader(http.StatusAccepted)
	_, _ = response.Write([]byte(transactionID))
}
