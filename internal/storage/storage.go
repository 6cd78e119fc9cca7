package storage

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/suresportpicks/picks-service/internal/dbmanager"
	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/utils"
)

// openStatuses are the withdrawal states that still reserve the requested
// amount against the user's available balance.
var openStatuses = []string{
	string(models.StatusPending),
	string(models.StatusProcessing),
	string(models.StatusApproved),
	string(models.StatusImfRequired),
	string(models.StatusVatPending),
	string(models.StatusBotRequired),
	string(models.StatusBotPending),
	string(models.StatusBotSubmitted),
}

var withdrawalColumns = []string{
	"id", "user_id", "amount::text", "payment_method", "payment_details", "status",
	"vat_user_code", "vat_user_submitted_at", "vat_admin_code",
	"vat_confirmed_at", "vat_confirmed_by", "vat_rejected_at", "vat_rejected_by", "vat_rejection_reason",
	"bot_user_code", "bot_user_submitted_at", "bot_admin_code",
	"bot_confirmed_at", "bot_confirmed_by", "bot_rejected_at", "bot_rejected_by", "bot_rejection_reason",
	"rejection_reason", "transaction_ref", "admin_notes", "processed_by", "processed_at",
	"revision", "created_at", "updated_at",
}

type DBStorage struct {
	log   *zerolog.Logger
	dbCon dbmanager.PgxPool
}

// NewDBStorage initializes a new DBStorage instance.
func NewDBStorage(dbCon dbmanager.PgxPool, log *zerolog.Logger) *DBStorage {
	return &DBStorage{
		dbCon: dbCon,
		log:   log,
	}
}

func (storage *DBStorage) AddUser(ctx context.Context, username string, passwordHash string, role string) (string, error) {
	sql, args, err := squirrel.
		Insert("users").
		Columns("username", "password", "role").
		Values(username, passwordHash, role).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var userID string
	err = storage.dbCon.QueryRow(ctx, sql, args...).Scan(&userID)
	if err != nil {
		return "", err
	}

	return userID, nil
}

func (storage *DBStorage) GetUser(ctx context.Context, username string) (*models.Login, error) {
	var login models.Login

	sql, args, err := squirrel.
		Select("id", "password", "role").
		From("users").
		Where(squirrel.Eq{"username": username}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = storage.dbCon.QueryRow(ctx, sql, args...).Scan(&login.UserID, &login.HashedPassword, &login.Role)
	if err != nil {
		if utils.CheckNoRows(err) {
			return nil, nil
		}

		return nil, err
	}

	return &login, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// availableBalance computes the derived read-model: completed ledger sums
// minus the amount reserved by still-open withdrawal requests. There is no
// stored balance column to fall back on.
func (storage *DBStorage) availableBalance(ctx context.Context, querier rowQuerier, userID string) (*models.Balance, error) {
	sql, args, err := squirrel.
		Select(
			"COALESCE(SUM(amount) FILTER (WHERE kind = 'deposit' AND status = 'completed'), 0)::text",
			"COALESCE(SUM(amount) FILTER (WHERE kind = 'withdrawal' AND status = 'completed'), 0)::text",
		).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build balance query")
	}

	var deposited, withdrawn string

	err = querier.QueryRow(ctx, sql, args...).Scan(&deposited, &withdrawn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sum ledger")
	}

	sql, args, err = squirrel.
		Select("COALESCE(SUM(amount), 0)::text").
		From("withdrawals").
		Where(squirrel.Eq{"user_id": userID, "status": openStatuses}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build reservation query")
	}

	var reserved string

	err = querier.QueryRow(ctx, sql, args...).Scan(&reserved)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sum reservations")
	}

	depositedDec, err := decimal.NewFromString(deposited)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse deposited sum")
	}

	withdrawnDec, err := decimal.NewFromString(withdrawn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse withdrawn sum")
	}

	reservedDec, err := decimal.NewFromString(reserved)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse reserved sum")
	}

	return &models.Balance{
		Available: depositedDec.Sub(withdrawnDec).Sub(reservedDec),
		Withdrawn: withdrawnDec,
		Reserved:  reservedDec,
	}, nil
}

func (storage *DBStorage) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	return storage.availableBalance(ctx, storage.dbCon, userID)
}

func (storage *DBStorage) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	sql, args, err := squirrel.
		Select("id", "user_id", "kind", "amount::text", "status", "reference", "created_at").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	rows, err := storage.dbCon.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)

	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, *transaction)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return transactions, nil
}

func (storage *DBStorage) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	sql, args, err := squirrel.
		Select("id", "user_id", "kind", "amount::text", "status", "reference", "created_at").
		From("transactions").
		Where(squirrel.Eq{"id": transactionID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	transaction, err := scanTransaction(storage.dbCon.QueryRow(ctx, sql, args...))
	if err != nil {
		if utils.CheckNoRows(err) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return transaction, nil
}

func (storage *DBStorage) CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal) (string, error) {
	sql, args, err := squirrel.
		Insert("transactions").
		Columns("user_id", "kind", "amount", "status").
		Values(userID, models.TxDeposit, amount.String(), models.TxPending).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var transactionID string
	err = storage.dbCon.QueryRow(ctx, sql, args...).Scan(&transactionID)
	if err != nil {
		return "", err
	}

	return transactionID, nil
}

// SettleDeposit flips a pending deposit to its final status. The status guard
// in the WHERE clause makes a second settle attempt a no-op error instead of
// a double credit.
func (storage *DBStorage) SettleDeposit(ctx context.Context, transactionID string, status models.TxStatus) error {
	sql, args, err := squirrel.
		Update("transactions").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{
			"id":     transactionID,
			"kind":   models.TxDeposit,
			"status": models.TxPending,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build update query")
	}

	commandTag, err := storage.dbCon.Exec(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, "failed to settle deposit")
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (storage *DBStorage) HasCompletedDebit(ctx context.Context, withdrawalID string) (bool, error) {
	sql, args, err := squirrel.
		Select("1").
		From("transactions").
		Where(squirrel.Eq{
			"kind":      models.TxWithdrawal,
			"reference": withdrawalID,
			"status":    models.TxCompleted,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "failed to build query")
	}

	var one int

	err = storage.dbCon.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if utils.CheckNoRows(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// InsertDebit records the realized withdrawal against the ledger. A unique
// partial index on reference absorbs replays: a duplicate insert is reported
// as success because the debit is already on the books.
func (storage *DBStorage) InsertDebit(ctx context.Context, userID string, withdrawalID string, amount decimal.Decimal) error {
	sql, args, err := squirrel.
		Insert("transactions").
		Columns("user_id", "kind", "amount", "status", "reference").
		Values(userID, models.TxWithdrawal, amount.String(), models.TxCompleted, withdrawalID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build insert query")
	}

	_, err = storage.dbCon.Exec(ctx, sql, args...)
	if err != nil {
		if utils.CheckPGConstraint(err) {
			storage.log.Info().Str("withdrawalId", withdrawalID).Msg("debit already recorded, skipping")

			return nil
		}

		return errors.Wrap(err, "failed to insert debit")
	}

	return nil
}

func (storage *DBStorage) CreateWithdrawal(ctx context.Context, userID string, req models.CreateWithdrawal) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal

	err := WithTx(ctx, storage.dbCon, func(ctx context.Context, tx pgx.Tx) error {
		key1, key2 := KeyNameAsHash64("create_withdrawal:" + userID)
		if err := AcquireBlockingLock(ctx, tx, key1, key2, storage.log); err != nil {
			return err
		}

		balance, err := storage.availableBalance(ctx, tx, userID)
		if err != nil {
			return err
		}

		if req.Amount.GreaterThan(balance.Available) {
			storage.log.Info().
				Str("available", balance.Available.String()).
				Str("requested", req.Amount.String()).
				Msg("withdrawal exceeds available balance")

			return ErrInsufficientBalance
		}

		details, err := json.Marshal(req.PaymentDetails)
		if err != nil {
			return errors.Wrap(err, "failed to marshal payment details")
		}

		sql, args, err := squirrel.
			Insert("withdrawals").
			Columns("user_id", "amount", "payment_method", "payment_details").
			Values(userID, req.Amount.String(), req.PaymentMethod, details).
			Suffix("RETURNING id, created_at, updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "failed to build insert query")
		}

		created := models.Withdrawal{
			Amount:         req.Amount,
			PaymentMethod:  req.PaymentMethod,
			PaymentDetails: req.PaymentDetails,
			Status:         models.StatusPending,
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "failed to insert withdrawal")
		}

		created.UserID, err = parseUUID(userID)
		if err != nil {
			return err
		}

		withdrawal = &created

		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (storage *DBStorage) GetWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	sql, args, err := squirrel.
		Select(withdrawalColumns...).
		From("withdrawals").
		Where(squirrel.Eq{"id": withdrawalID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	withdrawal, err := scanWithdrawal(storage.dbCon.QueryRow(ctx, sql, args...))
	if err != nil {
		if utils.CheckNoRows(err) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return withdrawal, nil
}

func (storage *DBStorage) GetWithdrawals(ctx context.Context, userID string) ([]models.Withdrawal, error) {
	query := squirrel.
		Select(withdrawalColumns...).
		From("withdrawals").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	return storage.queryWithdrawals(ctx, query)
}

func (storage *DBStorage) ListWithdrawals(ctx context.Context, status models.Status) ([]models.Withdrawal, error) {
	query := squirrel.
		Select(withdrawalColumns...).
		From("withdrawals").
		OrderBy("created_at ASC")

	if status != "" {
		query = query.Where(squirrel.Eq{"status": status})
	}

	return storage.queryWithdrawals(ctx, query)
}

func (storage *DBStorage) queryWithdrawals(ctx context.Context, query squirrel.SelectBuilder) ([]models.Withdrawal, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build query")
	}

	rows, err := storage.dbCon.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	withdrawals := make([]models.Withdrawal, 0)

	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}

		withdrawals = append(withdrawals, *withdrawal)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return withdrawals, nil
}

// UpdateWithdrawal persists a transitioned record. The write carries a
// compare-and-swap on the revision counter: a concurrent admin action bumps
// the revision first and this write then matches zero rows.
func (storage *DBStorage) UpdateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	err := WithTx(ctx, storage.dbCon, func(ctx context.Context, tx pgx.Tx) error {
		key1, key2 := KeyNameAsHash64("withdrawal:" + withdrawal.ID.String())
		if err := AcquireBlockingLock(ctx, tx, key1, key2, storage.log); err != nil {
			return err
		}

		sql, args, err := squirrel.
			Update("withdrawals").
			Set("status", withdrawal.Status).
			Set("vat_user_code", withdrawal.VatCode.UserSubmitted).
			Set("vat_user_submitted_at", withdrawal.VatCode.UserSubmittedAt).
			Set("vat_admin_code", withdrawal.VatCode.AdminGenerated).
			Set("vat_confirmed_at", withdrawal.VatCode.AdminConfirmedAt).
			Set("vat_confirmed_by", withdrawal.VatCode.AdminConfirmedBy).
			Set("vat_rejected_at", withdrawal.VatCode.RejectedAt).
			Set("vat_rejected_by", withdrawal.VatCode.RejectedBy).
			Set("vat_rejection_reason", withdrawal.VatCode.RejectionReason).
			Set("bot_user_code", withdrawal.BotCode.UserSubmitted).
			Set("bot_user_submitted_at", withdrawal.BotCode.UserSubmittedAt).
			Set("bot_admin_code", withdrawal.BotCode.AdminGenerated).
			Set("bot_confirmed_at", withdrawal.BotCode.AdminConfirmedAt).
			Set("bot_confirmed_by", withdrawal.BotCode.AdminConfirmedBy).
			Set("bot_rejected_at", withdrawal.BotCode.RejectedAt).
			Set("bot_rejected_by", withdrawal.BotCode.RejectedBy).
			Set("bot_rejection_reason", withdrawal.BotCode.RejectionReason).
			Set("rejection_reason", withdrawal.RejectionReason).
			Set("transaction_ref", withdrawal.TransactionRef).
			Set("admin_notes", withdrawal.AdminNotes).
			Set("processed_by", withdrawal.ProcessedBy).
			Set("processed_at", withdrawal.ProcessedAt).
			Set("revision", withdrawal.Revision+1).
			Set("updated_at", withdrawal.UpdatedAt).
			Where(squirrel.Eq{"id": withdrawal.ID, "revision": withdrawal.Revision}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "failed to build update query")
		}

		commandTag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return errors.Wrap(err, "failed to execute update query")
		}

		if commandTag.RowsAffected() == 0 {
			return ErrRevisionConflict
		}

		return nil
	})
	if err != nil {
		return err
	}

	withdrawal.Revision++

	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWithdrawal(row scannable) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal

	var amount string

	var details []byte

	err := row.Scan(
		&withdrawal.ID, &withdrawal.UserID, &amount, &withdrawal.PaymentMethod, &details, &withdrawal.Status,
		&withdrawal.VatCode.UserSubmitted, &withdrawal.VatCode.UserSubmittedAt, &withdrawal.VatCode.AdminGenerated,
		&withdrawal.VatCode.AdminConfirmedAt, &withdrawal.VatCode.AdminConfirmedBy,
		&withdrawal.VatCode.RejectedAt, &withdrawal.VatCode.RejectedBy, &withdrawal.VatCode.RejectionReason,
		&withdrawal.BotCode.UserSubmitted, &withdrawal.BotCode.UserSubmittedAt, &withdrawal.BotCode.AdminGenerated,
		&withdrawal.BotCode.AdminConfirmedAt, &withdrawal.BotCode.AdminConfirmedBy,
		&withdrawal.BotCode.RejectedAt, &withdrawal.BotCode.RejectedBy, &withdrawal.BotCode.RejectionReason,
		&withdrawal.RejectionReason, &withdrawal.TransactionRef, &withdrawal.AdminNotes,
		&withdrawal.ProcessedBy, &withdrawal.ProcessedAt,
		&withdrawal.Revision, &withdrawal.CreatedAt, &withdrawal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	withdrawal.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount")
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &withdrawal.PaymentDetails); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal payment details")
		}
	}

	return &withdrawal, nil
}

func scanTransaction(row scannable) (*models.Transaction, error) {
	var transaction models.Transaction

	var amount string

	err := row.Scan(
		&transaction.ID, &transaction.UserID, &transaction.Kind, &amount,
		&transaction.Status, &transaction.Reference, &transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	transaction.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount")
	}

	return &transaction, nil
}
