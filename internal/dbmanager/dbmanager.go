package dbmanager

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose"
	"github.com/rs/zerolog"
)

// PgxPool is the subset of pgxpool.Pool the storage layer uses. pgxmock
// satisfies it, which keeps storage tests off a live database.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type DBManager struct {
	DB          PgxPool
	IsConnected bool
	log         *zerolog.Logger
	dsn         string
}

// NewDBManager - constructor for DBManager.
func NewDBManager(dsn string, log *zerolog.Logger) *DBManager {
	return &DBManager{
		DB:          nil,
		IsConnected: false,
		log:         log,
		dsn:         dsn,
	}
}

func (dbm *DBManager) Connect(ctx context.Context) *DBManager {
	pool, err := pgxpool.New(ctx, dbm.dsn)
	if err != nil {
		dbm.log.Error().Err(err).Msg("Unable to create connection pool")

		return dbm
	}

	if err := pool.Ping(ctx); err != nil {
		dbm.log.Error().Err(err).Msg("Unable to reach database")

		return dbm
	}

	dbm.DB = pool
	dbm.IsConnected = true

	return dbm
}

// ApplyMigrations runs goose migrations from the migrations directory over a
// database/sql connection, since goose does not speak pgx natively.
func (dbm *DBManager) ApplyMigrations() *DBManager {
	if !dbm.IsConnected {
		dbm.log.Error().Msg("Skipping migrations, no database connection")

		return dbm
	}

	db, err := sql.Open("pgx", dbm.dsn)
	if err != nil {
		dbm.log.Error().Err(err).Msg("Failed to open migration connection")

		return dbm
	}

	defer func() {
		_ = db.Close()
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		dbm.log.Error().Err(err).Msg("Failed to set goose dialect")

		return dbm
	}

	if err := goose.Up(db, "migrations"); err != nil {
		dbm.log.Error().Err(err).Msg("Failed to apply migrations")

		return dbm
	}

	dbm.log.Info().Msg("Migrations applied")

	return dbm
}

func (dbm *DBManager) Close() {
	if dbm.DB != nil {
		dbm.DB.Close()
	}
}
