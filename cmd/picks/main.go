package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/suresportpicks/picks-service/internal/config"
	"github.com/suresportpicks/picks-service/internal/dbmanager"
	adminHandler "github.com/suresportpicks/picks-service/internal/handlers/admin"
	authHandler "github.com/suresportpicks/picks-service/internal/handlers/auth"
	balanceHandler "github.com/suresportpicks/picks-service/internal/handlers/balance"
	healthHandler "github.com/suresportpicks/picks-service/internal/handlers/health"
	withdrawalsHandler "github.com/suresportpicks/picks-service/internal/handlers/withdrawals"
	"github.com/suresportpicks/picks-service/internal/ledger"
	"github.com/suresportpicks/picks-service/internal/logger"
	"github.com/suresportpicks/picks-service/internal/notifier"
	"github.com/suresportpicks/picks-service/internal/queue"
	"github.com/suresportpicks/picks-service/internal/redis"
	"github.com/suresportpicks/picks-service/internal/router"
	"github.com/suresportpicks/picks-service/internal/storage"
	"github.com/suresportpicks/picks-service/internal/tracer"
	"github.com/suresportpicks/picks-service/internal/utils"
)

var ledgerTopic = "withdrawal-debits"

func main() {
	log := logger.NewLogger().SetLogLevel(zerolog.DebugLevel).Get()

	err := godotenv.Load(".env")
	if err != nil {
		log.Error().Err(err).Msg("Error loading .env file")
	}

	cfg := config.NewConfigBuilder(log).
		FromEnv().
		FromFlags().Build()

	log.Info().Interface("config", cfg).Msg("Configuration loaded")

	if cfg.JwtSecret == "" {
		panic(errors.New("jwt secret not provided"))
	}

	ctx, cancel := utils.WithSignalCancel(context.Background(), log)
	defer cancel()

	if cfg.Jaeger != "" {
		traceProvider, err := tracer.NewTracer(cfg).InitTracer(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Error initialising tracer")
		} else {
			defer func() {
				_ = traceProvider.Shutdown(ctx)
			}()
		}
	}

	dbManager := dbmanager.NewDBManager(cfg.Database, log).Connect(ctx).ApplyMigrations()
	defer dbManager.Close()

	st := storage.NewDBStorage(dbManager.DB, log)

	session := redis.NewRStorage(*cfg)
	if err := session.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error connecting to redis")
	}

	kafkaQueue := queue.NewQueue(cfg)
	debitWriter, debitReader, closeLedger := kafkaQueue.CreateGroup(ledgerTopic)
	defer closeLedger()

	ledgerProcessor := ledger.NewLedger(debitWriter, debitReader, log).WithStorage(st)
	go ledgerProcessor.ProcessDebits(ctx)

	statusNotifier := notifier.NewSender(cfg, log)

	hHandlers := healthHandler.NewHealthHandler(dbManager, log)
	aHandlers := authHandler.NewAuthHandler(st, cfg, session, log)
	bHandlers := balanceHandler.NewBalanceHandler(st, log)
	wHandlers := withdrawalsHandler.NewWithdrawalsHandler(st, log)
	admHandlers := adminHandler.NewAdminHandler(st, ledgerProcessor, statusNotifier, log)

	var cRouter router.Router = router.NewCustomRouter(cfg, session, log)
	cRouter.SetMiddlewares()
	cRouter.SetHealthRouter(hHandlers)
	cRouter.SetAuthRouter(aHandlers)
	cRouter.SetWithdrawalsRouter(wHandlers)
	cRouter.SetBalanceRouter(bHandlers)
	cRouter.SetAdminRouter(admHandlers)

	log.Info().
		Str("server_address", cfg.Address).
		Msg("Server started")

	//nolint:exhaustruct
	server := &http.Server{
		Addr:         cfg.Address,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		Handler:      otelhttp.NewHandler(cRouter.GetRouter(), "picks-service"),
	}

	go func() {
		<-ctx.Done()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Error starting server")
		cancel()
	}

	log.Info().Msg("Server shut down")
}
