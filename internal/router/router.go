package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/config"
	adminHandler "github.com/suresportpicks/picks-service/internal/handlers/admin"
	authHandler "github.com/suresportpicks/picks-service/internal/handlers/auth"
	"github.com/suresportpicks/picks-service/internal/handlers/balance"
	healthHandler "github.com/suresportpicks/picks-service/internal/handlers/health"
	"github.com/suresportpicks/picks-service/internal/handlers/withdrawals"
	"github.com/suresportpicks/picks-service/internal/middlewares"
	"github.com/suresportpicks/picks-service/internal/redis"
)

type Router interface {
	SetHealthRouter(hh *healthHandler.HandlerHealth)
	SetAuthRouter(ha *authHandler.HandlerAuth)
	SetBalanceRouter(hb *balance.HandlerBalance)
	SetWithdrawalsRouter(hw *withdrawals.HandlerWithdrawals)
	SetAdminRouter(ha *adminHandler.HandlerAdmin)
	SetMiddlewares()
	GetRouter() *chi.Mux
}

type CustomRouter struct {
	router  *chi.Mux
	logger  *zerolog.Logger
	cfg     *config.Config
	session redis.MemStorage
}

// NewCustomRouter - constructor for CustomRouter.
func NewCustomRouter(cfg *config.Config, session redis.MemStorage, l *zerolog.Logger) *CustomRouter {
	return &CustomRouter{
		router:  chi.NewRouter(),
		logger:  l,
		cfg:     cfg,
		session: session,
	}
}

func (cr *CustomRouter) SetMiddlewares() {
	cr.router.Use(middlewares.LoggingMiddleware(cr.logger))
	cr.router.Use(middleware.Recoverer)
	cr.router.Use(middlewares.GzipMiddleware)
	cr.router.Use(middlewares.BrotliMiddleware)
	cr.router.Use(middlewares.GzipDecompressionMiddleware)
}

func (cr *CustomRouter) SetHealthRouter(hh *healthHandler.HandlerHealth) {
	cr.router.Route("/ping", func(router chi.Router) {
		router.With(middlewares.ContentMiddleware("application/text")).
			Get("/", hh.Ping)
	})
}

func (cr *CustomRouter) SetAuthRouter(ha *authHandler.HandlerAuth) {
	cr.router.Route("/api/user/register", func(router chi.Router) {
		router.With(middlewares.ContentMiddleware("application/json")).
			Post("/", ha.RegisterHandler)
	})
	cr.router.Route("/api/user/login", func(router chi.Router) {
		router.With(middlewares.ContentMiddleware("application/json")).
			Post("/", ha.LoginHandler)
	})
}

// SetWithdrawalsRouter must run before SetBalanceRouter so the more
// specific mount is registered first.
func (cr *CustomRouter) SetWithdrawalsRouter(hw *withdrawals.HandlerWithdrawals) {
	authMiddleware := middlewares.AuthMiddleware(cr.cfg.JwtSecret, cr.session)

	cr.router.Route("/api/user/withdrawals", func(router chi.Router) {
		router.Use(middlewares.ContentMiddleware("application/json"))
		router.Use(authMiddleware)

		router.Post("/", hw.Create)
		router.Get("/", hw.GetWithdrawals)
		router.Post("/{id}/vat-code", hw.SubmitVatCode)
		router.Post("/{id}/bot-code", hw.SubmitBotCode)
	})
}

func (cr *CustomRouter) SetBalanceRouter(hb *balance.HandlerBalance) {
	authMiddleware := middlewares.AuthMiddleware(cr.cfg.JwtSecret, cr.session)

	cr.router.Route("/api/user/", func(router chi.Router) {
		router.Use(middlewares.ContentMiddleware("application/json"))
		router.Use(authMiddleware)

		router.Get("/balance", hb.GetBalance)
		router.Get("/transactions", hb.GetTransactions)
		router.Post("/deposits", hb.MakeDeposit)
	})
}

func (cr *CustomRouter) SetAdminRouter(ha *adminHandler.HandlerAdmin) {
	authMiddleware := middlewares.AuthMiddleware(cr.cfg.JwtSecret, cr.session)

	cr.router.Route("/api/admin", func(router chi.Router) {
		router.Use(middlewares.ContentMiddleware("application/json"))
		router.Use(authMiddleware)
		router.Use(middlewares.AdminMiddleware())

		router.Get("/withdrawals", ha.ListWithdrawals)

		router.Put("/withdrawals/{id}/approve", ha.Approve)
		router.Put("/withdrawals/{id}/reject", ha.Reject)
		router.Put("/withdrawals/{id}/process", ha.MarkProcessing)
		router.Put("/withdrawals/{id}/complete", ha.MarkCompleted)
		router.Put("/withdrawals/{id}/require-verification", ha.RequireVerification)

		router.Put("/withdrawals/{id}/confirm-vat", ha.ConfirmVat)
		router.Put("/withdrawals/{id}/approve-user-vat", ha.ApproveUserVat)
		router.Put("/withdrawals/{id}/reject-vat", ha.RejectVat)

		router.Put("/withdrawals/{id}/confirm-bot", ha.ConfirmBot)
		router.Put("/withdrawals/{id}/approve-user-bot", ha.ApproveUserBot)
		router.Put("/withdrawals/{id}/reject-bot", ha.RejectBot)

		router.Put("/deposits/{id}/confirm", ha.ConfirmDeposit)
		router.Put("/deposits/{id}/reject", ha.RejectDeposit)
	})
}

func (cr *CustomRouter) GetRouter() *chi.Mux {
	return cr.router
}
