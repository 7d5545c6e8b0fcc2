package http

import (
	"net/http"

	"github.com/go-auth-stepup/internal/application/account"
	"github.com/go-auth-stepup/internal/application/authz"
	"github.com/go-auth-stepup/internal/application/stepup"
	"github.com/go-auth-stepup/internal/application/twofactor"
	"github.com/go-auth-stepup/internal/config"
	"github.com/go-auth-stepup/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-stepup/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-access-token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to credential-sensitive
	// public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	resolver := authz.NewResolver(deps.TokenProvider)
	accountSvc := account.NewService(deps.UserRepo, deps.TokenProvider, deps.AlertSender)
	twoFactorSvc := twofactor.NewService(deps.UserRepo, deps.AlertSender, cfg.TOTPIssuer)
	brokerSvc := stepup.NewService(deps.UserRepo, deps.HandleRepo, deps.Gateway, cfg.VerifyHandleTTL)

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(accountSvc, twoFactorSvc, deps.UserRepo)
	twoFactorH := handler.NewTwoFactorHandler(twoFactorSvc, resolver, deps.UserRepo)
	stepUpH := handler.NewStepUpHandler(brokerSvc, accountSvc, resolver, deps.UserRepo)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		// Public, rate-limited: credentials or one-time codes in flight.
		r.With(sensitiveRL.Limit).Post("/users", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/login", accountH.Login)
		r.With(sensitiveRL.Limit).Post("/users/{user}/password", accountH.ChangePassword)
		r.With(sensitiveRL.Limit).Post("/password-reset/request", stepUpH.ResetRequest)
		r.With(sensitiveRL.Limit).Post("/password-reset/confirm", stepUpH.ResetConfirm)

		// Token-guarded self-service; authorization is resolved per
		// request inside the handlers.
		r.Post("/users/{user}/2fa", twoFactorH.Enable)
		r.Delete("/users/{user}/2fa", twoFactorH.Disable)
		r.With(sensitiveRL.Limit).Post("/users/{user}/verifications/{relation}", stepUpH.RequestCode)
		r.With(sensitiveRL.Limit).Post("/users/{user}/verifications/{relation}/check", stepUpH.CheckCode)
	})

	return r
}
