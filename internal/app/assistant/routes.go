package assistant

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/parking-assistant/docs"
	lothandlers "github.com/magabrotheeeer/parking-assistant/internal/http-server/handlers/lot"
	managerhandlers "github.com/magabrotheeeer/parking-assistant/internal/http-server/handlers/manager"
	referralhandlers "github.com/magabrotheeeer/parking-assistant/internal/http-server/handlers/referral"
	reporthandlers "github.com/magabrotheeeer/parking-assistant/internal/http-server/handlers/report"
	subhandlers "github.com/magabrotheeeer/parking-assistant/internal/http-server/handlers/subscription"
	"github.com/magabrotheeeer/parking-assistant/internal/http-server/mware"
	"github.com/magabrotheeeer/parking-assistant/internal/services/gate"
)

// Services сервисы, которые обслуживает HTTP API.
type Services struct {
	Reports       reporthandlers.Service
	Subscriptions subhandlers.Service
	Referrals     referralhandlers.Service
	Lots          lothandlers.Reader
	Managers      Managers
	Gate          *gate.Gate
	Tokens        mware.TokenParser
}

// Managers вход менеджеров и управление их парковками.
type Managers interface {
	managerhandlers.Service
	lothandlers.Manager
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, rateLimit float64, rateBurst int) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Group(func(r chi.Router) {
		r.Use(mware.RateLimitMiddleware(rateLimit, rateBurst, logger))

		r.Post("/reports", reporthandlers.NewSubmit(logger, svc.Reports).ServeHTTP)
		r.Get("/drivers/{driverID}/reports", reporthandlers.NewList(logger, svc.Reports).ServeHTTP)

		r.Post("/subscriptions", subhandlers.NewCreate(logger, svc.Subscriptions, svc.Gate).ServeHTTP)
		r.Delete("/subscriptions", subhandlers.NewRemove(logger, svc.Subscriptions).ServeHTTP)
		r.Get("/drivers/{driverID}/subscriptions", subhandlers.NewList(logger, svc.Subscriptions).ServeHTTP)
		r.Delete("/drivers/{driverID}/subscriptions", subhandlers.NewRemoveAll(logger, svc.Subscriptions).ServeHTTP)

		referrals := referralhandlers.New(logger, svc.Referrals)
		r.Post("/users", referrals.Register)
		r.Post("/referrals/redeem", referrals.Redeem)
		r.Post("/users/{userID}/referral-code", referrals.AssignCode)
		r.Get("/users/{userID}/access", referrals.Access)
		r.Get("/users/{userID}/referral-stats", referrals.Stats)

		r.Get("/lots", lothandlers.NewSearch(logger, svc.Lots).ServeHTTP)
		r.Get("/lots/available", lothandlers.NewAvailable(logger, svc.Lots).ServeHTTP)
		r.Get("/lots/{lotID}", lothandlers.NewGet(logger, svc.Lots).ServeHTTP)

		managers := managerhandlers.New(logger, svc.Managers)
		r.Post("/managers", managers.Register)
		r.Post("/managers/login", managers.Login)

		r.Group(func(r chi.Router) {
			r.Use(mware.JWTMiddleware(svc.Tokens, logger))

			r.Get("/managers/me/lot", lothandlers.NewMine(logger, svc.Managers).ServeHTTP)
			r.Post("/lots", lothandlers.NewCreate(logger, svc.Managers).ServeHTTP)
			r.Put("/lots/{lotID}/availability", lothandlers.NewUpdate(logger, svc.Managers).ServeHTTP)
			r.Put("/lots/{lotID}/state", lothandlers.NewState(logger, svc.Managers).ServeHTTP)
		})
	})

	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", promhttp.Handler())
}
