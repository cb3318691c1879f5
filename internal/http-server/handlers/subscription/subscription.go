// Package subscription HTTP-обработчики подписок на уведомления.
//
// Создание подписки доступно только с премиум-доступом: без него в ответе
// 402 и сообщение с реферальным кодом пользователя.
package subscription

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-assistant/internal/http-server/response"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
	"github.com/magabrotheeeer/parking-assistant/internal/services/gate"
)

// Service описывает интерфейс индекса подписок.
type Service interface {
	Subscribe(ctx context.Context, driverID string, lotID *string) (models.SubscribeResult, error)
	Unsubscribe(ctx context.Context, driverID string, lotID *string) (bool, error)
	UnsubscribeAll(ctx context.Context, driverID string) (int, error)
	ListActive(ctx context.Context, driverID string) ([]*models.Subscription, error)
}

func requestLogger(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate) (models.SubscriptionRequest, bool) {
	var req models.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return req, false
	}
	if err := v.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return req, false
	}
	if req.LotID != nil && *req.LotID == "" {
		req.LotID = nil
	}
	return req, true
}

// CreateHandler подписка на парковку или на все парковки.
type CreateHandler struct {
	log      *slog.Logger
	service  Service
	gate     *gate.Gate
	validate *validator.Validate
}

// NewCreate создает CreateHandler.
func NewCreate(log *slog.Logger, service Service, g *gate.Gate) *CreateHandler {
	return &CreateHandler{
		log:      log,
		service:  service,
		gate:     g,
		validate: validator.New(),
	}
}

func (h *CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.subscription.create", r)

	req, ok := decodeRequest(w, r, log, h.validate)
	if !ok {
		return
	}

	out, err := gate.Guard(r.Context(), h.gate, req.DriverID, func(ctx context.Context) (models.SubscribeResult, error) {
		return h.service.Subscribe(ctx, req.DriverID, req.LotID)
	})
	if err != nil {
		log.Error("failed to subscribe", slog.String("driver_id", req.DriverID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not create subscription"
		if status == http.StatusNotFound {
			msg = "lot not found"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	if !out.Allowed() {
		log.Info("subscription requires premium", slog.String("driver_id", req.DriverID))
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"paywall": out.Paywall,
		}))
		return
	}

	log.Info("subscription processed",
		slog.String("driver_id", req.DriverID), slog.Bool("already_subscribed", out.Result.AlreadySubscribed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription":       out.Result.Subscription,
		"already_subscribed": out.Result.AlreadySubscribed,
		"days_remaining":     out.Access.DaysRemaining,
	}))
}

// RemoveHandler отписка от парковки или от подписки на все парковки.
type RemoveHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewRemove создает RemoveHandler.
func NewRemove(log *slog.Logger, service Service) *RemoveHandler {
	return &RemoveHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *RemoveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.subscription.remove", r)

	req, ok := decodeRequest(w, r, log, h.validate)
	if !ok {
		return
	}

	removed, err := h.service.Unsubscribe(r.Context(), req.DriverID, req.LotID)
	if err != nil {
		log.Error("failed to unsubscribe", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove subscription"))
		return
	}
	if !removed {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	}

	render.JSON(w, r, response.OK())
}

// RemoveAllHandler снимает все подписки водителя.
type RemoveAllHandler struct {
	log     *slog.Logger
	service Service
}

// NewRemoveAll создает RemoveAllHandler.
func NewRemoveAll(log *slog.Logger, service Service) *RemoveAllHandler {
	return &RemoveAllHandler{log: log, service: service}
}

func (h *RemoveAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.subscription.remove_all", r)

	driverID := chi.URLParam(r, "driverID")
	n, err := h.service.UnsubscribeAll(r.Context(), driverID)
	if err != nil {
		log.Error("failed to unsubscribe all", slog.String("driver_id", driverID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove subscriptions"))
		return
	}

	log.Info("subscriptions removed", slog.String("driver_id", driverID), slog.Int("count", n))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"removed": n,
	}))
}

// ListHandler активные подписки водителя.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.subscription.list", r)

	driverID := chi.URLParam(r, "driverID")
	subs, err := h.service.ListActive(r.Context(), driverID)
	if err != nil {
		log.Error("failed to list subscriptions", slog.String("driver_id", driverID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscriptions"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscriptions": subs,
	}))
}
