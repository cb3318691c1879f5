// Package referral HTTP-обработчики реферальной программы и премиум-доступа.
package referral

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
)

// Service описывает интерфейс реферальной программы.
type Service interface {
	Register(ctx context.Context, u models.User, referralCode string) (models.RegisterResult, error)
	RedeemCode(ctx context.Context, newUserID, code string) (models.RedeemResult, error)
	AssignCode(ctx context.Context, userID string) (string, error)
	CheckAccess(ctx context.Context, userID string) (models.AccessStatus, error)
	Stats(ctx context.Context, userID string) (models.ReferralStats, error)
}

// Handler обработчики реферальной программы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) logger(op string, r *http.Request) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := response.StatusFor(err)
	if status == http.StatusNotFound {
		msg = "user not found"
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}

// Register регистрирует пользователя и применяет код пригласившего.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger("handlers.referral.register", r)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Register(r.Context(), models.User{ID: req.ID, Name: req.Name, Role: req.Role}, req.ReferralCode)
	if err != nil {
		log.Error("failed to register user", slog.String("user_id", req.ID), sl.Err(err))
		h.fail(w, r, err, "could not register user")
		return
	}

	if res.Created {
		render.Status(r, http.StatusCreated)
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Redeem применяет реферальный код нового пользователя.
// Неизвестный код не ошибка запроса: success == false в данных.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	log := h.logger("handlers.referral.redeem", r)

	var req models.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.RedeemCode(r.Context(), req.UserID, req.Code)
	if err != nil {
		log.Error("failed to redeem code", slog.String("user_id", req.UserID), sl.Err(err))
		h.fail(w, r, err, "could not redeem code")
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}

// AssignCode выдает пользователю реферальный код.
func (h *Handler) AssignCode(w http.ResponseWriter, r *http.Request) {
	log := h.logger("handlers.referral.assign_code", r)

	userID := chi.URLParam(r, "userID")
	code, err := h.service.AssignCode(r.Context(), userID)
	if err != nil {
		log.Error("failed to assign code", slog.String("user_id", userID), sl.Err(err))
		h.fail(w, r, err, "could not assign referral code")
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"referral_code": code,
	}))
}

// Access состояние премиум-доступа.
func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	log := h.logger("handlers.referral.access", r)

	userID := chi.URLParam(r, "userID")
	access, err := h.service.CheckAccess(r.Context(), userID)
	if err != nil {
		log.Error("failed to check access", slog.String("user_id", userID), sl.Err(err))
		h.fail(w, r, err, "could not check access")
		return
	}

	render.JSON(w, r, response.OKWithData(access))
}

// Stats статистика приглашений.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logger("handlers.referral.stats", r)

	userID := chi.URLParam(r, "userID")
	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		log.Error("failed to load referral stats", slog.String("user_id", userID), sl.Err(err))
		h.fail(w, r, err, "could not load referral stats")
		return
	}

	render.JSON(w, r, response.OKWithData(stats))
}
