// Package manager HTTP-обработчики регистрации и входа менеджеров парковок.
package manager

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-assistant/internal/http-server/response"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Service описывает интерфейс сервиса менеджеров.
type Service interface {
	Register(ctx context.Context, id, name, password string) (*models.User, error)
	Login(ctx context.Context, id, password string) (string, error)
}

// Handler обработчики менеджеров.
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

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

// Register
// @Summary Регистрация менеджера парковки
// @Tags managers
// @Accept json
// @Produce json
// @Param manager body models.ManagerRequest true "Идентификатор, имя и пароль"
// @Success 201 {object} response.Response "Менеджер создан"
// @Failure 409 {object} response.Response "Пользователь уже есть"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /managers [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.manager.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ManagerRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req.ID, req.Name, req.Password)
	if err != nil {
		log.Error("failed to register manager", slog.String("user_id", req.ID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not register manager"
		if status == http.StatusConflict {
			msg = "user already registered"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(user))
}

// Login
// @Summary Вход менеджера
// @Description Возвращает JWT для заголовка Authorization: Bearer <token>
// @Tags managers
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Идентификатор и пароль"
// @Success 200 {object} map[string]interface{} "token"
// @Failure 401 {object} response.Response "Неверный идентификатор или пароль"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /managers/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.manager.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	token, err := h.service.Login(r.Context(), req.ID, req.Password)
	if err != nil {
		log.Error("manager login failed", slog.String("user_id", req.ID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not log in"
		if status == http.StatusUnauthorized {
			msg = "incorrect id or password"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("manager logged in", slog.String("user_id", req.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
	}))
}
