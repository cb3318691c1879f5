// Package lot HTTP-обработчики парковок. Чтение открыто всем, изменения
// доступны только менеджеру своей парковки.
package lot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-assistant/internal/http-server/mware"
	"github.com/magabrotheeeer/parking-assistant/internal/http-server/response"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Reader чтение парковок.
type Reader interface {
	Get(ctx context.Context, id string) (*models.Lot, error)
	FindByName(ctx context.Context, name string) (*models.Lot, error)
	FindAvailable(ctx context.Context) ([]*models.Lot, error)
}

// Manager изменения парковки от имени менеджера.
type Manager interface {
	CreateLot(ctx context.Context, managerID string, lot models.Lot) (*models.Lot, error)
	ManagedLot(ctx context.Context, managerID string) (*models.Lot, error)
	UpdateAvailability(ctx context.Context, managerID, lotID, descriptor, label string) (*models.Lot, int, error)
	SetHasSpots(ctx context.Context, managerID, lotID string, hasSpots bool) (*models.Lot, int, error)
}

func requestLogger(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := response.StatusFor(err)
	switch status {
	case http.StatusNotFound:
		msg = "lot not found"
	case http.StatusForbidden:
		msg = "lot is managed by another manager"
	case http.StatusConflict:
		msg = "manager already has a lot"
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}

func decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

// GetHandler карточка парковки.
type GetHandler struct {
	log     *slog.Logger
	service Reader
}

// NewGet создает GetHandler.
func NewGet(log *slog.Logger, service Reader) *GetHandler {
	return &GetHandler{log: log, service: service}
}

// ServeHTTP
// @Summary Карточка парковки
// @Tags lots
// @Produce json
// @Param lotID path string true "Идентификатор парковки"
// @Success 200 {object} response.Response "Парковка"
// @Failure 404 {object} response.Response "Парковка не найдена"
// @Router /lots/{lotID} [get]
func (h *GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.get", r)
	lotID := chi.URLParam(r, "lotID")

	lot, err := h.service.Get(r.Context(), lotID)
	if err != nil {
		log.Error("failed to get lot", slog.String("lot_id", lotID), sl.Err(err))
		fail(w, r, err, "could not get lot")
		return
	}
	render.JSON(w, r, response.OKWithData(lot))
}

// SearchHandler поиск парковки по названию.
type SearchHandler struct {
	log     *slog.Logger
	service Reader
}

// NewSearch создает SearchHandler.
func NewSearch(log *slog.Logger, service Reader) *SearchHandler {
	return &SearchHandler{log: log, service: service}
}

// ServeHTTP
// @Summary Поиск парковки по названию
// @Description Регистр названия не важен
// @Tags lots
// @Produce json
// @Param name query string true "Название парковки"
// @Success 200 {object} response.Response "Парковка"
// @Failure 400 {object} response.Response "Не задано название"
// @Failure 404 {object} response.Response "Парковка не найдена"
// @Router /lots [get]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.search", r)

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter name is required"))
		return
	}

	lot, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		log.Error("failed to find lot", slog.String("name", name), sl.Err(err))
		fail(w, r, err, "could not find lot")
		return
	}
	render.JSON(w, r, response.OKWithData(lot))
}

// AvailableHandler парковки со свободными местами.
type AvailableHandler struct {
	log     *slog.Logger
	service Reader
}

// NewAvailable создает AvailableHandler.
func NewAvailable(log *slog.Logger, service Reader) *AvailableHandler {
	return &AvailableHandler{log: log, service: service}
}

// ServeHTTP
// @Summary Парковки со свободными местами
// @Tags lots
// @Produce json
// @Success 200 {object} map[string]interface{} "lots: парковки, свежие первыми"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /lots/available [get]
func (h *AvailableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.available", r)

	lots, err := h.service.FindAvailable(r.Context())
	if err != nil {
		log.Error("failed to list lots", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list lots"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"lots": lots,
	}))
}

// CreateHandler добавление парковки менеджером.
type CreateHandler struct {
	log      *slog.Logger
	service  Manager
	validate *validator.Validate
}

// NewCreate создает CreateHandler.
func NewCreate(log *slog.Logger, service Manager) *CreateHandler {
	return &CreateHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP
// @Summary Добавить свою парковку
// @Description Парковка закрепляется за менеджером из токена, у менеджера одна парковка
// @Tags lots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lot body models.LotRequest true "Парковка"
// @Success 201 {object} response.Response "Парковка создана"
// @Failure 401 {object} response.Response "Нет токена"
// @Failure 403 {object} response.Response "Не менеджер"
// @Failure 409 {object} response.Response "Парковка уже есть"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /lots [post]
func (h *CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.create", r)
	managerID := mware.UserID(r.Context())

	var req models.LotRequest
	if !decode(w, r, log, h.validate, &req) {
		return
	}

	lot, err := h.service.CreateLot(r.Context(), managerID, models.Lot{
		ID:             req.ID,
		Name:           req.Name,
		Address:        req.Address,
		Capacity:       req.Capacity,
		FreeSpots:      req.FreeSpots,
		OccupancyLabel: req.OccupancyLabel,
	})
	if err != nil {
		log.Error("failed to create lot", slog.String("user_id", managerID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not create lot"
		switch status {
		case http.StatusForbidden:
			msg = "only managers can add lots"
		case http.StatusConflict:
			msg = "manager already has a lot"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(lot))
}

// MineHandler парковка менеджера.
type MineHandler struct {
	log     *slog.Logger
	service Manager
}

// NewMine создает MineHandler.
func NewMine(log *slog.Logger, service Manager) *MineHandler {
	return &MineHandler{log: log, service: service}
}

// ServeHTTP
// @Summary Моя парковка
// @Tags managers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "Парковка менеджера"
// @Failure 403 {object} response.Response "Не менеджер"
// @Failure 404 {object} response.Response "Парковка не закреплена"
// @Router /managers/me/lot [get]
func (h *MineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.mine", r)
	managerID := mware.UserID(r.Context())

	lot, err := h.service.ManagedLot(r.Context(), managerID)
	if err != nil {
		log.Error("failed to get managed lot", slog.String("user_id", managerID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not get lot"
		switch status {
		case http.StatusNotFound:
			msg = "no lot assigned"
		case http.StatusForbidden:
			msg = "only managers have lots"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}
	render.JSON(w, r, response.OKWithData(lot))
}

// UpdateHandler обновление мест менеджером парковки.
type UpdateHandler struct {
	log      *slog.Logger
	service  Manager
	validate *validator.Validate
}

// NewUpdate создает UpdateHandler.
func NewUpdate(log *slog.Logger, service Manager) *UpdateHandler {
	return &UpdateHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP
// @Summary Обновить свободные места
// @Description Наличие мест и подпись выводятся из описания. Подписчики уведомляются, если места есть
// @Tags lots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lotID path string true "Идентификатор парковки"
// @Param availability body models.AvailabilityRequest true "Описание мест"
// @Success 200 {object} map[string]interface{} "lot и notifications_sent"
// @Failure 401 {object} response.Response "Нет токена"
// @Failure 403 {object} response.Response "Чужая парковка"
// @Failure 404 {object} response.Response "Парковка не найдена"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /lots/{lotID}/availability [put]
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.update", r)
	lotID := chi.URLParam(r, "lotID")
	managerID := mware.UserID(r.Context())

	var req models.AvailabilityRequest
	if !decode(w, r, log, h.validate, &req) {
		return
	}

	lot, sent, err := h.service.UpdateAvailability(r.Context(), managerID, lotID, req.FreeSpots, req.OccupancyLabel)
	if err != nil {
		log.Error("failed to update lot", slog.String("lot_id", lotID), slog.String("user_id", managerID), sl.Err(err))
		fail(w, r, err, "could not update lot")
		return
	}

	log.Info("lot availability updated", slog.String("lot_id", lotID), slog.Int("notifications_sent", sent))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"lot":                lot,
		"notifications_sent": sent,
	}))
}

// StateHandler переключение наличия мест без точного числа.
type StateHandler struct {
	log      *slog.Logger
	service  Manager
	validate *validator.Validate
}

// NewState создает StateHandler.
func NewState(log *slog.Logger, service Manager) *StateHandler {
	return &StateHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP
// @Summary Есть места или нет
// @Description has_spots=true ставит "1+", false ставит "0"
// @Tags lots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lotID path string true "Идентификатор парковки"
// @Param state body models.LotStateRequest true "Наличие мест"
// @Success 200 {object} map[string]interface{} "lot и notifications_sent"
// @Failure 403 {object} response.Response "Чужая парковка"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Router /lots/{lotID}/state [put]
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, "handlers.lot.state", r)
	lotID := chi.URLParam(r, "lotID")
	managerID := mware.UserID(r.Context())

	var req models.LotStateRequest
	if !decode(w, r, log, h.validate, &req) {
		return
	}

	lot, sent, err := h.service.SetHasSpots(r.Context(), managerID, lotID, *req.HasSpots)
	if err != nil {
		log.Error("failed to switch lot state", slog.String("lot_id", lotID), slog.String("user_id", managerID), sl.Err(err))
		fail(w, r, err, "could not update lot")
		return
	}

	log.Info("lot state switched", slog.String("lot_id", lotID), slog.Bool("has_spots", *req.HasSpots))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"lot":                lot,
		"notifications_sent": sent,
	}))
}
