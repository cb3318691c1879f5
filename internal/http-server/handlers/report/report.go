// Package report HTTP-обработчики отчетов водителей о свободных местах.
package report

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

// Service описывает интерфейс агрегатора отчетов.
type Service interface {
	Submit(ctx context.Context, lotID, reporterID string) (models.SubmitResult, error)
	ListDriverReports(ctx context.Context, reporterID string) ([]models.DriverReport, error)
}

// SubmitHandler принимает отчет водителя.
type SubmitHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewSubmit создает SubmitHandler.
func NewSubmit(log *slog.Logger, service Service) *SubmitHandler {
	return &SubmitHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ReportRequest
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

	res, err := h.service.Submit(r.Context(), req.LotID, req.ReporterID)
	if err != nil {
		log.Error("failed to submit report", slog.String("lot_id", req.LotID), sl.Err(err))
		status := response.StatusFor(err)
		msg := "could not submit report"
		if status == http.StatusNotFound {
			msg = "lot not found"
		}
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("report submitted", slog.String("lot_id", req.LotID), slog.String("outcome", string(res.Outcome)))
	render.JSON(w, r, response.OKWithData(res))
}

// ListHandler необработанные отчеты водителя.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	driverID := chi.URLParam(r, "driverID")
	reports, err := h.service.ListDriverReports(r.Context(), driverID)
	if err != nil {
		log.Error("failed to list reports", slog.String("driver_id", driverID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list reports"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"reports": reports,
	}))
}
