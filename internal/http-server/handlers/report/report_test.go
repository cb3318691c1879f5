package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, lotID, reporterID string) (models.SubmitResult, error) {
	args := m.Called(ctx, lotID, reporterID)
	return args.Get(0).(models.SubmitResult), args.Error(1)
}

func (m *MockService) ListDriverReports(ctx context.Context, reporterID string) ([]models.DriverReport, error) {
	args := m.Called(ctx, reporterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DriverReport), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSubmitHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "отчет принят",
			body: `{"lot_id":"A","reporter_id":"d1"}`,
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "A", "d1").
					Return(models.SubmitResult{Outcome: models.OutcomePending, Count: 1, Remaining: 4}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"outcome":"pending","count":1,"remaining":4`,
		},
		{
			name:           "некорректный JSON",
			body:           `{`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "нет водителя",
			body:           `{"lot_id":"A"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field ReporterID is a required field`,
		},
		{
			name: "парковка не найдена",
			body: `{"lot_id":"Z","reporter_id":"d1"}`,
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "Z", "d1").Return(models.SubmitResult{}, models.ErrLotNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"lot not found"}`,
		},
		{
			name: "ошибка хранилища",
			body: `{"lot_id":"A","reporter_id":"d1"}`,
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "A", "d1").Return(models.SubmitResult{}, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not submit report"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			NewSubmit(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestListHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("ListDriverReports", mock.Anything, "d1").Return([]models.DriverReport{
		{Lot: &models.Lot{ID: "A", Name: "Central"}, LiveCount: 3},
	}, nil)

	r := chi.NewRouter()
	r.Get("/drivers/{driverID}/reports", NewList(newNoopLogger(), svc).ServeHTTP)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drivers/d1/reports", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"live_count":3`)
	svc.AssertExpectations(t)
}
