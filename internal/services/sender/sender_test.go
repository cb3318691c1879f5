package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendText(ctx context.Context, to, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestSenderService_SendLotAvailable(t *testing.T) {
	valid := models.Notification{
		DriverID: "573001112233",
		LotID:    "lot-1",
		Kind:     models.KindLotAvailable,
		Text:     "Spots available at Central!",
	}
	providerErr := errors.New("provider down")

	tests := []struct {
		name       string
		body       []byte
		setupMocks func(m *MockTransport)
		wantErr    error
	}{
		{
			name: "успешная отправка",
			body: mustJSON(t, valid),
			setupMocks: func(m *MockTransport) {
				m.On("SendText", mock.Anything, valid.DriverID, valid.Text).Return(nil).Once()
			},
		},
		{
			name:       "битый JSON",
			body:       []byte("{not json"),
			setupMocks: func(_ *MockTransport) {},
		},
		{
			name:       "нет получателя",
			body:       mustJSON(t, models.Notification{Text: "hi"}),
			setupMocks: func(_ *MockTransport) {},
		},
		{
			name: "ошибка провайдера",
			body: mustJSON(t, valid),
			setupMocks: func(m *MockTransport) {
				m.On("SendText", mock.Anything, valid.DriverID, valid.Text).Return(providerErr).Once()
			},
			wantErr: providerErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)
			svc := NewSenderService(transport, newNoopLogger())

			err := svc.Handler(context.Background())(tt.body)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}
