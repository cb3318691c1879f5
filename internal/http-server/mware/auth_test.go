package mware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/jwt"
)

type TokenParserMock struct {
	mock.Mock
}

func (m *TokenParserMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func TestJWTMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*TokenParserMock)
		wantStatusCode int
		wantUserID     string
	}{
		{
			name:           "нет заголовка",
			setupMock:      func(_ *TokenParserMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "не Bearer",
			authHeader:     "Basic abc",
			setupMock:      func(_ *TokenParserMock) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "невалидный токен",
			authHeader: "Bearer bad",
			setupMock: func(m *TokenParserMock) {
				m.On("ParseToken", "bad").Return(nil, errors.New("token is expired"))
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "валидный токен",
			authHeader: "Bearer good",
			setupMock: func(m *TokenParserMock) {
				m.On("ParseToken", "good").Return(&jwt.CustomClaims{UserID: "m1", Role: "manager"}, nil)
			},
			wantStatusCode: http.StatusOK,
			wantUserID:     "m1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(TokenParserMock)
			tt.setupMock(parser)

			var gotUserID, gotRole any
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = UserID(r.Context())
				gotRole = r.Context().Value(Role)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPut, "/lots/A/availability", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			JWTMiddleware(parser, log)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			if tt.wantUserID != "" {
				assert.Equal(t, tt.wantUserID, gotUserID)
				assert.Equal(t, "manager", gotRole)
			} else {
				assert.Nil(t, gotUserID)
				assert.Contains(t, w.Body.String(), `"status":"Error"`)
			}
			parser.AssertExpectations(t)
		})
	}
}

func TestJWTMiddleware_RealToken(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	maker := jwt.NewJWTMaker("secret", time.Hour)
	token, err := maker.GenerateToken("m1", "manager")
	assert.NoError(t, err)

	var got string
	h := JWTMiddleware(maker, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/managers/me/lot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", got)
}
