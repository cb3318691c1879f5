package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	msg := "something went wrong"
	resp := Error(msg)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, msg, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Name string `validate:"required"`
		Code string `validate:"alphanum"`
	}

	v := validator.New()
	err := v.Struct(TestStruct{Code: "!!!"})
	assert.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Name is a required field")
	assert.Contains(t, resp.Error, "field Code can contain only numbers and letters")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("op: %w", models.ErrLotNotFound), want: http.StatusNotFound},
		{err: models.ErrUserNotFound, want: http.StatusNotFound},
		{err: models.ErrAlreadySubscribed, want: http.StatusConflict},
		{err: fmt.Errorf("op: %w", models.ErrManagerHasLot), want: http.StatusConflict},
		{err: models.ErrUserExists, want: http.StatusConflict},
		{err: models.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: fmt.Errorf("op: %w", models.ErrForbidden), want: http.StatusForbidden},
		{err: models.ErrPasswordRequired, want: http.StatusBadRequest},
		{
			err:  fmt.Errorf("op: %w", &models.StorageError{Op: "storage.GetLot", Err: errors.New("conn reset")}),
			want: http.StatusServiceUnavailable,
		},
		{err: errors.New("unexpected"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
