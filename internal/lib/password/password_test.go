package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "обычный пароль", password: "password123"},
		{name: "спецсимволы", password: "p@ssw0rd!@#$%^&*()"},
		{name: "длиннее 72 байт", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, CompareHash(hash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("secret-1")
	require.NoError(t, err)

	assert.NoError(t, CompareHash(hash, "secret-1"))

	err = CompareHash(hash, "secret-2")
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)

	assert.Error(t, CompareHash("", "secret-1"))
}
