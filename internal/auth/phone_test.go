package auth_test

import (
	"testing"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/auth"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+79991234567", "+79991234567"},
		{"+7 (999) 123-45-67", "+79991234567"},
		{"89991234567", "+79991234567"},
		{"9991234567", "+79991234567"},
		{"79991234567", "+79991234567"},
		{"+380501234567", "+380501234567"},
		{"  +44 20 7946 0958 ", "+442079460958"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := auth.NormalizePhone(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, in := range []string{"", "123", "+7999abc4567", "++79991234567", "+1234567890123456", "phone"} {
		_, err := auth.NormalizePhone(in)
		assert.ErrorIs(t, err, apperrors.ErrValidation, in)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+7********67", auth.MaskPhone("+79991234567"))
	assert.Equal(t, "****", auth.MaskPhone("+799"))
}
