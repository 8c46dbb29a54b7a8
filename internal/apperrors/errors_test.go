package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"messenger/backend/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsToKind(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", apperrors.ErrInvalidOrExpiredCode)

	assert.True(t, errors.Is(wrapped, apperrors.ErrInvalidOrExpiredCode))
	assert.True(t, errors.Is(wrapped, apperrors.ErrValidation))
	assert.False(t, errors.Is(wrapped, apperrors.ErrNotFound))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Неверный код или он истёк",
		apperrors.Message(fmt.Errorf("x: %w", apperrors.ErrInvalidOrExpiredCode), "fallback"))
	assert.Equal(t, "fallback", apperrors.Message(errors.New("db down"), "fallback"))
}
