package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/auth"
	"messenger/backend/internal/models"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedCode(code string) auth.CodeOption {
	return auth.WithCodeGenerator(func() (string, error) { return code, nil })
}

func TestCodeService_RequestThenVerifyOnce(t *testing.T) {
	store, _ := newEphemeral(t)
	users := new(MockUserRepository)
	svc := auth.NewCodeService(store, users, nil, true, zerolog.Nop(), fixedCode("123456"))
	ctx := context.Background()

	req, err := svc.RequestCode(ctx, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, 300, req.TTLSeconds)
	assert.Equal(t, "123456", req.DebugCode)
	assert.False(t, req.Delivered)
	assert.Equal(t, "+7********67", req.Phone)

	users.On("GetUserByPhone", mock.Anything, "+79991234567").Return(nil, storage.ErrNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := svc.VerifyCode(ctx, "+79991234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, "+79991234567", user.Phone)
	assert.NotEmpty(t, user.ID)

	_, err = svc.VerifyCode(ctx, "+79991234567", "123456")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
	assert.Equal(t, "Неверный код или он истёк", err.Error())

	users.AssertExpectations(t)
}

func TestCodeService_WrongCodeConsumesStoredCode(t *testing.T) {
	store, _ := newEphemeral(t)
	svc := auth.NewCodeService(store, new(MockUserRepository), nil, true, zerolog.Nop(), fixedCode("123456"))
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "89991234567")
	require.NoError(t, err)

	_, err = svc.VerifyCode(ctx, "+79991234567", "654321")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)

	_, err = svc.VerifyCode(ctx, "+79991234567", "123456")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode, "a failed attempt burns the code")
}

func TestCodeService_BadFormatDoesNotConsume(t *testing.T) {
	store, _ := newEphemeral(t)
	users := new(MockUserRepository)
	existing := &models.User{ID: "user-1", Phone: "+79991234567"}
	users.On("GetUserByPhone", mock.Anything, "+79991234567").Return(existing, nil)

	svc := auth.NewCodeService(store, users, nil, true, zerolog.Nop(), fixedCode("123456"))
	ctx := context.Background()
	_, err := svc.RequestCode(ctx, "+79991234567")
	require.NoError(t, err)

	for _, bad := range []string{"12", "123456789", "12ab56", ""} {
		_, err = svc.VerifyCode(ctx, "+79991234567", bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCodeFormat, bad)
	}

	user, err := svc.VerifyCode(ctx, "+79991234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestCodeService_MalformedPhone(t *testing.T) {
	store, _ := newEphemeral(t)
	svc := auth.NewCodeService(store, new(MockUserRepository), nil, true, zerolog.Nop())

	_, err := svc.RequestCode(context.Background(), "not a phone")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhone)

	_, err = svc.VerifyCode(context.Background(), "12", "123456")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhone)
}

func TestCodeService_DeliveredViaTelegramHidesDebugCode(t *testing.T) {
	store, _ := newEphemeral(t)
	ctx := context.Background()
	require.NoError(t, store.LinkTelegram(ctx, "+79991234567", 777, time.Hour))

	sender := &fakeSender{}
	svc := auth.NewCodeService(store, new(MockUserRepository), sender, true, zerolog.Nop(), fixedCode("123456"))

	req, err := svc.RequestCode(ctx, "+79991234567")
	require.NoError(t, err)
	assert.True(t, req.Delivered)
	assert.Empty(t, req.DebugCode)
	assert.Equal(t, "123456", sender.sent[777])
}

func TestCodeService_DeliveryFailureFallsThrough(t *testing.T) {
	store, _ := newEphemeral(t)
	ctx := context.Background()
	require.NoError(t, store.LinkTelegram(ctx, "+79991234567", 777, time.Hour))

	sender := &fakeSender{err: errors.New("bot blocked")}
	svc := auth.NewCodeService(store, new(MockUserRepository), sender, true, zerolog.Nop(), fixedCode("123456"))

	req, err := svc.RequestCode(ctx, "+79991234567")
	require.NoError(t, err)
	assert.False(t, req.Delivered)
	assert.Equal(t, "123456", req.DebugCode)
}

func TestCodeService_ProductionNeverExposesCode(t *testing.T) {
	store, _ := newEphemeral(t)
	svc := auth.NewCodeService(store, new(MockUserRepository), nil, false, zerolog.Nop())

	req, err := svc.RequestCode(context.Background(), "+79991234567")
	require.NoError(t, err)
	assert.False(t, req.Delivered)
	assert.Empty(t, req.DebugCode)
}

func TestCodeService_RandomCodeShape(t *testing.T) {
	store, mr := newEphemeral(t)
	svc := auth.NewCodeService(store, new(MockUserRepository), nil, true, zerolog.Nop())

	req, err := svc.RequestCode(context.Background(), "+79991234567")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{6}$`, req.DebugCode)

	stored, err := mr.Get("auth:code:+79991234567")
	require.NoError(t, err)
	assert.Equal(t, req.DebugCode, stored)
}

func TestCodeService_ConcurrentRegistrationRace(t *testing.T) {
	store, _ := newEphemeral(t)
	users := new(MockUserRepository)
	winner := &models.User{ID: "user-w", Phone: "+79991234567"}

	users.On("GetUserByPhone", mock.Anything, "+79991234567").Return(nil, storage.ErrNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.Anything).Return(storage.ErrDuplicate).Once()
	users.On("GetUserByPhone", mock.Anything, "+79991234567").Return(winner, nil).Once()

	svc := auth.NewCodeService(store, users, nil, true, zerolog.Nop(), fixedCode("1234"))
	ctx := context.Background()
	_, err := svc.RequestCode(ctx, "+79991234567")
	require.NoError(t, err)

	user, err := svc.VerifyCode(ctx, "+79991234567", "1234")
	require.NoError(t, err)
	assert.Equal(t, "user-w", user.ID)
	users.AssertExpectations(t)
}
