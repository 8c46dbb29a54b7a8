package auth_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
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

func newQrService(t *testing.T) (*auth.QrService, *MockUserRepository, *auth.TokenIssuer) {
	t.Helper()
	store, _ := newEphemeral(t)
	users := new(MockUserRepository)
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	return auth.NewQrService(store, users, tokens, zerolog.Nop()), users, tokens
}

func TestQrService_FullHandshake(t *testing.T) {
	svc, users, tokens := newQrService(t)
	ctx := context.Background()
	users.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)

	session, err := svc.RequestSession(ctx)
	require.NoError(t, err)
	assert.Len(t, session.Code, 6)
	assert.Equal(t, 300, session.TTLSeconds)
	assert.Contains(t, session.Payload, session.Code)
	png, err := base64.StdEncoding.DecodeString(session.Image)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	poll, err := svc.PollSession(ctx, session.Code)
	require.NoError(t, err)
	assert.Equal(t, auth.QrStatusPending, poll.Status)
	assert.Empty(t, poll.Token)

	require.NoError(t, svc.ConfirmSession(ctx, session.Code, "user-1"))

	poll, err = svc.PollSession(ctx, session.Code)
	require.NoError(t, err)
	assert.Equal(t, auth.QrStatusReady, poll.Status)
	require.NotNil(t, poll.User)
	assert.Equal(t, "user-1", poll.User.ID)

	userID, err := tokens.Verify(poll.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	poll, err = svc.PollSession(ctx, session.Code)
	require.NoError(t, err)
	assert.Equal(t, auth.QrStatusExpired, poll.Status, "second redeem must report expired")
}

func TestQrService_CodeIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newQrService(t)
	ctx := context.Background()

	session, err := svc.RequestSession(ctx)
	require.NoError(t, err)

	poll, err := svc.PollSession(ctx, "  "+strings.ToLower(session.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, auth.QrStatusPending, poll.Status)
}

func TestQrService_InvalidCodeFormat(t *testing.T) {
	svc, _, _ := newQrService(t)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "ABC10O", "AB-CDE"} {
		_, err := svc.PollSession(context.Background(), bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQrCode, bad)

		err = svc.ConfirmSession(context.Background(), bad, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
}

func TestQrService_ConfirmUnknownSession(t *testing.T) {
	svc, _, _ := newQrService(t)

	err := svc.ConfirmSession(context.Background(), "ABCDEF", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrQrNotFoundOrExpired)

	poll, err := svc.PollSession(context.Background(), "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, auth.QrStatusExpired, poll.Status)
}

func TestQrService_ConcurrentConfirm(t *testing.T) {
	svc, users, tokens := newQrService(t)
	ctx := context.Background()
	users.On("GetUserByID", mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound)

	session, err := svc.RequestSession(ctx)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		errs    = make([]error, 2)
		callers = []string{"alice", "bob"}
	)
	for i, u := range callers {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			errs[i] = svc.ConfirmSession(ctx, session.Code, u)
		}(i, u)
	}
	wg.Wait()

	var winner string
	successes := 0
	for i, err := range errs {
		if err == nil {
			successes++
			winner = callers[i]
			continue
		}
		assert.True(t, errors.Is(err, apperrors.ErrQrAlreadyConfirmed))
	}
	require.Equal(t, 1, successes)

	poll, err := svc.PollSession(ctx, session.Code)
	require.NoError(t, err)
	require.Equal(t, auth.QrStatusReady, poll.Status)
	assert.Nil(t, poll.User)

	userID, err := tokens.Verify(poll.Token)
	require.NoError(t, err)
	assert.Equal(t, winner, userID)
}

func TestNormalizeQrCode(t *testing.T) {
	code, err := auth.NormalizeQrCode(" abc234 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC234", code)
}

