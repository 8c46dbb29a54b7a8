package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/config"
	"messenger/backend/internal/metrics"
	"messenger/backend/internal/models"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
	"rsc.io/qr"
)

const (
	QrStatusExpired = "expired"
	QrStatusPending = "pending"
	QrStatusReady   = "ready"

	qrCreateAttempts = 5
)

type QrSession struct {
	Code       string `json:"code"`
	TTLSeconds int    `json:"ttlSeconds"`
	Payload    string `json:"payload"`
	Image      string `json:"qrImage,omitempty"` // base64 PNG
}

type QrPoll struct {
	Status string       `json:"status"`
	Token  string       `json:"token,omitempty"`
	User   *models.User `json:"user,omitempty"`
}

type sessionIssuer interface {
	Issue(userID string) (string, error)
}

// QrService runs the cross-device login handshake: the new device shows a
// code, an authenticated device confirms it, the new device redeems it.
type QrService struct {
	store   storage.Ephemeral
	users   UserRepository
	tokens  sessionIssuer
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewQrService(store storage.Ephemeral, users UserRepository, tokens *TokenIssuer, log zerolog.Logger) *QrService {
	return &QrService{
		store:   store,
		users:   users,
		tokens:  tokens,
		log:     log.With().Str("component", "auth_qr").Logger(),
		metrics: metrics.Default(),
	}
}

func (s *QrService) RequestSession(ctx context.Context) (*QrSession, error) {
	for attempt := 0; attempt < qrCreateAttempts; attempt++ {
		code, err := randomQrCode()
		if err != nil {
			return nil, fmt.Errorf("generate qr code: %w", err)
		}

		created, err := s.store.CreateQrSession(ctx, code, config.QrTTL)
		if err != nil {
			return nil, fmt.Errorf("create qr session: %w", err)
		}
		if !created {
			continue
		}

		session := &QrSession{
			Code:       code,
			TTLSeconds: int(config.QrTTL.Seconds()),
			Payload:    config.QrPayloadPrefix + code,
		}
		if img, err := qr.Encode(session.Payload, qr.L); err == nil {
			session.Image = base64.StdEncoding.EncodeToString(img.PNG())
		} else {
			s.log.Warn().Err(err).Msg("failed to render qr image")
		}

		s.metrics.QrSessions.WithLabelValues("created").Inc()
		return session, nil
	}
	return nil, errors.New("create qr session: code space exhausted")
}

// PollSession reports the session state. A ready session is deleted in the
// same step, so only one poll can ever receive its token.
func (s *QrService) PollSession(ctx context.Context, rawCode string) (*QrPoll, error) {
	code, err := NormalizeQrCode(rawCode)
	if err != nil {
		return nil, err
	}

	state, userID, err := s.store.RedeemQrSession(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("redeem qr session: %w", err)
	}

	switch state {
	case storage.QrPending:
		return &QrPoll{Status: QrStatusPending}, nil
	case storage.QrReady:
	default:
		return &QrPoll{Status: QrStatusExpired}, nil
	}

	// Сесію вже видалено: при помилці підпису вхід треба почати заново.
	token, err := s.tokens.Issue(userID)
	if err != nil {
		s.metrics.QrSessions.WithLabelValues("lost").Inc()
		s.log.Error().Err(err).Str("user_id", userID).Msg("qr session redeemed but token was not issued")
		return nil, err
	}
	s.metrics.QrSessions.WithLabelValues("redeemed").Inc()

	poll := &QrPoll{Status: QrStatusReady, Token: token}
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		poll.User = user
	} else {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("qr redeemed for unknown user")
	}
	return poll, nil
}

// ConfirmSession binds a pending session to userID. Exactly one concurrent
// confirm wins; the rest get ErrQrAlreadyConfirmed.
func (s *QrService) ConfirmSession(ctx context.Context, rawCode, userID string) error {
	code, err := NormalizeQrCode(rawCode)
	if err != nil {
		return err
	}

	res, err := s.store.ConfirmQrSession(ctx, code, userID, config.QrTTL)
	if err != nil {
		return fmt.Errorf("confirm qr session: %w", err)
	}

	switch res {
	case storage.QrConfirmed:
		s.metrics.QrSessions.WithLabelValues("confirmed").Inc()
		s.log.Info().Str("user_id", userID).Msg("qr session confirmed")
		return nil
	case storage.QrConfirmTaken:
		return apperrors.ErrQrAlreadyConfirmed
	default:
		return apperrors.ErrQrNotFoundOrExpired
	}
}

// NormalizeQrCode upper-cases and validates a user-supplied code.
func NormalizeQrCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != config.QrCodeLength {
		return "", apperrors.ErrInvalidQrCode
	}
	for _, r := range code {
		if !strings.ContainsRune(config.QrAlphabet, r) {
			return "", apperrors.ErrInvalidQrCode
		}
	}
	return code, nil
}

func randomQrCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(config.QrAlphabet)))
	for i := 0; i < config.QrCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(config.QrAlphabet[n.Int64()])
	}
	return b.String(), nil
}
