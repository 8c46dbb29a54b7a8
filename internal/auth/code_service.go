package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/config"
	"messenger/backend/internal/metrics"
	"messenger/backend/internal/models"
	"messenger/backend/internal/storage"

	"github.com/rs/zerolog"
)

// UserRepository is the part of the durable store auth needs.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// CodeSender delivers a code to an out-of-band chat (Telegram).
type CodeSender interface {
	SendCode(ctx context.Context, chatID int64, code string) error
}

type CodeRequest struct {
	Phone      string `json:"phone"`
	TTLSeconds int    `json:"ttlSeconds"`
	Delivered  bool   `json:"delivered"`
	DebugCode  string `json:"debugCode,omitempty"`
}

type CodeService struct {
	store       storage.Ephemeral
	users       UserRepository
	sender      CodeSender
	exposeDebug bool
	newCode     func() (string, error)
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

type CodeOption func(*CodeService)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func() (string, error)) CodeOption {
	return func(s *CodeService) { s.newCode = gen }
}

func WithMetrics(m *metrics.Metrics) CodeOption {
	return func(s *CodeService) { s.metrics = m }
}

// NewCodeService builds the phone-code flow. sender may be nil when no
// out-of-band channel is configured; exposeDebug must be false in production.
func NewCodeService(store storage.Ephemeral, users UserRepository, sender CodeSender, exposeDebug bool, log zerolog.Logger, opts ...CodeOption) *CodeService {
	s := &CodeService{
		store:       store,
		users:       users,
		sender:      sender,
		exposeDebug: exposeDebug,
		newCode:     randomDigits,
		log:         log.With().Str("component", "auth_code").Logger(),
		metrics:     metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CodeService) RequestCode(ctx context.Context, rawPhone string) (*CodeRequest, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	if err := s.store.SaveCode(ctx, phone, code, config.CodeTTL); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}

	delivered := s.deliver(ctx, phone, code)

	resp := &CodeRequest{
		Phone:      MaskPhone(phone),
		TTLSeconds: int(config.CodeTTL.Seconds()),
		Delivered:  delivered,
	}
	if s.exposeDebug && !delivered {
		resp.DebugCode = code
	}
	return resp, nil
}

// deliver never fails the request: an unlinked phone or a send error just
// leaves the code undelivered.
func (s *CodeService) deliver(ctx context.Context, phone, code string) bool {
	outcome := "none"
	defer func() { s.metrics.AuthCodes.WithLabelValues(outcome).Inc() }()

	if s.sender == nil {
		return false
	}
	chatID, linked, err := s.store.TelegramChatID(ctx, phone)
	if err != nil {
		s.log.Warn().Err(err).Str("phone", MaskPhone(phone)).Msg("telegram link lookup failed")
		outcome = "failed"
		return false
	}
	if !linked {
		return false
	}
	if err := s.sender.SendCode(ctx, chatID, code); err != nil {
		s.log.Warn().Err(err).Str("phone", MaskPhone(phone)).Msg("telegram delivery failed")
		outcome = "failed"
		return false
	}
	outcome = "telegram"
	return true
}

// VerifyCode consumes the stored code on every attempt, matching or not.
func (s *CodeService) VerifyCode(ctx context.Context, rawPhone, code string) (*models.User, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if !validCodeFormat(code) {
		return nil, apperrors.ErrInvalidCodeFormat
	}

	stored, err := s.store.TakeCode(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("take code: %w", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperrors.ErrInvalidOrExpiredCode
	}

	return s.findOrCreateUser(ctx, phone)
}

func (s *CodeService) findOrCreateUser(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.GetUserByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}

	user = &models.User{Phone: phone}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Паралельна верифікація могла створити користувача першою.
		if errors.Is(err, storage.ErrDuplicate) {
			return s.users.GetUserByPhone(ctx, phone)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("phone", MaskPhone(phone)).Msg("user registered")
	return user, nil
}

func randomDigits() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < config.CodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", config.CodeLength, n), nil
}
