package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix   = "auth:code:"
	qrKeyPrefix     = "auth:qr:"
	tgLinkKeyPrefix = "tg:link:"
	tgChatKeyPrefix = "tg:chat:"
)

type QrState int

const (
	QrExpired QrState = iota
	QrPending
	QrReady
)

type QrConfirmResult int

const (
	QrConfirmMissing QrConfirmResult = iota
	QrConfirmed
	QrConfirmTaken
)

// Ephemeral is the short-lived key/value side: phone codes, QR sessions and
// out-of-band delivery links.
type Ephemeral interface {
	SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error
	// TakeCode returns the stored code and deletes it in the same step.
	// Empty string means there was none.
	TakeCode(ctx context.Context, phone string) (string, error)

	CreateQrSession(ctx context.Context, code string, ttl time.Duration) (bool, error)
	RedeemQrSession(ctx context.Context, code string) (QrState, string, error)
	ConfirmQrSession(ctx context.Context, code, userID string, ttl time.Duration) (QrConfirmResult, error)

	LinkTelegram(ctx context.Context, phone string, chatID int64, ttl time.Duration) error
	UnlinkTelegram(ctx context.Context, phone string) error
	TelegramChatID(ctx context.Context, phone string) (int64, bool, error)
	// TelegramPhone is the reverse lookup used by the bot's /stop.
	TelegramPhone(ctx context.Context, chatID int64) (string, bool, error)
}

// KEYS[1] = session key. 0 absent, 1 pending, 2 ready (session deleted).
var redeemQrScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return {0, ''}
end
if v == '' then
  return {1, ''}
end
redis.call('DEL', KEYS[1])
return {2, v}
`)

// KEYS[1] = session key, ARGV[1] = user id, ARGV[2] = ttl seconds.
// 0 absent, 1 claimed by this call, 2 already claimed.
var confirmQrScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
if v ~= '' then
  return 2
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[2])
return 1
`)

func (s *Service) SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.Redis.Set(ctx, codeKeyPrefix+phone, code, ttl).Err()
}

func (s *Service) TakeCode(ctx context.Context, phone string) (string, error) {
	code, err := s.Redis.GetDel(ctx, codeKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// CreateQrSession stores a pending session; false means the code is taken.
func (s *Service) CreateQrSession(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	return s.Redis.SetNX(ctx, qrKeyPrefix+code, "", ttl).Result()
}

func (s *Service) RedeemQrSession(ctx context.Context, code string) (QrState, string, error) {
	res, err := redeemQrScript.Run(ctx, s.Redis, []string{qrKeyPrefix + code}).Slice()
	if err != nil {
		return QrExpired, "", err
	}
	if len(res) != 2 {
		return QrExpired, "", fmt.Errorf("unexpected redeem reply: %v", res)
	}

	state, _ := res[0].(int64)
	userID, _ := res[1].(string)
	switch state {
	case 1:
		return QrPending, "", nil
	case 2:
		return QrReady, userID, nil
	default:
		return QrExpired, "", nil
	}
}

func (s *Service) ConfirmQrSession(ctx context.Context, code, userID string, ttl time.Duration) (QrConfirmResult, error) {
	seconds := int64(ttl / time.Second)
	res, err := confirmQrScript.Run(ctx, s.Redis, []string{qrKeyPrefix + code}, userID, seconds).Int64()
	if err != nil {
		return QrConfirmMissing, err
	}
	switch res {
	case 1:
		return QrConfirmed, nil
	case 2:
		return QrConfirmTaken, nil
	default:
		return QrConfirmMissing, nil
	}
}

// KEYS[1] = phone link key, KEYS[2] = chat key. ARGV[1] = chat id,
// ARGV[2] = phone, ARGV[3] = ttl seconds. Reverse keys left by a previous
// link of either side are dropped so each chat maps to one phone.
var linkTelegramScript = redis.NewScript(`
local oldChat = redis.call('GET', KEYS[1])
if oldChat and oldChat ~= ARGV[1] then
  local k = '` + tgChatKeyPrefix + `' .. oldChat
  if redis.call('GET', k) == ARGV[2] then
    redis.call('DEL', k)
  end
end
local oldPhone = redis.call('GET', KEYS[2])
if oldPhone and oldPhone ~= ARGV[2] then
  local k = '` + tgLinkKeyPrefix + `' .. oldPhone
  if redis.call('GET', k) == ARGV[1] then
    redis.call('DEL', k)
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
return 1
`)

// KEYS[1] = phone link key, ARGV[1] = phone. The chat key goes only if it
// still points back at this phone.
var unlinkTelegramScript = redis.NewScript(`
local chat = redis.call('GET', KEYS[1])
redis.call('DEL', KEYS[1])
if chat then
  local k = '` + tgChatKeyPrefix + `' .. chat
  if redis.call('GET', k) == ARGV[1] then
    redis.call('DEL', k)
  end
end
return 1
`)

// LinkTelegram writes both directions so the bot can unlink by chat.
func (s *Service) LinkTelegram(ctx context.Context, phone string, chatID int64, ttl time.Duration) error {
	chatKey := tgChatKeyPrefix + strconv.FormatInt(chatID, 10)
	seconds := int64(ttl / time.Second)
	return linkTelegramScript.Run(ctx, s.Redis, []string{tgLinkKeyPrefix + phone, chatKey},
		strconv.FormatInt(chatID, 10), phone, seconds).Err()
}

func (s *Service) UnlinkTelegram(ctx context.Context, phone string) error {
	return unlinkTelegramScript.Run(ctx, s.Redis, []string{tgLinkKeyPrefix + phone}, phone).Err()
}

func (s *Service) TelegramPhone(ctx context.Context, chatID int64) (string, bool, error) {
	phone, err := s.Redis.Get(ctx, tgChatKeyPrefix+strconv.FormatInt(chatID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return phone, true, nil
}

func (s *Service) TelegramChatID(ctx context.Context, phone string) (int64, bool, error) {
	raw, err := s.Redis.Get(ctx, tgLinkKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt telegram link for %s: %w", phone, err)
	}
	return chatID, true, nil
}
