package config

import "time"

const (
	// Phone codes
	CodeTTL    = 300 * time.Second
	CodeLength = 6

	// QR login
	QrTTL        = 300 * time.Second
	QrCodeLength = 6
	// Без 0/O, 1/I/L, щоб код можна було продиктувати.
	QrAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	// Out-of-band delivery
	TelegramLinkTTL = 365 * 24 * time.Hour

	DefaultTokenTTL = 30 * 24 * time.Hour

	InternalSecretHeader = "X-Internal-Secret"
	QrPayloadPrefix      = "messenger://qr-login?code="
)
