// Package apperrors defines the error taxonomy shared by services and the
// HTTP boundary. Services return *Error values (or wrap the kind sentinels);
// handlers map kinds to status codes with errors.Is.
package apperrors

import "errors"

// Kinds.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-safe message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Auth
var (
	ErrInvalidPhone         = New(ErrValidation, "Некорректный номер телефона")
	ErrInvalidCodeFormat    = New(ErrValidation, "Код должен состоять из 4–8 цифр")
	ErrInvalidOrExpiredCode = New(ErrValidation, "Неверный код или он истёк")
	ErrInvalidQrCode        = New(ErrValidation, "Некорректный QR-код")
	ErrQrNotFoundOrExpired  = New(ErrValidation, "QR-код не найден или истёк")
	ErrQrAlreadyConfirmed   = New(ErrValidation, "QR-код уже подтверждён")
	ErrInvalidToken         = New(ErrUnauthorized, "Недействительный токен")
	ErrExpiredToken         = New(ErrUnauthorized, "Срок действия токена истёк")
	ErrBadInternalSecret    = New(ErrForbidden, "Доступ запрещён")
)

// Chats & users
var (
	ErrUserNotFound     = New(ErrNotFound, "Пользователь не найден")
	ErrChatNotFound     = New(ErrNotFound, "Чат не найден")
	ErrSelfChat         = New(ErrValidation, "Нельзя создать чат с самим собой")
	ErrPeerRequired     = New(ErrValidation, "Не указан собеседник")
	ErrUnknownChatType  = New(ErrValidation, "Неизвестный тип чата")
	ErrChatNameRequired = New(ErrValidation, "Не указано название чата")
	ErrChatNameLong     = New(ErrValidation, "Название чата слишком длинное")
	ErrEmptyMessage     = New(ErrValidation, "Пустое сообщение")
	ErrInvalidUsername  = New(ErrValidation, "Имя пользователя: 3–32 символа, латиница, цифры и _")
	ErrUsernameTaken    = New(ErrConflict, "Имя пользователя уже занято")
	ErrDisplayNameLong  = New(ErrValidation, "Имя слишком длинное")
)

// Message returns the client-safe text of err, or fallback for anything that
// is not an *Error.
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return fallback
}
