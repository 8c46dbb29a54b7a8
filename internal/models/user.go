package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User представляє зареєстрованого користувача. Створюється при першій
// успішній верифікації телефону.
type User struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Phone       string    `gorm:"uniqueIndex;not null" json:"phone"` // канонічний вигляд: +<цифри>
	Username    *string   `json:"username"`                          // унікальний без урахування регістру
	DisplayName string    `gorm:"not null;default:''" json:"displayName"`
	PublicKey   string    `gorm:"not null;default:''" json:"publicKey,omitempty"` // непрозорий для сервера
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// BeforeCreate генерує UUID, якщо ID ще не встановлено.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Handle returns the username when set, otherwise the display name.
func (u *User) Handle() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.DisplayName
}

// PublicUser is what other users may see; the phone stays private.
type PublicUser struct {
	ID          string  `json:"id"`
	Username    *string `json:"username"`
	DisplayName string  `json:"displayName"`
	PublicKey   string  `json:"publicKey,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, PublicKey: u.PublicKey}
}
