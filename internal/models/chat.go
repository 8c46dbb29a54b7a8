package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ChatKind string

const (
	ChatDirect  ChatKind = "direct"
	ChatGroup   ChatKind = "group"
	ChatChannel ChatKind = "channel"
)

func (k ChatKind) Valid() bool {
	switch k {
	case ChatDirect, ChatGroup, ChatChannel:
		return true
	}
	return false
}

type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

type Chat struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	Kind          ChatKind   `gorm:"not null" json:"type"`
	Name          string     `gorm:"not null;default:''" json:"name"`
	Photo         string     `gorm:"not null;default:''" json:"photo,omitempty"`
	LastMessage   string     `gorm:"not null;default:''" json:"lastMessage"`
	LastTimestamp *time.Time `json:"lastTimestamp"`

	// DirectKey is "<lowerID>:<higherID>" for direct chats and NULL otherwise;
	// a unique index on it keeps one direct chat per unordered pair.
	DirectKey *string `gorm:"uniqueIndex" json:"-"`

	// Channel meta
	Description string         `gorm:"not null;default:''" json:"description,omitempty"`
	ShareLink   string         `gorm:"not null;default:''" json:"shareLink,omitempty"`
	Admins      pq.StringArray `gorm:"type:text[]" json:"admins,omitempty"`
	Moderators  pq.StringArray `gorm:"type:text[]" json:"moderators,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	PeerUserID string `gorm:"-" json:"peerUserId,omitempty"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// DirectKey builds the pair key independent of argument order.
func DirectKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

type Membership struct {
	ChatID    string     `gorm:"primaryKey;type:uuid"`
	UserID    string     `gorm:"primaryKey;type:uuid;index"`
	Role      MemberRole `gorm:"not null;default:'member'"`
	CreatedAt time.Time
}
