package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVoice AttachmentKind = "voice"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an opaque reference to media stored elsewhere.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	Ref  string         `json:"ref"`
	Name string         `json:"name,omitempty"`
}

func (a *Attachment) IsEmpty() bool {
	return a == nil || (a.Kind == "" && a.Ref == "")
}

// Message is immutable once created.
type Message struct {
	ID         string      `gorm:"primaryKey;type:uuid" json:"id"`
	ChatID     string      `gorm:"type:uuid;not null;index:idx_messages_chat_created" json:"chatId"`
	SenderID   string      `gorm:"type:uuid;not null" json:"senderId"`
	Text       string      `gorm:"not null;default:''" json:"text"`
	Attachment *Attachment `gorm:"serializer:json;type:jsonb" json:"attachment,omitempty"`
	CreatedAt  time.Time   `gorm:"index:idx_messages_chat_created" json:"createdAt"`

	FromMe bool `gorm:"-" json:"fromMe"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
