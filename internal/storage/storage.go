package storage

import (
	"context"
	"errors"
	"fmt"

	"messenger/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Storage is the durable (relational) side: users, chats, memberships, messages.
type Storage interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error

	ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	FindDirectChat(ctx context.Context, userA, userB string) (*models.Chat, error)
	CreateDirectChat(ctx context.Context, chat *models.Chat, userA, userB string) error
	CreateChat(ctx context.Context, chat *models.Chat, ownerID string) error
	IsMember(ctx context.Context, chatID, userID string) (bool, error)

	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
	AppendMessage(ctx context.Context, msg *models.Message, summary string) error
}

// Service implements Storage on PostgreSQL (gorm) and Ephemeral on Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// OpenPostgres connects with duplicate-key errors translated to gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// --- users ---

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", username).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.DB.WithContext(ctx).Create(user).Error)
}

// UpdateUser writes the mutable profile fields only.
func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).
		Model(user).
		Select("username", "display_name", "public_key", "updated_at").
		Updates(user).Error
	return translate(err)
}

// --- chats ---

func (s *Service) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.DB.WithContext(ctx).
		Select("chats.*").
		Joins("JOIN memberships ON memberships.chat_id = chats.id AND memberships.user_id = ?", userID).
		Order("chats.last_timestamp DESC NULLS LAST").
		Order("chats.created_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	var directIDs []string
	for _, c := range chats {
		if c.Kind == models.ChatDirect {
			directIDs = append(directIDs, c.ID)
		}
	}
	if len(directIDs) == 0 {
		return chats, nil
	}

	var peers []models.Membership
	err = s.DB.WithContext(ctx).
		Where("chat_id IN ? AND user_id <> ?", directIDs, userID).
		Find(&peers).Error
	if err != nil {
		return nil, err
	}

	peerByChat := make(map[string]string, len(peers))
	for _, p := range peers {
		peerByChat[p.ChatID] = p.UserID
	}
	for i := range chats {
		chats[i].PeerUserID = peerByChat[chats[i].ID]
	}
	return chats, nil
}

func (s *Service) FindDirectChat(ctx context.Context, userA, userB string) (*models.Chat, error) {
	var chat models.Chat
	err := s.DB.WithContext(ctx).
		Where("kind = ? AND direct_key = ?", models.ChatDirect, models.DirectKey(userA, userB)).
		First(&chat).Error
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// CreateDirectChat inserts the chat row and both memberships in one transaction.
// A concurrent creation for the same pair surfaces as ErrDuplicate.
func (s *Service) CreateDirectChat(ctx context.Context, chat *models.Chat, userA, userB string) error {
	key := models.DirectKey(userA, userB)
	chat.Kind = models.ChatDirect
	chat.DirectKey = &key

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		members := []models.Membership{
			{ChatID: chat.ID, UserID: userA, Role: models.RoleMember},
			{ChatID: chat.ID, UserID: userB, Role: models.RoleMember},
		}
		return tx.Create(&members).Error
	})
	return translate(err)
}

// CreateChat creates a group or channel with the owner as its only (admin) member.
func (s *Service) CreateChat(ctx context.Context, chat *models.Chat, ownerID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{ChatID: chat.ID, UserID: ownerID, Role: models.RoleAdmin}).Error
	})
	return translate(err)
}

func (s *Service) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Membership{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- messages ---

func (s *Service) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// AppendMessage stores the message and then moves the chat summary to it,
// both inside one transaction.
func (s *Service) AppendMessage(ctx context.Context, msg *models.Message, summary string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{
				"last_message":   summary,
				"last_timestamp": msg.CreatedAt,
			}).Error
	})
}
