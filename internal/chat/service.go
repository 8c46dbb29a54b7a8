// Package chat holds membership-checked operations over chats, messages and
// user profiles.
package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/localization"
	"messenger/backend/internal/models"
	"messenger/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Both limits match the VARCHAR(128) columns.
const (
	maxDisplayName = 128
	maxChatName    = 128
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

type Service struct {
	store  storage.Storage
	labels *localization.Localizer
	lang   string
	log    zerolog.Logger
}

func NewService(store storage.Storage, labels *localization.Localizer, lang string, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		labels: labels,
		lang:   lang,
		log:    log.With().Str("component", "chat").Logger(),
	}
}

// CreateChatInput is the union of what the three chat kinds accept.
type CreateChatInput struct {
	Type         models.ChatKind `json:"type"`
	Name         string          `json:"name"`
	Photo        string          `json:"photo"`
	PeerUserID   string          `json:"peerUserId"`
	PeerUsername string          `json:"peerUsername"`
	Description  string          `json:"description"`
	ShareLink    string          `json:"shareLink"`
	Admins       []string        `json:"admins"`
	Moderators   []string        `json:"moderators"`
}

// ListChats returns the caller's chats, most recently active first.
func (s *Service) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	chats, err := s.store.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	return chats, nil
}

func (s *Service) CreateChat(ctx context.Context, userID string, in CreateChatInput) (*models.Chat, error) {
	kind := in.Type
	if kind == "" {
		kind = models.ChatDirect
	}
	switch kind {
	case models.ChatDirect:
		return s.CreateDirectChat(ctx, userID, in.PeerUserID, in.PeerUsername)
	case models.ChatGroup, models.ChatChannel:
		in.Type = kind
		return s.CreateGroupOrChannel(ctx, userID, in)
	default:
		return nil, apperrors.ErrUnknownChatType
	}
}

// CreateDirectChat returns the existing direct chat for the pair or creates it.
func (s *Service) CreateDirectChat(ctx context.Context, userID, peerUserID, peerUsername string) (*models.Chat, error) {
	peer, err := s.resolvePeer(ctx, peerUserID, peerUsername)
	if err != nil {
		return nil, err
	}
	if peer.ID == userID {
		return nil, apperrors.ErrSelfChat
	}

	existing, err := s.store.FindDirectChat(ctx, userID, peer.ID)
	switch {
	case err == nil:
		existing.PeerUserID = peer.ID
		return existing, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("find direct chat: %w", err)
	}

	chat := &models.Chat{Kind: models.ChatDirect, Name: peer.Handle()}
	if err := s.store.CreateDirectChat(ctx, chat, userID, peer.ID); err != nil {
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("create direct chat: %w", err)
		}
		// Другий запит для тієї ж пари встиг першим.
		existing, err = s.store.FindDirectChat(ctx, userID, peer.ID)
		if err != nil {
			return nil, fmt.Errorf("find direct chat after conflict: %w", err)
		}
		chat = existing
	} else {
		s.log.Info().Str("chat_id", chat.ID).Str("user_id", userID).Str("peer_id", peer.ID).Msg("direct chat created")
	}

	chat.PeerUserID = peer.ID
	return chat, nil
}

func (s *Service) resolvePeer(ctx context.Context, peerUserID, peerUsername string) (*models.User, error) {
	peerUserID = strings.TrimSpace(peerUserID)
	peerUsername = strings.TrimPrefix(strings.TrimSpace(peerUsername), "@")

	var (
		peer *models.User
		err  error
	)
	switch {
	case peerUserID != "":
		if _, perr := uuid.Parse(peerUserID); perr != nil {
			return nil, apperrors.ErrUserNotFound
		}
		peer, err = s.store.GetUserByID(ctx, peerUserID)
	case peerUsername != "":
		peer, err = s.store.GetUserByUsername(ctx, peerUsername)
	default:
		return nil, apperrors.ErrPeerRequired
	}

	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve peer: %w", err)
	}
	return peer, nil
}

// CreateGroupOrChannel creates the chat with the creator as its admin member.
func (s *Service) CreateGroupOrChannel(ctx context.Context, userID string, in CreateChatInput) (*models.Chat, error) {
	if in.Type != models.ChatGroup && in.Type != models.ChatChannel {
		return nil, apperrors.ErrUnknownChatType
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ErrChatNameRequired
	}
	if utf8.RuneCountInString(name) > maxChatName {
		return nil, apperrors.ErrChatNameLong
	}

	chat := &models.Chat{
		Kind:  in.Type,
		Name:  name,
		Photo: strings.TrimSpace(in.Photo),
	}
	if in.Type == models.ChatChannel {
		chat.Description = strings.TrimSpace(in.Description)
		chat.ShareLink = strings.TrimSpace(in.ShareLink)
		chat.Admins = cleanUsernames(in.Admins)
		chat.Moderators = cleanUsernames(in.Moderators)
	}

	if err := s.store.CreateChat(ctx, chat, userID); err != nil {
		return nil, fmt.Errorf("create %s: %w", in.Type, err)
	}
	s.log.Info().Str("chat_id", chat.ID).Str("kind", string(chat.Kind)).Str("user_id", userID).Msg("chat created")
	return chat, nil
}

func cleanUsernames(in []string) pq.StringArray {
	out := pq.StringArray{}
	seen := make(map[string]bool, len(in))
	for _, name := range in {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// ensureMember answers ErrChatNotFound for non-members, so callers cannot
// learn whether a chat exists.
func (s *Service) ensureMember(ctx context.Context, userID, chatID string) error {
	if _, err := uuid.Parse(chatID); err != nil {
		return apperrors.ErrChatNotFound
	}
	ok, err := s.store.IsMember(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return apperrors.ErrChatNotFound
	}
	return nil
}

func (s *Service) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	if err := s.ensureMember(ctx, userID, chatID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	for i := range msgs {
		msgs[i].FromMe = msgs[i].SenderID == userID
	}
	return msgs, nil
}

func (s *Service) SendMessage(ctx context.Context, userID, chatID, text string, att *models.Attachment) (*models.Message, error) {
	if err := s.ensureMember(ctx, userID, chatID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if att.IsEmpty() {
		att = nil
	}
	if text == "" && att == nil {
		return nil, apperrors.ErrEmptyMessage
	}

	summary := text
	if summary == "" {
		summary = s.placeholder(att.Kind)
	}

	msg := &models.Message{
		ChatID:     chatID,
		SenderID:   userID,
		Text:       text,
		Attachment: att,
	}
	if err := s.store.AppendMessage(ctx, msg, summary); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	msg.FromMe = true
	return msg, nil
}

func (s *Service) placeholder(kind models.AttachmentKind) string {
	if label, ok := s.labels.Lookup(s.lang, "attachment_"+string(kind)); ok {
		return label
	}
	return s.labels.GetString(s.lang, "attachment_"+string(models.AttachmentFile))
}
