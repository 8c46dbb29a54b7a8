package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"messenger/backend/internal/apperrors"
	"messenger/backend/internal/models"
	"messenger/backend/internal/storage"
)

// ProfileUpdate carries optional changes; nil fields stay untouched.
type ProfileUpdate struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	PublicKey   *string `json:"publicKey"`
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// FindByUsername resolves a public profile case-insensitively.
func (s *Service) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		name := strings.TrimPrefix(strings.TrimSpace(*upd.Username), "@")
		switch {
		case name == "":
			user.Username = nil
		case !usernamePattern.MatchString(name):
			return nil, apperrors.ErrInvalidUsername
		default:
			user.Username = &name
		}
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if utf8.RuneCountInString(name) > maxDisplayName {
			return nil, apperrors.ErrDisplayNameLong
		}
		user.DisplayName = name
	}
	if upd.PublicKey != nil {
		user.PublicKey = *upd.PublicKey
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperrors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
