package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"authcore/internal/events"
	"authcore/internal/hash"
	"authcore/internal/logging"
	"authcore/internal/models"
)

var ErrUserExists = errors.New("user already exists")

type UserService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func (s *UserService) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.create")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("create_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	var existing models.User
	err = s.DB.WithContext(ctx).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", username, email).
		First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		IsActive:     true,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Action: events.ActionUserCreated, UserID: user.ID.String()})
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, username, email *string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}

	details := map[string]any{}
	if username != nil && *username != user.Username {
		details["username"] = *username
		user.Username = *username
	}
	if email != nil && *email != user.Email {
		details["email"] = *email
		user.Email = *email
	}
	if len(details) == 0 {
		return &user, nil
	}

	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Action: events.ActionUserUpdated, UserID: userID, Details: details})
	return &user, nil
}

// Deactivate flips the active flag instead of deleting the row, so audit
// logs keep a valid subject and outstanding refresh tokens stop rotating.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	result := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	s.publish(ctx, events.Event{Action: events.ActionUserDeactivated, UserID: userID})
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "action", event.Action, "error", err)
	}
}
