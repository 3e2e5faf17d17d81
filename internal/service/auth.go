package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"authcore/internal/blacklist"
	"authcore/internal/hash"
	"authcore/internal/logging"
	"authcore/internal/models"
	"authcore/internal/tokens"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is not active")
	ErrInvalidCredentials = errors.New("invalid username, email, or password")
)

type AuthService struct {
	DB         *gorm.DB
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Blacklist  blacklist.Strategy
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Validate checks an identifier+password pair and returns the user with
// roles and permissions preloaded. The three failure modes stay distinct
// here; the HTTP layer collapses them into one unauthorized response.
func (s *AuthService) Validate(ctx context.Context, identifier, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.validate")

	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("Roles.Permissions").
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("validate_failed", "reason", "user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		l.Warn("validate_failed", "reason", "user_inactive", "user_id", user.ID)
		return nil, ErrUserInactive
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("validate_failed", "reason", "bad_password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// EffectivePermissions is the deduplicated union of permission names
// across the user's roles, in first-seen order.
func EffectivePermissions(user *models.User) []string {
	seen := make(map[string]struct{})
	perms := make([]string, 0)
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			perms = append(perms, p.Name)
		}
	}
	return perms
}

// Issue builds a signed access/refresh pair. The access token carries the
// permission snapshot; the refresh token only the subject id, so rotation
// always re-derives permissions from the current graph.
func (s *AuthService) Issue(user *models.User) (*TokenPair, error) {
	access, err := tokens.SignAccess(
		s.JWTSecret,
		user.ID.String(),
		user.Username,
		EffectivePermissions(user),
		time.Now().Add(s.AccessTTL),
	)
	if err != nil {
		return nil, err
	}

	refresh, err := tokens.SignRefresh(s.JWTSecret, user.ID.String(), time.Now().Add(s.RefreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, *TokenPair, error) {
	user, err := s.Validate(ctx, identifier, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Rotate exchanges a refresh token for a fresh pair. The user is reloaded
// so role changes since the original login take effect here. The old
// refresh token stays valid until logout or natural expiry.
func (s *AuthService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := tokens.ParseRefresh(refreshToken, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.DB.WithContext(ctx).
		Preload("Roles.Permissions").
		Where("id = ?", claims.Subject).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return s.Issue(&user)
}

// Logout blacklists both tokens until their natural expiry. Expired
// tokens still decode (signature only), and recording them is a harmless
// no-op in every backend.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	accessExp, err := tokens.ExpiryMillis(accessToken, s.JWTSecret)
	if err != nil {
		return err
	}
	refreshExp, err := tokens.ExpiryMillis(refreshToken, s.JWTSecret)
	if err != nil {
		return err
	}

	if err := s.Blacklist.Add(ctx, accessToken, accessExp); err != nil {
		return err
	}
	return s.Blacklist.Add(ctx, refreshToken, refreshExp)
}
