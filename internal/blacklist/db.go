package blacklist

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"authcore/internal/models"
)

// DBStore persists revoked tokens in the shared database. Rows do not
// self-expire; PurgeExpired must run on a schedule.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Add(ctx context.Context, token string, expiresAt int64) error {
	row := models.BlacklistedToken{Token: token, ExpiresAt: expiresAt}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *DBStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var row models.BlacklistedToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *DBStore) PurgeExpired(ctx context.Context) error {
	now := time.Now().UnixMilli()
	return s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.BlacklistedToken{}).Error
}
