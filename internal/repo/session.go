package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// AddSession stores a new login. With revokeOthers the user's earlier sessions stop
// being refreshable, which gives one active session per user.
func (r *GormRepo) AddSession(ctx context.Context, s *models.Session, revokeOthers bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if revokeOthers {
			if err := tx.Model(&models.Session{}).
				Where("user_id = ? AND revoked = ?", s.UserID, false).
				Update("revoked", true).Error; err != nil {
				return err
			}
		}
		return tx.Create(s).Error
	})
}

func (r *GormRepo) FindSessionByJTI(ctx context.Context, jti string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) RevokeSessionByHash(ctx context.Context, tokenHash string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) ActiveSessions(ctx context.Context, userID uint, now time.Time) ([]models.Session, error) {
	var out []models.Session
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now.UTC()).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// DeleteStaleSessions removes sessions that can no longer be refreshed.
func (r *GormRepo) DeleteStaleSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("revoked = ? OR expires_at < ?", true, now.UTC()).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
