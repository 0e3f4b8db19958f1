package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/medibook/backend/internal/database"
	"github.com/medibook/backend/internal/models"
)

// DeviceTokenStore keeps the single push token of each user
type DeviceTokenStore interface {
	// SetToken registers token for userID, last write wins. The token is
	// detached from any other user that still holds it.
	SetToken(ctx context.Context, userID uint, token string, platform models.PushPlatform) error
	// ClearToken removes the user's token only if it still equals token; an
	// empty token clears unconditionally. It reports whether a row changed.
	ClearToken(ctx context.Context, userID uint, token string) (bool, error)
}

type deviceTokenStoreImpl struct {
	db    *gorm.DB
	cache *database.ContactCache
}

func NewDeviceTokenStore(db *gorm.DB, cache *database.ContactCache) DeviceTokenStore {
	return &deviceTokenStoreImpl{db: db, cache: cache}
}

func (r *deviceTokenStoreImpl) SetToken(ctx context.Context, userID uint, token string, platform models.PushPlatform) error {
	token = strings.TrimSpace(token)
	if token == "" {
		_, err := r.clear(ctx, userID, "")
		return err
	}

	var previousHolders []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("push_token = ? AND id <> ?", token, userID).
			Pluck("id", &previousHolders).Error; err != nil {
			return err
		}
		if len(previousHolders) > 0 {
			if err := tx.Model(&models.User{}).
				Where("id IN ?", previousHolders).
				Updates(map[string]any{"push_token": nil, "push_platform": nil}).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{"push_token": token, "push_platform": platform})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrRecipientNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.cache.Invalidate(ctx, userID)
	for _, id := range previousHolders {
		r.cache.Invalidate(ctx, id)
	}
	return nil
}

func (r *deviceTokenStoreImpl) ClearToken(ctx context.Context, userID uint, token string) (bool, error) {
	return r.clear(ctx, userID, token)
}

// clear with an empty expected token removes whatever is stored
func (r *deviceTokenStoreImpl) clear(ctx context.Context, userID uint, expected string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID)
	if expected != "" {
		q = q.Where("push_token = ?", expected)
	} else {
		q = q.Where("push_token IS NOT NULL")
	}
	res := q.Updates(map[string]any{"push_token": nil, "push_platform": nil})
	if res.Error != nil {
		return false, res.Error
	}
	r.cache.Invalidate(ctx, userID)
	return res.RowsAffected > 0, nil
}
