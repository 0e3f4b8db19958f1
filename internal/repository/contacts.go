package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medibook/backend/internal/database"
	"github.com/medibook/backend/internal/models"
)

// ContactStore resolves recipients from the shared users table
type ContactStore interface {
	// Contact returns models.ErrRecipientNotFound when no such user exists
	Contact(ctx context.Context, userID uint) (*models.RecipientContact, error)
	ActiveStaffIDs(ctx context.Context, hospitalID uint) ([]uint, error)
}

type contactStoreImpl struct {
	db    *gorm.DB
	cache *database.ContactCache
}

// NewContactStore builds a contact store; cache may be nil
func NewContactStore(db *gorm.DB, cache *database.ContactCache) ContactStore {
	return &contactStoreImpl{db: db, cache: cache}
}

func (r *contactStoreImpl) Contact(ctx context.Context, userID uint) (*models.RecipientContact, error) {
	if cached := r.cache.Get(ctx, userID); cached != nil {
		return cached, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "name", "phone", "push_token", "push_platform", "is_active").
		Where("id = ?", userID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}

	contact := models.ContactFromUser(&user)
	r.cache.Set(ctx, contact)
	return contact, nil
}

func (r *contactStoreImpl) ActiveStaffIDs(ctx context.Context, hospitalID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("hospital_id = ? AND is_active = ? AND user_type IN ?",
			hospitalID, true, models.StaffUserTypes).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
