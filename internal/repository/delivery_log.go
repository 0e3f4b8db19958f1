package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medibook/backend/internal/models"
)

const (
	defaultAttemptListLimit = 50
	maxAttemptListLimit     = 500
)

// DeliveryLog is the append-only record of delivery attempts
type DeliveryLog interface {
	Record(ctx context.Context, attempt *models.DeliveryAttempt) error
	// HasAttempt reports whether any attempt of type t for correlationKey was
	// logged at or after since, regardless of channel or status.
	HasAttempt(ctx context.Context, t models.NotificationType, correlationKey string, since time.Time) (bool, error)
	List(ctx context.Context, filter models.AttemptFilter) ([]models.DeliveryAttempt, error)
}

type deliveryLogImpl struct {
	db *gorm.DB
}

func NewDeliveryLog(db *gorm.DB) DeliveryLog {
	return &deliveryLogImpl{db: db}
}

func (r *deliveryLogImpl) Record(ctx context.Context, attempt *models.DeliveryAttempt) error {
	if attempt == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *deliveryLogImpl) HasAttempt(ctx context.Context, t models.NotificationType, correlationKey string, since time.Time) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.DeliveryAttempt{}).
		Where("type = ? AND correlation_key = ?", t, correlationKey)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *deliveryLogImpl) List(ctx context.Context, filter models.AttemptFilter) ([]models.DeliveryAttempt, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAttemptListLimit
	}
	if limit > maxAttemptListLimit {
		limit = maxAttemptListLimit
	}

	q := r.db.WithContext(ctx).Model(&models.DeliveryAttempt{})
	if filter.RecipientID != 0 {
		q = q.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.CorrelationKey != "" {
		q = q.Where("correlation_key = ?", filter.CorrelationKey)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}

	var attempts []models.DeliveryAttempt
	err := q.Order("created_at DESC").Limit(limit).Find(&attempts).Error
	return attempts, err
}
