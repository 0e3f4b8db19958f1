package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medibook/backend/internal/models"
)

// CampaignQueries finds candidates for the scheduled sweeps. Window bounds are
// half-open: from inclusive, to exclusive.
type CampaignQueries interface {
	ConfirmedReservationsBetween(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error)
	CompletedReservationsBetween(ctx context.Context, from, to time.Time) ([]models.ReviewCandidate, error)
	// UnansweredChatBacklog groups threads with staff-unread messages whose
	// last message is older than lastMessageBefore, per hospital.
	UnansweredChatBacklog(ctx context.Context, lastMessageBefore time.Time) ([]models.ChatBacklog, error)
}

type campaignQueriesImpl struct {
	db *gorm.DB
}

func NewCampaignQueries(db *gorm.DB) CampaignQueries {
	return &campaignQueriesImpl{db: db}
}

func (r *campaignQueriesImpl) ConfirmedReservationsBetween(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	var rows []models.ReminderCandidate
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("reservations.id AS reservation_id, reservations.patient_id, u.name AS patient_name, h.name AS hospital_name, reservations.reserved_at").
		Joins("JOIN users u ON u.id = reservations.patient_id").
		Joins("JOIN hospitals h ON h.id = reservations.hospital_id").
		Where("reservations.status = ? AND reservations.reserved_at >= ? AND reservations.reserved_at < ?", models.ReservationConfirmed, from, to).
		Order("reservations.reserved_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *campaignQueriesImpl) CompletedReservationsBetween(ctx context.Context, from, to time.Time) ([]models.ReviewCandidate, error) {
	var rows []models.ReviewCandidate
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("reservations.id AS reservation_id, reservations.patient_id, h.name AS hospital_name, reservations.completed_at").
		Joins("JOIN hospitals h ON h.id = reservations.hospital_id").
		Where("reservations.status = ? AND reservations.completed_at >= ? AND reservations.completed_at < ?", models.ReservationCompleted, from, to).
		Order("reservations.completed_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *campaignQueriesImpl) UnansweredChatBacklog(ctx context.Context, lastMessageBefore time.Time) ([]models.ChatBacklog, error) {
	var rows []models.ChatBacklog
	err := r.db.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Select("chat_rooms.hospital_id, h.name AS hospital_name, COUNT(*) AS thread_count").
		Joins("JOIN hospitals h ON h.id = chat_rooms.hospital_id").
		Where("chat_rooms.unread_staff_count > 0 AND chat_rooms.last_message_by_staff = ? AND chat_rooms.last_message_at < ?", false, lastMessageBefore).
		Group("chat_rooms.hospital_id, h.name").
		Order("chat_rooms.hospital_id ASC").
		Scan(&rows).Error
	return rows, err
}
