package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType is the business event a notification reports
type NotificationType string

const (
	NotifyReservationConfirmed NotificationType = "RESERVATION_CONFIRMED"
	NotifyReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotifyReservationReminder  NotificationType = "RESERVATION_REMINDER"
	NotifyReviewRequest        NotificationType = "REVIEW_REQUEST"
	NotifyNewReservation       NotificationType = "NEW_RESERVATION"
	NotifyNewReview            NotificationType = "NEW_REVIEW"
	NotifyUnansweredChat       NotificationType = "UNANSWERED_CHAT"
)

// NotificationTypes lists every known type in a stable order
var NotificationTypes = []NotificationType{
	NotifyReservationConfirmed,
	NotifyReservationCancelled,
	NotifyReservationReminder,
	NotifyReviewRequest,
	NotifyNewReservation,
	NotifyNewReview,
	NotifyUnansweredChat,
}

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Channel represents notification delivery channel
type Channel string

const (
	ChannelPush            Channel = "PUSH"
	ChannelBusinessMessage Channel = "BUSINESS_MESSAGE"
	ChannelSMS             Channel = "SMS"
)

// AttemptStatus is the terminal state of one delivery attempt
type AttemptStatus string

const (
	AttemptSent   AttemptStatus = "SENT"
	AttemptFailed AttemptStatus = "FAILED"
)

// DeliveryAttempt is one logged outcome of sending through one channel.
// Rows are append-only: never updated, never deleted.
type DeliveryAttempt struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RecipientID       uint             `gorm:"column:recipient_id;not null;index:idx_delivery_recipient_type,priority:1" json:"recipient_id"`
	Type              NotificationType `gorm:"column:type;size:40;not null;index:idx_delivery_recipient_type,priority:2;index:idx_delivery_type_correlation,priority:1" json:"type"`
	Channel           Channel          `gorm:"column:channel;size:20;not null" json:"channel"`
	Title             string           `gorm:"column:title;size:255" json:"title"`
	Body              string           `gorm:"column:body;type:text" json:"body"`
	Payload           datatypes.JSON   `gorm:"column:payload" json:"payload"`
	CorrelationKey    string           `gorm:"column:correlation_key;size:100;index:idx_delivery_type_correlation,priority:2" json:"correlation_key,omitempty"`
	Status            AttemptStatus    `gorm:"column:status;size:10;not null" json:"status"`
	ErrorCode         string           `gorm:"column:error_code;size:40" json:"error_code,omitempty"`
	ErrorMessage      string           `gorm:"column:error_message;size:500" json:"error_message,omitempty"`
	ProviderMessageID string           `gorm:"column:provider_message_id;size:255" json:"provider_message_id,omitempty"`
	CreatedAt         time.Time        `gorm:"column:created_at;index" json:"created_at"`
}

func (DeliveryAttempt) TableName() string {
	return "delivery_attempts"
}

// BeforeCreate assigns the row id when the caller has not
func (a *DeliveryAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
