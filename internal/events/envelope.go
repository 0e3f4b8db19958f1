package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/medibook/backend/internal/models"
)

const (
	producerName = "medibook-notifications"

	DeliverySentKey   = "notification.delivery.sent"
	DeliveryFailedKey = "notification.delivery.failed"
	deliveryEventType = "notification.delivery.v1"
)

// Envelope wraps every published event
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Correlation key of the notification, if any
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
	// Event name and version
	Type string `json:"type"`
}

// DeliveryEvent mirrors one delivery_attempts row
type DeliveryEvent struct {
	AttemptID         string                  `json:"attempt_id"`
	RecipientID       uint                    `json:"recipient_id"`
	Type              models.NotificationType `json:"type"`
	Channel           models.Channel          `json:"channel"`
	Status            models.AttemptStatus    `json:"status"`
	ErrorCode         string                  `json:"error_code,omitempty"`
	ProviderMessageID string                  `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// NewDeliveryEnvelope builds the event for attempt and its routing key
func NewDeliveryEnvelope(attempt *models.DeliveryAttempt) (string, Envelope) {
	key := DeliveryFailedKey
	if attempt.Status == models.AttemptSent {
		key = DeliverySentKey
	}

	meta := Meta{
		ID:       uuid.NewString(),
		Producer: producerName,
		Time:     time.Now().UTC(),
		Type:     deliveryEventType,
	}
	if attempt.CorrelationKey != "" {
		cid := attempt.CorrelationKey
		meta.CorrelationID = &cid
	}

	return key, Envelope{
		Meta: meta,
		Data: DeliveryEvent{
			AttemptID:         attempt.ID.String(),
			RecipientID:       attempt.RecipientID,
			Type:              attempt.Type,
			Channel:           attempt.Channel,
			Status:            attempt.Status,
			ErrorCode:         attempt.ErrorCode,
			ProviderMessageID: attempt.ProviderMessageID,
			CreatedAt:         attempt.CreatedAt,
		},
	}
}
