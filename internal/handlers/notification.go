package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/services"
)

const maxBulkRecipients = 1000

// NotificationHandler handles notification-related requests
type NotificationHandler struct {
	notifier   services.Notifier
	deliveries repository.DeliveryLog
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier services.Notifier, deliveries repository.DeliveryLog) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, deliveries: deliveries}
}

// SendRequest is the body of POST /api/notifications
type SendRequest struct {
	RecipientID    uint              `json:"recipient_id"`
	Type           string            `json:"type"`
	Payload        map[string]string `json:"payload"`
	CorrelationKey string            `json:"correlation_key"`
}

// BulkSendRequest is the body of POST /api/notifications/bulk
type BulkSendRequest struct {
	RecipientIDs   []uint            `json:"recipient_ids"`
	Type           string            `json:"type"`
	Payload        map[string]string `json:"payload"`
	CorrelationKey string            `json:"correlation_key"`
}

// HospitalNotifyRequest is the body of POST /api/hospitals/:id/notify
type HospitalNotifyRequest struct {
	Type           string            `json:"type"`
	Payload        map[string]string `json:"payload"`
	CorrelationKey string            `json:"correlation_key"`
}

// Send delivers one notification and returns the chain outcome
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RecipientID == 0 {
		return badRequest(c, "recipient_id is required")
	}
	notifType, ok := parseType(req.Type)
	if !ok {
		return badRequest(c, "Unknown notification type: "+req.Type)
	}

	outcome := h.notifier.Notify(c.UserContext(), services.NotificationRequest{
		RecipientID:    req.RecipientID,
		Type:           notifType,
		Payload:        req.Payload,
		CorrelationKey: req.CorrelationKey,
	})

	return c.JSON(fiber.Map{
		"success": outcome.Success(),
		"data":    outcome,
	})
}

// SendBulk fans one notification out to many recipients
func (h *NotificationHandler) SendBulk(c *fiber.Ctx) error {
	var req BulkSendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(req.RecipientIDs) == 0 {
		return badRequest(c, "recipient_ids is required")
	}
	if len(req.RecipientIDs) > maxBulkRecipients {
		return badRequest(c, "Too many recipients (max "+strconv.Itoa(maxBulkRecipients)+")")
	}
	notifType, ok := parseType(req.Type)
	if !ok {
		return badRequest(c, "Unknown notification type: "+req.Type)
	}

	result := h.notifier.NotifyMany(c.UserContext(), req.RecipientIDs, services.NotificationRequest{
		Type:           notifType,
		Payload:        req.Payload,
		CorrelationKey: req.CorrelationKey,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"success": result.Success,
			"failed":  result.Failed,
		},
	})
}

// NotifyHospital fans a notification out to a hospital's active staff
func (h *NotificationHandler) NotifyHospital(c *fiber.Ctx) error {
	hospitalID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || hospitalID == 0 {
		return badRequest(c, "Invalid hospital ID")
	}

	var req HospitalNotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	notifType, ok := parseType(req.Type)
	if !ok {
		return badRequest(c, "Unknown notification type: "+req.Type)
	}

	result, err := h.notifier.NotifyHospitalStaff(c.UserContext(), uint(hospitalID), services.NotificationRequest{
		Type:           notifType,
		Payload:        req.Payload,
		CorrelationKey: req.CorrelationKey,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load hospital staff",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"success": result.Success,
			"failed":  result.Failed,
		},
	})
}

// ListAttempts returns delivery log rows, newest first
func (h *NotificationHandler) ListAttempts(c *fiber.Ctx) error {
	filter := models.AttemptFilter{
		CorrelationKey: strings.TrimSpace(c.Query("correlation_key")),
		Limit:          c.QueryInt("limit", 0),
	}

	if v := c.Query("recipient_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid recipient_id")
		}
		filter.RecipientID = uint(id)
	}
	if v := c.Query("type"); v != "" {
		t, ok := parseType(v)
		if !ok {
			return badRequest(c, "Unknown notification type: "+v)
		}
		filter.Type = t
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "Invalid since, expected RFC3339")
		}
		filter.Since = since
	}

	attempts, err := h.deliveries.List(c.UserContext(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch delivery attempts",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    attempts,
	})
}

func parseType(raw string) (models.NotificationType, bool) {
	t := models.NotificationType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
