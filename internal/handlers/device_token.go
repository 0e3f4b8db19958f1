package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/zlog"
)

// DeviceTokenHandler registers and removes push tokens
type DeviceTokenHandler struct {
	tokens repository.DeviceTokenStore
}

func NewDeviceTokenHandler(tokens repository.DeviceTokenStore) *DeviceTokenHandler {
	return &DeviceTokenHandler{tokens: tokens}
}

// RegisterTokenRequest is the body of PUT /api/users/:id/push-token
type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register stores the user's push token, replacing any previous one
func (h *DeviceTokenHandler) Register(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || userID == 0 {
		return badRequest(c, "Invalid user ID")
	}

	var req RegisterTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return badRequest(c, "token is required")
	}
	platform := models.PushPlatform(strings.ToLower(strings.TrimSpace(req.Platform)))
	if platform != models.PlatformAndroid && platform != models.PlatformIOS {
		return badRequest(c, "platform must be android or ios")
	}

	if err := h.tokens.SetToken(c.UserContext(), uint(userID), req.Token, platform); err != nil {
		if errors.Is(err, models.ErrRecipientNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}
		zlog.Error("Failed to register push token", zap.Uint64("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to register push token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Push token registered",
	})
}

// Remove clears the user's push token (logout, uninstall)
func (h *DeviceTokenHandler) Remove(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || userID == 0 {
		return badRequest(c, "Invalid user ID")
	}

	// Empty token clears unconditionally
	if _, err := h.tokens.ClearToken(c.UserContext(), uint(userID), c.Query("token")); err != nil {
		zlog.Error("Failed to clear push token", zap.Uint64("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to clear push token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Push token cleared",
	})
}
