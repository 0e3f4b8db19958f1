package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/medibook/backend/internal/services"
)

// CampaignRunner runs a named campaign sweep on demand
type CampaignRunner interface {
	Run(ctx context.Context, job string) (services.CampaignResult, error)
}

// CampaignHandler triggers campaign sweeps manually
type CampaignHandler struct {
	runner CampaignRunner
}

func NewCampaignHandler(runner CampaignRunner) *CampaignHandler {
	return &CampaignHandler{runner: runner}
}

// Run executes the sweep named by :job
func (h *CampaignHandler) Run(c *fiber.Ctx) error {
	job := c.Params("job")
	switch job {
	case services.JobReminder, services.JobReviewRequest, services.JobUnansweredChat:
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Unknown campaign job: " + job,
		})
	}

	result, err := h.runner.Run(c.UserContext(), job)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Campaign run failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}
