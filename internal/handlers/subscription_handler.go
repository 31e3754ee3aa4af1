package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/dto"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"github.com/subtrackapp/subtrack-backend/internal/services"
	"gorm.io/gorm"
)

type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	subs, err := h.subscriptions.List(userID, c.Query("status"))
	if err != nil {
		slog.Error("subscription list failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to list subscriptions"})
	}
	return c.JSON(subs)
}

// SetStatus applies user-initiated status transitions (pause, resume,
// cancel). The detection engine never cancels anything itself.
func (h *SubscriptionHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid subscription id"})
	}

	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case models.SubscriptionActive, models.SubscriptionPaused, models.SubscriptionCancelled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unknown status"})
	}

	sub, err := h.subscriptions.SetStatus(id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "subscription not found"})
		}
		if errors.Is(err, services.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		slog.Error("status update failed", "subscription_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to update status"})
	}
	return c.JSON(sub)
}
