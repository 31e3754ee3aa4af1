package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/dto"
	"github.com/subtrackapp/subtrack-backend/internal/services"
	"gorm.io/gorm"
)

// DetectionHandler exposes the detect-and-reconcile run. With
// ?dry_run=true the engine reports its diagnostics without writing any
// subscription — the same code path, reporting only.
type DetectionHandler struct {
	sync *services.SyncService
}

func NewDetectionHandler(sync *services.SyncService) *DetectionHandler {
	return &DetectionHandler{sync: sync}
}

func (h *DetectionHandler) Run(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}
	dryRun := c.QueryBool("dry_run", false)

	summary, err := h.sync.RunForUser(userID, dryRun)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "user not found"})
		}
		slog.Error("detection run failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "detection run failed"})
	}
	return c.JSON(summary)
}
