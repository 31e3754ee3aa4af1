package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/dto"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"github.com/subtrackapp/subtrack-backend/internal/services"
)

// TransactionHandler is the ingest boundary the bank-data aggregation
// client pushes synced transactions through.
type TransactionHandler struct {
	transactions *services.TransactionService
}

func NewTransactionHandler(transactions *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

func (h *TransactionHandler) Ingest(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	var req dto.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	txs := make([]models.Transaction, 0, len(req.Transactions))
	for _, in := range req.Transactions {
		if in.ID == "" {
			continue
		}
		currency := in.Currency
		if currency == "" {
			currency = "USD"
		}
		txs = append(txs, models.Transaction{
			ID:        in.ID,
			AccountID: in.AccountID,
			Amount:    in.Amount,
			Currency:  currency,
			Date:      in.Date,
			Merchant:  in.Merchant,
			Category:  in.Category,
		})
	}

	stored, err := h.transactions.Ingest(userID, txs)
	if err != nil {
		slog.Error("transaction ingest failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to store transactions"})
	}
	return c.JSON(dto.IngestResponse{Received: len(req.Transactions), Stored: stored})
}
