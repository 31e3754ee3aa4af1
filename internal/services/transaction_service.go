package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"github.com/subtrackapp/subtrack-backend/internal/normalizer"
	"github.com/subtrackapp/subtrack-backend/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionService stores synced transactions and serves them to the
// detection pipeline.
type TransactionService struct {
	db *gorm.DB
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// Ingest upserts a batch from the aggregation provider, keyed by the
// provider's transaction ID so repeated syncs stay idempotent. The
// normalized merchant is computed once at ingest and cached on the row.
func (s *TransactionService) Ingest(userID uuid.UUID, txs []models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	for i := range txs {
		txs[i].UserID = userID
		if txs[i].NormalizedMerchant == "" {
			txs[i].NormalizedMerchant = normalizer.Normalize(txs[i].Merchant)
		}
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).CreateInBatches(txs, 100)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// Window returns a user's transactions from the last N months, oldest
// first.
func (s *TransactionService) Window(userID uuid.UUID, months int) ([]models.Transaction, error) {
	cutoff := time.Now().AddDate(0, -months, 0)
	var txs []models.Transaction
	err := s.db.Scopes(scope.ForUser(userID)).
		Where("date >= ?", cutoff).
		Order("date ASC").
		Find(&txs).Error
	return txs, err
}
