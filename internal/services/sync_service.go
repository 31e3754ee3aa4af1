package services

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/config"
	"github.com/subtrackapp/subtrack-backend/internal/detector"
	"github.com/subtrackapp/subtrack-backend/internal/generator"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"gorm.io/gorm"
)

// RunSummary is what callers see after a detect-and-reconcile run. In dry
// runs the reconcile counters stay zero and the report carries the full
// diagnostics.
type RunSummary struct {
	UserID   uuid.UUID       `json:"user_id"`
	DryRun   bool            `json:"dry_run"`
	Detected int             `json:"detected"`
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Failed   int             `json:"failed"`
	Report   detector.Report `json:"report"`
}

// SyncService runs the detection pipeline end to end for one user:
// load the transaction window, detect recurring patterns, reconcile them
// into subscription records. Runs for different users are independent and
// may be scheduled concurrently.
type SyncService struct {
	db           *gorm.DB
	cfg          *config.Config
	transactions *TransactionService
	detector     *detector.Detector
	generator    *generator.Generator
}

func NewSyncService(db *gorm.DB, cfg *config.Config, txs *TransactionService, det *detector.Detector, gen *generator.Generator) *SyncService {
	return &SyncService{
		db:           db,
		cfg:          cfg,
		transactions: txs,
		detector:     det,
		generator:    gen,
	}
}

// RunForUser executes one detection run. With dryRun set, patterns are
// detected and reported but no subscription is written.
func (s *SyncService) RunForUser(userID uuid.UUID, dryRun bool) (*RunSummary, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	country := user.Country
	if country == "" {
		country = s.cfg.DefaultCountry
	}

	txs, err := s.transactions.Window(userID, s.cfg.DetectionWindowMonths)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	result := s.detector.Detect(txs, userID, country)

	summary := &RunSummary{
		UserID:   userID,
		DryRun:   dryRun,
		Detected: len(result.Patterns),
		Report:   result.Report,
	}
	if dryRun {
		return summary, nil
	}

	recon := s.generator.Reconcile(userID, result.Patterns)
	summary.Created = recon.Created
	summary.Updated = recon.Updated
	summary.Failed = recon.Failed
	return summary, nil
}

// RunAll executes a detection run for every user, isolating per-user
// failures. Invoked by the periodic worker.
func (s *SyncService) RunAll() {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		slog.Error("sync run aborted, cannot list users", "error", err)
		return
	}

	for _, u := range users {
		summary, err := s.RunForUser(u.ID, false)
		if err != nil {
			slog.Error("sync run failed for user", "user_id", u.ID, "error", err)
			continue
		}
		slog.Info("sync run finished",
			"user_id", u.ID,
			"detected", summary.Detected,
			"created", summary.Created,
			"updated", summary.Updated,
			"failed", summary.Failed)
	}
}
