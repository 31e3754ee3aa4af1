package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/subtrackapp/subtrack-backend/internal/models"
	"github.com/subtrackapp/subtrack-backend/internal/scope"
	"gorm.io/gorm"
)

// ErrInvalidTransition reports a status change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// SubscriptionService persists subscription records and implements
// generator.Store for the reconcile step.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// FindExisting looks up the user's active-or-paused subscription whose
// merchant or name matches any of the lowercase variants. When an account
// ID is supplied the scoped lookup runs first; scoping is best-effort, so
// a miss falls back to the unscoped query rather than failing.
func (s *SubscriptionService) FindExisting(userID uuid.UUID, nameVariants []string, accountID *string) (*models.Subscription, error) {
	if len(nameVariants) == 0 {
		return nil, nil
	}

	base := func() *gorm.DB {
		return s.db.
			Scopes(scope.ForUser(userID), scope.WithStatuses(models.SubscriptionActive, models.SubscriptionPaused)).
			Where("LOWER(merchant) IN ? OR LOWER(name) IN ?", nameVariants, nameVariants)
	}

	var sub models.Subscription
	if accountID != nil {
		err := base().Where("account_id = ?", *accountID).First(&sub).Error
		if err == nil {
			return &sub, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := base().First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) Create(sub *models.Subscription) error {
	return s.db.Create(sub).Error
}

func (s *SubscriptionService) Update(sub *models.Subscription) error {
	return s.db.Save(sub).Error
}

// List returns a user's subscriptions, optionally filtered by status.
func (s *SubscriptionService) List(userID uuid.UUID, status string) ([]models.Subscription, error) {
	q := s.db.Scopes(scope.ForUser(userID)).Order("renewal_date ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var subs []models.Subscription
	err := q.Find(&subs).Error
	return subs, err
}

// allowedTransitions is the subscription status state machine. The
// detection engine only ever creates active records or promotes paused to
// active; everything here is user-initiated.
var allowedTransitions = map[string][]string{
	models.SubscriptionActive:    {models.SubscriptionPaused, models.SubscriptionCancelled},
	models.SubscriptionPaused:    {models.SubscriptionActive, models.SubscriptionCancelled},
	models.SubscriptionCancelled: {},
}

// SetStatus applies a user-initiated status transition.
func (s *SubscriptionService) SetStatus(id uuid.UUID, status string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if sub.Status == status {
		return &sub, nil
	}
	allowed := false
	for _, next := range allowedTransitions[sub.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, status)
	}

	if err := s.db.Model(&sub).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}
