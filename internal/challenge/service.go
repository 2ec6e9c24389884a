package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trading-journal-go/internal/ai"
	"trading-journal-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrQuotaExhausted is returned when a user has no generations left today.
var ErrQuotaExhausted = errors.New("challenge quota exhausted")

// quotaResetInterval is how long a quota row stays stale before it refills.
const quotaResetInterval = 24 * time.Hour

// Service generates quota-gated quiz challenges.
type Service struct {
	db         *gorm.DB
	aiClient   ai.ClientInterface
	dailyQuota int
	log        *zap.Logger
}

// NewService creates a new challenge service.
func NewService(db *gorm.DB, aiClient ai.ClientInterface, dailyQuota int, log *zap.Logger) *Service {
	return &Service{
		db:         db,
		aiClient:   aiClient,
		dailyQuota: dailyQuota,
		log:        log.Named("challenge"),
	}
}

// Generate checks and decrements the user's quota, asks the AI for one
// question, and persists it.
func (s *Service) Generate(ctx context.Context, userID, difficulty string) (*models.Challenge, error) {
	quota, err := s.quotaFor(userID)
	if err != nil {
		return nil, err
	}
	if quota.QuotaRemaining <= 0 {
		return nil, ErrQuotaExhausted
	}

	data, err := s.aiClient.GenerateChallenge(ctx, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}

	options, err := json.Marshal(data.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge options: %w", err)
	}

	challenge := models.Challenge{
		Difficulty:      difficulty,
		CreatedBy:       userID,
		Title:           data.Title,
		Options:         string(options),
		CorrectAnswerID: data.CorrectAnswerID,
		Explanation:     data.Explanation,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("failed to save challenge: %w", err)
		}
		quota.QuotaRemaining--
		if err := tx.Save(quota).Error; err != nil {
			return fmt.Errorf("failed to decrement quota: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Generated challenge",
		zap.String("user_id", userID),
		zap.String("difficulty", difficulty),
		zap.Int("quota_remaining", quota.QuotaRemaining),
	)
	return &challenge, nil
}

// History returns every challenge a user has generated.
func (s *Service) History(userID string) ([]models.Challenge, error) {
	var challenges []models.Challenge
	if err := s.db.Where("created_by = ?", userID).Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}

// Quota returns the user's current quota, creating or resetting it as needed.
func (s *Service) Quota(userID string) (*models.ChallengeQuota, error) {
	return s.quotaFor(userID)
}

// quotaFor loads the user's quota row, creating it on first use and refilling
// it once the reset interval has passed.
func (s *Service) quotaFor(userID string) (*models.ChallengeQuota, error) {
	var quota models.ChallengeQuota
	err := s.db.Where("user_id = ?", userID).First(&quota).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		quota = models.ChallengeQuota{
			UserID:         userID,
			QuotaRemaining: s.dailyQuota,
			LastResetDate:  time.Now(),
		}
		if err := s.db.Create(&quota).Error; err != nil {
			return nil, fmt.Errorf("failed to create quota: %w", err)
		}
		return &quota, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}

	if time.Since(quota.LastResetDate) > quotaResetInterval {
		quota.QuotaRemaining = s.dailyQuota
		quota.LastResetDate = time.Now()
		if err := s.db.Save(&quota).Error; err != nil {
			return nil, fmt.Errorf("failed to reset quota: %w", err)
		}
	}
	return &quota, nil
}
