package challenge

import (
	"context"
	"testing"
	"time"

	"trading-journal-go/internal/ai"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockAIClient is a mock implementation of the ai.ClientInterface.
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) ParseTrades(ctx context.Context, csvText string) ([]journal.TradePayload, error) {
	args := m.Called(ctx, csvText)
	return args.Get(0).([]journal.TradePayload), args.Error(1)
}

func (m *MockAIClient) GenerateChallenge(ctx context.Context, difficulty string) (*ai.ChallengeData, error) {
	args := m.Called(ctx, difficulty)
	return args.Get(0).(*ai.ChallengeData), args.Error(1)
}

func setupService(t *testing.T, dailyQuota int) (*Service, *MockAIClient, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Challenge{}, &models.ChallengeQuota{}))

	mockClient := new(MockAIClient)
	return NewService(db, mockClient, dailyQuota, zap.NewNop()), mockClient, db
}

func sampleChallenge() *ai.ChallengeData {
	return &ai.ChallengeData{
		Title:           "What does averaging down into a loser usually indicate?",
		Options:         []string{"Discipline", "Hope trading", "Scaling", "Hedging"},
		CorrectAnswerID: 1,
		Explanation:     "Adding to losers without a plan is hope, not strategy.",
	}
}

func TestGenerate_CreatesChallengeAndDecrementsQuota(t *testing.T) {
	svc, mockClient, _ := setupService(t, 10)
	mockClient.On("GenerateChallenge", mock.Anything, "easy").Return(sampleChallenge(), nil)

	challenge, err := svc.Generate(context.Background(), "user-1", "easy")
	require.NoError(t, err)
	assert.Equal(t, "easy", challenge.Difficulty)
	assert.Equal(t, "user-1", challenge.CreatedBy)
	assert.Equal(t, 1, challenge.CorrectAnswerID)
	assert.Contains(t, challenge.Options, "Hope trading")

	quota, err := svc.Quota("user-1")
	require.NoError(t, err)
	assert.Equal(t, 9, quota.QuotaRemaining)
	mockClient.AssertExpectations(t)
}

func TestGenerate_QuotaExhausted(t *testing.T) {
	svc, mockClient, _ := setupService(t, 1)
	mockClient.On("GenerateChallenge", mock.Anything, "hard").Return(sampleChallenge(), nil).Once()

	_, err := svc.Generate(context.Background(), "user-1", "hard")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "user-1", "hard")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	mockClient.AssertExpectations(t)
}

func TestQuota_ResetsAfterInterval(t *testing.T) {
	svc, _, db := setupService(t, 10)

	stale := models.ChallengeQuota{
		UserID:         "user-1",
		QuotaRemaining: 0,
		LastResetDate:  time.Now().Add(-25 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	quota, err := svc.Quota("user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, quota.QuotaRemaining)
	assert.WithinDuration(t, time.Now(), quota.LastResetDate, time.Minute)
}

func TestQuota_CreatedOnFirstUse(t *testing.T) {
	svc, _, _ := setupService(t, 10)

	quota, err := svc.Quota("new-user")
	require.NoError(t, err)
	assert.Equal(t, 10, quota.QuotaRemaining)
}

func TestHistory(t *testing.T) {
	svc, mockClient, _ := setupService(t, 10)
	mockClient.On("GenerateChallenge", mock.Anything, "easy").Return(sampleChallenge(), nil)

	_, err := svc.Generate(context.Background(), "user-1", "easy")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "user-1", "easy")
	require.NoError(t, err)

	history, err := svc.History("user-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	other, err := svc.History("user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
