package models

import (
	"time"

	"gorm.io/gorm"
)

// Challenge is one AI-generated quiz question.
type Challenge struct {
	gorm.Model
	Difficulty      string `gorm:"not null"`
	CreatedBy       string `gorm:"index;not null"`
	Title           string `gorm:"not null"`
	Options         string `gorm:"not null"` // JSON-encoded answer list
	CorrectAnswerID int    `gorm:"not null"`
	Explanation     string `gorm:"not null"`
}

// ChallengeQuota tracks how many quiz generations a user has left today.
type ChallengeQuota struct {
	gorm.Model
	UserID         string `gorm:"uniqueIndex;not null"`
	QuotaRemaining int    `gorm:"not null"`
	LastResetDate  time.Time
}
