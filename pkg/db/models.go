package db

import (
	"time"

	"gorm.io/datatypes"
)

// VocabularyItem is one catalog entry. ItemID is the stable key review cards refer to.
type VocabularyItem struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;uniqueIndex:idx_vocabulary_user_word1"`
	ItemID    string `gorm:"not null;uniqueIndex"`
	Word1     string `gorm:"not null;uniqueIndex:idx_vocabulary_user_word1"`
	Word2     string `gorm:"not null"`
	Rank      int    `gorm:"column:sort_rank;not null;default:0"`
	CreatedAt time.Time
}

type ReviewCard struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         int64     `gorm:"index;uniqueIndex:idx_review_card_user_item;index:idx_review_card_user_due"`
	ItemID         string    `gorm:"not null;uniqueIndex:idx_review_card_user_item"`
	EaseFactor     float64   `gorm:"not null;default:2.5"`
	IntervalDays   int       `gorm:"not null;default:0"`
	Repetitions    int       `gorm:"not null;default:0"`
	NextReviewAt   time.Time `gorm:"not null;index:idx_review_card_user_due"`
	LastReviewedAt *time.Time
	UpdatedAt      time.Time
}

type UserSettings struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           int64  `gorm:"uniqueIndex"`
	DailyNewCards    int    `gorm:"not null"`
	DailyReviewCards int    `gorm:"not null"`
	DrillType        string `gorm:"not null;default:flashcard"`

	ReminderEnabled     bool
	ReminderHour        int
	TimezoneOffsetHours int
	LastReminderAt      *time.Time
}

type TrainingSession struct {
	ID                uint           `gorm:"primaryKey"`
	ChatID            int64          `gorm:"index;uniqueIndex:idx_training_session_user_chat"`
	UserID            int64          `gorm:"index;uniqueIndex:idx_training_session_user_chat"`
	ItemIDs           datatypes.JSON `gorm:"not null"`
	DrillType         string         `gorm:"not null;default:flashcard"`
	CurrentIndex      int            `gorm:"not null;default:0"`
	CorrectCount      int            `gorm:"not null;default:0"`
	IncorrectCount    int            `gorm:"not null;default:0"`
	CurrentToken      string         `gorm:"not null;default:''"`
	CurrentMessageID  int            `gorm:"not null;default:0"`
	CurrentPromptText string         `gorm:"not null;default:''"`
	StartedAt         time.Time      `gorm:"not null"`
	LastActivityAt    time.Time      `gorm:"not null"`
	ExpiresAt         time.Time      `gorm:"not null;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type StudyStats struct {
	ID             uint           `gorm:"primaryKey"`
	UserID         int64          `gorm:"uniqueIndex"`
	TotalStudied   int            `gorm:"not null;default:0"`
	TotalCorrect   int            `gorm:"not null;default:0"`
	TotalIncorrect int            `gorm:"not null;default:0"`
	Streak         int            `gorm:"not null;default:0"`
	LastStudyAt    *time.Time
	CardsPerDay    datatypes.JSON `gorm:"not null"`
	UpdatedAt      time.Time
}

func (StudyStats) TableName() string {
	return "study_stats"
}

// Models lists every table managed by auto-migration.
func Models() []interface{} {
	return []interface{}{
		&VocabularyItem{},
		&ReviewCard{},
		&UserSettings{},
		&TrainingSession{},
		&StudyStats{},
	}
}
