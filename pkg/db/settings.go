package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db       *gorm.DB
	defaults UserSettings
}

// NewSettingsRepository returns a repository that falls back to defaults for
// users without a stored row.
func NewSettingsRepository(gdb *gorm.DB, defaults UserSettings) *SettingsRepository {
	return &SettingsRepository{db: gdb, defaults: defaults}
}

func (r *SettingsRepository) Load(userID int64) (UserSettings, error) {
	var settings UserSettings
	err := r.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = r.defaults
		settings.ID = 0
		settings.UserID = userID
		return settings, nil
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Save upserts by user id; the primary key of a loaded row is ignored.
func (r *SettingsRepository) Save(settings UserSettings) error {
	settings.ID = 0
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"daily_new_cards", "daily_review_cards", "drill_type",
			"reminder_enabled", "reminder_hour", "timezone_offset_hours",
		}),
	}).Create(&settings).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// WithReminders lists stored settings that have the daily reminder switched on.
func (r *SettingsRepository) WithReminders() ([]UserSettings, error) {
	var users []UserSettings
	if err := r.db.Where("reminder_enabled = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list reminder settings: %w", err)
	}
	return users, nil
}

func (r *SettingsRepository) MarkReminded(userID int64, at time.Time) error {
	err := r.db.Model(&UserSettings{}).
		Where("user_id = ?", userID).
		Update("last_reminder_at", at).Error
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
