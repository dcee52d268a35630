package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/stats"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository persists one user's study statistics. Writes through one
// repository are serialized, so share a single instance per user.
type StatsRepository struct {
	mu     sync.Mutex
	db     *gorm.DB
	userID int64
}

func NewStatsRepository(gdb *gorm.DB, userID int64) *StatsRepository {
	return &StatsRepository{db: gdb, userID: userID}
}

func (r *StatsRepository) Load() (stats.Stats, error) {
	var row StudyStats
	err := r.db.Where("user_id = ?", r.userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stats.New(), nil
	}
	if err != nil {
		return stats.Stats{}, fmt.Errorf("load study stats: %w", err)
	}
	return row.toStats()
}

// RecordAnswer folds one answer into the stored statistics.
func (r *StatsRepository) RecordAnswer(correct bool, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Load()
	if err != nil {
		return err
	}
	row, err := fromStats(r.userID, stats.Record(current, correct, now))
	if err != nil {
		return err
	}
	err = r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_studied", "total_correct", "total_incorrect",
			"streak", "last_study_at", "cards_per_day", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save study stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Where("user_id = ?", r.userID).Delete(&StudyStats{}).Error; err != nil {
		return fmt.Errorf("reset study stats: %w", err)
	}
	return nil
}

func fromStats(userID int64, s stats.Stats) (StudyStats, error) {
	perDay := s.CardsPerDay
	if perDay == nil {
		perDay = map[string]int{}
	}
	encoded, err := json.Marshal(perDay)
	if err != nil {
		return StudyStats{}, fmt.Errorf("encode cards per day: %w", err)
	}
	row := StudyStats{
		UserID:         userID,
		TotalStudied:   s.TotalStudied,
		TotalCorrect:   s.TotalCorrect,
		TotalIncorrect: s.TotalIncorrect,
		Streak:         s.Streak,
		CardsPerDay:    datatypes.JSON(encoded),
	}
	if s.LastStudyDate != nil {
		last := s.LastStudyDate.UTC()
		row.LastStudyAt = &last
	}
	return row, nil
}

func (row StudyStats) toStats() (stats.Stats, error) {
	out := stats.New()
	if len(row.CardsPerDay) > 0 {
		if err := json.Unmarshal(row.CardsPerDay, &out.CardsPerDay); err != nil {
			return stats.Stats{}, fmt.Errorf("decode cards per day: %w", err)
		}
	}
	out.TotalStudied = row.TotalStudied
	out.TotalCorrect = row.TotalCorrect
	out.TotalIncorrect = row.TotalIncorrect
	out.Streak = row.Streak
	if row.LastStudyAt != nil {
		last := row.LastStudyAt.UTC()
		out.LastStudyDate = &last
	}
	return out, nil
}
