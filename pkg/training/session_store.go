package training

import (
	"errors"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps in-progress sessions across restarts.
type SessionStore interface {
	Load(chatID, userID int64, now time.Time) (*db.TrainingSession, error)
	Upsert(row *db.TrainingSession) error
	Delete(chatID, userID int64) error
}

type GormSessionStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewSessionStore(gdb *gorm.DB, ttl time.Duration) *GormSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &GormSessionStore{db: gdb, ttl: ttl}
}

// Load returns the unexpired session for the chat and user, or nil.
func (s *GormSessionStore) Load(chatID, userID int64, now time.Time) (*db.TrainingSession, error) {
	var row db.TrainingSession
	err := s.db.
		Where("chat_id = ? AND user_id = ? AND expires_at > ?", chatID, userID, now).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// Upsert stores row and pushes its expiry to LastActivityAt plus the TTL.
func (s *GormSessionStore) Upsert(row *db.TrainingSession) error {
	if row == nil {
		return nil
	}
	if row.LastActivityAt.IsZero() {
		row.LastActivityAt = time.Now().UTC()
	}
	if row.StartedAt.IsZero() {
		row.StartedAt = row.LastActivityAt
	}
	row.ExpiresAt = row.LastActivityAt.Add(s.ttl)

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "chat_id"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"item_ids", "drill_type", "current_index", "correct_count", "incorrect_count",
			"current_token", "current_message_id", "current_prompt_text",
			"started_at", "last_activity_at", "expires_at", "updated_at",
		}),
	}).Create(row).Error
}

func (s *GormSessionStore) Delete(chatID, userID int64) error {
	return s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&db.TrainingSession{}).Error
}
