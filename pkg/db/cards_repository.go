package db

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-trainer/pkg/srs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CardRepository persists one user's review cards.
type CardRepository struct {
	db     *gorm.DB
	userID int64
}

func NewCardRepository(gdb *gorm.DB, userID int64) *CardRepository {
	return &CardRepository{db: gdb, userID: userID}
}

func (r *CardRepository) LoadCards() (map[string]srs.ReviewCard, error) {
	var rows []ReviewCard
	if err := r.db.Where("user_id = ?", r.userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load review cards: %w", err)
	}
	return lo.Associate(rows, func(row ReviewCard) (string, srs.ReviewCard) {
		return row.ItemID, row.toCard()
	}), nil
}

// SaveCards upserts the full mapping in one transaction.
func (r *CardRepository) SaveCards(cards map[string]srs.ReviewCard) error {
	if len(cards) == 0 {
		return nil
	}
	rows := make([]ReviewCard, 0, len(cards))
	for itemID, card := range cards {
		card.ItemID = itemID
		rows = append(rows, fromCard(r.userID, card))
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ease_factor", "interval_days", "repetitions",
				"next_review_at", "last_reviewed_at", "updated_at",
			}),
		}).CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("save review cards: %w", err)
	}
	return nil
}

func (r *CardRepository) DeleteAll() error {
	if err := r.db.Where("user_id = ?", r.userID).Delete(&ReviewCard{}).Error; err != nil {
		return fmt.Errorf("delete review cards: %w", err)
	}
	return nil
}

func fromCard(userID int64, card srs.ReviewCard) ReviewCard {
	row := ReviewCard{
		UserID:       userID,
		ItemID:       card.ItemID,
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.Interval,
		Repetitions:  card.Repetitions,
		NextReviewAt: card.NextReviewDate.UTC(),
	}
	if card.LastReviewDate != nil {
		last := card.LastReviewDate.UTC()
		row.LastReviewedAt = &last
	}
	return row
}

func (row ReviewCard) toCard() srs.ReviewCard {
	card := srs.ReviewCard{
		ItemID:         row.ItemID,
		EaseFactor:     row.EaseFactor,
		Interval:       row.IntervalDays,
		Repetitions:    row.Repetitions,
		NextReviewDate: row.NextReviewAt.UTC(),
	}
	if row.LastReviewedAt != nil {
		last := row.LastReviewedAt.UTC()
		card.LastReviewDate = &last
	}
	return card
}

