package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var (
	ErrItemExists   = errors.New("vocabulary item already exists")
	ErrEmptyItem    = errors.New("vocabulary item needs both sides")
	ErrItemNotFound = errors.New("vocabulary item not found")
)

// CatalogRepository holds the ordered vocabulary of every user.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(gdb *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: gdb}
}

// AddItem appends a word pair at the end of the user's catalog and assigns it a
// fresh item id.
func (r *CatalogRepository) AddItem(userID int64, word1, word2 string) (VocabularyItem, error) {
	word1 = strings.TrimSpace(word1)
	word2 = strings.TrimSpace(word2)
	if word1 == "" || word2 == "" {
		return VocabularyItem{}, ErrEmptyItem
	}

	var item VocabularyItem
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&VocabularyItem{}).
			Where("user_id = ? AND word1 = ?", userID, word1).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrItemExists
		}

		var maxRank int
		if err := tx.Model(&VocabularyItem{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(sort_rank), 0)").
			Scan(&maxRank).Error; err != nil {
			return err
		}

		item = VocabularyItem{
			UserID: userID,
			ItemID: uuid.NewString(),
			Word1:  word1,
			Word2:  word2,
			Rank:   maxRank + 1,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		if errors.Is(err, ErrItemExists) {
			return VocabularyItem{}, err
		}
		return VocabularyItem{}, fmt.Errorf("add vocabulary item: %w", err)
	}
	return item, nil
}

// ItemIDs returns the user's item ids in catalog order.
func (r *CatalogRepository) ItemIDs(userID int64) ([]string, error) {
	var ids []string
	err := r.db.Model(&VocabularyItem{}).
		Where("user_id = ?", userID).
		Order("sort_rank ASC").
		Order("id ASC").
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	return ids, nil
}

func (r *CatalogRepository) Item(userID int64, itemID string) (VocabularyItem, error) {
	var item VocabularyItem
	err := r.db.Where("user_id = ? AND item_id = ?", userID, itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return VocabularyItem{}, ErrItemNotFound
	}
	if err != nil {
		return VocabularyItem{}, fmt.Errorf("load vocabulary item: %w", err)
	}
	return item, nil
}

// Items returns the requested items keyed by item id. Unknown ids are skipped.
func (r *CatalogRepository) Items(userID int64, itemIDs []string) (map[string]VocabularyItem, error) {
	if len(itemIDs) == 0 {
		return map[string]VocabularyItem{}, nil
	}
	var items []VocabularyItem
	if err := r.db.Where("user_id = ? AND item_id IN ?", userID, itemIDs).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load vocabulary items: %w", err)
	}
	return lo.KeyBy(items, func(item VocabularyItem) string { return item.ItemID }), nil
}

func (r *CatalogRepository) Count(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&VocabularyItem{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
