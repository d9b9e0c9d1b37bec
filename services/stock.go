package services

import (
	"errors"
	"fmt"

	"ahub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNegativeStock = errors.New("adjustment would drive stock negative")
	ErrItemNotFound  = errors.New("item not found")
)

// AdjustStock applies a signed delta to an item's stock counter and writes the
// matching movement row in the same transaction. The counter update is a
// guarded conditional UPDATE, so concurrent decrements against the same item
// cannot jointly drive it negative; the loser fails with ErrNegativeStock.
func AdjustStock(tx *gorm.DB, itemType string, itemID uuid.UUID, delta int, reason string) (int, error) {
	var model interface{}
	switch itemType {
	case models.StockItemStore:
		model = &models.StoreItem{}
	case models.StockItemKyosk:
		model = &models.KyoskProduct{}
	default:
		return 0, fmt.Errorf("unknown stock item type %q", itemType)
	}

	res := tx.Model(model).
		Where("id = ? AND stock + ? >= 0", itemID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the item is gone or the guard rejected the delta.
		var count int64
		if err := tx.Model(model).Where("id = ?", itemID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrItemNotFound
		}
		return 0, ErrNegativeStock
	}

	movement := models.StockMovement{
		ID:       uuid.New(),
		ItemType: itemType,
		ItemID:   itemID,
		Quantity: delta,
		Reason:   reason,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return 0, err
	}

	var stock int
	if err := tx.Model(model).Where("id = ?", itemID).Select("stock").Scan(&stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}
