package sequence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
)

// Orders is the counter backing order display ids.
const Orders = "orders"

const displayIDPrefix = "ORD"

// NextDisplayID increments the named counter inside the caller's transaction
// and returns the formatted display id. The UPDATE takes a row lock, so two
// concurrent transactions can never observe the same value; past 9999 the
// numeric part simply grows. Callers must run this inside the transaction
// that also persists whatever consumes the id. A rollback undoes the
// increment, so the value is handed out again on the next allocation.
func NextDisplayID(ctx context.Context, tx *gorm.DB, name string) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("transaction required")
	}
	if name == "" {
		name = Orders
	}

	res := tx.WithContext(ctx).
		Model(&models.Sequence{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("increment sequence %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		// First use on a fresh database; the migration normally seeds the row.
		if err := tx.WithContext(ctx).Create(&models.Sequence{Name: name, Value: 1}).Error; err != nil {
			return "", fmt.Errorf("seed sequence %s: %w", name, err)
		}
		return Format(1), nil
	}

	var seq models.Sequence
	if err := tx.WithContext(ctx).Where("name = ?", name).First(&seq).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("sequence %s vanished mid-transaction", name)
		}
		return "", fmt.Errorf("read sequence %s: %w", name, err)
	}

	return Format(seq.Value), nil
}

// Format renders a counter value as a display id (ORD-0001).
func Format(value int64) string {
	return fmt.Sprintf("%s-%04d", displayIDPrefix, value)
}
