package store

import (
	"context"
	"fmt"

	"fortmix-erp/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RecordStockMovement applies a manual IN or ADJ entry to the product's stock
// and appends the ledger and audit rows atomically.
func (s *GormStore) RecordStockMovement(ctx context.Context, in MovementInput) (*models.StockMovement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID: in.ProductID,
		UserID:    in.UserID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	}

	err := s.execute(ctx, func(tx *gorm.DB) error {
		if err := s.changeStock(tx, in.ProductID, in.Quantity); err != nil {
			return err
		}
		if err := tx.Create(movement).Error; err != nil {
			return errors.Wrap(err, "insert stock movement")
		}
		return appendAudit(tx, in.UserID, "CREATE", "stock_movement",
			fmt.Sprintf("%s %+d on product #%d: %s", in.Type, in.Quantity, in.ProductID, in.Reason))
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *GormStore) ListStockMovements(ctx context.Context, r Range, limit int) ([]StockMovementView, error) {
	movements := []StockMovementView{}
	q := s.db.WithContext(ctx).Table("stock_movements").
		Select("stock_movements.*, COALESCE(products.name, '') AS product_name, COALESCE(users.name, '') AS user_name").
		Joins("LEFT JOIN products ON products.id = stock_movements.product_id").
		Joins("LEFT JOIN users ON users.id = stock_movements.user_id")
	q = applyRange(q, "stock_movements.created_at", r)

	err := q.Order("stock_movements.created_at DESC, stock_movements.id DESC").Limit(limit).Scan(&movements).Error
	if err != nil {
		return nil, errors.Wrap(err, "list stock movements")
	}
	return movements, nil
}
