package store

import (
	"context"
	"fmt"

	"fortmix-erp/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordSale writes the sale header, one item and one OUT movement per cart
// line, the stock decrements and the audit entry in one transaction. Either
// all of it is committed or none of it is.
func (s *GormStore) RecordSale(ctx context.Context, in SaleInput) (*models.Sale, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sale := &models.Sale{
		UserID:        in.UserID,
		Total:         in.Total.Round(2),
		PaymentMethod: in.PaymentMethod,
	}
	items := make([]models.SaleItem, 0, len(in.Items))

	err := s.execute(ctx, func(tx *gorm.DB) error {
		// 1. Sale header first, the lines need its id
		if err := tx.Create(sale).Error; err != nil {
			return errors.Wrap(err, "insert sale")
		}

		// 2. Lines in the order the cashier entered them
		for _, line := range in.Items {
			if err := s.changeStock(tx, line.ProductID, -line.Quantity); err != nil {
				return err
			}

			cost, err := costPrice(tx, line.ProductID)
			if err != nil {
				return err
			}

			item := models.SaleItem{
				SaleID:    sale.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
				CostPrice: cost,
			}
			if err := tx.Create(&item).Error; err != nil {
				return errors.Wrap(err, "insert sale item")
			}
			items = append(items, item)

			movement := models.StockMovement{
				ProductID: line.ProductID,
				UserID:    in.UserID,
				SaleID:    &sale.ID,
				Type:      models.MovementOut,
				Quantity:  line.Quantity,
				Reason:    fmt.Sprintf("Sale #%d", sale.ID),
			}
			if err := tx.Create(&movement).Error; err != nil {
				return errors.Wrap(err, "insert stock movement")
			}
		}

		// 3. One audit entry for the whole sale
		return appendAudit(tx, in.UserID, "CREATE", "sale",
			fmt.Sprintf("Sale #%d total %s (%d items, %s)", sale.ID, sale.Total.StringFixed(2), len(items), sale.PaymentMethod))
	})
	if err != nil {
		return nil, err
	}

	sale.Items = items
	return sale, nil
}

// changeStock applies delta as a single UPDATE so concurrent sales of the
// same product never lose each other's decrement. In strict mode the UPDATE
// only matches while the result stays non-negative.
func (s *GormStore) changeStock(tx *gorm.DB, productID uint, delta int) error {
	q := tx.Model(&models.Product{}).Where("id = ?", productID)
	if s.strictStock && delta < 0 {
		q = q.Where("stock_quantity >= ?", -delta)
	}

	res := q.Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return errors.Wrap(res.Error, "update stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if s.strictStock && delta < 0 {
		var n int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check product")
		}
		if n > 0 {
			return ErrInsufficientStock
		}
	}
	return ErrProductNotFound
}

// costPrice reads the product's current cost for the item snapshot. A
// missing cost counts as zero.
func costPrice(tx *gorm.DB, productID uint) (decimal.Decimal, error) {
	var row struct {
		CostPrice decimal.NullDecimal
	}
	err := tx.Model(&models.Product{}).Select("cost_price").Where("id = ?", productID).Take(&row).Error
	if err != nil {
		return decimal.Zero, translate(err, ErrProductNotFound)
	}
	if !row.CostPrice.Valid {
		return decimal.Zero, nil
	}
	return row.CostPrice.Decimal, nil
}
