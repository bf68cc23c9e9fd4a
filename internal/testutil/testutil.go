// Package testutil builds throwaway stores for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fortmix-erp/internal/config"
	"fortmix-erp/internal/database"
	"fortmix-erp/internal/models"
	"fortmix-erp/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database that lives in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.Database{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "fortmix_test.db"),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewStore returns a store over a fresh database using UTC day boundaries.
func NewStore(t *testing.T, opts store.Options) (*store.GormStore, *gorm.DB) {
	t.Helper()

	db := NewDB(t)
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return store.NewGormStore(db, opts), db
}

// SeedUser inserts a user directly, bypassing the audit trail.
func SeedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "not-a-real-hash",
		Name:         username + " name",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedProduct inserts a product directly with the given prices and stock.
func SeedProduct(t *testing.T, db *gorm.DB, code string, price, cost string, stock, minStock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Code:          code,
		Name:          "Product " + code,
		Category:      "General",
		Price:         decimal.RequireFromString(price),
		CostPrice:     decimal.RequireFromString(cost),
		StockQuantity: stock,
		MinStock:      minStock,
		Unit:          "un",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.WithContext(context.Background()).First(&product, productID).Error)
	return product.StockQuantity
}

// Count returns the row count of model's table.
func Count(t *testing.T, db *gorm.DB, model any, where ...any) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
