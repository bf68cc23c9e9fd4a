package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The browser client expects plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role - What a user is allowed to do
type Role string

const (
	RoleOwner       Role = "Owner"
	RoleManager     Role = "Manager"
	RoleSalesperson Role = "Salesperson"
	RoleStockClerk  Role = "StockClerk"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleSalesperson, RoleStockClerk:
		return true
	}
	return false
}

// MovementType - Direction of a stock ledger entry
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJ"
)

// User - The person operating the store
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	Name         string    `gorm:"size:120" json:"name"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Category      string          `gorm:"size:100" json:"category"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"cost_price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"` // may go negative when oversold
	MinStock      int             `gorm:"not null;default:0" json:"min_stock"`
	Unit          string          `gorm:"size:20;default:'un'" json:"unit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Critical reports whether the product sits at or under its minimum stock.
func (p Product) Critical() bool {
	return p.StockQuantity <= p.MinStock
}

// Sale - The Transaction Header
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"` // Who processed it
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod string          `gorm:"size:30;not null" json:"payment_method"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// SaleItem - One line of a sale. Price and CostPrice are snapshots taken
// when the sale was recorded and never follow later product edits.
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"cost_price"`
}

// StockMovement - Append-only stock ledger entry
type StockMovement struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	ProductID uint         `gorm:"index;not null" json:"product_id"`
	UserID    uint         `gorm:"index" json:"user_id"`
	SaleID    *uint        `gorm:"index" json:"sale_id,omitempty"`
	Type      MovementType `gorm:"size:3;not null" json:"type"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	Reason    string       `gorm:"size:255" json:"reason"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// AuditLog - Append-only record of who did what
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:30;not null" json:"action"`
	Entity    string    `gorm:"size:30;not null" json:"entity"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
