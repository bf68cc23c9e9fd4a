// Package store is the persistence port of the ERP. A single GORM adapter
// serves every supported SQL backend; callers only see the Store interface.
package store

import (
	"context"
	"errors"
	"time"

	"fortmix-erp/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrInvalidInput      = errors.New("invalid input data")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrTotalMismatch     = errors.New("sale total does not match its items")
)

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCriticalProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, actorID uint, product *models.Product) error
	UpdateProduct(ctx context.Context, actorID uint, product *models.Product) error

	CountUsers(ctx context.Context) (int64, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, actorID uint, user *models.User) error
	UpdateUser(ctx context.Context, actorID uint, id uint, update UserUpdate) error

	RecordSale(ctx context.Context, in SaleInput) (*models.Sale, error)
	RecordStockMovement(ctx context.Context, in MovementInput) (*models.StockMovement, error)
	ListStockMovements(ctx context.Context, r Range, limit int) ([]StockMovementView, error)

	AppendAudit(ctx context.Context, entry models.AuditLog) error
	ListAuditLogs(ctx context.Context, r Range, limit int) ([]AuditLogView, error)

	DashboardStats(ctx context.Context, r Range) (*DashboardStats, error)
	SalesReport(ctx context.Context, r Range) (*SalesReport, error)
}

// Range is an inclusive time window. A zero bound means "not set".
type Range struct {
	From time.Time
	To   time.Time
}

// SaleLineInput is one cart line as sent by the point-of-sale screen.
type SaleLineInput struct {
	ProductID uint
	Quantity  int
	Price     decimal.Decimal
}

type SaleInput struct {
	UserID        uint
	Items         []SaleLineInput
	PaymentMethod string
	Total         decimal.Decimal
}

// totalTolerance absorbs client-side rounding of the cart total.
var totalTolerance = decimal.New(1, -2)

// Validate checks the cart shape and that Total matches the lines.
func (in SaleInput) Validate() error {
	if len(in.Items) == 0 || in.PaymentMethod == "" {
		return ErrInvalidInput
	}

	computed := decimal.Zero
	for _, item := range in.Items {
		if item.ProductID == 0 || item.Quantity <= 0 || item.Price.IsNegative() {
			return ErrInvalidInput
		}
		computed = computed.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if computed.Sub(in.Total).Abs().GreaterThan(totalTolerance) {
		return ErrTotalMismatch
	}
	return nil
}

// MovementInput is a manual stock ledger entry. IN adds Quantity, ADJ applies
// Quantity as a signed delta.
type MovementInput struct {
	UserID    uint
	ProductID uint
	Type      models.MovementType
	Quantity  int
	Reason    string
}

func (in MovementInput) Validate() error {
	if in.ProductID == 0 {
		return ErrInvalidInput
	}
	switch in.Type {
	case models.MovementIn:
		if in.Quantity <= 0 {
			return ErrInvalidInput
		}
	case models.MovementAdjust:
		if in.Quantity == 0 {
			return ErrInvalidInput
		}
	default:
		// OUT entries only come from sales.
		return ErrInvalidInput
	}
	return nil
}

// UserUpdate carries the editable user fields. Empty values are left as is.
type UserUpdate struct {
	Name         string
	Role         models.Role
	PasswordHash string
}

type StockMovementView struct {
	models.StockMovement
	ProductName string `json:"product_name"`
	UserName    string `json:"user_name"`
}

type AuditLogView struct {
	models.AuditLog
	UserName string `json:"user_name"`
}

type PeriodTotals struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type ProfitTotals struct {
	Total decimal.Decimal `json:"total"`
}

type ChartPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type DashboardStats struct {
	Today         PeriodTotals `json:"today"`
	Month         ProfitTotals `json:"month"`
	CriticalStock int64        `json:"criticalStock"`
	ChartData     []ChartPoint `json:"chartData"`
}

type SaleLine struct {
	ID          uint            `json:"id"`
	SaleID      uint            `json:"sale_id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
}

type SaleRecord struct {
	ID            uint            `json:"id"`
	UserID        uint            `json:"user_id"`
	UserName      string          `json:"user_name"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []SaleLine      `json:"items" gorm:"-"`
}

type TopProduct struct {
	ProductID    uint            `json:"product_id"`
	Name         string          `json:"name"`
	TotalQty     int64           `json:"total_qty"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type SalesReport struct {
	Sales       []SaleRecord    `json:"sales"`
	TopProducts []TopProduct    `json:"topProducts"`
	NetProfit   decimal.Decimal `json:"netProfit"`
}
