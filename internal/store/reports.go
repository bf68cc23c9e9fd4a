package store

import (
	"context"
	"sort"
	"time"

	"fortmix-erp/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	topProductsLimit = 10
	chartDays        = 7
)

// netProfitExpr sums line margins from the sale-time snapshots, never from
// the product's current prices.
const netProfitExpr = "COALESCE(SUM(sale_items.quantity * (sale_items.price - COALESCE(sale_items.cost_price, 0))), 0)"

// DashboardStats computes the home screen figures. Unset bounds fall back to
// today (count/total), the current month (profit) and the last seven days
// (chart). Critical stock is a point-in-time count.
func (s *GormStore) DashboardStats(ctx context.Context, r Range) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	now := s.now().In(s.loc)
	today := startOfDay(now)

	todayRange := r.withDefaults(today, now)
	monthRange := r.withDefaults(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc), now)
	chartRange := r.withDefaults(today.AddDate(0, 0, -(chartDays - 1)), now)

	stats := &DashboardStats{ChartData: []ChartPoint{}}

	// 1. Sales count and revenue
	var totals struct {
		Count int64
		Total decimal.Decimal
	}
	err := applyRange(db.Model(&models.Sale{}), "created_at", todayRange).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Scan(&totals).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum sales")
	}
	stats.Today = PeriodTotals{Count: totals.Count, Total: totals.Total.Round(2)}

	// 2. Net profit from item snapshots
	profit, err := netProfit(db, monthRange)
	if err != nil {
		return nil, err
	}
	stats.Month.Total = profit

	// 3. Products at or under their minimum
	if err := db.Model(&models.Product{}).Where("stock_quantity <= min_stock").Count(&stats.CriticalStock).Error; err != nil {
		return nil, errors.Wrap(err, "count critical stock")
	}

	// 4. Revenue per calendar day. Grouping happens here rather than in SQL
	// so the day boundaries follow the store's location on every dialect.
	var rows []struct {
		CreatedAt time.Time
		Total     decimal.Decimal
	}
	err = applyRange(db.Model(&models.Sale{}), "created_at", chartRange).
		Select("created_at, total").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load chart sales")
	}

	perDay := map[string]decimal.Decimal{}
	for _, row := range rows {
		day := row.CreatedAt.In(s.loc).Format(time.DateOnly)
		perDay[day] = perDay[day].Add(row.Total)
	}
	for day, total := range perDay {
		stats.ChartData = append(stats.ChartData, ChartPoint{Date: day, Total: total.Round(2)})
	}
	sort.Slice(stats.ChartData, func(i, j int) bool {
		return stats.ChartData[i].Date < stats.ChartData[j].Date
	})

	return stats, nil
}

// SalesReport lists the sales in range with their lines, the ten best
// selling products by revenue and the net profit of the period.
func (s *GormStore) SalesReport(ctx context.Context, r Range) (*SalesReport, error) {
	db := s.db.WithContext(ctx)
	report := &SalesReport{Sales: []SaleRecord{}, TopProducts: []TopProduct{}}

	// 1. Sale headers with the seller's name
	err := applyRange(db.Table("sales"), "sales.created_at", r).
		Select("sales.id, sales.user_id, COALESCE(users.name, '') AS user_name, sales.total, sales.payment_method, sales.created_at").
		Joins("LEFT JOIN users ON users.id = sales.user_id").
		Order("sales.created_at DESC, sales.id DESC").
		Scan(&report.Sales).Error
	if err != nil {
		return nil, errors.Wrap(err, "list sales")
	}

	// 2. Their lines, in insertion order
	if len(report.Sales) > 0 {
		ids := make([]uint, len(report.Sales))
		for i, sale := range report.Sales {
			ids[i] = sale.ID
		}

		var lines []SaleLine
		err := db.Table("sale_items").
			Select("sale_items.id, sale_items.sale_id, sale_items.product_id, COALESCE(products.name, '') AS product_name, " +
				"sale_items.quantity, sale_items.price, COALESCE(sale_items.cost_price, 0) AS cost_price").
			Joins("LEFT JOIN products ON products.id = sale_items.product_id").
			Where("sale_items.sale_id IN ?", ids).
			Order("sale_items.id").
			Scan(&lines).Error
		if err != nil {
			return nil, errors.Wrap(err, "list sale items")
		}

		bySale := make(map[uint][]SaleLine, len(report.Sales))
		for _, line := range lines {
			bySale[line.SaleID] = append(bySale[line.SaleID], line)
		}
		for i := range report.Sales {
			report.Sales[i].Total = report.Sales[i].Total.Round(2)
			report.Sales[i].Items = bySale[report.Sales[i].ID]
			if report.Sales[i].Items == nil {
				report.Sales[i].Items = []SaleLine{}
			}
		}
	}

	// 3. Top products by revenue
	err = applyRange(db.Table("sale_items"), "sales.created_at", r).
		Select("sale_items.product_id, COALESCE(products.name, '') AS name, " +
			"SUM(sale_items.quantity) AS total_qty, SUM(sale_items.quantity * sale_items.price) AS total_revenue").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("LEFT JOIN products ON products.id = sale_items.product_id").
		Group("sale_items.product_id, products.name").
		Order("total_revenue DESC, sale_items.product_id ASC").
		Limit(topProductsLimit).
		Scan(&report.TopProducts).Error
	if err != nil {
		return nil, errors.Wrap(err, "rank top products")
	}
	for i := range report.TopProducts {
		report.TopProducts[i].TotalRevenue = report.TopProducts[i].TotalRevenue.Round(2)
	}

	// 4. Net profit
	profit, err := netProfit(db, r)
	if err != nil {
		return nil, err
	}
	report.NetProfit = profit

	return report, nil
}

func netProfit(db *gorm.DB, r Range) (decimal.Decimal, error) {
	var row struct {
		Profit decimal.Decimal
	}
	err := applyRange(db.Table("sale_items"), "sales.created_at", r).
		Select(netProfitExpr + " AS profit").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum net profit")
	}
	return row.Profit.Round(2), nil
}

// withDefaults fills the unset bounds of r.
func (r Range) withDefaults(from, to time.Time) Range {
	if r.From.IsZero() {
		r.From = from
	}
	if r.To.IsZero() {
		r.To = to
	}
	return r
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
