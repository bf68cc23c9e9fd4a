package export

import (
	"bytes"
	"testing"
	"time"

	"fortmix-erp/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSalesReportXLSX(t *testing.T) {
	report := &store.SalesReport{
		Sales: []store.SaleRecord{
			{
				ID:            7,
				UserName:      "Ana",
				PaymentMethod: "cash",
				Total:         decimal.RequireFromString("98.70"),
				CreatedAt:     time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC),
				Items: []store.SaleLine{
					{ProductName: "Arroz 5kg", Quantity: 3, Price: decimal.RequireFromString("32.90")},
				},
			},
		},
		TopProducts: []store.TopProduct{
			{ProductID: 1, Name: "Arroz 5kg", TotalQty: 3, TotalRevenue: decimal.RequireFromString("98.70")},
		},
		NetProfit: decimal.RequireFromString("23.70"),
	}

	buf, err := SalesReportXLSX(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SalesSheet, TopSheet}, f.GetSheetList())

	rows, err := f.GetRows(SalesSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "Sale", rows[0][0])
	assert.Equal(t, []string{"7", "2024-05-02 14:30", "Ana", "cash", "Arroz 5kg", "3", "32.9", "98.7", "98.7"}, rows[1])

	product, err := f.GetCellValue(TopSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Arroz 5kg", product)
}

func TestSalesReportXLSX_Empty(t *testing.T) {
	buf, err := SalesReportXLSX(&store.SalesReport{})
	require.NoError(t, err)
	assert.Greater(t, buf.Len(), 0)
}
