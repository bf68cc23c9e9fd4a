// Package export renders reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"fortmix-erp/internal/store"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SalesSheet = "Sales"
	TopSheet   = "Top Products"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	salesHeader = []any{"Sale", "Date", "Seller", "Payment", "Product", "Quantity", "Unit price", "Line total", "Sale total"}
	topHeader   = []any{"Rank", "Product", "Quantity", "Revenue"}
)

// SalesReportXLSX writes one row per sale line on the "Sales" sheet and the
// ranking on "Top Products".
func SalesReportXLSX(report *store.SalesReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(TopSheet); err != nil {
		return nil, err
	}

	if err := writeRow(f, SalesSheet, 1, salesHeader); err != nil {
		return nil, err
	}
	row := 2
	for _, sale := range report.Sales {
		date := sale.CreatedAt.Format("2006-01-02 15:04")
		if len(sale.Items) == 0 {
			if err := writeRow(f, SalesSheet, row, []any{sale.ID, date, sale.UserName, sale.PaymentMethod, "", "", "", "", sale.Total.InexactFloat64()}); err != nil {
				return nil, err
			}
			row++
			continue
		}
		for _, item := range sale.Items {
			lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
			values := []any{
				sale.ID, date, sale.UserName, sale.PaymentMethod,
				item.ProductName, item.Quantity, item.Price.InexactFloat64(), lineTotal.InexactFloat64(),
				sale.Total.InexactFloat64(),
			}
			if err := writeRow(f, SalesSheet, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}
	if err := writeRow(f, SalesSheet, row+1, []any{"Net profit", "", "", "", "", "", "", "", report.NetProfit.InexactFloat64()}); err != nil {
		return nil, err
	}

	if err := writeRow(f, TopSheet, 1, topHeader); err != nil {
		return nil, err
	}
	for i, p := range report.TopProducts {
		if err := writeRow(f, TopSheet, i+2, []any{i + 1, p.Name, p.TotalQty, p.TotalRevenue.InexactFloat64()}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
