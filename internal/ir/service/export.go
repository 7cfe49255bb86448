package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var requisitionExportHeaders = []string{
	"请购单号", "门店", "类型", "优先级", "状态", "行项数", "申请数量", "预估金额",
	"期望到货", "实际到货", "申请人", "创建时间",
}

// ExportRequisitions 按筛选条件导出请购单为xlsx，最多 maxRows 行
func (s *RequisitionService) ExportRequisitions(ctx context.Context, filter RequisitionFilter, maxRows int) (*excelize.File, string, error) {
	if s.store == nil {
		return nil, "", ErrRepositoryNotConfigured
	}
	if maxRows <= 0 {
		maxRows = 1000
	}

	f := excelize.NewFile()
	sheet := "Requisitions"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range requisitionExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	totalValue := decimal.Zero
	const pageSize = 100
	for page := 1; row-2 < maxRows; page++ {
		items, total, err := s.ListRequisitions(ctx, filter, page, pageSize)
		if err != nil {
			f.Close()
			return nil, "", err
		}
		for _, r := range items {
			if row-2 >= maxRows {
				break
			}
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.IRNumber)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.RequestingBranchCode)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(r.RequestType))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(r.Priority))
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(r.Status))
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.TotalItems)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.TotalQuantity.InexactFloat64())
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.EstimatedValue.InexactFloat64())
			if r.RequestedDeliveryDate != nil {
				f.SetCellValue(sheet, fmt.Sprintf("I%d", row), r.RequestedDeliveryDate.Format("2006-01-02"))
			}
			if r.ActualDeliveryDate != nil {
				f.SetCellValue(sheet, fmt.Sprintf("J%d", row), r.ActualDeliveryDate.Format("2006-01-02"))
			}
			f.SetCellValue(sheet, fmt.Sprintf("K%d", row), r.RequestedBy)
			f.SetCellValue(sheet, fmt.Sprintf("L%d", row), r.CreatedAt.Format("2006-01-02 15:04"))
			totalValue = totalValue.Add(r.EstimatedValue)
			row++
		}
		if int64(page*pageSize) >= total || len(items) == 0 {
			break
		}
	}

	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("共 %d 单", row-2))
	f.SetCellValue(sheet, fmt.Sprintf("H%d", row), totalValue.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("L%d", row), summaryStyle)

	colWidths := []float64{22, 10, 12, 10, 18, 8, 12, 14, 12, 12, 14, 18}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := "requisitions.xlsx"
	if filter.BranchID != "" {
		filename = fmt.Sprintf("requisitions_%s.xlsx", filter.BranchID)
	}
	return f, filename, nil
}
