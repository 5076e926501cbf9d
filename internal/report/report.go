// Package report 把一次巡检导出为 Excel 报告。
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/progress"
)

// InspectionReportHeader 条目明细表头
var InspectionReportHeader = []string{
	"Room",
	"Item",
	"Status",
	"Notes",
	"Photos",
}

// SummaryHeader 汇总表头
var SummaryHeader = []string{
	"Room",
	"Pass",
	"Fail",
	"N/A",
	"Pending",
	"Total",
	"Inspected",
}

// GenerateInspectionReport 生成巡检报告 Excel 文件
// 包含两个工作表：按房间的汇总和逐条目的明细
func GenerateInspectionReport(ins models.Inspection, venue models.Venue) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	summarySheet := "Summary"
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	itemSheet := "Items"
	if _, err := f.NewSheet(itemSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSummarySheet(f, summarySheet, headerStyle, ins, venue); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeItemSheet(f, itemSheet, headerStyle, ins); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sheet string, headerStyle int, ins models.Inspection, venue models.Venue) error {
	// 报告头：巡检元数据
	meta := [][2]string{
		{"Venue", venue.Name},
		{"Inspection", ins.ID},
		{"Status", ins.Status},
		{"Created By", ins.CreatedBy},
		{"Created At", ins.CreatedAt},
		{"Completed At", ins.CompletedAt},
	}
	for i, kv := range meta {
		if err := setCellValue(f, sheet, 1, i+1, kv[0]); err != nil {
			return err
		}
		if err := setCellValue(f, sheet, 2, i+1, kv[1]); err != nil {
			return err
		}
	}

	headerRow := len(meta) + 2
	for col, header := range SummaryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	byRoom := progress.CountByRoom(ins.Items, venue)
	row := headerRow
	for _, room := range venue.Rooms {
		row++
		counts := byRoom[room.ID]
		inspected := "No"
		if progress.RoomInspected(counts) {
			inspected = "Yes"
		}
		values := []any{room.Name, counts.Pass, counts.Fail, counts.NA, counts.Pending, counts.Total, inspected}
		for col, v := range values {
			if err := setCellValue(f, sheet, col+1, row, v); err != nil {
				return err
			}
		}
	}

	totals := progress.Totals(byRoom)
	row++
	values := []any{"All rooms", totals.Pass, totals.Fail, totals.NA, totals.Pending, totals.Total,
		fmt.Sprintf("%.0f%%", progress.Percent(totals))}
	for col, v := range values {
		if err := setCellValue(f, sheet, col+1, row, v); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return nil
}

func writeItemSheet(f *excelize.File, sheet string, headerStyle int, ins models.Inspection) error {
	for col, header := range InspectionReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		20, // Room
		30, // Item
		10, // Status
		40, // Notes
		10, // Photos
	}
	for i := range InspectionReportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, columnWidths[i]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, item := range ins.Items {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）
		status := item.Status
		if status == "" {
			status = models.StatusPending
		}
		values := []any{item.RoomName, item.Name, status, item.Notes, len(item.Photos)}
		for col, v := range values {
			if err := setCellValue(f, sheet, col+1, row, v); err != nil {
				return err
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

// setCellValue 设置单元格值
func setCellValue(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
