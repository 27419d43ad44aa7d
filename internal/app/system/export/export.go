// Package export renders blood bank inventory as an Excel workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet in the inventory workbook.
const SheetName = "Inventory"

// Header returns the workbook's header row: bank name, address, then one
// column per blood type.
func Header() []string {
	h := []string{"Blood Bank", "Address"}
	return append(h, models.BloodTypes...)
}

// InventoryWorkbook writes one row per bank. Cells below
// models.CriticalStockThreshold are highlighted.
func InventoryWorkbook(banks []models.BloodBank) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F3D6D6"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	criticalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("critical style: %w", err)
	}

	for col, h := range Header() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("header style %s: %w", cell, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 40); err != nil {
		return nil, err
	}

	for i, b := range banks {
		row := i + 2
		if err := setCell(f, 1, row, b.Name); err != nil {
			return nil, err
		}
		if err := setCell(f, 2, row, b.Address); err != nil {
			return nil, err
		}
		for j, bt := range models.BloodTypes {
			col := j + 3
			units := b.Units(bt)
			if err := setCell(f, col, row, units); err != nil {
				return nil, err
			}
			if units < models.CriticalStockThreshold {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				if err := f.SetCellStyle(SheetName, cell, cell, criticalStyle); err != nil {
					return nil, fmt.Errorf("critical style %s: %w", cell, err)
				}
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("cell %s: %w", cell, err)
	}
	return nil
}
