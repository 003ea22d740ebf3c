package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// Workbook renders a Window as an .xlsx file with one sheet for the totals and one per ranked list.
func Workbook(w Window) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]any{
		{"Lab", w.Lab},
		{"From", w.From},
		{"To", w.To},
		{"Movements", w.Movements},
		{"Loans created", w.LoansCreated},
		{"Loans returned", w.LoansReturned},
		{"Pending loans", w.PendingLoans},
		{"Most active module", w.MostActiveModule},
		{"Summary", w.Summary},
	}
	for i, row := range rows {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return nil, fmt.Errorf("failed to size summary column: %w", err)
	}

	lists := []struct {
		sheet  string
		header string
		items  []Entry
	}{
		{"Modules", "Module", w.Modules},
		{"Top rooms", "Room / group", w.TopRooms},
		{"Top people", "Person", w.TopPeople},
	}
	for _, list := range lists {
		if _, err := f.NewSheet(list.sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", list.sheet, err)
		}
		if err := writeRow(f, list.sheet, 1, []any{list.header, "Count"}); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(list.sheet, "A1", "B1", headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style %s header: %w", list.sheet, err)
		}
		for i, e := range list.items {
			if err := writeRow(f, list.sheet, i+2, []any{e.Name, e.Count}); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
