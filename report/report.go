// Package report writes the extraction report spreadsheet: one row per
// extracted segment, for reviewers who want to audit what was pulled out
// of the sources without reading the export files.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/srctrans/comkit/comment"
)

// DefaultName is the default report file name.
const DefaultName = "source_code_comments.xlsx"

// SheetName is the worksheet holding the rows.
const SheetName = "Comments"

// header is the first row of the sheet.
var header = []any{"File Name", "Comment Type", "Comment Index", "Comment Segment"}

// Row is one segment's report entry.
type Row struct {
	File    string
	Type    comment.Type
	Index   comment.Index
	Segment string
}

// Rows flattens units into report rows, in extraction order.
func Rows(units []comment.Unit) []Row {
	var rows []Row
	for _, u := range units {
		for _, b := range u.Blocks {
			for _, sg := range b.Segments {
				rows = append(rows, Row{
					File:    u.Name,
					Type:    b.Type,
					Index:   sg.Index,
					Segment: sg.Text,
				})
			}
		}
	}
	return rows
}

// Write saves the report workbook to path.
func Write(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		cells := []any{r.File, string(r.Type), r.Index.String(), r.Segment}
		if err := setRow(f, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
