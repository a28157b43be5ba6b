package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/ovsienko/jobsieve/internal/jobs"
	"github.com/ovsienko/jobsieve/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Jobs"

	minColWidth = 10
	maxColWidth = 60
)

var header = []string{"Verdict", "Company", "Title", "Location", "Board", "URL", "Years Required", "Reasoning"}

const urlColumn = 6

// Write serializes the run result to a spreadsheet at path, one row per
// entry, overwriting any previous file. Verdict cells are color-coded and the
// URL column carries hyperlinks.
func Write(res *pipeline.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(header))

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		widths[col] = utf8.RuneCountInString(title)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeaderCell, boldStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	fills, err := verdictFills(f)
	if err != nil {
		return err
	}
	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	})
	if err != nil {
		return err
	}

	for i, row := range res.Rows {
		rowNum := i + 2
		values := rowValues(row)

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
			if n := utf8.RuneCountInString(value); n > widths[col] {
				widths[col] = n
			}
		}

		verdictCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if style, ok := fills[row.Verdict.Label]; ok {
			if err := f.SetCellStyle(SheetName, verdictCell, verdictCell, style); err != nil {
				return fmt.Errorf("style verdict cell: %w", err)
			}
		}

		if row.Posting.URL != "" {
			urlCell, _ := excelize.CoordinatesToCellName(urlColumn, rowNum)
			if err := f.SetCellHyperLink(SheetName, urlCell, row.Posting.URL, "External"); err != nil {
				return fmt.Errorf("set hyperlink: %w", err)
			}
			if err := f.SetCellStyle(SheetName, urlCell, urlCell, linkStyle); err != nil {
				return fmt.Errorf("style hyperlink: %w", err)
			}
		}
	}

	for col := range header {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := widths[col] + 2
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(SheetName, name, name, float64(width)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	filterRange := fmt.Sprintf("A1:%s", lastHeaderCell)
	if err := f.AutoFilter(SheetName, filterRange, nil); err != nil {
		return fmt.Errorf("set auto filter: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	return nil
}

func rowValues(row pipeline.Row) []string {
	return []string{
		row.Verdict.Label,
		row.Posting.Company,
		row.Posting.Title,
		row.Posting.Location,
		row.Posting.Board,
		row.Posting.URL,
		row.Verdict.YearsRequired,
		row.Verdict.Reasoning,
	}
}

// verdictFills mirrors the manual review convention: green for yes, red for
// no, yellow for anything needing a second look.
func verdictFills(f *excelize.File) (map[string]int, error) {
	colors := map[string]string{
		jobs.VerdictYes:     "CCFFCC",
		jobs.VerdictNo:      "FFCCCC",
		jobs.VerdictMaybe:   "FFFFCC",
		jobs.VerdictUnknown: "FFFFCC",
	}

	fills := make(map[string]int, len(colors))
	for label, color := range colors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("create fill style: %w", err)
		}
		fills[label] = style
	}

	return fills, nil
}
