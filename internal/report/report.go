// Package report renders collections as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"lexdesk/internal/types"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	casesSheet      = "Cases"
)

var caseHeadings = []string{
	"Case Number", "Title", "Client", "Status", "Priority", "Category",
	"Court", "Filing Date", "Next Hearing", "Retainer", "Created",
}

// CaseTotals summarizes the exported rows.
type CaseTotals struct {
	Count    int
	ByStatus map[types.CaseStatus]int
	Retainer decimal.Decimal
}

// SummarizeCases counts cases per status and sums retainers exactly.
func SummarizeCases(cases []*types.Case) CaseTotals {
	totals := CaseTotals{ByStatus: map[types.CaseStatus]int{}, Retainer: decimal.Zero}
	for _, c := range cases {
		if c == nil {
			continue
		}
		totals.Count++
		totals.ByStatus[c.Status]++
		totals.Retainer = totals.Retainer.Add(c.Retainer)
	}
	return totals
}

// WriteCases writes one sheet with a row per case followed by a totals row.
func WriteCases(w io.Writer, cases []*types.Case) (CaseTotals, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", casesSheet); err != nil {
		return CaseTotals{}, err
	}
	for i, heading := range caseHeadings {
		if err := setCell(f, i+1, 1, heading); err != nil {
			return CaseTotals{}, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return CaseTotals{}, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(caseHeadings))
	if err := f.SetCellStyle(casesSheet, "A1", lastCol+"1", bold); err != nil {
		return CaseTotals{}, err
	}

	row := 2
	for _, c := range cases {
		if c == nil {
			continue
		}
		values := []any{
			c.CaseNumber, c.Title, c.ClientName, string(c.Status), string(c.Priority), c.Category,
			c.Court, formatDate(c.FilingDate), formatDate(c.NextHearing),
			c.Retainer.StringFixed(2), c.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, value := range values {
			if err := setCell(f, col+1, row, value); err != nil {
				return CaseTotals{}, err
			}
		}
		row++
	}

	totals := SummarizeCases(cases)
	if err := setCell(f, 1, row, "Total"); err != nil {
		return CaseTotals{}, err
	}
	if err := setCell(f, 2, row, fmt.Sprintf("%d case(s)", totals.Count)); err != nil {
		return CaseTotals{}, err
	}
	if err := setCell(f, 10, row, totals.Retainer.StringFixed(2)); err != nil {
		return CaseTotals{}, err
	}
	if err := f.SetCellStyle(casesSheet, cellName(1, row), cellName(len(caseHeadings), row), bold); err != nil {
		return CaseTotals{}, err
	}

	if err := f.Write(w); err != nil {
		return CaseTotals{}, fmt.Errorf("write xlsx: %w", err)
	}
	return totals, nil
}

// ReadCaseRows returns the data rows of a sheet written by WriteCases,
// without the heading and totals rows.
func ReadCaseRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := f.GetRows(casesSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return [][]string{}, nil
	}
	return rows[1 : len(rows)-1], nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	return f.SetCellValue(casesSheet, cellName(col, row), value)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
