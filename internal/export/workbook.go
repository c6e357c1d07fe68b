package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/EslamHany2002/Feedback-Report/internal/aggregate"
)

// Sheet names of the workbook, in order.
const (
	SheetSummary          = "Summary"
	SheetStatusByGroup    = "Status by Group"
	SheetRatings          = "Ratings"
	SheetLinks            = "Links"
	SheetInstructors      = "Instructors"
	SheetInstructorGroups = "Instructor Groups"
)

// WriteWorkbook writes r as an XLSX workbook to w. Contingency tables are
// written dense, with zeros for unobserved pairs, since spreadsheet readers
// expect a full grid.
func WriteWorkbook(w io.Writer, r *aggregate.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	for _, name := range []string{SheetStatusByGroup, SheetRatings, SheetLinks, SheetInstructors, SheetInstructorGroups} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("workbook: new sheet %q: %w", name, err)
		}
	}

	sheets := map[string][][]any{
		SheetSummary:          summarySheet(r.Summary),
		SheetStatusByGroup:    statusSheet(r.StatusByGroup),
		SheetRatings:          ratingsSheet(r.Ratings),
		SheetLinks:            {{"Link", "Count"}, {"has-link", r.Links.HasLink}, {"no-link", r.Links.NoLink}},
		SheetInstructors:      instructorSheet(r.InstructorClarity),
		SheetInstructorGroups: gridSheet("Instructor", r.InstructorGroups, r.InstructorGroups.Cols()),
	}
	for name, rows := range sheets {
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("workbook: write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("workbook: %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("workbook: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summarySheet(s aggregate.Summary) [][]any {
	rows := [][]any{{"Metric", "Value"}}
	for _, m := range SummaryRows(s) {
		rows = append(rows, []any{m.Label, m.Value})
	}
	return rows
}

// statusSheet lists the known statuses as columns, including ones with no
// observations.
func statusSheet(c aggregate.Contingency) [][]any {
	return gridSheet("Group", c, aggregate.KnownStatuses)
}

func gridSheet(corner string, c aggregate.Contingency, cols []string) [][]any {
	head := []any{corner}
	for _, col := range cols {
		head = append(head, col)
	}
	rows := [][]any{head}
	for _, r := range c.Rows() {
		row := []any{r}
		for _, col := range cols {
			row = append(row, c.Get(r, col))
		}
		rows = append(rows, row)
	}
	return rows
}

func ratingsSheet(d aggregate.Distribution) [][]any {
	rows := [][]any{{"Rating", "Count"}}
	for _, b := range d.Sorted() {
		rows = append(rows, []any{b.Value, b.Count})
	}
	return rows
}

func instructorSheet(ic aggregate.InstructorClarity) [][]any {
	rows := [][]any{{"Instructor", "Average Clarity", "Responses"}}
	for _, a := range ic.SortedAverages(aggregate.Descending) {
		rows = append(rows, []any{a.Instructor, a.Average, a.Count})
	}
	return rows
}
