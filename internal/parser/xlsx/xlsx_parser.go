// Package xlsx loads one worksheet of an Excel survey export into a
// records.Table using the same header and cell rules as the CSV loader.
package xlsx

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	pcsv "github.com/EslamHany2002/Feedback-Report/internal/parser/csv"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Options selects the worksheet and header row.
type Options struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string
	// HeaderRow is the 1-based row holding the column labels. Zero means 1.
	HeaderRow int
	// HeaderNames renames the leading columns by position.
	HeaderNames []string

	// Logger receives skipped-row notices. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// OptionsFrom reads parser options from the config map
// (sheet, header_row, header_names).
func OptionsFrom(o config.Options) Options {
	return Options{
		Sheet:       o.String("sheet", ""),
		HeaderRow:   o.Int("header_row", 1),
		HeaderNames: o.StringSlice("header_names"),
	}
}

// Parser converts one worksheet according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps per-row skip notices, as in the CSV loader.
const skipLogLimit = 400

// Parse reads the whole workbook from r and converts the selected sheet. Rows
// with cells beyond the header width are skipped and counted, matching the
// CSV loader's rule for rows with too many fields.
func (p *Parser) Parse(r io.Reader) (records.Table, int, error) {
	log := p.opt.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return records.Table{}, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return records.Table{}, 0, fmt.Errorf("open workbook: no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return records.Table{}, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	hr := p.opt.HeaderRow
	if hr <= 0 {
		hr = 1
	}
	if len(rows) < hr {
		return records.Table{}, 0, fmt.Errorf("read sheet %q: header row %d not found (%d rows)", sheet, hr, len(rows))
	}
	cols := pcsv.Headers(rows[hr-1], p.opt.HeaderNames)

	var out []records.Record
	skipped := 0
	for i, row := range rows[hr:] {
		if blank(row) {
			continue
		}
		if len(row) > len(cols) {
			if skipped < skipLogLimit {
				log.WithFields(logrus.Fields{"sheet": sheet, "row": hr + i + 1, "expected": len(cols), "got": len(row)}).
					Warn("skipping xlsx row: too many cells")
			}
			skipped++
			continue
		}
		rec := make(records.Record, len(cols))
		for i, key := range cols {
			var v any
			if i < len(row) && row[i] != "" {
				v = row[i]
			}
			rec[key] = v
		}
		out = append(out, rec)
	}
	return records.Table{Columns: cols, Records: out}, skipped, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
