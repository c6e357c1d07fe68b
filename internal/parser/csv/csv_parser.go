// Package csv loads a delimited survey export into a records.Table. Header
// labels are cleaned (line breaks, BOM, surrounding space) before they become
// record keys, empty cells load as nil and every other cell is kept as its raw
// string so coercion stays with the aggregator.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/header"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// LazyQuotes relaxes quote handling for exports with stray quotes.
	LazyQuotes bool

	// HeaderNames renames the leading columns by position. Exports with
	// bilingual or multi-line questions as headers are easier to map this way.
	HeaderNames []string

	// Logger receives skipped-row notices. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// OptionsFrom reads parser options from the config map
// (comma, lazy_quotes, header_names).
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:       o.Rune("comma", ','),
		LazyQuotes:  o.Bool("lazy_quotes", false),
		HeaderNames: o.StringSlice("header_names"),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps per-row skip notices so a broken file does not flood logs.
const skipLogLimit = 400

// Parse reads the header row and every body row from r. It returns the table
// and the number of rows that were skipped because they could not be read or
// carried more fields than the header. Short rows are padded with nil.
func (p *Parser) Parse(r io.Reader) (records.Table, int, error) {
	log := p.opt.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	cr := csv.NewReader(skipBOM(r))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return records.Table{}, 0, fmt.Errorf("read csv header: empty input")
		}
		return records.Table{}, 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := Headers(h, p.opt.HeaderNames)

	var out []records.Record
	skipped := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < skipLogLimit {
				log.WithField("line", line).WithError(err).Warn("skipping csv row")
			}
			skipped++
			continue
		}
		if len(row) > len(cols) {
			if skipped < skipLogLimit {
				log.WithFields(logrus.Fields{"line": line, "expected": len(cols), "got": len(row)}).
					Warn("skipping csv row: too many fields")
			}
			skipped++
			continue
		}
		if blank(row) {
			continue
		}

		rec := make(records.Record, len(cols))
		for i, key := range cols {
			if i < len(row) {
				rec[key] = emptyToNil(row[i])
			} else {
				rec[key] = nil
			}
		}
		out = append(out, rec)
	}

	return records.Table{Columns: cols, Records: out}, skipped, nil
}

// Headers cleans raw header cells, applies positional renames and makes the
// result unique. Empty labels become "col_N"; a repeated label gets a ".1",
// ".2", ... suffix in file order.
func Headers(raw []string, rename []string) []string {
	cols := header.CleanAll(raw)
	for i, name := range rename {
		if i >= len(cols) {
			break
		}
		if n := header.Clean(name); n != "" {
			cols[i] = n
		}
	}
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if c == "" {
			c = "col_" + strconv.Itoa(i)
		}
		name := c
		for n := 1; seen[name]; n++ {
			name = c + "." + strconv.Itoa(n)
		}
		seen[name] = true
		cols[i] = name
	}
	return cols
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark. encoding/csv would otherwise
// see it as part of the first field and reject a quoted first header.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
