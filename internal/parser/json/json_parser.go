// Package json loads survey responses delivered as JSON, the shape form
// services return from their response APIs:
//
//   - newline-delimited objects:
//     {"Group":"G1","Status":"Solved"}
//     {"Group":"G2","Status":"Follow up"}
//   - a single top-level array of objects (allow_arrays, on by default).
//
// Keys become column labels after header cleaning. Numbers are kept as
// json.Number so coercion stays with the aggregator.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/parser/header"
	"github.com/EslamHany2002/Feedback-Report/pkg/records"
)

// Options configures the JSON parser.
type Options struct {
	// AllowArrays accepts a top-level array of objects.
	AllowArrays bool

	// Columns fixes the column order. Keys not listed are appended after
	// them in first-seen order.
	Columns []string
}

// OptionsFrom reads parser options from the config map
// (allow_arrays, columns).
func OptionsFrom(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
		Columns:     o.StringSlice("columns"),
	}
}

// Parser parses JSON input according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads every object from r. Top-level values that are not objects are
// skipped and counted. Objects whose values are all empty are dropped.
func (p *Parser) Parse(r io.Reader) (records.Table, int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	b := newBuilder(p.opt.Columns)
	skipped := 0
	for {
		var root any
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return records.Table{}, skipped, fmt.Errorf("json parser: decode: %w", err)
		}

		switch v := root.(type) {
		case map[string]any:
			b.add(v)
		case []any:
			if !p.opt.AllowArrays {
				return records.Table{}, skipped, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
			}
			for _, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					skipped++
					continue
				}
				b.add(obj)
			}
		default:
			skipped++
		}
	}

	if len(b.cols) == 0 {
		return records.Table{}, skipped, fmt.Errorf("json parser: no objects in input")
	}
	return b.table(), skipped, nil
}

type builder struct {
	cols []string
	seen map[string]bool
	recs []records.Record
}

func newBuilder(fixed []string) *builder {
	b := &builder{seen: make(map[string]bool)}
	for _, c := range header.CleanAll(fixed) {
		if c != "" && !b.seen[c] {
			b.seen[c] = true
			b.cols = append(b.cols, c)
		}
	}
	return b
}

func (b *builder) add(obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := make(records.Record, len(obj))
	blank := true
	for _, k := range keys {
		label := header.Clean(k)
		if label == "" {
			continue
		}
		if !b.seen[label] {
			b.seen[label] = true
			b.cols = append(b.cols, label)
		}
		v := cell(obj[k])
		if v != nil {
			blank = false
		}
		if _, dup := rec[label]; dup && v == nil {
			continue
		}
		rec[label] = v
	}
	if !blank {
		b.recs = append(b.recs, rec)
	}
}

// table pads every record with nil for columns it did not carry.
func (b *builder) table() records.Table {
	for _, rec := range b.recs {
		for _, c := range b.cols {
			if _, ok := rec[c]; !ok {
				rec[c] = nil
			}
		}
	}
	return records.Table{Columns: b.cols, Records: b.recs}
}

// cell maps a decoded value to a record value. Empty strings load as nil and
// nested objects or arrays are kept as their JSON text.
func cell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return x
	}
}
