// Package records holds the in-memory row model shared by loaders, the
// aggregator and exporters.
package records

// Record is one loaded row keyed by physical column label. Values are nil
// (empty cell / SQL NULL), string, or a numeric type produced by a driver.
type Record map[string]any

// Table is a loaded export: the cleaned header labels in file order plus the
// rows. Loaders never put keys into a Record that are not in Columns.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Records) }

// Slice returns a Table sharing Columns with t and holding Records[i:j].
func (t Table) Slice(i, j int) Table {
	return Table{Columns: t.Columns, Records: t.Records[i:j]}
}
