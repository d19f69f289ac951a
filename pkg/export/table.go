// Package export renders agenda tables to CSV and PDF and calendar events to iCalendar.
package export

// Column describes one table column. Width is in millimetres and only used by PDF output.
type Column struct {
	Header string
	Width  float64
}

// Table is a titled grid of rows. Group, when set on a row, starts a new
// section in PDF output (for example one per day).
type Table struct {
	Title   string
	Columns []Column
	Rows    []Row
}

// Row holds one cell per column.
type Row struct {
	Group string
	Cells []string
}

// Headers returns the column headers in order.
func (t Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Header
	}
	return out
}
