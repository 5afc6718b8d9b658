package engine

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"tableDB/internal/cell"
	"tableDB/internal/storage/codec"
	"tableDB/internal/table"
)

// PrintTable writes a human-readable dump of a table: a summary line, the
// column header and every row in insertion order.
func (m *Manager) PrintTable(w io.Writer, name string) error {
	t, err := m.lookup(name)
	if err != nil {
		return m.reject("PrintTable", name, err)
	}

	cols := t.Columns()
	record := codec.BytesPerRow(cols)
	fmt.Fprintf(w, "==== TABLE: %s (%s key %s, %s rows, ~%s on disk) ====\n",
		t.Name, t.Mode(), t.PKColumnName(),
		humanize.Comma(int64(t.RowCount())),
		humanize.Bytes(uint64(record*t.RowCount())),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = fmt.Sprintf("%s:%s", c.Name, c.Type)
		if c.IsForeignKey() {
			header[i] += "->" + c.RefTable
		}
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	t.Each(func(_ cell.PrimaryKey, row table.Row) bool {
		vals := make([]string, len(row))
		for i, c := range row {
			vals[i] = c.String()
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
		return true
	})
	return tw.Flush()
}
