package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tableDB/internal/table"
)

// ReadLines reads a newline-delimited list, skipping blank lines.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

// WriteLines writes one entry per line.
func WriteLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteForeignKeys writes one FKTable|FKColumn|PKTable|PKColumn line per
// constraint.
func WriteForeignKeys(w io.Writer, fks []table.ForeignKey) error {
	lines := make([]string, len(fks))
	for i, fk := range fks {
		lines[i] = fk.String()
	}
	return WriteLines(w, lines)
}

// ReadForeignKeys parses a constraint file written by WriteForeignKeys.
func ReadForeignKeys(r io.Reader) ([]table.ForeignKey, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	fks := make([]table.ForeignKey, 0, len(lines))
	for i, l := range lines {
		fk, err := table.ParseForeignKey(l)
		if err != nil {
			return nil, fmt.Errorf("%w: constraint %d: %v", ErrFormat, i+1, err)
		}
		fks = append(fks, fk)
	}
	return fks, nil
}
