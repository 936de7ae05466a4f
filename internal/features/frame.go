// Package features turns raw CSV log rows into the numeric columns a device
// classifier consumes: derived date/time columns, device-specific coercions and
// the final feature matrix.
package features

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// ErrNoColumns is returned for input without a header row.
var ErrNoColumns = errors.New("no columns to parse from file")

// Frame is a batch of log rows. String cells are kept as read; derived and
// normalized columns live alongside them as numeric columns and take precedence
// over a string column of the same name.
type Frame struct {
	header  []string
	index   map[string]int
	rows    [][]string
	numeric map[string][]float64
	dates   []time.Time
}

// ReadCSV parses a CSV log with a header row. Rows shorter than the header are
// padded with empty cells; a row longer than the header is an error.
func ReadCSV(data []byte) (*Frame, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, err
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	f := &Frame{
		header:  header,
		index:   make(map[string]int, len(header)),
		numeric: make(map[string][]float64),
	}
	for i, name := range header {
		if _, dup := f.index[name]; !dup {
			f.index[name] = i
		}
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), line, len(record))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		f.rows = append(f.rows, record)
	}

	return f, nil
}

// Len returns the number of data rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Has reports whether a string or numeric column exists.
func (f *Frame) Has(column string) bool {
	if _, ok := f.numeric[column]; ok {
		return true
	}
	_, ok := f.index[column]
	return ok
}

// Missing returns the columns from want that the frame lacks, in want order.
func (f *Frame) Missing(want []string) []string {
	var missing []string
	for _, c := range want {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Strings returns the raw cells of a CSV column.
func (f *Frame) Strings(column string) ([]string, bool) {
	i, ok := f.index[column]
	if !ok {
		return nil, false
	}
	out := make([]string, len(f.rows))
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out, true
}

// SetNumeric stores a numeric column. values must have one entry per row.
func (f *Frame) SetNumeric(column string, values []float64) {
	f.numeric[column] = values
}

// Numeric returns a numeric column set by SetNumeric.
func (f *Frame) Numeric(column string) ([]float64, bool) {
	v, ok := f.numeric[column]
	return v, ok
}

// Date returns the parsed date of row i; ok is false when it could not be parsed.
func (f *Frame) Date(i int) (time.Time, bool) {
	if i >= len(f.dates) || f.dates[i].IsZero() {
		return time.Time{}, false
	}
	return f.dates[i], true
}

// Matrix projects the frame onto columns in order. Numeric columns are used as is;
// string columns are parsed with Numeric, so an uncoercible cell becomes NaN.
func (f *Frame) Matrix(columns []string) ([][]float64, error) {
	cols := make([][]float64, len(columns))
	for j, c := range columns {
		if v, ok := f.numeric[c]; ok {
			cols[j] = v
			continue
		}
		raw, ok := f.Strings(c)
		if !ok {
			return nil, fmt.Errorf("column %q not present", c)
		}
		cols[j] = make([]float64, len(raw))
		for i, s := range raw {
			cols[j][i] = Numeric(s)
		}
	}

	matrix := make([][]float64, len(f.rows))
	for i := range matrix {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = cols[j][i]
		}
		matrix[i] = row
	}
	return matrix, nil
}

// CountNaN returns the number of NaN cells in a matrix.
func CountNaN(matrix [][]float64) int {
	n := 0
	for _, row := range matrix {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}
