// Package dataio reads the small numeric CSV files the figures are drawn
// from and exports rendered series for reuse outside neurofig.
package dataio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/neurofig/internal/pathutil"
)

var (
	// ErrRaggedRow is returned when a row's column count differs from the first row.
	ErrRaggedRow = errors.New("ragged row")

	// ErrColumnRange is returned for a column index outside the matrix.
	ErrColumnRange = errors.New("column out of range")

	// ErrNoRows is returned when a file holds a header and nothing else.
	ErrNoRows = errors.New("no data rows")
)

// Delimiter selects how fields are split.
type Delimiter string

const (
	// Comma splits on ','.
	Comma Delimiter = ","
	// Whitespace splits on any run of blanks.
	Whitespace Delimiter = "whitespace"
)

// ReadOptions controls ReadMatrix.
type ReadOptions struct {
	Delimiter Delimiter
	// SkipHeader is the number of leading lines to discard. Defaults to 1.
	SkipHeader int
}

// Matrix is a dense row-major table of float64 values.
type Matrix struct {
	Rows [][]float64
	Cols int
}

// ReadMatrix loads a numeric table from path.
func ReadMatrix(path string, opts ReadOptions) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pathutil.RedactPath(path), err)
	}
	defer f.Close()

	m, err := ParseMatrix(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pathutil.RedactPath(path), err)
	}
	return m, nil
}

// ParseMatrix parses a numeric table from r.
func ParseMatrix(r io.Reader, opts ReadOptions) (*Matrix, error) {
	if opts.Delimiter == "" {
		opts.Delimiter = Comma
	}
	skip := opts.SkipHeader
	if skip == 0 {
		skip = 1
	}

	var records [][]string
	var err error
	switch opts.Delimiter {
	case Whitespace:
		records, err = splitFields(r)
	case Comma:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		cr.Comment = '#'
		records, err = cr.ReadAll()
	default:
		return nil, fmt.Errorf("unsupported delimiter %q", opts.Delimiter)
	}
	if err != nil {
		return nil, err
	}

	if len(records) <= skip {
		return nil, ErrNoRows
	}
	records = records[skip:]

	m := &Matrix{Cols: len(records[0]), Rows: make([][]float64, 0, len(records))}
	for i, rec := range records {
		line := i + skip + 1
		if len(rec) != m.Cols {
			return nil, fmt.Errorf("line %d has %d columns, want %d: %w", line, len(rec), m.Cols, ErrRaggedRow)
		}
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// splitFields breaks each non-blank line on runs of whitespace.
func splitFields(r io.Reader) ([][]string, error) {
	var out [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields)
	}
	return out, sc.Err()
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.Rows) }

// Column returns a copy of column i.
func (m *Matrix) Column(i int) ([]float64, error) {
	if i < 0 || i >= m.Cols {
		return nil, fmt.Errorf("column %d of %d: %w", i, m.Cols, ErrColumnRange)
	}
	out := make([]float64, len(m.Rows))
	for r, row := range m.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Flatten returns every value in row-major order.
func (m *Matrix) Flatten() []float64 {
	out := make([]float64, 0, len(m.Rows)*m.Cols)
	for _, row := range m.Rows {
		out = append(out, row...)
	}
	return out
}

// Divide returns a copy of m with every value divided by k.
func (m *Matrix) Divide(k float64) *Matrix {
	out := &Matrix{Cols: m.Cols, Rows: make([][]float64, len(m.Rows))}
	for i, row := range m.Rows {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = v / k
		}
		out.Rows[i] = r
	}
	return out
}
