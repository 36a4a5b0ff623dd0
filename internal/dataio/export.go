package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/nvandessel/neurofig/internal/numeric"
)

// ExportFormat names a series export format.
type ExportFormat string

const (
	ExportNone  ExportFormat = ""
	ExportArrow ExportFormat = "arrow"
	ExportCSV   ExportFormat = "csv"
)

// ErrUnknownExport is returned for an export format neurofig cannot write.
var ErrUnknownExport = errors.New("unknown export format")

// Series is one named x/y trace of a rendered figure.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// seriesSchema is the long-format layout shared by every export.
var seriesSchema = arrow.NewSchema([]arrow.Field{
	{Name: "series", Type: arrow.BinaryTypes.String},
	{Name: "x", Type: arrow.PrimitiveTypes.Float64},
	{Name: "y", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ParseExportFormat validates s.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case ExportNone, ExportArrow, ExportCSV:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("%q (valid: arrow, csv): %w", s, ErrUnknownExport)
}

// Extension returns the file extension for f, without the dot.
func (f ExportFormat) Extension() string {
	return string(f)
}

// Export writes series to path in format f.
func Export(path string, f ExportFormat, series []Series) error {
	switch f {
	case ExportArrow:
		return WriteArrow(path, series)
	case ExportCSV:
		return WriteCSV(path, series)
	}
	return fmt.Errorf("export %q: %w", f, ErrUnknownExport)
}

func checkSeries(series []Series) error {
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("series %q has %d x and %d y values: %w", s.Name, len(s.X), len(s.Y), numeric.ErrShapeMismatch)
		}
	}
	return nil
}

// WriteArrow writes series as a single Arrow IPC record batch.
func WriteArrow(path string, series []Series) error {
	if err := checkSeries(series); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, seriesSchema)
	defer b.Release()

	names := b.Field(0).(*array.StringBuilder)
	xs := b.Field(1).(*array.Float64Builder)
	ys := b.Field(2).(*array.Float64Builder)
	for _, s := range series {
		for range s.X {
			names.Append(s.Name)
		}
		xs.AppendValues(s.X, nil)
		ys.AppendValues(s.Y, nil)
	}
	rec := b.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating arrow file: %w", err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(seriesSchema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return f.Close()
}

// ReadArrow reads a file written by WriteArrow, preserving series order.
func ReadArrow(path string) ([]Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("creating arrow reader: %w", err)
	}
	defer r.Close()

	var out []Series
	index := map[string]int{}
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		names, ok1 := rec.Column(0).(*array.String)
		xs, ok2 := rec.Column(1).(*array.Float64)
		ys, ok3 := rec.Column(2).(*array.Float64)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("record %d does not match the series schema", i)
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			name := names.Value(row)
			j, seen := index[name]
			if !seen {
				j = len(out)
				index[name] = j
				out = append(out, Series{Name: name})
			}
			out[j].X = append(out[j].X, xs.Value(row))
			out[j].Y = append(out[j].Y, ys.Value(row))
		}
	}
	return out, nil
}

// WriteCSV writes series in the same long format as WriteArrow.
func WriteCSV(path string, series []Series) error {
	if err := checkSeries(series); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"series", "x", "y"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range series {
		for i := range s.X {
			rec := []string{
				s.Name,
				strconv.FormatFloat(s.X[i], 'g', -1, 64),
				strconv.FormatFloat(s.Y[i], 'g', -1, 64),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return f.Close()
}
