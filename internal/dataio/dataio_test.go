package dataio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurofig/internal/numeric"
)

func TestParseMatrix_Comma(t *testing.T) {
	in := "vx,ax,vy,ay\n100000,200000,300000,400000\n1, 2, 3, 4\n"
	m, err := ParseMatrix(strings.NewReader(in), ReadOptions{})
	if err != nil {
		t.Fatalf("ParseMatrix: %v", err)
	}
	if m.Len() != 2 || m.Cols != 4 {
		t.Fatalf("shape = %dx%d, want 2x4", m.Len(), m.Cols)
	}
	scaled := m.Divide(100000)
	col, err := scaled.Column(3)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if col[0] != 4 {
		t.Errorf("scaled[0][3] = %v, want 4", col[0])
	}
	if m.Rows[0][0] != 100000 {
		t.Error("Divide mutated the source matrix")
	}
}

func TestParseMatrix_Whitespace(t *testing.T) {
	in := "voltage\n-70000\n  -69500 \n\n-69000\n"
	m, err := ParseMatrix(strings.NewReader(in), ReadOptions{Delimiter: Whitespace})
	if err != nil {
		t.Fatalf("ParseMatrix: %v", err)
	}
	got := m.Flatten()
	want := []float64{-70000, -69500, -69000}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseMatrix_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{"header only", "a,b\n", ErrNoRows, ""},
		{"ragged", "a,b\n1,2\n3\n", ErrRaggedRow, "line 3"},
		{"not a number", "a,b\n1,x\n", nil, "line 2 column 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatrix(strings.NewReader(tt.input), ReadOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestReadMatrix_MissingFile(t *testing.T) {
	_, err := ReadMatrix(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestColumn_OutOfRange(t *testing.T) {
	m := &Matrix{Cols: 1, Rows: [][]float64{{1}}}
	if _, err := m.Column(1); !errors.Is(err, ErrColumnRange) {
		t.Errorf("err = %v, want ErrColumnRange", err)
	}
}

func testSeries() []Series {
	return []Series{
		{Name: "velocity", X: []float64{0, 1, 2}, Y: []float64{0.5, 0.25, 0.125}},
		{Name: "acceleration", X: []float64{0, 1}, Y: []float64{-1, 1}},
	}
}

func TestArrowExport_ReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "series.arrow")
	if err := Export(path, ExportArrow, testSeries()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := ReadArrow(path)
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	want := testSeries()
	if len(got) != len(want) {
		t.Fatalf("got %d series, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || len(got[i].X) != len(want[i].X) {
			t.Fatalf("series %d = %+v, want %+v", i, got[i], want[i])
		}
		for j := range want[i].Y {
			if got[i].Y[j] != want[i].Y[j] {
				t.Errorf("series %q y[%d] = %v, want %v", want[i].Name, j, got[i].Y[j], want[i].Y[j])
			}
		}
	}
}

func TestCSVExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	if err := Export(path, ExportCSV, testSeries()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want header + 5 rows", len(lines))
	}
	if lines[0] != "series,x,y" || lines[1] != "velocity,0,0.5" {
		t.Errorf("unexpected csv head: %q", lines[:2])
	}
}

func TestExport_ShapeMismatch(t *testing.T) {
	bad := []Series{{Name: "bad", X: []float64{1, 2}, Y: []float64{1}}}
	err := Export(filepath.Join(t.TempDir(), "x.arrow"), ExportArrow, bad)
	if !errors.Is(err, numeric.ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestParseExportFormat(t *testing.T) {
	for _, s := range []string{"", "arrow", "csv"} {
		if _, err := ParseExportFormat(s); err != nil {
			t.Errorf("ParseExportFormat(%q) = %v", s, err)
		}
	}
	if _, err := ParseExportFormat("parquet"); !errors.Is(err, ErrUnknownExport) {
		t.Errorf("err = %v, want ErrUnknownExport", err)
	}
}
