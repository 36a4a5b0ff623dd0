package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/figures"
	"github.com/nvandessel/neurofig/internal/style"
)

func buildFigure(t *testing.T, name string, data *dataio.Matrix) (*figures.Figure, style.Style) {
	t.Helper()
	s, ok := figures.Catalogue().Get(name)
	if !ok {
		t.Fatalf("no figure %q", name)
	}
	set, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	st := s.Style(style.Default())
	fig, err := s.Build(figures.Inputs{Params: set.Params, Options: set.Options, Data: data, Style: st})
	if err != nil {
		t.Fatal(err)
	}
	return fig, st
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"eps", EPS, false},
		{"EPS", EPS, false},
		{".svg", SVG, false},
		{"pdf", PDF, false},
		{"png", PNG, false},
		{"jpeg", JPEG, false},
		{"tiff", TIFF, false},
		{"bmp", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if EPS.Raster() || !PNG.Raster() {
		t.Error("Raster() misclassifies formats")
	}
}

func TestOutputPath(t *testing.T) {
	root := filepath.Join(string(os.PathSeparator), "proj")
	if got, want := OutputPath(root, "results", "leaky_if", EPS), filepath.Join(root, "results", "leaky_if.eps"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	abs := filepath.Join(string(os.PathSeparator), "figs")
	if got, want := OutputPath(root, abs, "kinematics", SVG), filepath.Join(abs, "kinematics.svg"); got != want {
		t.Errorf("OutputPath(abs) = %q, want %q", got, want)
	}
}

func TestSaveFormats(t *testing.T) {
	fig, st := buildFigure(t, "epsc", nil)
	tests := []struct {
		format string
		magic  []byte
	}{
		{"eps", []byte("%!PS")},
		{"svg", []byte("<?xml")},
		{"pdf", []byte("%PDF")},
		{"png", []byte("\x89PNG")},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			st := st
			st.Format = tt.format
			st.DPI = 20
			path := filepath.Join(t.TempDir(), "results", "epsc_plot."+tt.format)
			out, err := Save(fig, st, path)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Contains(data[:min(len(data), 64)], tt.magic) {
				t.Errorf("file header %q lacks %q", data[:min(len(data), 16)], tt.magic)
			}
			if out.Bytes != int64(len(data)) {
				t.Errorf("Bytes = %d, file has %d", out.Bytes, len(data))
			}
			sum := sha256.Sum256(data)
			if out.Checksum != hex.EncodeToString(sum[:]) {
				t.Error("Checksum does not match file contents")
			}
			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Errorf("output dir holds %d entries, want only the figure", len(entries))
			}
		})
	}
}

func TestSaveRasterDPI(t *testing.T) {
	fig, st := buildFigure(t, "sigmoid", nil)
	st.Format = "png"
	st.DPI = 30
	path := filepath.Join(t.TempDir(), "sigmoid_plot.png")
	if _, err := Save(fig, st, path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 300 || cfg.Height != 240 {
		t.Errorf("image = %dx%d, want 300x240 for 10x8in at 30dpi", cfg.Width, cfg.Height)
	}
}

func TestSaveMultiPanel(t *testing.T) {
	for _, name := range []string{"coincidence", "leaky-if"} {
		t.Run(name, func(t *testing.T) {
			fig, st := buildFigure(t, name, nil)
			st.Format = "svg"
			if _, err := Save(fig, st, filepath.Join(t.TempDir(), name+".svg")); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		})
	}
}

// fixtures holds small inputs for the figures that read a table.
var fixtures = map[string]*dataio.Matrix{
	"kinematics": {Cols: 4, Rows: [][]float64{
		{100000, 0, 200000, -100000},
		{200000, 100000, 300000, 0},
		{300000, 200000, 100000, 100000},
	}},
	"leaky-noise":    {Cols: 1, Rows: [][]float64{{-70000}, {-65000}, {-60000}}},
	"firing-times":   {Cols: 1, Rows: [][]float64{{120}, {800}, {810}, {2500}}},
	"firing-scatter": {Cols: 2, Rows: [][]float64{{1, 2}, {2, 4}, {3, 6}, {3, 5}}},
	"firing-hist2d":  {Cols: 2, Rows: [][]float64{{1, 2}, {2, 4}, {3, 6}, {3, 5}}},
}

func TestSaveCatalogue(t *testing.T) {
	magic := map[Format]string{
		EPS:  "%!PS",
		SVG:  "<?xml",
		PDF:  "%PDF",
		PNG:  "\x89PNG",
		JPEG: "\xff\xd8",
		TIFF: "II*",
	}
	for _, spec := range figures.Catalogue().List() {
		var data *dataio.Matrix
		if spec.Input != nil {
			data = fixtures[spec.Name]
			if data == nil {
				t.Fatalf("no fixture for %s", spec.Name)
			}
		}
		fig, st := buildFigure(t, spec.Name, data)
		for _, f := range Formats {
			t.Run(spec.Name+"/"+string(f), func(t *testing.T) {
				st := st
				st.Format = string(f)
				st.DPI = 20
				path := filepath.Join(t.TempDir(), spec.Output+"."+string(f))
				out, err := Save(fig, st, path)
				if err != nil {
					t.Fatalf("Save() error = %v", err)
				}
				head := make([]byte, 8)
				file, err := os.Open(path)
				if err != nil {
					t.Fatal(err)
				}
				defer file.Close()
				n, _ := file.Read(head)
				if !strings.HasPrefix(string(head[:n]), magic[f]) {
					t.Errorf("file header %q, want prefix %q", head[:n], magic[f])
				}
				if out.Bytes == 0 {
					t.Error("empty file")
				}
			})
		}
	}
}

func TestSaveErrors(t *testing.T) {
	fig, st := buildFigure(t, "epsc", nil)
	st.Format = "bmp"
	if _, err := Save(fig, st, filepath.Join(t.TempDir(), "x.bmp")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Save(bmp) error = %v, want ErrUnknownFormat", err)
	}

	st.Format = "eps"
	if _, err := Save(&figures.Figure{Name: "empty"}, st, filepath.Join(t.TempDir(), "x.eps")); !errors.Is(err, ErrEmptyFigure) {
		t.Errorf("Save(empty) error = %v, want ErrEmptyFigure", err)
	}
}
