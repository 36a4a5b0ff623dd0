// Package render lays out a built figure and writes it to disk.
package render

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/nvandessel/neurofig/internal/figures"
	"github.com/nvandessel/neurofig/internal/pathutil"
	"github.com/nvandessel/neurofig/internal/style"
)

var (
	// ErrUnknownFormat is returned for an output format with no writer.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrEmptyFigure is returned for a figure without panels.
	ErrEmptyFigure = errors.New("figure has no panels")

	// ErrDraw wraps a failure inside the plotting backend.
	ErrDraw = errors.New("drawing figure")
)

// Format is an output file format.
type Format string

const (
	EPS  Format = "eps"
	SVG  Format = "svg"
	PDF  Format = "pdf"
	PNG  Format = "png"
	JPEG Format = "jpg"
	TIFF Format = "tif"
)

// Formats lists the accepted formats in help order.
var Formats = []Format{EPS, SVG, PDF, PNG, JPEG, TIFF}

// ParseFormat accepts a format name or common alias, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "eps", "ps":
		return EPS, nil
	case "svg":
		return SVG, nil
	case "pdf":
		return PDF, nil
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Raster reports whether the format is pixel based and so honours dpi.
func (f Format) Raster() bool {
	return f == PNG || f == JPEG || f == TIFF
}

// OutputPath returns <root>/<outputDir>/<base>.<format>. An absolute
// outputDir is used as is.
func OutputPath(root, outputDir, base string, f Format) string {
	return filepath.Join(pathutil.Resolve(root, outputDir), base+"."+string(f))
}

// Output describes a written figure file.
type Output struct {
	Path     string
	Format   Format
	Bytes    int64
	Checksum string // hex SHA-256 of the file
}

func newCanvas(f Format, s style.Style, title string) (vg.CanvasWriterTo, error) {
	switch f {
	case EPS:
		return vgeps.NewTitle(s.Width, s.Height, title), nil
	case SVG:
		return vgsvg.New(s.Width, s.Height), nil
	case PDF:
		return vgpdf.New(s.Width, s.Height), nil
	}
	c := vgimg.NewWith(vgimg.UseWH(s.Width, s.Height), vgimg.UseDPI(s.DPI))
	switch f {
	case PNG:
		return vgimg.PngCanvas{Canvas: c}, nil
	case JPEG:
		return vgimg.JpegCanvas{Canvas: c}, nil
	case TIFF:
		return vgimg.TiffCanvas{Canvas: c}, nil
	}
	return nil, fmt.Errorf("%q: %w", f, ErrUnknownFormat)
}

// border around the whole figure, standing in for a tight bounding box
const border = vg.Length(0.1 * vg.Inch)

// colorbarShare is the fraction of the width given to a colorbar.
const colorbarShare = 0.15

// Draw lays the figure's panels out top to bottom on dc. A colorbar takes
// the right edge and twin axes get room beside the data area.
func Draw(dc draw.Canvas, fig *figures.Figure) (err error) {
	if len(fig.Panels) == 0 {
		return ErrEmptyFigure
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w %s: %v", ErrDraw, fig.Name, r)
		}
	}()

	area := draw.Crop(dc, border, -border, border, -border)
	if fig.Colorbar != nil {
		w := vg.Length(colorbarShare) * (area.Max.X - area.Min.X)
		fig.Colorbar.Draw(draw.Crop(area, area.Max.X-area.Min.X-w, 0, 0, 0))
		area = draw.Crop(area, 0, -w, 0, 0)
	}

	var margin vg.Length
	for _, p := range fig.Panels {
		if p.Twin != nil {
			margin = max(margin, p.Twin.Margin())
		}
	}
	area = draw.Crop(area, 0, -margin, 0, 0)

	if len(fig.Panels) == 1 {
		fig.Panels[0].Plot.Draw(area)
		return nil
	}
	rows := make([][]*plot.Plot, len(fig.Panels))
	for i, p := range fig.Panels {
		rows[i] = []*plot.Plot{p.Plot}
	}
	tiles := draw.Tiles{Rows: len(rows), Cols: 1, PadY: vg.Points(8)}
	canvases := plot.Align(rows, tiles, area)
	for i, p := range fig.Panels {
		p.Plot.Draw(canvases[i][0])
	}
	return nil
}

// Save renders fig in the style's format to path. The file is written to a
// temporary name beside path and renamed into place.
func Save(fig *figures.Figure, s style.Style, path string) (*Output, error) {
	f, err := ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}
	c, err := newCanvas(f, s, fig.Name)
	if err != nil {
		return nil, err
	}
	if err := Draw(draw.New(c), fig); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", pathutil.RedactPath(dir), err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := c.WriteTo(io.MultiWriter(tmp, h))
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing %s: %w", pathutil.RedactPath(path), err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", pathutil.RedactPath(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("moving figure into place: %w", err)
	}

	return &Output{
		Path:     path,
		Format:   f,
		Bytes:    n,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
