// Package app runs the render pipeline: resolve a figure, merge its
// settings, load its input, build it, write it and record the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/neurofig/internal/config"
	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/figures"
	"github.com/nvandessel/neurofig/internal/history"
	"github.com/nvandessel/neurofig/internal/logging"
	"github.com/nvandessel/neurofig/internal/pathutil"
	"github.com/nvandessel/neurofig/internal/render"
)

// Opener shows a written file. *viewer.Viewer satisfies it.
type Opener interface {
	Open(path string) error
}

// Request names one figure to render. Empty fields fall back to the
// configuration.
type Request struct {
	// Name is a figure or group name.
	Name string
	// Function picks a figure inside a group.
	Function string
	// Set overrides figure parameters and options.
	Set map[string]string
	// Input replaces the figure's default input path.
	Input     string
	Format    string
	OutputDir string
	Export    string
	Show      bool
	NoHistory bool
}

// Result describes a finished render.
type Result struct {
	Figure     string          `json:"figure"`
	Group      string          `json:"group"`
	Path       string          `json:"path"`
	Format     string          `json:"format"`
	Bytes      int64           `json:"bytes"`
	Checksum   string          `json:"checksum"`
	ExportPath string          `json:"export_path,omitempty"`
	Input      string          `json:"input,omitempty"`
	Params     figures.Params  `json:"params,omitempty"`
	Options    figures.Options `json:"options,omitempty"`
	Summary    []figures.Stat  `json:"summary,omitempty"`
	HistoryID  int64           `json:"history_id,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Renderer renders figures for one project root.
type Renderer struct {
	root     string
	cfg      *config.NeurofigConfig
	registry *figures.Registry

	logger    *slog.Logger
	renderLog *logging.RenderLog
	history   *history.Store
	viewer    Opener
	allowed   []string
	now       func() time.Time
}

// NewRenderer creates a Renderer over the figure catalogue.
func NewRenderer(root string, cfg *config.NeurofigConfig, registry *figures.Registry) *Renderer {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = figures.Catalogue()
	}
	return &Renderer{
		root:     root,
		cfg:      cfg,
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
}

// SetLogger sets the structured logger and the render trace.
func (r *Renderer) SetLogger(logger *slog.Logger, renderLog *logging.RenderLog) {
	if logger != nil {
		r.logger = logger
	}
	r.renderLog = renderLog
}

// SetHistory records renders in s. Nil disables history.
func (r *Renderer) SetHistory(s *history.Store) {
	r.history = s
}

// SetViewer sets what Request.Show and display.show open files with.
func (r *Renderer) SetViewer(v Opener) {
	r.viewer = v
}

// SetAllowedDirs confines every written file to dirs. Empty allows any path.
func (r *Renderer) SetAllowedDirs(dirs []string) {
	r.allowed = dirs
}

// Registry returns the figure catalogue.
func (r *Renderer) Registry() *figures.Registry {
	return r.registry
}

// Render runs the pipeline for req.
func (r *Renderer) Render(ctx context.Context, req Request) (res *Result, err error) {
	start := r.now()
	defer func() {
		if err != nil {
			r.renderLog.Log(logging.RenderEvent{
				Event:    "render_failed",
				Figure:   req.Name,
				Duration: r.now().Sub(start).String(),
				Error:    err.Error(),
			})
		}
	}()

	spec, err := r.registry.Resolve(req.Name, req.Function)
	if err != nil {
		return nil, err
	}
	settings, err := spec.Settings(r.cfg.Figures[spec.Name], req.Set)
	if err != nil {
		return nil, err
	}
	logging.Trace(ctx, r.logger, "resolved figure", "figure", spec.Name, "params", settings.Params, "options", settings.Options)

	st := r.cfg.Style.Style()
	if req.Format != "" {
		st.Format = req.Format
	}
	format, err := render.ParseFormat(st.Format)
	if err != nil {
		return nil, err
	}
	st.Format = string(format)
	st = spec.Style(st)
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}

	exportFormat := r.cfg.Output.Export
	if req.Export != "" {
		exportFormat = req.Export
	}
	export, err := dataio.ParseExportFormat(exportFormat)
	if err != nil {
		return nil, err
	}

	outDir := r.cfg.Output.Dir
	if req.OutputDir != "" {
		outDir = req.OutputDir
	}
	path := render.OutputPath(r.root, outDir, spec.Output, format)
	exportPath := ""
	if export != dataio.ExportNone {
		exportPath = strings.TrimSuffix(path, filepath.Ext(path)) + "." + export.Extension()
	}
	if err := r.confine(path, exportPath); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, inputPath, err := r.loadInput(spec, req.Input)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fig, err := spec.Build(figures.Inputs{
		Params:  settings.Params,
		Options: settings.Options,
		Data:    data,
		Style:   st,
	})
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", spec.Name, err)
	}
	logging.Trace(ctx, r.logger, "built figure", "figure", spec.Name, "panels", len(fig.Panels), "series", len(fig.Series))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := render.Save(fig, st, path)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", spec.Name, err)
	}

	if exportPath != "" {
		if err := dataio.Export(exportPath, export, fig.Series); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", spec.Name, err)
		}
		r.logger.Debug("exported series", "figure", spec.Name, "path", exportPath, "series", len(fig.Series))
	}

	res = &Result{
		Figure:     spec.Name,
		Group:      spec.Group,
		Path:       out.Path,
		Format:     string(out.Format),
		Bytes:      out.Bytes,
		Checksum:   out.Checksum,
		ExportPath: exportPath,
		Input:      inputPath,
		Params:     maps.Clone(settings.Params),
		Options:    maps.Clone(settings.Options),
		Summary:    fig.Summary,
		Duration:   r.now().Sub(start),
	}

	if r.history != nil && !req.NoHistory {
		id, err := r.record(ctx, res)
		if err != nil {
			// The figure is already on disk; history is a side record.
			r.logger.Warn("failed to record render history", "figure", spec.Name, "error", err)
		}
		res.HistoryID = id
	}

	r.logger.Info("rendered figure", "figure", res.Figure, "path", res.Path, "bytes", res.Bytes, "duration", res.Duration)
	r.renderLog.Log(logging.RenderEvent{
		Event:    "render",
		Figure:   res.Figure,
		Params:   res.Params,
		Options:  res.Options,
		Input:    res.Input,
		Output:   res.Path,
		Bytes:    res.Bytes,
		Checksum: res.Checksum,
		Duration: res.Duration.String(),
	})

	if (req.Show || r.cfg.Display.Show) && r.viewer != nil {
		if err := r.viewer.Open(res.Path); err != nil {
			r.logger.Warn("failed to open viewer", "path", res.Path, "error", err)
		}
	}
	return res, nil
}

// loadInput reads the figure's table. It returns the path it read,
// relative to the root when the default path was used.
func (r *Renderer) loadInput(spec *figures.Spec, override string) (*dataio.Matrix, string, error) {
	if spec.Input == nil {
		return nil, "", nil
	}
	rel := spec.Input.Path
	if override != "" {
		rel = override
	}
	m, err := dataio.ReadMatrix(pathutil.Resolve(r.root, rel), dataio.ReadOptions{Delimiter: spec.Input.Delimiter})
	if err != nil {
		return nil, "", fmt.Errorf("%s input: %w", spec.Name, err)
	}
	r.logger.Debug("loaded input", "figure", spec.Name, "input", rel, "rows", m.Len(), "cols", m.Cols)
	return m, rel, nil
}

func (r *Renderer) confine(paths ...string) error {
	if len(r.allowed) == 0 {
		return nil
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := pathutil.ValidatePath(p, r.allowed); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) record(ctx context.Context, res *Result) (int64, error) {
	id, err := r.history.Record(ctx, history.Entry{
		Figure:   res.Figure,
		Group:    res.Group,
		Format:   res.Format,
		Path:     res.Path,
		Input:    res.Input,
		Bytes:    res.Bytes,
		Checksum: res.Checksum,
		Params:   res.Params,
		Options:  res.Options,
		Summary:  res.Summary,
		Duration: res.Duration,
	})
	if err != nil {
		return 0, err
	}
	if keep := r.cfg.History.Keep; keep > 0 {
		if n, err := r.history.Prune(ctx, keep); err != nil {
			return id, err
		} else if n > 0 {
			r.logger.Debug("pruned render history", "removed", n, "keep", keep)
		}
	}
	return id, nil
}

// Skipped is a figure RenderAll did not attempt.
type Skipped struct {
	Figure string `json:"figure"`
	Reason string `json:"reason"`
}

// RenderAll renders every figure in catalogue order, using base for the
// format, output and export settings. Figures whose input file is missing
// are skipped. Failures do not stop the run and are joined into err.
func (r *Renderer) RenderAll(ctx context.Context, base Request) ([]*Result, []Skipped, error) {
	var (
		results []*Result
		skipped []Skipped
		errs    []error
	)
	for _, spec := range r.registry.List() {
		if err := ctx.Err(); err != nil {
			return results, skipped, err
		}
		if spec.Input != nil {
			if _, err := os.Stat(pathutil.Resolve(r.root, spec.Input.Path)); err != nil {
				skipped = append(skipped, Skipped{Figure: spec.Name, Reason: "missing input " + spec.Input.Path})
				continue
			}
		}
		req := base
		req.Name = spec.Name
		req.Function = ""
		req.Set = nil
		req.Input = ""
		res, err := r.Render(ctx, req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return results, skipped, err
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, skipped, errors.Join(errs...)
}
