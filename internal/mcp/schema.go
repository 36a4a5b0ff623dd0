package mcp

import "github.com/nvandessel/neurofig/internal/figures"

// ListInput is the input of neurofig_list.
type ListInput struct {
	Group string `json:"group,omitempty" jsonschema:"Only list figures in this group"`
}

// ListOutput is the output of neurofig_list.
type ListOutput struct {
	Figures []FigureInfo `json:"figures" jsonschema:"Figures in catalogue order"`
	Groups  []GroupInfo  `json:"groups" jsonschema:"Figure groups and their default figure"`
	Count   int          `json:"count" jsonschema:"Number of figures listed"`
}

// FigureInfo describes one figure.
type FigureInfo struct {
	Name        string      `json:"name"`
	Group       string      `json:"group"`
	Description string      `json:"description"`
	Output      string      `json:"output" jsonschema:"Output file base name"`
	Input       string      `json:"input,omitempty" jsonschema:"Input CSV relative to the project root"`
	Default     bool        `json:"default" jsonschema:"Whether the bare group name renders this figure"`
	Params      []ParamInfo `json:"params,omitempty"`
}

// ParamInfo is one overridable parameter and its default.
type ParamInfo struct {
	Name    string `json:"name"`
	Default string `json:"default" jsonschema:"Default value, or the allowed choices separated by |"`
}

// GroupInfo describes a group of figures.
type GroupInfo struct {
	Name    string   `json:"name"`
	Default string   `json:"default"`
	Members []string `json:"members"`
}

// RenderInput is the input of neurofig_render.
type RenderInput struct {
	Figure    string         `json:"figure" jsonschema:"Figure or group name"`
	Function  string         `json:"function,omitempty" jsonschema:"Figure to pick inside a group"`
	Params    map[string]any `json:"params,omitempty" jsonschema:"Parameter overrides by name"`
	Format    string         `json:"format,omitempty" jsonschema:"eps, svg, pdf, png, jpg or tif"`
	Export    string         `json:"export,omitempty" jsonschema:"Also write the plotted series as arrow or csv"`
	OutputDir string         `json:"output_dir,omitempty" jsonschema:"Output directory inside the project root"`
	Input     string         `json:"input,omitempty" jsonschema:"Input CSV inside the project root"`
}

// RenderOutput is the output of neurofig_render.
type RenderOutput struct {
	Figure     string         `json:"figure"`
	Group      string         `json:"group"`
	Path       string         `json:"path" jsonschema:"Written file, relative to the project root when inside it"`
	Format     string         `json:"format"`
	Bytes      int64          `json:"bytes"`
	Checksum   string         `json:"checksum" jsonschema:"SHA-256 of the written file"`
	ExportPath string         `json:"export_path,omitempty"`
	Summary    []figures.Stat `json:"summary,omitempty" jsonschema:"Summary statistics printed by the figure"`
	HistoryID  int64          `json:"history_id,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// HistoryInput is the input of neurofig_history.
type HistoryInput struct {
	Figure string `json:"figure,omitempty" jsonschema:"Only renders of this figure"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum rows (default 20)"`
}

// HistoryOutput is the output of neurofig_history.
type HistoryOutput struct {
	Renders []HistoryItem `json:"renders" jsonschema:"Renders, newest first"`
	Count   int           `json:"count"`
}

// HistoryItem is one past render.
type HistoryItem struct {
	ID         int64  `json:"id"`
	Figure     string `json:"figure"`
	Format     string `json:"format"`
	Path       string `json:"path"`
	Bytes      int64  `json:"bytes"`
	Checksum   string `json:"checksum"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at" jsonschema:"RFC 3339 timestamp"`
}
