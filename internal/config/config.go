// Package config loads neurofig settings from YAML files and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/logging"
	"github.com/nvandessel/neurofig/internal/render"
	"github.com/nvandessel/neurofig/internal/style"
)

// NeurofigConfig contains all neurofig settings.
type NeurofigConfig struct {
	Style   StyleConfig   `json:"style" yaml:"style"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Display DisplayConfig `json:"display" yaml:"display"`
	History HistoryConfig `json:"history" yaml:"history"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Figures holds per-figure parameter overrides, keyed by figure name,
	// e.g. figures.sigmoid.u_ref: -60.
	Figures map[string]map[string]string `json:"figures,omitempty" yaml:"figures,omitempty"`
}

// StyleConfig is the shared plot style. Sizes are inches, font sizes and
// line geometry are points.
type StyleConfig struct {
	Width       float64 `json:"width" yaml:"width"`
	Height      float64 `json:"height" yaml:"height"`
	FontSize    float64 `json:"font_size" yaml:"font_size"`
	LabelScale  float64 `json:"label_scale" yaml:"label_scale"`
	TitleScale  float64 `json:"title_scale" yaml:"title_scale"`
	LegendScale float64 `json:"legend_scale" yaml:"legend_scale"`
	TickScale   float64 `json:"tick_scale" yaml:"tick_scale"`
	TickLength  float64 `json:"tick_length" yaml:"tick_length"`
	TickWidth   float64 `json:"tick_width" yaml:"tick_width"`
	AxisWidth   float64 `json:"axis_width" yaml:"axis_width"`
	LineWidth   float64 `json:"line_width" yaml:"line_width"`
	MarkerSize  float64 `json:"marker_size" yaml:"marker_size"`
	LegendLoc   string  `json:"legend_loc" yaml:"legend_loc"`

	// DPI applies to png, jpg and tif output.
	DPI int `json:"dpi" yaml:"dpi"`

	// Format is one of eps, svg, pdf, png, jpg, tif.
	Format string `json:"format" yaml:"format"`
}

// OutputConfig controls where figures are written.
type OutputConfig struct {
	// Dir is relative to the project root unless absolute.
	Dir string `json:"dir" yaml:"dir"`

	// Export writes the plotted series beside each figure: "", "arrow" or "csv".
	Export string `json:"export" yaml:"export"`
}

// DisplayConfig controls the interactive viewer.
type DisplayConfig struct {
	// Show opens each written figure in the platform viewer.
	Show bool `json:"show" yaml:"show"`

	// Viewer overrides the platform viewer command.
	Viewer string `json:"viewer,omitempty" yaml:"viewer,omitempty"`
}

// HistoryConfig controls the render history database.
type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Keep is the number of rows kept after each render. Zero keeps all.
	Keep int `json:"keep" yaml:"keep"`
}

// LoggingConfig configures neurofig's logging.
type LoggingConfig struct {
	// Level is "info" (default), "debug" or "trace". "debug" also writes
	// the render trace to .neurofig/renders.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns the configuration that reproduces the reference figures.
func Default() *NeurofigConfig {
	s := style.Default()
	return &NeurofigConfig{
		Style: StyleConfig{
			Width:       float64(s.Width / vg.Inch),
			Height:      float64(s.Height / vg.Inch),
			FontSize:    s.FontSize,
			LabelScale:  s.LabelScale,
			TitleScale:  s.TitleScale,
			LegendScale: s.LegendScale,
			TickScale:   s.TickScale,
			TickLength:  s.TickLength,
			TickWidth:   s.TickWidth,
			AxisWidth:   s.AxisWidth,
			LineWidth:   s.LineWidth,
			MarkerSize:  s.MarkerSize,
			LegendLoc:   s.LegendLoc,
			DPI:         constants.DefaultDPI,
			Format:      constants.DefaultFormat,
		},
		Output: OutputConfig{
			Dir: constants.DefaultOutputDir,
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    constants.DefaultHistoryKeep,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Style converts the configured style into plot units.
func (c StyleConfig) Style() style.Style {
	return style.Style{
		Width:       vg.Length(c.Width) * vg.Inch,
		Height:      vg.Length(c.Height) * vg.Inch,
		FontSize:    c.FontSize,
		LabelScale:  c.LabelScale,
		TitleScale:  c.TitleScale,
		LegendScale: c.LegendScale,
		TickScale:   c.TickScale,
		TickLength:  c.TickLength,
		TickWidth:   c.TickWidth,
		AxisWidth:   c.AxisWidth,
		LineWidth:   c.LineWidth,
		MarkerSize:  c.MarkerSize,
		LegendLoc:   c.LegendLoc,
		DPI:         c.DPI,
		Format:      c.Format,
	}
}

// GlobalPath returns ~/.neurofig/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.StateDirName, constants.ConfigFileName), nil
}

// LocalPath returns the project configuration file under root.
func LocalPath(root string) string {
	return filepath.Join(root, constants.StateDirName, constants.ConfigFileName)
}

// Path returns the configuration file for scope.
func Path(scope constants.Scope, root string) (string, error) {
	switch scope {
	case constants.ScopeGlobal:
		return GlobalPath()
	case constants.ScopeLocal:
		return LocalPath(root), nil
	}
	return "", fmt.Errorf("invalid scope: %q (valid: local, global)", scope)
}

// Load builds the effective configuration.
// Order: defaults -> ~/.neurofig/config.yaml -> <root>/.neurofig/config.yaml
// -> extra (when set) -> environment variables.
func Load(root, extra string) (*NeurofigConfig, error) {
	cfg := Default()

	for _, scope := range constants.Scopes {
		if scope == constants.ScopeLocal && root == "" {
			continue
		}
		path, err := Path(scope, root)
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := cfg.merge(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}
	if extra != "" {
		if err := cfg.merge(extra); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads a single YAML file over the defaults.
func LoadFromFile(path string) (*NeurofigConfig, error) {
	cfg := Default()
	if err := cfg.merge(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge decodes path over c. Keys absent from the file keep their values.
func (c *NeurofigConfig) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	c.Output.Dir = os.ExpandEnv(c.Output.Dir)
	return nil
}

// Save writes c to path, creating the directory with owner-only access.
func (c *NeurofigConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *NeurofigConfig) Validate() error {
	if _, err := render.ParseFormat(c.Style.Format); err != nil {
		return fmt.Errorf("style.format: %w", err)
	}
	if err := c.Style.Style().Validate(); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	for name, v := range map[string]float64{
		"label_scale":  c.Style.LabelScale,
		"title_scale":  c.Style.TitleScale,
		"legend_scale": c.Style.LegendScale,
		"tick_scale":   c.Style.TickScale,
	} {
		if v <= 0 {
			return fmt.Errorf("style.%s must be positive, got %g", name, v)
		}
	}
	if _, err := dataio.ParseExportFormat(c.Output.Export); err != nil {
		return fmt.Errorf("output.export: %w", err)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must be non-negative, got %d", c.History.Keep)
	}
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies NEUROFIG_* environment variables to cfg.
func applyEnvOverrides(cfg *NeurofigConfig) {
	env := func(name string) string { return os.Getenv(constants.EnvPrefix + name) }

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("FORMAT"); v != "" {
		cfg.Style.Format = strings.ToLower(v)
	}
	if v := env("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := env("EXPORT"); v != "" {
		cfg.Output.Export = v
	}
	if v := env("DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Style.DPI = n
		}
	}
	if v := env("SHOW"); v != "" {
		cfg.Display.Show = parseBool(v)
	}
	if v := env("VIEWER"); v != "" {
		cfg.Display.Viewer = v
	}
	if v := env("HISTORY"); v != "" {
		cfg.History.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// ParseBool interprets the values neurofig accepts for boolean settings.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}
