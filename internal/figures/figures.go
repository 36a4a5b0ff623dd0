// Package figures is the catalogue of neurofig figures. Each figure is a
// pure function from its parameters and optional input table to a set of
// styled plot panels, summary statistics and exportable series.
package figures

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/plot"

	"github.com/nvandessel/neurofig/internal/dataio"
	"github.com/nvandessel/neurofig/internal/style"
)

var (
	// ErrUnknownFigure is returned when a name matches no figure or group.
	ErrUnknownFigure = errors.New("unknown figure")

	// ErrUnknownFunction is returned when a function is not part of the named group.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownParam is returned for an override that names no parameter.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrInvalidParam is returned when a parameter value is out of range.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrMissingInput is returned when a figure that reads a table gets none.
	ErrMissingInput = errors.New("missing input data")
)

// Params holds numeric figure parameters by name.
type Params map[string]float64

// Int returns the parameter rounded toward zero.
func (p Params) Int(name string) int {
	return int(p[name])
}

// Options holds enumerated figure choices by name.
type Options map[string]string

// Input describes the table a figure reads.
type Input struct {
	// Path is relative to the project root unless absolute.
	Path      string
	Delimiter dataio.Delimiter
}

// Spec describes one figure.
type Spec struct {
	Name        string
	Group       string
	Description string

	// Output is the file base name, without directory or extension.
	Output string
	Input  *Input

	Defaults Params
	// Choices lists the allowed values of each option. The first is the default.
	Choices map[string][]string
	// Positive names parameters that must be greater than zero.
	Positive []string
	// Integer names parameters that must be whole numbers of at least one.
	Integer []string

	// GroupDefault marks the figure a bare group name resolves to.
	GroupDefault bool

	// Restyle adjusts the shared style for this figure.
	Restyle func(style.Style) style.Style

	Build func(Inputs) (*Figure, error)
}

// Inputs is everything a Build function reads.
type Inputs struct {
	Params  Params
	Options Options
	Data    *dataio.Matrix
	Style   style.Style
}

// Panel is one subplot. Panels stack top to bottom.
type Panel struct {
	Plot *plot.Plot
	// Twin is an optional right-hand axis drawn inside Plot.
	Twin *style.TwinAxis
}

// Stat is one line of printed summary output.
type Stat struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Figure is the built, unrendered result of a Spec.
type Figure struct {
	Name   string
	Panels []Panel
	// Colorbar, when set, is drawn to the right of the panels.
	Colorbar *plot.Plot
	Summary  []Stat
	Series   []dataio.Series
}

// Settings is a resolved parameter set.
type Settings struct {
	Params  Params
	Options Options
}

// Settings merges layers of string overrides over the figure defaults.
// Later layers win. Numeric parameters parse as floats and options must be
// one of the declared choices.
func (s *Spec) Settings(layers ...map[string]string) (Settings, error) {
	out := Settings{
		Params:  maps.Clone(s.Defaults),
		Options: make(Options, len(s.Choices)),
	}
	if out.Params == nil {
		out.Params = Params{}
	}
	for name, choices := range s.Choices {
		out.Options[name] = choices[0]
	}

	for _, layer := range layers {
		for _, key := range slices.Sorted(maps.Keys(layer)) {
			raw := strings.TrimSpace(layer[key])
			if choices, ok := s.Choices[key]; ok {
				if !slices.Contains(choices, raw) {
					return Settings{}, fmt.Errorf("%s: %s=%q, want one of %s: %w",
						s.Name, key, raw, strings.Join(choices, "|"), ErrInvalidParam)
				}
				out.Options[key] = raw
				continue
			}
			if _, ok := s.Defaults[key]; !ok {
				return Settings{}, fmt.Errorf("%s: %q: %w", s.Name, key, ErrUnknownParam)
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Settings{}, fmt.Errorf("%s: %s=%q: %w", s.Name, key, raw, ErrInvalidParam)
			}
			out.Params[key] = v
		}
	}

	for _, key := range s.Positive {
		if v := out.Params[key]; !(v > 0) {
			return Settings{}, fmt.Errorf("%s: %s must be positive, got %g: %w", s.Name, key, v, ErrInvalidParam)
		}
	}
	for _, key := range s.Integer {
		if v := out.Params[key]; v < 1 || v != math.Trunc(v) {
			return Settings{}, fmt.Errorf("%s: %s must be a whole number >= 1, got %g: %w", s.Name, key, v, ErrInvalidParam)
		}
	}
	return out, nil
}

// Style returns the shared style adjusted for this figure.
func (s *Spec) Style(base style.Style) style.Style {
	if s.Restyle == nil {
		return base
	}
	return s.Restyle(base)
}

// ParamNames returns the sorted parameter and option names.
func (s *Spec) ParamNames() []string {
	names := slices.Collect(maps.Keys(s.Defaults))
	for name := range s.Choices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultString renders the default of a parameter or option.
func (s *Spec) DefaultString(name string) string {
	if choices, ok := s.Choices[name]; ok {
		return strings.Join(choices, "|")
	}
	return strconv.FormatFloat(s.Defaults[name], 'g', -1, 64)
}

func statf(name, format string, args ...any) Stat {
	return Stat{Name: name, Value: fmt.Sprintf(format, args...)}
}
