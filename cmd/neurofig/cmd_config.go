package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/neurofig/internal/config"
	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/figures"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage neurofig configuration",
		Long: `View and modify neurofig configuration settings.

Settings are read from ~/.neurofig/config.yaml, then
<root>/.neurofig/config.yaml, then --config, then NEUROFIG_* variables.
"set" writes one key to the global file, or the project file with
--scope local, leaving other keys untouched.

Examples:
  neurofig config list
  neurofig config get style.format
  neurofig config set style.format pdf
  neurofig config set --scope local figures.sigmoid.u_ref=-60
  neurofig config set --scope local -- figures.sigmoid.u_ref -60

A negative value needs the key=value form or a "--" before the key, since
a bare -60 reads as a flag.`,
	}
	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			extra, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(root, extra)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(w).Encode(cfg)
			}
			for _, key := range configKeys {
				fmt.Fprintf(w, "%-20s %v\n", key+":", configFields[key].get(cfg))
			}
			for _, name := range sortedKeys(cfg.Figures) {
				for _, param := range sortedKeys(cfg.Figures[name]) {
					fmt.Fprintf(w, "%-20s %s\n", "figures."+name+"."+param+":", cfg.Figures[name][param])
				}
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			extra, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(root, extra)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, err := getConfigValue(cfg, key)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value> | set <key>=<value>",
		Short: "Set a configuration value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			scopeStr, _ := cmd.Flags().GetString("scope")
			key, value, err := setArgs(args)
			if err != nil {
				return err
			}

			scope, err := constants.ParseScope(scopeStr)
			if err != nil {
				return err
			}
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			path, err := config.Path(scope, root)
			if err != nil {
				return err
			}
			if err := setFileValue(path, key, value); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
					"scope":  scope.String(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (%s)\n", key, value, scope)
			return nil
		},
	}
	cmd.Flags().String("scope", string(constants.ScopeGlobal), "Config file to write: global (~/.neurofig) or local (<root>/.neurofig)")
	return cmd
}

// setArgs accepts either "<key> <value>" or a single "<key>=<value>".
func setArgs(args []string) (key, value string, err error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	key, value, ok := strings.Cut(args[0], "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected <key> <value> or <key>=<value>, got %q", args[0])
	}
	return key, value, nil
}

// configField reads and writes one dot-notation key.
type configField struct {
	get func(*config.NeurofigConfig) interface{}
	set func(*config.NeurofigConfig, string) error
}

func floatField(ptr func(*config.NeurofigConfig) *float64) configField {
	return configField{
		get: func(c *config.NeurofigConfig) interface{} { return *ptr(c) },
		set: func(c *config.NeurofigConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number: %s", v)
			}
			*ptr(c) = f
			return nil
		},
	}
}

func intField(ptr func(*config.NeurofigConfig) *int) configField {
	return configField{
		get: func(c *config.NeurofigConfig) interface{} { return *ptr(c) },
		set: func(c *config.NeurofigConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer: %s", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func stringField(ptr func(*config.NeurofigConfig) *string) configField {
	return configField{
		get: func(c *config.NeurofigConfig) interface{} { return *ptr(c) },
		set: func(c *config.NeurofigConfig, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func boolField(ptr func(*config.NeurofigConfig) *bool) configField {
	return configField{
		get: func(c *config.NeurofigConfig) interface{} { return *ptr(c) },
		set: func(c *config.NeurofigConfig, v string) error {
			b, err := config.ParseBool(v)
			if err != nil {
				return err
			}
			*ptr(c) = b
			return nil
		},
	}
}

var configFields = map[string]configField{
	"style.width":        floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.Width }),
	"style.height":       floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.Height }),
	"style.font_size":    floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.FontSize }),
	"style.label_scale":  floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.LabelScale }),
	"style.title_scale":  floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.TitleScale }),
	"style.legend_scale": floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.LegendScale }),
	"style.tick_scale":   floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.TickScale }),
	"style.tick_length":  floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.TickLength }),
	"style.tick_width":   floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.TickWidth }),
	"style.axis_width":   floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.AxisWidth }),
	"style.line_width":   floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.LineWidth }),
	"style.marker_size":  floatField(func(c *config.NeurofigConfig) *float64 { return &c.Style.MarkerSize }),
	"style.legend_loc":   stringField(func(c *config.NeurofigConfig) *string { return &c.Style.LegendLoc }),
	"style.dpi":          intField(func(c *config.NeurofigConfig) *int { return &c.Style.DPI }),
	"style.format":       stringField(func(c *config.NeurofigConfig) *string { return &c.Style.Format }),
	"output.dir":         stringField(func(c *config.NeurofigConfig) *string { return &c.Output.Dir }),
	"output.export":      stringField(func(c *config.NeurofigConfig) *string { return &c.Output.Export }),
	"display.show":       boolField(func(c *config.NeurofigConfig) *bool { return &c.Display.Show }),
	"display.viewer":     stringField(func(c *config.NeurofigConfig) *string { return &c.Display.Viewer }),
	"history.enabled":    boolField(func(c *config.NeurofigConfig) *bool { return &c.History.Enabled }),
	"history.keep":       intField(func(c *config.NeurofigConfig) *int { return &c.History.Keep }),
	"logging.level":      stringField(func(c *config.NeurofigConfig) *string { return &c.Logging.Level }),
}

// configKeys lists configFields in display order.
var configKeys = []string{
	"style.format", "style.dpi", "style.width", "style.height", "style.font_size",
	"style.label_scale", "style.title_scale", "style.legend_scale", "style.tick_scale",
	"style.tick_length", "style.tick_width", "style.axis_width", "style.line_width",
	"style.marker_size", "style.legend_loc",
	"output.dir", "output.export",
	"display.show", "display.viewer",
	"history.enabled", "history.keep",
	"logging.level",
}

// splitFigureKey parses figures.<name>.<param>.
func splitFigureKey(key string) (name, param string, ok bool) {
	rest, found := strings.CutPrefix(key, "figures.")
	if !found {
		return "", "", false
	}
	name, param, ok = strings.Cut(rest, ".")
	return name, param, ok && name != "" && param != ""
}

// getConfigValue returns the value of a dot-notation key. A figure
// parameter without an override reports its default.
func getConfigValue(cfg *config.NeurofigConfig, key string) (interface{}, error) {
	if f, ok := configFields[key]; ok {
		return f.get(cfg), nil
	}
	name, param, ok := splitFigureKey(key)
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
	spec, err := figureParam(name, param)
	if err != nil {
		return nil, err
	}
	if v, ok := cfg.Figures[name][param]; ok {
		return v, nil
	}
	return spec.DefaultString(param), nil
}

func figureParam(name, param string) (*figures.Spec, error) {
	spec, ok := figures.Catalogue().Get(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, figures.ErrUnknownFigure)
	}
	if !slices.Contains(spec.ParamNames(), param) {
		return nil, fmt.Errorf("%s: %q: %w", name, param, figures.ErrUnknownParam)
	}
	return spec, nil
}

// setFileValue writes key=value into the YAML file at path. Only the
// keys already in the file and the new one are written, so the file keeps
// layering over the ones loaded before it.
func setFileValue(path, key, value string) error {
	var typed interface{}
	if f, ok := configFields[key]; ok {
		scratch := config.Default()
		if err := f.set(scratch, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		typed = f.get(scratch)
	} else if name, param, ok := splitFigureKey(key); ok {
		spec, err := figureParam(name, param)
		if err != nil {
			return err
		}
		if _, err := spec.Settings(map[string]string{param: value}); err != nil {
			return err
		}
		typed = value
	} else {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	tree := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
		if tree == nil {
			tree = map[string]interface{}{}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("reading config file: %w", err)
	}

	parts := strings.Split(key, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = typed

	out, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	check := config.Default()
	if err := yaml.Unmarshal(out, check); err != nil {
		return fmt.Errorf("parsing updated config: %w", err)
	}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
