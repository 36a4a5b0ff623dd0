package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/neurofig/internal/app"
	"github.com/nvandessel/neurofig/internal/config"
	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/figures"
	"github.com/nvandessel/neurofig/internal/history"
	"github.com/nvandessel/neurofig/internal/logging"
	"github.com/nvandessel/neurofig/internal/viewer"
)

// Set by the release build.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neurofig",
		Short: "Render the neuron and synapse model figures",
		Long: `neurofig renders a fixed catalogue of figures for spiking neuron models:
coincidence detection, EPSC learning windows, leaky integrate-and-fire
traces, spiking-probability sigmoids, kinematics and firing-time statistics.

Each figure runs with its reference parameters unless overridden, writes
one file under results/ and prints its summary statistics.`,
		SilenceUsage: true,
	}
	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newRenderCmd(),
		newRenderAllCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().String("root", ".", "Project root directory")
	cmd.PersistentFlags().String("config", "", "Extra config file applied after ~/.neurofig and the project config")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
}

// projectRoot returns the absolute --root.
func projectRoot(cmd *cobra.Command) (string, error) {
	root, _ := cmd.Flags().GetString("root")
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	return abs, nil
}

// loadSettings loads and validates the effective configuration.
func loadSettings(cmd *cobra.Command, root string) (*config.NeurofigConfig, error) {
	extra, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(root, extra)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.NeurofigConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// session is a Renderer plus the resources it holds open.
type session struct {
	root     string
	cfg      *config.NeurofigConfig
	renderer *app.Renderer
	history  *history.Store
	trace    *logging.RenderLog
}

// openSession wires a Renderer for the command's project.
func openSession(cmd *cobra.Command, withHistory bool) (*session, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := loadSettings(cmd, root)
	if err != nil {
		return nil, err
	}

	s := &session{root: root, cfg: cfg}
	s.renderer = app.NewRenderer(root, cfg, figures.Catalogue())
	s.trace = logging.NewRenderLog(filepath.Join(root, constants.StateDirName), cfg.Logging.Level)
	s.renderer.SetLogger(newLogger(cmd, cfg), s.trace)
	s.renderer.SetViewer(viewer.New(cfg.Display.Viewer))

	if withHistory && cfg.History.Enabled {
		store, err := history.Open(root)
		if err != nil {
			s.trace.Close()
			return nil, fmt.Errorf("failed to open render history: %w", err)
		}
		s.history = store
		s.renderer.SetHistory(store)
	}
	return s, nil
}

func (s *session) Close() {
	if s.history != nil {
		s.history.Close()
	}
	s.trace.Close()
}

// signalContext is cancelled on interrupt so long renders stop between steps.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
