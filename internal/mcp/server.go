// Package mcp serves neurofig figure rendering over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/neurofig/internal/app"
	"github.com/nvandessel/neurofig/internal/config"
	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/figures"
	"github.com/nvandessel/neurofig/internal/history"
	"github.com/nvandessel/neurofig/internal/logging"
	"github.com/nvandessel/neurofig/internal/pathutil"
	"github.com/nvandessel/neurofig/internal/ratelimit"
)

// Server wraps the MCP SDK server around a Renderer.
type Server struct {
	server    *sdk.Server
	renderer  *app.Renderer
	registry  *figures.Registry
	history   *history.Store
	renderLog *logging.RenderLog
	audit     *AuditLogger
	limiters  ratelimit.ToolLimiters
	logger    *slog.Logger
	root      string
}

// Config holds server configuration.
type Config struct {
	Name     string // e.g. "neurofig"
	Version  string
	Root     string // project root; every written file stays below it
	Settings *config.NeurofigConfig
	Logger   *slog.Logger
}

// NewServer creates a server with the neurofig tools registered.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry := figures.Catalogue()
	renderer := app.NewRenderer(cfg.Root, settings, registry)
	renderer.SetAllowedDirs(pathutil.ProjectDirs(cfg.Root, settings.Output.Dir))

	s := &Server{
		renderer: renderer,
		registry: registry,
		limiters: ratelimit.NewToolLimiters(),
		logger:   logger,
		root:     cfg.Root,
	}

	stateDir := filepath.Join(cfg.Root, constants.StateDirName)
	s.renderLog = logging.NewRenderLog(stateDir, settings.Logging.Level)
	renderer.SetLogger(logger, s.renderLog)

	if settings.History.Enabled {
		store, err := history.Open(cfg.Root)
		if err != nil {
			s.renderLog.Close()
			return nil, fmt.Errorf("failed to open render history: %w", err)
		}
		s.history = store
		renderer.SetHistory(store)
	}

	s.audit = NewAuditLogger(stateDir)
	if s.audit == nil {
		logger.Warn("MCP audit log unavailable", "dir", pathutil.RedactPath(stateDir))
	}

	s.server = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled or the process is signalled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the history database and log files.
func (s *Server) Close() error {
	var err error
	if s.history != nil {
		err = s.history.Close()
	}
	s.renderLog.Close()
	if aerr := s.audit.Close(); err == nil {
		err = aerr
	}
	return err
}
