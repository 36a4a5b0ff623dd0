package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/neurofig/internal/app"
	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/history"
	"github.com/nvandessel/neurofig/internal/pathutil"
)

// ErrHistoryDisabled is returned by neurofig_history when history is off.
var ErrHistoryDisabled = errors.New("render history is disabled")

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neurofig_list",
		Description: "List the figures neurofig can render, their groups and overridable parameters",
	}, s.handleList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neurofig_render",
		Description: "Render a figure or group to a file under the project root and return its summary statistics",
	}, s.handleRender)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neurofig_history",
		Description: "List recent renders recorded in the project's render history",
	}, s.handleHistory)
}

func (s *Server) handleList(ctx context.Context, req *sdk.CallToolRequest, args ListInput) (_ *sdk.CallToolResult, _ ListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neurofig_list", start, retErr, sanitizeToolParams(map[string]any{"group": args.Group}))
	}()
	if err := s.limiters.Check("neurofig_list", ""); err != nil {
		return nil, ListOutput{}, err
	}

	out := ListOutput{Figures: []FigureInfo{}, Groups: []GroupInfo{}}
	for _, g := range s.registry.Groups() {
		if args.Group != "" && g.Name != args.Group {
			continue
		}
		out.Groups = append(out.Groups, GroupInfo{Name: g.Name, Default: g.Default, Members: g.Members})
	}
	for _, spec := range s.registry.List() {
		if args.Group != "" && spec.Group != args.Group {
			continue
		}
		info := FigureInfo{
			Name:        spec.Name,
			Group:       spec.Group,
			Description: spec.Description,
			Output:      spec.Output,
			Default:     spec.GroupDefault,
		}
		if spec.Input != nil {
			info.Input = spec.Input.Path
		}
		for _, name := range spec.ParamNames() {
			info.Params = append(info.Params, ParamInfo{Name: name, Default: spec.DefaultString(name)})
		}
		out.Figures = append(out.Figures, info)
	}
	if args.Group != "" && len(out.Figures) == 0 {
		return nil, ListOutput{}, fmt.Errorf("unknown group %q", args.Group)
	}
	out.Count = len(out.Figures)
	return nil, out, nil
}

func (s *Server) handleRender(ctx context.Context, req *sdk.CallToolRequest, args RenderInput) (_ *sdk.CallToolResult, _ RenderOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neurofig_render", start, retErr, sanitizeToolParams(map[string]any{
			"figure": args.Figure, "function": args.Function, "format": args.Format,
			"export": args.Export, "output_dir": args.OutputDir, "input": args.Input,
			"params": args.Params,
		}))
	}()

	if strings.TrimSpace(args.Figure) == "" {
		return nil, RenderOutput{}, errors.New("figure is required")
	}
	if err := s.limiters.Check("neurofig_render", args.Figure); err != nil {
		return nil, RenderOutput{}, err
	}
	if args.Input != "" {
		if err := pathutil.ValidatePath(pathutil.Resolve(s.root, args.Input), []string{s.root}); err != nil {
			return nil, RenderOutput{}, fmt.Errorf("input: %w", err)
		}
	}
	set, err := stringParams(args.Params)
	if err != nil {
		return nil, RenderOutput{}, err
	}

	res, err := s.renderer.Render(ctx, app.Request{
		Name:      args.Figure,
		Function:  args.Function,
		Set:       set,
		Input:     args.Input,
		Format:    args.Format,
		OutputDir: args.OutputDir,
		Export:    args.Export,
	})
	if err != nil {
		return nil, RenderOutput{}, err
	}
	return nil, RenderOutput{
		Figure:     res.Figure,
		Group:      res.Group,
		Path:       s.relative(res.Path),
		Format:     res.Format,
		Bytes:      res.Bytes,
		Checksum:   res.Checksum,
		ExportPath: s.relative(res.ExportPath),
		Summary:    res.Summary,
		HistoryID:  res.HistoryID,
		DurationMs: res.Duration.Milliseconds(),
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neurofig_history", start, retErr, sanitizeToolParams(map[string]any{
			"figure": args.Figure, "limit": args.Limit,
		}))
	}()
	if err := s.limiters.Check("neurofig_history", ""); err != nil {
		return nil, HistoryOutput{}, err
	}
	if s.history == nil {
		return nil, HistoryOutput{}, ErrHistoryDisabled
	}

	limit := args.Limit
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	entries, err := s.history.List(ctx, history.Filter{Figure: args.Figure, Limit: limit})
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	out := HistoryOutput{Renders: make([]HistoryItem, 0, len(entries))}
	for _, e := range entries {
		out.Renders = append(out.Renders, HistoryItem{
			ID:         e.ID,
			Figure:     e.Figure,
			Format:     e.Format,
			Path:       s.relative(e.Path),
			Bytes:      e.Bytes,
			Checksum:   e.Checksum,
			DurationMs: e.Duration.Milliseconds(),
			CreatedAt:  e.Created.Format(time.RFC3339),
		})
	}
	out.Count = len(out.Renders)
	return nil, out, nil
}

// relative shortens paths below the project root.
func (s *Server) relative(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// stringParams converts JSON parameter values to the strings figure
// settings parse.
func stringParams(in map[string]any) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case string:
			out[k] = v
		case float64:
			out[k] = strconv.FormatFloat(v, 'g', -1, 64)
		case int:
			out[k] = strconv.Itoa(v)
		case bool:
			out[k] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("params.%s: unsupported value %v", k, v)
		}
	}
	return out, nil
}
