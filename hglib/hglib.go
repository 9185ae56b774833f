package hglib

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/hiergram/hglayout"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/log"
)

type CompileOptions struct {
	// Config overrides the diagram's own config block.
	Config *hgtarget.Config
}

// LayoutOpts resolves the engine options for diagram: defaults, then the
// diagram's config, then opts.Config.
func LayoutOpts(diagram *hgtarget.Diagram, opts *CompileOptions) (*hglayout.Opts, error) {
	var cfg *hgtarget.Config
	if diagram != nil {
		cfg = diagram.Config
	}
	if opts != nil {
		cfg = cfg.Merge(opts.Config)
	}
	return hglayout.NewOpts(cfg)
}

// Layout returns a copy of diagram with node sizes, absolute positions and
// edge endpoints derived. Dangling ids and cycles do not fail the layout.
func Layout(ctx context.Context, diagram *hgtarget.Diagram, opts *CompileOptions) (_ *hgtarget.Diagram, err error) {
	defer xdefer.Errorf(&err, "failed to layout")

	lopts, err := LayoutOpts(diagram, opts)
	if err != nil {
		return nil, err
	}

	out := diagram.Copy()
	if out == nil {
		out = hgtarget.NewDiagram()
	}
	out.Nodes = hglayout.Preprocess(ctx, out.Nodes, lopts)
	out.Edges = hglayout.ResolveEdgeEndpoints(ctx, out.Edges, out.Nodes, lopts)

	log.Debug(ctx, "layout complete", slog.F("nodes", len(out.Nodes)), slog.F("edges", len(out.Edges)))
	return out, nil
}

func Compile(ctx context.Context, input []byte, format hgtarget.Format, opts *CompileOptions) (*hgtarget.Diagram, error) {
	diagram, err := hgtarget.Parse(input, format)
	if err != nil {
		return nil, err
	}
	return Layout(ctx, diagram, opts)
}
