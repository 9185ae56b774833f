package hglayout

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
	"oss.terrastruct.com/hiergram/lib/log"
)

// Anchor is the canvas point an edge attaches to on n. Start anchors sit at
// the center of the anchor glyph in the top-left corner, end anchors at the
// center of the glyph in the bottom-right corner. Any other link type
// anchors at the origin.
func Anchor(n *hgtarget.Node, t hgtarget.LinkType, opts *Opts) *geo.Point {
	if opts == nil {
		opts = &DefaultOpts
	}
	half := opts.AnchorInset / 2
	switch t {
	case hgtarget.LinkStart:
		return geo.NewPoint(n.AbsolutePosition.X+half, n.AbsolutePosition.Y+half)
	case hgtarget.LinkEnd:
		br := n.Box().BottomRight()
		br.Translate(-half, -half)
		return br
	default:
		return geo.Origin()
	}
}

// ResolveEdgeEndpoints returns copies of edges, in the same order, with from
// and to set from the laid-out nodes. An edge leaves its source from the end
// anchor and enters its target at the start anchor unless its types say
// otherwise. Endpoints whose id does not resolve are nil.
func ResolveEdgeEndpoints(ctx context.Context, edges []hgtarget.Edge, nodes []hgtarget.Node, opts *Opts) []hgtarget.Edge {
	idx := NewIndex(nodes)
	out := make([]hgtarget.Edge, len(edges))
	for i, e := range edges {
		e = e.Copy()
		e.From = resolveEndpoint(ctx, idx, e.ID, e.FromID, e.FromType, hgtarget.LinkEnd, opts)
		e.To = resolveEndpoint(ctx, idx, e.ID, e.ToID, e.ToType, hgtarget.LinkStart, opts)
		out[i] = e
	}
	return out
}

func resolveEndpoint(ctx context.Context, idx *Index, edgeID, nodeID string, t, fallback hgtarget.LinkType, opts *Opts) *geo.Point {
	if nodeID == "" {
		return nil
	}
	n, ok := idx.Get(nodeID)
	if !ok {
		log.Debug(ctx, "edge endpoint does not resolve", slog.F("edge", edgeID), slog.F("node", nodeID))
		return nil
	}
	if t == "" {
		t = fallback
	}
	return Anchor(n, t, opts)
}
