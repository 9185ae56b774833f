package hglib

import (
	"context"
	"fmt"

	"cdr.dev/slog"
	"go.uber.org/multierr"

	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/hiergram/hglayout"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/log"
)

// Validate reports every inconsistency in diagram's hierarchy and edges.
// Layout tolerates all of them, so Validate is only advisory.
func Validate(ctx context.Context, diagram *hgtarget.Diagram) (err error) {
	if diagram == nil {
		return nil
	}
	defer func() {
		if err != nil {
			log.Debug(ctx, "diagram invalid", slog.F("issues", len(multierr.Errors(err))))
		}
	}()

	idx := hglayout.NewIndex(diagram.Nodes)
	seen := make(map[string]struct{}, len(diagram.Nodes))
	for i, n := range diagram.Nodes {
		if n.ID == "" {
			if !n.IsRoot() || n.HasChildren() {
				err = multierr.Append(err, fmt.Errorf("node %d: missing id", i))
			}
			continue
		}
		if _, ok := seen[n.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("node %q: duplicate id", n.ID))
			continue
		}
		seen[n.ID] = struct{}{}

		if !n.IsRoot() {
			parent, ok := idx.Get(n.Parent)
			if !ok {
				err = multierr.Append(err, fmt.Errorf("node %q: parent %q not found", n.ID, n.Parent))
			} else if !go2.Contains(parent.Children, n.ID) {
				err = multierr.Append(err, fmt.Errorf("node %q: parent %q does not list it as a child", n.ID, n.Parent))
			}
		}
		for _, id := range n.Children {
			child, ok := idx.Get(id)
			if !ok {
				err = multierr.Append(err, fmt.Errorf("node %q: child %q not found", n.ID, id))
			} else if child.Parent != n.ID {
				err = multierr.Append(err, fmt.Errorf("node %q: child %q has parent %q", n.ID, id, child.Parent))
			}
		}
		if _, cycle := idx.AbsolutePosition(&diagram.Nodes[i]); cycle {
			err = multierr.Append(err, fmt.Errorf("node %q: parent cycle", n.ID))
		}
	}

	edgeIDs := make(map[string]struct{}, len(diagram.Edges))
	for i, e := range diagram.Edges {
		name := e.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			err = multierr.Append(err, fmt.Errorf("edge %d: missing id", i))
		} else if _, ok := edgeIDs[e.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("edge %q: duplicate id", e.ID))
		}
		edgeIDs[e.ID] = struct{}{}

		err = multierr.Append(err, validateEndpoint(idx, name, "from", e.FromID, e.FromType))
		err = multierr.Append(err, validateEndpoint(idx, name, "to", e.ToID, e.ToType))
	}
	return err
}

func validateEndpoint(idx *hglayout.Index, edge, side, nodeID string, t hgtarget.LinkType) (err error) {
	if nodeID != "" {
		if _, ok := idx.Get(nodeID); !ok {
			err = multierr.Append(err, fmt.Errorf("edge %q: %s node %q not found", edge, side, nodeID))
		}
	}
	if t != "" && !t.IsValid() {
		err = multierr.Append(err, fmt.Errorf("edge %q: unknown %sType %q", edge, side, t))
	}
	return err
}
