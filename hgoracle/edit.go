package hgoracle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"oss.terrastruct.com/util-go/go2"
	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/hiergram/hglayout"
	"oss.terrastruct.com/hiergram/hglib"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
)

type EditOptions struct {
	// Config overrides the diagram's config block when laying out.
	Config *hgtarget.Config
	// ClampToParent keeps moved nodes inside their drag bounds.
	ClampToParent bool
}

func (opts *EditOptions) compileOptions() *hglib.CompileOptions {
	if opts == nil {
		return nil
	}
	return &hglib.CompileOptions{Config: opts.Config}
}

// NewNode returns the default node record with a fresh id.
func NewNode() *hgtarget.Node {
	n := hgtarget.BaseNode()
	n.ID = uuid.NewString()
	return n
}

// CreateNode adds n under parentID, or at the root when parentID is empty.
// n.Position is taken as relative to the parent. A nil n creates NewNode().
func CreateNode(ctx context.Context, d *hgtarget.Diagram, parentID string, n *hgtarget.Node, opts *EditOptions) (_ *hgtarget.Diagram, newID string, err error) {
	defer xdefer.Errorf(&err, "failed to create node under %#v", parentID)

	if d == nil {
		d = hgtarget.NewDiagram()
	}
	if n == nil {
		n = NewNode()
	}
	nn := n.Copy()
	if nn.ID == "" {
		nn.ID = uuid.NewString()
	}

	d = d.Copy()
	idx := hglayout.NewIndex(d.Nodes)
	if _, ok := idx.Get(nn.ID); ok {
		return nil, "", fmt.Errorf("node %#v already exists", nn.ID)
	}
	nn.Parent = parentID
	nn.Children = nil
	nn.Depth = 0
	if parentID != "" {
		parent, ok := idx.Get(parentID)
		if !ok {
			return nil, "", fmt.Errorf("parent %#v not found", parentID)
		}
		parent.Children = append(parent.Children, nn.ID)
		nn.Depth = parent.Depth + 1
	}
	d.Nodes = append(d.Nodes, nn)

	d, err = relayout(ctx, d, opts)
	if err != nil {
		return nil, "", err
	}
	return d, nn.ID, nil
}

// CreateEdge adds e. Endpoint ids that are set must name existing nodes.
func CreateEdge(ctx context.Context, d *hgtarget.Diagram, e hgtarget.Edge, opts *EditOptions) (_ *hgtarget.Diagram, newID string, err error) {
	defer xdefer.Errorf(&err, "failed to connect %#v to %#v", e.FromID, e.ToID)

	if d == nil {
		d = hgtarget.NewDiagram()
	}
	e = e.Copy()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if GetEdge(d, e.ID) != nil {
		return nil, "", fmt.Errorf("edge %#v already exists", e.ID)
	}
	for _, id := range []string{e.FromID, e.ToID} {
		if id != "" && GetNode(d, id) == nil {
			return nil, "", fmt.Errorf("node %#v not found", id)
		}
	}
	for _, t := range []hgtarget.LinkType{e.FromType, e.ToType} {
		if t != "" && !t.IsValid() {
			return nil, "", fmt.Errorf("unknown link type %#v", string(t))
		}
	}
	e.From, e.To = nil, nil

	d = d.Copy()
	d.Edges = append(d.Edges, e)
	d, err = relayout(ctx, d, opts)
	if err != nil {
		return nil, "", err
	}
	return d, e.ID, nil
}

// Move sets the position of node id relative to its parent.
func Move(ctx context.Context, d *hgtarget.Diagram, id string, pos geo.Point, opts *EditOptions) (_ *hgtarget.Diagram, err error) {
	defer xdefer.Errorf(&err, "failed to move %#v to %s", id, pos.ToString())

	if GetNode(d, id) == nil {
		return nil, fmt.Errorf("node %#v not found", id)
	}

	if opts != nil && opts.ClampToParent {
		laid, err := hglib.Layout(ctx, d, opts.compileOptions())
		if err != nil {
			return nil, err
		}
		lopts, err := hglib.LayoutOpts(d, opts.compileOptions())
		if err != nil {
			return nil, err
		}
		bounds := DragBounds(laid, id, lopts.Canvas)
		// Bounds are in canvas space, pos is relative to them.
		rel := geo.NewBox(geo.Origin(), bounds.Size.Width, bounds.Size.Height)
		pos = *rel.Clamp(&pos, GetNode(laid, id).Size)
	}

	d = d.Copy()
	GetNode(d, id).Position = pos
	return relayout(ctx, d, opts)
}

// Resize sets the authored size of node id. Negative sides are raised to
// zero. A node with children keeps deriving its size from them.
func Resize(ctx context.Context, d *hgtarget.Diagram, id string, size geo.Dimensions, opts *EditOptions) (_ *hgtarget.Diagram, err error) {
	defer xdefer.Errorf(&err, "failed to resize %#v to %s", id, size.ToString())

	d = d.Copy()
	n := GetNode(d, id)
	if n == nil {
		return nil, fmt.Errorf("node %#v not found", id)
	}
	n.Size = size.AtLeast(geo.Dimensions{})
	return relayout(ctx, d, opts)
}

// Reparent moves node id under newParentID, or to the root when newParentID
// is empty. The node keeps its absolute position.
func Reparent(ctx context.Context, d *hgtarget.Diagram, id, newParentID string, opts *EditOptions) (_ *hgtarget.Diagram, err error) {
	defer xdefer.Errorf(&err, "failed to reparent %#v to %#v", id, newParentID)

	if d == nil {
		d = hgtarget.NewDiagram()
	}
	d = d.Copy()
	idx := hglayout.NewIndex(d.Nodes)
	n, ok := idx.Get(id)
	if !ok {
		return nil, fmt.Errorf("node %#v not found", id)
	}
	if n.Parent == newParentID {
		return relayout(ctx, d, opts)
	}

	abs := hglayout.AbsolutePosition(d.Nodes, n)
	parentAbs := geo.Origin()
	depth := 0
	if newParentID != "" {
		parent, ok := idx.Get(newParentID)
		if !ok {
			return nil, fmt.Errorf("parent %#v not found", newParentID)
		}
		if IsDescendantOf(d, newParentID, id) {
			return nil, fmt.Errorf("%#v is a descendant of %#v", newParentID, id)
		}
		parentAbs = hglayout.AbsolutePosition(d.Nodes, parent)
		parent.Children = append(parent.Children, id)
		depth = parent.Depth + 1
	}
	detach(idx, n)

	n.Parent = newParentID
	n.Position = *abs.Sub(parentAbs)
	setDepth(idx, n, depth, map[string]struct{}{})
	return relayout(ctx, d, opts)
}

// Delete removes the node or edge id. Edges attached to a deleted node are
// removed with it and its children move to the root in place.
func Delete(ctx context.Context, d *hgtarget.Diagram, id string, opts *EditOptions) (_ *hgtarget.Diagram, err error) {
	defer xdefer.Errorf(&err, "failed to delete %#v", id)

	if d == nil {
		d = hgtarget.NewDiagram()
	}
	d = d.Copy()
	if GetEdge(d, id) != nil {
		d.Edges = go2.Filter(d.Edges, func(e hgtarget.Edge) bool {
			return e.ID != id
		})
		return relayout(ctx, d, opts)
	}

	idx := hglayout.NewIndex(d.Nodes)
	n, ok := idx.Get(id)
	if !ok {
		return nil, fmt.Errorf("%#v not found", id)
	}
	detach(idx, n)
	for _, childID := range n.Children {
		child, ok := idx.Get(childID)
		if !ok || child.Parent != id {
			continue
		}
		child.Position = *hglayout.AbsolutePosition(d.Nodes, child)
		child.Parent = ""
		setDepth(idx, child, 0, map[string]struct{}{})
	}

	d.Nodes = go2.Filter(d.Nodes, func(n hgtarget.Node) bool {
		return n.ID != id
	})
	d.Edges = go2.Filter(d.Edges, func(e hgtarget.Edge) bool {
		return e.FromID != id && e.ToID != id
	})
	return relayout(ctx, d, opts)
}

// detach removes n from its parent's children.
func detach(idx *hglayout.Index, n *hgtarget.Node) {
	parent, ok := idx.Get(n.Parent)
	if !ok {
		return
	}
	parent.Children = go2.Filter(parent.Children, func(id string) bool {
		return id != n.ID
	})
}

func setDepth(idx *hglayout.Index, n *hgtarget.Node, depth int, visited map[string]struct{}) {
	if _, ok := visited[n.ID]; ok {
		return
	}
	visited[n.ID] = struct{}{}
	n.Depth = depth
	for _, id := range n.Children {
		if child, ok := idx.Get(id); ok && child.Parent == n.ID {
			setDepth(idx, child, depth+1, visited)
		}
	}
}

// relayout refreshes the linkers' connected flags and runs the layout.
func relayout(ctx context.Context, d *hgtarget.Diagram, opts *EditOptions) (*hgtarget.Diagram, error) {
	from := make(map[string]struct{})
	to := make(map[string]struct{})
	for _, e := range d.Edges {
		if e.FromID != "" {
			from[linkerKey(e.FromID, e.FromType, hgtarget.LinkEnd)] = struct{}{}
		}
		if e.ToID != "" {
			to[linkerKey(e.ToID, e.ToType, hgtarget.LinkStart)] = struct{}{}
		}
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		n.StartLinker.Connected = isConnected(from, to, linkerKey(n.ID, hgtarget.LinkStart, ""))
		n.EndLinker.Connected = isConnected(from, to, linkerKey(n.ID, hgtarget.LinkEnd, ""))
	}
	return hglib.Layout(ctx, d, opts.compileOptions())
}

func isConnected(from, to map[string]struct{}, k string) bool {
	_, isFrom := from[k]
	_, isTo := to[k]
	return isFrom || isTo
}

func linkerKey(id string, t, fallback hgtarget.LinkType) string {
	if t == "" {
		t = fallback
	}
	return id + "/" + string(t)
}
