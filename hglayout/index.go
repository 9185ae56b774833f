package hglayout

import (
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
)

// Index resolves node ids to positions in a node slice. It is built once per
// pass. When ids repeat, the first occurrence wins.
type Index struct {
	nodes []hgtarget.Node
	byID  map[string]int
}

func NewIndex(nodes []hgtarget.Node) *Index {
	idx := &Index{
		nodes: nodes,
		byID:  make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		if _, ok := idx.byID[n.ID]; ok {
			continue
		}
		idx.byID[n.ID] = i
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.nodes)
}

// Lookup returns the slice position of id.
func (idx *Index) Lookup(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	i, ok := idx.byID[id]
	return i, ok
}

func (idx *Index) Get(id string) (*hgtarget.Node, bool) {
	i, ok := idx.Lookup(id)
	if !ok {
		return nil, false
	}
	return &idx.nodes[i], true
}

// AbsolutePosition sums relative positions up the parent chain of n. The walk
// stops at a root, at a parent id that does not resolve, or when an id
// recurs. The second return value reports the latter.
func (idx *Index) AbsolutePosition(n *hgtarget.Node) (*geo.Point, bool) {
	p := n.Position.Copy()
	visited := map[string]struct{}{
		n.ID: {},
	}
	curr := n
	for !curr.IsRoot() {
		if _, ok := visited[curr.Parent]; ok {
			return p, true
		}
		parent, ok := idx.Get(curr.Parent)
		if !ok {
			break
		}
		visited[curr.Parent] = struct{}{}
		p = p.Add(&parent.Position)
		curr = parent
	}
	return p, false
}

// ParentSize is the size of n's parent, or canvas when n has no resolvable parent.
func (idx *Index) ParentSize(n *hgtarget.Node, canvas geo.Dimensions) geo.Dimensions {
	if parent, ok := idx.Get(n.Parent); ok {
		return parent.Size
	}
	return canvas
}

// ParentAbsolutePosition is the absolute position of n's parent, or the origin.
func (idx *Index) ParentAbsolutePosition(n *hgtarget.Node) *geo.Point {
	if parent, ok := idx.Get(n.Parent); ok {
		return parent.AbsolutePosition.Copy()
	}
	return geo.Origin()
}

func AbsolutePosition(nodes []hgtarget.Node, n *hgtarget.Node) *geo.Point {
	p, _ := NewIndex(nodes).AbsolutePosition(n)
	return p
}

func ParentSize(nodes []hgtarget.Node, n *hgtarget.Node, canvas geo.Dimensions) geo.Dimensions {
	return NewIndex(nodes).ParentSize(n, canvas)
}

func ParentAbsolutePosition(nodes []hgtarget.Node, n *hgtarget.Node) *geo.Point {
	return NewIndex(nodes).ParentAbsolutePosition(n)
}

// EnclosingSize is the size a parent needs to hold the children named by
// childIDs, each at its relative position with its current size. Ids that do
// not resolve count as a zero-sized child at the parent's origin.
func EnclosingSize(nodes []hgtarget.Node, childIDs []string, fallbackWidth, fallbackHeight, yOffset float64, opts *Opts) geo.Dimensions {
	if opts == nil {
		opts = &DefaultOpts
	}
	if len(childIDs) == 0 {
		return opts.EnforceMinimumSize(geo.NewDimensions(fallbackWidth, fallbackHeight))
	}
	idx := NewIndex(nodes)
	corners := make(geo.Points, 0, len(childIDs))
	for _, id := range childIDs {
		child, ok := idx.Get(id)
		if !ok {
			corners = append(corners, geo.Origin())
			continue
		}
		corners = append(corners, child.Position.Add(&geo.Point{X: child.Size.Width, Y: child.Size.Height}))
	}
	return enclose(corners, yOffset, opts)
}

func enclose(corners geo.Points, yOffset float64, opts *Opts) geo.Dimensions {
	br := corners.Max()
	return geo.NewDimensions(br.X, br.Y).Grow(opts.PaddingX, opts.PaddingY+yOffset)
}
