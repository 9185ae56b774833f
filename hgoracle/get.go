package hgoracle

import (
	"oss.terrastruct.com/hiergram/hglayout"
	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
)

func GetNode(d *hgtarget.Diagram, id string) *hgtarget.Node {
	if d == nil {
		return nil
	}
	n, _ := hglayout.NewIndex(d.Nodes).Get(id)
	return n
}

func GetEdge(d *hgtarget.Diagram, id string) *hgtarget.Edge {
	if d == nil || id == "" {
		return nil
	}
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return &d.Edges[i]
		}
	}
	return nil
}

// IsDescendantOf reports whether ancestorID is id or one of its ancestors.
func IsDescendantOf(d *hgtarget.Diagram, id, ancestorID string) bool {
	if id == ancestorID {
		return true
	}
	if d == nil {
		return false
	}
	idx := hglayout.NewIndex(d.Nodes)
	visited := map[string]struct{}{}
	for curr, ok := idx.Get(id); ok; curr, ok = idx.Get(curr.Parent) {
		if _, seen := visited[curr.ID]; seen {
			return false
		}
		visited[curr.ID] = struct{}{}
		if curr.Parent == ancestorID {
			return true
		}
	}
	return false
}

// DragBounds is the canvas rectangle node id may be dragged within: its
// parent's box on a laid-out diagram, or the canvas for roots and unknown ids.
func DragBounds(d *hgtarget.Diagram, id string, canvas geo.Dimensions) hgtarget.Container {
	n := GetNode(d, id)
	if n == nil {
		return hgtarget.Container{Size: canvas}
	}
	c := hgtarget.Container{
		Position: *hglayout.ParentAbsolutePosition(d.Nodes, n),
		Size:     hglayout.ParentSize(d.Nodes, n, canvas),
	}
	if GetNode(d, n.Parent) != nil {
		c.OwningNode = n.Parent
	}
	return c
}
