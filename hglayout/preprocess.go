package hglayout

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
	"oss.terrastruct.com/hiergram/lib/log"
)

// Preprocess returns copies of nodes, in the same order, with sizes and
// absolute positions derived for the current hierarchy.
//
// Sizes are computed first. A node without children keeps its authored size
// raised to the minimum height. A node with children encloses the derived
// sizes of its children, so sizing runs children first. Absolute positions
// follow.
//
// Parent cycles and dangling ids never fail the pass, they are logged.
func Preprocess(ctx context.Context, nodes []hgtarget.Node, opts *Opts) []hgtarget.Node {
	if opts == nil {
		opts = &DefaultOpts
	}
	idx := NewIndex(nodes)
	s := &sizer{
		ctx:  ctx,
		idx:  idx,
		opts: opts,
		comp: components(idx),
		memo: make(map[int]geo.Dimensions, len(nodes)),
	}

	out := make([]hgtarget.Node, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].Copy()
		out[i].Size = s.size(i)
	}

	// Positions are not touched by sizing so the input index still applies.
	for i := range out {
		p, cycle := idx.AbsolutePosition(&out[i])
		if cycle {
			log.Warn(ctx, "parent cycle, absolute position truncated", slog.F("id", out[i].ID))
		} else if !out[i].IsRoot() {
			if _, ok := idx.Lookup(out[i].Parent); !ok {
				log.Debug(ctx, "missing parent", slog.F("id", out[i].ID), slog.F("parent", out[i].Parent))
			}
		}
		out[i].AbsolutePosition = *p
	}
	return out
}

type sizer struct {
	ctx  context.Context
	idx  *Index
	opts *Opts

	// comp holds the strongly connected component of every node over the
	// children relation. A child in its parent's own component closes a
	// children cycle.
	comp []int
	memo map[int]geo.Dimensions
}

// size returns the derived size of the node at slice position i. A child
// that closes a children cycle contributes its minimum-enforced authored
// size, so every result depends only on the collection and is memoised.
func (s *sizer) size(i int) geo.Dimensions {
	if d, ok := s.memo[i]; ok {
		return d
	}
	n := s.idx.nodes[i]
	if !n.HasChildren() {
		dims := s.opts.EnforceMinimumSize(n.Size)
		s.memo[i] = dims
		return dims
	}

	corners := make(geo.Points, 0, len(n.Children))
	for _, id := range n.Children {
		j, ok := s.idx.Lookup(id)
		if !ok {
			log.Debug(s.ctx, "missing child", slog.F("id", n.ID), slog.F("child", id))
			corners = append(corners, geo.Origin())
			continue
		}
		child := s.idx.nodes[j]
		var childSize geo.Dimensions
		if s.comp[j] == s.comp[i] {
			log.Warn(s.ctx, "children cycle", slog.F("id", n.ID), slog.F("child", id))
			childSize = s.opts.EnforceMinimumSize(child.Size)
		} else {
			childSize = s.size(j)
		}
		corners = append(corners, child.Position.Add(&geo.Point{X: childSize.Width, Y: childSize.Height}))
	}

	dims := s.opts.EnforceMinimumSize(enclose(corners, s.opts.HeaderOffset(), s.opts))
	s.memo[i] = dims
	return dims
}

// components labels the strongly connected components of the children
// relation with Tarjan's algorithm.
func components(idx *Index) []int {
	n := idx.Len()
	c := &componentWalk{
		idx:     idx,
		index:   make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
		comp:    make([]int, n),
	}
	for i := range c.index {
		c.index[i] = -1
	}
	for i := 0; i < n; i++ {
		if c.index[i] < 0 {
			c.visit(i)
		}
	}
	return c.comp
}

type componentWalk struct {
	idx *Index

	index   []int
	low     []int
	onStack []bool
	stack   []int
	comp    []int

	next  int
	count int
}

func (c *componentWalk) visit(v int) {
	c.index[v] = c.next
	c.low[v] = c.next
	c.next++
	c.stack = append(c.stack, v)
	c.onStack[v] = true

	for _, id := range c.idx.nodes[v].Children {
		w, ok := c.idx.Lookup(id)
		if !ok {
			continue
		}
		if c.index[w] < 0 {
			c.visit(w)
			c.low[v] = min(c.low[v], c.low[w])
		} else if c.onStack[w] {
			c.low[v] = min(c.low[v], c.index[w])
		}
	}

	if c.low[v] != c.index[v] {
		return
	}
	for {
		w := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.onStack[w] = false
		c.comp[w] = c.count
		if w == v {
			break
		}
	}
	c.count++
}
