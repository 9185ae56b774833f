package hgtarget

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/hiergram/lib/geo"
)

const (
	DEFAULT_NODE_X      = 10.
	DEFAULT_NODE_Y      = 10.
	DEFAULT_NODE_WIDTH  = 160.
	DEFAULT_NODE_HEIGHT = 60.
)

// Config carries the engine constants a document or host may override.
// Nil fields keep the engine default.
type Config struct {
	SectionHeight  *float64 `json:"sectionHeight,omitempty" yaml:"sectionHeight,omitempty" toml:"section_height"`
	SectionCount   *int64   `json:"sectionCount,omitempty" yaml:"sectionCount,omitempty" toml:"section_count"`
	AnchorInset    *float64 `json:"anchorInset,omitempty" yaml:"anchorInset,omitempty" toml:"anchor_inset"`
	PaddingX       *float64 `json:"paddingX,omitempty" yaml:"paddingX,omitempty" toml:"padding_x"`
	PaddingY       *float64 `json:"paddingY,omitempty" yaml:"paddingY,omitempty" toml:"padding_y"`
	HeaderSections *int64   `json:"headerSections,omitempty" yaml:"headerSections,omitempty" toml:"header_sections"`
	CanvasWidth    *float64 `json:"canvasWidth,omitempty" yaml:"canvasWidth,omitempty" toml:"canvas_width"`
	CanvasHeight   *float64 `json:"canvasHeight,omitempty" yaml:"canvasHeight,omitempty" toml:"canvas_height"`
}

// Merge returns a copy of c with every field set in o taking precedence.
func (c *Config) Merge(o *Config) *Config {
	out := &Config{}
	if c != nil {
		*out = *c
	}
	if o == nil {
		return out
	}
	if o.SectionHeight != nil {
		out.SectionHeight = go2.Pointer(*o.SectionHeight)
	}
	if o.SectionCount != nil {
		out.SectionCount = go2.Pointer(*o.SectionCount)
	}
	if o.AnchorInset != nil {
		out.AnchorInset = go2.Pointer(*o.AnchorInset)
	}
	if o.PaddingX != nil {
		out.PaddingX = go2.Pointer(*o.PaddingX)
	}
	if o.PaddingY != nil {
		out.PaddingY = go2.Pointer(*o.PaddingY)
	}
	if o.HeaderSections != nil {
		out.HeaderSections = go2.Pointer(*o.HeaderSections)
	}
	if o.CanvasWidth != nil {
		out.CanvasWidth = go2.Pointer(*o.CanvasWidth)
	}
	if o.CanvasHeight != nil {
		out.CanvasHeight = go2.Pointer(*o.CanvasHeight)
	}
	return out
}

type Diagram struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Config *Config `json:"config,omitempty" yaml:"config,omitempty"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

func NewDiagram() *Diagram {
	return &Diagram{
		Nodes: []Node{},
		Edges: []Edge{},
	}
}

// Copy returns a diagram whose node and edge slices can be edited without
// touching d. Opaque data payloads are shared.
func (diagram *Diagram) Copy() *Diagram {
	if diagram == nil {
		return nil
	}
	out := &Diagram{
		Name:  diagram.Name,
		Nodes: make([]Node, len(diagram.Nodes)),
		Edges: make([]Edge, len(diagram.Edges)),
	}
	if diagram.Config != nil {
		out.Config = diagram.Config.Merge(nil)
	}
	for i, n := range diagram.Nodes {
		out.Nodes[i] = n.Copy()
	}
	for i, e := range diagram.Edges {
		out.Edges[i] = e.Copy()
	}
	return out
}

func (diagram Diagram) Bytes() ([]byte, error) {
	b1, err := json.Marshal(diagram.Nodes)
	if err != nil {
		return nil, err
	}
	b2, err := json.Marshal(diagram.Edges)
	if err != nil {
		return nil, err
	}
	base := append(b1, b2...)

	if diagram.Config != nil {
		b, err := json.Marshal(diagram.Config)
		if err != nil {
			return nil, err
		}
		base = append(base, b...)
	}
	return base, nil
}

func (diagram Diagram) HashID() (string, error) {
	bytes, err := diagram.Bytes()
	if err != nil {
		return "", err
	}
	h := fnv.New32a()
	h.Write(bytes)
	return fmt.Sprintf("hg-%d", h.Sum32()), nil
}

type LinkType string

const (
	LinkStart LinkType = "edgestart"
	LinkEnd   LinkType = "edgeend"
)

func (t LinkType) IsValid() bool {
	return t == LinkStart || t == LinkEnd
}

// Linker is the UI state of one of a node's two link anchors.
type Linker struct {
	Type        LinkType `json:"type" yaml:"type"`
	Selected    bool     `json:"selected" yaml:"selected"`
	Connected   bool     `json:"connected" yaml:"connected"`
	Highlighted bool     `json:"highlighted" yaml:"highlighted"`
}

func NewLinker(t LinkType) Linker {
	return Linker{Type: t}
}

type Node struct {
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Position is relative to the parent, or to the canvas for roots.
	Position geo.Point `json:"position" yaml:"position"`
	// AbsolutePosition is derived on every layout pass.
	AbsolutePosition geo.Point      `json:"absolutePosition" yaml:"absolutePosition"`
	Size             geo.Dimensions `json:"size" yaml:"size"`

	Data  interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Depth int         `json:"depth,omitempty" yaml:"depth,omitempty"`

	Hidden      *bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Selected    *bool `json:"selected,omitempty" yaml:"selected,omitempty"`
	Dragging    *bool `json:"dragging,omitempty" yaml:"dragging,omitempty"`
	Draggable   *bool `json:"draggable,omitempty" yaml:"draggable,omitempty"`
	Selectable  *bool `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Connectable *bool `json:"connectable,omitempty" yaml:"connectable,omitempty"`

	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	StartLinker Linker `json:"startLinker" yaml:"startLinker"`
	EndLinker   Linker `json:"endLinker" yaml:"endLinker"`
}

// BaseNode is the record the interaction layer starts a new node from.
func BaseNode() *Node {
	return &Node{
		Position:         geo.Point{X: DEFAULT_NODE_X, Y: DEFAULT_NODE_Y},
		AbsolutePosition: geo.Point{X: DEFAULT_NODE_X, Y: DEFAULT_NODE_Y},
		Size:             geo.NewDimensions(DEFAULT_NODE_WIDTH, DEFAULT_NODE_HEIGHT),
		Data:             map[string]interface{}{"label": ""},
		StartLinker:      NewLinker(LinkStart),
		EndLinker:        NewLinker(LinkEnd),
	}
}

func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

func (n Node) IsRoot() bool {
	return n.Parent == ""
}

// Box is the node's rectangle in canvas space.
func (n Node) Box() *geo.Box {
	return geo.NewBox(n.AbsolutePosition.Copy(), n.Size.Width, n.Size.Height)
}

// Copy returns n with its own children slice and flag pointers.
func (n Node) Copy() Node {
	if n.Children != nil {
		n.Children = append([]string(nil), n.Children...)
	}
	n.Hidden = copyBool(n.Hidden)
	n.Selected = copyBool(n.Selected)
	n.Dragging = copyBool(n.Dragging)
	n.Draggable = copyBool(n.Draggable)
	n.Selectable = copyBool(n.Selectable)
	n.Connectable = copyBool(n.Connectable)
	return n
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	return go2.Pointer(*b)
}

type Edge struct {
	ID string `json:"id" yaml:"id"`

	FromID   string   `json:"fromId,omitempty" yaml:"fromId,omitempty"`
	ToID     string   `json:"toId,omitempty" yaml:"toId,omitempty"`
	FromType LinkType `json:"fromType,omitempty" yaml:"fromType,omitempty"`
	ToType   LinkType `json:"toType,omitempty" yaml:"toType,omitempty"`

	// From and To are derived and stay nil while the endpoint is unresolved.
	From *geo.Point `json:"from,omitempty" yaml:"from,omitempty"`
	To   *geo.Point `json:"to,omitempty" yaml:"to,omitempty"`

	Data interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

func (e Edge) Copy() Edge {
	e.From = e.From.Copy()
	e.To = e.To.Copy()
	return e
}

// Container is the rectangle a node may be dragged within.
type Container struct {
	Position   geo.Point      `json:"position" yaml:"position"`
	Size       geo.Dimensions `json:"size" yaml:"size"`
	OwningNode string         `json:"owningNode,omitempty" yaml:"owningNode,omitempty"`
}

func (c Container) Box() *geo.Box {
	return geo.NewBox(c.Position.Copy(), c.Size.Width, c.Size.Height)
}
