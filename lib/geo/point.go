package geo

import (
	"fmt"
	"strings"
)

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y}
}

// Origin is the top-left corner of the canvas.
func Origin() *Point {
	return &Point{}
}

func (p1 *Point) Equals(p2 *Point) bool {
	if p1 == nil {
		return p2 == nil
	} else if p2 == nil {
		return false
	}
	return (p1.X == p2.X) && (p1.Y == p2.Y)
}

func (p *Point) Copy() *Point {
	if p == nil {
		return nil
	}
	return &Point{X: p.X, Y: p.Y}
}

// Add returns a new point offset by p2.
func (p1 *Point) Add(p2 *Point) *Point {
	return NewPoint(p1.X+p2.X, p1.Y+p2.Y)
}

// Sub returns a new point with p2 subtracted.
func (p1 *Point) Sub(p2 *Point) *Point {
	return NewPoint(p1.X-p2.X, p1.Y-p2.Y)
}

// Translate moves the point in place.
func (p *Point) Translate(dx, dy float64) {
	if p == nil {
		return
	}
	p.X += dx
	p.Y += dy
}

func (p *Point) ToString() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}

type Points []*Point

func (points Points) ToString() string {
	strs := make([]string, 0, len(points))
	for _, p := range points {
		strs = append(strs, p.ToString())
	}
	return strings.Join(strs, ", ")
}

// Max returns the component-wise maximum of the points, or the origin for an empty set.
func (points Points) Max() *Point {
	if len(points) == 0 {
		return Origin()
	}
	out := points[0].Copy()
	for _, p := range points[1:] {
		if p.X > out.X {
			out.X = p.X
		}
		if p.Y > out.Y {
			out.Y = p.Y
		}
	}
	return out
}
