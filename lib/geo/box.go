package geo

import (
	"fmt"
	"math"
)

type Box struct {
	TopLeft *Point
	Width   float64
	Height  float64
}

func NewBox(tl *Point, width, height float64) *Box {
	return &Box{
		TopLeft: tl,
		Width:   width,
		Height:  height,
	}
}

func (b *Box) Copy() *Box {
	if b == nil {
		return nil
	}
	return NewBox(b.TopLeft.Copy(), b.Width, b.Height)
}

func (b *Box) Center() *Point {
	return NewPoint(b.TopLeft.X+b.Width/2, b.TopLeft.Y+b.Height/2)
}

func (b *Box) BottomRight() *Point {
	return NewPoint(b.TopLeft.X+b.Width, b.TopLeft.Y+b.Height)
}

func (b *Box) Dimensions() Dimensions {
	return Dimensions{Width: b.Width, Height: b.Height}
}

// Contains reports whether p lies within the box, borders included.
func (b *Box) Contains(p *Point) bool {
	br := b.BottomRight()
	return b.TopLeft.X <= p.X && p.X <= br.X &&
		b.TopLeft.Y <= p.Y && p.Y <= br.Y
}

// Clamp returns the top-left closest to tl at which a rectangle of dims still
// fits inside the box. When dims is larger than the box on an axis, that axis
// snaps to the box's top-left.
func (b *Box) Clamp(tl *Point, dims Dimensions) *Point {
	clamp := func(v, lo, span float64) float64 {
		hi := lo + span
		if hi < lo {
			return lo
		}
		return math.Min(math.Max(v, lo), hi)
	}
	return NewPoint(
		clamp(tl.X, b.TopLeft.X, b.Width-dims.Width),
		clamp(tl.Y, b.TopLeft.Y, b.Height-dims.Height),
	)
}

func (b *Box) ToString() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("{TopLeft: %s, Width: %.0f, Height: %.0f}", b.TopLeft.ToString(), b.Width, b.Height)
}
