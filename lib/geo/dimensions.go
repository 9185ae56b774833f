package geo

import "fmt"

type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func NewDimensions(width, height float64) Dimensions {
	return Dimensions{Width: width, Height: height}
}

// AtLeast raises each side to the matching side of min.
func (d Dimensions) AtLeast(min Dimensions) Dimensions {
	if d.Width < min.Width {
		d.Width = min.Width
	}
	if d.Height < min.Height {
		d.Height = min.Height
	}
	return d
}

// Grow returns d padded by dw and dh.
func (d Dimensions) Grow(dw, dh float64) Dimensions {
	return Dimensions{Width: d.Width + dw, Height: d.Height + dh}
}

func (d Dimensions) ToString() string {
	return fmt.Sprintf("%vx%v", d.Width, d.Height)
}
