// Package hglayout derives node sizes, absolute positions and edge endpoints
// for a hierarchical diagram.
package hglayout

import (
	"fmt"

	"oss.terrastruct.com/hiergram/hgtarget"
	"oss.terrastruct.com/hiergram/lib/geo"
)

type Opts struct {
	SectionHeight float64 `json:"sectionHeight"`
	SectionCount  int     `json:"sectionCount"`
	// AnchorInset is the side of the square anchor glyph drawn at each linker.
	AnchorInset    float64 `json:"anchorInset"`
	PaddingX       float64 `json:"paddingX"`
	PaddingY       float64 `json:"paddingY"`
	HeaderSections int     `json:"headerSections"`
	// Canvas stands in for the parent size of root nodes.
	Canvas geo.Dimensions `json:"canvas"`
}

var DefaultOpts = Opts{
	SectionHeight:  24,
	SectionCount:   4,
	AnchorInset:    24,
	PaddingX:       20,
	PaddingY:       40,
	HeaderSections: 3,
	Canvas:         geo.NewDimensions(1920, 1080),
}

// NewOpts overlays cfg onto DefaultOpts.
func NewOpts(cfg *hgtarget.Config) (*Opts, error) {
	opts := DefaultOpts
	if cfg == nil {
		return &opts, nil
	}
	if cfg.SectionHeight != nil {
		opts.SectionHeight = *cfg.SectionHeight
	}
	if cfg.SectionCount != nil {
		opts.SectionCount = int(*cfg.SectionCount)
	}
	if cfg.AnchorInset != nil {
		opts.AnchorInset = *cfg.AnchorInset
	}
	if cfg.PaddingX != nil {
		opts.PaddingX = *cfg.PaddingX
	}
	if cfg.PaddingY != nil {
		opts.PaddingY = *cfg.PaddingY
	}
	if cfg.HeaderSections != nil {
		opts.HeaderSections = int(*cfg.HeaderSections)
	}
	if cfg.CanvasWidth != nil {
		opts.Canvas.Width = *cfg.CanvasWidth
	}
	if cfg.CanvasHeight != nil {
		opts.Canvas.Height = *cfg.CanvasHeight
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (opts *Opts) validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"sectionHeight", opts.SectionHeight},
		{"sectionCount", float64(opts.SectionCount)},
		{"anchorInset", opts.AnchorInset},
		{"paddingX", opts.PaddingX},
		{"paddingY", opts.PaddingY},
		{"headerSections", float64(opts.HeaderSections)},
		{"canvasWidth", opts.Canvas.Width},
		{"canvasHeight", opts.Canvas.Height},
	}
	for _, c := range checks {
		if c.v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", c.name, c.v)
		}
	}
	return nil
}

// MinNodeHeight is the smallest height any node is laid out with.
func (opts *Opts) MinNodeHeight() float64 {
	return opts.SectionHeight * float64(opts.SectionCount)
}

// HeaderOffset is the vertical allowance a parent reserves above its children.
func (opts *Opts) HeaderOffset() float64 {
	return opts.SectionHeight * float64(opts.HeaderSections)
}

// EnforceMinimumSize raises the height to MinNodeHeight. Width is untouched.
func (opts *Opts) EnforceMinimumSize(size geo.Dimensions) geo.Dimensions {
	if size.Height < opts.MinNodeHeight() {
		size.Height = opts.MinNodeHeight()
	}
	return size
}
