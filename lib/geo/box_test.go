package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoxCorners(t *testing.T) {
	b := NewBox(NewPoint(100, 100), 160, 200)
	assert.True(t, b.BottomRight().Equals(NewPoint(260, 300)))
	assert.True(t, b.Center().Equals(NewPoint(180, 200)))
	assert.Equal(t, NewDimensions(160, 200), b.Dimensions())
	assert.Equal(t, "{TopLeft: (100, 100), Width: 160, Height: 200}", b.ToString())
}

func TestBoxContains(t *testing.T) {
	b := NewBox(Origin(), 10, 10)
	assert.True(t, b.Contains(NewPoint(0, 0)))
	assert.True(t, b.Contains(NewPoint(10, 10)))
	assert.False(t, b.Contains(NewPoint(10.5, 3)))
	assert.False(t, b.Contains(NewPoint(-1, 3)))
}

func TestBoxClamp(t *testing.T) {
	b := NewBox(Origin(), 400, 300)

	testCases := []struct {
		name string
		tl   *Point
		dims Dimensions
		exp  *Point
	}{
		{
			name: "inside",
			tl:   NewPoint(10, 20),
			dims: NewDimensions(100, 100),
			exp:  NewPoint(10, 20),
		},
		{
			name: "past_bottom_right",
			tl:   NewPoint(390, 290),
			dims: NewDimensions(100, 100),
			exp:  NewPoint(300, 200),
		},
		{
			name: "negative",
			tl:   NewPoint(-50, -5),
			dims: NewDimensions(100, 100),
			exp:  NewPoint(0, 0),
		},
		{
			name: "larger_than_box",
			tl:   NewPoint(30, 30),
			dims: NewDimensions(500, 100),
			exp:  NewPoint(0, 30),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := b.Clamp(tc.tl, tc.dims)
			assert.True(t, got.Equals(tc.exp), "got %s", got.ToString())
		})
	}
}

func TestDimensions(t *testing.T) {
	d := NewDimensions(160, 60).AtLeast(NewDimensions(0, 96))
	assert.Equal(t, NewDimensions(160, 96), d)
	assert.Equal(t, NewDimensions(180, 136), d.Grow(20, 40))
	assert.Equal(t, "160x96", d.ToString())
}
