package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointAdd(t *testing.T) {
	p := NewPoint(100, 100).Add(NewPoint(400, 200))
	assert.True(t, p.Equals(NewPoint(500, 300)))

	p = NewPoint(1.5, 5.5).Sub(NewPoint(0.5, 0.5))
	assert.True(t, p.Equals(NewPoint(1, 5)))
}

func TestPointEquals(t *testing.T) {
	var nilPoint *Point
	assert.True(t, nilPoint.Equals(nil))
	assert.False(t, nilPoint.Equals(Origin()))
	assert.False(t, Origin().Equals(nil))
	assert.True(t, Origin().Equals(NewPoint(0, 0)))
}

func TestPointCopy(t *testing.T) {
	p := NewPoint(3, 4)
	c := p.Copy()
	c.Translate(1, 1)
	assert.Equal(t, 3., p.X)
	assert.Equal(t, 5., c.Y)

	var nilPoint *Point
	assert.Nil(t, nilPoint.Copy())
}

func TestPointsMax(t *testing.T) {
	assert.True(t, Points{}.Max().Equals(Origin()))

	ps := Points{NewPoint(260, 160), NewPoint(560, 260), NewPoint(0, 0)}
	assert.True(t, ps.Max().Equals(NewPoint(560, 260)))
	assert.Equal(t, "(260, 160), (560, 260), (0, 0)", ps.ToString())

	// Max must not alias its input.
	m := ps.Max()
	m.Translate(1, 1)
	assert.Equal(t, 260., ps[0].X)
}
