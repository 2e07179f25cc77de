package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestContainsConvexInterior(t *testing.T) {
	sq := square(0, 0, 10, 10)
	for _, p := range []orb.Point{{5, 5}, {0.5, 0.5}, {9.5, 9.5}, {1, 9}} {
		assert.True(t, Contains(sq, p), "point %v", p)
	}
	tri := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {5, 8}}}
	assert.True(t, Contains(tri, orb.Point{5, 3}))
	assert.False(t, Contains(tri, orb.Point{1, 7}))
}

func TestContainsOutside(t *testing.T) {
	sq := square(0, 0, 10, 10)
	for _, p := range []orb.Point{{50, 50}, {-1, 5}, {5, 11}, {-100, -100}} {
		assert.False(t, Contains(sq, p), "point %v", p)
	}
}

func TestContainsConcave(t *testing.T) {
	// U 形
	u := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {10, 10}, {7, 10}, {7, 3}, {3, 3}, {3, 10}, {0, 10}, {0, 0}}}
	assert.True(t, Contains(u, orb.Point{1, 8}))
	assert.True(t, Contains(u, orb.Point{9, 8}))
	assert.False(t, Contains(u, orb.Point{5, 8}))
}

func TestContainsHoles(t *testing.T) {
	donut := orb.Polygon{
		orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
		orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}
	assert.True(t, Contains(donut, orb.Point{2, 2}))
	assert.False(t, Contains(donut, orb.Point{5, 5}))
}

func TestContainsMultiPolygonUnion(t *testing.T) {
	mp := orb.MultiPolygon{square(0, 0, 1, 1), square(5, 5, 6, 6)}
	assert.True(t, Contains(mp, orb.Point{0.5, 0.5}))
	assert.True(t, Contains(mp, orb.Point{5.5, 5.5}))
	assert.False(t, Contains(mp, orb.Point{3, 3}))
}

func TestContainsWrongGeometryType(t *testing.T) {
	pt := orb.Point{5, 5}
	assert.False(t, Contains(orb.LineString{{0, 0}, {10, 10}}, pt))
	assert.False(t, Contains(orb.Point{5, 5}, pt))
	assert.False(t, Contains(nil, pt))
	assert.False(t, ContainsFeature(nil, pt))
	assert.False(t, ContainsFeature(district("x", orb.MultiPoint{{5, 5}}), pt))
}

func TestContainsDegenerateRing(t *testing.T) {
	assert.False(t, Contains(orb.Polygon{orb.Ring{{0, 0}, {10, 10}}}, orb.Point{5, 5}))
	assert.False(t, Contains(orb.Polygon{orb.Ring{}}, orb.Point{0, 0}))
	assert.False(t, Contains(orb.Polygon{}, orb.Point{0, 0}))
}

func TestContainsBoundaryIsDeterministic(t *testing.T) {
	sq := square(0, 0, 10, 10)
	for _, p := range []orb.Point{{0, 5}, {10, 5}, {5, 0}, {5, 10}, {0, 0}, {10, 10}} {
		first := Contains(sq, p)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Contains(sq, p), "point %v", p)
		}
	}
}
