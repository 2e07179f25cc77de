package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：代表点推导策略
// 背景：非点要素（面状游乐场等）需要一个坐标参与点入面判定。
// 约束：同一部署只能使用一种策略，两种策略对跨界要素的归属结论不同。
type Strategy int

const (
	// FirstCoordinate：取第一部分第一环的第一个坐标（近似，偏向图形一侧）
	FirstCoordinate Strategy = iota
	// AreaCentroid：面积加权质心（planar.CentroidArea）
	AreaCentroid
)

func (s Strategy) String() string {
	switch s {
	case AreaCentroid:
		return "centroid"
	default:
		return "first"
	}
}

// ParseStrategy 解析 REDUCER_STRATEGY 配置值，空串为 first。
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first", "first_coordinate":
		return FirstCoordinate, nil
	case "centroid", "area_centroid":
		return AreaCentroid, nil
	}
	return FirstCoordinate, fmt.Errorf("unknown reducer strategy %q", s)
}

// Reduce 按策略返回代表点。
func (s Strategy) Reduce(g orb.Geometry) (orb.Point, bool) {
	if s == AreaCentroid {
		return Centroid(g)
	}
	return RepresentativePoint(g)
}

// 文档注释：代表点（首坐标）
// 背景：Point 返回自身；其余类型沿嵌套序列逐层取第一个元素，直到得到一个坐标。
// 返回：空几何、nil 或非有限坐标返回 false。
func RepresentativePoint(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, finite(v)
	case orb.MultiPoint:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return v[0], finite(v[0])
	case orb.LineString:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return v[0], finite(v[0])
	case orb.Ring:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return v[0], finite(v[0])
	case orb.MultiLineString:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return RepresentativePoint(v[0])
	case orb.Polygon:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return RepresentativePoint(v[0])
	case orb.MultiPolygon:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return RepresentativePoint(v[0])
	case orb.Collection:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return RepresentativePoint(v[0])
	case orb.Bound:
		return v.Min, finite(v.Min)
	}
	return orb.Point{}, false
}

// Centroid 返回面积加权质心；空几何与退化结果返回 false。
func Centroid(g orb.Geometry) (orb.Point, bool) {
	if _, ok := RepresentativePoint(g); !ok {
		return orb.Point{}, false
	}
	if p, ok := g.(orb.Point); ok {
		return p, true
	}
	c, _ := planar.CentroidArea(g)
	return c, finite(c)
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
