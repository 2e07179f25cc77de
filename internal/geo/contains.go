package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 文档注释：点入行政区判定（Even-Odd 射线法）
// 背景：仅 Polygon/MultiPolygon 参与判定；第一环为外环，其余环为洞，落在洞内视为未命中。
// 约束：不做投影与容差处理；边界上的点结果确定但不保证包含或排除；少于 3 个坐标的环不包含任何点。
func Contains(district orb.Geometry, pt orb.Point) bool {
	switch g := district.(type) {
	case orb.Polygon:
		return polygonContains(g, pt)
	case orb.MultiPolygon:
		for _, p := range g {
			if polygonContains(p, pt) {
				return true
			}
		}
	}
	return false
}

// ContainsFeature 对行政区要素做判定，nil 要素不包含任何点。
func ContainsFeature(district *geojson.Feature, pt orb.Point) bool {
	if district == nil {
		return false
	}
	return Contains(district.Geometry, pt)
}

func polygonContains(p orb.Polygon, pt orb.Point) bool {
	if len(p) == 0 || !ringContains(p[0], pt) {
		return false
	}
	for _, hole := range p[1:] {
		if ringContains(hole, pt) {
			return false
		}
	}
	return true
}

func ringContains(r orb.Ring, pt orb.Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	// 包围盒快速过滤
	if !r.Bound().Contains(pt) {
		return false
	}
	x, y := pt[0], pt[1]
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := r[i][0], r[i][1]
		xj, yj := r[j][0], r[j][1]
		// (yi > y) != (yj > y) 保证 yi != yj，除法安全
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
