package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Location 是视口中心定位的结果。
type Location struct {
	Key      string
	Found    bool
	Features []*geojson.Feature
}

// 文档注释：视口中心定位
// 背景：按输入顺序返回第一个包含查询点的行政区（先到先得，不比较重叠程度）；
// 区内要素按当前要素集合重新判定，不读取已有聚合结果，因此总是反映最新数据。
// 返回：无行政区命中时 Found=false 且 Features 为空切片。
func (a *Aggregator) Locate(districts, features []*geojson.Feature, pt orb.Point) Location {
	out := Location{Features: []*geojson.Feature{}}
	if !finite(pt) {
		return out
	}
	var hit *geojson.Feature
	for _, d := range districts {
		if ContainsFeature(d, pt) {
			hit = d
			break
		}
	}
	if hit == nil {
		return out
	}
	out.Key = a.DistrictKey(hit)
	out.Found = true
	for i, p := range a.reduceAll(features) {
		if p.ok && Contains(hit.Geometry, p.pt) {
			out.Features = append(out.Features, features[i])
		}
	}
	return out
}

// Locate 使用默认配置定位。
func Locate(districts, features []*geojson.Feature, pt orb.Point) Location {
	return NewAggregator().Locate(districts, features, pt)
}
