// 包 ingest：加载行政区与游乐场要素集合（本地 GeoJSON 文件与 Overpass API），并周期性刷新
package ingest

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"playground-api/internal/geo"
	"playground-api/internal/logger"
)

// ErrEmptyCollection：文件可解析但不含任何要素
var ErrEmptyCollection = errors.New("feature collection is empty")

// LoadFeatureCollection 读取并解析 GeoJSON FeatureCollection 文件。
func LoadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("parse geojson %s: %w", path, err)
	}
	logger.L().Debug("geojson_loaded", "path", path, "features", len(fc.Features))
	return fc, nil
}

// 标签可能平铺在 properties 上（城市导出文件），也可能位于 tags 下（Overpass 转换结果）
func tag(f *geojson.Feature, key string) string {
	if f == nil {
		return ""
	}
	return geo.KeyRules{Paths: []string{key, "tags." + key}}.Extract(f.Properties)
}

// IsPlayground：leisure=playground 且 access 不是 private
func IsPlayground(f *geojson.Feature) bool {
	return tag(f, "leisure") == "playground" && tag(f, "access") != "private"
}

// IsDistrict：boundary=administrative 且 admin_level=10
func IsDistrict(f *geojson.Feature) bool {
	return tag(f, "boundary") == "administrative" && tag(f, "admin_level") == "10"
}

// Filter 按输入顺序保留满足条件的要素。
func Filter(features []*geojson.Feature, keep func(*geojson.Feature) bool) []*geojson.Feature {
	out := make([]*geojson.Feature, 0, len(features))
	for _, f := range features {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// 文档注释：拆分城市导出文件
// 背景：单个城市 GeoJSON 同时包含行政边界与游乐场，按标签拆成两组；两组均保持原始顺序。
func SplitCity(fc *geojson.FeatureCollection) (districts, playgrounds []*geojson.Feature) {
	if fc == nil {
		return nil, nil
	}
	return Filter(fc.Features, IsDistrict), Filter(fc.Features, IsPlayground)
}
