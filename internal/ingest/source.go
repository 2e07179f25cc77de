package ingest

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// Source 提供一次完整的行政区与游乐场集合。
type Source interface {
	Load(ctx context.Context) (districts, playgrounds []*geojson.Feature, err error)
}

// 文档注释：本地文件数据源
// 约束：CityFile 非空时从城市导出文件拆分两组；DistrictsFile/PlaygroundsFile 非空时覆盖对应组。
// 单独的游乐场文件同样经过 IsPlayground 过滤，行政区文件按原样使用。
type FileSource struct {
	CityFile        string
	DistrictsFile   string
	PlaygroundsFile string
}

func (s FileSource) Load(ctx context.Context) ([]*geojson.Feature, []*geojson.Feature, error) {
	var districts, playgrounds []*geojson.Feature
	if s.CityFile != "" {
		fc, err := LoadFeatureCollection(s.CityFile)
		if err != nil {
			return nil, nil, err
		}
		districts, playgrounds = SplitCity(fc)
	}
	if s.DistrictsFile != "" {
		fc, err := LoadFeatureCollection(s.DistrictsFile)
		if err != nil {
			return nil, nil, err
		}
		districts = fc.Features
	}
	if s.PlaygroundsFile != "" {
		fc, err := LoadFeatureCollection(s.PlaygroundsFile)
		if err != nil {
			return nil, nil, err
		}
		playgrounds = Filter(fc.Features, IsPlayground)
	}
	if len(districts) == 0 {
		return nil, nil, fmt.Errorf("file source: districts: %w", ErrEmptyCollection)
	}
	return districts, playgrounds, nil
}

// OverpassSource：行政区来自本地文件，游乐场来自 Overpass
type OverpassSource struct {
	Districts FileSource
	Client    *OverpassClient
	Area      string
}

func (s OverpassSource) Load(ctx context.Context) ([]*geojson.Feature, []*geojson.Feature, error) {
	districts, _, err := s.Districts.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	playgrounds, err := s.Client.FetchPlaygrounds(ctx, s.Area)
	if err != nil {
		return nil, nil, err
	}
	return districts, playgrounds, nil
}
