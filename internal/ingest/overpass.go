package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"

	"playground-api/internal/logger"
)

// DefaultOverpassURL 是公共 Overpass 实例。
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// 文档注释：Overpass 游乐场查询客户端
// 背景：按区域名称查询 leisure=playground 的 node/way/relation，并递归取回构成节点以便还原几何。
// 约束：返回 JSON 由 paulmach/osm 解码、osmgeojson 转换；属性中保留 tags 子对象，名称位于 tags.name。
type OverpassClient struct {
	Endpoint string
	HTTP     *http.Client
}

func NewOverpassClient(endpoint string) *OverpassClient {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	return &OverpassClient{Endpoint: endpoint, HTTP: &http.Client{Timeout: 40 * time.Second}}
}

// PlaygroundQuery 生成区域内游乐场查询语句。
func PlaygroundQuery(area string) string {
	area = strings.ReplaceAll(area, `"`, `\"`)
	return `[out:json][timeout:25];
area["name"="` + area + `"]->.a;
(
  node["leisure"="playground"](area.a);
  way["leisure"="playground"](area.a);
  relation["leisure"="playground"](area.a);
);
out body;
>;
out skel qt;`
}

// FetchPlaygrounds 查询并转换为 GeoJSON 要素，过滤掉非游乐场与私有场地。
func (c *OverpassClient) FetchPlaygrounds(ctx context.Context, area string) ([]*geojson.Feature, error) {
	if area == "" {
		return nil, fmt.Errorf("overpass: empty area name")
	}
	form := url.Values{"data": {PlaygroundQuery(area)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	t0 := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	features, err := DecodeOverpass(body)
	if err != nil {
		return nil, err
	}
	logger.L().Info("overpass_fetch_ok", "area", area, "features", len(features), "ms", time.Since(t0).Milliseconds())
	return features, nil
}

// DecodeOverpass 将 Overpass JSON 响应转换为游乐场要素。
// 只解码 elements，响应头部的 version/generator/osm3s 与 osm.OSM 的字段类型不一致。
func DecodeOverpass(body []byte) ([]*geojson.Feature, error) {
	var envelope struct {
		Elements json.RawMessage `json:"elements"`
		Remark   string          `json:"remark"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode overpass json: %w", err)
	}
	if envelope.Remark != "" {
		logger.L().Warn("overpass_remark", "remark", envelope.Remark)
	}
	if len(envelope.Elements) == 0 {
		envelope.Elements = json.RawMessage("[]")
	}
	var o osm.OSM
	if err := json.Unmarshal([]byte(`{"elements":`+string(envelope.Elements)+`}`), &o); err != nil {
		return nil, fmt.Errorf("decode overpass json: %w", err)
	}
	fc, err := osmgeojson.Convert(&o, osmgeojson.NoMeta(true))
	if err != nil {
		return nil, fmt.Errorf("convert osm to geojson: %w", err)
	}
	return Filter(fc.Features, IsPlayground), nil
}
