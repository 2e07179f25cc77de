package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// PreviewCap 是预览列表的上限，WithPreviewCap 只能调小。
const PreviewCap = 3

// 文档注释：单个行政区的聚合结果
// 约束：明细变体 Count == len(Features)；预览变体 Count 为真实总数，Features 为按名称去重后的前缀。
type AggregateEntry struct {
	Count    int                `json:"count"`
	Features []*geojson.Feature `json:"features"`
}

// AggregationMap：行政区名称键 → 聚合结果
type AggregationMap map[string]AggregateEntry

// Result 同时携带明细与预览两种变体。
type Result struct {
	Detailed AggregationMap
	Preview  AggregationMap
	// Merges：名称键与更早出现的行政区重复而被合并的次数（诊断用）
	Merges int
}

// 文档注释：行政区聚合器
// 背景：每次输入变化时全量重算，O(行政区 × 要素) 次点入面判定；行政区之间无依赖，可按 workers 并发扫描。
// 约束：返回的映射与切片在返回后视为只读；并发扫描的结果按行政区输入顺序合并，与串行结果一致。
type Aggregator struct {
	keys     KeyRules
	names    KeyRules
	strategy Strategy
	cap      int
	workers  int
}

// Option 配置 Aggregator。
type Option func(*Aggregator)

func WithKeyRules(r KeyRules) Option { return func(a *Aggregator) { a.keys = r } }
func WithNameRules(r KeyRules) Option { return func(a *Aggregator) { a.names = r } }
func WithStrategy(s Strategy) Option { return func(a *Aggregator) { a.strategy = s } }
func WithPreviewCap(n int) Option { return func(a *Aggregator) { a.cap = n } }
func WithWorkers(n int) Option { return func(a *Aggregator) { a.workers = n } }

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		keys:     DefaultDistrictKeys,
		names:    DefaultFeatureNames,
		strategy: FirstCoordinate,
		cap:      PreviewCap,
		workers:  1,
	}
	for _, o := range opts {
		o(a)
	}
	// 预览上限不超过 PreviewCap
	if a.cap < 0 {
		a.cap = 0
	}
	if a.cap > PreviewCap {
		a.cap = PreviewCap
	}
	if a.workers < 1 {
		a.workers = 1
	}
	return a
}

func (a *Aggregator) KeyRules() KeyRules { return a.keys }
func (a *Aggregator) NameRules() KeyRules { return a.names }
func (a *Aggregator) Strategy() Strategy { return a.strategy }
func (a *Aggregator) PreviewLimit() int { return a.cap }
func (a *Aggregator) Workers() int { return a.workers }

// DistrictKey 返回行政区的名称键。
func (a *Aggregator) DistrictKey(d *geojson.Feature) string { return a.keys.FeatureKey(d) }

type located struct {
	pt orb.Point
	ok bool
}

func (a *Aggregator) reduceAll(features []*geojson.Feature) []located {
	out := make([]located, len(features))
	for i, f := range features {
		if f == nil {
			continue
		}
		out[i].pt, out[i].ok = a.strategy.Reduce(f.Geometry)
	}
	return out
}

// members 返回落入行政区的要素下标（保持输入顺序）
func members(d *geojson.Feature, pts []located) []int {
	if d == nil {
		return nil
	}
	var idx []int
	for i, p := range pts {
		if p.ok && Contains(d.Geometry, p.pt) {
			idx = append(idx, i)
		}
	}
	return idx
}

// 文档注释：全量聚合
// 背景：代表点无法推导的要素静默排除；同名行政区合并到同一键下并计入 Merges。
// 预览规则：按要素输入顺序，仅当预览未满且名称非空、未与已有预览重名时加入；无名要素只计数并进入明细。
func (a *Aggregator) Aggregate(districts, features []*geojson.Feature) Result {
	pts := a.reduceAll(features)
	hits := make([][]int, len(districts))
	if a.workers > 1 && len(districts) > 1 {
		var g errgroup.Group
		g.SetLimit(a.workers)
		for i := range districts {
			i := i
			g.Go(func() error {
				hits[i] = members(districts[i], pts)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, d := range districts {
			hits[i] = members(d, pts)
		}
	}

	res := Result{
		Detailed: make(AggregationMap, len(districts)),
		Preview:  make(AggregationMap, len(districts)),
	}
	for i, d := range districts {
		key := a.DistrictKey(d)
		det, seen := res.Detailed[key]
		if seen {
			res.Merges++
		}
		prev := res.Preview[key]
		if det.Features == nil {
			det.Features = []*geojson.Feature{}
		}
		if prev.Features == nil {
			prev.Features = []*geojson.Feature{}
		}
		for _, fi := range hits[i] {
			f := features[fi]
			det.Count++
			det.Features = append(det.Features, f)
			prev.Count++
			if len(prev.Features) >= a.cap {
				continue
			}
			name := a.names.FeatureKey(f)
			if name != "" && !a.hasName(prev.Features, name) {
				prev.Features = append(prev.Features, f)
			}
		}
		res.Detailed[key] = det
		res.Preview[key] = prev
	}
	return res
}

func (a *Aggregator) hasName(list []*geojson.Feature, name string) bool {
	for _, f := range list {
		if a.names.FeatureKey(f) == name {
			return true
		}
	}
	return false
}
