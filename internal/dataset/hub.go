// 包 dataset: 持有当前的行政区与游乐场快照，负责重算、变更判定发布与视口定位
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"playground-api/internal/geo"
	"playground-api/internal/ingest"
	"playground-api/internal/logger"
	"playground-api/internal/metrics"
	"playground-api/internal/revgeo"
	"playground-api/internal/store"
)

// ErrNoSnapshot 在首次导入完成前返回。
var ErrNoSnapshot = errors.New("dataset: no snapshot loaded")

// Snapshot 是一次全量重算的不可变结果。
type Snapshot struct {
	Revision  uint64
	Districts []*geojson.Feature
	Features  []*geojson.Feature
	Result    geo.Result
	LoadedAt  time.Time
}

// Publisher 接收变化的行政区聚合，store.Store 实现该接口。
type Publisher interface {
	Publish(ctx context.Context, revision uint64, key string, entry geo.AggregateEntry, names []string) error
	Drop(ctx context.Context, keys []string) error
}

// RunRecorder 记录每次导入，store.Store 实现该接口。
type RunRecorder interface {
	RecordRun(ctx context.Context, r store.Run) (uuid.UUID, error)
}

// Stats 描述一次 Replace 的发布结果。
type Stats struct {
	Revision   uint64 `json:"revision"`
	Replaced   int    `json:"replaced"`
	Suppressed int    `json:"suppressed"`
	Dropped    int    `json:"dropped"`
}

// 文档注释：数据集中心
// 背景：读路径（聚合查询、定位）只读取原子指针中的快照，不加锁；写路径在 mu 下串行，
// 保证发布顺序与修订号顺序一致。
// 约束：published 记录最近一次成功发布的明细条目，是变更判定的比较基准，也是对外展示的明细；
// 它由 pmu 单独保护，发布期间读者不等待 mu。
type Hub struct {
	agg      *geo.Aggregator
	pub      Publisher
	recorder RunRecorder
	cache    *revgeo.LRU

	mu        sync.Mutex
	snap      atomic.Pointer[Snapshot]
	pmu       sync.RWMutex
	published map[string]PublishedEntry
}

// PublishedEntry 是通过变更判定后发布的明细条目及其发布时的修订号。
type PublishedEntry struct {
	geo.AggregateEntry
	Revision uint64
}

type Option func(*Hub)

func WithPublisher(p Publisher) Option { return func(h *Hub) { h.pub = p } }
func WithRecorder(r RunRecorder) Option { return func(h *Hub) { h.recorder = r } }
func WithCache(c *revgeo.LRU) Option { return func(h *Hub) { h.cache = c } }

func New(agg *geo.Aggregator, opts ...Option) *Hub {
	if agg == nil {
		agg = geo.NewAggregator()
	}
	h := &Hub{agg: agg, published: map[string]PublishedEntry{}}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Hub) Aggregator() *geo.Aggregator { return h.agg }

// Current 返回当前快照，未加载时为 nil。
func (h *Hub) Current() *Snapshot { return h.snap.Load() }

// Published 返回最近一次成功发布的条目；内容未变化的重算不会改变它的修订号。
func (h *Hub) Published(key string) (PublishedEntry, bool) {
	h.pmu.RLock()
	defer h.pmu.RUnlock()
	e, ok := h.published[key]
	return e, ok
}

// 文档注释：全量重算并替换快照
// 背景：新快照总是被发布到读路径；下游发布按键做变更判定，未变化的键被抑制，消失的键被删除。
// 返回：发布器失败不阻止快照切换，失败的键不记为已发布，下次重算会再次尝试。
func (h *Hub) Replace(ctx context.Context, districts, features []*geojson.Feature) (Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	res := h.agg.Aggregate(districts, features)
	metrics.AggregateRunsTotal.Inc()
	metrics.AggregateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.DistrictMerges.Set(float64(res.Merges))

	var rev uint64 = 1
	if cur := h.snap.Load(); cur != nil {
		rev = cur.Revision + 1
	}
	h.snap.Store(&Snapshot{
		Revision:  rev,
		Districts: districts,
		Features:  features,
		Result:    res,
		LoadedAt:  time.Now(),
	})
	metrics.SnapshotRevision.Set(float64(rev))
	metrics.SnapshotDistricts.Set(float64(len(districts)))
	metrics.SnapshotFeatures.Set(float64(len(features)))

	st := Stats{Revision: rev}
	var errs []error
	names := h.agg.NameRules()
	for _, key := range sortedKeys(res.Detailed) {
		entry := res.Detailed[key]
		var cur *geo.AggregateEntry
		if prev, ok := h.published[key]; ok {
			cur = &prev.AggregateEntry
		}
		if !geo.ShouldReplace(cur, entry, names) {
			st.Suppressed++
			metrics.PublishTotal.WithLabelValues("suppressed").Inc()
			continue
		}
		if h.pub != nil {
			if err := h.pub.Publish(ctx, rev, key, entry, geo.SortedNames(entry.Features, names)); err != nil {
				metrics.PublishErrorsTotal.Inc()
				errs = append(errs, err)
				continue
			}
		}
		h.pmu.Lock()
		h.published[key] = PublishedEntry{AggregateEntry: entry, Revision: rev}
		h.pmu.Unlock()
		st.Replaced++
		metrics.PublishTotal.WithLabelValues("replaced").Inc()
	}

	var gone []string
	for key := range h.published {
		if _, ok := res.Detailed[key]; !ok {
			gone = append(gone, key)
		}
	}
	sort.Strings(gone)
	if len(gone) > 0 {
		if h.pub != nil {
			if err := h.pub.Drop(ctx, gone); err != nil {
				metrics.PublishErrorsTotal.Inc()
				errs = append(errs, err)
				gone = nil
			}
		}
		h.pmu.Lock()
		for _, key := range gone {
			delete(h.published, key)
		}
		h.pmu.Unlock()
		st.Dropped = len(gone)
		metrics.PublishTotal.WithLabelValues("dropped").Add(float64(st.Dropped))
	}

	logger.L().Info("dataset_replace", "revision", rev, "districts", len(districts), "features", len(features),
		"merges", res.Merges, "replaced", st.Replaced, "suppressed", st.Suppressed, "dropped", st.Dropped,
		"elapsed_ms", time.Since(start).Milliseconds())
	if len(errs) > 0 {
		return st, fmt.Errorf("publish revision %d: %w", rev, errors.Join(errs...))
	}
	return st, nil
}

// 文档注释：从数据源重新加载
// 背景：加载失败保留旧快照；每次运行（成功或失败）在配置了 RunRecorder 时记录一行。
func (h *Hub) Reload(ctx context.Context, name string, src ingest.Source) (Stats, error) {
	started := time.Now()
	districts, features, err := src.Load(ctx)
	var st Stats
	if err == nil {
		st, err = h.Replace(ctx, districts, features)
	} else {
		err = fmt.Errorf("load %s: %w", name, err)
	}
	if h.recorder != nil {
		run := store.Run{
			Source:     name,
			Revision:   st.Revision,
			Districts:  len(districts),
			Features:   len(features),
			Replaced:   st.Replaced,
			Suppressed: st.Suppressed,
			Dropped:    st.Dropped,
			Err:        err,
			StartedAt:  started,
		}
		if _, rerr := h.recorder.RecordRun(ctx, run); rerr != nil {
			logger.L().Warn("ingest_run_record_error", "source", name, "err", rerr)
		}
	}
	return st, err
}

// 文档注释：视口中心定位
// 背景：针对当前快照执行定位；进程内 LRU 以修订号 + 精确坐标为键，快照切换后旧结果不再命中。
func (h *Hub) Locate(pt orb.Point) (geo.Location, uint64, error) {
	snap := h.snap.Load()
	if snap == nil {
		return geo.Location{}, 0, ErrNoSnapshot
	}
	start := time.Now()
	defer func() {
		metrics.LocateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()
	key := revgeo.Key(snap.Revision, pt)
	if h.cache != nil {
		if loc, ok := h.cache.Get(key); ok {
			metrics.LocateRequestsTotal.WithLabelValues("lru").Inc()
			return loc, snap.Revision, nil
		}
	}
	metrics.LocateRequestsTotal.WithLabelValues("miss").Inc()
	loc := h.agg.Locate(snap.Districts, snap.Features, pt)
	if h.cache != nil {
		h.cache.Set(key, loc)
	}
	return loc, snap.Revision, nil
}

func sortedKeys(m geo.AggregationMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
