package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"

	"playground-api/internal/dataset"
	"playground-api/internal/geoip"
	"playground-api/internal/logger"
	"playground-api/internal/metrics"
	"playground-api/internal/revgeo"
	"playground-api/internal/store"
)

// DetailStore 读取已发布的行政区，store.Store 实现该接口。
type DetailStore interface {
	Get(ctx context.Context, key string) (*store.Published, error)
}

// Deps：路由依赖；除 Hub 外均可为空
type Deps struct {
	Hub        *dataset.Hub
	Store      DetailStore
	Redis      *redis.Client
	GeoIP      *geoip.Resolver
	Reload     func(ctx context.Context) (dataset.Stats, error)
	AdminToken string
	LocateTTL  time.Duration
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/aggregate", func(w http.ResponseWriter, r *http.Request) {
		snap := d.Hub.Current()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: dataset.ErrNoSnapshot.Error()})
			return
		}
		variant := r.URL.Query().Get("variant")
		res := aggregateResponse{Revision: snap.Revision, Merges: snap.Result.Merges}
		switch variant {
		case "", "preview":
			res.Variant = "preview"
			res.Districts = snap.Result.Preview
		case "detailed":
			res.Variant = "detailed"
			res.Districts = snap.Result.Detailed
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "variant must be detailed or preview"})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// 文档注释：行政区明细
	// 背景：展示的是通过变更判定后发布的条目，内容未变化的重算不会刷新它，revision 保持为发布时的修订号；
	// 首次发布成功前（或该键发布失败时）回退到当前快照。
	apiMux.HandleFunc("/districts/detail", func(w http.ResponseWriter, r *http.Request) {
		snap := d.Hub.Current()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: dataset.ErrNoSnapshot.Error()})
			return
		}
		key := r.URL.Query().Get("key")
		if key == "" {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "district not found"})
			return
		}
		res := detailResponse{Key: key, SnapshotRevision: snap.Revision}
		if p, ok := d.Hub.Published(key); ok {
			res.Count, res.Features, res.Revision, res.Source = p.Count, p.Features, p.Revision, "published"
		} else if entry, ok := snap.Result.Detailed[key]; ok {
			res.Count, res.Features, res.Revision, res.Source = entry.Count, entry.Features, snap.Revision, "snapshot"
		} else {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "district not found"})
			return
		}
		if d.Store != nil {
			p, err := d.Store.Get(r.Context(), key)
			if err != nil {
				logger.L().Warn("store_get_error", "key", key, "err", err)
			} else if p != nil {
				rev := p.Revision
				res.StoredRevision = &rev
			}
		}
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/locate", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snap := d.Hub.Current()
		if snap == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: dataset.ErrNoSnapshot.Error()})
			return
		}
		pt, source, err := viewportCenter(r, d.GeoIP)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		cacheKey := "locate:" + revgeo.Key(snap.Revision, pt)
		if d.Redis != nil {
			if s, _ := d.Redis.Get(ctx, cacheKey).Result(); s != "" {
				var res locateResponse
				if json.Unmarshal([]byte(s), &res) == nil {
					metrics.LocateRequestsTotal.WithLabelValues("redis").Inc()
					res.Source = source
					writeJSON(w, http.StatusOK, res)
					return
				}
			}
		}
		loc, rev, err := d.Hub.Locate(pt)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		res := locateResponse{
			Found:    loc.Found,
			District: loc.Key,
			Count:    len(loc.Features),
			Features: loc.Features,
			Center:   pt,
			Source:   source,
			Revision: rev,
		}
		if d.Redis != nil && rev == snap.Revision {
			b, _ := json.Marshal(res)
			if err := d.Redis.Set(ctx, cacheKey, string(b), d.LocateTTL).Err(); err != nil {
				logger.L().Warn("redis_set_error", "key", cacheKey, "err", err)
			}
		}
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		t := r.Header.Get("x-admin-token")
		if t == "" || t != d.AdminToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if d.Reload == nil {
			writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "reload not configured"})
			return
		}
		st, err := d.Reload(r.Context())
		if err != nil {
			logger.L().Error("reload_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, st)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		res := statsResponse{Strategy: d.Hub.Aggregator().Strategy().String()}
		if snap := d.Hub.Current(); snap != nil {
			res.Loaded = true
			res.Revision = snap.Revision
			res.Districts = len(snap.Districts)
			res.Features = len(snap.Features)
			res.Keys = len(snap.Result.Detailed)
			res.Merges = snap.Result.Merges
			res.LoadedAt = snap.LoadedAt
		}
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/healthz", Healthz)

	return apiMux
}

// Healthz 始终返回 200，进程存活即健康。
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// 文档注释：解析视口中心
// 背景：lat/lon 同时给出时直接使用；都缺省时按访客 IP 推断城市坐标；只给出一个视为参数错误。
// 返回：source 为 "query" 或 "geoip"。
func viewportCenter(r *http.Request, g *geoip.Resolver) (orb.Point, string, error) {
	q := r.URL.Query()
	latS, lonS := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if latS == "" && lonS == "" {
		pt, err := g.Center(getVisitorIP(r))
		if err != nil {
			if !errors.Is(err, geoip.ErrNoGeoIP) {
				logger.L().Debug("geoip_error", "err", err)
			}
			return orb.Point{}, "", errors.New("lat and lon are required")
		}
		return pt, "geoip", nil
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil || math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return orb.Point{}, "", errors.New("lat and lon must be finite numbers")
	}
	return orb.Point{lon, lat}, "query", nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
