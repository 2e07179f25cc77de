package api

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"playground-api/internal/geo"
)

// aggregateResponse：/aggregate 返回结构
type aggregateResponse struct {
	Revision  uint64             `json:"revision"`
	Variant   string             `json:"variant"`
	Merges    int                `json:"merges"`
	Districts geo.AggregationMap `json:"districts"`
}

// detailResponse：/districts/detail 返回结构
// revision 为该条目发布时的修订号；stored_revision 仅在数据库可用且已写入时出现
type detailResponse struct {
	Key              string             `json:"key"`
	Count            int                `json:"count"`
	Features         []*geojson.Feature `json:"features"`
	Revision         uint64             `json:"revision"`
	SnapshotRevision uint64             `json:"snapshot_revision"`
	Source           string             `json:"source"`
	StoredRevision   *uint64            `json:"stored_revision,omitempty"`
}

// locateResponse：/locate 返回结构，也是 Redis 缓存的值
type locateResponse struct {
	Found    bool               `json:"found"`
	District string             `json:"district,omitempty"`
	Count    int                `json:"count"`
	Features []*geojson.Feature `json:"features"`
	Center   orb.Point          `json:"center"`
	Source   string             `json:"source"`
	Revision uint64             `json:"revision"`
}

type statsResponse struct {
	Loaded    bool      `json:"loaded"`
	Revision  uint64    `json:"revision"`
	Districts int       `json:"districts"`
	Features  int       `json:"features"`
	Keys      int       `json:"keys"`
	Merges    int       `json:"merges"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Strategy  string    `json:"strategy"`
}

type errorResponse struct {
	Error string `json:"error"`
}
