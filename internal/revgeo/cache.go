package revgeo

import (
	"container/list"
	"strconv"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"playground-api/internal/geo"
)

// 文档注释：本地 LRU 缓存（快照修订号 + 精确坐标为键）
// 背景：地图视口中心在短周期内重复查询，使用进程内缓存跳过逐区判定；TTL 可调。
// 约束：键不做量化，不同坐标永不共享结果；修订号变化后旧键自然失效，不需要显式清理。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
}

type kv struct {
	k   string
	v   geo.Location
	exp time.Time
}

// NewLRU 创建缓存；capacity<=0 时退化为不缓存，ttlSec<=0 时条目不过期。
func NewLRU(capacity int, ttlSec int) *LRU {
	return &LRU{cap: capacity, ttl: time.Duration(ttlSec) * time.Second, lst: list.New(), dict: make(map[string]*list.Element)}
}

// Key 构造缓存键，坐标按最短往返格式输出。
func Key(revision uint64, pt orb.Point) string {
	return strconv.FormatUint(revision, 10) + ":" +
		strconv.FormatFloat(pt[0], 'g', -1, 64) + ":" +
		strconv.FormatFloat(pt[1], 'g', -1, 64)
}

func (c *LRU) Get(k string) (geo.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if c.ttl <= 0 || time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return geo.Location{}, false
}

func (c *LRU) Set(k string, v geo.Location) {
	if c.cap <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Now().Add(c.ttl)
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: exp}
		c.lst.MoveToFront(e)
		return
	}
	e := c.lst.PushFront(kv{k: k, v: v, exp: exp})
	c.dict[k] = e
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back == nil {
			break
		}
		delete(c.dict, back.Value.(kv).k)
		c.lst.Remove(back)
	}
}

// Len 返回当前条目数（含未清理的过期条目）。
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
