// 包 geoip: 访客 IP → 默认视口中心，基于 GeoLite2 City 数据库
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/paulmach/orb"

	"playground-api/internal/logger"
)

// ErrNoGeoIP 表示未配置数据库或该 IP 没有坐标。
var ErrNoGeoIP = errors.New("geoip: no location for address")

type Resolver struct {
	db *geoip2.Reader
}

// Open 打开 mmdb；path 为空时返回一个始终回答 ErrNoGeoIP 的解析器。
func Open(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return &Resolver{}, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	logger.L().Info("geoip_open_ok", "path", path, "type", db.Metadata().DatabaseType)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// 文档注释：IP 所在城市坐标
// 约束：返回 orb.Point{lon, lat}；无法解析的 IP、私有地址或坐标为 (0,0) 都视为无位置。
func (r *Resolver) Center(ip string) (orb.Point, error) {
	if r == nil || r.db == nil {
		return orb.Point{}, ErrNoGeoIP
	}
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil || addr.IsPrivate() || addr.IsLoopback() {
		return orb.Point{}, ErrNoGeoIP
	}
	rec, err := r.db.City(addr)
	if err != nil {
		return orb.Point{}, fmt.Errorf("geoip lookup %s: %w", ip, err)
	}
	lat, lon := rec.Location.Latitude, rec.Location.Longitude
	if lat == 0 && lon == 0 {
		return orb.Point{}, ErrNoGeoIP
	}
	logger.L().Debug("geoip_hit", "ip", ip, "city", rec.City.Names["en"], "lat", lat, "lon", lon)
	return orb.Point{lon, lat}, nil
}
