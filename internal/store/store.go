// 包 store: 提供与 PostgreSQL 的数据访问层，保存已发布的行政区聚合与导入记录
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paulmach/orb/geojson"

	"playground-api/internal/geo"
	"playground-api/internal/logger"
)

// Store: 数据库访问入口，持有连接池并实现 dataset.Publisher
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Published: 一条已发布的行政区聚合
type Published struct {
	Key       string
	Count     int
	Names     []string
	Features  []*geojson.Feature
	Revision  uint64
	UpdatedAt time.Time
}

// 文档注释：发布变化的行政区聚合（按键 upsert）
// 背景：只有变更判定通过的条目才会到达这里，names 保存排序后的名称序列供下次比较。
func (s *Store) Publish(ctx context.Context, revision uint64, key string, entry geo.AggregateEntry, names []string) error {
	features := entry.Features
	if features == nil {
		features = []*geojson.Feature{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("encode features for %q: %w", key, err)
	}
	if names == nil {
		names = []string{}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO _district_aggregates(district_key, feature_count, names, features, revision, updated_at)
        VALUES($1, $2, $3, $4, $5, now())
        ON CONFLICT (district_key) DO UPDATE SET feature_count=EXCLUDED.feature_count, names=EXCLUDED.names,
            features=EXCLUDED.features, revision=EXCLUDED.revision, updated_at=now()`,
		key, entry.Count, pq.Array(names), raw, int64(revision))
	if err != nil {
		return fmt.Errorf("publish %q: %w", key, err)
	}
	logger.L().Debug("store_publish", "key", key, "count", entry.Count, "revision", revision)
	return nil
}

// Drop: 删除新结果中已不存在的行政区
func (s *Store) Drop(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM _district_aggregates WHERE district_key = ANY($1)", pq.Array(keys))
	if err != nil {
		return fmt.Errorf("drop districts: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.L().Debug("store_drop", "keys", len(keys), "rows", n)
	return nil
}

// Get: 读取单个行政区，不存在返回 nil, nil
func (s *Store) Get(ctx context.Context, key string) (*Published, error) {
	row := s.db.QueryRowContext(ctx, "SELECT district_key, feature_count, names, features, revision, updated_at FROM _district_aggregates WHERE district_key=$1", key)
	p, err := scanPublished(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// List: 按键升序列出全部已发布行政区
func (s *Store) List(ctx context.Context) ([]Published, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT district_key, feature_count, names, features, revision, updated_at FROM _district_aggregates ORDER BY district_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Published
	for rows.Next() {
		p, err := scanPublished(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPublished(r scanner) (*Published, error) {
	var (
		p   Published
		raw []byte
		rev int64
	)
	if err := r.Scan(&p.Key, &p.Count, pq.Array(&p.Names), &raw, &rev, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Revision = uint64(rev)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Features); err != nil {
			return nil, fmt.Errorf("decode features for %q: %w", p.Key, err)
		}
	}
	return &p, nil
}

// Run: 一次导入的记录
type Run struct {
	ID         uuid.UUID
	Source     string
	Revision   uint64
	Districts  int
	Features   int
	Replaced   int
	Suppressed int
	Dropped    int
	Err        error
	StartedAt  time.Time
}

// 文档注释：记录导入运行
// 约束：ID 为空时自动生成；错误以文本保存，成功时为空串。
func (s *Store) RecordRun(ctx context.Context, r Run) (uuid.UUID, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _ingest_runs(id, source, revision, districts, features, replaced, suppressed, dropped, error, started_at)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Source, int64(r.Revision), r.Districts, r.Features, r.Replaced, r.Suppressed, r.Dropped, msg, r.StartedAt)
	if err != nil {
		return r.ID, fmt.Errorf("record ingest run: %w", err)
	}
	logger.L().Info("ingest_run_recorded", "id", r.ID.String(), "source", r.Source, "revision", r.Revision, "err", msg)
	return r.ID, nil
}
