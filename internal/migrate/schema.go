package migrate

import (
	"database/sql"

	"playground-api/internal/logger"
)

// 背景：首次运行自动创建已发布聚合表与导入记录表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _district_aggregates (
            district_key TEXT PRIMARY KEY,
            feature_count INT NOT NULL,
            names TEXT[] NOT NULL DEFAULT '{}',
            features JSONB NOT NULL DEFAULT '[]',
            revision BIGINT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_district_aggregates_revision ON _district_aggregates(revision)`,
		`CREATE TABLE IF NOT EXISTS _ingest_runs (
            id UUID PRIMARY KEY,
            source TEXT NOT NULL,
            revision BIGINT NOT NULL DEFAULT 0,
            districts INT NOT NULL DEFAULT 0,
            features INT NOT NULL DEFAULT 0,
            replaced INT NOT NULL DEFAULT 0,
            suppressed INT NOT NULL DEFAULT 0,
            dropped INT NOT NULL DEFAULT 0,
            error TEXT NOT NULL DEFAULT '',
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON _ingest_runs(started_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			logger.L().Error("schema_exec_error", "err", err)
			return err
		}
	}
	logger.L().Info("schema_ok", "statements", len(stmts))
	return nil
}
