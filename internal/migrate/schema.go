package migrate

import (
	"database/sql"

	"vpn-geosanity/internal/logger"
)

// 背景：首次运行自动创建锚点表与结果表，保障导入与导出
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _geosanity_anchors (
            id TEXT PRIMARY KEY,
            latitude DOUBLE PRECISION NOT NULL,
            longitude DOUBLE PRECISION NOT NULL,
            ip_v4 TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS _geosanity_runs (
            id UUID PRIMARY KEY,
            provider TEXT NOT NULL,
            started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            claims INT NOT NULL DEFAULT 0,
            accepted INT NOT NULL DEFAULT 0,
            rejected INT NOT NULL DEFAULT 0,
            indeterminate INT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _geosanity_verdicts (
            id BIGSERIAL PRIMARY KEY,
            run_id UUID NOT NULL REFERENCES _geosanity_runs(id) ON DELETE CASCADE,
            provider TEXT NOT NULL,
            proxy_name TEXT NOT NULL,
            proxy_ip TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL,
            verdict TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            ip_country TEXT NOT NULL DEFAULT '',
            valid_samples INT NOT NULL DEFAULT 0,
            disks_built INT NOT NULL DEFAULT 0,
            disk_failures INT NOT NULL DEFAULT 0,
            duration_ms BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_verdict_run_proxy ON _geosanity_verdicts(run_id, provider, proxy_name)`,
		`CREATE TABLE IF NOT EXISTS _geosanity_overlaps (
            verdict_id BIGINT NOT NULL REFERENCES _geosanity_verdicts(id) ON DELETE CASCADE,
            rank INT NOT NULL,
            anchor_id TEXT NOT NULL,
            overlaps BOOLEAN NOT NULL,
            metric DOUBLE PRECISION NOT NULL,
            distance_km DOUBLE PRECISION NOT NULL,
            one_way_ms DOUBLE PRECISION NOT NULL,
            radius_km DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (verdict_id, rank)
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
