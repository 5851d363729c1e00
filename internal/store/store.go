// 包 store: 提供与 PostgreSQL 的数据访问层，包含锚点表读写与校验结果落库
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"vpn-geosanity/internal/anchors"
	"vpn-geosanity/internal/geodesy"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/sanity"
)

// Store: 数据库访问入口，持有连接池
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
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// LoadAnchors: 读取全部锚点；坐标非法的行跳过
func (s *Store) LoadAnchors(ctx context.Context) (anchors.Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, latitude, longitude, ip_v4, city, country FROM _geosanity_anchors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tbl := anchors.Table{}
	skipped := 0
	for rows.Next() {
		var a anchors.Anchor
		if err := rows.Scan(&a.ID, &a.Lat, &a.Lon, &a.IPv4, &a.City, &a.Country); err != nil {
			return nil, err
		}
		if !geodesy.ValidLatLon(a.Lat, a.Lon) {
			skipped++
			continue
		}
		tbl[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_anchors_loaded", "count", len(tbl), "skipped", skipped)
	if len(tbl) == 0 {
		return nil, errors.New("no anchors in _geosanity_anchors")
	}
	return tbl, nil
}

// UpsertAnchors: 以 id 为键写入或覆盖锚点，单事务
func (s *Store) UpsertAnchors(ctx context.Context, tbl anchors.Table) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _geosanity_anchors(id, latitude, longitude, ip_v4, city, country, updated_at)
VALUES($1,$2,$3,$4,$5,$6,now())
ON CONFLICT (id) DO UPDATE SET latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude,
ip_v4=EXCLUDED.ip_v4, city=EXCLUDED.city, country=EXCLUDED.country, updated_at=now()`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	n := 0
	for _, id := range tbl.IDs() {
		a := tbl[id]
		if _, err := stmt.ExecContext(ctx, id, a.Lat, a.Lon, a.IPv4, a.City, a.Country); err != nil {
			return n, fmt.Errorf("upsert anchor %s: %w", id, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Debug("db_anchors_upserted", "count", n)
	return n, nil
}

// Sink: 把一次批量运行写入 _geosanity_runs / _geosanity_verdicts / _geosanity_overlaps
type Sink struct {
	Store    *Store
	Provider string
}

func (Sink) Name() string { return "postgres" }

// 文档注释：单事务写入运行记录、每个节点的结论与逐锚点结果
// 约束：任一语句失败整体回滚；同一 run 重复导出时结论行按 (run_id, provider, proxy_name) 覆盖
func (k Sink) Export(ctx context.Context, runID string, reports []sanity.Report) error {
	var acc, rej, ind int
	for _, r := range reports {
		switch r.Verdict {
		case overlap.Accept:
			acc++
		case overlap.Reject:
			rej++
		default:
			ind++
		}
	}
	tx, err := k.Store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO _geosanity_runs(id, provider, claims, accepted, rejected, indeterminate)
VALUES($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET claims=EXCLUDED.claims, accepted=EXCLUDED.accepted, rejected=EXCLUDED.rejected, indeterminate=EXCLUDED.indeterminate`,
		runID, k.Provider, len(reports), acc, rej, ind); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, r := range reports {
		var id int64
		err := tx.QueryRowContext(ctx, `INSERT INTO _geosanity_verdicts(run_id, provider, proxy_name, proxy_ip, country, verdict, reason, ip_country, valid_samples, disks_built, disk_failures, duration_ms)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (run_id, provider, proxy_name) DO UPDATE SET verdict=EXCLUDED.verdict, reason=EXCLUDED.reason
RETURNING id`,
			runID, r.Provider, r.ProxyName, r.ProxyIP, r.CountryCode, string(r.Verdict), r.Reason, r.IPCountry,
			r.ValidSamples, r.DisksBuilt, r.DiskFailures, r.Duration.Milliseconds()).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert verdict %s: %w", r.ProxyName, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM _geosanity_overlaps WHERE verdict_id=$1", id); err != nil {
			return err
		}
		for i, res := range r.Results {
			if _, err := tx.ExecContext(ctx, `INSERT INTO _geosanity_overlaps(verdict_id, rank, anchor_id, overlaps, metric, distance_km, one_way_ms, radius_km)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
				id, i, res.AnchorID, res.Overlaps, res.Metric, res.DistanceToAnchorKm, res.OneWayMs, res.RadiusKm); err != nil {
				return fmt.Errorf("insert overlap %s/%s: %w", r.ProxyName, res.AnchorID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("db_run_saved", "run", runID, "reports", len(reports), "accepted", acc, "rejected", rej, "indeterminate", ind)
	return nil
}
