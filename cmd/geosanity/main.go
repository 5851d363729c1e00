// 程序入口：读取配置、加载参考数据、并发校验一个提供商的全部出口节点并导出结果
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vpn-geosanity/internal/anchors"
	"vpn-geosanity/internal/batch"
	"vpn-geosanity/internal/config"
	"vpn-geosanity/internal/export"
	"vpn-geosanity/internal/feasibility"
	"vpn-geosanity/internal/geocode"
	"vpn-geosanity/internal/iphint"
	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
	"vpn-geosanity/internal/migrate"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/pings"
	"vpn-geosanity/internal/region"
	"vpn-geosanity/internal/sanity"
	"vpn-geosanity/internal/store"
	"vpn-geosanity/internal/utils"
)

func main() {
	config.LoadDotEnv()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	if len(os.Args) > 1 {
		cfg.Provider = os.Args[1]
	}
	if err := cfg.Validate(); err != nil {
		l.Error("config_error", "err", err)
		os.Exit(2)
	}
	if cfg.Provider == "" {
		l.Error("config_error", "err", "VPN_PROVIDER or first argument required")
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, l, cfg); err != nil {
		l.Error("run_error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, l *slog.Logger, cfg config.Config) error {
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s := &http.Server{Addr: cfg.MetricsAddr, Handler: logger.MetricsGuard(l, mux), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			l.Info("metrics_listen", "addr", cfg.MetricsAddr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("metrics_server_error", "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = s.Shutdown(sctx)
		}()
	}

	var st *store.Store
	if cfg.AnchorsSource == "db" || cfg.ExportDB {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		l.Info("db_ping_ok")
		if err := migrate.EnsureSchema(db); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		st = store.AttachDB(db)
	}

	tbl, err := loadAnchors(ctx, cfg, st)
	if err != nil {
		return fmt.Errorf("anchors: %w", err)
	}
	l.Info("anchors_loaded", "count", len(tbl), "source", cfg.AnchorsSource)

	ds, err := region.Load(cfg.BoundariesPath, cfg.RegionSimplifyDeg)
	if err != nil {
		return fmt.Errorf("boundaries: %w", err)
	}
	regions := region.NewResolver(ds)
	l.Debug("boundaries_ready", "age_ms", regions.Age().Milliseconds())

	locator := buildLocator(ctx, l, cfg, regions)
	hint, closeHints := buildHints(l, cfg)
	defer closeHints()

	checker := sanity.NewChecker(tbl, regions, locator, hint, sanity.Options{
		Band: latency.Band{MinMs: cfg.LatencyMinMs, MaxMs: cfg.LatencyMaxMs, MaxInclusive: cfg.LatencyMaxInclusive},
		Policy: overlap.Policy{
			Mode:      overlap.Mode(cfg.VerdictMode),
			TopN:      cfg.VerdictTopN,
			Threshold: cfg.VerdictThreshold,
		},
		OrderBy:        feasibility.OrderBy(cfg.OrderBy),
		Segments:       cfg.DiskSegments,
		GeocodeTimeout: cfg.GeocodeTimeout,
	})

	path, err := pings.LatestFile(cfg.PingsPath, cfg.Provider)
	if err != nil {
		return err
	}
	entries, err := pings.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pings %s: %w", path, err)
	}
	l.Info("pings_loaded", "path", path, "claims", len(entries))

	hooks := []export.Hook{export.CSVSummary{Dir: cfg.ResultsPath, Provider: cfg.Provider}}
	if cfg.ExportDetail {
		hooks = append(hooks, export.CSVDetail{Dir: cfg.SanityPath, Anchors: tbl.Info})
	}
	if cfg.ExportDB && st != nil {
		hooks = append(hooks, store.Sink{Store: st, Provider: cfg.Provider})
	}

	res := batch.NewRunner(checker, cfg.Workers, hooks...).Run(ctx, batch.Claims(entries))
	for _, name := range res.Accepted {
		fmt.Println(name)
	}
	l.Info("run_summary", "run", res.RunID, "provider", cfg.Provider, "claims", len(res.Reports),
		"accepted", len(res.Accepted), "rejected", res.Rejected, "indeterminate", res.Indeterminate)
	return nil
}

func loadAnchors(ctx context.Context, cfg config.Config, st *store.Store) (anchors.Table, error) {
	if cfg.AnchorsSource == "db" {
		return st.LoadAnchors(ctx)
	}
	return anchors.LoadJSON(cfg.AnchorsPath)
}

// buildLocator：GEOCODE_URL 为空时只用边界质心（离线）；否则 Nominatim 在前、质心兜底，外层加缓存
func buildLocator(ctx context.Context, l *slog.Logger, cfg config.Config, regions *region.Resolver) geocode.Locator {
	chain := geocode.Chain{}
	if cfg.GeocodeURL != "" {
		n := geocode.NewNominatim(cfg.GeocodeURL, cfg.GeocodeUserAgent, &http.Client{Timeout: cfg.GeocodeTimeout})
		n.Limit = geocode.NewTokenBucket(cfg.GeocodeQPS)
		chain = append(chain, n)
		l.Info("geocode_remote", "url", cfg.GeocodeURL, "qps", cfg.GeocodeQPS)
	}
	chain = append(chain, geocode.Centroid{Regions: regions})
	return geocode.NewCached(chain, utils.OpenCacheRedis(ctx, l, cfg.RedisEnabled), cfg.GeocodeCacheTTL)
}

// buildHints：打开可选的离线 IP 库；打开失败只记录，不影响校验
func buildHints(l *slog.Logger, cfg config.Config) (iphint.Hint, func()) {
	var hs []iphint.Hint
	closers := []func(){}
	if g, err := iphint.OpenGeoIP(cfg.GeoIPPath); err != nil {
		l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
	} else if g != nil {
		hs = append(hs, g)
		closers = append(closers, func() { _ = g.Close() })
		l.Info("geoip_loaded", "path", cfg.GeoIPPath)
	}
	if x, err := iphint.OpenIP2Region(cfg.IP2RegionV4Path); err != nil {
		l.Error("ip2region_open_error", "path", cfg.IP2RegionV4Path, "err", err)
	} else if x != nil {
		hs = append(hs, x)
		l.Info("ip2region_loaded", "path", cfg.IP2RegionV4Path)
	}
	if d, err := iphint.OpenIPDB(cfg.IPIPPath, cfg.IPIPLang); err != nil {
		l.Error("ipip_open_error", "path", cfg.IPIPPath, "err", err)
	} else if d != nil {
		hs = append(hs, d)
		l.Info("ipip_loaded", "path", cfg.IPIPPath, "lang", cfg.IPIPLang)
	}
	if len(hs) == 0 {
		return nil, func() {}
	}
	return iphint.NewChain(hs...), func() {
		for _, c := range closers {
			c()
		}
	}
}
