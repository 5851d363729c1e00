// 包 sanity：单个出口节点的位置合理性校验（过滤 → 圆盘 → 声明区域 → 重叠判定）
package sanity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"vpn-geosanity/internal/anchors"
	"vpn-geosanity/internal/countries"
	"vpn-geosanity/internal/feasibility"
	"vpn-geosanity/internal/geocode"
	"vpn-geosanity/internal/iphint"
	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/region"
)

// ErrNoValidAnchors 过滤后没有可用锚点
var ErrNoValidAnchors = errors.New("no valid anchors")

// 无法判定的原因
const (
	ReasonNoValidAnchors = "no_valid_anchors"
	ReasonRegionNotFound = "region_not_found"
	ReasonNoDisks        = "no_disks"
	ReasonInternalError  = "internal_error"
)

// Claim：一个出口节点的声明与时延样本
type Claim struct {
	Provider    string
	ProxyName   string
	ProxyIP     string
	CountryCode string
	Samples     []latency.Sample
}

// Summary 结果统计（仅诊断）
type Summary struct {
	Overlapping int
	Evaluated   int
	MeanOverlap float64
	MedianGapKm float64
}

// Report：一次校验的完整输出
// 约束：返回后只读，导出钩子拿到的是同一份快照
type Report struct {
	Provider    string
	ProxyName   string
	ProxyIP     string
	CountryCode string
	Subregion   string

	Verdict overlap.Verdict
	Results []overlap.Result
	Reason  string
	Err     error

	ValidSamples    int
	TotalSamples    int
	DisksBuilt      int
	DiskFailures    int
	ClaimCoordinate *orb.Point
	CoordinateFrom  string
	IPCountry       string
	Summary         Summary
	Duration        time.Duration
}

// Options：Checker 的可调参数
type Options struct {
	Band           latency.Band
	Policy         overlap.Policy
	OrderBy        feasibility.OrderBy
	Segments       int
	GeocodeTimeout time.Duration
}

// Checker：共享只读参考数据，可在多个 worker 中并发调用 Check
type Checker struct {
	anchors   anchors.Table
	regions   *region.Resolver
	builder   *feasibility.Builder
	validator *overlap.Validator
	locator   geocode.Locator
	hint      iphint.Hint
	opts      Options
	log       *slog.Logger
}

// NewChecker locator 与 hint 可为 nil
func NewChecker(tbl anchors.Table, regions *region.Resolver, locator geocode.Locator, hint iphint.Hint, opts Options) *Checker {
	if opts.Band.MaxMs == 0 {
		opts.Band = latency.DefaultBand
	}
	if opts.OrderBy == "" {
		opts.OrderBy = feasibility.OrderAuto
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 5 * time.Second
	}
	return &Checker{
		anchors:   tbl,
		regions:   regions,
		builder:   feasibility.NewBuilder(opts.Segments),
		validator: overlap.NewValidator(opts.Policy),
		locator:   locator,
		hint:      hint,
		opts:      opts,
		log:       logger.For("sanity"),
	}
}

// 文档注释：校验单个出口节点
// 背景：过滤样本 → 查询声明坐标（可选，有超时）→ 构造并排序圆盘 → 解析声明区域 → 重叠判定。
// 约束：任何错误或 panic 都转为 indeterminate 报告，不向调用方传播；不重试。
func (c *Checker) Check(ctx context.Context, claim Claim) (rep Report) {
	t0 := time.Now()
	rep = Report{
		Provider:     claim.Provider,
		ProxyName:    claim.ProxyName,
		ProxyIP:      claim.ProxyIP,
		CountryCode:  countries.Normalize(claim.CountryCode),
		TotalSamples: len(claim.Samples),
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("check_panic", "proxy", claim.ProxyName, "panic", r)
			rep.Verdict = overlap.Indeterminate
			rep.Results = nil
			rep.Reason = ReasonInternalError
			rep.Err = fmt.Errorf("panic: %v", r)
		}
		rep.Duration = time.Since(t0)
		metrics.ChecksTotal.WithLabelValues(string(rep.Verdict)).Inc()
		metrics.CheckDurationMs.Observe(float64(rep.Duration.Milliseconds()))
		if rep.Verdict == overlap.Indeterminate {
			metrics.IndeterminateTotal.WithLabelValues(rep.Reason).Inc()
		}
	}()
	c.run(ctx, claim, &rep)
	return rep
}

func (c *Checker) run(ctx context.Context, claim Claim, rep *Report) {
	l := c.log.With("provider", claim.Provider, "proxy", claim.ProxyName)

	if c.hint != nil && claim.ProxyIP != "" {
		if code, ok := c.hint.Country(claim.ProxyIP); ok {
			rep.IPCountry = code
			if code != rep.CountryCode {
				l.Info("ip_country_mismatch", "claimed", rep.CountryCode, "ip_country", code)
			}
		}
	}

	filtered := latency.Filter(claim.Samples, c.opts.Band)
	if filtered.Dropped > 0 {
		metrics.SamplesDroppedTotal.WithLabelValues("out_of_band").Add(float64(filtered.Dropped))
		l.Debug("samples_dropped", "dropped", filtered.Dropped, "total", filtered.Total)
	}

	coord := c.locate(ctx, rep)
	points := make([]feasibility.Point, 0, len(filtered.Kept))
	for _, b := range filtered.Kept {
		a, ok := c.anchors[b.AnchorID]
		if !ok {
			metrics.SamplesDroppedTotal.WithLabelValues("unknown_anchor").Inc()
			l.Debug("anchor_unknown", "anchor", b.AnchorID)
			continue
		}
		points = append(points, feasibility.NewPoint(b.AnchorID, a.Lat, a.Lon, b.OneWayMs, coord))
	}
	rep.ValidSamples = len(points)
	if len(points) == 0 {
		l.Info("check_indeterminate", "reason", ReasonNoValidAnchors)
		c.indeterminate(rep, ReasonNoValidAnchors, ErrNoValidAnchors)
		return
	}
	l.Debug("valid_pings", "points", len(points), "samples", rep.TotalSamples)

	feasibility.Order(points, c.opts.OrderBy, coord != nil)
	built := c.builder.Build(points)
	rep.DisksBuilt = len(built.Disks)
	rep.DiskFailures = len(built.Failed)

	reg, err := c.regions.Resolve(rep.CountryCode)
	if err != nil {
		l.Info("check_indeterminate", "reason", ReasonRegionNotFound, "country", rep.CountryCode)
		c.indeterminate(rep, ReasonRegionNotFound, err)
		return
	}
	if len(built.Disks) == 0 {
		l.Info("check_indeterminate", "reason", ReasonNoDisks, "failed", len(built.Failed))
		c.indeterminate(rep, ReasonNoDisks, fmt.Errorf("all %d disks failed: %w", len(built.Failed), feasibility.ErrGeometryConstruction))
		return
	}

	rep.Subregion = reg.Subregion
	rep.Results, rep.Verdict = c.validator.Validate(reg.Shape(), built.Disks)
	rep.Summary = summarize(rep.Results)
	l.Info("check_done", "verdict", rep.Verdict, "country", rep.CountryCode, "subregion", rep.Subregion,
		"overlapping", rep.Summary.Overlapping, "evaluated", rep.Summary.Evaluated,
		"disks", rep.DisksBuilt, "disk_failures", rep.DiskFailures)
}

// locate 查询声明国家的代表坐标；失败时返回 nil（退回按时延排序）
func (c *Checker) locate(ctx context.Context, rep *Report) *orb.Point {
	if c.locator == nil || rep.CountryCode == "" {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, c.opts.GeocodeTimeout)
	defer cancel()
	res := c.locator.Locate(cctx, rep.CountryCode)
	if res.Status != geocode.Found {
		c.log.Debug("claim_coordinate_missing", "country", rep.CountryCode, "status", res.Status.String())
		return nil
	}
	pt := orb.Point{res.Lon, res.Lat}
	rep.ClaimCoordinate = &pt
	rep.CoordinateFrom = res.Source
	return &pt
}

func (c *Checker) indeterminate(rep *Report, reason string, err error) {
	rep.Verdict = overlap.Indeterminate
	rep.Reason = reason
	rep.Err = err
}

// summarize 重叠比例均值与间隙中位数
func summarize(results []overlap.Result) Summary {
	s := Summary{Evaluated: len(results)}
	var fracs, gaps []float64
	for _, r := range results {
		if r.Overlaps {
			s.Overlapping++
			fracs = append(fracs, r.Metric)
		} else {
			gaps = append(gaps, r.Metric)
		}
	}
	if len(fracs) > 0 {
		s.MeanOverlap = stat.Mean(fracs, nil)
	}
	if len(gaps) > 0 {
		sort.Float64s(gaps)
		s.MedianGapKm = stat.Quantile(0.5, stat.Empirical, gaps, nil)
	}
	return s
}
