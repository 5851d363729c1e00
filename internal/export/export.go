// 包 export：校验结果的离线导出（CSV 文件、数据库）
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/sanity"
)

// Hook：批次结束后接收只读报告快照
// 约束：导出失败只记录，不改变判定
type Hook interface {
	Name() string
	Export(ctx context.Context, runID string, reports []sanity.Report) error
}

// RunAll 依次执行所有钩子；错误计数并记录后继续
func RunAll(ctx context.Context, hooks []Hook, runID string, reports []sanity.Report) {
	l := logger.For("export")
	for _, h := range hooks {
		if h == nil {
			continue
		}
		if err := h.Export(ctx, runID, reports); err != nil {
			metrics.ExportFailuresTotal.WithLabelValues(h.Name()).Inc()
			l.Error("export_error", "hook", h.Name(), "run", runID, "err", err)
			continue
		}
		l.Info("export_done", "hook", h.Name(), "run", runID, "reports", len(reports))
	}
}

// Truth 汇总文件中的结论列：True/False，无法判定为 -1
func Truth(v overlap.Verdict) string {
	switch v {
	case overlap.Accept:
		return "True"
	case overlap.Reject:
		return "False"
	}
	return "-1"
}

// CSVSummary：results/results_<provider>_<YYYY-MM-DD>.csv
type CSVSummary struct {
	Dir      string
	Provider string
	Now      func() time.Time
}

func (CSVSummary) Name() string { return "csv_summary" }

// Path 当天的汇总文件路径
func (c CSVSummary) Path() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return filepath.Join(c.Dir, "results_"+fileSafe(c.Provider)+"_"+now().Format("2006-01-02")+".csv")
}

func (c CSVSummary) Export(_ context.Context, _ string, reports []sanity.Report) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	rows := [][]string{{"vpn_provider", "proxy_name", "proxy_cnt", "truth", "proxy_ip"}}
	for _, r := range reports {
		rows = append(rows, []string{r.Provider, r.ProxyName, r.CountryCode, Truth(r.Verdict), r.ProxyIP})
	}
	return writeCSV(c.Path(), rows)
}

// CSVDetail：每个出口节点一份逐锚点审计文件，位于 sanity/<provider>/
type CSVDetail struct {
	Dir     string
	Anchors AnchorInfo
}

// AnchorInfo 锚点 ID → (IP, 城市, 国家)
type AnchorInfo func(id string) (ip, city, country string)

func (CSVDetail) Name() string { return "csv_detail" }

func (c CSVDetail) Export(_ context.Context, runID string, reports []sanity.Report) error {
	for _, r := range reports {
		if len(r.Results) == 0 {
			continue
		}
		dir := filepath.Join(c.Dir, "sanity", fileSafe(r.Provider))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		rows := [][]string{{"proxy_name", "proxy_ip", "proxy_country", "truth", "extra",
			"anchor_name", "anchor_ip", "anchor_cnt", "anchor_gps", "distance", "min_delay", "radius"}}
		for _, res := range r.Results {
			var ip, city, cnt string
			if c.Anchors != nil {
				ip, city, cnt = c.Anchors(res.AnchorID)
			}
			rows = append(rows, []string{
				r.ProxyName, r.ProxyIP, r.CountryCode,
				strconv.FormatBool(res.Overlaps), ftoa(res.Metric),
				res.AnchorID, ip, fmt.Sprintf("(%s, %s)", city, cnt),
				fmt.Sprintf("(%s, %s)", ftoa(res.AnchorLat), ftoa(res.AnchorLon)),
				ftoa(res.DistanceToAnchorKm), ftoa(res.OneWayMs), ftoa(res.RadiusKm),
			})
		}
		name := fileSafe(r.Provider + "_" + r.ProxyName + "_" + runID + ".csv")
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return err
		}
	}
	return nil
}

// fileSafe 节点名来自结果文件，不可信：去掉路径分隔符，"."/".." 换成下划线
func fileSafe(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_").Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
