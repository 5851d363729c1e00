// 包 pings：读取预先采集的时延结果文件（每个 VPN 提供商一批）
package pings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/logger"
)

// ErrNoPingFile 目录中没有该提供商的结果文件
var ErrNoPingFile = errors.New("no ping file")

// Entry：一个出口节点的声明与各锚点时延样本（往返，毫秒）
type Entry struct {
	Provider  string
	ProxyName string
	ProxyIP   string
	Country   string
	Samples   []latency.Sample
}

// 文档注释：选出提供商最新的结果文件
// 背景：文件名约定为 pings_<provider>_<unix_ts>.csv，时间戳最大者为最新。
// 约束：时间戳无法解析的文件忽略。
func LatestFile(dir, provider string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	prefix := "pings_" + provider + "_"
	best, bestTS := "", -1.0
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		ts, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".csv"), 64)
		if err != nil {
			continue
		}
		if ts > bestTS {
			best, bestTS = name, ts
		}
	}
	if best == "" {
		return "", fmt.Errorf("%s in %s: %w", provider, dir, ErrNoPingFile)
	}
	return filepath.Join(dir, best), nil
}

// ReadFile 读取单个结果文件
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// 文档注释：解析结果 CSV
// 背景：表头以 proxy_name 或 vpn_provider 开头，第 5 列起为锚点 ID；数据行为 (provider, proxy_name, ip_v4, cnt, rtt...)。
// 约束：单元格可为空，或包含多个以 ';' 分隔的往返时延；无法解析的数值记录日志后跳过。数据行在表头之前出现视为错误。
func Read(r io.Reader) ([]Entry, error) {
	l := logger.For("pings")
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var keys []string
	var out []Entry
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if h := strings.TrimSpace(row[0]); h == "proxy_name" || h == "vpn_provider" {
			if len(row) < 4 {
				return nil, fmt.Errorf("line %d: short header", line)
			}
			keys = append([]string(nil), row[4:]...)
			continue
		}
		if keys == nil {
			return nil, fmt.Errorf("line %d: data row before header", line)
		}
		if len(row) < 4 {
			l.Warn("ping_row_short", "line", line, "cols", len(row))
			continue
		}
		e := Entry{Provider: row[0], ProxyName: row[1], ProxyIP: row[2], Country: strings.TrimSpace(row[3])}
		for i, key := range keys {
			if 4+i >= len(row) {
				break
			}
			for _, cell := range strings.Split(row[4+i], ";") {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					l.Debug("ping_cell_bad", "line", line, "anchor", key, "value", cell)
					continue
				}
				e.Samples = append(e.Samples, latency.Sample{AnchorID: key, LatencyMs: v, Kind: latency.RoundTrip})
			}
		}
		out = append(out, e)
	}
	l.Debug("pings_read", "entries", len(out), "anchors", len(keys))
	return out, nil
}
