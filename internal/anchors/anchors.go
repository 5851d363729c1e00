// 包 anchors：锚点表（已知坐标的测量点），一次批量运行内只读
package anchors

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"vpn-geosanity/internal/geodesy"
	"vpn-geosanity/internal/logger"
)

// Anchor：锚点坐标与元数据
type Anchor struct {
	ID      string  `json:"-"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	IPv4    string  `json:"ip_v4"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

// Table 锚点 ID → 锚点
type Table map[string]Anchor

// IDs 排序后的锚点 ID
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// 文档注释：从 JSON 文件加载锚点表
// 背景：文件形如 {"<id>": {"latitude":..,"longitude":..,"ip_v4":..,"city":..,"country":..}}。
// 约束：坐标非法的锚点记录日志后跳过；空表视为错误。
func LoadJSON(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse 解析 JSON 字节
func Parse(b []byte) (Table, error) {
	var raw map[string]Anchor
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("anchors: %w", err)
	}
	t := make(Table, len(raw))
	for id, a := range raw {
		if !geodesy.ValidLatLon(a.Lat, a.Lon) {
			logger.For("anchors").Warn("anchor_bad_coord", "anchor", id, "lat", a.Lat, "lon", a.Lon)
			continue
		}
		a.ID = id
		t[id] = a
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("anchors: no valid anchors")
	}
	return t, nil
}

// Info 锚点的 IP、城市与国家；未知 ID 返回空串
func (t Table) Info(id string) (ip, city, country string) {
	a := t[id]
	return a.IPv4, a.City, a.Country
}
