// 包 region：国家边界数据集加载与声明国家的边界解析
package region

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"vpn-geosanity/internal/countries"
	"vpn-geosanity/internal/geom"
	"vpn-geosanity/internal/logger"
)

// 文档注释：国家边界记录
// 背景：对齐 Natural Earth admin-0 的属性字段（ISO_A2/NAME/ADMIN/SUBREGION）；几何统一为多面。
// 约束：ISO_A2 为 "-99" 时退回 ISO_A2_EH；仍为空时只能按名称匹配。
type Record struct {
	Code      string
	Name      string
	Admin     string
	Subregion string
	Boundary  orb.MultiPolygon
}

// Dataset：只读快照，加载一次后供所有 worker 共享
type Dataset struct {
	Records []Record
	BuiltAt time.Time

	byCode map[string][]int
	byName map[string][]int
}

// 文档注释：从 GeoJSON 文件或目录加载边界
// 背景：目录时扫描其中的 .geojson/.json 文件，按文件名排序保证确定性。
// 约束：只接受 Polygon/MultiPolygon；其他几何与无法解析的文件记录日志后跳过。
// 参数：simplifyDeg>0 时按该阈值（度）做 Douglas-Peucker 简化。
func Load(path string, simplifyDeg float64) (*Dataset, error) {
	l := logger.For("region")
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("boundaries %s: %w", path, err)
	}
	files := []string{path}
	if fi.IsDir() {
		files = files[:0]
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, ent := range entries {
			name := strings.ToLower(ent.Name())
			if !ent.IsDir() && (strings.HasSuffix(name, ".geojson") || strings.HasSuffix(name, ".json")) {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
		sort.Strings(files)
	}
	var recs []Record
	for _, fp := range files {
		b, err := os.ReadFile(fp)
		if err != nil {
			l.Warn("boundaries_read_error", "file", fp, "err", err)
			continue
		}
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			l.Warn("boundaries_decode_error", "file", fp, "err", err)
			continue
		}
		n := len(recs)
		for _, f := range fc.Features {
			if r, ok := recordFromFeature(f, simplifyDeg); ok {
				recs = append(recs, r)
			}
		}
		l.Debug("boundaries_file_loaded", "file", fp, "records", len(recs)-n)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("boundaries %s: no polygon records", path)
	}
	ds := NewDataset(recs)
	l.Info("boundaries_loaded", "path", path, "records", len(recs), "files", len(files),
		"codes", len(ds.byCode), "built_at", ds.BuiltAt.Format(time.RFC3339))
	return ds, nil
}

// NewDataset 从记录构造索引
func NewDataset(recs []Record) *Dataset {
	ds := &Dataset{Records: recs, BuiltAt: time.Now(), byCode: map[string][]int{}, byName: map[string][]int{}}
	for i, r := range recs {
		if c := countries.Normalize(r.Code); c != "" && c != "-99" {
			ds.byCode[c] = append(ds.byCode[c], i)
		}
		for _, n := range []string{r.Name, r.Admin} {
			if k := nameKey(n); k != "" {
				ds.byName[k] = appendUnique(ds.byName[k], i)
			}
		}
	}
	return ds
}

// ByCode 代码精确匹配
func (d *Dataset) ByCode(code string) []Record { return d.pick(d.byCode[countries.Normalize(code)]) }

// ByName 名称匹配（忽略大小写，同时比较 NAME 与 ADMIN）
func (d *Dataset) ByName(name string) []Record { return d.pick(d.byName[nameKey(name)]) }

func (d *Dataset) pick(idx []int) []Record {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.Records[i])
	}
	return out
}

func recordFromFeature(f *geojson.Feature, simplifyDeg float64) (Record, bool) {
	var mp orb.MultiPolygon
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		mp = g
	default:
		return Record{}, false
	}
	mp = geom.Simplify(mp, simplifyDeg)
	if len(mp) == 0 {
		return Record{}, false
	}
	p := f.Properties
	return Record{
		Code:      firstProp(p, "ISO_A2", "iso_a2", "ISO_A2_EH"),
		Name:      firstProp(p, "NAME", "name", "NAME_LONG"),
		Admin:     firstProp(p, "ADMIN", "admin"),
		Subregion: firstProp(p, "SUBREGION", "subregion"),
		Boundary:  mp,
	}, true
}

func firstProp(p geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(p.MustString(k, "")); v != "" && v != "-99" {
			return v
		}
	}
	return ""
}

func nameKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func appendUnique(xs []int, v int) []int {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}
