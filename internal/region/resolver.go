package region

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"vpn-geosanity/internal/countries"
	"vpn-geosanity/internal/geom"
)

// ErrRegionNotFound 代码与名称均未命中；调用方应将声明视为无法判定而非拒绝
var ErrRegionNotFound = errors.New("region not found")

// Region：解析后的声明国家边界（可能为多个部分）
type Region struct {
	CountryCode string
	Name        string
	Subregion   string
	Boundary    orb.MultiPolygon

	shape *geom.Shape
}

// Shape 预计算面积与裁剪表达
func (r *Region) Shape() *geom.Shape { return r.shape }

// Resolver：代码 → 边界；结果按代码缓存（解析结果只读，可并发复用）
type Resolver struct {
	ds    *Dataset
	cache sync.Map // code -> *Region
}

func NewResolver(ds *Dataset) *Resolver { return &Resolver{ds: ds} }

// Age 边界快照自加载以来的时长
func (r *Resolver) Age() time.Duration { return time.Since(r.ds.BuiltAt) }

// 文档注释：解析声明国家的边界
// 背景：先按代码精确匹配；为空时经代码表翻译为显示名（含常见别名）再按名称匹配。
// 约束：多条记录合并为一个多部分区域；均未命中返回包装 ErrRegionNotFound 的错误。
func (r *Resolver) Resolve(code string) (*Region, error) {
	c := countries.Normalize(code)
	if v, ok := r.cache.Load(c); ok {
		return v.(*Region), nil
	}
	recs := r.ds.ByCode(c)
	if len(recs) == 0 {
		for _, n := range countries.AllNames(c) {
			if recs = r.ds.ByName(n); len(recs) > 0 {
				break
			}
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("country %q: %w", code, ErrRegionNotFound)
	}
	var mp orb.MultiPolygon
	for _, rec := range recs {
		mp = append(mp, rec.Boundary...)
	}
	reg := &Region{CountryCode: c, Name: recs[0].Name, Boundary: mp, shape: geom.NewShape(mp)}
	for _, rec := range recs {
		if rec.Subregion != "" {
			reg.Subregion = rec.Subregion
			break
		}
	}
	if reg.shape.Empty() {
		return nil, fmt.Errorf("country %q: empty boundary: %w", code, ErrRegionNotFound)
	}
	v, _ := r.cache.LoadOrStore(c, reg)
	return v.(*Region), nil
}

// Boundary 供坐标兜底（面积质心）使用
func (r *Resolver) Boundary(code string) (orb.MultiPolygon, error) {
	reg, err := r.Resolve(code)
	if err != nil {
		return nil, err
	}
	return reg.Boundary, nil
}
