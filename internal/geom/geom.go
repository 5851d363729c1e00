// 包 geom：经纬度平面上的多边形布尔运算、面积与包含判定
package geom

import (
	"errors"
	"fmt"
	"math"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// ErrEmpty 布尔运算结果为空
var ErrEmpty = errors.New("empty geometry")

// WorldBox 经纬度全域包围盒（-180..180, -90..90）
var WorldBox = orb.Polygon{orb.Ring{{-180, -90}, {180, -90}, {180, 90}, {-180, 90}, {-180, -90}}}

// Shape：同时持有 orb 表达与裁剪库表达，避免在重复运算中反复转换
// 约束：创建后只读
type Shape struct {
	MP   orb.MultiPolygon
	clip polyclip.Polygon
	area float64
}

// NewShape 从 orb 多面构造；面积按球面平方米预先计算
func NewShape(mp orb.MultiPolygon) *Shape {
	return &Shape{MP: mp, clip: toClip(mp), area: Area(mp)}
}

// Area 球面面积（平方米）
func (s *Shape) Area() float64 { return s.area }

// Empty 是否没有任何面
func (s *Shape) Empty() bool { return len(s.MP) == 0 || s.area <= 0 }

// Contains 经纬度点是否在面内（边界视为在内）
func (s *Shape) Contains(lon, lat float64) bool {
	return planar.MultiPolygonContains(s.MP, orb.Point{lon, lat})
}

// Intersect 交集；裁剪库 panic 时转为错误返回
func (s *Shape) Intersect(o *Shape) (*Shape, error) { return construct(s, o, polyclip.INTERSECTION) }

// Difference 差集 s − o
func (s *Shape) Difference(o *Shape) (*Shape, error) { return construct(s, o, polyclip.DIFFERENCE) }

// World 全域形状；每次返回新实例
func World() *Shape { return NewShape(orb.MultiPolygon{WorldBox}) }

func construct(a, b *Shape, op polyclip.Op) (out *Shape, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("polygon clipping: %v", r)
		}
	}()
	res := a.clip.Construct(op, b.clip)
	mp := fromClip(res)
	return &Shape{MP: mp, clip: res, area: Area(mp)}, nil
}

// splitBox 经度方向的裁剪框；纬度放宽到 ±91，避免与极点边共线
func splitBox(minLon float64) *Shape {
	return NewShape(orb.MultiPolygon{orb.Polygon{orb.Ring{
		{minLon, -91}, {minLon + 360, -91}, {minLon + 360, 91}, {minLon, 91}, {minLon, -91},
	}}})
}

// SplitLon：把经度可能越出 [-180,180] 的多边形（展开坐标系）切回合法经纬度范围
// 背景：展开坐标系中的多边形是单个不自交的环；按 360° 平移三份分别与裁剪框求交，拼成多面。
// 约束：输入经度跨度不超过 720°；完全落在范围内时不调用裁剪库。
func SplitLon(p orb.Polygon) (*Shape, error) {
	b := p.Bound()
	if b.Min[0] >= -180 && b.Max[0] <= 180 {
		return NewShape(orb.MultiPolygon{p}), nil
	}
	box := splitBox(-180)
	var mp orb.MultiPolygon
	for _, shift := range []float64{-360, 0, 360} {
		if b.Max[0]+shift <= -180 || b.Min[0]+shift >= 180 {
			continue
		}
		part, err := NewShape(orb.MultiPolygon{shiftLon(p, shift)}).Intersect(box)
		if err != nil {
			return nil, err
		}
		mp = append(mp, part.MP...)
	}
	if len(mp) == 0 {
		return nil, ErrEmpty
	}
	return NewShape(mp), nil
}

func shiftLon(p orb.Polygon, d float64) orb.Polygon {
	if d == 0 {
		return p
	}
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		nr := make(orb.Ring, len(r))
		for j, pt := range r {
			nr[j] = orb.Point{pt[0] + d, pt[1]}
		}
		out[i] = nr
	}
	return out
}

// Area：多面球面面积，外环减洞
func Area(mp orb.MultiPolygon) float64 {
	total := 0.0
	for _, p := range mp {
		if len(p) == 0 {
			continue
		}
		a := math.Abs(geo.Area(p[0]))
		for _, h := range p[1:] {
			a -= math.Abs(geo.Area(h))
		}
		if a > 0 {
			total += a
		}
	}
	return total
}

// Simplify：Douglas-Peucker 逐环简化（阈值单位为度）；少于 4 点的环丢弃
func Simplify(mp orb.MultiPolygon, tolerance float64) orb.MultiPolygon {
	if tolerance <= 0 {
		return mp
	}
	out := make(orb.MultiPolygon, 0, len(mp))
	for _, p := range mp {
		np := make(orb.Polygon, 0, len(p))
		for i, ring := range p {
			ls := orb.LineString(ring)
			s, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
			if !ok || len(s) < 4 {
				if i == 0 {
					break
				}
				continue
			}
			np = append(np, orb.Ring(s))
		}
		if len(np) > 0 {
			out = append(out, np)
		}
	}
	return out
}

// 转换为裁剪库多边形：每个环成为一个轮廓，去掉闭合重复点
func toClip(mp orb.MultiPolygon) polyclip.Polygon {
	var out polyclip.Polygon
	for _, p := range mp {
		for _, r := range p {
			n := len(r)
			if n > 1 && r[0] == r[n-1] {
				n--
			}
			if n < 3 {
				continue
			}
			c := make(polyclip.Contour, 0, n)
			for _, pt := range r[:n] {
				c = append(c, polyclip.Point{X: pt[0], Y: pt[1]})
			}
			out = append(out, c)
		}
	}
	return out
}

// fromClip：裁剪结果没有外环/洞标记，按嵌套深度恢复（偶数深度为外环，奇数为洞）
func fromClip(p polyclip.Polygon) orb.MultiPolygon {
	rings := make([]orb.Ring, 0, len(p))
	for _, c := range p {
		if len(c) < 3 {
			continue
		}
		r := make(orb.Ring, 0, len(c)+1)
		for _, pt := range c {
			r = append(r, orb.Point{pt.X, pt.Y})
		}
		r = append(r, r[0])
		if math.Abs(planar.Area(r)) == 0 {
			continue
		}
		rings = append(rings, r)
	}
	n := len(rings)
	areas := make([]float64, n)
	bounds := make([]orb.Bound, n)
	for i, r := range rings {
		areas[i] = math.Abs(planar.Area(r))
		bounds[i] = r.Bound()
	}
	inside := func(i, j int) bool {
		if areas[j] <= areas[i] || !containsBound(bounds[j], bounds[i]) {
			return false
		}
		return pointInRing(probe(rings[i]), rings[j])
	}
	depth := make([]int, n)
	for i := range rings {
		for j := range rings {
			if i != j && inside(i, j) {
				depth[i]++
			}
		}
	}
	var mp orb.MultiPolygon
	idx := make(map[int]int, n)
	for i, r := range rings {
		if depth[i]%2 == 0 {
			idx[i] = len(mp)
			mp = append(mp, orb.Polygon{r})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		parent := -1
		for j := range rings {
			if depth[j] == depth[i]-1 && inside(i, j) && (parent < 0 || areas[j] < areas[parent]) {
				parent = j
			}
		}
		if k, ok := idx[parent]; ok {
			mp[k] = append(mp[k], r)
		}
	}
	return mp
}

func containsBound(outer, inner orb.Bound) bool {
	return inner.Min[0] >= outer.Min[0] && inner.Min[1] >= outer.Min[1] &&
		inner.Max[0] <= outer.Max[0] && inner.Max[1] <= outer.Max[1]
}

// probe 取首条边中点作为嵌套判定探针，避开相邻轮廓共享顶点
func probe(r orb.Ring) orb.Point {
	return orb.Point{(r[0][0] + r[1][0]) / 2, (r[0][1] + r[1][1]) / 2}
}

// 射线法判定点是否在环内（Even-Odd）
func pointInRing(pt orb.Point, ring orb.Ring) bool {
	inside := false
	x, y := pt[0], pt[1]
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
