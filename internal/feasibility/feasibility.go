// 包 feasibility：按锚点构造可行区域（测地圆盘），处理 ±180° 经线与覆盖大半个地球的退化情形
package feasibility

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"vpn-geosanity/internal/geodesy"
	"vpn-geosanity/internal/geom"
	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/logger"
	"vpn-geosanity/internal/metrics"
)

// ErrGeometryConstruction 单个锚点的圆盘无法构造；该锚点被丢弃，校验继续
var ErrGeometryConstruction = errors.New("geometry construction failure")

// DefaultSegments 圆周离散化的顶点数
const DefaultSegments = 64

// OrderBy 锚点排序策略
type OrderBy string

const (
	OrderAuto     OrderBy = "auto"
	OrderDistance OrderBy = "distance"
	OrderLatency  OrderBy = "latency"
)

// Point：单个锚点的可行性输入（已过滤的单程时延与对应半径）
// DistanceFromClaimKm 在没有声明坐标时为 0
type Point struct {
	AnchorID            string
	AnchorLat           float64
	AnchorLon           float64
	OneWayMs            float64
	RadiusKm            float64
	DistanceFromClaimKm float64
}

// NewPoint 由锚点坐标与单程时延构造；claim 为 nil 时距离记为 0
func NewPoint(id string, lat, lon, oneWayMs float64, claim *orb.Point) Point {
	p := Point{AnchorID: id, AnchorLat: lat, AnchorLon: lon, OneWayMs: oneWayMs, RadiusKm: latency.RadiusKm(oneWayMs)}
	if claim != nil {
		p.DistanceFromClaimKm = geodesy.DistanceKm(claim.Lat(), claim.Lon(), lat, lon)
	}
	return p
}

// Disk：锚点的可行区域；Boundary 为 WGS84 经纬度多面，经度位于 [-180,180]
type Disk struct {
	AnchorID            string
	AnchorLat           float64
	AnchorLon           float64
	RadiusKm            float64
	DistanceFromClaimKm float64
	OneWayMs            float64
	Boundary            orb.MultiPolygon
	Complemented        bool

	shape *geom.Shape
}

// Shape 返回缓存的几何表达，供重叠判定直接求交
func (d Disk) Shape() *geom.Shape {
	if d.shape == nil {
		return geom.NewShape(d.Boundary)
	}
	return d.shape
}

// Projection 返回以锚点为中心的方位等距投影
func (d Disk) Projection() geodesy.AEQD { return geodesy.NewAEQD(d.AnchorLat, d.AnchorLon) }

// Failure 构造失败的锚点及原因
type Failure struct {
	AnchorID string
	Err      error
}

// Result：Build 的输出；Disks 保持输入顺序
type Result struct {
	Disks  []Disk
	Failed []Failure
}

// Builder：圆盘构造器
// 约束：无状态，可在多个 worker 间共享
type Builder struct {
	Segments int
	log      *slog.Logger
}

// NewBuilder 构造；segments 小于 8 时使用默认值
func NewBuilder(segments int) *Builder {
	if segments < 8 {
		segments = DefaultSegments
	}
	return &Builder{Segments: segments, log: logger.For("feasibility")}
}

// Order：按策略原地排序
// auto 在有声明坐标时按距离升序，否则按单程时延升序；同值按锚点 ID
func Order(points []Point, by OrderBy, hasClaim bool) {
	byDistance := hasClaim && by != OrderLatency
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		ka, kb := a.OneWayMs, b.OneWayMs
		if byDistance {
			ka, kb = a.DistanceFromClaimKm, b.DistanceFromClaimKm
		}
		if ka != kb {
			return ka < kb
		}
		return a.AnchorID < b.AnchorID
	})
}

// Build：逐点构造圆盘；单点失败记录后跳过，不中断
func (b *Builder) Build(points []Point) Result {
	var res Result
	for _, p := range points {
		d, err := b.build(p)
		if err != nil {
			metrics.DiskFailuresTotal.Inc()
			b.log.Warn("disk_build_failed", "anchor", p.AnchorID, "lat", p.AnchorLat, "lon", p.AnchorLon, "radius_km", p.RadiusKm, "err", err)
			res.Failed = append(res.Failed, Failure{AnchorID: p.AnchorID, Err: err})
			continue
		}
		metrics.DisksBuiltTotal.Inc()
		if d.Complemented {
			metrics.DisksComplementedTotal.Inc()
		}
		res.Disks = append(res.Disks, d)
	}
	return res
}

func (b *Builder) build(p Point) (d Disk, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("anchor %s: panic %v: %w", p.AnchorID, r, ErrGeometryConstruction)
		}
	}()
	if !geodesy.ValidLatLon(p.AnchorLat, p.AnchorLon) || p.RadiusKm <= 0 || math.IsNaN(p.RadiusKm) {
		return Disk{}, fmt.Errorf("anchor %s: bad input: %w", p.AnchorID, ErrGeometryConstruction)
	}
	shape, complemented, err := b.shape(p)
	if err != nil {
		return Disk{}, fmt.Errorf("anchor %s: %v: %w", p.AnchorID, err, ErrGeometryConstruction)
	}
	return Disk{
		AnchorID:            p.AnchorID,
		AnchorLat:           p.AnchorLat,
		AnchorLon:           p.AnchorLon,
		RadiusKm:            p.RadiusKm,
		DistanceFromClaimKm: p.DistanceFromClaimKm,
		OneWayMs:            p.OneWayMs,
		Boundary:            shape.MP,
		Complemented:        complemented,
		shape:               shape,
	}, nil
}

// shape：圆周 → 经纬度环（展开经度）→ 必要时经极点闭合 → 切回 [-180,180] → 不含锚点则取补集
// 约束：补集一律为 World − 圆盘，拼接缝只出现在 ±180（裁剪框边精确），不会穿过锚点所在经线
func (b *Builder) shape(p Point) (*geom.Shape, bool, error) {
	ring, winding := unwrap(b.circle(p))
	poly := orb.Polygon{ring}
	if winding != 0 {
		// 环绕一个极点：经离锚点更近的极点闭合
		pole := 90.0
		if geodesy.DistanceKm(p.AnchorLat, p.AnchorLon, -90, 0) < geodesy.DistanceKm(p.AnchorLat, p.AnchorLon, 90, 0) {
			pole = -90
		}
		poly = closeThroughPole(ring, winding, pole)
	}
	disk, err := geom.SplitLon(poly)
	if err != nil {
		return nil, false, err
	}
	if containsAnchor(disk, p) {
		return disk, false, nil
	}
	s, err := geom.World().Difference(disk)
	if err != nil {
		return nil, true, err
	}
	if !containsAnchor(s, p) {
		return nil, true, errors.New("complement does not contain anchor")
	}
	return s, true, nil
}

// circle：投影平面上半径 r 的圆，逆投影回经纬度；首点不落在正北方向
func (b *Builder) circle(p Point) orb.Ring {
	proj := geodesy.NewAEQD(p.AnchorLat, p.AnchorLon)
	r := p.RadiusKm * 1000
	n := b.Segments
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		// 逆时针（经纬度平面中的正向）
		a := -2 * math.Pi * (float64(i) + 0.5) / float64(n)
		lon, lat := proj.Inverse(r*math.Sin(a), r*math.Cos(a))
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring
}

// unwrap：展开经度，相邻点跳变超过 180° 时按 360° 修正；返回净环绕量（0 或 ±360）
// 净环绕为 0 时补上闭合点；否则保持开口，由 closeThroughPole 闭合
func unwrap(ring orb.Ring) (orb.Ring, float64) {
	n := len(ring)
	for i := 1; i < n; i++ {
		ring[i][0] = ring[i-1][0] + lonStep(ring[i-1][0], ring[i][0])
	}
	end := ring[n-1][0] + lonStep(ring[n-1][0], ring[0][0])
	winding := math.Round((end-ring[0][0])/360) * 360
	if winding == 0 {
		ring = append(ring, ring[0])
	}
	return ring, winding
}

func lonStep(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// closeThroughPole：展开坐标系中环绕一周的折线，经由极点边闭合成单个简单多边形
func closeThroughPole(open orb.Ring, winding, pole float64) orb.Polygon {
	first := open[0]
	end := first[0] + winding
	ring := make(orb.Ring, 0, len(open)+4)
	ring = append(ring, open...)
	ring = append(ring,
		orb.Point{end, first[1]},
		orb.Point{end, pole},
		orb.Point{first[0], pole},
		first,
	)
	return orb.Polygon{ring}
}

func containsAnchor(s *geom.Shape, p Point) bool {
	if s == nil || s.Empty() {
		return false
	}
	for _, lon := range []float64{p.AnchorLon, p.AnchorLon - 360, p.AnchorLon + 360} {
		if lon < -180 || lon > 180 {
			continue
		}
		if s.Contains(lon, p.AnchorLat) {
			return true
		}
	}
	return false
}
