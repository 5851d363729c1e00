// 包 overlap：声明国家边界与各锚点可行区域的重叠判定，以及最终结论
package overlap

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"vpn-geosanity/internal/feasibility"
	"vpn-geosanity/internal/geodesy"
	"vpn-geosanity/internal/geom"
	"vpn-geosanity/internal/logger"
)

// Verdict 判定结论
type Verdict string

const (
	Accept        Verdict = "accept"
	Reject        Verdict = "reject"
	Indeterminate Verdict = "indeterminate"
)

// Mode 判定模式
type Mode string

const (
	Statistical Mode = "statistical"
	Strict      Mode = "strict"
)

// Result：单个锚点的重叠结果
// Overlaps 为真时 Metric 为重叠比例（交集面积/声明面积，[0,1]）；否则为间隙距离（km）
type Result struct {
	AnchorID           string
	Overlaps           bool
	Metric             float64
	DistanceToAnchorKm float64
	OneWayMs           float64
	RadiusKm           float64
	AnchorLat          float64
	AnchorLon          float64
}

// Policy 判定参数
type Policy struct {
	Mode      Mode
	TopN      int
	Threshold float64
}

// DefaultPolicy 最近 30 个锚点中至少 90% 重叠
var DefaultPolicy = Policy{Mode: Statistical, TopN: 30, Threshold: 0.9}

// Validator：无状态，可在 worker 间共享
type Validator struct {
	policy Policy
	log    *slog.Logger
}

func NewValidator(p Policy) *Validator {
	if p.TopN <= 0 {
		p.TopN = DefaultPolicy.TopN
	}
	if p.Threshold <= 0 || p.Threshold > 1 {
		p.Threshold = DefaultPolicy.Threshold
	}
	if p.Mode != Strict {
		p.Mode = Statistical
	}
	return &Validator{policy: p, log: logger.For("overlap")}
}

// Policy 返回生效的参数
func (v *Validator) Policy() Policy { return v.policy }

// Evaluate 计算单个圆盘与声明区域的重叠结果
func (v *Validator) Evaluate(claim *geom.Shape, d feasibility.Disk) Result {
	res := Result{
		AnchorID:           d.AnchorID,
		DistanceToAnchorKm: d.DistanceFromClaimKm,
		OneWayMs:           d.OneWayMs,
		RadiusKm:           d.RadiusKm,
		AnchorLat:          d.AnchorLat,
		AnchorLon:          d.AnchorLon,
	}
	inter, err := claim.Intersect(d.Shape())
	if err != nil {
		v.log.Warn("intersection_failed", "anchor", d.AnchorID, "err", err)
	} else if !inter.Empty() && claim.Area() > 0 {
		res.Overlaps = true
		res.Metric = math.Min(1, math.Max(0, inter.Area()/claim.Area()))
		return res
	}
	res.Metric = Gap(claim.MP, d)
	return res
}

// 文档注释：声明区域到圆盘的间隙距离（km）
// 背景：在锚点方位等距平面中，锚点是原点，圆盘是半径 r 的圆；间隙 = 原点到声明区域的距离 − r。
// 补集圆盘（半径接近半周）时声明区域靠近对跖点，投影平面里弦会穿过原点附近，改为沿加密后的边界取大地线距离。
// 约束：结果不小于 0。
func Gap(claim orb.MultiPolygon, d feasibility.Disk) float64 {
	if d.Complemented {
		return geodesicGap(claim, d)
	}
	proj := d.Projection()
	projected := make(orb.MultiPolygon, 0, len(claim))
	for _, p := range claim {
		np := make(orb.Polygon, 0, len(p))
		for _, ring := range p {
			nr := make(orb.Ring, len(ring))
			for i, pt := range ring {
				x, y := proj.Forward(pt[0], pt[1])
				nr[i] = orb.Point{x, y}
			}
			np = append(np, nr)
		}
		projected = append(projected, np)
	}
	dist := planar.DistanceFrom(projected, orb.Point{0, 0})
	return math.Max(0, dist-d.RadiusKm*1000) / 1000
}

// densifyDeg 加密后相邻边界点的最大经纬度间隔
const densifyDeg = 0.25

func geodesicGap(claim orb.MultiPolygon, d feasibility.Disk) float64 {
	best := math.Inf(1)
	visit := func(lon, lat float64) {
		if km := geodesy.DistanceKm(d.AnchorLat, d.AnchorLon, lat, lon); km < best {
			best = km
		}
	}
	for _, p := range claim {
		for _, ring := range p {
			for i := 0; i+1 < len(ring); i++ {
				a, b := ring[i], ring[i+1]
				n := int(math.Ceil(math.Max(math.Abs(b[0]-a[0]), math.Abs(b[1]-a[1])) / densifyDeg))
				if n < 1 {
					n = 1
				}
				for k := 0; k < n; k++ {
					f := float64(k) / float64(n)
					visit(a[0]+f*(b[0]-a[0]), a[1]+f*(b[1]-a[1]))
				}
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return math.Max(0, best-d.RadiusKm)
}

// 文档注释：按模式得出结论
// 背景：statistical 只看前 N 个（已按距离或时延排好序）圆盘，重叠比例不低于阈值即接受；不足 N 个时按实际数量计算。
// strict 遇到第一个不重叠的圆盘即拒绝，结果列表截止到该圆盘。
// 约束：没有圆盘时结论为 indeterminate。
func (v *Validator) Validate(claim *geom.Shape, disks []feasibility.Disk) ([]Result, Verdict) {
	if len(disks) == 0 {
		return nil, Indeterminate
	}
	if v.policy.Mode == Strict {
		out := make([]Result, 0, len(disks))
		for _, d := range disks {
			r := v.Evaluate(claim, d)
			out = append(out, r)
			if !r.Overlaps {
				return out, Reject
			}
		}
		return out, Accept
	}
	n := len(disks)
	if n > v.policy.TopN {
		n = v.policy.TopN
	}
	out := make([]Result, 0, n)
	hits := 0
	for _, d := range disks[:n] {
		r := v.Evaluate(claim, d)
		if r.Overlaps {
			hits++
		}
		out = append(out, r)
	}
	return out, v.verdict(hits, n)
}

// verdict hits/n >= threshold；以整数比较避免 27/30 这类边界上的浮点误差
func (v *Validator) verdict(hits, n int) Verdict {
	need := int(math.Ceil(v.policy.Threshold*float64(n) - 1e-9))
	if hits >= need {
		return Accept
	}
	return Reject
}
