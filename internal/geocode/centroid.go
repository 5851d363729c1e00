package geocode

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// BoundaryLookup 国家代码 → 边界多面（region.Resolver 实现）
type BoundaryLookup interface {
	Boundary(code string) (orb.MultiPolygon, error)
}

// Centroid：离线兜底，取边界中面积最大部分的面积质心
// 背景：远程服务不可用时仍能给出代表坐标；多部分国家（含海外领地）以本土为准。
type Centroid struct {
	Regions BoundaryLookup
}

func (c Centroid) Locate(_ context.Context, iso string) Result {
	mp, err := c.Regions.Boundary(iso)
	if err != nil || len(mp) == 0 {
		return Result{Status: NotFound, Source: "centroid"}
	}
	pt, ok := LargestPartCentroid(mp)
	if !ok {
		return Result{Status: NotFound, Source: "centroid"}
	}
	return Result{Status: Found, Lat: pt.Lat(), Lon: pt.Lon(), Source: "centroid"}
}

// LargestPartCentroid 面积最大部分的平面质心
func LargestPartCentroid(mp orb.MultiPolygon) (orb.Point, bool) {
	best, bestArea := -1, 0.0
	for i, p := range mp {
		if len(p) == 0 {
			continue
		}
		if a := math.Abs(geo.Area(p[0])); a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return orb.Point{}, false
	}
	pt, _ := planar.CentroidArea(mp[best])
	if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
		return orb.Point{}, false
	}
	return pt, true
}
