// 包 geodesy：WGS84 椭球上的测地计算与以锚点为中心的方位等距投影
package geodesy

import (
	"math"

	"github.com/tidwall/geodesic"
)

// AEQD：方位等距投影（以锚点为原点，米为单位）
// 背景：该投影保持到原点的真实测地距离，在平面上画半径 r 的圆即得到测地圆盘。
// 约束：正算用测地反解（距离+方位角），反算用测地正解；x 指向东，y 指向北。
type AEQD struct {
	Lat0 float64
	Lon0 float64
}

// NewAEQD 以 (lat, lon) 为中心构造投影
func NewAEQD(lat, lon float64) AEQD { return AEQD{Lat0: lat, Lon0: lon} }

// Forward 经纬度 → 平面坐标（米）
func (p AEQD) Forward(lon, lat float64) (x, y float64) {
	var s12, azi1 float64
	geodesic.WGS84.Inverse(p.Lat0, p.Lon0, lat, lon, &s12, &azi1, nil)
	a := azi1 * math.Pi / 180
	return s12 * math.Sin(a), s12 * math.Cos(a)
}

// Inverse 平面坐标（米）→ 经纬度；经度归一化到 [-180, 180]
func (p AEQD) Inverse(x, y float64) (lon, lat float64) {
	s := math.Hypot(x, y)
	if s == 0 {
		return p.Lon0, p.Lat0
	}
	azi := math.Atan2(x, y) * 180 / math.Pi
	var lat2, lon2 float64
	geodesic.WGS84.Direct(p.Lat0, p.Lon0, azi, s, &lat2, &lon2, nil)
	return NormalizeLon(lon2), lat2
}

// DistanceKm 两点间 WGS84 测地距离（千米）
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &s12, nil, nil)
	return s12 / 1000.0
}

// NormalizeLon 将经度归一化到 [-180, 180]；180 保持不变
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// ValidLatLon 坐标合法性检查
func ValidLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
