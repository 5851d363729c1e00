package geodesy

import (
	"math"
	"testing"
)

func TestAEQDRoundTrip(t *testing.T) {
	centres := [][2]float64{{48.85, 2.35}, {10, 179}, {-33.87, 151.21}, {89.5, 0}, {0, 0}}
	targets := [][2]float64{{51.5, -0.12}, {10, -179.5}, {35.68, 139.69}, {-45, 170}, {60, -100}}
	for _, c := range centres {
		p := NewAEQD(c[0], c[1])
		for _, tg := range targets {
			x, y := p.Forward(tg[1], tg[0])
			lon, lat := p.Inverse(x, y)
			if math.Abs(lat-tg[0]) > 1e-6 || math.Abs(NormalizeLon(lon-tg[1])) > 1e-6 {
				t.Fatalf("centre %v: round trip %v -> (%v,%v)", c, tg, lat, lon)
			}
		}
	}
}

func TestAEQDPreservesDistanceFromCentre(t *testing.T) {
	p := NewAEQD(48.85, 2.35)
	x, y := p.Forward(-0.12, 51.5)
	want := DistanceKm(48.85, 2.35, 51.5, -0.12) * 1000
	if got := math.Hypot(x, y); math.Abs(got-want) > 1e-3 {
		t.Fatalf("planar distance = %v, geodesic = %v", got, want)
	}
	// 巴黎到伦敦约 344km
	if want < 330e3 || want > 350e3 {
		t.Fatalf("Paris-London = %vm, want about 344km", want)
	}
}

func TestAEQDAxes(t *testing.T) {
	p := NewAEQD(0, 0)
	x, y := p.Forward(1, 0)
	if x <= 0 || math.Abs(y) > 1e-6 {
		t.Fatalf("east point projected to (%v,%v), want +x axis", x, y)
	}
	x, y = p.Forward(0, 1)
	if y <= 0 || math.Abs(x) > 1e-6 {
		t.Fatalf("north point projected to (%v,%v), want +y axis", x, y)
	}
}

func TestNormalizeLon(t *testing.T) {
	cases := map[float64]float64{0: 0, 180: 180, -180: -180, 181: -179, -181: 179, 540: 180, 359: -1}
	for in, want := range cases {
		if got := NormalizeLon(in); math.Abs(got-want) > 1e-9 && !(math.Abs(got) == 180 && math.Abs(want) == 180) {
			t.Fatalf("NormalizeLon(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestValidLatLon(t *testing.T) {
	if !ValidLatLon(10, 179) || ValidLatLon(91, 0) || ValidLatLon(0, 181) || ValidLatLon(math.NaN(), 0) {
		t.Fatalf("ValidLatLon classification wrong")
	}
}
