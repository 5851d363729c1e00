package latency

import (
	"errors"
	"math"
	"testing"
)

func TestRadiusKmLinear(t *testing.T) {
	for _, ms := range []float64{3, 10, 20, 47.5, 64.9} {
		if got, want := RadiusKm(2*ms), 2*RadiusKm(ms); math.Abs(got-want) > 1e-9 {
			t.Fatalf("RadiusKm(2*%v) = %v, want %v", ms, got, want)
		}
	}
	prev := -1.0
	for ms := 3.0; ms < 130; ms += 0.5 {
		r := RadiusKm(ms)
		if r <= prev {
			t.Fatalf("RadiusKm not monotone at %v", ms)
		}
		prev = r
	}
}

func TestRadiusKmParis20ms(t *testing.T) {
	got := RadiusKm(20)
	if math.Abs(got-3060.3) > 1.0 {
		t.Fatalf("RadiusKm(20) = %.2f, want about 3060", got)
	}
}

func TestBandContains(t *testing.T) {
	cases := []struct {
		name string
		band Band
		ms   float64
		want bool
	}{
		{name: "below min", band: DefaultBand, ms: 2.99, want: false},
		{name: "at min", band: DefaultBand, ms: 3.0, want: true},
		{name: "inside", band: DefaultBand, ms: 64, want: true},
		{name: "at max exclusive", band: DefaultBand, ms: 130.0, want: false},
		{name: "at max inclusive", band: Band{MinMs: 3, MaxMs: 130, MaxInclusive: true}, ms: 130.0, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.band.Contains(tc.ms); got != tc.want {
				t.Fatalf("Contains(%v) = %v, want %v", tc.ms, got, tc.want)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	for _, s := range []Sample{
		{AnchorID: "a", LatencyMs: math.NaN()},
		{AnchorID: "a", LatencyMs: math.Inf(1)},
		{AnchorID: "a", LatencyMs: -4},
		{AnchorID: "a", LatencyMs: 4, Kind: RoundTrip},
		{AnchorID: "a", LatencyMs: 260, Kind: RoundTrip},
	} {
		if _, err := DefaultBand.Validate(s); !errors.Is(err, ErrInvalidSample) {
			t.Fatalf("Validate(%+v) err = %v, want ErrInvalidSample", s, err)
		}
	}
}

func TestFilterKeepsMinimumPerAnchor(t *testing.T) {
	samples := []Sample{
		{AnchorID: "b", LatencyMs: 40, Kind: RoundTrip},
		{AnchorID: "a", LatencyMs: 30, Kind: OneWay},
		{AnchorID: "b", LatencyMs: 24, Kind: RoundTrip},
		{AnchorID: "b", LatencyMs: 2, Kind: RoundTrip},
		{AnchorID: "c", LatencyMs: 500, Kind: RoundTrip},
	}
	res := Filter(samples, DefaultBand)
	if res.Total != 5 || res.Dropped != 2 {
		t.Fatalf("Total/Dropped = %d/%d, want 5/2", res.Total, res.Dropped)
	}
	if len(res.Kept) != 2 {
		t.Fatalf("kept %d anchors, want 2", len(res.Kept))
	}
	if res.Kept[0].AnchorID != "a" || res.Kept[0].OneWayMs != 30 {
		t.Fatalf("first = %+v, want a/30", res.Kept[0])
	}
	if res.Kept[1].AnchorID != "b" || res.Kept[1].OneWayMs != 12 {
		t.Fatalf("second = %+v, want b/12", res.Kept[1])
	}
}
