package sanity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"vpn-geosanity/internal/anchors"
	"vpn-geosanity/internal/geocode"
	"vpn-geosanity/internal/latency"
	"vpn-geosanity/internal/overlap"
	"vpn-geosanity/internal/region"
)

func box(minX, minY, maxX, maxY float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}}
}

func testResolver() *region.Resolver {
	return region.NewResolver(region.NewDataset([]region.Record{
		{Code: "FR", Name: "France", Subregion: "Western Europe", Boundary: box(-4.8, 43.3, 7.6, 51.1)},
		{Code: "JP", Name: "Japan", Boundary: box(129.5, 31, 145.5, 45.5)},
	}))
}

// 十个欧洲锚点，各自到法国境内节点的往返时延
func testAnchors() (anchors.Table, []latency.Sample) {
	tbl := anchors.Table{}
	var samples []latency.Sample
	sites := [][2]float64{
		{48.85, 2.35}, {51.5, -0.12}, {52.52, 13.4}, {50.85, 4.35}, {52.37, 4.9},
		{46.2, 6.14}, {45.46, 9.19}, {40.42, -3.7}, {48.14, 11.58}, {47.37, 8.54},
	}
	for i, s := range sites {
		id := fmt.Sprintf("eu-%02d", i)
		tbl[id] = anchors.Anchor{ID: id, Lat: s[0], Lon: s[1]}
		samples = append(samples, latency.Sample{AnchorID: id, LatencyMs: 24, Kind: latency.RoundTrip})
	}
	return tbl, samples
}

type fixedLocator geocode.Result

func (f fixedLocator) Locate(context.Context, string) geocode.Result { return geocode.Result(f) }

type panicLocator struct{}

func (panicLocator) Locate(context.Context, string) geocode.Result { panic("boom") }

func newChecker(loc geocode.Locator) *Checker {
	tbl, _ := testAnchors()
	return NewChecker(tbl, testResolver(), loc, nil, Options{Policy: overlap.DefaultPolicy})
}

func TestCheckAcceptsPlausibleClaim(t *testing.T) {
	_, samples := testAnchors()
	rep := newChecker(nil).Check(context.Background(), Claim{ProxyName: "fr-1", CountryCode: "fr", Samples: samples})
	require.Equal(t, overlap.Accept, rep.Verdict)
	require.Equal(t, "FR", rep.CountryCode)
	require.Equal(t, "Western Europe", rep.Subregion)
	require.Len(t, rep.Results, 10)
	require.Equal(t, 10, rep.ValidSamples)
	require.Equal(t, 10, rep.Summary.Overlapping)
	require.Nil(t, rep.ClaimCoordinate)
}

func TestCheckRejectsImplausibleClaim(t *testing.T) {
	_, samples := testAnchors()
	rep := newChecker(nil).Check(context.Background(), Claim{ProxyName: "jp-1", CountryCode: "JP", Samples: samples})
	require.Equal(t, overlap.Reject, rep.Verdict)
	require.Zero(t, rep.Summary.Overlapping)
	require.Greater(t, rep.Summary.MedianGapKm, 5000.0)
}

func TestCheckIndeterminate(t *testing.T) {
	_, samples := testAnchors()
	cases := []struct {
		name   string
		claim  Claim
		reason string
		err    error
	}{
		{name: "no samples", claim: Claim{CountryCode: "FR"}, reason: ReasonNoValidAnchors, err: ErrNoValidAnchors},
		{name: "all out of band", claim: Claim{CountryCode: "FR", Samples: []latency.Sample{{AnchorID: "eu-00", LatencyMs: 2}}}, reason: ReasonNoValidAnchors, err: ErrNoValidAnchors},
		{name: "unknown anchors", claim: Claim{CountryCode: "FR", Samples: []latency.Sample{{AnchorID: "nowhere", LatencyMs: 20}}}, reason: ReasonNoValidAnchors, err: ErrNoValidAnchors},
		{name: "unknown country", claim: Claim{CountryCode: "BR", Samples: samples}, reason: ReasonRegionNotFound, err: region.ErrRegionNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := newChecker(nil).Check(context.Background(), tc.claim)
			require.Equal(t, overlap.Indeterminate, rep.Verdict)
			require.Equal(t, tc.reason, rep.Reason)
			require.True(t, errors.Is(rep.Err, tc.err), "err = %v", rep.Err)
		})
	}
}

func TestCheckRecoversPanics(t *testing.T) {
	_, samples := testAnchors()
	rep := newChecker(panicLocator{}).Check(context.Background(), Claim{CountryCode: "FR", Samples: samples})
	require.Equal(t, overlap.Indeterminate, rep.Verdict)
	require.Equal(t, ReasonInternalError, rep.Reason)
	require.Error(t, rep.Err)
}

func TestCheckUsesClaimCoordinate(t *testing.T) {
	_, samples := testAnchors()
	loc := fixedLocator{Status: geocode.Found, Lat: 46.6, Lon: 1.9, Source: "test"}
	rep := newChecker(loc).Check(context.Background(), Claim{CountryCode: "FR", Samples: samples})
	require.NotNil(t, rep.ClaimCoordinate)
	require.Equal(t, "test", rep.CoordinateFrom)
	for i := 1; i < len(rep.Results); i++ {
		require.LessOrEqual(t, rep.Results[i-1].DistanceToAnchorKm, rep.Results[i].DistanceToAnchorKm)
	}
}

func TestCheckIdempotent(t *testing.T) {
	_, samples := testAnchors()
	c := newChecker(fixedLocator{Status: geocode.Found, Lat: 46.6, Lon: 1.9, Source: "test"})
	claim := Claim{ProxyName: "fr-1", CountryCode: "FR", Samples: samples}
	a := c.Check(context.Background(), claim)
	b := c.Check(context.Background(), claim)
	require.Equal(t, a.Verdict, b.Verdict)
	require.Equal(t, a.Results, b.Results)
}

type stubHint string

func (s stubHint) Country(string) (string, bool) { return string(s), s != "" }

func TestCheckRecordsIPCountry(t *testing.T) {
	tbl, samples := testAnchors()
	c := NewChecker(tbl, testResolver(), nil, stubHint("DE"), Options{})
	rep := c.Check(context.Background(), Claim{ProxyIP: "203.0.113.1", CountryCode: "FR", Samples: samples})
	require.Equal(t, "DE", rep.IPCountry)
	require.Equal(t, overlap.Accept, rep.Verdict)
}
